package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/tristendillon/doppelganger/core/logger"
	"github.com/tristendillon/doppelganger/core/models"
)

type FileWatcherImpl struct {
	FileWatcher *models.FileWatcher
	Extension   string
	log         *zap.SugaredLogger
}

func NewFileWatcher(rootDir, extension string, excludeNames []string, log *zap.SugaredLogger) (*FileWatcherImpl, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot resolve %s", rootDir)
	}
	fw, err := models.NewFileWatcher(absRoot, excludeNames)
	if err != nil {
		return nil, err
	}
	return &FileWatcherImpl{
		FileWatcher: fw,
		Extension:   extension,
		log:         logger.OrDefault(log, "watcher"),
	}, nil
}

// Watch blocks until ctx is done or the underlying watcher fails. OnChange
// runs on this goroutine, so regenerations never overlap.
func (fw *FileWatcherImpl) Watch(ctx context.Context) error {
	defer fw.close()

	if err := fw.addWatchersRecursively(fw.FileWatcher.RootDir); err != nil {
		return errors.Wrap(err, "failed to add watchers")
	}

	if err := fw.FileWatcher.OnStart(); err != nil {
		fw.log.Errorf("Watcher.OnStart failed: %v", err)
	}

	var timer *time.Timer
	var debounce <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.FileWatcher.Watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if fw.shouldExcludePath(event.Name) {
				continue
			}
			fw.log.Debugf("File event: %s %s", event.Op, event.Name)
			fw.handleEvent(event)

			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(fw.FileWatcher.Debounce)
			debounce = timer.C

		case <-debounce:
			debounce = nil
			fw.log.Debugf("File changes detected, regenerating...")
			if err := fw.FileWatcher.OnChange(); err != nil {
				fw.log.Errorf("Watcher.OnChange failed: %v", err)
			}

		case err, ok := <-fw.FileWatcher.Watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			fw.log.Errorf("Watcher error: %v", err)
		}
	}
}

func (fw *FileWatcherImpl) handleEvent(event fsnotify.Event) {
	if strings.HasSuffix(event.Name, fw.Extension) &&
		(event.Has(fsnotify.Write) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
		fw.FileWatcher.OnInvalidate(event.Name)
	}

	if event.Has(fsnotify.Create) {
		if stat, err := os.Stat(event.Name); err == nil && stat.IsDir() {
			if err := fw.addWatchersRecursively(event.Name); err != nil {
				fw.log.Warnf("Failed to watch new directory %s: %v", event.Name, err)
			}
		}
	}
}

func (fw *FileWatcherImpl) close() {
	if err := fw.FileWatcher.Watcher.Close(); err != nil {
		fw.log.Debugf("Closing watcher: %v", err)
	}
}

func (fw *FileWatcherImpl) shouldExcludePath(path string) bool {
	relPath, err := filepath.Rel(fw.FileWatcher.RootDir, filepath.Clean(path))
	if err != nil || relPath == "." {
		return false
	}
	for _, part := range strings.Split(relPath, string(filepath.Separator)) {
		for _, name := range fw.FileWatcher.ExcludeNames {
			if part == name {
				return true
			}
		}
	}
	return false
}

func (fw *FileWatcherImpl) addWatchersRecursively(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			return nil
		}

		if fw.shouldExcludePath(path) {
			fw.log.Debugf("Excluding directory: %s", path)
			return filepath.SkipDir
		}

		fw.log.Debugf("Adding watcher for: %s", path)
		if err := fw.FileWatcher.Watcher.Add(path); err != nil {
			return errors.Wrapf(err, "failed to add watcher for %s", path)
		}

		return nil
	})
}
