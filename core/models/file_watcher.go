package models

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 500 * time.Millisecond

// FileWatcher holds the state of a recursive source-tree watch. OnChange runs
// once per burst of events, after Debounce has passed without new events.
type FileWatcher struct {
	Watcher  *fsnotify.Watcher
	RootDir  string
	Debounce time.Duration
	// ExcludeNames are directory base names skipped at any depth.
	ExcludeNames []string
	OnStart      func() error
	OnChange     func() error
	OnInvalidate func(path string)
}

func NewFileWatcher(rootDir string, excludeNames []string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}

	return &FileWatcher{
		Watcher:      watcher,
		RootDir:      rootDir,
		Debounce:     DefaultDebounce,
		ExcludeNames: excludeNames,
		OnStart:      func() error { return nil },
		OnChange:     func() error { return errors.New("OnChange not set") },
		OnInvalidate: func(string) {},
	}, nil
}

func (fw *FileWatcher) AddOnStartFunc(onStart func() error) {
	fw.OnStart = onStart
}

func (fw *FileWatcher) AddOnChangeFunc(generateFunc func() error) {
	fw.OnChange = generateFunc
}

func (fw *FileWatcher) AddOnInvalidateFunc(invalidate func(path string)) {
	fw.OnInvalidate = invalidate
}
