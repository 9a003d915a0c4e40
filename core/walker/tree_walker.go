package walker

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/tristendillon/doppelganger/core/config"
	"github.com/tristendillon/doppelganger/core/logger"
	"github.com/tristendillon/doppelganger/core/models"
)

const dirPerm = 0o755

// Callbacks receive the walk's results as they are discovered. Dir is called
// after the mirrored directory exists; File after its parent has been created.
// Skipped gets non-eligible files and excluded directories, the latter with a
// trailing slash.
type Callbacks struct {
	File    func(models.PathMapping) error
	Dir     func(rel string)
	Skipped func(rel string)
}

type TreeWalker interface {
	Walk(ctx context.Context, srcRoot, dstRoot string, cb Callbacks) error
}

type TreeWalkerImpl struct {
	Extension string
	cfg       *config.Config
	log       *zap.SugaredLogger
}

func NewTreeWalker(cfg *config.Config, log *zap.SugaredLogger) *TreeWalkerImpl {
	return &TreeWalkerImpl{
		Extension: cfg.Extension,
		cfg:       cfg,
		log:       logger.OrDefault(log, "walker"),
	}
}

func (w *TreeWalkerImpl) IsEligible(name string) bool {
	return strings.HasSuffix(name, w.Extension)
}

// DestPath maps a path under srcRoot to the same relative path under dstRoot.
func DestPath(srcRoot, dstRoot, path string) (string, string, error) {
	rel, err := filepath.Rel(srcRoot, path)
	if err != nil {
		return "", "", err
	}
	return filepath.Join(dstRoot, rel), filepath.ToSlash(rel), nil
}

// Walk mirrors every directory under srcRoot into dstRoot and hands each
// eligible file to cb.File. Directory failures are fatal and marked with
// models.ErrDirectoryAccess. The two roots must not overlap.
func (w *TreeWalkerImpl) Walk(ctx context.Context, srcRoot, dstRoot string, cb Callbacks) error {
	srcAbs, err := filepath.Abs(srcRoot)
	if err != nil {
		return directoryError(err, "cannot resolve source root %s", srcRoot)
	}
	dstAbs, err := filepath.Abs(dstRoot)
	if err != nil {
		return directoryError(err, "cannot resolve destination root %s", dstRoot)
	}

	info, err := os.Stat(srcAbs)
	if err != nil {
		return directoryError(err, "cannot read source root %s", srcRoot)
	}
	if !info.IsDir() {
		return directoryError(errors.New("not a directory"), "source root %s", srcRoot)
	}
	if within(dstAbs, srcAbs) {
		return directoryError(errors.New("destination inside source"), "destination %s must not lie under source %s", dstRoot, srcRoot)
	}
	if within(srcAbs, dstAbs) {
		return directoryError(errors.New("source inside destination"), "source %s must not lie under destination %s", srcRoot, dstRoot)
	}
	if err := os.MkdirAll(dstAbs, dirPerm); err != nil {
		return directoryError(err, "cannot create destination root %s", dstRoot)
	}

	return filepath.WalkDir(srcAbs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return directoryError(err, "cannot read %s", path)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		dest, rel, err := DestPath(srcAbs, dstAbs, path)
		if err != nil {
			return directoryError(err, "cannot map %s", path)
		}

		if d.IsDir() {
			return w.visitDir(dest, rel, d.Name(), cb)
		}

		if !w.isRegular(path, d) || !w.IsEligible(d.Name()) {
			w.log.Debugf("Skipping non-eligible file %s", rel)
			if cb.Skipped != nil {
				cb.Skipped(rel)
			}
			return nil
		}

		if cb.File == nil {
			return nil
		}
		return cb.File(models.PathMapping{Source: path, Dest: dest, Rel: rel})
	})
}

func (w *TreeWalkerImpl) visitDir(dest, rel, name string, cb Callbacks) error {
	if rel != "." && w.cfg.IsExcluded(name) {
		w.log.Debugf("Excluding directory: %s", rel)
		if cb.Skipped != nil {
			cb.Skipped(rel + "/")
		}
		return filepath.SkipDir
	}
	if err := os.MkdirAll(dest, dirPerm); err != nil {
		return directoryError(err, "cannot create directory %s", dest)
	}
	if rel != "." && cb.Dir != nil {
		cb.Dir(rel)
	}
	return nil
}

// isRegular follows symlinks to files; symlinked directories are not walked.
func (w *TreeWalkerImpl) isRegular(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// within reports whether path is root or lies beneath it.
func within(path, root string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(root, string(filepath.Separator))+string(filepath.Separator))
}

func directoryError(err error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(err, format, args...), models.ErrDirectoryAccess)
}
