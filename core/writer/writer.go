package writer

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/tristendillon/doppelganger/core/models"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// WriteFile writes data to path, creating missing parent directories and
// replacing any existing file. Failures are marked with models.ErrWrite.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return errors.Mark(errors.Wrapf(err, "failed to create parent directory for %s", path), models.ErrWrite)
	}
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return errors.Mark(errors.Wrapf(err, "failed to write %s", path), models.ErrWrite)
	}
	return nil
}
