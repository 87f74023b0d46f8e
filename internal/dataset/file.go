package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"mag-surveyor/internal/survey"
)

// ExportFile writes store to path, creating parent directories as needed.
func ExportFile(path string, store *survey.Store) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", filepath.Base(path), cerr)
		}
	}()
	return Write(f, store)
}

// ImportFile reads the batch stored at path.
func ImportFile(path string) (Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return Batch{}, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	b, err := Read(f)
	logSkipped(filepath.Base(path), b)
	return b, err
}
