package artifact

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"suitecompare/internal/errors"
)

// WriteFile creates path atomically: write fills a temp file in the same
// directory, which is renamed over path only after write and close succeed.
// Any failure leaves path untouched and returns a WRITE error.
func WriteFile(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Write(path, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Write(path, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	buf := bufio.NewWriter(tmp)
	if err := write(buf); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.Write(path, err)
	}
	if err := buf.Flush(); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.Write(path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.Write(path, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		cleanup()
		return errors.Write(path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return errors.Write(path, err)
	}
	return nil
}

// WriteBytes is WriteFile for content already in memory
func WriteBytes(path string, data []byte) error {
	return WriteFile(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
