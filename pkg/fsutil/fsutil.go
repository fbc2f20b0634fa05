package fsutil

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
)

// WriteAtomic writes the output of `write` to a temporary file next to
// `path` and renames it over `path` once everything was written. Readers
// either see the old file or the complete new one.
func WriteAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func(err error) error {
		tmp.Close()
		return errors.Join(err, os.Remove(tmpName))
	}

	buffered := bufio.NewWriter(tmp)
	err = write(buffered)
	if err == nil {
		err = buffered.Flush()
	}
	if err == nil {
		err = tmp.Sync()
	}
	if err != nil {
		return cleanup(err)
	}
	err = tmp.Close()
	if err != nil {
		os.Remove(tmpName)
		return err
	}
	err = os.Chmod(tmpName, 0644)
	if err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// WriteFileAtomic is WriteAtomic for contents that are already in memory.
func WriteFileAtomic(path string, contents []byte) error {
	return WriteAtomic(path, func(w io.Writer) error {
		_, err := w.Write(contents)
		return err
	})
}
