// Package fsutil writes generated files without ever replacing existing ones.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/johndauphine/drizzle-project/internal/logging"
)

// ErrExists is returned when a destination path is already taken.
var ErrExists = errors.New("already exists")

const (
	dirMode  = 0755
	fileMode = 0644
)

// Exists reports whether anything (file, directory, symlink) is at path.
// Errors other than "not exist" are returned.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("checking %s: %w", path, err)
}

// EnsureCanWrite checks every path before anything is written and fails on
// the first one that exists, so a run either has all destinations free or
// writes nothing.
func EnsureCanWrite(paths ...string) error {
	for _, p := range paths {
		exists, err := Exists(p)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%s %w", p, ErrExists)
		}
	}
	return nil
}

// Write creates path with content, creating missing parent directories.
// It refuses to overwrite. Content goes to a temporary file in the same
// directory first and is linked into place, so readers never see a partial
// file.
func Write(path string, content []byte) error {
	exists, err := Exists(path)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%s %w", path, ErrExists)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // the linked path keeps the content

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("setting mode on %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}

	// Link fails if path appeared since the check above; rename would not.
	err = link(tmpName, path)
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%s %w", path, ErrExists)
	}
	// Filesystems without hard links get an exclusive create instead.
	logging.Debug("Linking %s failed (%v), creating it directly", path, err)
	return writeExclusive(path, content)
}

// link is os.Link; tests replace it.
var link = os.Link

func writeExclusive(path string, content []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fileMode)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s %w", path, ErrExists)
		}
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// Rewrite replaces the content of an existing file in place, keeping its
// permissions. Used for placeholder substitution and manifest updates.
func Rewrite(path string, content []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		return fmt.Errorf("setting mode on %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
