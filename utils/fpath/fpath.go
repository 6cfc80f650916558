// Package fpath file path helpers.
package fpath

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// HomeDir returns home dir of current user.
func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "home dir")
	}
	return home, nil
}

// Abs resolves dir against the working directory when relative.
func Abs(dir string) (string, error) {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "abs")
	}
	return filepath.Join(cwd, dir), nil
}
