package pathutil

import (
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
)

// MockPath resolves p against the working directory. An empty p means the working directory itself.
func MockPath(p string) string {
	if p == "" {
		p = "."
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}

	cwd, err := os.Getwd()
	if err != nil {
		abs, _ := filepath.Abs(p)
		return abs
	}

	return filepath.Join(cwd, p)
}

// IsMockDir reports whether p exists on disk and is a directory.
func IsMockDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// Exists reports whether p exists in fs.
func Exists(fs billy.Basic, p string) bool {
	_, err := fs.Stat(p)
	return err == nil
}

// IsDir reports whether p exists in fs and is a directory.
func IsDir(fs billy.Basic, p string) bool {
	info, err := fs.Stat(p)
	return err == nil && info.IsDir()
}
