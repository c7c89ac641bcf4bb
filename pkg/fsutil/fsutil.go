// Package fsutil holds the file primitives shared by captures and cleanup.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"syscall"
)

// rename and copyData are swapped in tests to simulate cross-device moves
// and short copies.
var (
	rename   = os.Rename
	copyData = io.Copy
)

// SafeRename moves oldPath to newPath. When the paths are on different
// filesystems it copies and then removes the original. A failed copy never
// leaves a partial file at newPath, and a file already at newPath is only
// touched once the source has been opened.
func SafeRename(oldPath, newPath string) error {
	err := rename(oldPath, newPath)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		log.Printf("[rename] failed to rename %s to %s: %v", oldPath, newPath, err)
		return err
	}

	if err := copyFile(oldPath, newPath); err != nil {
		log.Printf("[rename] failed to copy %s to %s: %v", oldPath, newPath, err)
		return fmt.Errorf("copy %s: %w", oldPath, err)
	}

	if err := os.Remove(oldPath); err != nil {
		log.Printf("[rename] failed to remove original file %s: %v", oldPath, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := copyData(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}

// RemoveFile deletes path. A missing file is not an error and any other
// failure is logged rather than returned.
func RemoveFile(path string) {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return
	}
	log.Printf("[remove_file] failed to remove %s: %v", path, err)
}
