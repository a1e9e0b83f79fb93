package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// portraitsDir is the subdirectory of the storage root that receives
// generated images, mirroring the host platform's upload folder.
const portraitsDir = "portraits"

// LocalUploader stores files under a local directory root.
type LocalUploader struct {
	Root string
}

// Upload writes the file and returns its path relative to the storage root.
// The write goes through a temp file and rename so partial writes are never
// visible.
func (u *LocalUploader) Upload(ctx context.Context, filename string, data []byte, overwrite bool) (string, error) {
	dir := filepath.Join(u.Root, portraitsDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}

	dst := filepath.Join(dir, filename)
	if !overwrite {
		if _, err := os.Stat(dst); err == nil {
			return "", fmt.Errorf("file already exists: %s", dst)
		}
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return "", err
	}

	return filepath.ToSlash(filepath.Join(portraitsDir, filename)), nil
}
