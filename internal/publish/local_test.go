package publish

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalUploaderWritesFile(t *testing.T) {
	root := t.TempDir()
	u := &LocalUploader{Root: root}

	path, err := u.Upload(context.Background(), "portrait-elora.png", []byte("bytes"), false)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if path != "portraits/portrait-elora.png" {
		t.Fatalf("unexpected path: %s", path)
	}

	data, err := os.ReadFile(filepath.Join(root, "portraits", "portrait-elora.png"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "bytes" {
		t.Fatalf("content mismatch: %q", data)
	}
}

func TestLocalUploaderCollision(t *testing.T) {
	root := t.TempDir()
	u := &LocalUploader{Root: root}

	if _, err := u.Upload(context.Background(), "a.png", []byte("1"), false); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if _, err := u.Upload(context.Background(), "a.png", []byte("2"), false); err == nil {
		t.Fatalf("expected collision error without overwrite")
	}
	if _, err := u.Upload(context.Background(), "a.png", []byte("2"), true); err != nil {
		t.Fatalf("overwrite upload: %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(root, "portraits", "a.png"))
	if string(data) != "2" {
		t.Fatalf("overwrite did not replace content: %q", data)
	}
}
