package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// UploadStore writes ticket attachments to a server-local directory and
// hands back the public reference under the configured URL prefix.
type UploadStore struct {
	dir          string
	publicPrefix string
}

// NewUploadStore ensures the upload directory exists.
func NewUploadStore(dir, publicPrefix string) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &UploadStore{dir: dir, publicPrefix: publicPrefix}, nil
}

// Save stores the uploaded file under a generated unique name preserving
// its original extension and returns the public reference path.
func (u *UploadStore) Save(fh *multipart.FileHeader) (string, error) {
	name := uuid.NewString() + sanitizeExt(fh.Filename)

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(u.dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return path.Join(u.publicPrefix, name), nil
}

// Dir returns the local directory backing the store.
func (u *UploadStore) Dir() string {
	return u.dir
}

// sanitizeExt keeps only a plain lowercase extension; anything with path
// separators or oversized input is dropped.
func sanitizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) > 16 || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}
