// Package storage holds file bytes for the document registry. The
// registry only generates paths and enforces category/ownership rules;
// blob internals stay behind this interface.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type BlobStore interface {
	Put(path string, r io.Reader) error
	Get(path string) (io.ReadCloser, error)
	Delete(path string) error
}

// GeneratePath builds the storage key for a new deal document. The
// original name only contributes its extension; the uuid prevents
// collisions between same-named uploads.
func GeneratePath(dealID uint, name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	return fmt.Sprintf("deals/%d/%s%s", dealID, uuid.NewString(), ext)
}

// DiskStore keeps blobs under a root directory.
type DiskStore struct {
	Root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{Root: root}, nil
}

func (s *DiskStore) Put(path string, r io.Reader) error {
	full := filepath.Join(s.Root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	f, err := os.Create(full)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return err
	}
	return f.Close()
}

func (s *DiskStore) Get(path string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.Root, filepath.FromSlash(path)))
}

func (s *DiskStore) Delete(path string) error {
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(path)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
