package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBlobStorage keeps one file per owner in dir. Writes go to a temporary
// file in the same directory which is synced and then renamed over the target.
type FileBlobStorage struct {
	dir string
}

func NewFileBlobStorage(dir string) (*FileBlobStorage, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cart dir: %w", err)
	}
	return &FileBlobStorage{dir: dir}, nil
}

// path hashes the owner so arbitrary ids cannot escape dir.
func (f *FileBlobStorage) path(owner string) string {
	sum := sha256.Sum256([]byte(owner))
	return filepath.Join(f.dir, "cart-"+hex.EncodeToString(sum[:16])+".json")
}

func (f *FileBlobStorage) Get(_ context.Context, owner string) ([]byte, error) {
	data, err := os.ReadFile(f.path(owner))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

func (f *FileBlobStorage) Set(_ context.Context, owner string, blob []byte) (err error) {
	tmp, err := os.CreateTemp(f.dir, ".cart-*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(blob); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path(owner))
}

func (f *FileBlobStorage) Delete(_ context.Context, owner string) error {
	err := os.Remove(f.path(owner))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
