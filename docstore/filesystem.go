package docstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paddock/billing-engine/billing"
)

// Filesystem stores documents under a root directory. Paths are the
// storage keys ("{pilotId}/{YYYY-MM}_{name}.pdf"); BaseURL is prepended
// to build public download URLs.
type Filesystem struct {
	Root    string
	BaseURL string // e.g. "http://localhost:8080/files"
}

// NewFilesystem creates the root directory if needed.
func NewFilesystem(root, baseURL string) (*Filesystem, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create document root %s: %w", root, err)
	}
	return &Filesystem{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

// resolve maps a storage path to a file path, refusing escapes from Root.
func (f *Filesystem) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == "." || clean == "" ||
		filepath.IsAbs(clean) ||
		clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes document root", path)
	}
	return filepath.Join(f.Root, clean), nil
}

func (f *Filesystem) Upload(_ context.Context, path string, data []byte, overwrite bool) (string, error) {
	full, err := f.resolve(path)
	if err != nil {
		return "", err
	}
	if !overwrite {
		if _, err := os.Stat(full); err == nil {
			return "", fmt.Errorf("document %s already exists", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create document directory: %w", err)
	}

	// Write to a temp file and rename so a crashed upload never leaves
	// a half-written statement at the final path.
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write document %s: %w", path, err)
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("finalize document %s: %w", path, err)
	}
	return path, nil
}

func (f *Filesystem) Remove(_ context.Context, path string) error {
	full, err := f.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return billing.ErrDocumentNotFound
		}
		return fmt.Errorf("remove document %s: %w", path, err)
	}
	return nil
}

func (f *Filesystem) PublicURL(path string) string {
	return f.BaseURL + "/" + strings.TrimLeft(path, "/")
}
