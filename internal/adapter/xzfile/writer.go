// Package xzfile writes fetched payloads as xz-compressed files under the
// mirror root, creating partition directories as needed.
package xzfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"

	"github.com/couchcryptid/climate-mirror/internal/domain"
)

// Writer stores raw payloads at paths relative to its root directory.
type Writer struct {
	root string
}

// NewWriter creates a sink rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{root: dir}
}

// Prepare creates the partition directory for relPath ahead of the fetch,
// so a doomed unit fails before any network traffic.
func (w *Writer) Prepare(relPath string) error {
	dir := filepath.Dir(filepath.Join(w.root, filepath.FromSlash(relPath)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %w", domain.ErrSink, dir, err)
	}
	return nil
}

// Store compresses data and writes it at relPath below the root. The write
// goes to a temp file in the target directory and is renamed into place, so
// readers of the mirror tree never observe a truncated file.
func (w *Writer) Store(data []byte, relPath string) error {
	dest := filepath.Join(w.root, filepath.FromSlash(relPath))
	dir := filepath.Dir(dest)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %w", domain.ErrSink, dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(dest)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp: %w", domain.ErrSink, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	xw, err := xz.NewWriter(tmp)
	if err != nil {
		return fmt.Errorf("%w: xz writer: %w", domain.ErrSink, err)
	}
	if _, err := xw.Write(data); err != nil {
		return fmt.Errorf("%w: write %s: %w", domain.ErrSink, relPath, err)
	}
	if err := xw.Close(); err != nil {
		return fmt.Errorf("%w: finish %s: %w", domain.ErrSink, relPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp: %w", domain.ErrSink, err)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("%w: rename %s: %w", domain.ErrSink, relPath, err)
	}
	committed = true
	return nil
}
