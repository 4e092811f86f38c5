// Package save hands finished composites to their destination.
package save

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gitanshu/qrgen/export"
	"github.com/gitanshu/qrgen/store"
)

// Saver receives an encoded composite under its derived file name.
type Saver interface {
	Save(ctx context.Context, blob export.Blob) error
}

// Func adapts a function to the Saver interface.
type Func func(ctx context.Context, blob export.Blob) error

// Save calls f.
func (f Func) Save(ctx context.Context, blob export.Blob) error {
	return f(ctx, blob)
}

// Recorder is the part of the export ledger the DirSaver writes to.
type Recorder interface {
	Record(ctx context.Context, rec store.ExportRecord) (store.ExportRecord, error)
}

// DirSaver writes composites into a directory and records each write in the
// ledger. Existing files are never overwritten; a numbered suffix is added
// instead, the way browsers name repeated downloads.
type DirSaver struct {
	dir    string
	ledger Recorder
	log    *slog.Logger
}

// NewDirSaver returns a DirSaver writing into dir. ledger may be nil.
func NewDirSaver(dir string, ledger Recorder, log *slog.Logger) *DirSaver {
	return &DirSaver{dir: dir, ledger: ledger, log: log}
}

// Save writes blob to disk and records it.
func (s *DirSaver) Save(ctx context.Context, blob export.Blob) error {
	_, err := s.Write(ctx, blob)
	return err
}

// Write is Save returning the written record. Without a ledger the record
// is still filled in but carries no ID.
func (s *DirSaver) Write(ctx context.Context, blob export.Blob) (store.ExportRecord, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return store.ExportRecord{}, fmt.Errorf("create output dir: %w", err)
	}

	path, err := s.create(blob.Filename, blob.Data)
	if err != nil {
		return store.ExportRecord{}, err
	}
	s.log.Info("export saved", "path", path, "format", blob.Format, "bytes", len(blob.Data))

	rec := store.ExportRecord{
		Filename:   filepath.Base(path),
		Path:       path,
		Format:     string(blob.Format),
		Size:       len(blob.Data),
		Title:      blob.Title,
		SourceText: blob.SourceText,
	}
	if s.ledger == nil {
		return rec, nil
	}
	rec, err = s.ledger.Record(ctx, rec)
	if err != nil {
		return store.ExportRecord{}, fmt.Errorf("record export: %w", err)
	}
	return rec, nil
}

// create writes data to the first free name derived from filename.
func (s *DirSaver) create(filename string, data []byte) (string, error) {
	name := SanitizeFilename(filename)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for i := 0; i < 1000; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", base, i, ext)
		}
		path := filepath.Join(s.dir, candidate)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %s: %w", path, err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close %s: %w", path, err)
		}
		return path, nil
	}
	return "", fmt.Errorf("no free file name for %q in %s", name, s.dir)
}

// SanitizeFilename replaces path separators and control characters so a
// title cannot escape the output directory.
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':':
			return '_'
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "" || strings.Trim(name, ".") == "" {
		return export.DefaultName
	}
	return name
}
