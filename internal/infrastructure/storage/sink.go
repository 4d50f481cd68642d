// Package storage delivers exported workbooks to their destination.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ExportSink stores a finished export file
type ExportSink interface {
	Deliver(ctx context.Context, name string, data []byte, contentType string) (*Delivery, error)
}

// Delivery describes where an export ended up
type Delivery struct {
	Key      string    `json:"key"`
	Location string    `json:"location"`
	URL      string    `json:"url,omitempty"`
	Size     int       `json:"size"`
	StoredAt time.Time `json:"storedAt"`
}

// ObjectKey builds a time-prefixed key for an export file so repeated exports never overwrite each other
func ObjectKey(prefix, name string, at time.Time) string {
	name = filepath.Base(strings.TrimSpace(name))
	return path.Join(prefix, at.UTC().Format("20060102-150405")+"-"+name)
}

// LocalExportSink writes exports into a directory
type LocalExportSink struct {
	dir string
	now func() time.Time
}

// NewLocalExportSink creates a sink writing into dir
func NewLocalExportSink(dir string) (*LocalExportSink, error) {
	if dir == "" {
		return nil, errors.New("export directory is required")
	}
	return &LocalExportSink{dir: dir, now: time.Now}, nil
}

// Deliver writes data to a new file in the export directory
func (s *LocalExportSink) Deliver(ctx context.Context, name string, data []byte, _ string) (*Delivery, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errors.New("file name is required")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	now := s.now()
	key := ObjectKey("", name, now)
	full := filepath.Join(s.dir, key)
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}
	return &Delivery{
		Key:      key,
		Location: full,
		Size:     len(data),
		StoredAt: now,
	}, nil
}
