package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Store persists one collection as a full snapshot. Save overwrites the
// previous snapshot; Load returns an empty collection when none exists.
type Store[T any] interface {
	Save(ctx context.Context, items []T) error
	Load(ctx context.Context) ([]T, error)
}

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

type fileStore[T any] struct {
	dir    string
	path   string
	format string
}

func NewFileStore[T any](dir, filename, format string) Store[T] {
	return &fileStore[T]{
		dir:    dir,
		path:   filepath.Join(dir, filename),
		format: format,
	}
}

func (s *fileStore[T]) Save(_ context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}

	data, err := s.encode(items)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", s.path, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", s.dir, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(s.path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace snapshot %s: %w", s.path, err)
	}

	log.Infof("💾 Saved %d items to %s", len(items), s.path)
	return nil
}

func (s *fileStore[T]) Load(_ context.Context) ([]T, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", s.path, err)
	}

	items := []T{}
	switch s.format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &items)
	default:
		err = json.Unmarshal(data, &items)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", s.path, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (s *fileStore[T]) encode(items []T) ([]byte, error) {
	var buf bytes.Buffer
	switch s.format {
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(items); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	default:
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(items); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
