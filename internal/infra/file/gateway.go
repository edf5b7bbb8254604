// Package file persists progress keys as one file per key in a directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"ranczo-quiz/internal/domain"
)

// Gateway stores each key in <dir>/<key>.json. Writes go through a temp file
// and rename so a crash never leaves a half-written value.
type Gateway struct {
	dir string
}

// NewGateway creates dir if needed.
func NewGateway(dir string) (*Gateway, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Gateway{dir: dir}, nil
}

func (g *Gateway) Get(_ context.Context, key string) (string, error) {
	path, err := g.path(key)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", domain.ErrKeyNotFound
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (g *Gateway) Set(_ context.Context, key, value string) error {
	path, err := g.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(g.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (g *Gateway) Remove(_ context.Context, key string) error {
	path, err := g.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (g *Gateway) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(g.dir, key+".json"), nil
}
