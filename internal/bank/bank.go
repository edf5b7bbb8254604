// Package bank holds the built-in question bank and its loaders.
package bank

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"ranczo-quiz/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var embedded []byte

type document struct {
	Questions []domain.Question `yaml:"questions"`
}

// Parse decodes and validates a YAML bank. Order is preserved; the daily
// quiz depends on it.
func Parse(data []byte) ([]domain.Question, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode bank: %w", err)
	}
	if err := Validate(doc.Questions); err != nil {
		return nil, fmt.Errorf("invalid bank: %w", err)
	}
	return doc.Questions, nil
}

// Builtin returns the embedded bank.
func Builtin() ([]domain.Question, error) {
	return Parse(embedded)
}

// LoadFile reads a bank from a YAML file.
func LoadFile(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bank: %w", err)
	}
	return Parse(data)
}

// Loader serves the embedded bank, or a file when Path is set.
type Loader struct {
	Path string
}

func (l Loader) LoadBank(_ context.Context) ([]domain.Question, error) {
	if l.Path != "" {
		return LoadFile(l.Path)
	}
	return Builtin()
}
