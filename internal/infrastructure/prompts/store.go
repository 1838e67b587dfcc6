// Package prompts serves the text templates fed to the generation pipeline.
// Templates ship embedded in the binary; a directory configured under
// prompts.dir overrides them file by file.
package prompts

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/eslsoft/oghmai/internal/infrastructure/config"
)

const ext = ".tmpl"

//go:embed all:templates
var embedded embed.FS

// ErrTemplateNotFound is returned for unknown names and empty categories.
var ErrTemplateNotFound = errors.New("prompt template not found")

// Store resolves templates by name, preferring the override layer.
type Store struct {
	layers []fs.FS
	sample func([]string) string
}

// NewStore builds the store from configuration.
func NewStore(cfg *config.Config) (*Store, error) {
	base, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, fmt.Errorf("open embedded templates: %w", err)
	}
	var override fs.FS
	if dir := strings.TrimSpace(cfg.Prompts.Dir); dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("prompts dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("prompts dir %s is not a directory", dir)
		}
		override = os.DirFS(dir)
	}
	return newStore(base, override), nil
}

func newStore(base, override fs.FS) *Store {
	s := &Store{sample: lo.Sample[string]}
	if override != nil {
		s.layers = append(s.layers, override)
	}
	s.layers = append(s.layers, base)
	return s
}

// Load returns the template called name, e.g. "describe_word".
func (s *Store) Load(name string) (string, error) {
	file := name + ext
	if !fs.ValidPath(file) {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	for _, layer := range s.layers {
		data, err := fs.ReadFile(layer, file)
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("read template %s: %w", name, err)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
}

// LoadRandom returns one template drawn from the category directory.
func (s *Store) LoadRandom(category string) (string, error) {
	names, err := s.List(category)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w: category %s is empty", ErrTemplateNotFound, category)
	}
	return s.Load(path.Join(category, s.sample(names)))
}

// List returns the template names of a category, merged across layers.
func (s *Store) List(category string) ([]string, error) {
	if !fs.ValidPath(category) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, category)
	}
	var names []string
	for _, layer := range s.layers {
		entries, err := fs.ReadDir(layer, category)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("list category %s: %w", category, err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
				continue
			}
			names = append(names, strings.TrimSuffix(e.Name(), ext))
		}
	}
	names = lo.Uniq(names)
	sort.Strings(names)
	return names, nil
}
