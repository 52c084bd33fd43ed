package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/tendril/internal/compiler"
	"github.com/aretw0/tendril/pkg/domain"
)

// Loader implements ports.GraphLoader over a directory of graph files
// (.json, .yaml, .yml, .hcl). The graph name is the file name without its
// extension.
type Loader struct {
	Dir    string
	parser *compiler.Parser
}

// NewLoader creates a loader reading graph files from dir.
func NewLoader(dir string) *Loader {
	return &Loader{Dir: dir, parser: compiler.NewParser()}
}

// Load parses the graph file for name.
func (l *Loader) Load(ctx context.Context, name string) (domain.GraphSpec, error) {
	files, err := l.files()
	if err != nil {
		return domain.GraphSpec{}, err
	}
	path, ok := files[name]
	if !ok {
		return domain.GraphSpec{}, fmt.Errorf("%w: %s", domain.ErrGraphNotFound, name)
	}
	return LoadFile(l.parser, name, path)
}

// List returns the graph names in lexical order.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	files, err := l.files()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// files maps graph names to paths. Two files sharing a base name is an error.
func (l *Loader) files() (map[string]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph directory: %w", err)
	}
	files := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := compiler.FormatOf(entry.Name()); !ok {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if prev, dup := files[name]; dup {
			return nil, fmt.Errorf("graph %s is defined by both %s and %s", name, filepath.Base(prev), entry.Name())
		}
		files[name] = filepath.Join(l.Dir, entry.Name())
	}
	return files, nil
}

// LoadFile parses a single graph file. A document that declares a name
// different from name is rejected.
func LoadFile(parser *compiler.Parser, name, path string) (domain.GraphSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.GraphSpec{}, fmt.Errorf("failed to read graph file: %w", err)
	}
	spec, err := parser.ParseFile(name, path, data)
	if err != nil {
		return domain.GraphSpec{}, err
	}
	if spec.Name != name {
		return domain.GraphSpec{}, fmt.Errorf("%s declares graph %q, expected %q", filepath.Base(path), spec.Name, name)
	}
	return spec, nil
}

// ReadGraph parses one graph file outside of a loader, naming the graph
// after the file unless the document names itself.
func ReadGraph(path string) (domain.GraphSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.GraphSpec{}, fmt.Errorf("failed to read graph file: %w", err)
	}
	base := filepath.Base(path)
	return compiler.NewParser().ParseFile(strings.TrimSuffix(base, filepath.Ext(base)), path, data)
}
