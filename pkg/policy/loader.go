package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/rs/zerolog"
)

// Module is a Rego source file.
type Module struct {
	// Name is the module file name, used in compiler messages.
	Name string

	// Package is the Rego package path (e.g. "data.actorflow").
	Package string

	// Rego is the module source.
	Rego string
}

// Loader reads Rego modules from files and directories.
type Loader struct {
	logger zerolog.Logger
}

// NewLoader creates a new module loader.
func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{
		logger: logger.With().Str("component", "policy-loader").Logger(),
	}
}

// LoadFromPaths loads every .rego file under paths. Directories are walked
// and their files loaded in lexical order.
func (l *Loader) LoadFromPaths(paths ...string) ([]Module, error) {
	var modules []Module

	for _, path := range paths {
		loaded, err := l.loadFromPath(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load from path %s: %w", path, err)
		}
		modules = append(modules, loaded...)
	}

	l.logger.Debug().
		Int("total", len(modules)).
		Int("sources", len(paths)).
		Msg("Policy modules loaded")

	return modules, nil
}

func (l *Loader) loadFromPath(path string) ([]Module, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	if !info.IsDir() {
		m, err := l.loadFromFile(path)
		if err != nil {
			return nil, err
		}
		return []Module{m}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".rego") && !strings.HasSuffix(p, "_test.rego") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}
	sort.Strings(files)

	modules := make([]Module, 0, len(files))
	for _, f := range files {
		m, err := l.loadFromFile(f)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, nil
}

func (l *Loader) loadFromFile(path string) (Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Module{}, fmt.Errorf("failed to read file: %w", err)
	}

	m, err := ParseModule(filepath.Base(path), string(data))
	if err != nil {
		return Module{}, err
	}

	l.logger.Debug().
		Str("path", path).
		Str("package", m.Package).
		Msg("Policy module loaded from file")

	return m, nil
}

// ParseModule parses src and records its package path.
func ParseModule(name, src string) (Module, error) {
	parsed, err := ast.ParseModule(name, src)
	if err != nil {
		return Module{}, fmt.Errorf("failed to parse policy %s: %w", name, err)
	}
	return Module{
		Name:    name,
		Package: parsed.Package.Path.String(),
		Rego:    src,
	}, nil
}
