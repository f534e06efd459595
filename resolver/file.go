package resolver

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/shadelang/slc/ast"
)

// Parser is implemented by package parser's Parse so this package
// doesn't need to import parser directly at the type level — callers
// wire the concrete function in at construction time.
type Parser func(name, source string) (*ast.Module, error)

// FileResolver resolves `import "name"` against an ordered list of
// search directories, trying `<dir>/<name>.sl` in order — the
// filesystem analogue of a C include path.
type FileResolver struct {
	SearchPaths []string
	Parse       Parser

	resolving map[string]bool // cycle detection, one compilation's worth
	cache     map[string]*ast.Module
}

// NewFileResolver builds a FileResolver over the given search paths.
func NewFileResolver(searchPaths []string, parse Parser) *FileResolver {
	return &FileResolver{
		SearchPaths: searchPaths,
		Parse:       parse,
		resolving:   make(map[string]bool),
		cache:       make(map[string]*ast.Module),
	}
}

// Resolve implements ModuleResolver.
func (r *FileResolver) Resolve(moduleName string) (*ast.Module, error) {
	if m, ok := r.cache[moduleName]; ok {
		log.WithField("module", moduleName).Debug("resolver: cache hit")
		return m, nil
	}
	if r.resolving[moduleName] {
		log.WithField("module", moduleName).Warn("resolver: cyclic import detected")
		return nil, errors.Wrapf(ErrCyclicImport, "module %q", moduleName)
	}
	r.resolving[moduleName] = true
	defer delete(r.resolving, moduleName)

	for _, dir := range r.SearchPaths {
		path := filepath.Join(dir, moduleName+".sl")
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrapf(err, "reading %s", path)
		}
		log.WithFields(log.Fields{"module": moduleName, "path": path}).Debug("resolver: found module")
		mod, err := r.Parse(moduleName, string(data))
		if err != nil {
			return nil, &ParseFailedError{ModuleName: moduleName, Err: err}
		}
		r.cache[moduleName] = mod
		return mod, nil
	}
	return nil, errors.Wrapf(ErrModuleNotFound, "module %q", moduleName)
}

// MapResolver resolves against an in-memory table of pre-parsed
// modules; used by tests and by callers embedding fixed library
// modules.
type MapResolver map[string]*ast.Module

// Resolve implements ModuleResolver.
func (m MapResolver) Resolve(moduleName string) (*ast.Module, error) {
	mod, ok := m[moduleName]
	if !ok {
		return nil, errors.Wrapf(ErrModuleNotFound, "module %q", moduleName)
	}
	return mod, nil
}
