// Package resolver implements the module import policy the sanitizer
// consults. Resolution — where an imported module's text
// actually lives — is deliberately kept outside the sanitizer itself so
// the same sanitize.Sanitize logic can run against an in-memory test
// fixture, a single search path, or (eventually) a package-manager-style
// lookup, without the sanitizer caring which.
package resolver

import (
	"github.com/pkg/errors"

	"github.com/shadelang/slc/ast"
)

// ModuleResolver resolves an imported module name to its parsed AST.
// Implementations are synchronous; this call is the only blocking
// operation in the pipeline.
type ModuleResolver interface {
	Resolve(moduleName string) (*ast.Module, error)
}

// Sentinel errors recognized by package sanitize.
var (
	ErrModuleNotFound = errors.New("module not found")
	ErrCyclicImport   = errors.New("cyclic import")
)

// ParseFailedError wraps an underlying parse failure for an imported
// module.
type ParseFailedError struct {
	ModuleName string
	Err        error
}

func (e *ParseFailedError) Error() string {
	return "parsing imported module " + e.ModuleName + ": " + e.Err.Error()
}

func (e *ParseFailedError) Unwrap() error { return e.Err }
