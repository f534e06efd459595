// Package sanitize implements the semantic-analysis pipeline: import
// resolution, scope/identifier resolution, type inference and checking,
// constant folding, entry-point legalization,
// binding assignment, struct layout, and runtime-array validation. The
// eight sub-passes run in that fixed order over a single *ast.Module,
// each one a thin ast.Traverser/ast.Rewriter embedding that overrides
// only the node kinds it cares about.
package sanitize

import (
	"github.com/shadelang/slc/ast"
	"github.com/shadelang/slc/resolver"
)

// Options controls sanitizer behavior that varies by caller.
type Options struct {
	// PartialSanitization allows a module through with UnresolvedBinding
	// downgraded to a non-error: externals keep set(0) attached but may
	// leave binding unassigned. Used by tooling that only needs a typed,
	// scope-resolved module (e.g. a language server).
	PartialSanitization bool

	// ForceAutoBindingResolve resolves binding indices even under
	// PartialSanitization, for externals whose block requests
	// auto_binding.
	ForceAutoBindingResolve bool
}

// state is threaded through every sub-pass in a single Sanitize call.
type state struct {
	module   *ast.Module
	resolver resolver.ModuleResolver
	opts     Options

	// consts accumulates every DeclareConst/DeclareOption encountered
	// during scope resolution, in visitation order; constant folding
	// resolves each to a literal by the same index, and identifier
	// resolution has already rewritten references to
	// VariableValue{NamespaceConst, index}.
	consts       []*ast.DeclareConst
	constValues  []ast.Literal
}

// Sanitize runs all eight sub-passes over module and returns the
// sanitized result (module is mutated in place and also returned for
// convenience). res may be nil if module has no imports.
func Sanitize(module *ast.Module, res resolver.ModuleResolver, opts Options) (*ast.Module, error) {
	st := &state{module: module, resolver: res, opts: opts}

	if err := resolveImports(st); err != nil {
		return nil, err
	}
	if err := resolveScopes(st); err != nil {
		return nil, err
	}
	if err := inferTypes(st); err != nil {
		return nil, err
	}
	if err := foldConstants(st); err != nil {
		return nil, err
	}
	if err := legalizeEntryPoints(st); err != nil {
		return nil, err
	}
	if err := assignBindings(st); err != nil {
		return nil, err
	}
	if err := layoutStructs(st); err != nil {
		return nil, err
	}
	if err := validateRuntimeArrays(st); err != nil {
		return nil, err
	}

	module.Sanitized = true
	module.Partial = opts.PartialSanitization
	return module, nil
}
