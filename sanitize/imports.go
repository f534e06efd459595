package sanitize

import (
	"github.com/pkg/errors"

	"github.com/shadelang/slc/ast"
	"github.com/shadelang/slc/resolver"
)

// resolveImports resolves every top-level *ast.Import statement through
// the state's resolver; its tables are spliced into the importing module
// under the import's alias, with every handle the imported module uses
// internally rebased to its new index.
func resolveImports(st *state) error {
	module := st.module

	var remaining []ast.Statement
	for _, s := range module.Body {
		imp, ok := s.(*ast.Import)
		if !ok {
			remaining = append(remaining, s)
			continue
		}
		if err := spliceImport(st, imp); err != nil {
			return err
		}
		imp.Resolved = true
	}
	module.Body = remaining
	return nil
}

// spliceImport resolves one import and appends the imported module's
// tables onto the importing module, offsetting every handle the
// imported declarations reference.
func spliceImport(st *state, imp *ast.Import) error {
	if st.resolver == nil {
		return ast.NewError(ast.ErrModuleNotFound, imp.Span, "import %q: no resolver configured")
	}
	imported, err := st.resolver.Resolve(imp.ModuleName)
	if err != nil {
		if errors.Is(err, resolver.ErrCyclicImport) {
			return ast.Wrap(ast.ErrCyclicImport, imp.Span, err)
		}
		if errors.Is(err, resolver.ErrModuleNotFound) {
			return ast.Wrap(ast.ErrModuleNotFound, imp.Span, err)
		}
		return ast.Wrap(ast.ErrModuleNotFound, imp.Span, err)
	}

	module := st.module
	structBase := ast.StructHandle(len(module.Structs))
	aliasBase := ast.AliasHandle(len(module.Aliases))

	rebase := &handleRebaser{structBase: uint32(structBase), aliasBase: uint32(aliasBase)}

	for _, sd := range imported.Structs {
		rebase.rebaseStruct(&sd)
		module.Structs = append(module.Structs, sd)
	}
	for _, ad := range imported.Aliases {
		rebase.rebaseType(&ad.Target)
		module.Aliases = append(module.Aliases, ad)
	}
	for _, ext := range imported.Externals {
		for i := range ext.Bindings {
			rebase.rebaseType(&ext.Bindings[i].Type)
		}
		module.Externals = append(module.Externals, ext)
	}
	for _, fn := range imported.Functions {
		rebase.rebaseFunction(&fn)
		module.Functions = append(module.Functions, fn)
	}
	return nil
}

// handleRebaser offsets StructHandle/AliasHandle references found inside
// a spliced declaration by the importing module's pre-splice table
// lengths, so the imported module's internal cross-references keep
// pointing at the right entries in their new home.
type handleRebaser struct {
	structBase uint32
	aliasBase  uint32
}

func (r *handleRebaser) rebaseType(t *ast.Type) {
	switch t.Kind {
	case ast.KindStruct:
		t.Struct = ast.StructHandle(uint32(t.Struct) + r.structBase)
	case ast.KindUniform, ast.KindStorage, ast.KindPushConstant:
		t.Struct = ast.StructHandle(uint32(t.Struct) + r.structBase)
	case ast.KindAlias:
		t.Alias = ast.AliasHandle(uint32(t.Alias) + r.aliasBase)
	case ast.KindArray:
		if t.Elem != nil {
			r.rebaseType(t.Elem)
		}
	case ast.KindFunction:
		for i := range t.Params {
			r.rebaseType(&t.Params[i])
		}
		if t.Result != nil {
			r.rebaseType(t.Result)
		}
	}
}

func (r *handleRebaser) rebaseStruct(sd *ast.StructDesc) {
	for i := range sd.Members {
		r.rebaseType(&sd.Members[i].Type)
	}
}

func (r *handleRebaser) rebaseFunction(fn *ast.FunctionDesc) {
	for i := range fn.Params {
		r.rebaseType(&fn.Params[i].Type)
	}
	if fn.Result != nil {
		r.rebaseType(&fn.Result.Type)
	}
}
