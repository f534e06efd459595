package sanitize

import (
	"github.com/shadelang/slc/ast"
)

// symKind discriminates a global-scope symbol table entry.
type symKind uint8

const (
	symStruct symKind = iota
	symAlias
	symFunction
	symExternal
	symConstSlot
)

type symbol struct {
	kind symKind
	// idx means: Structs index (symStruct), Aliases index (symAlias),
	// Functions index (symFunction), (block<<16|binding) (symExternal),
	// or consts slot (symConstSlot).
	idx uint32
}

// builtinIntrinsics maps a bare call-target name to its IntrinsicID,
// consulted only when the name isn't shadowed by a user declaration.
var builtinIntrinsics = map[string]ast.IntrinsicID{
	"Sample":      ast.IntrinsicSample,
	"SampleLevel": ast.IntrinsicSampleLevel,
	"Size":        ast.IntrinsicSize,
	"ArrayLength": ast.IntrinsicArrayLength,
	"min":         ast.IntrinsicMin,
	"max":         ast.IntrinsicMax,
	"clamp":       ast.IntrinsicClamp,
	"dot":         ast.IntrinsicDot,
	"cross":       ast.IntrinsicCross,
	"normalize":   ast.IntrinsicNormalize,
	"length":      ast.IntrinsicLength,
	"lerp":        ast.IntrinsicLerp,
	"pow":         ast.IntrinsicPow,
	"abs":         ast.IntrinsicAbs,
	"floor":       ast.IntrinsicFloor,
	"ceil":        ast.IntrinsicCeil,
	"sqrt":        ast.IntrinsicSqrt,
}

// builtinConstructors maps a bare call-target name to the primitive/
// vector/matrix type it casts/constructs.
var builtinConstructors = map[string]ast.Type{
	"bool": ast.Primitive(ast.Bool),
	"f32":  ast.Primitive(ast.F32),
	"f64":  ast.Primitive(ast.F64),
	"i32":  ast.Primitive(ast.I32),
	"u32":  ast.Primitive(ast.U32),
	"vec2": ast.Vector(2, ast.F32),
	"vec3": ast.Vector(3, ast.F32),
	"vec4": ast.Vector(4, ast.F32),
	"mat2": ast.Matrix(2, 2, ast.F32),
	"mat3": ast.Matrix(3, 3, ast.F32),
	"mat4": ast.Matrix(4, 4, ast.F32),
}

// scopeResolver builds the
// module-level symbol table, then walks every function body threading a
// lexical scope stack, rewriting raw AccessIdentifier chains into
// resolved VariableValue/AliasValue/Function/Intrinsic/ConstantValue
// nodes (or a resolved-Base AccessIdentifier member chain).
type scopeResolver struct {
	ast.Rewriter

	st      *state
	globals map[string]symbol

	// scopes is the lexical stack for the function currently being
	// walked; scopes[0] holds its parameters.
	scopes []map[string]localSlot
	// nextLocal is the next NamespaceLocal slot index within the
	// function currently being walked.
	nextLocal uint32
}

type localSlot struct {
	namespace ast.VariableNamespace
	index     uint32
}

func resolveScopes(st *state) error {
	r := &scopeResolver{st: st, globals: make(map[string]symbol)}
	r.Self = r
	if err := r.buildGlobalTable(); err != nil {
		return err
	}

	for i := range st.module.Functions {
		fn := &st.module.Functions[i]
		r.scopes = []map[string]localSlot{make(map[string]localSlot)}
		r.nextLocal = 0
		for pi, p := range fn.Params {
			r.scopes[0][p.Name] = localSlot{namespace: ast.NamespaceParam, index: uint32(pi)}
		}
		body, err := ast.RewriteStmts(r, fn.Body)
		if err != nil {
			return err
		}
		fn.Body = body
	}

	// Module-scope consts/options were already registered into
	// r.st.consts by buildGlobalTable; walking Body with an empty scope
	// stack means RewriteDeclareConst's function-local registration
	// branch is skipped, avoiding a duplicate slot.
	r.scopes = nil
	body, err := ast.RewriteStmts(r, st.module.Body)
	if err != nil {
		return err
	}
	st.module.Body = body
	return nil
}

func (r *scopeResolver) buildGlobalTable() error {
	module := r.st.module
	for i, sd := range module.Structs {
		if _, dup := r.globals[sd.Name]; dup {
			return ast.NewError(ast.ErrDuplicateDeclaration, sd.Span, "duplicate declaration of "+sd.Name)
		}
		r.globals[sd.Name] = symbol{kind: symStruct, idx: uint32(i)}
	}
	for i, ad := range module.Aliases {
		if _, dup := r.globals[ad.Name]; dup {
			return ast.NewError(ast.ErrDuplicateDeclaration, ad.Span, "duplicate declaration of "+ad.Name)
		}
		r.globals[ad.Name] = symbol{kind: symAlias, idx: uint32(i)}
	}
	for i, fn := range module.Functions {
		if _, dup := r.globals[fn.Name]; dup {
			return ast.NewError(ast.ErrDuplicateDeclaration, fn.Span, "duplicate declaration of "+fn.Name)
		}
		r.globals[fn.Name] = symbol{kind: symFunction, idx: uint32(i)}
	}
	for bi, block := range module.Externals {
		for bindIdx, eb := range block.Bindings {
			if _, dup := r.globals[eb.Name]; dup {
				return ast.NewError(ast.ErrDuplicateDeclaration, eb.Span, "duplicate declaration of "+eb.Name)
			}
			r.globals[eb.Name] = symbol{
				kind: symExternal,
				idx:  ast.PackExternalIndex(bi, bindIdx),
			}
		}
	}
	for _, s := range module.Body {
		if err := r.registerModuleConst(s); err != nil {
			return err
		}
	}
	return nil
}

func (r *scopeResolver) registerModuleConst(s ast.Statement) error {
	switch n := s.(type) {
	case *ast.DeclareConst:
		if _, dup := r.globals[n.Name]; dup {
			return ast.NewError(ast.ErrDuplicateDeclaration, n.Span, "duplicate declaration of "+n.Name)
		}
		r.globals[n.Name] = symbol{kind: symConstSlot, idx: uint32(len(r.st.consts))}
		r.st.consts = append(r.st.consts, n)
	case *ast.DeclareOption:
		if _, dup := r.globals[n.Name]; dup {
			return ast.NewError(ast.ErrDuplicateDeclaration, n.Span, "duplicate declaration of "+n.Name)
		}
		asConst := &ast.DeclareConst{StmtBase: ast.StmtBase{Span: n.Span}, Name: n.Name, Type: &n.Type, Value: n.Default}
		r.globals[n.Name] = symbol{kind: symConstSlot, idx: uint32(len(r.st.consts))}
		r.st.consts = append(r.st.consts, asConst)
	}
	return nil
}

func (r *scopeResolver) pushScope() { r.scopes = append(r.scopes, make(map[string]localSlot)) }
func (r *scopeResolver) popScope()  { r.scopes = r.scopes[:len(r.scopes)-1] }

func (r *scopeResolver) lookupLocal(name string) (localSlot, bool) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if s, ok := r.scopes[i][name]; ok {
			return s, true
		}
	}
	return localSlot{}, false
}

// resolveName resolves a single identifier token to its replacement
// expression, consulting locals first, then the module-scope table,
// then the built-in intrinsic/constructor tables.
func (r *scopeResolver) resolveName(name string, span ast.Span) (ast.Expr, bool) {
	if slot, ok := r.lookupLocal(name); ok {
		return &ast.VariableValue{ExprBase: ast.ExprBase{Span: span}, Namespace: slot.namespace, Index: slot.index}, true
	}
	if sym, ok := r.globals[name]; ok {
		switch sym.kind {
		case symFunction:
			return &ast.Function{ExprBase: ast.ExprBase{Span: span}, FunctionIndex: sym.idx}, true
		case symAlias:
			return &ast.AliasValue{ExprBase: ast.ExprBase{Span: span}, AliasIndex: ast.AliasHandle(sym.idx)}, true
		case symExternal:
			return &ast.VariableValue{ExprBase: ast.ExprBase{Span: span}, Namespace: ast.NamespaceExternal, Index: sym.idx}, true
		case symConstSlot:
			return &ast.VariableValue{ExprBase: ast.ExprBase{Span: span}, Namespace: ast.NamespaceConst, Index: sym.idx}, true
		case symStruct:
			return nil, false // a bare struct name is not a value
		}
	}
	if id, ok := builtinIntrinsics[name]; ok {
		return &ast.Intrinsic{ExprBase: ast.ExprBase{Span: span}, ID: id}, true
	}
	return nil, false
}

// RewriteAccessIdentifier resolves the leftmost token of the chain and
// defers any remaining member-name suffix to type inference.
func (r *scopeResolver) RewriteAccessIdentifier(n *ast.AccessIdentifier) (ast.Expr, error) {
	if n.Base != nil {
		return r.Rewriter.RewriteAccessIdentifier(n)
	}
	if len(n.Identifiers) == 0 {
		return n, nil
	}
	head := n.Identifiers[0]
	resolved, ok := r.resolveName(head, n.Span)
	if !ok {
		return nil, ast.NewError(ast.ErrUnknownIdentifier, n.Span, "unknown identifier "+head)
	}
	if len(n.Identifiers) == 1 {
		return resolved, nil
	}
	return &ast.AccessIdentifier{ExprBase: n.ExprBase, Base: resolved, Identifiers: n.Identifiers[1:]}, nil
}

// RewriteCallFunction special-cases a bare-name Target that resolves to
// a struct/alias/built-in type name into a Cast rather than a call,
// since the parser cannot tell type names and function names apart
// without the scope table.
func (r *scopeResolver) RewriteCallFunction(n *ast.CallFunction) (ast.Expr, error) {
	args := make([]ast.Expr, len(n.Args))
	for i, a := range n.Args {
		rewritten, err := ast.RewriteExpr(r, a)
		if err != nil {
			return nil, err
		}
		args[i] = rewritten
	}
	n.Args = args

	if id, ok := n.Target.(*ast.AccessIdentifier); ok && id.Base == nil && len(id.Identifiers) == 1 {
		name := id.Identifiers[0]
		if t, ok := builtinConstructors[name]; ok {
			return &ast.Cast{ExprBase: n.ExprBase, Target: t, Args: args}, nil
		}
		if sym, ok := r.globals[name]; ok {
			switch sym.kind {
			case symStruct:
				return &ast.Cast{ExprBase: n.ExprBase, Target: ast.StructRef(ast.StructHandle(sym.idx)), Args: args}, nil
			case symAlias:
				return &ast.Cast{ExprBase: n.ExprBase, Target: ast.AliasRef(ast.AliasHandle(sym.idx)), Args: args}, nil
			}
		}
	}

	target, err := ast.RewriteExpr(r, n.Target)
	if err != nil {
		return nil, err
	}
	n.Target = target
	return n, nil
}

func (r *scopeResolver) RewriteScoped(n *ast.Scoped) (ast.Statement, error) {
	r.pushScope()
	defer r.popScope()
	body, err := ast.RewriteStmts(r, n.Body)
	if err != nil {
		return nil, err
	}
	n.Body = body
	return n, nil
}

func (r *scopeResolver) RewriteBranch(n *ast.Branch) (ast.Statement, error) {
	for i, c := range n.Conditions {
		cond, err := ast.RewriteExpr(r, c.Condition)
		if err != nil {
			return nil, err
		}
		r.pushScope()
		body, err := ast.RewriteStmts(r, c.Body)
		r.popScope()
		if err != nil {
			return nil, err
		}
		n.Conditions[i] = ast.BranchCond{Condition: cond, Body: body}
	}
	if n.Else != nil {
		r.pushScope()
		elseBody, err := ast.RewriteStmts(r, n.Else)
		r.popScope()
		if err != nil {
			return nil, err
		}
		n.Else = elseBody
	}
	return n, nil
}

func (r *scopeResolver) RewriteWhile(n *ast.While) (ast.Statement, error) {
	cond, err := ast.RewriteExpr(r, n.Condition)
	if err != nil {
		return nil, err
	}
	r.pushScope()
	body, err := ast.RewriteStmts(r, n.Body)
	r.popScope()
	if err != nil {
		return nil, err
	}
	n.Condition, n.Body = cond, body
	return n, nil
}

func (r *scopeResolver) RewriteDeclareVariable(n *ast.DeclareVariable) (ast.Statement, error) {
	if n.Init != nil {
		init, err := ast.RewriteExpr(r, n.Init)
		if err != nil {
			return nil, err
		}
		n.Init = init
	}
	slot := localSlot{namespace: ast.NamespaceLocal, index: r.nextLocal}
	r.nextLocal++
	r.scopes[len(r.scopes)-1][n.Name] = slot
	return n, nil
}

func (r *scopeResolver) RewriteDeclareConst(n *ast.DeclareConst) (ast.Statement, error) {
	if n.Value != nil {
		v, err := ast.RewriteExpr(r, n.Value)
		if err != nil {
			return nil, err
		}
		n.Value = v
	}
	if len(r.scopes) > 0 {
		r.st.consts = append(r.st.consts, n)
		r.scopes[len(r.scopes)-1][n.Name] = localSlot{namespace: ast.NamespaceConst, index: uint32(len(r.st.consts) - 1)}
	}
	return n, nil
}

func (r *scopeResolver) RewriteDeclareOption(n *ast.DeclareOption) (ast.Statement, error) {
	if n.Default != nil {
		v, err := ast.RewriteExpr(r, n.Default)
		if err != nil {
			return nil, err
		}
		n.Default = v
	}
	return n, nil
}
