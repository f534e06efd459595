package sanitize

import (
	"github.com/shadelang/slc/ast"
)

// typeChecker is a Rewriter that assigns a
// resolved Type to every expression bottom-up and checks operator,
// call-arity, swizzle, and assignment compatibility as it goes. It also
// resolves the member-name suffix left behind on an AccessIdentifier by
// scope resolution once the Base expression's struct type is known.
type typeChecker struct {
	ast.Rewriter

	st      *state
	locals  []ast.Type // NamespaceLocal slot -> declared type, current function
	params  []ast.Type // NamespaceParam slot -> declared type, current function
	result  *ast.Type  // current function's declared result type, nil if void
}

func inferTypes(st *state) error {
	tc := &typeChecker{st: st}
	tc.Self = tc

	for i := range st.module.Functions {
		fn := &st.module.Functions[i]
		tc.params = make([]ast.Type, len(fn.Params))
		for pi, p := range fn.Params {
			tc.params[pi] = p.Type
		}
		tc.locals = nil
		if fn.Result != nil {
			tc.result = &fn.Result.Type
		} else {
			tc.result = nil
		}
		body, err := ast.RewriteStmts(tc, fn.Body)
		if err != nil {
			return err
		}
		fn.Body = body
	}

	tc.params, tc.locals, tc.result = nil, nil, nil
	body, err := ast.RewriteStmts(tc, st.module.Body)
	if err != nil {
		return err
	}
	st.module.Body = body
	return nil
}

func (tc *typeChecker) structOf(t ast.Type) (*ast.StructDesc, bool) {
	switch t.Kind {
	case ast.KindStruct, ast.KindUniform, ast.KindStorage, ast.KindPushConstant:
		if int(t.Struct) >= len(tc.st.module.Structs) {
			return nil, false
		}
		return &tc.st.module.Structs[t.Struct], true
	case ast.KindAlias:
		if int(t.Alias) >= len(tc.st.module.Aliases) {
			return nil, false
		}
		return tc.structOf(tc.st.module.Aliases[t.Alias].Target)
	}
	return nil, false
}

func (tc *typeChecker) resolveAccessIdentifier(n *ast.AccessIdentifier) (ast.Expr, error) {
	base, err := ast.RewriteExpr(tc, n.Base)
	if err != nil {
		return nil, err
	}
	n.Base = base
	baseType := n.Base.Type()
	if baseType == nil {
		return nil, ast.NewError(ast.ErrTypeMismatch, n.Span, "member access on untyped expression")
	}

	cur := n.Base
	curType := *baseType
	indices := make([]uint32, 0, len(n.Identifiers))
	for _, name := range n.Identifiers {
		sd, ok := tc.structOf(curType)
		if !ok {
			return nil, ast.NewError(ast.ErrTypeMismatch, n.Span, "member "+name+" requires a struct-typed value")
		}
		idx, ok := memberIndex(sd, name)
		if !ok {
			return nil, ast.NewError(ast.ErrUnknownIdentifier, n.Span, "struct "+sd.Name+" has no member "+name)
		}
		member := sd.Members[idx]
		indices = append(indices, uint32(idx))
		next := &ast.AccessIdentifier{
			ExprBase:      ast.ExprBase{Span: n.Span},
			Base:          cur,
			Identifiers:   []string{name},
			MemberIndices: []uint32{uint32(idx)},
		}
		next.SetType(member.Type)
		cur = next
		curType = member.Type
	}
	n.MemberIndices = indices
	n.SetType(curType)
	return cur, nil
}

func memberIndex(sd *ast.StructDesc, name string) (int, bool) {
	for i, m := range sd.Members {
		if m.Name == name {
			return i, true
		}
	}
	return -1, false
}

func (tc *typeChecker) RewriteAccessIdentifier(n *ast.AccessIdentifier) (ast.Expr, error) {
	if n.Base == nil {
		return n, nil // fully resolved by scope resolution already
	}
	return tc.resolveAccessIdentifier(n)
}

func (tc *typeChecker) RewriteAccessIndex(n *ast.AccessIndex) (ast.Expr, error) {
	base, err := ast.RewriteExpr(tc, n.Base)
	if err != nil {
		return nil, err
	}
	idx, err := ast.RewriteExpr(tc, n.Index)
	if err != nil {
		return nil, err
	}
	n.Base, n.Index = base, idx

	bt := base.Type()
	if bt == nil {
		return nil, ast.NewError(ast.ErrTypeMismatch, n.Span, "index of untyped expression")
	}
	switch bt.Kind {
	case ast.KindArray:
		n.SetType(*bt.Elem)
	case ast.KindVector:
		n.SetType(ast.Primitive(bt.Component))
	case ast.KindMatrix:
		n.SetType(ast.Vector(bt.Rows, bt.Component))
	default:
		return nil, ast.NewError(ast.ErrTypeMismatch, n.Span, "value is not indexable")
	}
	return n, nil
}

func (tc *typeChecker) RewriteVariableValue(n *ast.VariableValue) (ast.Expr, error) {
	switch n.Namespace {
	case ast.NamespaceLocal:
		if int(n.Index) < len(tc.locals) {
			n.SetType(tc.locals[n.Index])
		}
	case ast.NamespaceParam:
		if int(n.Index) < len(tc.params) {
			n.SetType(tc.params[n.Index])
		}
	case ast.NamespaceExternal:
		block, binding := ast.UnpackExternalIndex(n.Index)
		eb := tc.st.module.Externals[block].Bindings[binding]
		n.SetType(eb.Type)
	case ast.NamespaceConst:
		if int(n.Index) < len(tc.st.consts) {
			if c := tc.st.consts[n.Index]; c.Type != nil {
				n.SetType(*c.Type)
			}
		}
	}
	return n, nil
}

func (tc *typeChecker) RewriteDeclareVariable(n *ast.DeclareVariable) (ast.Statement, error) {
	if n.Init != nil {
		init, err := ast.RewriteExpr(tc, n.Init)
		if err != nil {
			return nil, err
		}
		n.Init = init
		if n.Type == nil {
			if it := init.Type(); it != nil {
				t := *it
				n.Type = &t
			}
		} else if it := init.Type(); it != nil && !n.Type.Equal(*it) {
			return nil, ast.NewError(ast.ErrTypeMismatch, n.Span, "initializer type does not match declared type of "+n.Name)
		}
	}
	if n.Type != nil {
		tc.locals = append(tc.locals, *n.Type)
	} else {
		tc.locals = append(tc.locals, ast.Type{})
	}
	return n, nil
}

func (tc *typeChecker) RewriteDeclareConst(n *ast.DeclareConst) (ast.Statement, error) {
	if n.Value != nil {
		v, err := ast.RewriteExpr(tc, n.Value)
		if err != nil {
			return nil, err
		}
		n.Value = v
		if n.Type == nil {
			if vt := v.Type(); vt != nil {
				t := *vt
				n.Type = &t
			}
		}
	}
	return n, nil
}

func (tc *typeChecker) RewriteReturn(n *ast.Return) (ast.Statement, error) {
	if n.Value == nil {
		return n, nil
	}
	v, err := ast.RewriteExpr(tc, n.Value)
	if err != nil {
		return nil, err
	}
	n.Value = v
	if tc.result != nil && v.Type() != nil && !tc.result.Equal(*v.Type()) {
		return nil, ast.NewError(ast.ErrTypeMismatch, n.Span, "return type does not match function result")
	}
	return n, nil
}

func (tc *typeChecker) RewriteAssign(n *ast.Assign) (ast.Expr, error) {
	left, err := ast.RewriteExpr(tc, n.Left)
	if err != nil {
		return nil, err
	}
	right, err := ast.RewriteExpr(tc, n.Right)
	if err != nil {
		return nil, err
	}
	n.Left, n.Right = left, right
	if left.Type() != nil && right.Type() != nil && !left.Type().Equal(*right.Type()) {
		return nil, ast.NewError(ast.ErrTypeMismatch, n.Span, "assignment operand types do not match")
	}
	if left.Type() != nil {
		n.SetType(*left.Type())
	}
	return n, nil
}

func (tc *typeChecker) RewriteUnary(n *ast.Unary) (ast.Expr, error) {
	operand, err := ast.RewriteExpr(tc, n.Operand)
	if err != nil {
		return nil, err
	}
	n.Operand = operand
	if operand.Type() != nil {
		n.SetType(*operand.Type())
	}
	return n, nil
}

func (tc *typeChecker) RewriteBinary(n *ast.Binary) (ast.Expr, error) {
	left, err := ast.RewriteExpr(tc, n.Left)
	if err != nil {
		return nil, err
	}
	right, err := ast.RewriteExpr(tc, n.Right)
	if err != nil {
		return nil, err
	}
	n.Left, n.Right = left, right

	lt, rt := left.Type(), right.Type()
	if lt == nil || rt == nil {
		return n, nil
	}

	switch n.Op {
	case ast.BinEqual, ast.BinNotEqual, ast.BinLess, ast.BinLessEqual, ast.BinGreater, ast.BinGreaterEqual,
		ast.BinLogicalAnd, ast.BinLogicalOr:
		n.SetType(ast.Primitive(ast.Bool))
		return n, nil
	}

	if lt.Kind == ast.KindMatrix && rt.Kind == ast.KindVector && n.Op == ast.BinMultiply {
		n.SetType(ast.Vector(lt.Rows, lt.Component))
		return n, nil
	}
	if !lt.Equal(*rt) {
		return nil, ast.NewError(ast.ErrTypeMismatch, n.Span, "binary operand types do not match")
	}
	n.SetType(*lt)
	return n, nil
}

func (tc *typeChecker) RewriteCast(n *ast.Cast) (ast.Expr, error) {
	args := make([]ast.Expr, len(n.Args))
	for i, a := range n.Args {
		rewritten, err := ast.RewriteExpr(tc, a)
		if err != nil {
			return nil, err
		}
		args[i] = rewritten
	}
	n.Args = args

	if want := n.Target.ComponentCount(); want > 0 && len(args) > 1 {
		var got uint32
		for _, a := range args {
			if at := a.Type(); at != nil {
				if c := at.ComponentCount(); c > 0 {
					got += c
				} else {
					got++
				}
			}
		}
		if got != want {
			return nil, ast.NewError(ast.ErrArityMismatch, n.Span, "constructor argument count does not match target component count")
		}
	}
	n.SetType(n.Target)
	return n, nil
}

func (tc *typeChecker) RewriteSwizzle(n *ast.Swizzle) (ast.Expr, error) {
	base, err := ast.RewriteExpr(tc, n.Base)
	if err != nil {
		return nil, err
	}
	n.Base = base
	bt := base.Type()
	if bt == nil || bt.Kind != ast.KindVector {
		return nil, ast.NewError(ast.ErrInvalidSwizzle, n.Span, "swizzle requires a vector-typed base")
	}
	for _, c := range n.Pattern {
		if uint8(c) >= uint8(bt.Rows) {
			return nil, ast.NewError(ast.ErrInvalidSwizzle, n.Span, "swizzle component out of range for the base vector")
		}
	}
	if len(n.Pattern) == 1 {
		n.SetType(ast.Primitive(bt.Component))
	} else {
		n.SetType(ast.Vector(ast.VectorLen(len(n.Pattern)), bt.Component))
	}
	return n, nil
}

func (tc *typeChecker) RewriteCallFunction(n *ast.CallFunction) (ast.Expr, error) {
	target, err := ast.RewriteExpr(tc, n.Target)
	if err != nil {
		return nil, err
	}
	n.Target = target
	args := make([]ast.Expr, len(n.Args))
	for i, a := range n.Args {
		rewritten, err := ast.RewriteExpr(tc, a)
		if err != nil {
			return nil, err
		}
		args[i] = rewritten
	}
	n.Args = args

	switch t := target.(type) {
	case *ast.Function:
		fn := tc.st.module.Functions[t.FunctionIndex]
		if len(args) != len(fn.Params) {
			return nil, ast.NewError(ast.ErrArityMismatch, n.Span, "call to "+fn.Name+" has the wrong argument count")
		}
		if fn.Result != nil {
			n.SetType(fn.Result.Type)
		}
	case *ast.Intrinsic:
		inferIntrinsicType(n, t.ID, args)
	}
	return n, nil
}

// inferIntrinsicType assigns a result type to a handful of common
// intrinsics by shape; the remainder are typed by the back end directly
// from their first argument where that's unambiguous.
func inferIntrinsicType(n *ast.CallFunction, id ast.IntrinsicID, args []ast.Expr) {
	switch id {
	case ast.IntrinsicSample, ast.IntrinsicSampleLevel:
		n.SetType(ast.Vector(4, ast.F32))
	case ast.IntrinsicSize, ast.IntrinsicArrayLength:
		n.SetType(ast.Primitive(ast.U32))
	case ast.IntrinsicLength, ast.IntrinsicDot:
		n.SetType(ast.Primitive(ast.F32))
	case ast.IntrinsicMin, ast.IntrinsicMax, ast.IntrinsicClamp, ast.IntrinsicCross,
		ast.IntrinsicNormalize, ast.IntrinsicLerp, ast.IntrinsicPow, ast.IntrinsicAbs,
		ast.IntrinsicFloor, ast.IntrinsicCeil, ast.IntrinsicSqrt:
		if len(args) > 0 && args[0].Type() != nil {
			n.SetType(*args[0].Type())
		}
	}
}
