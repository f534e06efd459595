package sanitize

import (
	"math"

	"github.com/shadelang/slc/ast"
)

// constFolder evaluates every
// DeclareConst/DeclareOption slot to a literal, substitutes
// VariableValue{NamespaceConst} references with the folded
// ConstantValue, folds constant Unary/Binary/Cast subtrees, and prunes
// Branch arms whose condition folds to a known bool.
type constFolder struct {
	ast.Rewriter

	st *state
	// resolving guards against a const whose initializer (directly or
	// transitively) refers to itself.
	resolving map[int]bool
}

func foldConstants(st *state) error {
	cf := &constFolder{st: st, resolving: make(map[int]bool)}
	cf.Self = cf
	st.constValues = make([]ast.Literal, len(st.consts))

	for i := range st.consts {
		if _, err := cf.constValueAt(i); err != nil {
			return err
		}
	}

	for i := range st.module.Functions {
		fn := &st.module.Functions[i]
		body, err := ast.RewriteStmts(cf, fn.Body)
		if err != nil {
			return err
		}
		fn.Body = body
	}
	body, err := ast.RewriteStmts(cf, st.module.Body)
	if err != nil {
		return err
	}
	st.module.Body = body
	return nil
}

// constValueAt folds slot i's DeclareConst.Value, memoizing the result
// in st.constValues, and detects self-referential constants.
func (cf *constFolder) constValueAt(i int) (ast.Literal, error) {
	if cf.st.constValues[i] != nil {
		return cf.st.constValues[i], nil
	}
	if cf.resolving[i] {
		return nil, ast.NewError(ast.ErrNonConstantContext, cf.st.consts[i].Span, "const "+cf.st.consts[i].Name+" refers to itself")
	}
	cf.resolving[i] = true
	defer delete(cf.resolving, i)

	decl := cf.st.consts[i]
	folded, err := ast.RewriteExpr(cf, decl.Value)
	if err != nil {
		return nil, err
	}
	decl.Value = folded
	cv, ok := folded.(*ast.ConstantValue)
	if !ok {
		return nil, ast.NewError(ast.ErrNonConstantContext, decl.Span, "const "+decl.Name+" initializer is not a constant expression")
	}
	cf.st.constValues[i] = cv.Value
	return cv.Value, nil
}

func (cf *constFolder) RewriteVariableValue(n *ast.VariableValue) (ast.Expr, error) {
	if n.Namespace != ast.NamespaceConst {
		return n, nil
	}
	val, err := cf.constValueAt(int(n.Index))
	if err != nil {
		return nil, err
	}
	cv := &ast.ConstantValue{ExprBase: n.ExprBase, Value: val}
	return cv, nil
}

func (cf *constFolder) RewriteUnary(n *ast.Unary) (ast.Expr, error) {
	operand, err := ast.RewriteExpr(cf, n.Operand)
	if err != nil {
		return nil, err
	}
	n.Operand = operand
	if cv, ok := operand.(*ast.ConstantValue); ok {
		if v, ok := evalUnary(n.Op, cv.Value); ok {
			return &ast.ConstantValue{ExprBase: n.ExprBase, Value: v}, nil
		}
	}
	return n, nil
}

func (cf *constFolder) RewriteBinary(n *ast.Binary) (ast.Expr, error) {
	left, err := ast.RewriteExpr(cf, n.Left)
	if err != nil {
		return nil, err
	}
	right, err := ast.RewriteExpr(cf, n.Right)
	if err != nil {
		return nil, err
	}
	n.Left, n.Right = left, right

	lcv, lok := left.(*ast.ConstantValue)
	rcv, rok := right.(*ast.ConstantValue)
	if lok && rok {
		if v, ok := evalBinary(n.Op, lcv.Value, rcv.Value); ok {
			return &ast.ConstantValue{ExprBase: n.ExprBase, Value: v}, nil
		}
	}
	return n, nil
}

func (cf *constFolder) RewriteCast(n *ast.Cast) (ast.Expr, error) {
	args := make([]ast.Expr, len(n.Args))
	allConst := true
	for i, a := range n.Args {
		rewritten, err := ast.RewriteExpr(cf, a)
		if err != nil {
			return nil, err
		}
		args[i] = rewritten
		if _, ok := rewritten.(*ast.ConstantValue); !ok {
			allConst = false
		}
	}
	n.Args = args

	if allConst && len(args) == 1 && n.Target.IsPrimitive() {
		cv := args[0].(*ast.ConstantValue)
		if v, ok := castScalar(n.Target.Primitive, cv.Value); ok {
			out := &ast.ConstantValue{ExprBase: n.ExprBase, Value: v}
			out.SetType(n.Target)
			return out, nil
		}
	}
	return n, nil
}

// RewriteBranch prunes arms with a constant condition. A constant-false
// `if` is replaced by NoOp (or its else chain); a constant-true `if` is
// replaced by its body, wrapped in Scoped to preserve its lexical scope.
func (cf *constFolder) RewriteBranch(n *ast.Branch) (ast.Statement, error) {
	var kept []ast.BranchCond
	var tailElse []ast.Statement = n.Else

	for _, c := range n.Conditions {
		cond, err := ast.RewriteExpr(cf, c.Condition)
		if err != nil {
			return nil, err
		}
		body, err := ast.RewriteStmts(cf, c.Body)
		if err != nil {
			return nil, err
		}
		if cv, ok := cond.(*ast.ConstantValue); ok {
			if b, ok := cv.Value.(ast.LitBool); ok {
				if bool(b) {
					return &ast.Scoped{StmtBase: n.StmtBase, Body: body}, nil
				}
				continue // constant-false arm: drop it
			}
		}
		kept = append(kept, ast.BranchCond{Condition: cond, Body: body})
	}

	if tailElse != nil {
		body, err := ast.RewriteStmts(cf, tailElse)
		if err != nil {
			return nil, err
		}
		tailElse = body
	}

	if len(kept) == 0 {
		if tailElse == nil {
			return &ast.NoOp{StmtBase: n.StmtBase}, nil
		}
		return &ast.Scoped{StmtBase: n.StmtBase, Body: tailElse}, nil
	}
	n.Conditions, n.Else = kept, tailElse
	return n, nil
}

func (cf *constFolder) RewriteDeclareOption(n *ast.DeclareOption) (ast.Statement, error) {
	if n.Default == nil {
		return nil, ast.NewError(ast.ErrNonConstantContext, n.Span, "option "+n.Name+" has no default")
	}
	folded, err := ast.RewriteExpr(cf, n.Default)
	if err != nil {
		return nil, err
	}
	if _, ok := folded.(*ast.ConstantValue); !ok {
		return nil, ast.NewError(ast.ErrNonConstantContext, n.Span, "option "+n.Name+" default is not a constant expression")
	}
	n.Default = folded
	return n, nil
}

func evalUnary(op ast.UnaryOp, v ast.Literal) (ast.Literal, bool) {
	switch op {
	case ast.UnaryNegate:
		switch x := v.(type) {
		case ast.LitI32:
			return ast.LitI32(-x), true
		case ast.LitF32:
			return ast.LitF32(-x), true
		case ast.LitF64:
			return ast.LitF64(-x), true
		}
	case ast.UnaryNot:
		if x, ok := v.(ast.LitBool); ok {
			return ast.LitBool(!x), true
		}
	case ast.UnaryBitNot:
		switch x := v.(type) {
		case ast.LitI32:
			return ast.LitI32(^x), true
		case ast.LitU32:
			return ast.LitU32(^x), true
		}
	}
	return nil, false
}

func evalBinary(op ast.BinaryOp, l, r ast.Literal) (ast.Literal, bool) {
	if lf, ok := asFloat(l); ok {
		if rf, ok := asFloat(r); ok {
			return evalBinaryFloat(op, lf, r, l, rf)
		}
	}
	li, lok := asInt(l)
	ri, rok := asInt(r)
	if lok && rok {
		return evalBinaryInt(op, li, ri, l)
	}
	if lb, ok := l.(ast.LitBool); ok {
		if rb, ok := r.(ast.LitBool); ok {
			return evalBinaryBool(op, lb, rb)
		}
	}
	return nil, false
}

func asFloat(v ast.Literal) (float64, bool) {
	switch x := v.(type) {
	case ast.LitF32:
		return float64(x), true
	case ast.LitF64:
		return float64(x), true
	}
	return 0, false
}

func asInt(v ast.Literal) (int64, bool) {
	switch x := v.(type) {
	case ast.LitI32:
		return int64(x), true
	case ast.LitU32:
		return int64(x), true
	}
	return 0, false
}

func evalBinaryFloat(op ast.BinaryOp, lf float64, origR, origL ast.Literal, rf float64) (ast.Literal, bool) {
	mk := func(v float64) ast.Literal {
		if _, ok := origL.(ast.LitF64); ok {
			return ast.LitF64(v)
		}
		return ast.LitF32(v)
	}
	switch op {
	case ast.BinAdd:
		return mk(lf + rf), true
	case ast.BinSubtract:
		return mk(lf - rf), true
	case ast.BinMultiply:
		return mk(lf * rf), true
	case ast.BinDivide:
		if rf == 0 {
			return nil, false
		}
		return mk(lf / rf), true
	case ast.BinEqual:
		return ast.LitBool(lf == rf), true
	case ast.BinNotEqual:
		return ast.LitBool(lf != rf), true
	case ast.BinLess:
		return ast.LitBool(lf < rf), true
	case ast.BinLessEqual:
		return ast.LitBool(lf <= rf), true
	case ast.BinGreater:
		return ast.LitBool(lf > rf), true
	case ast.BinGreaterEqual:
		return ast.LitBool(lf >= rf), true
	}
	return nil, false
}

func evalBinaryInt(op ast.BinaryOp, li, ri int64, origL ast.Literal) (ast.Literal, bool) {
	mk := func(v int64) ast.Literal {
		if _, ok := origL.(ast.LitU32); ok {
			return ast.LitU32(uint32(v))
		}
		return ast.LitI32(int32(v))
	}
	switch op {
	case ast.BinAdd:
		return mk(li + ri), true
	case ast.BinSubtract:
		return mk(li - ri), true
	case ast.BinMultiply:
		return mk(li * ri), true
	case ast.BinDivide:
		if ri == 0 {
			return nil, false
		}
		return mk(li / ri), true
	case ast.BinModulo:
		if ri == 0 {
			return nil, false
		}
		return mk(li % ri), true
	case ast.BinEqual:
		return ast.LitBool(li == ri), true
	case ast.BinNotEqual:
		return ast.LitBool(li != ri), true
	case ast.BinLess:
		return ast.LitBool(li < ri), true
	case ast.BinLessEqual:
		return ast.LitBool(li <= ri), true
	case ast.BinGreater:
		return ast.LitBool(li > ri), true
	case ast.BinGreaterEqual:
		return ast.LitBool(li >= ri), true
	case ast.BinBitAnd:
		return mk(li & ri), true
	case ast.BinBitOr:
		return mk(li | ri), true
	case ast.BinBitXor:
		return mk(li ^ ri), true
	case ast.BinShiftLeft:
		return mk(li << uint(ri)), true
	case ast.BinShiftRight:
		return mk(li >> uint(ri)), true
	}
	return nil, false
}

func evalBinaryBool(op ast.BinaryOp, l, r ast.LitBool) (ast.Literal, bool) {
	switch op {
	case ast.BinLogicalAnd:
		return ast.LitBool(l && r), true
	case ast.BinLogicalOr:
		return ast.LitBool(l || r), true
	case ast.BinEqual:
		return ast.LitBool(l == r), true
	case ast.BinNotEqual:
		return ast.LitBool(l != r), true
	}
	return nil, false
}

func castScalar(target ast.ScalarKind, v ast.Literal) (ast.Literal, bool) {
	var f float64
	switch x := v.(type) {
	case ast.LitBool:
		if x {
			f = 1
		}
	case ast.LitI32:
		f = float64(x)
	case ast.LitU32:
		f = float64(x)
	case ast.LitF32:
		f = float64(x)
	case ast.LitF64:
		f = float64(x)
	default:
		return nil, false
	}
	switch target {
	case ast.Bool:
		return ast.LitBool(f != 0), true
	case ast.F32:
		return ast.LitF32(f), true
	case ast.F64:
		return ast.LitF64(f), true
	case ast.I32:
		return ast.LitI32(int32(math.Trunc(f))), true
	case ast.U32:
		return ast.LitU32(uint32(int64(math.Trunc(f)))), true
	}
	return nil, false
}
