package ast

import "fmt"

// ExpressionVisitor is the double-dispatch capability set for reading
// (and, through pointer fields, mutating in place) expression nodes. It
// has one method per expression variant.
type ExpressionVisitor interface {
	VisitAccessIdentifier(*AccessIdentifier) error
	VisitAccessIndex(*AccessIndex) error
	VisitAliasValue(*AliasValue) error
	VisitAssign(*Assign) error
	VisitBinary(*Binary) error
	VisitCallFunction(*CallFunction) error
	VisitCast(*Cast) error
	VisitConstantValue(*ConstantValue) error
	VisitFunction(*Function) error
	VisitIntrinsic(*Intrinsic) error
	VisitSwizzle(*Swizzle) error
	VisitVariableValue(*VariableValue) error
	VisitUnary(*Unary) error
}

// StatementVisitor is the double-dispatch capability set for statement
// nodes.
type StatementVisitor interface {
	VisitBranch(*Branch) error
	VisitDeclareAlias(*DeclareAlias) error
	VisitDeclareConst(*DeclareConst) error
	VisitDeclareExternal(*DeclareExternal) error
	VisitDeclareFunction(*DeclareFunction) error
	VisitDeclareOption(*DeclareOption) error
	VisitDeclareStruct(*DeclareStruct) error
	VisitDeclareVariable(*DeclareVariable) error
	VisitDiscard(*Discard) error
	VisitExpression(*Expression) error
	VisitImport(*Import) error
	VisitMulti(*Multi) error
	VisitNoOp(*NoOp) error
	VisitReturn(*Return) error
	VisitScoped(*Scoped) error
	VisitWhile(*While) error
}

// Visitor composes both capability sets; most sub-passes need both.
type Visitor interface {
	ExpressionVisitor
	StatementVisitor
}

// WalkExpr dispatches e to the matching method of v by type tag.
func WalkExpr(v ExpressionVisitor, e Expr) error {
	switch n := e.(type) {
	case *AccessIdentifier:
		return v.VisitAccessIdentifier(n)
	case *AccessIndex:
		return v.VisitAccessIndex(n)
	case *AliasValue:
		return v.VisitAliasValue(n)
	case *Assign:
		return v.VisitAssign(n)
	case *Binary:
		return v.VisitBinary(n)
	case *CallFunction:
		return v.VisitCallFunction(n)
	case *Cast:
		return v.VisitCast(n)
	case *ConstantValue:
		return v.VisitConstantValue(n)
	case *Function:
		return v.VisitFunction(n)
	case *Intrinsic:
		return v.VisitIntrinsic(n)
	case *Swizzle:
		return v.VisitSwizzle(n)
	case *VariableValue:
		return v.VisitVariableValue(n)
	case *Unary:
		return v.VisitUnary(n)
	default:
		return fmt.Errorf("ast: unknown expression node %T", e)
	}
}

// WalkStmt dispatches s to the matching method of v by type tag.
func WalkStmt(v StatementVisitor, s Stmt) error {
	switch n := s.(type) {
	case *Branch:
		return v.VisitBranch(n)
	case *DeclareAlias:
		return v.VisitDeclareAlias(n)
	case *DeclareConst:
		return v.VisitDeclareConst(n)
	case *DeclareExternal:
		return v.VisitDeclareExternal(n)
	case *DeclareFunction:
		return v.VisitDeclareFunction(n)
	case *DeclareOption:
		return v.VisitDeclareOption(n)
	case *DeclareStruct:
		return v.VisitDeclareStruct(n)
	case *DeclareVariable:
		return v.VisitDeclareVariable(n)
	case *Discard:
		return v.VisitDiscard(n)
	case *Expression:
		return v.VisitExpression(n)
	case *Import:
		return v.VisitImport(n)
	case *Multi:
		return v.VisitMulti(n)
	case *NoOp:
		return v.VisitNoOp(n)
	case *Return:
		return v.VisitReturn(n)
	case *Scoped:
		return v.VisitScoped(n)
	case *While:
		return v.VisitWhile(n)
	default:
		return fmt.Errorf("ast: unknown statement node %T", s)
	}
}

// WalkStmts walks a statement list in order, stopping at the first error.
func WalkStmts(v StatementVisitor, stmts []Statement) error {
	for _, s := range stmts {
		if err := WalkStmt(v, s); err != nil {
			return err
		}
	}
	return nil
}

// Traverser is the default "visit all children" base. A sub-pass
// embeds *Traverser, sets Self to itself so recursive calls dispatch
// through the overridden methods, and implements only the variants it
// cares about; everything else falls through to these defaults.
type Traverser struct {
	Self Visitor
}

func (t *Traverser) self() Visitor {
	if t.Self != nil {
		return t.Self
	}
	return t
}

func (t *Traverser) VisitAccessIdentifier(n *AccessIdentifier) error {
	if n.Base != nil {
		return WalkExpr(t.self(), n.Base)
	}
	return nil
}

func (t *Traverser) VisitAccessIndex(n *AccessIndex) error {
	if err := WalkExpr(t.self(), n.Base); err != nil {
		return err
	}
	return WalkExpr(t.self(), n.Index)
}

func (t *Traverser) VisitAliasValue(*AliasValue) error { return nil }

func (t *Traverser) VisitAssign(n *Assign) error {
	if err := WalkExpr(t.self(), n.Left); err != nil {
		return err
	}
	return WalkExpr(t.self(), n.Right)
}

func (t *Traverser) VisitBinary(n *Binary) error {
	if err := WalkExpr(t.self(), n.Left); err != nil {
		return err
	}
	return WalkExpr(t.self(), n.Right)
}

func (t *Traverser) VisitCallFunction(n *CallFunction) error {
	if err := WalkExpr(t.self(), n.Target); err != nil {
		return err
	}
	for _, a := range n.Args {
		if err := WalkExpr(t.self(), a); err != nil {
			return err
		}
	}
	return nil
}

func (t *Traverser) VisitCast(n *Cast) error {
	for _, a := range n.Args {
		if err := WalkExpr(t.self(), a); err != nil {
			return err
		}
	}
	return nil
}

func (t *Traverser) VisitConstantValue(*ConstantValue) error { return nil }
func (t *Traverser) VisitFunction(*Function) error           { return nil }
func (t *Traverser) VisitIntrinsic(*Intrinsic) error         { return nil }

func (t *Traverser) VisitSwizzle(n *Swizzle) error {
	return WalkExpr(t.self(), n.Base)
}

func (t *Traverser) VisitVariableValue(*VariableValue) error { return nil }

func (t *Traverser) VisitUnary(n *Unary) error {
	return WalkExpr(t.self(), n.Operand)
}

func (t *Traverser) VisitBranch(n *Branch) error {
	for _, c := range n.Conditions {
		if err := WalkExpr(t.self(), c.Condition); err != nil {
			return err
		}
		if err := WalkStmts(t.self(), c.Body); err != nil {
			return err
		}
	}
	return WalkStmts(t.self(), n.Else)
}

func (t *Traverser) VisitDeclareAlias(*DeclareAlias) error { return nil }

func (t *Traverser) VisitDeclareConst(n *DeclareConst) error {
	if n.Value != nil {
		return WalkExpr(t.self(), n.Value)
	}
	return nil
}

func (t *Traverser) VisitDeclareExternal(*DeclareExternal) error { return nil }
func (t *Traverser) VisitDeclareFunction(*DeclareFunction) error { return nil }

func (t *Traverser) VisitDeclareOption(n *DeclareOption) error {
	if n.Default != nil {
		return WalkExpr(t.self(), n.Default)
	}
	return nil
}

func (t *Traverser) VisitDeclareStruct(*DeclareStruct) error { return nil }

func (t *Traverser) VisitDeclareVariable(n *DeclareVariable) error {
	if n.Init != nil {
		return WalkExpr(t.self(), n.Init)
	}
	return nil
}

func (t *Traverser) VisitDiscard(*Discard) error { return nil }

func (t *Traverser) VisitExpression(n *Expression) error {
	return WalkExpr(t.self(), n.Expr)
}

func (t *Traverser) VisitImport(*Import) error { return nil }

func (t *Traverser) VisitMulti(n *Multi) error {
	return WalkStmts(t.self(), n.Statements)
}

func (t *Traverser) VisitNoOp(*NoOp) error { return nil }

func (t *Traverser) VisitReturn(n *Return) error {
	if n.Value != nil {
		return WalkExpr(t.self(), n.Value)
	}
	return nil
}

func (t *Traverser) VisitScoped(n *Scoped) error {
	return WalkStmts(t.self(), n.Body)
}

func (t *Traverser) VisitWhile(n *While) error {
	if err := WalkExpr(t.self(), n.Condition); err != nil {
		return err
	}
	return WalkStmts(t.self(), n.Body)
}

// ExpressionRewriter returns a (possibly new) node for every expression
// variant, enabling subtree replacement (used by constant folding).
type ExpressionRewriter interface {
	RewriteAccessIdentifier(*AccessIdentifier) (Expr, error)
	RewriteAccessIndex(*AccessIndex) (Expr, error)
	RewriteAliasValue(*AliasValue) (Expr, error)
	RewriteAssign(*Assign) (Expr, error)
	RewriteBinary(*Binary) (Expr, error)
	RewriteCallFunction(*CallFunction) (Expr, error)
	RewriteCast(*Cast) (Expr, error)
	RewriteConstantValue(*ConstantValue) (Expr, error)
	RewriteFunction(*Function) (Expr, error)
	RewriteIntrinsic(*Intrinsic) (Expr, error)
	RewriteSwizzle(*Swizzle) (Expr, error)
	RewriteVariableValue(*VariableValue) (Expr, error)
	RewriteUnary(*Unary) (Expr, error)
}

// StatementRewriter returns a (possibly new) node for every statement
// variant. A rewriter that wants to drop a statement returns &NoOp{} so
// containing slices keep a stable length, the way constant-folding's
// branch pruning does.
type StatementRewriter interface {
	RewriteBranch(*Branch) (Statement, error)
	RewriteDeclareAlias(*DeclareAlias) (Statement, error)
	RewriteDeclareConst(*DeclareConst) (Statement, error)
	RewriteDeclareExternal(*DeclareExternal) (Statement, error)
	RewriteDeclareFunction(*DeclareFunction) (Statement, error)
	RewriteDeclareOption(*DeclareOption) (Statement, error)
	RewriteDeclareStruct(*DeclareStruct) (Statement, error)
	RewriteDeclareVariable(*DeclareVariable) (Statement, error)
	RewriteDiscard(*Discard) (Statement, error)
	RewriteExpression(*Expression) (Statement, error)
	RewriteImport(*Import) (Statement, error)
	RewriteMulti(*Multi) (Statement, error)
	RewriteNoOp(*NoOp) (Statement, error)
	RewriteReturn(*Return) (Statement, error)
	RewriteScoped(*Scoped) (Statement, error)
	RewriteWhile(*While) (Statement, error)
}

// RewritingVisitor composes both rewrite capability sets.
type RewritingVisitor interface {
	ExpressionRewriter
	StatementRewriter
}

// RewriteExpr dispatches e to the matching Rewrite method of v.
func RewriteExpr(v ExpressionRewriter, e Expr) (Expr, error) {
	switch n := e.(type) {
	case *AccessIdentifier:
		return v.RewriteAccessIdentifier(n)
	case *AccessIndex:
		return v.RewriteAccessIndex(n)
	case *AliasValue:
		return v.RewriteAliasValue(n)
	case *Assign:
		return v.RewriteAssign(n)
	case *Binary:
		return v.RewriteBinary(n)
	case *CallFunction:
		return v.RewriteCallFunction(n)
	case *Cast:
		return v.RewriteCast(n)
	case *ConstantValue:
		return v.RewriteConstantValue(n)
	case *Function:
		return v.RewriteFunction(n)
	case *Intrinsic:
		return v.RewriteIntrinsic(n)
	case *Swizzle:
		return v.RewriteSwizzle(n)
	case *VariableValue:
		return v.RewriteVariableValue(n)
	case *Unary:
		return v.RewriteUnary(n)
	default:
		return nil, fmt.Errorf("ast: unknown expression node %T", e)
	}
}

// RewriteStmt dispatches s to the matching Rewrite method of v.
func RewriteStmt(v StatementRewriter, s Stmt) (Statement, error) {
	switch n := s.(type) {
	case *Branch:
		return v.RewriteBranch(n)
	case *DeclareAlias:
		return v.RewriteDeclareAlias(n)
	case *DeclareConst:
		return v.RewriteDeclareConst(n)
	case *DeclareExternal:
		return v.RewriteDeclareExternal(n)
	case *DeclareFunction:
		return v.RewriteDeclareFunction(n)
	case *DeclareOption:
		return v.RewriteDeclareOption(n)
	case *DeclareStruct:
		return v.RewriteDeclareStruct(n)
	case *DeclareVariable:
		return v.RewriteDeclareVariable(n)
	case *Discard:
		return v.RewriteDiscard(n)
	case *Expression:
		return v.RewriteExpression(n)
	case *Import:
		return v.RewriteImport(n)
	case *Multi:
		return v.RewriteMulti(n)
	case *NoOp:
		return v.RewriteNoOp(n)
	case *Return:
		return v.RewriteReturn(n)
	case *Scoped:
		return v.RewriteScoped(n)
	case *While:
		return v.RewriteWhile(n)
	default:
		return nil, fmt.Errorf("ast: unknown statement node %T", s)
	}
}

// RewriteStmts rewrites a statement list in place, element by element.
func RewriteStmts(v StatementRewriter, stmts []Statement) ([]Statement, error) {
	out := make([]Statement, len(stmts))
	for i, s := range stmts {
		r, err := RewriteStmt(v, s)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// Rewriter is the default rewrite base: it rewrites every child and
// rebuilds the same node, used the same way Traverser is — embedded by
// a sub-pass that overrides only the variants it changes.
type Rewriter struct {
	Self RewritingVisitor
}

func (r *Rewriter) self() RewritingVisitor {
	if r.Self != nil {
		return r.Self
	}
	return r
}

func (r *Rewriter) RewriteAccessIdentifier(n *AccessIdentifier) (Expr, error) {
	if n.Base != nil {
		base, err := RewriteExpr(r.self(), n.Base)
		if err != nil {
			return nil, err
		}
		n.Base = base
	}
	return n, nil
}

func (r *Rewriter) RewriteAccessIndex(n *AccessIndex) (Expr, error) {
	base, err := RewriteExpr(r.self(), n.Base)
	if err != nil {
		return nil, err
	}
	idx, err := RewriteExpr(r.self(), n.Index)
	if err != nil {
		return nil, err
	}
	n.Base, n.Index = base, idx
	return n, nil
}

func (r *Rewriter) RewriteAliasValue(n *AliasValue) (Expr, error) { return n, nil }

func (r *Rewriter) RewriteAssign(n *Assign) (Expr, error) {
	left, err := RewriteExpr(r.self(), n.Left)
	if err != nil {
		return nil, err
	}
	right, err := RewriteExpr(r.self(), n.Right)
	if err != nil {
		return nil, err
	}
	n.Left, n.Right = left, right
	return n, nil
}

func (r *Rewriter) RewriteBinary(n *Binary) (Expr, error) {
	left, err := RewriteExpr(r.self(), n.Left)
	if err != nil {
		return nil, err
	}
	right, err := RewriteExpr(r.self(), n.Right)
	if err != nil {
		return nil, err
	}
	n.Left, n.Right = left, right
	return n, nil
}

func (r *Rewriter) RewriteCallFunction(n *CallFunction) (Expr, error) {
	target, err := RewriteExpr(r.self(), n.Target)
	if err != nil {
		return nil, err
	}
	n.Target = target
	for i, a := range n.Args {
		rewritten, err := RewriteExpr(r.self(), a)
		if err != nil {
			return nil, err
		}
		n.Args[i] = rewritten
	}
	return n, nil
}

func (r *Rewriter) RewriteCast(n *Cast) (Expr, error) {
	for i, a := range n.Args {
		rewritten, err := RewriteExpr(r.self(), a)
		if err != nil {
			return nil, err
		}
		n.Args[i] = rewritten
	}
	return n, nil
}

func (r *Rewriter) RewriteConstantValue(n *ConstantValue) (Expr, error) { return n, nil }
func (r *Rewriter) RewriteFunction(n *Function) (Expr, error)           { return n, nil }
func (r *Rewriter) RewriteIntrinsic(n *Intrinsic) (Expr, error)         { return n, nil }

func (r *Rewriter) RewriteSwizzle(n *Swizzle) (Expr, error) {
	base, err := RewriteExpr(r.self(), n.Base)
	if err != nil {
		return nil, err
	}
	n.Base = base
	return n, nil
}

func (r *Rewriter) RewriteVariableValue(n *VariableValue) (Expr, error) { return n, nil }

func (r *Rewriter) RewriteUnary(n *Unary) (Expr, error) {
	operand, err := RewriteExpr(r.self(), n.Operand)
	if err != nil {
		return nil, err
	}
	n.Operand = operand
	return n, nil
}

func (r *Rewriter) RewriteBranch(n *Branch) (Statement, error) {
	for i, c := range n.Conditions {
		cond, err := RewriteExpr(r.self(), c.Condition)
		if err != nil {
			return nil, err
		}
		body, err := RewriteStmts(r.self(), c.Body)
		if err != nil {
			return nil, err
		}
		n.Conditions[i] = BranchCond{Condition: cond, Body: body}
	}
	if n.Else != nil {
		elseBody, err := RewriteStmts(r.self(), n.Else)
		if err != nil {
			return nil, err
		}
		n.Else = elseBody
	}
	return n, nil
}

func (r *Rewriter) RewriteDeclareAlias(n *DeclareAlias) (Statement, error) { return n, nil }

func (r *Rewriter) RewriteDeclareConst(n *DeclareConst) (Statement, error) {
	if n.Value != nil {
		v, err := RewriteExpr(r.self(), n.Value)
		if err != nil {
			return nil, err
		}
		n.Value = v
	}
	return n, nil
}

func (r *Rewriter) RewriteDeclareExternal(n *DeclareExternal) (Statement, error) { return n, nil }
func (r *Rewriter) RewriteDeclareFunction(n *DeclareFunction) (Statement, error) { return n, nil }

func (r *Rewriter) RewriteDeclareOption(n *DeclareOption) (Statement, error) {
	if n.Default != nil {
		v, err := RewriteExpr(r.self(), n.Default)
		if err != nil {
			return nil, err
		}
		n.Default = v
	}
	return n, nil
}

func (r *Rewriter) RewriteDeclareStruct(n *DeclareStruct) (Statement, error) { return n, nil }

func (r *Rewriter) RewriteDeclareVariable(n *DeclareVariable) (Statement, error) {
	if n.Init != nil {
		v, err := RewriteExpr(r.self(), n.Init)
		if err != nil {
			return nil, err
		}
		n.Init = v
	}
	return n, nil
}

func (r *Rewriter) RewriteDiscard(n *Discard) (Statement, error) { return n, nil }

func (r *Rewriter) RewriteExpression(n *Expression) (Statement, error) {
	e, err := RewriteExpr(r.self(), n.Expr)
	if err != nil {
		return nil, err
	}
	n.Expr = e
	return n, nil
}

func (r *Rewriter) RewriteImport(n *Import) (Statement, error) { return n, nil }

func (r *Rewriter) RewriteMulti(n *Multi) (Statement, error) {
	body, err := RewriteStmts(r.self(), n.Statements)
	if err != nil {
		return nil, err
	}
	n.Statements = body
	return n, nil
}

func (r *Rewriter) RewriteNoOp(n *NoOp) (Statement, error) { return n, nil }

func (r *Rewriter) RewriteReturn(n *Return) (Statement, error) {
	if n.Value != nil {
		v, err := RewriteExpr(r.self(), n.Value)
		if err != nil {
			return nil, err
		}
		n.Value = v
	}
	return n, nil
}

func (r *Rewriter) RewriteScoped(n *Scoped) (Statement, error) {
	body, err := RewriteStmts(r.self(), n.Body)
	if err != nil {
		return nil, err
	}
	n.Body = body
	return n, nil
}

func (r *Rewriter) RewriteWhile(n *While) (Statement, error) {
	cond, err := RewriteExpr(r.self(), n.Condition)
	if err != nil {
		return nil, err
	}
	body, err := RewriteStmts(r.self(), n.Body)
	if err != nil {
		return nil, err
	}
	n.Condition, n.Body = cond, body
	return n, nil
}
