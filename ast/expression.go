package ast

// Expr is implemented by every expression node. Expressions carry an
// optional resolved Type (nil until the sanitizer's type-inference
// sub-pass runs) and the Span they were parsed from.
type Expr interface {
	exprNode()
	Type() *Type
	SetType(Type)
	Pos() Span
}

// ExprBase is embedded by every concrete expression node.
type ExprBase struct {
	typ  *Type
	Span Span
}

func (b *ExprBase) Type() *Type    { return b.typ }
func (b *ExprBase) SetType(t Type) { b.typ = &t }
func (b *ExprBase) Pos() Span      { return b.Span }

// --- the 13 expression variants ---

// AccessIdentifier resolves a left-to-right identifier chain (`a.b.c`):
// the leftmost token against the scope stack, the remainder against the
// resolved type's member namespace.
type AccessIdentifier struct {
	ExprBase
	Base        Expr
	Identifiers []string

	// MemberIndices is filled in by scope/identifier resolution, one
	// entry per identifier in Identifiers, giving the resolved struct
	// member index at each step.
	MemberIndices []uint32
}

func (*AccessIdentifier) exprNode() {}

// AccessIndex accesses an array, vector, or matrix element by a
// (possibly non-constant) index expression.
type AccessIndex struct {
	ExprBase
	Base  Expr
	Index Expr
}

func (*AccessIndex) exprNode() {}

// AliasValue references a module alias-table entry.
type AliasValue struct {
	ExprBase
	AliasIndex AliasHandle
}

func (*AliasValue) exprNode() {}

// AssignOp is the operator of an Assign expression.
type AssignOp uint8

const (
	AssignSimple AssignOp = iota
	AssignAdd
	AssignSubtract
	AssignMultiply
	AssignDivide
	AssignModulo
)

// Assign assigns Right to the lvalue Left.
type Assign struct {
	ExprBase
	Op    AssignOp
	Left  Expr
	Right Expr
}

func (*Assign) exprNode() {}

// BinaryOp enumerates the binary operators recognized by the type
// checker's per-operator tables.
type BinaryOp uint8

const (
	BinAdd BinaryOp = iota
	BinSubtract
	BinMultiply
	BinDivide
	BinModulo
	BinEqual
	BinNotEqual
	BinLess
	BinLessEqual
	BinGreater
	BinGreaterEqual
	BinLogicalAnd
	BinLogicalOr
	BinBitAnd
	BinBitOr
	BinBitXor
	BinShiftLeft
	BinShiftRight
)

// Binary applies a binary operator to two operands.
type Binary struct {
	ExprBase
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (*Binary) exprNode() {}

// CallFunction calls a function, intrinsic, or method. Target is one of
// *Function, *Intrinsic, or an AccessIdentifier resolving to a Method
// type (e.g. `tex.Sample`).
type CallFunction struct {
	ExprBase
	Target Expr
	Args   []Expr
}

func (*CallFunction) exprNode() {}

// Cast converts Expr to Target, or (when ComponentCount(Target) > 1 and
// len(Args) > 1) constructs a vector/matrix from a component list.
type Cast struct {
	ExprBase
	Target Type
	Args   []Expr
}

func (*Cast) exprNode() {}

// Literal is a constant scalar or composite value.
type Literal interface{ literalValue() }

type LitBool bool

func (LitBool) literalValue() {}

type LitI32 int32

func (LitI32) literalValue() {}

type LitU32 uint32

func (LitU32) literalValue() {}

type LitF32 float32

func (LitF32) literalValue() {}

type LitF64 float64

func (LitF64) literalValue() {}

// LitComposite is a folded vector/matrix/array/struct constant made of
// other constant values.
type LitComposite struct {
	Components []Literal
}

func (LitComposite) literalValue() {}

// ConstantValue is a fully resolved constant — either a literal written
// directly in source, or the result of folding a pure constant subtree.
// The constant-folding sub-pass replaces references to `const`-declared
// identifiers with ConstantValue nodes inline.
type ConstantValue struct {
	ExprBase
	Value Literal
}

func (*ConstantValue) exprNode() {}

// Function references a function-table entry by its resolved index,
// used as the callee of a CallFunction.
type Function struct {
	ExprBase
	FunctionIndex uint32
}

func (*Function) exprNode() {}

// Intrinsic references a built-in function, used as the callee of a
// CallFunction.
type Intrinsic struct {
	ExprBase
	ID IntrinsicID
}

func (*Intrinsic) exprNode() {}

// SwizzleComponent is one component of a vector swizzle pattern.
type SwizzleComponent uint8

const (
	SwizzleX SwizzleComponent = iota
	SwizzleY
	SwizzleZ
	SwizzleW
)

// Swizzle reorders/duplicates vector components (`v.xyz`, `v.rgba`).
type Swizzle struct {
	ExprBase
	Base    Expr
	Pattern []SwizzleComponent
}

func (*Swizzle) exprNode() {}

// VariableNamespace disambiguates VariableValue's Index across the
// shared (function/struct/variable/alias) namespace.
type VariableNamespace uint8

const (
	NamespaceLocal VariableNamespace = iota
	NamespaceParam
	NamespaceGlobal
	// NamespaceExternal references Module.Externals: Index packs
	// (blockIndex<<16 | bindingIndex).
	NamespaceExternal
	// NamespaceConst references a const/option declaration by its
	// sanitizer-assigned slot, resolved to a literal value once the
	// constant-folding sub-pass runs. The slot table itself is a
	// sanitizer-internal detail, not part of the AST.
	NamespaceConst
)

// PackExternalIndex packs an external block/binding pair into the
// Index field of a VariableValue in NamespaceExternal.
func PackExternalIndex(block, binding int) uint32 {
	return uint32(block)<<16 | uint32(binding)
}

// UnpackExternalIndex reverses PackExternalIndex.
func UnpackExternalIndex(index uint32) (block, binding int) {
	return int(index >> 16), int(index & 0xffff)
}

// VariableValue references a resolved local, parameter, or global
// variable by its stable index.
type VariableValue struct {
	ExprBase
	Namespace VariableNamespace
	Index     uint32
}

func (*VariableValue) exprNode() {}

// UnaryOp enumerates unary operators.
type UnaryOp uint8

const (
	UnaryNegate UnaryOp = iota
	UnaryNot
	UnaryBitNot
)

// Unary applies a unary operator to an operand.
type Unary struct {
	ExprBase
	Op      UnaryOp
	Operand Expr
}

func (*Unary) exprNode() {}
