package slwriter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shadelang/slc/ast"
)

// writeExpr renders e as SL source text. It handles both raw-parser
// nodes (AccessIdentifier with Base == nil, CallFunction whose Target is
// a bare identifier) and sanitized nodes (VariableValue, Swizzle, Cast,
// Function/Intrinsic call targets).
func (w *Writer) writeExpr(e ast.Expr) (string, error) {
	switch n := e.(type) {
	case *ast.AccessIdentifier:
		return w.writeAccessIdentifier(n)
	case *ast.AccessIndex:
		return w.writeAccessIndex(n)
	case *ast.AliasValue:
		return w.module.Aliases[n.AliasIndex].Name, nil
	case *ast.Assign:
		return w.writeAssign(n)
	case *ast.Binary:
		return w.writeBinary(n)
	case *ast.CallFunction:
		return w.writeCall(n)
	case *ast.Cast:
		return w.writeCast(n)
	case *ast.ConstantValue:
		return w.writeLiteral(n.Value, n.Type())
	case *ast.Function:
		return w.module.Functions[n.FunctionIndex].Name, nil
	case *ast.Intrinsic:
		name, ok := intrinsicSLName(n.ID)
		if !ok {
			return "", ast.NewError(ast.ErrBackendUnsupported, n.Span, "intrinsic has no SL re-serialization")
		}
		return name, nil
	case *ast.Swizzle:
		return w.writeSwizzle(n)
	case *ast.VariableValue:
		return w.writeVariableValue(n)
	case *ast.Unary:
		return w.writeUnary(n)
	default:
		return "", ast.NewError(ast.ErrBackendUnsupported, e.Pos(), fmt.Sprintf("expression %T has no SL re-serialization", e))
	}
}

// writeAccessIdentifier handles both a raw member-access chain
// (Base == nil, Identifiers holds every segment including the head) and
// a resolved one (Base is the resolved head expression, Identifiers
// holds only the trailing member names).
func (w *Writer) writeAccessIdentifier(n *ast.AccessIdentifier) (string, error) {
	if n.Base == nil {
		return strings.Join(n.Identifiers, "."), nil
	}
	base, err := w.writeExpr(n.Base)
	if err != nil {
		return "", err
	}
	if len(n.Identifiers) == 0 {
		return base, nil
	}
	return base + "." + strings.Join(n.Identifiers, "."), nil
}

func (w *Writer) writeAccessIndex(n *ast.AccessIndex) (string, error) {
	base, err := w.writeExpr(n.Base)
	if err != nil {
		return "", err
	}
	index, err := w.writeExpr(n.Index)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s[%s]", base, index), nil
}

func (w *Writer) writeAssign(n *ast.Assign) (string, error) {
	left, err := w.writeExpr(n.Left)
	if err != nil {
		return "", err
	}
	right, err := w.writeExpr(n.Right)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s", left, assignOpSL(n.Op), right), nil
}

func assignOpSL(op ast.AssignOp) string {
	switch op {
	case ast.AssignAdd:
		return "+="
	case ast.AssignSubtract:
		return "-="
	case ast.AssignMultiply:
		return "*="
	case ast.AssignDivide:
		return "/="
	case ast.AssignModulo:
		return "%="
	default:
		return "="
	}
}

func (w *Writer) writeBinary(n *ast.Binary) (string, error) {
	left, err := w.writeExpr(n.Left)
	if err != nil {
		return "", err
	}
	right, err := w.writeExpr(n.Right)
	if err != nil {
		return "", err
	}
	op, err := binaryOpSL(n.Op)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s %s %s)", left, op, right), nil
}

func binaryOpSL(op ast.BinaryOp) (string, error) {
	switch op {
	case ast.BinAdd:
		return "+", nil
	case ast.BinSubtract:
		return "-", nil
	case ast.BinMultiply:
		return "*", nil
	case ast.BinDivide:
		return "/", nil
	case ast.BinModulo:
		return "%", nil
	case ast.BinEqual:
		return "==", nil
	case ast.BinNotEqual:
		return "!=", nil
	case ast.BinLess:
		return "<", nil
	case ast.BinLessEqual:
		return "<=", nil
	case ast.BinGreater:
		return ">", nil
	case ast.BinGreaterEqual:
		return ">=", nil
	case ast.BinLogicalAnd:
		return "&&", nil
	case ast.BinLogicalOr:
		return "||", nil
	case ast.BinBitAnd:
		return "&", nil
	case ast.BinBitOr:
		return "|", nil
	case ast.BinBitXor:
		return "^", nil
	case ast.BinShiftLeft:
		return "<<", nil
	case ast.BinShiftRight:
		return ">>", nil
	default:
		return "", ast.NewError(ast.ErrBackendUnsupported, ast.Span{}, "unsupported binary operator")
	}
}

func (w *Writer) writeUnary(n *ast.Unary) (string, error) {
	operand, err := w.writeExpr(n.Operand)
	if err != nil {
		return "", err
	}
	switch n.Op {
	case ast.UnaryNegate:
		return "(-" + operand + ")", nil
	case ast.UnaryNot:
		return "(!" + operand + ")", nil
	case ast.UnaryBitNot:
		return "(~" + operand + ")", nil
	default:
		return "", ast.NewError(ast.ErrBackendUnsupported, n.Span, "unsupported unary operator")
	}
}

// writeCast renders a sanitized Cast back as a constructor call
// (vec3[f32](x, y, z)), the same surface form the parser accepted it
// from before scope resolution told them apart.
func (w *Writer) writeCast(n *ast.Cast) (string, error) {
	typeStr, err := w.typeName(n.Target)
	if err != nil {
		return "", err
	}
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		s, err := w.writeExpr(a)
		if err != nil {
			return "", err
		}
		args[i] = s
	}
	return fmt.Sprintf("%s(%s)", typeStr, strings.Join(args, ", ")), nil
}

func (w *Writer) writeLiteral(lit ast.Literal, t *ast.Type) (string, error) {
	switch v := lit.(type) {
	case ast.LitBool:
		if bool(v) {
			return "true", nil
		}
		return "false", nil
	case ast.LitI32:
		return strconv.FormatInt(int64(v), 10), nil
	case ast.LitU32:
		return strconv.FormatUint(uint64(v), 10) + "u32", nil
	case ast.LitF32:
		return formatFloat(float64(v)) + "f32", nil
	case ast.LitF64:
		return formatFloat(float64(v)) + "f64", nil
	case ast.LitComposite:
		if t == nil {
			return "", ast.NewError(ast.ErrBackendUnsupported, ast.Span{}, "composite constant has no resolved type")
		}
		typeStr, err := w.typeName(*t)
		if err != nil {
			return "", err
		}
		elemTypes, err := w.compositeElemTypes(*t, len(v.Components))
		if err != nil {
			return "", err
		}
		parts := make([]string, len(v.Components))
		for i, c := range v.Components {
			s, err := w.writeLiteral(c, &elemTypes[i])
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return fmt.Sprintf("%s(%s)", typeStr, strings.Join(parts, ", ")), nil
	default:
		return "", ast.NewError(ast.ErrBackendUnsupported, ast.Span{}, "unsupported constant literal kind")
	}
}

// compositeElemTypes returns the n element types a LitComposite value of
// type t supplies, in order.
func (w *Writer) compositeElemTypes(t ast.Type, n int) ([]ast.Type, error) {
	switch t.Kind {
	case ast.KindVector:
		return repeatType(ast.Primitive(t.Component), n), nil
	case ast.KindMatrix:
		return repeatType(ast.Vector(t.Rows, t.Component), n), nil
	case ast.KindArray:
		return repeatType(*t.Elem, n), nil
	case ast.KindStruct:
		sd := w.module.Structs[t.Struct]
		if len(sd.Members) != n {
			return nil, ast.NewError(ast.ErrArityMismatch, ast.Span{}, "composite constant arity does not match struct member count")
		}
		types := make([]ast.Type, n)
		for i, m := range sd.Members {
			types[i] = m.Type
		}
		return types, nil
	case ast.KindAlias:
		return w.compositeElemTypes(w.module.Aliases[t.Alias].Target, n)
	default:
		return nil, ast.NewError(ast.ErrBackendUnsupported, ast.Span{}, "composite constant has no element type")
	}
}

func repeatType(t ast.Type, n int) []ast.Type {
	out := make([]ast.Type, n)
	for i := range out {
		out[i] = t
	}
	return out
}

// formatFloat renders f with enough of a decimal point or exponent that
// it re-parses as a floating-point literal rather than an integer.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func (w *Writer) writeSwizzle(n *ast.Swizzle) (string, error) {
	base, err := w.writeExpr(n.Base)
	if err != nil {
		return "", err
	}
	var letters strings.Builder
	for _, c := range n.Pattern {
		letters.WriteByte(swizzleLetter(c))
	}
	return base + "." + letters.String(), nil
}

func swizzleLetter(c ast.SwizzleComponent) byte {
	switch c {
	case ast.SwizzleX:
		return 'x'
	case ast.SwizzleY:
		return 'y'
	case ast.SwizzleZ:
		return 'z'
	default:
		return 'w'
	}
}

func (w *Writer) writeVariableValue(n *ast.VariableValue) (string, error) {
	switch n.Namespace {
	case ast.NamespaceLocal:
		if int(n.Index) >= len(w.localNames) {
			return "", ast.NewError(ast.ErrBackendUnsupported, n.Span, "reference to an undeclared local")
		}
		return w.localNames[n.Index], nil
	case ast.NamespaceParam:
		name, ok := w.paramNames[n.Index]
		if !ok {
			return "", ast.NewError(ast.ErrBackendUnsupported, n.Span, "reference to an undeclared parameter")
		}
		return name, nil
	case ast.NamespaceGlobal:
		return w.module.Globals[n.Index].Name, nil
	case ast.NamespaceExternal:
		block, binding := ast.UnpackExternalIndex(n.Index)
		return w.module.Externals[block].Bindings[binding].Name, nil
	default:
		return "", ast.NewError(ast.ErrBackendUnsupported, n.Span, "unresolved constant reference reached SL re-serialization")
	}
}

func (w *Writer) writeCall(n *ast.CallFunction) (string, error) {
	target, err := w.writeExpr(n.Target)
	if err != nil {
		return "", err
	}
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		s, err := w.writeExpr(a)
		if err != nil {
			return "", err
		}
		args[i] = s
	}
	return fmt.Sprintf("%s(%s)", target, strings.Join(args, ", ")), nil
}

// intrinsicSLName names the surface function an Intrinsic call target
// lowers back to. Shared 1:1 with the names sanitize's scope-resolution
// sub-pass recognizes, so re-parsing the output resolves to the same
// IntrinsicID.
func intrinsicSLName(id ast.IntrinsicID) (string, bool) {
	switch id {
	case ast.IntrinsicSample:
		return "Sample", true
	case ast.IntrinsicSampleLevel:
		return "SampleLevel", true
	case ast.IntrinsicSize:
		return "Size", true
	case ast.IntrinsicArrayLength:
		return "ArrayLength", true
	case ast.IntrinsicMin:
		return "min", true
	case ast.IntrinsicMax:
		return "max", true
	case ast.IntrinsicClamp:
		return "clamp", true
	case ast.IntrinsicDot:
		return "dot", true
	case ast.IntrinsicCross:
		return "cross", true
	case ast.IntrinsicNormalize:
		return "normalize", true
	case ast.IntrinsicLength:
		return "length", true
	case ast.IntrinsicLerp:
		return "lerp", true
	case ast.IntrinsicPow:
		return "pow", true
	case ast.IntrinsicAbs:
		return "abs", true
	case ast.IntrinsicFloor:
		return "floor", true
	case ast.IntrinsicCeil:
		return "ceil", true
	case ast.IntrinsicSqrt:
		return "sqrt", true
	default:
		return "", false
	}
}
