package glsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shadelang/slc/ast"
)

// writeExpr renders e as a GLSL source expression. Unlike the SPIR-V
// backend, which needs separate lvalue (pointer) and rvalue (load)
// paths, GLSL lvalues and rvalues share identical surface syntax, so
// one recursive function handles both.
func (w *Writer) writeExpr(e ast.Expr) (string, error) {
	switch n := e.(type) {
	case *ast.AccessIdentifier:
		return w.writeAccessIdentifier(n)
	case *ast.AccessIndex:
		return w.writeAccessIndex(n)
	case *ast.AliasValue:
		return w.writeAliasValue(n)
	case *ast.Assign:
		return w.writeAssignExpr(n)
	case *ast.Binary:
		return w.writeBinary(n)
	case *ast.CallFunction:
		return w.writeCall(n)
	case *ast.Cast:
		return w.writeCast(n)
	case *ast.ConstantValue:
		return w.writeConstantValue(n)
	case *ast.Swizzle:
		return w.writeSwizzle(n)
	case *ast.VariableValue:
		return w.writeVariableValue(n)
	case *ast.Unary:
		return w.writeUnary(n)
	default:
		return "", ast.NewError(ast.ErrBackendUnsupported, e.Pos(), fmt.Sprintf("expression %T has no GLSL lowering", e))
	}
}

func (w *Writer) writeAccessIdentifier(n *ast.AccessIdentifier) (string, error) {
	base, err := w.writeExpr(n.Base)
	if err != nil {
		return "", err
	}
	cur := n.Base.Type()
	for _, idx := range n.MemberIndices {
		if cur == nil {
			return "", ast.NewError(ast.ErrBackendUnsupported, n.Span, "member access on an unresolved type")
		}
		sd, ok := w.structOf(*cur)
		if !ok {
			return "", ast.NewError(ast.ErrBackendUnsupported, n.Span, "member access on a non-struct base")
		}
		m := sd.Members[idx]
		base += "." + escapeKeyword(m.Name)
		cur = &m.Type
	}
	return base, nil
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

// writeAliasValue names the GLSL type an alias resolves to; reached
// only when an un-simplified Cast target surfaces an AliasValue before
// full alias expansion has run. Resolved types are normally already
// expanded, so this is a defensive fallback, not the common path.
func (w *Writer) writeAliasValue(n *ast.AliasValue) (string, error) {
	return w.typeName(w.module.Aliases[n.AliasIndex].Target)
}

func (w *Writer) writeAssignExpr(n *ast.Assign) (string, error) {
	left, err := w.writeExpr(n.Left)
	if err != nil {
		return "", err
	}
	right, err := w.writeExpr(n.Right)
	if err != nil {
		return "", err
	}
	if n.Op == ast.AssignModulo && isFloatType(n.Left.Type()) {
		w.needsModHelper = true
		return fmt.Sprintf("%s = _sl_mod(%s, %s)", left, left, right), nil
	}
	return fmt.Sprintf("%s %s %s", left, assignOpGLSL(n.Op), right), nil
}

func assignOpGLSL(op ast.AssignOp) string {
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

func isFloatType(t *ast.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case ast.KindPrimitive:
		return t.Primitive == ast.F32 || t.Primitive == ast.F64
	case ast.KindVector, ast.KindMatrix:
		return t.Component == ast.F32 || t.Component == ast.F64
	default:
		return false
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
	if n.Op == ast.BinModulo && isFloatType(n.Left.Type()) {
		w.needsModHelper = true
		return fmt.Sprintf("_sl_mod(%s, %s)", left, right), nil
	}
	op, err := binaryOpGLSL(n.Op)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s %s %s)", left, op, right), nil
}

func binaryOpGLSL(op ast.BinaryOp) (string, error) {
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
		return fmt.Sprintf("(-%s)", operand), nil
	case ast.UnaryNot:
		return fmt.Sprintf("(!%s)", operand), nil
	case ast.UnaryBitNot:
		return fmt.Sprintf("(~%s)", operand), nil
	default:
		return "", ast.NewError(ast.ErrBackendUnsupported, n.Span, "unsupported unary operator")
	}
}

// writeCast renders a Cast as a GLSL constructor call: GLSL constructors
// already implement scalar conversion (`float(i)`), truncation/widening
// (`vec3(someVec4)`), and component construction (`vec4(x, y, z, w)`)
// under one calling convention, so no opcode-level dispatch is needed.
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

func (w *Writer) writeConstantValue(cv *ast.ConstantValue) (string, error) {
	return w.writeLiteral(cv.Value, cv.Type())
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
		return fmt.Sprintf("%du", uint32(v)), nil
	case ast.LitF32:
		return formatFloat(float64(v)), nil
	case ast.LitF64:
		return formatFloat(float64(v)), nil
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
		g := w.module.Globals[n.Index]
		if bb, ok := g.Binding.(ast.BuiltinBinding); ok {
			name, ok := glslBuiltin(bb.Builtin)
			if !ok {
				return "", ast.NewError(ast.ErrBackendUnsupported, n.Span, "built-in has no GLSL equivalent")
			}
			return name, nil
		}
		return w.globalNames[n.Index], nil
	case ast.NamespaceExternal:
		name, ok := w.externalNames[n.Index]
		if !ok {
			return "", ast.NewError(ast.ErrBackendUnsupported, n.Span, "reference to an unregistered external")
		}
		return name, nil
	default:
		return "", ast.NewError(ast.ErrBackendUnsupported, n.Span, "unresolved constant reference reached GLSL generation")
	}
}

// glslBuiltin maps a built-in stage value to the implicitly-declared
// GLSL variable that reads or writes it.
func glslBuiltin(v ast.BuiltinValue) (string, bool) {
	switch v {
	case ast.BuiltinPosition:
		return "gl_Position", true
	case ast.BuiltinFragCoord:
		return "gl_FragCoord", true
	case ast.BuiltinVertexIndex:
		return "gl_VertexID", true
	case ast.BuiltinInstanceIndex:
		return "gl_InstanceID", true
	case ast.BuiltinFrontFacing:
		return "gl_FrontFacing", true
	case ast.BuiltinFragDepth:
		return "gl_FragDepth", true
	case ast.BuiltinLocalInvocationID:
		return "gl_LocalInvocationID", true
	case ast.BuiltinGlobalInvocationID:
		return "gl_GlobalInvocationID", true
	case ast.BuiltinWorkgroupID:
		return "gl_WorkGroupID", true
	case ast.BuiltinNumWorkgroups:
		return "gl_NumWorkGroups", true
	default:
		// BaseInstance/BaseVertex/DrawIndex need the ARB_shader_draw_parameters
		// extension and are not wired here.
		return "", false
	}
}

func (w *Writer) writeCall(n *ast.CallFunction) (string, error) {
	switch target := n.Target.(type) {
	case *ast.Function:
		name, ok := w.functionNames[int(target.FunctionIndex)]
		if !ok {
			return "", ast.NewError(ast.ErrBackendUnsupported, n.Span, "call to an unregistered function")
		}
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			s, err := w.writeExpr(a)
			if err != nil {
				return "", err
			}
			args[i] = s
		}
		return fmt.Sprintf("%s(%s)", name, strings.Join(args, ", ")), nil
	case *ast.Intrinsic:
		return w.writeIntrinsic(target.ID, n)
	default:
		return "", ast.NewError(ast.ErrBackendUnsupported, n.Span, "call target is not a function or intrinsic")
	}
}

func (w *Writer) writeIntrinsic(id ast.IntrinsicID, n *ast.CallFunction) (string, error) {
	switch id {
	case ast.IntrinsicSample:
		sampler, err := w.writeExpr(n.Args[0])
		if err != nil {
			return "", err
		}
		coord, err := w.writeExpr(n.Args[1])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("texture(%s, %s)", sampler, coord), nil
	case ast.IntrinsicSampleLevel:
		sampler, err := w.writeExpr(n.Args[0])
		if err != nil {
			return "", err
		}
		coord, err := w.writeExpr(n.Args[1])
		if err != nil {
			return "", err
		}
		lod, err := w.writeExpr(n.Args[2])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("textureLod(%s, %s, %s)", sampler, coord, lod), nil
	case ast.IntrinsicSize, ast.IntrinsicArrayLength:
		al, ok := n.Args[0].(*ast.AccessIdentifier)
		if !ok || len(al.MemberIndices) == 0 {
			return "", ast.NewError(ast.ErrBackendUnsupported, n.Span, "array-length target must be a struct member access")
		}
		memberExpr, err := w.writeAccessIdentifier(al)
		if err != nil {
			return "", err
		}
		return memberExpr + ".length()", nil
	default:
		fname, ok := intrinsicGLSLName(id)
		if !ok {
			return "", ast.NewError(ast.ErrBackendUnsupported, n.Span, "intrinsic has no GLSL lowering")
		}
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			s, err := w.writeExpr(a)
			if err != nil {
				return "", err
			}
			args[i] = s
		}
		return fmt.Sprintf("%s(%s)", fname, strings.Join(args, ", ")), nil
	}
}

func intrinsicGLSLName(id ast.IntrinsicID) (string, bool) {
	switch id {
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
		return "mix", true
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
