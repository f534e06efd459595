package glsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shadelang/slc/ast"
)

// typeName returns the GLSL type name for t, without any trailing array
// brackets (see typeNameAndSuffix for arrays).
func (w *Writer) typeName(t ast.Type) (string, error) {
	name, _, err := w.typeNameAndSuffix(t)
	return name, err
}

// typeNameAndSuffix splits t into a base GLSL type name and the array
// bracket suffix GLSL declares after the variable name (`float foo[4]`,
// not `float[4] foo`). Nested arrays accumulate one bracket per level,
// outermost first.
func (w *Writer) typeNameAndSuffix(t ast.Type) (string, string, error) {
	switch t.Kind {
	case ast.KindPrimitive:
		n, err := scalarToGLSL(t.Primitive)
		return n, "", err
	case ast.KindVector:
		n, err := vectorToGLSL(t.Rows, t.Component)
		return n, "", err
	case ast.KindMatrix:
		n, err := matrixToGLSL(t.Columns, t.Rows, t.Component)
		return n, "", err
	case ast.KindArray:
		base, innerSuffix, err := w.typeNameAndSuffix(*t.Elem)
		if err != nil {
			return "", "", err
		}
		bracket := "[]"
		if !t.RuntimeSized {
			bracket = fmt.Sprintf("[%d]", t.ArrayLen)
		}
		return base, bracket + innerSuffix, nil
	case ast.KindStruct:
		name, ok := w.structNames[t.Struct]
		if !ok {
			return "", "", ast.NewError(ast.ErrBackendUnsupported, ast.Span{}, "reference to an unregistered struct")
		}
		return name, "", nil
	case ast.KindSampler:
		n, err := samplerToGLSL(t.SamplerDim, t.Primitive)
		return n, "", err
	case ast.KindUniform, ast.KindStorage, ast.KindPushConstant:
		name, ok := w.structNames[t.Struct]
		if !ok {
			return "", "", ast.NewError(ast.ErrBackendUnsupported, ast.Span{}, "reference to an unregistered external block struct")
		}
		return name, "", nil
	case ast.KindAlias:
		return w.typeNameAndSuffix(w.module.Aliases[t.Alias].Target)
	default:
		return "", "", ast.NewError(ast.ErrBackendUnsupported, ast.Span{}, fmt.Sprintf("type kind %v has no GLSL representation", t.Kind))
	}
}

func scalarToGLSL(k ast.ScalarKind) (string, error) {
	switch k {
	case ast.Bool:
		return "bool", nil
	case ast.F32:
		return "float", nil
	case ast.F64:
		return "double", nil
	case ast.I32:
		return "int", nil
	case ast.U32:
		return "uint", nil
	default:
		return "", ast.NewError(ast.ErrBackendUnsupported, ast.Span{}, "unsupported scalar kind")
	}
}

func vectorToGLSL(length ast.VectorLen, component ast.ScalarKind) (string, error) {
	prefix, err := vectorPrefix(component)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%svec%d", prefix, length), nil
}

func vectorPrefix(k ast.ScalarKind) (string, error) {
	switch k {
	case ast.Bool:
		return "b", nil
	case ast.F32:
		return "", nil
	case ast.F64:
		return "d", nil
	case ast.I32:
		return "i", nil
	case ast.U32:
		return "u", nil
	default:
		return "", ast.NewError(ast.ErrBackendUnsupported, ast.Span{}, "unsupported vector component kind")
	}
}

// matrixToGLSL names a columns×rows matrix. GLSL only defines float and
// double matrices; bool/int/uint matrices have no GLSL equivalent.
func matrixToGLSL(columns, rows ast.VectorLen, component ast.ScalarKind) (string, error) {
	var prefix string
	switch component {
	case ast.F32:
		prefix = ""
	case ast.F64:
		prefix = "d"
	default:
		return "", ast.NewError(ast.ErrBackendUnsupported, ast.Span{}, "GLSL matrices must be float or double")
	}
	if columns == rows {
		return fmt.Sprintf("%smat%d", prefix, columns), nil
	}
	return fmt.Sprintf("%smat%dx%d", prefix, columns, rows), nil
}

func samplerToGLSL(dim ast.SamplerDim, sampled ast.ScalarKind) (string, error) {
	var base string
	switch dim {
	case ast.Sampler1D:
		base = "1D"
	case ast.Sampler2D:
		base = "2D"
	case ast.Sampler3D:
		base = "3D"
	case ast.SamplerCube:
		base = "Cube"
	case ast.Sampler2DArray:
		base = "2DArray"
	case ast.SamplerCubeArray:
		base = "CubeArray"
	default:
		return "", ast.NewError(ast.ErrBackendUnsupported, ast.Span{}, "unsupported sampler dimension")
	}
	var prefix string
	switch sampled {
	case ast.F32:
		prefix = ""
	case ast.I32:
		prefix = "i"
	case ast.U32:
		prefix = "u"
	default:
		return "", ast.NewError(ast.ErrBackendUnsupported, ast.Span{}, "unsupported sampler component kind")
	}
	return prefix + "sampler" + base, nil
}

// compositeElemTypes returns the n element types a LitComposite value of
// type t supplies, in order, used to format each of its Components.
func (w *Writer) compositeElemTypes(t ast.Type, n int) ([]ast.Type, error) {
	switch t.Kind {
	case ast.KindVector:
		elem := ast.Primitive(t.Component)
		return repeatType(elem, n), nil
	case ast.KindMatrix:
		elem := ast.Vector(t.Rows, t.Component)
		return repeatType(elem, n), nil
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

// structOf resolves t to its underlying struct table entry, following
// Uniform/Storage/PushConstant wrapping and Alias indirection, the way
// a member-access chain needs to.
func (w *Writer) structOf(t ast.Type) (*ast.StructDesc, bool) {
	switch t.Kind {
	case ast.KindStruct, ast.KindUniform, ast.KindStorage, ast.KindPushConstant:
		return &w.module.Structs[t.Struct], true
	case ast.KindAlias:
		return w.structOf(w.module.Aliases[t.Alias].Target)
	}
	return nil, false
}

// formatFloat renders f with enough of a decimal point or exponent that
// GLSL parses it as a floating-point literal rather than an integer.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
