package slwriter

import (
	"strconv"

	"github.com/shadelang/slc/ast"
)

// typeName renders t using SL's bracket-generic surface syntax
// (vec3[f32], uniform[Data], sampler2D[f32], ...).
func (w *Writer) typeName(t ast.Type) (string, error) {
	switch t.Kind {
	case ast.KindPrimitive:
		return scalarName(t.Primitive)
	case ast.KindVector:
		comp, err := scalarName(t.Component)
		if err != nil {
			return "", err
		}
		return "vec" + vectorDigit(t.Rows) + "[" + comp + "]", nil
	case ast.KindMatrix:
		comp, err := scalarName(t.Component)
		if err != nil {
			return "", err
		}
		dims := vectorDigit(t.Columns)
		if t.Columns != t.Rows {
			dims += "x" + vectorDigit(t.Rows)
		}
		return "mat" + dims + "[" + comp + "]", nil
	case ast.KindArray:
		elem, err := w.typeName(*t.Elem)
		if err != nil {
			return "", err
		}
		if t.RuntimeSized {
			return "array[" + elem + "]", nil
		}
		return "array[" + elem + ", " + strconv.FormatUint(uint64(t.ArrayLen), 10) + "]", nil
	case ast.KindStruct:
		return w.module.Structs[t.Struct].Name, nil
	case ast.KindSampler:
		dim, err := samplerDimName(t.SamplerDim)
		if err != nil {
			return "", err
		}
		comp, err := scalarName(t.Primitive)
		if err != nil {
			return "", err
		}
		return dim + "[" + comp + "]", nil
	case ast.KindUniform:
		return "uniform[" + w.module.Structs[t.Struct].Name + "]", nil
	case ast.KindStorage:
		return "storage[" + w.module.Structs[t.Struct].Name + ", " + storageAccessName(t.Access) + "]", nil
	case ast.KindPushConstant:
		return "push_constant[" + w.module.Structs[t.Struct].Name + "]", nil
	case ast.KindAlias:
		return w.module.Aliases[t.Alias].Name, nil
	default:
		return "", ast.NewError(ast.ErrBackendUnsupported, ast.Span{}, "type kind has no SL re-serialization")
	}
}

func scalarName(k ast.ScalarKind) (string, error) {
	switch k {
	case ast.Bool:
		return "bool", nil
	case ast.F32:
		return "f32", nil
	case ast.F64:
		return "f64", nil
	case ast.I32:
		return "i32", nil
	case ast.U32:
		return "u32", nil
	default:
		return "", ast.NewError(ast.ErrBackendUnsupported, ast.Span{}, "unsupported scalar kind")
	}
}

func vectorDigit(n ast.VectorLen) string {
	return strconv.Itoa(int(n))
}

func samplerDimName(dim ast.SamplerDim) (string, error) {
	switch dim {
	case ast.Sampler1D:
		return "sampler1D", nil
	case ast.Sampler2D:
		return "sampler2D", nil
	case ast.Sampler3D:
		return "sampler3D", nil
	case ast.SamplerCube:
		return "sampler_cube", nil
	case ast.Sampler2DArray:
		return "sampler2D_array", nil
	case ast.SamplerCubeArray:
		return "sampler_cube_array", nil
	default:
		return "", ast.NewError(ast.ErrBackendUnsupported, ast.Span{}, "unsupported sampler dimension")
	}
}

func storageAccessName(a ast.StorageAccess) string {
	switch a {
	case ast.AccessWrite:
		return "write"
	case ast.AccessReadWrite:
		return "read_write"
	default:
		return "read"
	}
}

// builtinAttrName reverses the parser's builtinNames table.
func builtinAttrName(v ast.BuiltinValue) (string, bool) {
	switch v {
	case ast.BuiltinPosition:
		return "position", true
	case ast.BuiltinFragCoord:
		return "frag_coord", true
	case ast.BuiltinVertexIndex:
		return "vertex_index", true
	case ast.BuiltinInstanceIndex:
		return "instance_index", true
	case ast.BuiltinFrontFacing:
		return "front_facing", true
	case ast.BuiltinFragDepth:
		return "frag_depth", true
	case ast.BuiltinLocalInvocationID:
		return "local_invocation_id", true
	case ast.BuiltinGlobalInvocationID:
		return "global_invocation_id", true
	case ast.BuiltinWorkgroupID:
		return "workgroup_id", true
	case ast.BuiltinNumWorkgroups:
		return "num_workgroups", true
	case ast.BuiltinBaseInstance:
		return "base_instance", true
	case ast.BuiltinBaseVertex:
		return "base_vertex", true
	case ast.BuiltinDrawIndex:
		return "draw_index", true
	default:
		return "", false
	}
}
