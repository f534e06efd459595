package ast

// ScalarKind is the primitive kind a Primitive, Vector, Matrix, or
// Sampler is built over.
type ScalarKind uint8

const (
	Bool ScalarKind = iota
	F32
	F64
	I32
	U32
)

func (k ScalarKind) String() string {
	switch k {
	case Bool:
		return "bool"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case I32:
		return "i32"
	case U32:
		return "u32"
	default:
		return "?"
	}
}

// StructHandle indexes Module.Structs.
type StructHandle uint32

// AliasHandle indexes Module.Aliases.
type AliasHandle uint32

// VectorLen is a vector/matrix dimension, restricted to {2,3,4}.
type VectorLen uint8

// SamplerDim is the dimensionality of a Sampler type.
type SamplerDim uint8

const (
	Sampler1D SamplerDim = iota
	Sampler2D
	Sampler3D
	SamplerCube
	Sampler2DArray
	SamplerCubeArray
)

// StorageAccess is the access mode of a Storage external.
type StorageAccess uint8

const (
	AccessRead StorageAccess = iota
	AccessWrite
	AccessReadWrite
)

// Type is the tagged-variant type universe.
// Kind reports which variant a value holds; the fields below are
// meaningful only for the variants their comments name.
type Type struct {
	Kind Kind

	// Primitive
	Primitive ScalarKind

	// Vector / Matrix component kind and dimensions
	Component ScalarKind
	Columns   VectorLen // Matrix
	Rows      VectorLen // Vector length or Matrix row count

	// Array
	Elem          *Type
	ArrayLen      uint32 // valid when RuntimeSized is false
	RuntimeSized  bool

	// Struct / Uniform / Storage / PushConstant
	Struct StructHandle
	Access StorageAccess // Storage only

	// Sampler
	SamplerDim SamplerDim

	// Alias
	Alias AliasHandle

	// Function
	Params []Type
	Result *Type

	// Intrinsic / Method
	Intrinsic IntrinsicID
	Receiver  *Type
	Method    string
}

// Kind discriminates the Type tagged union.
type Kind uint8

const (
	NoType Kind = iota
	KindPrimitive
	KindVector
	KindMatrix
	KindArray
	KindStruct
	KindSampler
	KindUniform
	KindStorage
	KindPushConstant
	KindAlias
	KindFunction
	KindIntrinsic
	KindMethod
)

// IntrinsicID names a built-in function recognized directly by the
// sanitizer's call-checking sub-pass.
type IntrinsicID uint16

const (
	IntrinsicSample IntrinsicID = iota
	IntrinsicSampleLevel
	IntrinsicSize // dyn_array.Size()
	IntrinsicArrayLength
	IntrinsicMin
	IntrinsicMax
	IntrinsicClamp
	IntrinsicDot
	IntrinsicCross
	IntrinsicNormalize
	IntrinsicLength
	IntrinsicLerp
	IntrinsicPow
	IntrinsicAbs
	IntrinsicFloor
	IntrinsicCeil
	IntrinsicSqrt
)

// Primitive constructs a scalar type.
func Primitive(k ScalarKind) Type { return Type{Kind: KindPrimitive, Primitive: k} }

// Vector constructs a vector type of the given length over component.
func Vector(length VectorLen, component ScalarKind) Type {
	return Type{Kind: KindVector, Rows: length, Component: component}
}

// Matrix constructs a columns×rows matrix type over component.
func Matrix(columns, rows VectorLen, component ScalarKind) Type {
	return Type{Kind: KindMatrix, Columns: columns, Rows: rows, Component: component}
}

// FixedArray constructs an array of fixed length.
func FixedArray(elem Type, length uint32) Type {
	return Type{Kind: KindArray, Elem: &elem, ArrayLen: length}
}

// RuntimeArray constructs a runtime-sized (dyn_array) array.
func RuntimeArray(elem Type) Type {
	return Type{Kind: KindArray, Elem: &elem, RuntimeSized: true}
}

// StructRef constructs a reference to a struct table entry.
func StructRef(h StructHandle) Type { return Type{Kind: KindStruct, Struct: h} }

// Sampler constructs a sampler type.
func Sampler(dim SamplerDim, sampled ScalarKind) Type {
	return Type{Kind: KindSampler, SamplerDim: dim, Primitive: sampled}
}

// Uniform wraps a struct as a uniform-buffer external.
func Uniform(h StructHandle) Type { return Type{Kind: KindUniform, Struct: h} }

// Storage wraps a struct as a storage-buffer external.
func Storage(h StructHandle, access StorageAccess) Type {
	return Type{Kind: KindStorage, Struct: h, Access: access}
}

// PushConstant wraps a struct as a push-constant external.
func PushConstant(h StructHandle) Type { return Type{Kind: KindPushConstant, Struct: h} }

// AliasRef constructs a reference into the alias table.
func AliasRef(h AliasHandle) Type { return Type{Kind: KindAlias, Alias: h} }

// FunctionType constructs a function signature type.
func FunctionType(params []Type, result *Type) Type {
	return Type{Kind: KindFunction, Params: params, Result: result}
}

// IsPrimitive reports whether t is a scalar primitive.
func (t Type) IsPrimitive() bool { return t.Kind == KindPrimitive }

// IsNumeric reports whether t is a primitive, vector, or matrix whose
// component kind supports arithmetic.
func (t Type) IsNumeric() bool {
	switch t.Kind {
	case KindPrimitive:
		return t.Primitive != Bool
	case KindVector, KindMatrix:
		return t.Component != Bool
	default:
		return false
	}
}

// ScalarOf returns the component scalar kind of a Primitive or Vector
// type, and ok=false otherwise.
func (t Type) ScalarOf() (ScalarKind, bool) {
	switch t.Kind {
	case KindPrimitive:
		return t.Primitive, true
	case KindVector:
		return t.Component, true
	default:
		return 0, false
	}
}

// Equal reports structural equality between two types, resolving neither
// side's Alias indirection (callers compare post-alias-expansion types).
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case NoType:
		return true
	case KindPrimitive:
		return t.Primitive == o.Primitive
	case KindVector:
		return t.Rows == o.Rows && t.Component == o.Component
	case KindMatrix:
		return t.Columns == o.Columns && t.Rows == o.Rows && t.Component == o.Component
	case KindArray:
		if t.RuntimeSized != o.RuntimeSized {
			return false
		}
		if !t.RuntimeSized && t.ArrayLen != o.ArrayLen {
			return false
		}
		return t.Elem.Equal(*o.Elem)
	case KindStruct:
		return t.Struct == o.Struct
	case KindSampler:
		return t.SamplerDim == o.SamplerDim && t.Primitive == o.Primitive
	case KindUniform, KindPushConstant:
		return t.Struct == o.Struct
	case KindStorage:
		return t.Struct == o.Struct && t.Access == o.Access
	case KindAlias:
		return t.Alias == o.Alias
	case KindFunction:
		if len(t.Params) != len(o.Params) {
			return false
		}
		for i := range t.Params {
			if !t.Params[i].Equal(o.Params[i]) {
				return false
			}
		}
		if (t.Result == nil) != (o.Result == nil) {
			return false
		}
		if t.Result != nil && !t.Result.Equal(*o.Result) {
			return false
		}
		return true
	case KindIntrinsic:
		return t.Intrinsic == o.Intrinsic
	case KindMethod:
		return t.Receiver.Equal(*o.Receiver) && t.Method == o.Method
	default:
		return false
	}
}

// ComponentCount returns the number of scalar components a constructor
// call must supply for t (used by the Cast variant's arity check).
func (t Type) ComponentCount() uint32 {
	switch t.Kind {
	case KindPrimitive:
		return 1
	case KindVector:
		return uint32(t.Rows)
	case KindMatrix:
		return uint32(t.Columns) * uint32(t.Rows)
	default:
		return 0
	}
}
