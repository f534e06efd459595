package ast

// Binding is the shader-stage I/O decoration attached to a function
// parameter, a function result, or a hoisted global.
type Binding interface{ binding() }

// BuiltinValue enumerates the built-in stage I/O values SL recognizes.
// The first block mirrors the common vertex/fragment/compute built-ins;
// the draw-parameter built-ins (BaseInstance, BaseVertex, DrawIndex)
// pass through entry-point legalization like any other built-in.
type BuiltinValue uint8

const (
	BuiltinPosition BuiltinValue = iota
	BuiltinFragCoord
	BuiltinVertexIndex
	BuiltinInstanceIndex
	BuiltinFrontFacing
	BuiltinFragDepth
	BuiltinLocalInvocationID
	BuiltinGlobalInvocationID
	BuiltinWorkgroupID
	BuiltinNumWorkgroups
	BuiltinBaseInstance
	BuiltinBaseVertex
	BuiltinDrawIndex
)

// BuiltinBinding binds a value to a shader stage built-in.
type BuiltinBinding struct {
	Builtin BuiltinValue
}

func (BuiltinBinding) binding() {}

// InterpolationKind is the interpolation mode of a LocationBinding.
type InterpolationKind uint8

const (
	InterpolationPerspective InterpolationKind = iota
	InterpolationLinear
	InterpolationFlat
)

// LocationBinding binds a value to a numbered shader-stage I/O slot.
type LocationBinding struct {
	Location      uint32
	Interpolation InterpolationKind
}

func (LocationBinding) binding() {}

// GlobalDirection records why a Module.Globals entry exists: an
// ordinary module-scope variable, or one side of hoisted entry-point
// stage I/O.
type GlobalDirection uint8

const (
	GlobalPlain GlobalDirection = iota
	GlobalStageInput
	GlobalStageOutput
)

// GlobalVar is a module-scope variable: either hoisted entry-point
// stage I/O (Binding != nil, Direction is In/Out) or an explicit
// module-scope `var` declaration (Binding == nil, Direction is Plain).
type GlobalVar struct {
	Name      string
	Type      Type
	Binding   Binding
	Direction GlobalDirection
	Span      Span
}
