package ast

// Feature is a named capability gate.
type Feature string

const (
	FeaturePrimitiveExternals Feature = "primitive_externals"
)

// Layout is the memory layout attribute a struct may carry.
type Layout uint8

const (
	LayoutDefault Layout = iota
	LayoutStd140
	LayoutStd430
)

// StructMember is one field of a struct table entry.
type StructMember struct {
	Name string
	Type Type

	// Offset is resolved by the struct-layout sub-pass when the owning
	// struct carries Layout != LayoutDefault; nil before resolution.
	Offset *uint32

	Tag   string
	Span  Span
}

// StructDesc is a struct table entry.
type StructDesc struct {
	Name    string
	Members []StructMember
	Layout  Layout

	// Size is the resolved total size in bytes once Layout is resolved.
	Size uint32

	// IsBlock / IsBufferBlock record how the struct's wrapper external
	// (Uniform/Storage) decorates it for SPIR-V; set by the SPIR-V back
	// end while emitting, since the Block/BufferBlock choice depends on
	// the target SPIR-V version.
	IsBlock       bool
	IsBufferBlock bool

	Span Span
}

// AliasDesc is an alias table entry. Aliases are fully expanded in
// resolved types; the table entry survives sanitization only to
// preserve the original naming intent.
type AliasDesc struct {
	Name   string
	Target Type
	Span   Span
}

// AutoBinding is the tri-state `auto_binding` policy on an external
// block.
type AutoBinding uint8

const (
	AutoBindingUnset AutoBinding = iota
	AutoBindingOff
	AutoBindingOn
)

// ExternalBinding is one member of an external block.
type ExternalBinding struct {
	Name string
	Type Type

	// Set/Binding are resolved by the binding-assignment sub-pass.
	// Binding is nil until assigned (or permanently, for push_constant
	// members and for partial sanitization without forced resolve);
	// push_constant members also keep Set nil.
	Set     *uint32
	Binding *uint32

	Tag  string
	Span Span
}

// ExternalBlock is a top-level `external { ... }` declaration.
type ExternalBlock struct {
	AutoBinding AutoBinding
	Tag         string
	Bindings    []ExternalBinding
	Span        Span
}

// ShaderStage is the pipeline stage an entry point targets.
type ShaderStage uint8

const (
	StageNone ShaderStage = iota
	StageVertex
	StageFragment
	StageGeometry
	StageCompute
)

func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vert"
	case StageFragment:
		return "frag"
	case StageGeometry:
		return "geom"
	case StageCompute:
		return "compute"
	default:
		return "none"
	}
}

// FunctionDesc is a function table entry.
type FunctionDesc struct {
	Name   string
	Params []Param
	Result *Result

	Body []Statement

	// Entry-point metadata; Stage == StageNone for ordinary functions.
	Stage     ShaderStage
	Workgroup [3]uint32

	Span Span
}

// Param is a function parameter. Binding is set only for entry-point
// stage inputs; ordinary function parameters leave it
// nil. Entry-point legalization clears Params on the sanitized function
// (entry-point functions take no user parameters) after recording each
// one in Module.Globals.
type Param struct {
	Name    string
	Type    Type
	Binding Binding
	Span    Span
}

// Result is a function's return type and, for an entry point's stage
// output, its builtin/location decoration.
type Result struct {
	Type    Type
	Binding Binding
}

// Module owns every top-level table the compiler operates over.
type Module struct {
	Name            string
	LanguageVersion string
	Features        map[Feature]bool

	Structs   []StructDesc
	Aliases   []AliasDesc
	Externals []ExternalBlock
	Functions []FunctionDesc

	// Globals holds module-scope variables: entry-point stage I/O
	// hoisted by entry-point legalization, plus any
	// explicit module-scope `var` declarations. Referenced by
	// VariableValue{Namespace: NamespaceGlobal}.
	Globals []GlobalVar

	// Body holds module-scope statements in source order: import, const
	// and option declarations, plus a DeclareStruct/DeclareAlias/
	// DeclareExternal/DeclareFunction marker for each declaration the
	// parser adds to the tables above. Import splicing removes Import
	// statements and adds no markers for imported declarations.
	Body []Statement

	// Sanitized records whether this module has passed through
	// sanitize.Sanitize; back ends require it (except slwriter, which
	// can re-serialize a raw parse tree too).
	Sanitized bool

	// Partial records whether sanitization ran with PartialSanitization
	// requested, which downgrades UnresolvedBinding to a non-error.
	Partial bool
}

// HasFeature reports whether a feature gate is enabled.
func (m *Module) HasFeature(f Feature) bool {
	return m.Features != nil && m.Features[f]
}

// NewModule returns an empty module ready for the parser to populate.
func NewModule(name string) *Module {
	return &Module{
		Name:     name,
		Features: make(map[Feature]bool),
	}
}
