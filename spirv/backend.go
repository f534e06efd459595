package spirv

import (
	"fmt"

	"github.com/shadelang/slc/ast"
)

// state is the compile state machine: a Backend moves strictly forward
// through these phases once per Compile call.
type state uint8

const (
	stateIdle state = iota
	stateCollectingTypes
	stateEmittingGlobals
	stateEmittingFunctions
	stateFinalizing
	stateDone
)

// Backend lowers a sanitized *ast.Module to a binary SPIR-V module. A
// Backend is single-use: construct one per Compile call with NewBackend.
type Backend struct {
	module *ast.Module
	opts   Options
	b      *ModuleBuilder
	state  state

	typeIDs      map[string]uint32
	ptrTypeIDs   map[string]uint32
	structTypeID map[ast.StructHandle]uint32
	uintConstIDs map[uint32]uint32

	decoratedStructs      map[ast.StructHandle]bool
	blockDecoratedStructs map[ast.StructHandle]bool
	arrayStrideDecorated  map[uint32]bool

	globalVarIDs   map[int]uint32    // Module.Globals index -> variable ID
	externalVarIDs map[uint32]uint32 // PackExternalIndex(block,binding) -> variable ID
	functionIDs    map[int]uint32
	functionTypeID map[int]uint32

	glslExtID uint32
}

// NewBackend constructs a Backend targeting opts. Call Compile once.
func NewBackend(opts Options) *Backend {
	if opts.Version == (Version{}) {
		opts.Version = DefaultOptions().Version
	}
	return &Backend{
		opts:                  opts,
		typeIDs:               make(map[string]uint32),
		ptrTypeIDs:            make(map[string]uint32),
		structTypeID:          make(map[ast.StructHandle]uint32),
		uintConstIDs:          make(map[uint32]uint32),
		decoratedStructs:      make(map[ast.StructHandle]bool),
		blockDecoratedStructs: make(map[ast.StructHandle]bool),
		arrayStrideDecorated:  make(map[uint32]bool),
		globalVarIDs:          make(map[int]uint32),
		externalVarIDs:        make(map[uint32]uint32),
		functionIDs:           make(map[int]uint32),
		functionTypeID:        make(map[int]uint32),
	}
}

// Compile lowers module to a binary SPIR-V module.
func (be *Backend) Compile(module *ast.Module) ([]byte, error) {
	if !module.Sanitized {
		return nil, ast.NewError(ast.ErrBackendUnsupported, ast.Span{}, "module must be sanitized before SPIR-V generation")
	}
	be.module = module
	be.b = NewModuleBuilder(be.opts.Version)
	be.state = stateCollectingTypes

	be.b.AddCapability(CapabilityShader)
	for _, c := range be.opts.Capabilities {
		be.b.AddCapability(c)
	}
	be.glslExtID = be.b.AddExtInstImport("GLSL.std.450")
	be.b.SetMemoryModel(AddressingModelLogical, MemoryModelGLSL450)

	be.state = stateEmittingGlobals
	if err := be.emitExternals(); err != nil {
		return nil, err
	}
	if err := be.emitGlobals(); err != nil {
		return nil, err
	}

	be.state = stateEmittingFunctions
	// Reserve every function's ID and OpTypeFunction before emitting any
	// body, so a call to a function declared later in Module.Functions
	// still resolves (SPIR-V permits forward function references by ID).
	for i, fn := range module.Functions {
		be.functionIDs[i] = be.b.AllocID()
		ftID, err := be.functionTypeSignature(fn)
		if err != nil {
			return nil, err
		}
		be.functionTypeID[i] = ftID
	}
	for i := range module.Functions {
		if err := be.emitFunction(i); err != nil {
			return nil, err
		}
	}

	be.state = stateFinalizing
	be.state = stateDone
	return be.b.Build(), nil
}

func (be *Backend) versionAtLeast(major, minor uint8) bool {
	v := be.opts.Version
	return v.Major > major || (v.Major == major && v.Minor >= minor)
}

// --- type table ---

// typeSig renders a canonical string key for t; ast.Type isn't directly
// comparable (it carries slice/pointer fields), so the type cache is
// keyed by this signature instead of t itself.
func typeSig(t ast.Type) string {
	switch t.Kind {
	case ast.KindPrimitive:
		return fmt.Sprintf("prim:%d", t.Primitive)
	case ast.KindVector:
		return fmt.Sprintf("vec:%d:%d", t.Rows, t.Component)
	case ast.KindMatrix:
		return fmt.Sprintf("mat:%d:%d:%d", t.Columns, t.Rows, t.Component)
	case ast.KindArray:
		if t.RuntimeSized {
			return fmt.Sprintf("rtarr:%s", typeSig(*t.Elem))
		}
		return fmt.Sprintf("arr:%d:%s", t.ArrayLen, typeSig(*t.Elem))
	case ast.KindStruct, ast.KindUniform, ast.KindStorage, ast.KindPushConstant:
		return fmt.Sprintf("struct:%d", t.Struct)
	case ast.KindSampler:
		return fmt.Sprintf("sampler:%d:%d", t.SamplerDim, t.Primitive)
	default:
		return fmt.Sprintf("kind:%d", t.Kind)
	}
}

// typeID returns the SPIR-V type ID for t, creating (and memoizing) it
// if this is the first reference.
func (be *Backend) typeID(t ast.Type) (uint32, error) {
	if t.Kind == ast.KindAlias {
		return be.typeID(be.module.Aliases[t.Alias].Target)
	}
	key := typeSig(t)
	if id, ok := be.typeIDs[key]; ok {
		return id, nil
	}
	var id uint32
	var err error
	switch t.Kind {
	case ast.KindPrimitive:
		switch t.Primitive {
		case ast.Bool:
			id = be.b.AddTypeBool()
		case ast.F32:
			id = be.b.AddTypeFloat(32)
		case ast.F64:
			id = be.b.AddTypeFloat(64)
		case ast.I32:
			id = be.b.AddTypeInt(32, true)
		case ast.U32:
			id = be.b.AddTypeInt(32, false)
		default:
			return 0, ast.NewError(ast.ErrBackendUnsupported, ast.Span{}, "unsupported primitive kind")
		}
	case ast.KindVector:
		compID, cErr := be.typeID(ast.Primitive(t.Component))
		if cErr != nil {
			return 0, cErr
		}
		id = be.b.AddTypeVector(compID, uint32(t.Rows))
	case ast.KindMatrix:
		colID, cErr := be.typeID(ast.Vector(t.Rows, t.Component))
		if cErr != nil {
			return 0, cErr
		}
		id = be.b.AddTypeMatrix(colID, uint32(t.Columns))
	case ast.KindArray:
		elemID, eErr := be.typeID(*t.Elem)
		if eErr != nil {
			return 0, eErr
		}
		if t.RuntimeSized {
			id = be.b.AddTypeRuntimeArray(elemID)
		} else {
			lenConst := be.uintConstant(t.ArrayLen)
			id = be.b.AddTypeArray(elemID, lenConst)
		}
	case ast.KindStruct, ast.KindUniform, ast.KindStorage, ast.KindPushConstant:
		id, err = be.structTypeIDFor(t.Struct)
	case ast.KindSampler:
		sampledID, sErr := be.typeID(ast.Primitive(t.Primitive))
		if sErr != nil {
			return 0, sErr
		}
		dim, arrayed := dimOf(t.SamplerDim)
		imageID := be.b.AddTypeImage(sampledID, dim, arrayed, false)
		id = be.b.AddTypeSampledImage(imageID)
	default:
		return 0, ast.NewError(ast.ErrBackendUnsupported, ast.Span{}, "type has no SPIR-V representation")
	}
	if err != nil {
		return 0, err
	}
	be.typeIDs[key] = id
	return id, nil
}

// structTypeIDFor emits (once) the OpTypeStruct for h, along with member
// offset/stride decorations when the struct carries a resolved layout.
func (be *Backend) structTypeIDFor(h ast.StructHandle) (uint32, error) {
	if id, ok := be.structTypeID[h]; ok {
		return id, nil
	}
	sd := &be.module.Structs[h]
	memberTypeIDs := make([]uint32, len(sd.Members))
	for i, m := range sd.Members {
		id, err := be.typeID(m.Type)
		if err != nil {
			return 0, err
		}
		memberTypeIDs[i] = id
	}
	id := be.b.AddTypeStruct(memberTypeIDs...)
	be.structTypeID[h] = id

	if be.opts.Debug {
		be.b.AddName(id, sd.Name)
		for i, m := range sd.Members {
			be.b.AddMemberName(id, uint32(i), m.Name)
		}
	}

	if sd.Layout != ast.LayoutDefault && !be.decoratedStructs[h] {
		be.decoratedStructs[h] = true
		for i, m := range sd.Members {
			if m.Offset != nil {
				be.b.AddMemberDecorate(id, uint32(i), DecorationOffset, *m.Offset)
			}
			switch m.Type.Kind {
			case ast.KindMatrix:
				be.b.AddMemberDecorate(id, uint32(i), DecorationColMajor)
				be.b.AddMemberDecorate(id, uint32(i), DecorationMatrixStride, matrixStride(m.Type, sd.Layout))
			case ast.KindArray:
				if !be.arrayStrideDecorated[memberTypeIDs[i]] {
					be.arrayStrideDecorated[memberTypeIDs[i]] = true
					be.b.AddDecorate(memberTypeIDs[i], DecorationArrayStride, be.arrayStride(*m.Type.Elem, sd.Layout))
				}
			}
		}
	}
	return id, nil
}

// matrixStride returns the column-to-column byte stride of a matrix
// member, mirroring sanitize/layout.go's std140/std430 column rule.
func matrixStride(t ast.Type, layout ast.Layout) uint32 {
	switch t.Rows {
	case 2:
		if layout == ast.LayoutStd140 {
			return 16
		}
		return 8
	default:
		return 16
	}
}

// arrayStride mirrors sanitize/layout.go's element stride rule for an
// array member. Array type IDs are shared across layouts in the type
// cache, so the first layout context to decorate a given array type
// wins; a fixed array type reused under both std140 and std430 keeps
// the stride of the layout that decorated it first.
func (be *Backend) arrayStride(elem ast.Type, layout ast.Layout) uint32 {
	switch elem.Kind {
	case ast.KindPrimitive:
		if layout == ast.LayoutStd140 {
			return 16
		}
		return 4
	case ast.KindVector:
		if elem.Rows == 2 {
			if layout == ast.LayoutStd140 {
				return 16
			}
			return 8
		}
		return 16
	case ast.KindMatrix:
		return matrixStride(elem, layout) * uint32(elem.Columns)
	case ast.KindStruct:
		return be.module.Structs[elem.Struct].Size
	case ast.KindArray:
		return be.arrayStride(*elem.Elem, layout) * elem.ArrayLen
	default:
		return 16
	}
}

func (be *Backend) ptrTypeID(sc StorageClass, baseType uint32) uint32 {
	key := fmt.Sprintf("%d:%d", sc, baseType)
	if id, ok := be.ptrTypeIDs[key]; ok {
		return id
	}
	id := be.b.AddTypePointer(sc, baseType)
	be.ptrTypeIDs[key] = id
	return id
}

func (be *Backend) uintConstant(v uint32) uint32 {
	if id, ok := be.uintConstIDs[v]; ok {
		return id
	}
	u32Type, _ := be.typeID(ast.Primitive(ast.U32))
	id := be.b.AddConstant(u32Type, v)
	be.uintConstIDs[v] = id
	return id
}

// scalarKindOf returns the scalar component kind t is built over; unlike
// ast.Type.ScalarOf it also handles Matrix (whose ScalarOf returns ok=false).
func scalarKindOf(t ast.Type) ast.ScalarKind {
	switch t.Kind {
	case ast.KindVector, ast.KindMatrix:
		return t.Component
	default:
		return t.Primitive
	}
}

func isFloatKind(k ast.ScalarKind) bool    { return k == ast.F32 || k == ast.F64 }
func isUnsignedKind(k ast.ScalarKind) bool { return k == ast.U32 }

// --- external and global variable emission ---

// storageClassForBlockKind picks the SPIR-V storage class for a Uniform/
// Storage/PushConstant/Sampler external binding, applying the pre-1.3
// BufferBlock-vs-1.3+-StorageBuffer split.
func (be *Backend) storageClassForBlockKind(k ast.Kind) StorageClass {
	switch k {
	case ast.KindUniform:
		return StorageClassUniform
	case ast.KindStorage:
		if be.versionAtLeast(1, 3) {
			return StorageClassStorageBuffer
		}
		return StorageClassUniform
	case ast.KindPushConstant:
		return StorageClassPushConstant
	default:
		return StorageClassUniformConstant
	}
}

func (be *Backend) emitExternals() error {
	for bi, block := range be.module.Externals {
		for bindIdx, eb := range block.Bindings {
			sc := be.storageClassForBlockKind(eb.Type.Kind)
			baseTypeID, err := be.typeID(eb.Type)
			if err != nil {
				return err
			}
			if sd, ok := be.structOfExternal(eb.Type); ok {
				be.decorateBlock(eb.Type, sd)
			}
			ptrType := be.ptrTypeID(sc, baseTypeID)
			varID := be.b.AddVariable(ptrType, sc)
			be.externalVarIDs[ast.PackExternalIndex(bi, bindIdx)] = varID

			if eb.Set != nil && eb.Binding != nil && eb.Type.Kind != ast.KindPushConstant {
				be.b.AddDecorate(varID, DecorationDescriptorSet, *eb.Set)
				be.b.AddDecorate(varID, DecorationBinding, *eb.Binding)
			}
			if be.opts.Debug {
				be.b.AddName(varID, eb.Name)
			}
		}
	}
	return nil
}

func (be *Backend) structOfExternal(t ast.Type) (*ast.StructDesc, bool) {
	switch t.Kind {
	case ast.KindUniform, ast.KindStorage, ast.KindPushConstant:
		return &be.module.Structs[t.Struct], true
	}
	return nil, false
}

// decorateBlock attaches the Block/BufferBlock decoration that marks sd
// as an interface block, choosing by SPIR-V target version, and stamps
// sd.IsBlock/IsBufferBlock with the choice made.
func (be *Backend) decorateBlock(t ast.Type, sd *ast.StructDesc) {
	if be.blockDecoratedStructs[t.Struct] {
		return
	}
	structID, err := be.structTypeIDFor(t.Struct)
	if err != nil {
		return
	}
	be.blockDecoratedStructs[t.Struct] = true

	useBufferBlock := t.Kind == ast.KindStorage && be.storageClassForBlockKind(t.Kind) == StorageClassUniform
	if useBufferBlock {
		sd.IsBufferBlock = true
		be.b.AddDecorate(structID, DecorationBufferBlock)
	} else {
		sd.IsBlock = true
		be.b.AddDecorate(structID, DecorationBlock)
	}
}

func (be *Backend) emitGlobals() error {
	for i, g := range be.module.Globals {
		typeID, err := be.typeID(g.Type)
		if err != nil {
			return err
		}
		sc := StorageClassPrivate
		switch g.Direction {
		case ast.GlobalStageInput:
			sc = StorageClassInput
		case ast.GlobalStageOutput:
			sc = StorageClassOutput
		}
		ptrType := be.ptrTypeID(sc, typeID)
		varID := be.b.AddVariable(ptrType, sc)
		be.globalVarIDs[i] = varID

		if be.opts.Debug {
			be.b.AddName(varID, g.Name)
		}
		if err := be.decorateBinding(varID, g.Binding); err != nil {
			return err
		}
	}
	return nil
}

func (be *Backend) decorateBinding(varID uint32, binding ast.Binding) error {
	switch b := binding.(type) {
	case nil:
		return nil
	case ast.BuiltinBinding:
		bi, ok := spirvBuiltin(b.Builtin)
		if !ok {
			return ast.NewError(ast.ErrBackendUnsupported, ast.Span{}, "built-in has no SPIR-V equivalent")
		}
		be.b.AddDecorate(varID, DecorationBuiltIn, uint32(bi))
	case ast.LocationBinding:
		be.b.AddDecorate(varID, DecorationLocation, b.Location)
	}
	return nil
}

func spirvBuiltin(v ast.BuiltinValue) (BuiltIn, bool) {
	switch v {
	case ast.BuiltinPosition:
		return BuiltInPosition, true
	case ast.BuiltinFragCoord:
		return BuiltInFragCoord, true
	case ast.BuiltinVertexIndex:
		return BuiltInVertexIndex, true
	case ast.BuiltinInstanceIndex:
		return BuiltInInstanceIndex, true
	case ast.BuiltinFrontFacing:
		return BuiltInFrontFacing, true
	case ast.BuiltinFragDepth:
		return BuiltInFragDepth, true
	case ast.BuiltinLocalInvocationID:
		return BuiltInLocalInvocationID, true
	case ast.BuiltinGlobalInvocationID:
		return BuiltInGlobalInvocationID, true
	case ast.BuiltinWorkgroupID:
		return BuiltInWorkgroupID, true
	case ast.BuiltinNumWorkgroups:
		return BuiltInNumWorkgroups, true
	default:
		// BaseInstance/BaseVertex/DrawIndex: SPIR-V has no
		// direct built-in that every target accepts; they have no mapping
		// here, decorateBinding rejects them, and no fallback uniform is
		// emitted in their place.
		return 0, false
	}
}

// --- function emission ---

func (be *Backend) functionTypeSignature(fn ast.FunctionDesc) (uint32, error) {
	resultTypeID := be.voidType()
	if fn.Result != nil {
		id, err := be.typeID(fn.Result.Type)
		if err != nil {
			return 0, err
		}
		resultTypeID = id
	}
	paramTypeIDs := make([]uint32, len(fn.Params))
	for i, p := range fn.Params {
		id, err := be.typeID(p.Type)
		if err != nil {
			return 0, err
		}
		paramTypeIDs[i] = id
	}
	key := fmt.Sprintf("fn:%d:%v", resultTypeID, paramTypeIDs)
	if id, ok := be.typeIDs[key]; ok {
		return id, nil
	}
	id := be.b.AddTypeFunction(resultTypeID, paramTypeIDs...)
	be.typeIDs[key] = id
	return id, nil
}

func (be *Backend) voidType() uint32 {
	const key = "void"
	if id, ok := be.typeIDs[key]; ok {
		return id
	}
	id := be.b.AddTypeVoid()
	be.typeIDs[key] = id
	return id
}

// funcCtx carries the state needed while lowering one function's body.
type funcCtx struct {
	be   *Backend
	fn   *ast.FunctionDesc
	fnID uint32

	paramIDs   []uint32
	paramTypes []ast.Type

	localPtr  []uint32
	localType []ast.Type

	nextLocal  int
	terminated bool
}

func (be *Backend) emitFunction(i int) error {
	fn := &be.module.Functions[i]
	resultTypeID := be.voidType()
	if fn.Result != nil {
		id, err := be.typeID(fn.Result.Type)
		if err != nil {
			return err
		}
		resultTypeID = id
	}

	fc := &funcCtx{be: be, fn: fn, fnID: be.functionIDs[i]}
	be.b.AddFunctionWithID(fc.fnID, be.functionTypeID[i], resultTypeID, FunctionControlNone)

	fc.paramTypes = make([]ast.Type, len(fn.Params))
	fc.paramIDs = make([]uint32, len(fn.Params))
	for pi, p := range fn.Params {
		pTypeID, err := be.typeID(p.Type)
		if err != nil {
			return err
		}
		fc.paramTypes[pi] = p.Type
		fc.paramIDs[pi] = be.b.AddFunctionParameter(pTypeID)
	}

	be.b.AddLabel()
	if err := fc.declareLocals(fn.Body); err != nil {
		return err
	}
	if _, err := fc.emitStmts(fn.Body); err != nil {
		return err
	}
	if !fc.terminated {
		be.b.AddReturn()
	}
	be.b.AddFunctionEnd()

	if fn.Stage != ast.StageNone {
		be.emitEntryPoint(fc)
	}
	return nil
}

// emitEntryPoint adds the OpEntryPoint/OpExecutionMode instructions for
// an entry-point function, with the interface variable list built from
// every Module.Globals (and, for SPIR-V >=1.4, Externals) reference the
// function body makes directly. Globals referenced only through a
// called helper function are not picked up; legalization hoists entry
// parameters/results into direct body references, so this covers the
// common case.
func (be *Backend) emitEntryPoint(fc *funcCtx) {
	execModel, ok := spirvExecutionModel(fc.fn.Stage)
	if !ok {
		return
	}

	rc := &refCollector{}
	rc.Self = rc
	_ = ast.WalkStmts(rc, fc.fn.Body)

	var ifaces []uint32
	for _, idx := range rc.globalOrder {
		if id, ok := be.globalVarIDs[idx]; ok {
			ifaces = append(ifaces, id)
		}
	}
	if be.versionAtLeast(1, 4) {
		for _, idx := range rc.externalOrder {
			if id, ok := be.externalVarIDs[idx]; ok {
				ifaces = append(ifaces, id)
			}
		}
	}

	be.b.AddEntryPoint(execModel, fc.fnID, fc.fn.Name, ifaces)

	switch fc.fn.Stage {
	case ast.StageFragment:
		be.b.AddExecutionMode(fc.fnID, ExecutionModeOriginUpperLeft)
	case ast.StageCompute:
		wg := fc.fn.Workgroup
		be.b.AddExecutionMode(fc.fnID, ExecutionModeLocalSize, wg[0], wg[1], wg[2])
	}
}

func spirvExecutionModel(stage ast.ShaderStage) (ExecutionModel, bool) {
	switch stage {
	case ast.StageVertex:
		return ExecutionModelVertex, true
	case ast.StageFragment:
		return ExecutionModelFragment, true
	case ast.StageGeometry:
		return ExecutionModelGeometry, true
	case ast.StageCompute:
		return ExecutionModelGLCompute, true
	default:
		return 0, false
	}
}

// refCollector records, in first-reference order, which Module.Globals
// and Module.Externals a function body touches.
type refCollector struct {
	ast.Traverser

	globalOrder   []int
	globalSeen    map[int]bool
	externalOrder []uint32
	externalSeen  map[uint32]bool
}

func (rc *refCollector) VisitVariableValue(n *ast.VariableValue) error {
	switch n.Namespace {
	case ast.NamespaceGlobal:
		idx := int(n.Index)
		if rc.globalSeen == nil {
			rc.globalSeen = make(map[int]bool)
		}
		if !rc.globalSeen[idx] {
			rc.globalSeen[idx] = true
			rc.globalOrder = append(rc.globalOrder, idx)
		}
	case ast.NamespaceExternal:
		if rc.externalSeen == nil {
			rc.externalSeen = make(map[uint32]bool)
		}
		if !rc.externalSeen[n.Index] {
			rc.externalSeen[n.Index] = true
			rc.externalOrder = append(rc.externalOrder, n.Index)
		}
	}
	return nil
}

// localCounter walks a function body in the same order the sanitizer's
// scope resolver assigned NamespaceLocal slots, so slot N here is
// guaranteed to be the Nth DeclareVariable the resolver visited.
type localCounter struct {
	ast.Traverser
	fc *funcCtx
}

func (lc *localCounter) VisitDeclareVariable(n *ast.DeclareVariable) error {
	var t ast.Type
	switch {
	case n.Type != nil:
		t = *n.Type
	case n.Init != nil && n.Init.Type() != nil:
		t = *n.Init.Type()
	}
	typeID, err := lc.fc.be.typeID(t)
	if err != nil {
		return err
	}
	ptrType := lc.fc.be.ptrTypeID(StorageClassFunction, typeID)
	varID := lc.fc.be.b.AddLocalVariable(ptrType)
	lc.fc.localPtr = append(lc.fc.localPtr, varID)
	lc.fc.localType = append(lc.fc.localType, t)
	if lc.fc.be.opts.Debug {
		lc.fc.be.b.AddName(varID, n.Name)
	}
	if n.Init != nil {
		return ast.WalkExpr(lc, n.Init)
	}
	return nil
}

// declareLocals pre-declares every Function-storage local variable the
// body needs, satisfying SPIR-V's rule that all OpVariable instructions
// in a function come first in its entry block.
func (fc *funcCtx) declareLocals(body []ast.Statement) error {
	lc := &localCounter{fc: fc}
	lc.Self = lc
	return ast.WalkStmts(lc, body)
}

func (fc *funcCtx) nextLocalSlot() int {
	slot := fc.nextLocal
	fc.nextLocal++
	return slot
}

// emitStmts lowers stmts in order, returning whether control flow ended
// in a terminator (Return/Discard) partway through — later callers use
// this to skip emitting an unreachable trailing OpBranch.
func (fc *funcCtx) emitStmts(stmts []ast.Statement) (bool, error) {
	for _, s := range stmts {
		terminated, err := fc.emitStmt(s)
		if err != nil {
			return false, err
		}
		if terminated {
			fc.terminated = true
			return true, nil
		}
	}
	return false, nil
}

func (fc *funcCtx) emitStmt(s ast.Statement) (bool, error) {
	be := fc.be
	switch n := s.(type) {
	case *ast.DeclareVariable:
		slot := fc.nextLocalSlot()
		if n.Init != nil {
			val, _, err := fc.genExpr(n.Init)
			if err != nil {
				return false, err
			}
			be.b.AddStore(fc.localPtr[slot], val)
		}
		return false, nil
	case *ast.DeclareConst, *ast.DeclareOption, *ast.DeclareStruct, *ast.DeclareAlias,
		*ast.DeclareExternal, *ast.DeclareFunction, *ast.Import, *ast.NoOp:
		return false, nil
	case *ast.Expression:
		_, _, err := fc.genExpr(n.Expr)
		return false, err
	case *ast.Return:
		if n.Value == nil {
			be.b.AddReturn()
		} else {
			val, _, err := fc.genExpr(n.Value)
			if err != nil {
				return false, err
			}
			be.b.AddReturnValue(val)
		}
		return true, nil
	case *ast.Discard:
		be.b.AddKill()
		return true, nil
	case *ast.Scoped:
		return fc.emitStmts(n.Body)
	case *ast.Multi:
		return fc.emitStmts(n.Statements)
	case *ast.Branch:
		return fc.emitBranch(n.Conditions, n.Else)
	case *ast.While:
		return fc.emitWhile(n)
	default:
		return false, ast.NewError(ast.ErrBackendUnsupported, s.Pos(), fmt.Sprintf("statement %T has no SPIR-V lowering", s))
	}
}

func (fc *funcCtx) emitBranch(conds []ast.BranchCond, elseBody []ast.Statement) (bool, error) {
	be := fc.be
	if len(conds) == 0 {
		if elseBody == nil {
			return false, nil
		}
		return fc.emitStmts(elseBody)
	}

	cond := conds[0]
	condVal, _, err := fc.genExpr(cond.Condition)
	if err != nil {
		return false, err
	}
	thenLabel := be.b.AllocID()
	elseLabel := be.b.AllocID()
	mergeLabel := be.b.AllocID()

	be.b.AddSelectionMerge(mergeLabel, SelectionControlNone)
	be.b.AddBranchConditional(condVal, thenLabel, elseLabel)

	be.b.SetFunctionLabel(thenLabel)
	thenTerm, err := fc.emitStmts(cond.Body)
	if err != nil {
		return false, err
	}
	if !thenTerm {
		be.b.AddBranch(mergeLabel)
	}

	be.b.SetFunctionLabel(elseLabel)
	elseTerm, err := fc.emitBranch(conds[1:], elseBody)
	if err != nil {
		return false, err
	}
	if !elseTerm {
		be.b.AddBranch(mergeLabel)
	}

	be.b.SetFunctionLabel(mergeLabel)
	return thenTerm && elseTerm, nil
}

func (fc *funcCtx) emitWhile(n *ast.While) (bool, error) {
	be := fc.be
	headerLabel := be.b.AllocID()
	be.b.AddBranch(headerLabel)
	be.b.SetFunctionLabel(headerLabel)

	mergeLabel := be.b.AllocID()
	continueLabel := be.b.AllocID()
	checkLabel := be.b.AllocID()
	bodyLabel := be.b.AllocID()

	be.b.AddLoopMerge(mergeLabel, continueLabel, LoopControlNone)
	be.b.AddBranch(checkLabel)
	be.b.SetFunctionLabel(checkLabel)

	condVal, _, err := fc.genExpr(n.Condition)
	if err != nil {
		return false, err
	}
	be.b.AddBranchConditional(condVal, bodyLabel, mergeLabel)

	be.b.SetFunctionLabel(bodyLabel)
	bodyTerm, err := fc.emitStmts(n.Body)
	if err != nil {
		return false, err
	}
	if !bodyTerm {
		be.b.AddBranch(continueLabel)
	}

	be.b.SetFunctionLabel(continueLabel)
	be.b.AddBranch(headerLabel)

	be.b.SetFunctionLabel(mergeLabel)
	return false, nil
}

// --- expression lowering ---

// genExpr evaluates e for its value, returning the SSA result ID and the
// resolved ast.Type (needed by callers picking a type-dependent opcode,
// e.g. Binary).
func (fc *funcCtx) genExpr(e ast.Expr) (uint32, ast.Type, error) {
	be := fc.be
	switch n := e.(type) {
	case *ast.ConstantValue:
		return be.genConstant(n.Value)
	case *ast.VariableValue:
		return fc.genVariableValue(n)
	case *ast.AccessIdentifier, *ast.AccessIndex:
		ptr, _, t, err := fc.genLValue(e)
		if err != nil {
			return 0, ast.Type{}, err
		}
		typeID, err := be.typeID(t)
		if err != nil {
			return 0, ast.Type{}, err
		}
		return be.b.AddLoad(typeID, ptr), t, nil
	case *ast.Swizzle:
		return fc.genSwizzle(n)
	case *ast.Unary:
		return fc.genUnary(n)
	case *ast.Binary:
		return fc.genBinary(n)
	case *ast.Cast:
		return fc.genCast(n)
	case *ast.Assign:
		return fc.genAssign(n)
	case *ast.CallFunction:
		return fc.genCall(n)
	default:
		return 0, ast.Type{}, ast.NewError(ast.ErrBackendUnsupported, e.Pos(), fmt.Sprintf("expression %T has no SPIR-V lowering", e))
	}
}

func (be *Backend) genConstant(lit ast.Literal) (uint32, ast.Type, error) {
	switch v := lit.(type) {
	case ast.LitBool:
		t := ast.Primitive(ast.Bool)
		boolType, err := be.typeID(t)
		if err != nil {
			return 0, t, err
		}
		if bool(v) {
			return be.b.AddConstantTrue(boolType), t, nil
		}
		return be.b.AddConstantFalse(boolType), t, nil
	case ast.LitI32:
		t := ast.Primitive(ast.I32)
		id, err := be.typeID(t)
		if err != nil {
			return 0, t, err
		}
		return be.b.AddConstant(id, uint32(int32(v))), t, nil
	case ast.LitU32:
		t := ast.Primitive(ast.U32)
		id, err := be.typeID(t)
		if err != nil {
			return 0, t, err
		}
		return be.b.AddConstant(id, uint32(v)), t, nil
	case ast.LitF32:
		t := ast.Primitive(ast.F32)
		id, err := be.typeID(t)
		if err != nil {
			return 0, t, err
		}
		return be.b.AddConstantFloat32(id, float32(v)), t, nil
	case ast.LitF64:
		t := ast.Primitive(ast.F64)
		id, err := be.typeID(t)
		if err != nil {
			return 0, t, err
		}
		return be.b.AddConstantFloat64(id, float64(v)), t, nil
	default:
		return 0, ast.Type{}, ast.NewError(ast.ErrBackendUnsupported, ast.Span{}, "unsupported constant literal kind")
	}
}

func (fc *funcCtx) genVariableValue(n *ast.VariableValue) (uint32, ast.Type, error) {
	be := fc.be
	switch n.Namespace {
	case ast.NamespaceLocal:
		t := fc.localType[n.Index]
		typeID, err := be.typeID(t)
		if err != nil {
			return 0, t, err
		}
		return be.b.AddLoad(typeID, fc.localPtr[n.Index]), t, nil
	case ast.NamespaceParam:
		return fc.paramIDs[n.Index], fc.paramTypes[n.Index], nil
	case ast.NamespaceGlobal:
		g := be.module.Globals[n.Index]
		typeID, err := be.typeID(g.Type)
		if err != nil {
			return 0, g.Type, err
		}
		return be.b.AddLoad(typeID, be.globalVarIDs[int(n.Index)]), g.Type, nil
	case ast.NamespaceExternal:
		block, binding := ast.UnpackExternalIndex(n.Index)
		eb := be.module.Externals[block].Bindings[binding]
		typeID, err := be.typeID(eb.Type)
		if err != nil {
			return 0, eb.Type, err
		}
		return be.b.AddLoad(typeID, be.externalVarIDs[n.Index]), eb.Type, nil
	default:
		return 0, ast.Type{}, ast.NewError(ast.ErrBackendUnsupported, n.Span, "unresolved constant reference reached SPIR-V generation")
	}
}

// genLValue evaluates e as a pointer: the variable/member/element it
// addresses, its SPIR-V storage class, and its ast.Type.
func (fc *funcCtx) genLValue(e ast.Expr) (uint32, StorageClass, ast.Type, error) {
	be := fc.be
	switch n := e.(type) {
	case *ast.VariableValue:
		switch n.Namespace {
		case ast.NamespaceLocal:
			return fc.localPtr[n.Index], StorageClassFunction, fc.localType[n.Index], nil
		case ast.NamespaceGlobal:
			g := be.module.Globals[n.Index]
			sc := StorageClassPrivate
			switch g.Direction {
			case ast.GlobalStageInput:
				sc = StorageClassInput
			case ast.GlobalStageOutput:
				sc = StorageClassOutput
			}
			return be.globalVarIDs[int(n.Index)], sc, g.Type, nil
		case ast.NamespaceExternal:
			block, binding := ast.UnpackExternalIndex(n.Index)
			eb := be.module.Externals[block].Bindings[binding]
			return be.externalVarIDs[n.Index], be.storageClassForBlockKind(eb.Type.Kind), eb.Type, nil
		default:
			return 0, 0, ast.Type{}, ast.NewError(ast.ErrBackendUnsupported, n.Span, "value is not addressable")
		}
	case *ast.AccessIdentifier:
		basePtr, sc, baseType, err := fc.genLValue(n.Base)
		if err != nil {
			return 0, 0, ast.Type{}, err
		}
		sd, ok := be.structOf(baseType)
		if !ok || len(n.MemberIndices) == 0 {
			return 0, 0, ast.Type{}, ast.NewError(ast.ErrBackendUnsupported, n.Span, "member access on a non-struct base")
		}
		memberIdx := n.MemberIndices[0]
		memberType := sd.Members[memberIdx].Type
		resultTypeID, err := be.typeID(memberType)
		if err != nil {
			return 0, 0, ast.Type{}, err
		}
		ptrType := be.ptrTypeID(sc, resultTypeID)
		idxConst := be.uintConstant(memberIdx)
		ptr := be.b.AddAccessChain(ptrType, basePtr, idxConst)
		return ptr, sc, memberType, nil
	case *ast.AccessIndex:
		basePtr, sc, baseType, err := fc.genLValue(n.Base)
		if err != nil {
			return 0, 0, ast.Type{}, err
		}
		indexVal, _, err := fc.genExpr(n.Index)
		if err != nil {
			return 0, 0, ast.Type{}, err
		}
		var elemType ast.Type
		switch baseType.Kind {
		case ast.KindArray:
			elemType = *baseType.Elem
		case ast.KindVector:
			elemType = ast.Primitive(baseType.Component)
		case ast.KindMatrix:
			elemType = ast.Vector(baseType.Rows, baseType.Component)
		default:
			return 0, 0, ast.Type{}, ast.NewError(ast.ErrBackendUnsupported, n.Span, "value is not indexable")
		}
		resultTypeID, err := be.typeID(elemType)
		if err != nil {
			return 0, 0, ast.Type{}, err
		}
		ptrType := be.ptrTypeID(sc, resultTypeID)
		ptr := be.b.AddAccessChain(ptrType, basePtr, indexVal)
		return ptr, sc, elemType, nil
	case *ast.Swizzle:
		if len(n.Pattern) != 1 {
			return 0, 0, ast.Type{}, ast.NewError(ast.ErrBackendUnsupported, n.Span, "only a single-component swizzle can be assigned to")
		}
		basePtr, sc, baseType, err := fc.genLValue(n.Base)
		if err != nil {
			return 0, 0, ast.Type{}, err
		}
		elemType := ast.Primitive(baseType.Component)
		resultTypeID, err := be.typeID(elemType)
		if err != nil {
			return 0, 0, ast.Type{}, err
		}
		ptrType := be.ptrTypeID(sc, resultTypeID)
		idxConst := be.uintConstant(uint32(n.Pattern[0]))
		ptr := be.b.AddAccessChain(ptrType, basePtr, idxConst)
		return ptr, sc, elemType, nil
	default:
		return 0, 0, ast.Type{}, ast.NewError(ast.ErrBackendUnsupported, e.Pos(), fmt.Sprintf("expression %T is not addressable", e))
	}
}

func (be *Backend) structOf(t ast.Type) (*ast.StructDesc, bool) {
	switch t.Kind {
	case ast.KindStruct, ast.KindUniform, ast.KindStorage, ast.KindPushConstant:
		return &be.module.Structs[t.Struct], true
	case ast.KindAlias:
		return be.structOf(be.module.Aliases[t.Alias].Target)
	}
	return nil, false
}

func (fc *funcCtx) genSwizzle(n *ast.Swizzle) (uint32, ast.Type, error) {
	be := fc.be
	baseVal, baseType, err := fc.genExpr(n.Base)
	if err != nil {
		return 0, ast.Type{}, err
	}
	var resultType ast.Type
	if len(n.Pattern) == 1 {
		resultType = ast.Primitive(baseType.Component)
	} else {
		resultType = ast.Vector(ast.VectorLen(len(n.Pattern)), baseType.Component)
	}
	resultTypeID, err := be.typeID(resultType)
	if err != nil {
		return 0, ast.Type{}, err
	}
	if len(n.Pattern) == 1 {
		return be.b.AddCompositeExtract(resultTypeID, baseVal, uint32(n.Pattern[0])), resultType, nil
	}
	components := make([]uint32, len(n.Pattern))
	for i, c := range n.Pattern {
		components[i] = uint32(c)
	}
	return be.b.AddVectorShuffle(resultTypeID, baseVal, baseVal, components), resultType, nil
}

func (fc *funcCtx) genUnary(n *ast.Unary) (uint32, ast.Type, error) {
	be := fc.be
	val, t, err := fc.genExpr(n.Operand)
	if err != nil {
		return 0, ast.Type{}, err
	}
	resultTypeID, err := be.typeID(t)
	if err != nil {
		return 0, ast.Type{}, err
	}
	scalar := scalarKindOf(t)
	switch n.Op {
	case ast.UnaryNegate:
		if isFloatKind(scalar) {
			return be.b.AddUnaryOp(OpFNegate, resultTypeID, val), t, nil
		}
		return be.b.AddUnaryOp(OpSNegate, resultTypeID, val), t, nil
	case ast.UnaryNot:
		return be.b.AddUnaryOp(OpLogicalNot, resultTypeID, val), t, nil
	case ast.UnaryBitNot:
		return be.b.AddUnaryOp(OpNot, resultTypeID, val), t, nil
	default:
		return 0, ast.Type{}, ast.NewError(ast.ErrBackendUnsupported, n.Span, "unsupported unary operator")
	}
}

// genMultiplySpecial handles the SPIR-V linear-algebra multiply opcodes
// (matrix/vector/scalar combinations that aren't plain component-wise
// OpFMul/OpIMul). ok is false when lt/rt don't match a special case, in
// which case the caller falls through to generic arithmetic.
func (fc *funcCtx) genMultiplySpecial(lt, rt ast.Type, lval, rval uint32) (uint32, ast.Type, bool, error) {
	be := fc.be
	switch {
	case lt.Kind == ast.KindMatrix && rt.Kind == ast.KindMatrix:
		resultType := ast.Matrix(rt.Columns, lt.Rows, lt.Component)
		id, err := be.typeID(resultType)
		if err != nil {
			return 0, ast.Type{}, true, err
		}
		return be.b.AddBinaryOp(OpMatrixTimesMatrix, id, lval, rval), resultType, true, nil
	case lt.Kind == ast.KindMatrix && rt.Kind == ast.KindVector:
		resultType := ast.Vector(lt.Rows, lt.Component)
		id, err := be.typeID(resultType)
		if err != nil {
			return 0, ast.Type{}, true, err
		}
		return be.b.AddBinaryOp(OpMatrixTimesVector, id, lval, rval), resultType, true, nil
	case lt.Kind == ast.KindVector && rt.Kind == ast.KindMatrix:
		resultType := ast.Vector(rt.Columns, rt.Component)
		id, err := be.typeID(resultType)
		if err != nil {
			return 0, ast.Type{}, true, err
		}
		return be.b.AddBinaryOp(OpVectorTimesMatrix, id, lval, rval), resultType, true, nil
	case lt.Kind == ast.KindMatrix && rt.Kind == ast.KindPrimitive:
		id, err := be.typeID(lt)
		if err != nil {
			return 0, ast.Type{}, true, err
		}
		return be.b.AddBinaryOp(OpMatrixTimesScalar, id, lval, rval), lt, true, nil
	case lt.Kind == ast.KindPrimitive && rt.Kind == ast.KindMatrix:
		id, err := be.typeID(rt)
		if err != nil {
			return 0, ast.Type{}, true, err
		}
		return be.b.AddBinaryOp(OpMatrixTimesScalar, id, rval, lval), rt, true, nil
	case lt.Kind == ast.KindVector && rt.Kind == ast.KindPrimitive:
		id, err := be.typeID(lt)
		if err != nil {
			return 0, ast.Type{}, true, err
		}
		return be.b.AddBinaryOp(OpVectorTimesScalar, id, lval, rval), lt, true, nil
	case lt.Kind == ast.KindPrimitive && rt.Kind == ast.KindVector:
		id, err := be.typeID(rt)
		if err != nil {
			return 0, ast.Type{}, true, err
		}
		return be.b.AddBinaryOp(OpVectorTimesScalar, id, rval, lval), rt, true, nil
	default:
		return 0, ast.Type{}, false, nil
	}
}

func (fc *funcCtx) genBinary(n *ast.Binary) (uint32, ast.Type, error) {
	be := fc.be
	lval, lt, err := fc.genExpr(n.Left)
	if err != nil {
		return 0, ast.Type{}, err
	}
	rval, rt, err := fc.genExpr(n.Right)
	if err != nil {
		return 0, ast.Type{}, err
	}

	if n.Op == ast.BinMultiply {
		if id, t, ok, err := fc.genMultiplySpecial(lt, rt, lval, rval); err != nil {
			return 0, ast.Type{}, err
		} else if ok {
			return id, t, nil
		}
	}

	scalar := scalarKindOf(lt)
	isFloat := isFloatKind(scalar)
	isUnsigned := isUnsignedKind(scalar)

	switch n.Op {
	case ast.BinEqual, ast.BinNotEqual, ast.BinLess, ast.BinLessEqual, ast.BinGreater, ast.BinGreaterEqual:
		boolType, err := be.typeID(ast.Primitive(ast.Bool))
		if err != nil {
			return 0, ast.Type{}, err
		}
		op := comparisonOp(n.Op, isFloat, isUnsigned)
		return be.b.AddBinaryOp(op, boolType, lval, rval), ast.Primitive(ast.Bool), nil
	case ast.BinLogicalAnd:
		boolType, err := be.typeID(ast.Primitive(ast.Bool))
		if err != nil {
			return 0, ast.Type{}, err
		}
		return be.b.AddBinaryOp(OpLogicalAnd, boolType, lval, rval), ast.Primitive(ast.Bool), nil
	case ast.BinLogicalOr:
		boolType, err := be.typeID(ast.Primitive(ast.Bool))
		if err != nil {
			return 0, ast.Type{}, err
		}
		return be.b.AddBinaryOp(OpLogicalOr, boolType, lval, rval), ast.Primitive(ast.Bool), nil
	}

	resultTypeID, err := be.typeID(lt)
	if err != nil {
		return 0, ast.Type{}, err
	}
	op, err := arithmeticOp(n.Op, isFloat, isUnsigned)
	if err != nil {
		return 0, ast.Type{}, err
	}
	return be.b.AddBinaryOp(op, resultTypeID, lval, rval), lt, nil
}

func comparisonOp(op ast.BinaryOp, isFloat, isUnsigned bool) OpCode {
	if isFloat {
		switch op {
		case ast.BinEqual:
			return OpFOrdEqual
		case ast.BinNotEqual:
			return OpFOrdNotEqual
		case ast.BinLess:
			return OpFOrdLessThan
		case ast.BinLessEqual:
			return OpFOrdLessThanEqual
		case ast.BinGreater:
			return OpFOrdGreaterThan
		default:
			return OpFOrdGreaterThanEqual
		}
	}
	if isUnsigned {
		switch op {
		case ast.BinEqual:
			return OpIEqual
		case ast.BinNotEqual:
			return OpINotEqual
		case ast.BinLess:
			return OpULessThan
		case ast.BinLessEqual:
			return OpULessThanEqual
		case ast.BinGreater:
			return OpUGreaterThan
		default:
			return OpUGreaterThanEqual
		}
	}
	switch op {
	case ast.BinEqual:
		return OpIEqual
	case ast.BinNotEqual:
		return OpINotEqual
	case ast.BinLess:
		return OpSLessThan
	case ast.BinLessEqual:
		return OpSLessThanEqual
	case ast.BinGreater:
		return OpSGreaterThan
	default:
		return OpSGreaterThanEqual
	}
}

func arithmeticOp(op ast.BinaryOp, isFloat, isUnsigned bool) (OpCode, error) {
	switch op {
	case ast.BinAdd:
		if isFloat {
			return OpFAdd, nil
		}
		return OpIAdd, nil
	case ast.BinSubtract:
		if isFloat {
			return OpFSub, nil
		}
		return OpISub, nil
	case ast.BinMultiply:
		if isFloat {
			return OpFMul, nil
		}
		return OpIMul, nil
	case ast.BinDivide:
		if isFloat {
			return OpFDiv, nil
		}
		if isUnsigned {
			return OpUDiv, nil
		}
		return OpSDiv, nil
	case ast.BinModulo:
		if isFloat {
			return OpFMod, nil
		}
		if isUnsigned {
			return OpUMod, nil
		}
		return OpSMod, nil
	case ast.BinBitAnd:
		return OpBitwiseAnd, nil
	case ast.BinBitOr:
		return OpBitwiseOr, nil
	case ast.BinBitXor:
		return OpBitwiseXor, nil
	case ast.BinShiftLeft:
		return OpShiftLeftLogical, nil
	case ast.BinShiftRight:
		if isUnsigned {
			return OpShiftRightLogical, nil
		}
		return OpShiftRightArithmetic, nil
	default:
		return 0, ast.NewError(ast.ErrBackendUnsupported, ast.Span{}, "unsupported binary operator")
	}
}

func (fc *funcCtx) genCast(n *ast.Cast) (uint32, ast.Type, error) {
	be := fc.be
	resultTypeID, err := be.typeID(n.Target)
	if err != nil {
		return 0, ast.Type{}, err
	}

	if want := n.Target.ComponentCount(); want > 1 && len(n.Args) > 1 {
		constituents := make([]uint32, len(n.Args))
		for i, a := range n.Args {
			val, _, err := fc.genExpr(a)
			if err != nil {
				return 0, ast.Type{}, err
			}
			constituents[i] = val
		}
		return be.b.AddCompositeConstruct(resultTypeID, constituents...), n.Target, nil
	}

	if len(n.Args) == 1 {
		val, fromType, err := fc.genExpr(n.Args[0])
		if err != nil {
			return 0, ast.Type{}, err
		}
		if fromType.Equal(n.Target) {
			return val, n.Target, nil
		}
		if n.Target.Kind == ast.KindPrimitive && fromType.Kind == ast.KindPrimitive {
			converted, err := be.convertScalar(val, fromType.Primitive, n.Target.Primitive, resultTypeID)
			return converted, n.Target, err
		}
		// A single-argument vector/matrix "cast" with no scalar
		// conversion needed passes the value through unchanged.
		return val, n.Target, nil
	}

	return 0, ast.Type{}, ast.NewError(ast.ErrBackendUnsupported, n.Span, "unsupported cast/constructor shape")
}

func (be *Backend) convertScalar(val uint32, from, to ast.ScalarKind, resultTypeID uint32) (uint32, error) {
	if from == to {
		return val, nil
	}
	switch {
	case to == ast.Bool:
		zeroID, err := be.scalarZero(from)
		if err != nil {
			return 0, err
		}
		cmp := comparisonOp(ast.BinNotEqual, isFloatKind(from), isUnsignedKind(from))
		return be.b.AddBinaryOp(cmp, resultTypeID, val, zeroID), nil
	case from == ast.Bool:
		oneID, err := be.scalarOne(to)
		if err != nil {
			return 0, err
		}
		zeroID, err := be.scalarZero(to)
		if err != nil {
			return 0, err
		}
		return be.b.AddSelect(resultTypeID, val, oneID, zeroID), nil
	case isFloatKind(from) && isFloatKind(to):
		return be.b.AddUnaryOp(OpFConvert, resultTypeID, val), nil
	case isFloatKind(from) && !isFloatKind(to):
		if isUnsignedKind(to) {
			return be.b.AddUnaryOp(OpConvertFToU, resultTypeID, val), nil
		}
		return be.b.AddUnaryOp(OpConvertFToS, resultTypeID, val), nil
	case !isFloatKind(from) && isFloatKind(to):
		if isUnsignedKind(from) {
			return be.b.AddUnaryOp(OpConvertUToF, resultTypeID, val), nil
		}
		return be.b.AddUnaryOp(OpConvertSToF, resultTypeID, val), nil
	default: // I32 <-> U32, same width
		return be.b.AddUnaryOp(OpBitcast, resultTypeID, val), nil
	}
}

func (be *Backend) scalarZero(k ast.ScalarKind) (uint32, error) {
	id, _, err := be.genConstant(zeroLiteral(k))
	return id, err
}

func (be *Backend) scalarOne(k ast.ScalarKind) (uint32, error) {
	id, _, err := be.genConstant(oneLiteral(k))
	return id, err
}

func zeroLiteral(k ast.ScalarKind) ast.Literal {
	switch k {
	case ast.F32:
		return ast.LitF32(0)
	case ast.F64:
		return ast.LitF64(0)
	case ast.U32:
		return ast.LitU32(0)
	default:
		return ast.LitI32(0)
	}
}

func oneLiteral(k ast.ScalarKind) ast.Literal {
	switch k {
	case ast.F32:
		return ast.LitF32(1)
	case ast.F64:
		return ast.LitF64(1)
	case ast.U32:
		return ast.LitU32(1)
	default:
		return ast.LitI32(1)
	}
}

func (fc *funcCtx) genAssign(n *ast.Assign) (uint32, ast.Type, error) {
	be := fc.be
	ptr, _, t, err := fc.genLValue(n.Left)
	if err != nil {
		return 0, ast.Type{}, err
	}
	rhsVal, _, err := fc.genExpr(n.Right)
	if err != nil {
		return 0, ast.Type{}, err
	}
	if n.Op == ast.AssignSimple {
		be.b.AddStore(ptr, rhsVal)
		return rhsVal, t, nil
	}

	typeID, err := be.typeID(t)
	if err != nil {
		return 0, ast.Type{}, err
	}
	curVal := be.b.AddLoad(typeID, ptr)
	scalar := scalarKindOf(t)
	op, err := arithmeticOp(compoundOp(n.Op), isFloatKind(scalar), isUnsignedKind(scalar))
	if err != nil {
		return 0, ast.Type{}, err
	}
	combined := be.b.AddBinaryOp(op, typeID, curVal, rhsVal)
	be.b.AddStore(ptr, combined)
	return combined, t, nil
}

func compoundOp(op ast.AssignOp) ast.BinaryOp {
	switch op {
	case ast.AssignAdd:
		return ast.BinAdd
	case ast.AssignSubtract:
		return ast.BinSubtract
	case ast.AssignMultiply:
		return ast.BinMultiply
	case ast.AssignDivide:
		return ast.BinDivide
	default:
		return ast.BinModulo
	}
}

func (fc *funcCtx) genCall(n *ast.CallFunction) (uint32, ast.Type, error) {
	be := fc.be
	switch target := n.Target.(type) {
	case *ast.Function:
		argIDs := make([]uint32, len(n.Args))
		for i, a := range n.Args {
			val, _, err := fc.genExpr(a)
			if err != nil {
				return 0, ast.Type{}, err
			}
			argIDs[i] = val
		}
		callee := be.module.Functions[target.FunctionIndex]
		resultType := ast.Type{}
		resultTypeID := be.voidType()
		if callee.Result != nil {
			resultType = callee.Result.Type
			id, err := be.typeID(resultType)
			if err != nil {
				return 0, ast.Type{}, err
			}
			resultTypeID = id
		}
		return be.b.AddFunctionCall(resultTypeID, be.functionIDs[int(target.FunctionIndex)], argIDs...), resultType, nil
	case *ast.Intrinsic:
		return fc.genIntrinsic(target.ID, n)
	default:
		return 0, ast.Type{}, ast.NewError(ast.ErrBackendUnsupported, n.Span, "call target is not a function or intrinsic")
	}
}

func (fc *funcCtx) genIntrinsic(id ast.IntrinsicID, n *ast.CallFunction) (uint32, ast.Type, error) {
	be := fc.be
	switch id {
	case ast.IntrinsicSample, ast.IntrinsicSampleLevel:
		samplerVal, _, err := fc.genExpr(n.Args[0])
		if err != nil {
			return 0, ast.Type{}, err
		}
		coordVal, _, err := fc.genExpr(n.Args[1])
		if err != nil {
			return 0, ast.Type{}, err
		}
		resultType := ast.Vector(4, ast.F32)
		resultTypeID, err := be.typeID(resultType)
		if err != nil {
			return 0, ast.Type{}, err
		}
		if id == ast.IntrinsicSample {
			return be.b.AddImageSampleImplicitLod(resultTypeID, samplerVal, coordVal), resultType, nil
		}
		lodVal, _, err := fc.genExpr(n.Args[2])
		if err != nil {
			return 0, ast.Type{}, err
		}
		return be.b.AddImageSampleExplicitLod(resultTypeID, samplerVal, coordVal, lodVal), resultType, nil

	case ast.IntrinsicSize, ast.IntrinsicArrayLength:
		al, ok := n.Args[0].(*ast.AccessIdentifier)
		if !ok || len(al.MemberIndices) == 0 {
			return 0, ast.Type{}, ast.NewError(ast.ErrBackendUnsupported, n.Span, "array-length target must be a struct member access")
		}
		basePtr, _, _, err := fc.genLValue(al.Base)
		if err != nil {
			return 0, ast.Type{}, err
		}
		resultType := ast.Primitive(ast.U32)
		resultTypeID, err := be.typeID(resultType)
		if err != nil {
			return 0, ast.Type{}, err
		}
		return be.b.AddArrayLength(resultTypeID, basePtr, al.MemberIndices[0]), resultType, nil

	case ast.IntrinsicDot:
		lv, lt, err := fc.genExpr(n.Args[0])
		if err != nil {
			return 0, ast.Type{}, err
		}
		rv, _, err := fc.genExpr(n.Args[1])
		if err != nil {
			return 0, ast.Type{}, err
		}
		resultType := ast.Primitive(lt.Component)
		resultTypeID, err := be.typeID(resultType)
		if err != nil {
			return 0, ast.Type{}, err
		}
		return be.b.AddBinaryOp(OpDot, resultTypeID, lv, rv), resultType, nil

	default:
		extOp, ok := glslExtInstFor(id)
		if !ok {
			return 0, ast.Type{}, ast.NewError(ast.ErrBackendUnsupported, n.Span, "intrinsic has no SPIR-V lowering")
		}
		operandIDs := make([]uint32, len(n.Args))
		var resultType ast.Type
		for i, a := range n.Args {
			val, t, err := fc.genExpr(a)
			if err != nil {
				return 0, ast.Type{}, err
			}
			operandIDs[i] = val
			if i == 0 {
				resultType = t
			}
		}
		if id == ast.IntrinsicLength {
			resultType = ast.Primitive(ast.F32)
		}
		resultTypeID, err := be.typeID(resultType)
		if err != nil {
			return 0, ast.Type{}, err
		}
		return be.b.AddExtInst(resultTypeID, be.glslExtID, extOp, operandIDs...), resultType, nil
	}
}

func glslExtInstFor(id ast.IntrinsicID) (uint32, bool) {
	switch id {
	case ast.IntrinsicMin:
		return GLSLstd450FMin, true
	case ast.IntrinsicMax:
		return GLSLstd450FMax, true
	case ast.IntrinsicClamp:
		return GLSLstd450FClamp, true
	case ast.IntrinsicCross:
		return GLSLstd450Cross, true
	case ast.IntrinsicNormalize:
		return GLSLstd450Normalize, true
	case ast.IntrinsicLength:
		return GLSLstd450Length, true
	case ast.IntrinsicLerp:
		return GLSLstd450FMix, true
	case ast.IntrinsicPow:
		return GLSLstd450Pow, true
	case ast.IntrinsicAbs:
		return GLSLstd450FAbs, true
	case ast.IntrinsicFloor:
		return GLSLstd450Floor, true
	case ast.IntrinsicCeil:
		return GLSLstd450Ceil, true
	case ast.IntrinsicSqrt:
		return GLSLstd450Sqrt, true
	default:
		return 0, false
	}
}
