package glsl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shadelang/slc/ast"
)

// namer hands out collision-free GLSL identifiers from a flat
// namespace, escaping reserved words along the way.
type namer struct {
	used map[string]bool
}

func newNamer() *namer {
	return &namer{used: make(map[string]bool)}
}

func (nm *namer) unique(base string) string {
	name := escapeKeyword(base)
	if name == "" {
		name = "_unnamed"
	}
	if !nm.used[name] {
		nm.used[name] = true
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", name, i)
		if !nm.used[candidate] {
			nm.used[candidate] = true
			return candidate
		}
	}
}

// Writer accumulates GLSL source for one Compile call. Declarations
// (structs, consts, globals, externals) and function bodies are
// buffered into separate builders so the modulo-helper polyfill, whose
// need is discovered while writing function bodies, can still be
// emitted before its first use.
type Writer struct {
	module  *ast.Module
	options *Options

	header strings.Builder
	decls  strings.Builder
	funcs  strings.Builder
	cur    *strings.Builder

	indentLevel int

	namer                *namer
	structNames          map[ast.StructHandle]string
	externalBlockStructs map[ast.StructHandle]bool
	samplerTypesUsed     map[string]bool
	globalNames          []string
	externalNames        map[uint32]string
	functionNames        map[int]string
	entryIndex           int

	localNamer *namer
	localNames []string
	paramNames map[uint32]string

	entryOutputName string

	textureSamplerPairs []string
	entryPointNames     map[string]string
	extensions          []string
	requiredVersion     Version

	needsModHelper bool
}

func newWriter(module *ast.Module, options *Options) *Writer {
	return &Writer{
		module:               module,
		options:               options,
		namer:                 newNamer(),
		structNames:           make(map[ast.StructHandle]string),
		externalBlockStructs:  make(map[ast.StructHandle]bool),
		samplerTypesUsed:      make(map[string]bool),
		externalNames:         make(map[uint32]string),
		functionNames:         make(map[int]string),
		entryPointNames:       make(map[string]string),
		requiredVersion:       options.LangVersion,
		entryIndex:            -1,
	}
}

func (w *Writer) writeLine(s string) {
	w.cur.WriteString(strings.Repeat("    ", w.indentLevel))
	w.cur.WriteString(s)
	w.cur.WriteString("\n")
}

func (w *Writer) blank() {
	w.cur.WriteString("\n")
}

func (w *Writer) String() string {
	var out strings.Builder
	out.WriteString(w.header.String())
	out.WriteString(w.decls.String())
	if w.needsModHelper {
		out.WriteString(modHelperSource)
	}
	out.WriteString(w.funcs.String())
	return out.String()
}

const modHelperSource = `float _sl_mod(float x, float y) {
    return x - y * floor(x / y);
}

vec2 _sl_mod(vec2 x, vec2 y) {
    return x - y * floor(x / y);
}

vec3 _sl_mod(vec3 x, vec3 y) {
    return x - y * floor(x / y);
}

vec4 _sl_mod(vec4 x, vec4 y) {
    return x - y * floor(x / y);
}

`

func (w *Writer) writeModule() error {
	if err := w.registerNames(); err != nil {
		return err
	}

	w.cur = &w.header
	w.writeVersionAndPrecision()

	w.cur = &w.decls
	if err := w.writeStructs(); err != nil {
		return err
	}
	if err := w.writeModuleConsts(); err != nil {
		return err
	}
	if err := w.writeExternals(); err != nil {
		return err
	}
	if err := w.writeGlobals(); err != nil {
		return err
	}

	w.cur = &w.funcs
	return w.writeFunctions()
}

// registerNames assigns every struct, global, external binding, and
// function a unique GLSL identifier up front, and selects the single
// entry point this Compile call targets: GLSL compiles one pipeline
// stage at a time, unlike the SPIR-V back end which can hold several
// entry points in one module.
func (w *Writer) registerNames() error {
	for i := range w.module.Structs {
		sd := &w.module.Structs[i]
		name := sd.Name
		if name == "" {
			name = fmt.Sprintf("Struct_%d", i)
		}
		w.structNames[ast.StructHandle(i)] = w.namer.unique(name)
	}

	// push_constant externals keep their struct as an ordinary visible
	// declaration (they render as a plain `uniform Type name;`, not a
	// named interface block), so only Uniform/Storage wrappers are
	// excluded from the regular struct-declaration pass.
	for _, block := range w.module.Externals {
		for _, eb := range block.Bindings {
			switch eb.Type.Kind {
			case ast.KindUniform, ast.KindStorage:
				w.externalBlockStructs[eb.Type.Struct] = true
			case ast.KindSampler:
				if name, err := samplerToGLSL(eb.Type.SamplerDim, eb.Type.Primitive); err == nil {
					w.samplerTypesUsed[name] = true
				}
			}
		}
	}

	w.globalNames = make([]string, len(w.module.Globals))
	for i, g := range w.module.Globals {
		if _, ok := g.Binding.(ast.BuiltinBinding); ok {
			continue
		}
		w.globalNames[i] = w.namer.unique(g.Name)
	}

	for bi, block := range w.module.Externals {
		for bindIdx, eb := range block.Bindings {
			w.externalNames[ast.PackExternalIndex(bi, bindIdx)] = w.namer.unique(eb.Name)
		}
	}

	for i, fn := range w.module.Functions {
		if fn.Stage == ast.StageNone {
			w.functionNames[i] = w.namer.unique(fn.Name)
			continue
		}
		if w.entryIndex == -1 && (w.options.EntryPoint == "" || fn.Name == w.options.EntryPoint) {
			w.entryIndex = i
		}
	}
	if w.entryIndex == -1 {
		return ast.NewError(ast.ErrBackendUnsupported, ast.Span{}, "no matching entry point")
	}
	entry := &w.module.Functions[w.entryIndex]
	w.functionNames[w.entryIndex] = "main"
	w.entryPointNames[entry.Name] = "main"

	if entry.Stage == ast.StageCompute && !w.options.LangVersion.SupportsCompute() {
		return ast.NewError(ast.ErrBackendUnsupported, entry.Span, "compute shaders require GLSL ES 3.10+ / GLSL 4.30+")
	}
	return nil
}

func (w *Writer) writeVersionAndPrecision() {
	v := w.options.LangVersion
	w.writeLine("#version " + v.String())

	entry := &w.module.Functions[w.entryIndex]
	w.writeLine(fmt.Sprintf("// %s shader - this file was generated by the slc compiler", stageName(entry.Stage)))

	if v.ES {
		precision := "mediump"
		if w.options.ForceHighPrecision {
			precision = "highp"
		}
		w.blank()
		w.writeLine(fmt.Sprintf("precision %s float;", precision))
		w.writeLine(fmt.Sprintf("precision %s int;", precision))
		for _, name := range sortedKeys(w.samplerTypesUsed) {
			w.writeLine(fmt.Sprintf("precision %s %s;", precision, name))
		}
	}
	w.blank()
}

func stageName(s ast.ShaderStage) string {
	switch s {
	case ast.StageVertex:
		return "vertex"
	case ast.StageFragment:
		return "fragment"
	case ast.StageGeometry:
		return "geometry"
	case ast.StageCompute:
		return "compute"
	default:
		return "unknown"
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (w *Writer) writeStructs() error {
	for i := range w.module.Structs {
		h := ast.StructHandle(i)
		if w.externalBlockStructs[h] {
			continue
		}
		sd := &w.module.Structs[i]
		w.writeLine("struct " + w.structNames[h] + " {")
		w.indentLevel++
		for _, m := range sd.Members {
			typeStr, suffix, err := w.typeNameAndSuffix(m.Type)
			if err != nil {
				return err
			}
			if m.Tag != "" {
				w.writeLine("// member tag: " + m.Tag)
			}
			w.writeLine(fmt.Sprintf("%s %s%s;", typeStr, escapeKeyword(m.Name), suffix))
		}
		w.indentLevel--
		w.writeLine("};")
		w.blank()
	}
	return nil
}

func (w *Writer) writeModuleConsts() error {
	for _, s := range w.module.Body {
		dc, ok := s.(*ast.DeclareConst)
		if !ok {
			continue
		}
		if err := w.writeDeclareConst(dc); err != nil {
			return err
		}
	}
	return nil
}

func (v Version) supportsExplicitBinding() bool {
	if v.ES {
		return v.Major > 3 || (v.Major == 3 && v.Minor >= 10)
	}
	return !v.versionLessThan(420)
}

func structLayoutQualifier(layout ast.Layout) string {
	switch layout {
	case ast.LayoutStd430:
		return "std430"
	default:
		return "std140"
	}
}

func (w *Writer) writeExternals() error {
	for bi, block := range w.module.Externals {
		for bindIdx, eb := range block.Bindings {
			name := w.externalNames[ast.PackExternalIndex(bi, bindIdx)]
			if err := w.writeExternalBinding(eb, name); err != nil {
				return err
			}
		}
	}
	return nil
}

func bindingLayoutPrefix(eb ast.ExternalBinding, extra ...string) string {
	var parts []string
	parts = append(parts, extra...)
	if eb.Binding != nil {
		parts = append(parts, fmt.Sprintf("binding = %d", *eb.Binding))
	}
	if len(parts) == 0 {
		return ""
	}
	return "layout(" + strings.Join(parts, ", ") + ") "
}

func (w *Writer) writeExternalBinding(eb ast.ExternalBinding, name string) error {
	switch eb.Type.Kind {
	case ast.KindSampler:
		typeStr, err := w.typeName(eb.Type)
		if err != nil {
			return err
		}
		var layoutStr string
		if w.options.LangVersion.supportsExplicitBinding() {
			layoutStr = bindingLayoutPrefix(eb)
		}
		w.writeLine(fmt.Sprintf("%suniform %s %s;", layoutStr, typeStr, name))
		return nil

	case ast.KindUniform, ast.KindStorage:
		if eb.Type.Kind == ast.KindStorage && !w.options.LangVersion.SupportsStorageBuffers() {
			return ast.NewError(ast.ErrBackendUnsupported, eb.Span, "storage buffers require GLSL ES 3.10+ / GLSL 4.30+")
		}
		sd, ok := w.structOf(eb.Type)
		if !ok {
			return ast.NewError(ast.ErrBackendUnsupported, eb.Span, "external binding references an unregistered struct")
		}
		qualifier := "uniform"
		if eb.Type.Kind == ast.KindStorage {
			qualifier = "buffer"
		}
		layoutQ := structLayoutQualifier(sd.Layout)
		var layoutStr string
		if w.options.LangVersion.supportsExplicitBinding() {
			layoutStr = bindingLayoutPrefix(eb, layoutQ)
		} else {
			layoutStr = fmt.Sprintf("layout(%s) ", layoutQ)
		}
		if eb.Tag != "" {
			w.writeLine("// external var tag: " + eb.Tag)
		}
		blockName := "_nzslBinding" + name
		w.writeLine(fmt.Sprintf("%s%s %s {", layoutStr, qualifier, blockName))
		w.indentLevel++
		for _, m := range sd.Members {
			typeStr, suffix, err := w.typeNameAndSuffix(m.Type)
			if err != nil {
				return err
			}
			if m.Tag != "" {
				w.writeLine("// member tag: " + m.Tag)
			}
			w.writeLine(fmt.Sprintf("%s %s%s;", typeStr, escapeKeyword(m.Name), suffix))
		}
		w.indentLevel--
		w.writeLine(fmt.Sprintf("} %s;", name))
		w.blank()
		return nil

	case ast.KindPushConstant:
		structName := w.structNames[eb.Type.Struct]
		if eb.Tag != "" {
			w.writeLine("// external var tag: " + eb.Tag)
		}
		w.writeLine(fmt.Sprintf("uniform %s %s;", structName, name))
		w.blank()
		return nil

	default:
		return ast.NewError(ast.ErrBackendUnsupported, eb.Span, "external binding type has no GLSL representation")
	}
}

func (w *Writer) writeGlobals() error {
	for i, g := range w.module.Globals {
		if _, ok := g.Binding.(ast.BuiltinBinding); ok {
			continue
		}
		name := w.globalNames[i]
		typeStr, suffix, err := w.typeNameAndSuffix(g.Type)
		if err != nil {
			return err
		}
		qualifier := ""
		switch g.Direction {
		case ast.GlobalStageInput:
			qualifier = "in "
		case ast.GlobalStageOutput:
			qualifier = "out "
		}
		var layoutStr, interpQualifier string
		if lb, ok := g.Binding.(ast.LocationBinding); ok {
			layoutStr = fmt.Sprintf("layout(location = %d) ", lb.Location)
			switch lb.Interpolation {
			case ast.InterpolationFlat:
				interpQualifier = "flat "
			case ast.InterpolationLinear:
				interpQualifier = "noperspective "
			}
		}
		w.writeLine(fmt.Sprintf("%s%s%s%s %s%s;", layoutStr, interpQualifier, qualifier, typeStr, name, suffix))
	}
	w.blank()
	return nil
}

func (w *Writer) writeFunctions() error {
	for i := range w.module.Functions {
		fn := &w.module.Functions[i]
		if i == w.entryIndex || fn.Stage != ast.StageNone {
			continue
		}
		if err := w.writeFunction(i, fn); err != nil {
			return err
		}
	}
	return w.writeEntryFunction()
}

func (w *Writer) writeFunction(i int, fn *ast.FunctionDesc) error {
	resultType := "void"
	if fn.Result != nil {
		t, err := w.typeName(fn.Result.Type)
		if err != nil {
			return err
		}
		resultType = t
	}

	w.paramNames = make(map[uint32]string)
	w.localNamer = newNamer()
	w.localNames = nil
	w.entryOutputName = ""

	paramDecls := make([]string, len(fn.Params))
	for pi, p := range fn.Params {
		name := w.localNamer.unique(p.Name)
		w.paramNames[uint32(pi)] = name
		typeStr, suffix, err := w.typeNameAndSuffix(p.Type)
		if err != nil {
			return err
		}
		paramDecls[pi] = fmt.Sprintf("%s %s%s", typeStr, name, suffix)
	}

	w.writeLine(fmt.Sprintf("%s %s(%s) {", resultType, w.functionNames[i], strings.Join(paramDecls, ", ")))
	w.indentLevel++
	if err := w.writeStmts(fn.Body); err != nil {
		return err
	}
	w.indentLevel--
	w.writeLine("}")
	w.blank()
	return nil
}

// writeEntryFunction emits the selected entry point as GLSL's mandatory
// "main", redirecting a bound result into the global entry-point
// legalization hoisted for it.
func (w *Writer) writeEntryFunction() error {
	fn := &w.module.Functions[w.entryIndex]

	w.paramNames = make(map[uint32]string)
	w.localNamer = newNamer()
	w.localNames = nil
	w.entryOutputName = ""

	if fn.Result != nil && fn.Result.Binding != nil {
		outName, ok := w.findHoistedOutput(fn.Name)
		if !ok {
			return ast.NewError(ast.ErrBackendUnsupported, fn.Span, "entry point result has a binding but no hoisted output global")
		}
		w.entryOutputName = outName
	}

	if fn.Stage == ast.StageCompute {
		wg := fn.Workgroup
		w.writeLine(fmt.Sprintf("layout(local_size_x = %d, local_size_y = %d, local_size_z = %d) in;", wg[0], wg[1], wg[2]))
		w.blank()
	}

	w.writeLine("void main() {")
	w.indentLevel++
	if err := w.writeStmts(fn.Body); err != nil {
		return err
	}
	w.indentLevel--
	w.writeLine("}")
	return nil
}

func (w *Writer) findHoistedOutput(fnName string) (string, bool) {
	target := fnName + "_out"
	for i, g := range w.module.Globals {
		if g.Name != target || g.Direction != ast.GlobalStageOutput {
			continue
		}
		if bb, ok := g.Binding.(ast.BuiltinBinding); ok {
			return glslBuiltin(bb.Builtin)
		}
		return w.globalNames[i], true
	}
	return "", false
}
