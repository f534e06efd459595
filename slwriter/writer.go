package slwriter

import (
	"strconv"
	"strings"

	"github.com/shadelang/slc/ast"
)

// Writer accumulates SL source text for one Write call.
type Writer struct {
	module  *ast.Module
	options Options

	out         strings.Builder
	indentLevel int

	localNames []string
	paramNames map[uint32]string
}

func newWriter(module *ast.Module, options Options) *Writer {
	return &Writer{module: module, options: options}
}

func (w *Writer) writeLine(s string) {
	w.out.WriteString(strings.Repeat("\t", w.indentLevel))
	w.out.WriteString(s)
	w.out.WriteString("\n")
}

func (w *Writer) blank() { w.out.WriteString("\n") }

// writeModule renders the version header followed by every top-level
// table in turn: imports, structs, aliases, externals, module-scope
// consts/options, then functions. Module.Structs/Aliases/Externals/
// Functions are independent tables (no combined ordering survives
// sanitization), so declarations group by kind rather than preserving
// the source file's original interleaving - the same grouping glsl's
// writer uses.
func (w *Writer) writeModule() error {
	version := w.options.LanguageVersion
	if version == "" {
		version = w.module.LanguageVersion
	}
	if version == "" {
		version = "1.0"
	}
	w.writeLine("[nzsl_version(\"" + version + "\")]")
	w.writeLine("module;")
	w.blank()

	for _, stmt := range w.module.Body {
		imp, ok := stmt.(*ast.Import)
		if !ok {
			continue
		}
		if err := w.writeImport(imp); err != nil {
			return err
		}
	}
	for i := range w.module.Structs {
		if err := w.writeStructDecl(&w.module.Structs[i]); err != nil {
			return err
		}
	}
	for i := range w.module.Aliases {
		if err := w.writeAliasDecl(&w.module.Aliases[i]); err != nil {
			return err
		}
	}
	for i := range w.module.Externals {
		if err := w.writeExternalDecl(&w.module.Externals[i]); err != nil {
			return err
		}
	}
	for _, stmt := range w.module.Body {
		switch n := stmt.(type) {
		case *ast.DeclareConst:
			if err := w.writeDeclareConst(n); err != nil {
				return err
			}
		case *ast.DeclareOption:
			if err := w.writeDeclareOption(n); err != nil {
				return err
			}
		}
	}
	for i := range w.module.Functions {
		if err := w.writeFunctionDecl(&w.module.Functions[i]); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeImport(n *ast.Import) error {
	if n.Alias != "" && n.Alias != n.ModuleName {
		w.writeLine("import \"" + n.ModuleName + "\" as " + n.Alias + ";")
	} else {
		w.writeLine("import \"" + n.ModuleName + "\";")
	}
	w.blank()
	return nil
}

func (w *Writer) writeStructDecl(sd *ast.StructDesc) error {
	w.writeLine("struct " + sd.Name + " {")
	w.indentLevel++
	for i, m := range sd.Members {
		typeStr, err := w.typeName(m.Type)
		if err != nil {
			return err
		}
		if m.Tag != "" {
			w.writeLine("[tag(\"" + m.Tag + "\")]")
		}
		sep := ","
		if i == len(sd.Members)-1 {
			sep = ""
		}
		w.writeLine(m.Name + ": " + typeStr + sep)
	}
	w.indentLevel--
	w.writeLine("}")
	w.blank()
	return nil
}

func (w *Writer) writeAliasDecl(ad *ast.AliasDesc) error {
	typeStr, err := w.typeName(ad.Target)
	if err != nil {
		return err
	}
	w.writeLine("alias " + ad.Name + " = " + typeStr + ";")
	w.blank()
	return nil
}

func (w *Writer) writeExternalDecl(block *ast.ExternalBlock) error {
	if block.Tag != "" {
		w.writeLine("[tag(\"" + block.Tag + "\")]")
	}
	switch block.AutoBinding {
	case ast.AutoBindingOn:
		w.writeLine("[auto_binding]")
	case ast.AutoBindingOff:
		w.writeLine("[auto_binding(false)]")
	}
	w.writeLine("external {")
	w.indentLevel++
	for i, eb := range block.Bindings {
		var attrs []string
		if eb.Set != nil {
			attrs = append(attrs, intAttr("set", *eb.Set))
		}
		if eb.Binding != nil {
			attrs = append(attrs, intAttr("binding", *eb.Binding))
		}
		if len(attrs) > 0 {
			w.writeLine("[" + strings.Join(attrs, ", ") + "]")
		}
		if eb.Tag != "" {
			w.writeLine("[tag(\"" + eb.Tag + "\")]")
		}
		typeStr, err := w.typeName(eb.Type)
		if err != nil {
			return err
		}
		sep := ","
		if i == len(block.Bindings)-1 {
			sep = ""
		}
		w.writeLine(eb.Name + ": " + typeStr + sep)
	}
	w.indentLevel--
	w.writeLine("}")
	w.blank()
	return nil
}

func intAttr(name string, v uint32) string {
	return name + "(" + strconv.FormatUint(uint64(v), 10) + ")"
}

func (w *Writer) writeFunctionDecl(fn *ast.FunctionDesc) error {
	if fn.Stage != ast.StageNone {
		w.writeLine("[entry(" + fn.Stage.String() + ")]")
	}
	if fn.Stage == ast.StageCompute {
		wg := fn.Workgroup
		w.writeLine("[workgroup(" + strconv.FormatUint(uint64(wg[0]), 10) + ", " + strconv.FormatUint(uint64(wg[1]), 10) + ", " + strconv.FormatUint(uint64(wg[2]), 10) + ")]")
	}

	w.paramNames = make(map[uint32]string)
	for i, p := range fn.Params {
		w.paramNames[uint32(i)] = p.Name
	}
	w.localNames = nil

	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		typeStr, err := w.typeName(p.Type)
		if err != nil {
			return err
		}
		attr := bindingAttr(p.Binding)
		if attr != "" {
			attr += " "
		}
		params[i] = attr + p.Name + ": " + typeStr
	}

	header := "fn " + fn.Name + "(" + strings.Join(params, ", ") + ")"
	if fn.Result != nil {
		typeStr, err := w.typeName(fn.Result.Type)
		if err != nil {
			return err
		}
		attr := bindingAttr(fn.Result.Binding)
		if attr != "" {
			attr += " "
		}
		header += " -> " + attr + typeStr
	}
	w.writeLine(header + " {")
	w.indentLevel++
	if err := w.writeStmts(fn.Body); err != nil {
		return err
	}
	w.indentLevel--
	w.writeLine("}")
	w.blank()
	return nil
}

func bindingAttr(b ast.Binding) string {
	switch v := b.(type) {
	case ast.BuiltinBinding:
		name, ok := builtinAttrName(v.Builtin)
		if !ok {
			return ""
		}
		return "[builtin(" + name + ")]"
	case ast.LocationBinding:
		attr := "[location(" + strconv.FormatUint(uint64(v.Location), 10) + ")"
		switch v.Interpolation {
		case ast.InterpolationFlat:
			attr += ", interpolate(flat)"
		case ast.InterpolationLinear:
			attr += ", interpolate(linear)"
		}
		return attr + "]"
	default:
		return ""
	}
}
