package sanitize

import (
	"github.com/shadelang/slc/ast"
)

// entryLegalizer is sub-pass 5: every entry-point
// function's parameters and result are hoisted into Module.Globals as
// decorated stage I/O, and the function's own Params are cleared since
// "entry-point functions take no user parameters" post-legalization.
// The draw-parameter built-ins (BaseInstance/BaseVertex/DrawIndex) are
// left exactly as bound here; the glsl and spirv back ends both reject
// them, and neither synthesizes a fallback uniform.
type entryLegalizer struct {
	ast.Rewriter

	paramRemap map[uint32]uint32 // NamespaceParam index -> NamespaceGlobal index, current function
}

func legalizeEntryPoints(st *state) error {
	el := &entryLegalizer{}
	el.Self = el

	for i := range st.module.Functions {
		fn := &st.module.Functions[i]
		if fn.Stage == ast.StageNone {
			continue
		}
		el.paramRemap = make(map[uint32]uint32)
		for pi, p := range fn.Params {
			gi := uint32(len(st.module.Globals))
			st.module.Globals = append(st.module.Globals, ast.GlobalVar{
				Name:      p.Name,
				Type:      p.Type,
				Binding:   p.Binding,
				Direction: ast.GlobalStageInput,
				Span:      p.Span,
			})
			el.paramRemap[uint32(pi)] = gi
		}
		body, err := ast.RewriteStmts(el, fn.Body)
		if err != nil {
			return err
		}
		fn.Body = body
		fn.Params = nil

		if fn.Result != nil && fn.Result.Binding != nil {
			st.module.Globals = append(st.module.Globals, ast.GlobalVar{
				Name:      fn.Name + "_out",
				Type:      fn.Result.Type,
				Binding:   fn.Result.Binding,
				Direction: ast.GlobalStageOutput,
				Span:      fn.Span,
			})
		}
	}
	return nil
}

func (el *entryLegalizer) RewriteVariableValue(n *ast.VariableValue) (ast.Expr, error) {
	if n.Namespace == ast.NamespaceParam {
		if gi, ok := el.paramRemap[n.Index]; ok {
			n.Namespace, n.Index = ast.NamespaceGlobal, gi
		}
	}
	return n, nil
}
