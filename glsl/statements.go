package glsl

import (
	"fmt"

	"github.com/shadelang/slc/ast"
)

func (w *Writer) writeStmts(stmts []ast.Statement) error {
	for _, s := range stmts {
		if err := w.writeStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeStmt(s ast.Statement) error {
	switch n := s.(type) {
	case *ast.Branch:
		return w.writeBranch(n)
	case *ast.DeclareAlias:
		return nil
	case *ast.DeclareConst:
		return w.writeDeclareConst(n)
	case *ast.DeclareExternal:
		return nil
	case *ast.DeclareFunction:
		return nil
	case *ast.DeclareOption:
		return nil
	case *ast.DeclareStruct:
		return nil
	case *ast.DeclareVariable:
		return w.writeDeclareVariable(n)
	case *ast.Discard:
		w.writeLine("discard;")
		return nil
	case *ast.Expression:
		str, err := w.writeExpr(n.Expr)
		if err != nil {
			return err
		}
		w.writeLine(str + ";")
		return nil
	case *ast.Import:
		return nil
	case *ast.Multi:
		return w.writeStmts(n.Statements)
	case *ast.NoOp:
		return nil
	case *ast.Return:
		return w.writeReturn(n)
	case *ast.Scoped:
		w.writeLine("{")
		w.indentLevel++
		err := w.writeStmts(n.Body)
		w.indentLevel--
		w.writeLine("}")
		return err
	case *ast.While:
		return w.writeWhile(n)
	default:
		return ast.NewError(ast.ErrBackendUnsupported, s.Pos(), fmt.Sprintf("statement %T has no GLSL lowering", s))
	}
}

// writeDeclareVariable names and registers the Nth local variable a
// function body declares, in the exact depth-first order the sanitizer
// assigned NamespaceLocal slots, so later VariableValue references
// index the same slice.
func (w *Writer) writeDeclareVariable(n *ast.DeclareVariable) error {
	name := w.localNamer.unique(n.Name)
	w.localNames = append(w.localNames, name)

	t, err := w.localDeclType(n)
	if err != nil {
		return err
	}
	typeStr, suffix, err := w.typeNameAndSuffix(t)
	if err != nil {
		return err
	}

	if n.Init != nil {
		initStr, err := w.writeExpr(n.Init)
		if err != nil {
			return err
		}
		w.writeLine(fmt.Sprintf("%s %s%s = %s;", typeStr, name, suffix, initStr))
		return nil
	}
	w.writeLine(fmt.Sprintf("%s %s%s;", typeStr, name, suffix))
	return nil
}

func (w *Writer) localDeclType(n *ast.DeclareVariable) (ast.Type, error) {
	if n.Type != nil {
		return *n.Type, nil
	}
	if n.Init != nil && n.Init.Type() != nil {
		return *n.Init.Type(), nil
	}
	return ast.Type{}, ast.NewError(ast.ErrBackendUnsupported, n.Span, "local variable has no resolved type")
}

// writeDeclareConst handles both module-scope (Module.Body) and
// function-scope const declarations; indentation is whatever the
// current writeLine indent level is.
func (w *Writer) writeDeclareConst(n *ast.DeclareConst) error {
	valStr, err := w.writeExpr(n.Value)
	if err != nil {
		return err
	}
	t, err := w.constDeclType(n)
	if err != nil {
		return err
	}
	typeStr, suffix, err := w.typeNameAndSuffix(t)
	if err != nil {
		return err
	}
	var name string
	if w.indentLevel == 0 {
		name = w.namer.unique(n.Name)
	} else {
		name = w.localNamer.unique(n.Name)
		w.localNames = append(w.localNames, name)
	}
	w.writeLine(fmt.Sprintf("const %s %s%s = %s;", typeStr, name, suffix, valStr))
	return nil
}

func (w *Writer) constDeclType(n *ast.DeclareConst) (ast.Type, error) {
	if n.Type != nil {
		return *n.Type, nil
	}
	if n.Value != nil && n.Value.Type() != nil {
		return *n.Value.Type(), nil
	}
	return ast.Type{}, ast.NewError(ast.ErrBackendUnsupported, n.Span, "const declaration has no resolved type")
}

func (w *Writer) writeBranch(n *ast.Branch) error {
	for i, cond := range n.Conditions {
		condStr, err := w.writeExpr(cond.Condition)
		if err != nil {
			return err
		}
		if i == 0 {
			w.writeLine(fmt.Sprintf("if (%s) {", condStr))
		} else {
			w.writeLine(fmt.Sprintf("} else if (%s) {", condStr))
		}
		w.indentLevel++
		if err := w.writeStmts(cond.Body); err != nil {
			return err
		}
		w.indentLevel--
	}
	if n.Else != nil {
		w.writeLine("} else {")
		w.indentLevel++
		if err := w.writeStmts(n.Else); err != nil {
			return err
		}
		w.indentLevel--
	}
	w.writeLine("}")
	return nil
}

func (w *Writer) writeWhile(n *ast.While) error {
	condStr, err := w.writeExpr(n.Condition)
	if err != nil {
		return err
	}
	w.writeLine(fmt.Sprintf("while (%s) {", condStr))
	w.indentLevel++
	err = w.writeStmts(n.Body)
	w.indentLevel--
	w.writeLine("}")
	return err
}

// writeReturn redirects an entry-point function's return value into its
// hoisted stage-output global: entry-point legalization never rewrites
// Return itself, only the parameter/result tables, so each back end
// performs this redirection on its own.
func (w *Writer) writeReturn(n *ast.Return) error {
	if w.entryOutputName != "" {
		if n.Value != nil {
			valStr, err := w.writeExpr(n.Value)
			if err != nil {
				return err
			}
			w.writeLine(fmt.Sprintf("%s = %s;", w.entryOutputName, valStr))
		}
		w.writeLine("return;")
		return nil
	}
	if n.Value == nil {
		w.writeLine("return;")
		return nil
	}
	valStr, err := w.writeExpr(n.Value)
	if err != nil {
		return err
	}
	w.writeLine("return " + valStr + ";")
	return nil
}
