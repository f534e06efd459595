package slwriter

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
	case *ast.DeclareAlias, *ast.DeclareExternal, *ast.DeclareFunction, *ast.DeclareStruct, *ast.Import:
		// nested top-level declarations never occur inside a function
		// body; only their DeclareVariable/DeclareConst siblings do.
		return nil
	case *ast.DeclareConst:
		return w.writeDeclareConst(n)
	case *ast.DeclareOption:
		return w.writeDeclareOption(n)
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
		return ast.NewError(ast.ErrBackendUnsupported, s.Pos(), fmt.Sprintf("statement %T has no SL re-serialization", s))
	}
}

// writeDeclareVariable names the Nth local a function body declares, in
// the exact order the sanitizer assigned NamespaceLocal slots, so later
// VariableValue references index the same slice.
func (w *Writer) writeDeclareVariable(n *ast.DeclareVariable) error {
	w.localNames = append(w.localNames, n.Name)

	t, err := w.localDeclType(n)
	if err != nil {
		return err
	}
	typeStr, err := w.typeName(t)
	if err != nil {
		return err
	}
	kw := "let"
	if n.Mutable {
		kw = "var"
	}
	if n.Init != nil {
		initStr, err := w.writeExpr(n.Init)
		if err != nil {
			return err
		}
		w.writeLine(fmt.Sprintf("%s %s: %s = %s;", kw, n.Name, typeStr, initStr))
		return nil
	}
	w.writeLine(fmt.Sprintf("%s %s: %s;", kw, n.Name, typeStr))
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
// function-scope const declarations.
func (w *Writer) writeDeclareConst(n *ast.DeclareConst) error {
	valStr, err := w.writeExpr(n.Value)
	if err != nil {
		return err
	}
	t, err := w.constDeclType(n)
	if err != nil {
		return err
	}
	typeStr, err := w.typeName(t)
	if err != nil {
		return err
	}
	if w.indentLevel > 0 {
		w.localNames = append(w.localNames, n.Name)
	}
	w.writeLine(fmt.Sprintf("const %s: %s = %s;", n.Name, typeStr, valStr))
	if w.indentLevel == 0 {
		w.blank()
	}
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

func (w *Writer) writeDeclareOption(n *ast.DeclareOption) error {
	typeStr, err := w.typeName(n.Type)
	if err != nil {
		return err
	}
	if n.Default == nil {
		w.writeLine(fmt.Sprintf("option %s: %s;", n.Name, typeStr))
		w.blank()
		return nil
	}
	defStr, err := w.writeExpr(n.Default)
	if err != nil {
		return err
	}
	w.writeLine(fmt.Sprintf("option %s: %s = %s;", n.Name, typeStr, defStr))
	w.blank()
	return nil
}

func (w *Writer) writeBranch(n *ast.Branch) error {
	for i, cond := range n.Conditions {
		condStr, err := w.writeExpr(cond.Condition)
		if err != nil {
			return err
		}
		if i == 0 {
			w.writeLine(fmt.Sprintf("if %s {", condStr))
		} else {
			w.writeLine(fmt.Sprintf("} else if %s {", condStr))
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
	w.writeLine(fmt.Sprintf("while %s {", condStr))
	w.indentLevel++
	err = w.writeStmts(n.Body)
	w.indentLevel--
	w.writeLine("}")
	return err
}

func (w *Writer) writeReturn(n *ast.Return) error {
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
