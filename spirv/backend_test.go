package spirv

import (
	"encoding/binary"
	"testing"

	"github.com/shadelang/slc/ast"
)

// decodedInstr is a minimal re-parse of one instruction, enough for
// assertions without pulling in a full disassembler.
type decodedInstr struct {
	opcode OpCode
	words  []uint32
}

func decodeModule(t *testing.T, data []byte) []decodedInstr {
	t.Helper()
	if len(data) < 20 {
		t.Fatalf("module too small: %d bytes", len(data))
	}
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != MagicNumber {
		t.Fatalf("bad magic: 0x%08x", magic)
	}
	var out []decodedInstr
	for off := 20; off < len(data); {
		head := binary.LittleEndian.Uint32(data[off:])
		wordCount := head >> 16
		op := OpCode(head & 0xffff)
		words := make([]uint32, wordCount-1)
		for i := range words {
			words[i] = binary.LittleEndian.Uint32(data[off+4+i*4:])
		}
		out = append(out, decodedInstr{opcode: op, words: words})
		off += int(wordCount) * 4
	}
	return out
}

func countOpcode(instrs []decodedInstr, op OpCode) int {
	n := 0
	for _, i := range instrs {
		if i.opcode == op {
			n++
		}
	}
	return n
}

func vec4F32() ast.Type { return ast.Vector(4, ast.F32) }

func litF32(v float32) ast.Expr {
	e := &ast.ConstantValue{Value: ast.LitF32(v)}
	e.SetType(ast.Primitive(ast.F32))
	return e
}

// fragmentEntryModule builds a minimal, already-legalized fragment
// shader module: a single "main" entry point writing a constant color
// to a hoisted stage-output global.
func fragmentEntryModule() *ast.Module {
	m := ast.NewModule("test")
	m.Sanitized = true

	outType := vec4F32()
	m.Globals = append(m.Globals, ast.GlobalVar{
		Name:      "main_out",
		Type:      outType,
		Binding:   ast.LocationBinding{Location: 0},
		Direction: ast.GlobalStageOutput,
	})

	colorExpr := &ast.Cast{Target: outType, Args: []ast.Expr{litF32(1), litF32(0), litF32(0), litF32(1)}}
	colorExpr.SetType(outType)

	assign := &ast.Assign{
		Op:   ast.AssignSimple,
		Left: &ast.VariableValue{Namespace: ast.NamespaceGlobal, Index: 0},
		Right: colorExpr,
	}
	assign.SetType(outType)

	m.Functions = append(m.Functions, ast.FunctionDesc{
		Name:  "main",
		Stage: ast.StageFragment,
		Body: []ast.Statement{
			&ast.Expression{Expr: assign},
			&ast.Return{},
		},
	})
	return m
}

func TestBackend_FragmentEntryPoint(t *testing.T) {
	be := NewBackend(DefaultOptions())
	data, err := be.Compile(fragmentEntryModule())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	instrs := decodeModule(t, data)

	if n := countOpcode(instrs, OpEntryPoint); n != 1 {
		t.Errorf("OpEntryPoint count = %d, want 1", n)
	}
	if n := countOpcode(instrs, OpExecutionMode); n != 1 {
		t.Errorf("OpExecutionMode count = %d, want 1 (OriginUpperLeft)", n)
	}
	if n := countOpcode(instrs, OpFunction); n != 1 {
		t.Errorf("OpFunction count = %d, want 1", n)
	}
	if n := countOpcode(instrs, OpReturn); n != 1 {
		t.Errorf("OpReturn count = %d, want 1", n)
	}
	if n := countOpcode(instrs, OpStore); n < 1 {
		t.Errorf("expected a store into the stage-output global")
	}
}

func TestBackend_RequiresSanitizedModule(t *testing.T) {
	m := ast.NewModule("unsanitized")
	be := NewBackend(DefaultOptions())
	if _, err := be.Compile(m); err == nil {
		t.Fatal("expected error compiling an unsanitized module")
	}
}

// whileLoopModule builds a function whose body is a bare While loop,
// exercising structured-control-flow lowering (header/check/body/continue/merge).
func whileLoopModule() *ast.Module {
	m := ast.NewModule("test")
	m.Sanitized = true

	i32 := ast.Primitive(ast.I32)
	zero := &ast.ConstantValue{Value: ast.LitI32(0)}
	zero.SetType(i32)
	ten := &ast.ConstantValue{Value: ast.LitI32(10)}
	ten.SetType(i32)

	localRef := &ast.VariableValue{Namespace: ast.NamespaceLocal, Index: 0}
	localRef.SetType(i32)

	cond := &ast.Binary{Op: ast.BinLess, Left: localRef, Right: ten}
	cond.SetType(ast.Primitive(ast.Bool))

	one := &ast.ConstantValue{Value: ast.LitI32(1)}
	one.SetType(i32)
	incr := &ast.Assign{Op: ast.AssignAdd, Left: localRef, Right: one}
	incr.SetType(i32)

	decl := &ast.DeclareVariable{Name: "i", Type: &i32, Init: zero, Mutable: true}
	loop := &ast.While{Condition: cond, Body: []ast.Statement{&ast.Expression{Expr: incr}}}

	m.Functions = append(m.Functions, ast.FunctionDesc{
		Name: "count",
		Body: []ast.Statement{decl, loop, &ast.Return{}},
	})
	return m
}

func TestBackend_WhileLoop(t *testing.T) {
	be := NewBackend(DefaultOptions())
	data, err := be.Compile(whileLoopModule())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	instrs := decodeModule(t, data)
	if n := countOpcode(instrs, OpLoopMerge); n != 1 {
		t.Errorf("OpLoopMerge count = %d, want 1", n)
	}
	if n := countOpcode(instrs, OpBranchConditional); n != 1 {
		t.Errorf("OpBranchConditional count = %d, want 1", n)
	}
}
