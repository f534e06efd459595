package glsl

import (
	"strings"
	"testing"

	"github.com/shadelang/slc/ast"
)

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

	result := &ast.Result{Type: outType, Binding: ast.LocationBinding{Location: 0}}

	m.Functions = append(m.Functions, ast.FunctionDesc{
		Name:   "main",
		Stage:  ast.StageFragment,
		Result: result,
		Body: []ast.Statement{
			&ast.Return{Value: colorExpr},
		},
	})
	return m
}

func TestCompile_FragmentEntryPoint(t *testing.T) {
	source, info, err := Compile(fragmentEntryModule(), DefaultOptions())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(source, "void main()") {
		t.Errorf("expected a main() entry point, got:\n%s", source)
	}
	if !strings.Contains(source, "main_out = vec4(1.0, 0.0, 0.0, 1.0)") {
		t.Errorf("expected the hoisted output global to be assigned, got:\n%s", source)
	}
	if !strings.Contains(source, "out vec4 main_out") {
		t.Errorf("expected an `out vec4 main_out` declaration, got:\n%s", source)
	}
	if !strings.Contains(source, "// fragment shader - this file was generated by the slc compiler") {
		t.Errorf("expected the stage header comment, got:\n%s", source)
	}
	if info.EntryPointNames["main"] != "main" {
		t.Errorf("EntryPointNames[main] = %q, want main", info.EntryPointNames["main"])
	}
}

func TestCompile_RequiresSanitizedModule(t *testing.T) {
	m := ast.NewModule("unsanitized")
	if _, _, err := Compile(m, DefaultOptions()); err == nil {
		t.Fatal("expected error compiling an unsanitized module")
	}
}

// whileLoopModule builds a function whose body is a bare While loop.
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
		Name:  "count",
		Stage: ast.StageVertex,
		Body:  []ast.Statement{decl, loop, &ast.Return{}},
	})
	return m
}

func TestCompile_WhileLoop(t *testing.T) {
	source, _, err := Compile(whileLoopModule(), DefaultOptions())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(source, "while (") {
		t.Errorf("expected a native while loop, got:\n%s", source)
	}
	if !strings.Contains(source, "int i = 0;") {
		t.Errorf("expected the local declaration to be emitted, got:\n%s", source)
	}
}

// floatModuloModule exercises the _sl_mod polyfill: GLSL's native %
// operator only accepts integers, so a float modulo must route through
// the helper. Operands come from hoisted stage-input globals, the form
// entry-point legalization leaves behind (entry bodies never reference
// NamespaceParam once legalized).
func floatModuloModule() *ast.Module {
	m := ast.NewModule("test")
	m.Sanitized = true

	f32 := ast.Primitive(ast.F32)
	m.Globals = append(m.Globals,
		ast.GlobalVar{Name: "a", Type: f32, Binding: ast.LocationBinding{Location: 0}, Direction: ast.GlobalStageInput},
		ast.GlobalVar{Name: "b", Type: f32, Binding: ast.LocationBinding{Location: 1}, Direction: ast.GlobalStageInput},
	)

	a := &ast.VariableValue{Namespace: ast.NamespaceGlobal, Index: 0}
	a.SetType(f32)
	b := &ast.VariableValue{Namespace: ast.NamespaceGlobal, Index: 1}
	b.SetType(f32)

	mod := &ast.Binary{Op: ast.BinModulo, Left: a, Right: b}
	mod.SetType(f32)

	m.Functions = append(m.Functions, ast.FunctionDesc{
		Name:  "wrap",
		Stage: ast.StageFragment,
		Body: []ast.Statement{
			&ast.Return{Value: mod},
		},
	})
	return m
}

func TestCompile_FloatModuloUsesHelper(t *testing.T) {
	source, _, err := Compile(floatModuloModule(), DefaultOptions())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(source, "_sl_mod(a, b)") {
		t.Errorf("expected a call to the _sl_mod helper, got:\n%s", source)
	}
	if !strings.Contains(source, "float _sl_mod(float x, float y)") {
		t.Errorf("expected the _sl_mod helper definition, got:\n%s", source)
	}
}

// uniformBlockModule exercises an external uniform block and a sampler
// binding, covering struct-wrapper lookup and layout(binding=N) emission.
func uniformBlockModule() *ast.Module {
	m := ast.NewModule("test")
	m.Sanitized = true

	m.Structs = append(m.Structs, ast.StructDesc{
		Name: "Camera",
		Members: []ast.StructMember{
			{Name: "viewProj", Type: ast.Matrix(4, 4, ast.F32), Tag: "ViewProj"},
		},
	})

	binding0 := uint32(0)
	binding1 := uint32(1)
	m.Externals = append(m.Externals, ast.ExternalBlock{
		Bindings: []ast.ExternalBinding{
			{Name: "camera", Type: ast.Uniform(0), Binding: &binding0, Tag: "CameraData"},
			{Name: "albedo", Type: ast.Sampler(ast.Sampler2D, ast.F32), Binding: &binding1},
		},
	})

	vec2 := ast.Vector(2, ast.F32)
	vec4 := vec4F32()
	m.Globals = append(m.Globals, ast.GlobalVar{
		Name: "uv", Type: vec2, Binding: ast.LocationBinding{Location: 0}, Direction: ast.GlobalStageInput,
	})

	coord := &ast.VariableValue{Namespace: ast.NamespaceGlobal, Index: 0}
	coord.SetType(vec2)
	sampler := &ast.VariableValue{Namespace: ast.NamespaceExternal, Index: ast.PackExternalIndex(0, 1)}
	sampler.SetType(ast.Sampler(ast.Sampler2D, ast.F32))
	sampleCall := &ast.CallFunction{
		Target: &ast.Intrinsic{ID: ast.IntrinsicSample},
		Args:   []ast.Expr{sampler, coord},
	}
	sampleCall.SetType(vec4)

	m.Functions = append(m.Functions, ast.FunctionDesc{
		Name:   "shade",
		Stage:  ast.StageFragment,
		Result: &ast.Result{Type: vec4},
		Body: []ast.Statement{
			&ast.Return{Value: sampleCall},
		},
	})
	return m
}

func TestCompile_UniformBlockAndSampler(t *testing.T) {
	source, _, err := Compile(uniformBlockModule(), DefaultOptions())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(source, "uniform _nzslBindingcamera {") {
		t.Errorf("expected a uniform block using the _nzslBinding naming convention, got:\n%s", source)
	}
	if !strings.Contains(source, "mat4 viewProj;") {
		t.Errorf("expected the block member to be emitted, got:\n%s", source)
	}
	if !strings.Contains(source, "sampler2D albedo;") {
		t.Errorf("expected a sampler2D declaration, got:\n%s", source)
	}
	if !strings.Contains(source, "texture(albedo, uv)") {
		t.Errorf("expected a texture() sample call, got:\n%s", source)
	}
	if !strings.Contains(source, "// external var tag: CameraData") {
		t.Errorf("expected the binding tag comment, got:\n%s", source)
	}
	if !strings.Contains(source, "// member tag: ViewProj") {
		t.Errorf("expected the member tag comment, got:\n%s", source)
	}
}

// pushConstantModule exercises push_constant rendering: unlike uniform and
// storage blocks, a push_constant external renders as a plain `uniform
// Type name;` declaration with no interface-block braces.
func pushConstantModule() *ast.Module {
	m := ast.NewModule("test")
	m.Sanitized = true

	m.Structs = append(m.Structs, ast.StructDesc{
		Name: "PushData",
		Members: []ast.StructMember{
			{Name: "time", Type: ast.Primitive(ast.F32)},
		},
	})

	m.Externals = append(m.Externals, ast.ExternalBlock{
		Bindings: []ast.ExternalBinding{
			{Name: "push", Type: ast.PushConstant(0)},
		},
	})

	result := &ast.Result{Type: ast.Primitive(ast.F32)}
	m.Functions = append(m.Functions, ast.FunctionDesc{
		Name:   "shade",
		Stage:  ast.StageFragment,
		Result: result,
		Body: []ast.Statement{
			&ast.Return{Value: litF32(0)},
		},
	})
	return m
}

func TestCompile_PushConstant(t *testing.T) {
	source, _, err := Compile(pushConstantModule(), DefaultOptions())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(source, "struct PushData {") {
		t.Errorf("expected the push_constant struct to render as an ordinary declaration, got:\n%s", source)
	}
	if !strings.Contains(source, "uniform PushData push;") {
		t.Errorf("expected a bare uniform declaration with no interface block, got:\n%s", source)
	}
	if strings.Contains(source, "_nzslBindingpush") {
		t.Errorf("push_constant bindings must not use the _nzslBinding naming convention, got:\n%s", source)
	}
}
