package slwriter

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/shadelang/slc/ast"
	"github.com/shadelang/slc/parser"
)

// TestWrite_RawModuleRoundTrips re-serializes a raw parse tree and
// reparses the result, checking the two trees agree on everything but
// source position. A raw AccessIdentifier/Assign/Binary shape must
// survive the round trip unchanged.
func TestWrite_RawModuleRoundTrips(t *testing.T) {
	const source = `[nzsl_version("1.0")]
module;

struct Light {
	color: vec3[f32],
	intensity: f32
}

fn scale(light: Light, factor: f32) -> vec3[f32] {
	let result: vec3[f32] = light.color;
	if factor > 0f32 {
		result = result * factor;
	}
	return result;
}
`
	mod1, err := parser.Parse("test", source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	out, err := Write(mod1, Options{})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	mod2, err := parser.Parse("test", out)
	if err != nil {
		t.Fatalf("Parse of re-serialized source: %v\n--- source ---\n%s", err, out)
	}

	opts := cmp.Options{
		cmpopts.IgnoreTypes(ast.Span{}),
		cmpopts.IgnoreUnexported(ast.ExprBase{}),
	}
	if diff := cmp.Diff(mod1, mod2, opts...); diff != "" {
		t.Errorf("re-serialized module does not round-trip (-original +reparsed):\n%s\n--- source ---\n%s", diff, out)
	}
}

func litF32(v float32) ast.Expr {
	e := &ast.ConstantValue{Value: ast.LitF32(v)}
	e.SetType(ast.Primitive(ast.F32))
	return e
}

// uniformSamplerModule builds a minimal sanitized module: a uniform
// block wrapping a Camera struct, a sampler external, a global
// stage-input, and a fragment entry point that samples and returns.
func uniformSamplerModule() *ast.Module {
	m := ast.NewModule("test")
	m.Sanitized = true

	m.Structs = append(m.Structs, ast.StructDesc{
		Name: "Camera",
		Members: []ast.StructMember{
			{Name: "viewProj", Type: ast.Matrix(4, 4, ast.F32), Tag: "ViewProj"},
		},
	})

	set0 := uint32(0)
	binding0 := uint32(0)
	binding1 := uint32(1)
	m.Externals = append(m.Externals, ast.ExternalBlock{
		Bindings: []ast.ExternalBinding{
			{Name: "camera", Type: ast.Uniform(0), Set: &set0, Binding: &binding0, Tag: "CameraData"},
			{Name: "albedo", Type: ast.Sampler(ast.Sampler2D, ast.F32), Binding: &binding1},
		},
	})

	vec2 := ast.Vector(2, ast.F32)
	vec4 := ast.Vector(4, ast.F32)
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

	result := &ast.Result{Type: vec4, Binding: ast.LocationBinding{Location: 0}}
	m.Functions = append(m.Functions, ast.FunctionDesc{
		Name:   "shade",
		Stage:  ast.StageFragment,
		Result: result,
		Body: []ast.Statement{
			&ast.Return{Value: sampleCall},
		},
	})
	return m
}

func TestWrite_UniformBlockAndSampler(t *testing.T) {
	out, err := Write(uniformSamplerModule(), Options{})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(out, "struct Camera {") {
		t.Errorf("expected the Camera struct declaration, got:\n%s", out)
	}
	if !strings.Contains(out, "viewProj: mat4[f32]") {
		t.Errorf("expected the viewProj member, got:\n%s", out)
	}
	if !strings.Contains(out, "external {") {
		t.Errorf("expected an external block, got:\n%s", out)
	}
	if !strings.Contains(out, "[set(0), binding(0)]") {
		t.Errorf("expected a set/binding attribute, got:\n%s", out)
	}
	if !strings.Contains(out, "[binding(1)]") {
		t.Errorf("expected a binding-only attribute, got:\n%s", out)
	}
	if !strings.Contains(out, "camera: uniform[Camera]") {
		t.Errorf("expected the uniform binding, got:\n%s", out)
	}
	if !strings.Contains(out, "albedo: sampler2D[f32]") {
		t.Errorf("expected the sampler binding, got:\n%s", out)
	}
	if !strings.Contains(out, "[entry(frag)]") {
		t.Errorf("expected the entry attribute, got:\n%s", out)
	}
	if !strings.Contains(out, "Sample(albedo, uv)") {
		t.Errorf("expected the Sample() call, got:\n%s", out)
	}
	if !strings.Contains(out, "[location(0)] vec4[f32]") {
		t.Errorf("expected the result location attribute, got:\n%s", out)
	}
}

// localVariableModule builds a function whose body declares two locals
// and references the first by index, exercising the declaration-order
// name-reconstruction writeDeclareVariable relies on.
func localVariableModule() *ast.Module {
	m := ast.NewModule("test")
	m.Sanitized = true

	f32 := ast.Primitive(ast.F32)
	a := &ast.VariableValue{Namespace: ast.NamespaceLocal, Index: 0}
	a.SetType(f32)

	declA := &ast.DeclareVariable{Name: "a", Type: &f32, Init: litF32(1), Mutable: false}
	declB := &ast.DeclareVariable{Name: "b", Type: &f32, Init: a, Mutable: false}

	bRef := &ast.VariableValue{Namespace: ast.NamespaceLocal, Index: 1}
	bRef.SetType(f32)

	m.Functions = append(m.Functions, ast.FunctionDesc{
		Name:   "identity",
		Result: &ast.Result{Type: f32},
		Body: []ast.Statement{
			declA,
			declB,
			&ast.Return{Value: bRef},
		},
	})
	return m
}

func TestWrite_LocalVariableNamesFollowDeclarationOrder(t *testing.T) {
	out, err := Write(localVariableModule(), Options{})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(out, "let a: f32 = 1.0f32;") {
		t.Errorf("expected the first local declaration, got:\n%s", out)
	}
	if !strings.Contains(out, "let b: f32 = a;") {
		t.Errorf("expected the second local to reference the first by name, got:\n%s", out)
	}
	if !strings.Contains(out, "return b;") {
		t.Errorf("expected the return statement to reference the second local by name, got:\n%s", out)
	}
}

func TestWrite_RejectsUnsupportedType(t *testing.T) {
	m := ast.NewModule("test")
	m.Sanitized = true
	m.Functions = append(m.Functions, ast.FunctionDesc{
		Name:   "bad",
		Result: &ast.Result{Type: ast.Type{Kind: ast.KindFunction}},
		Body:   []ast.Statement{&ast.Return{}},
	})
	if _, err := Write(m, Options{}); err == nil {
		t.Fatal("expected an error writing a function-typed result")
	}
}
