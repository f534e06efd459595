package parser

import (
	"testing"

	"github.com/shadelang/slc/ast"
)

func parseSource(t *testing.T, source string) *ast.Module {
	t.Helper()
	mod, err := Parse("test", source)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return mod
}

func tryParseSource(source string) (*ast.Module, error) {
	return Parse("test", source)
}

func TestParseEntryFunction(t *testing.T) {
	source := `[nzsl_version("1.0")]
module;

[entry(frag)]
fn main([location(0)] uv: vec2[f32]) -> [location(0)] vec4[f32] {
	return vec4[f32](uv, 0.0, 1.0);
}
`
	mod := parseSource(t, source)

	if len(mod.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(mod.Functions))
	}
	fn := mod.Functions[0]
	if fn.Name != "main" {
		t.Errorf("expected function name 'main', got %q", fn.Name)
	}
	if fn.Stage != ast.StageFragment {
		t.Errorf("expected fragment stage, got %v", fn.Stage)
	}
	if len(fn.Params) != 1 {
		t.Fatalf("expected 1 param, got %d", len(fn.Params))
	}
	loc, ok := fn.Params[0].Binding.(ast.LocationBinding)
	if !ok {
		t.Fatalf("expected location binding, got %T", fn.Params[0].Binding)
	}
	if loc.Location != 0 {
		t.Errorf("expected location 0, got %d", loc.Location)
	}
	if fn.Result == nil {
		t.Fatal("expected a result type")
	}
	if len(fn.Body) != 1 {
		t.Fatalf("expected 1 statement in body, got %d", len(fn.Body))
	}
	if _, ok := fn.Body[0].(*ast.Return); !ok {
		t.Errorf("expected return statement, got %T", fn.Body[0])
	}
}

func TestParseStructDeclaration(t *testing.T) {
	source := `[nzsl_version("1.0")]
module;

struct VertexOutput {
	position: vec4[f32],
	uv: vec2[f32]
}
`
	mod := parseSource(t, source)

	if len(mod.Structs) != 1 {
		t.Fatalf("expected 1 struct, got %d", len(mod.Structs))
	}
	s := mod.Structs[0]
	if s.Name != "VertexOutput" {
		t.Errorf("expected struct name 'VertexOutput', got %q", s.Name)
	}
	if len(s.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(s.Members))
	}
	if s.Members[0].Name != "position" {
		t.Errorf("expected first member 'position', got %q", s.Members[0].Name)
	}
	if s.Members[1].Name != "uv" {
		t.Errorf("expected second member 'uv', got %q", s.Members[1].Name)
	}
}

func TestParseStructForwardReference(t *testing.T) {
	// Light references Shadow before Shadow is declared; the prepass
	// table must resolve this regardless of declaration order.
	source := `[nzsl_version("1.0")]
module;

struct Light {
	shadow: Shadow
}

struct Shadow {
	bias: f32
}
`
	mod := parseSource(t, source)
	if len(mod.Structs) != 2 {
		t.Fatalf("expected 2 structs, got %d", len(mod.Structs))
	}
	light := mod.Structs[0]
	if light.Name != "Light" {
		t.Fatalf("expected Light first, got %q", light.Name)
	}
	if len(light.Members) != 1 {
		t.Fatalf("expected 1 member on Light, got %d", len(light.Members))
	}
	if light.Members[0].Type.Kind != ast.KindStruct {
		t.Fatalf("expected shadow member to reference a struct, got %v", light.Members[0].Type.Kind)
	}
	shadowHandle := light.Members[0].Type.Struct
	if mod.Structs[shadowHandle].Name != "Shadow" {
		t.Errorf("expected shadow handle to resolve to Shadow struct, got %q", mod.Structs[shadowHandle].Name)
	}
}

func TestParseExternalBlock(t *testing.T) {
	source := `[nzsl_version("1.0")]
module;

struct Data {
	color: vec4[f32]
}

[auto_binding]
external {
	[set(0), binding(0)] data: uniform[Data],
	[binding(1)] tex: sampler2D[f32]
}
`
	mod := parseSource(t, source)
	if len(mod.Externals) != 1 {
		t.Fatalf("expected 1 external block, got %d", len(mod.Externals))
	}
	block := mod.Externals[0]
	if block.AutoBinding != ast.AutoBindingOn {
		t.Errorf("expected auto_binding on, got %v", block.AutoBinding)
	}
	if len(block.Bindings) != 2 {
		t.Fatalf("expected 2 bindings, got %d", len(block.Bindings))
	}
	data := block.Bindings[0]
	if data.Name != "data" {
		t.Errorf("expected first binding 'data', got %q", data.Name)
	}
	if data.Set == nil || *data.Set != 0 {
		t.Errorf("expected set 0, got %v", data.Set)
	}
	if data.Binding == nil || *data.Binding != 0 {
		t.Errorf("expected binding 0, got %v", data.Binding)
	}
	if data.Type.Kind != ast.KindUniform {
		t.Errorf("expected uniform type, got %v", data.Type.Kind)
	}
}

func TestParseForLoopDesugars(t *testing.T) {
	source := `[nzsl_version("1.0")]
module;

fn sum() -> i32 {
	var total: i32 = 0;
	for i in 0 -> 4 {
		total += i;
	}
	return total;
}
`
	mod := parseSource(t, source)
	fn := mod.Functions[0]
	if len(fn.Body) != 3 {
		t.Fatalf("expected 3 top-level statements, got %d", len(fn.Body))
	}
	scoped, ok := fn.Body[1].(*ast.Scoped)
	if !ok {
		t.Fatalf("expected for loop to desugar into a Scoped block, got %T", fn.Body[1])
	}
	if len(scoped.Body) != 2 {
		t.Fatalf("expected 2 statements inside the scoped block, got %d", len(scoped.Body))
	}
	decl, ok := scoped.Body[0].(*ast.DeclareVariable)
	if !ok {
		t.Fatalf("expected init DeclareVariable, got %T", scoped.Body[0])
	}
	if decl.Name != "i" || !decl.Mutable {
		t.Errorf("expected mutable loop counter 'i', got %+v", decl)
	}
	loop, ok := scoped.Body[1].(*ast.While)
	if !ok {
		t.Fatalf("expected desugared While, got %T", scoped.Body[1])
	}
	if len(loop.Body) != 2 {
		t.Fatalf("expected loop body + increment, got %d statements", len(loop.Body))
	}
}

func TestParseBinaryPrecedence(t *testing.T) {
	source := `[nzsl_version("1.0")]
module;

fn f() -> i32 {
	return 1 + 2 * 3;
}
`
	mod := parseSource(t, source)
	ret := mod.Functions[0].Body[0].(*ast.Return)
	add, ok := ret.Value.(*ast.Binary)
	if !ok || add.Op != ast.BinAdd {
		t.Fatalf("expected top-level Add, got %#v", ret.Value)
	}
	mul, ok := add.Right.(*ast.Binary)
	if !ok || mul.Op != ast.BinMultiply {
		t.Fatalf("expected multiplication nested on the right, got %#v", add.Right)
	}
}

func TestParseMemberAccessChain(t *testing.T) {
	source := `[nzsl_version("1.0")]
module;

fn f(v: vec3[f32]) -> f32 {
	return v.xyz.x;
}
`
	mod := parseSource(t, source)
	ret := mod.Functions[0].Body[0].(*ast.Return)
	chain, ok := ret.Value.(*ast.AccessIdentifier)
	if !ok {
		t.Fatalf("expected AccessIdentifier, got %#v", ret.Value)
	}
	if chain.Base != nil {
		t.Fatalf("expected a flat chain with nil Base, got %#v", chain.Base)
	}
	want := []string{"v", "xyz", "x"}
	if len(chain.Identifiers) != len(want) {
		t.Fatalf("expected %v, got %v", want, chain.Identifiers)
	}
	for i, w := range want {
		if chain.Identifiers[i] != w {
			t.Errorf("identifier %d: expected %q, got %q", i, w, chain.Identifiers[i])
		}
	}
}

func TestParseConstructorCallIsPlainCall(t *testing.T) {
	source := `[nzsl_version("1.0")]
module;

fn f() -> vec3[f32] {
	return vec3[f32](1.0, 2.0, 3.0);
}
`
	mod := parseSource(t, source)
	ret := mod.Functions[0].Body[0].(*ast.Return)
	call, ok := ret.Value.(*ast.CallFunction)
	if !ok {
		t.Fatalf("expected CallFunction, got %#v", ret.Value)
	}
	if len(call.Args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(call.Args))
	}
}

func TestParseImport(t *testing.T) {
	source := `[nzsl_version("1.0")]
module;

import "common/lighting" as lighting;
`
	mod := parseSource(t, source)
	if len(mod.Body) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(mod.Body))
	}
	imp, ok := mod.Body[0].(*ast.Import)
	if !ok {
		t.Fatalf("expected Import, got %T", mod.Body[0])
	}
	if imp.ModuleName != "common/lighting" || imp.Alias != "lighting" {
		t.Errorf("unexpected import fields: %+v", imp)
	}
}

func TestParseMissingSemicolonErrors(t *testing.T) {
	source := `[nzsl_version("1.0")]
module;

fn f() -> i32 {
	return 1
}
`
	if _, err := tryParseSource(source); err == nil {
		t.Fatal("expected a parse error for the missing semicolon")
	}
}

func TestParseAliasAndConst(t *testing.T) {
	source := `[nzsl_version("1.0")]
module;

alias Scalar = f32;
const PI: Scalar = 3.14159;
`
	mod := parseSource(t, source)
	if len(mod.Aliases) != 1 || mod.Aliases[0].Name != "Scalar" {
		t.Fatalf("expected alias Scalar, got %+v", mod.Aliases)
	}
	// Body holds the DeclareAlias marker followed by the const.
	if len(mod.Body) != 2 {
		t.Fatalf("expected 2 body statements, got %d", len(mod.Body))
	}
	c, ok := mod.Body[1].(*ast.DeclareConst)
	if !ok {
		t.Fatalf("expected DeclareConst, got %T", mod.Body[1])
	}
	if c.Name != "PI" {
		t.Errorf("expected const name PI, got %q", c.Name)
	}
}
