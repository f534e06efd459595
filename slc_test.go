package slc

import (
	"testing"

	"github.com/shadelang/slc/spirv"
)

func spirvMagic(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func TestCompileSimpleVertexShader(t *testing.T) {
	source := `[nzsl_version("1.0")]
module;

[entry(vert)]
fn main() -> [builtin(position)] vec4[f32] {
	return vec4[f32](0.0, 0.0, 0.0, 1.0);
}
`
	bytes, err := Compile("vs", source)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(bytes) < 20 {
		t.Fatal("output too short for a SPIR-V header")
	}
	if magic := spirvMagic(bytes); magic != 0x07230203 {
		t.Errorf("invalid SPIR-V magic: got 0x%08x, want 0x07230203", magic)
	}
}

func TestCompileFragmentShader(t *testing.T) {
	source := `[nzsl_version("1.0")]
module;

[entry(frag)]
fn main([location(0)] color: vec4[f32]) -> [location(0)] vec4[f32] {
	return color;
}
`
	bytes, err := Compile("fs", source)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if magic := spirvMagic(bytes); magic != 0x07230203 {
		t.Errorf("invalid SPIR-V magic: got 0x%08x, want 0x07230203", magic)
	}
}

func TestCompileWithMathFunctions(t *testing.T) {
	source := `[nzsl_version("1.0")]
module;

[entry(frag)]
fn main([location(0)] v: vec3[f32]) -> [location(0)] vec4[f32] {
	let n = normalize(v);
	let len = length(v);
	return vec4[f32](n, len);
}
`
	bytes, err := Compile("fs_math", source)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(bytes) < 20 {
		t.Fatal("output too short")
	}
}

func TestCompileComputeShader(t *testing.T) {
	source := `[nzsl_version("1.0")]
module;

[entry(compute)]
[workgroup(64, 1, 1)]
fn main([builtin(global_invocation_id)] id: vec3[u32]) {
	let doubled = id.x * 2u32;
}
`
	bytes, err := Compile("cs", source)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if magic := spirvMagic(bytes); magic != 0x07230203 {
		t.Errorf("invalid SPIR-V magic: got 0x%08x, want 0x07230203", magic)
	}
}

func TestCompileWithOptionsDebug(t *testing.T) {
	source := `[nzsl_version("1.0")]
module;

[entry(vert)]
fn main() -> [builtin(position)] vec4[f32] {
	return vec4[f32](0.0, 0.0, 0.0, 1.0);
}
`
	opts := DefaultOptions()
	opts.Debug = true
	bytes, err := CompileWithOptions("vs_debug", source, opts)
	if err != nil {
		t.Fatalf("CompileWithOptions failed: %v", err)
	}
	if len(bytes) < 20 {
		t.Fatal("output too short")
	}
}

func TestCompileInvalidShader(t *testing.T) {
	source := `[nzsl_version("1.0")]
module;

[entry(vert)]
fn main() -> [builtin(position)] vec4[f32] {
	return vec4[f32](0.0, 0.0);
}
`
	if _, err := Compile("invalid", source); err == nil {
		t.Fatal("expected a compile error for a wrong-arity constructor call")
	}
}

func TestParseSyntaxError(t *testing.T) {
	source := `[nzsl_version("1.0")]
module;

fn main( {
	return;
}
`
	if _, err := Parse("bad", source); err == nil {
		t.Fatal("expected a parse error for a malformed parameter list")
	}
}

func TestParseAndSanitizePipeline(t *testing.T) {
	source := `[nzsl_version("1.0")]
module;

[entry(vert)]
fn main() -> [builtin(position)] vec4[f32] {
	return vec4[f32](0.0, 0.0, 0.0, 1.0);
}
`
	module, err := Parse("pipeline", source)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(module.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(module.Functions))
	}
	if module.Sanitized {
		t.Fatal("a freshly parsed module must not be marked sanitized")
	}

	sanitized, err := Sanitize("pipeline", source, nil, false)
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	if !sanitized.Sanitized {
		t.Fatal("expected the sanitized module to be marked Sanitized")
	}
	if len(sanitized.Functions) != 1 {
		t.Errorf("expected 1 function after sanitization, got %d", len(sanitized.Functions))
	}
}

func TestIntegrationVertexFragmentPipeline(t *testing.T) {
	source := `[nzsl_version("1.0")]
module;

struct VertexOutput {
	position: vec4[f32],
	color: vec3[f32]
}

[entry(vert)]
fn vs_main([location(0)] pos: vec3[f32], [location(1)] col: vec3[f32]) -> VertexOutput {
	var out: VertexOutput;
	out.position = vec4[f32](pos.x, pos.y, pos.z, 1.0);
	out.color = col;
	return out;
}
`
	bytes, err := Compile("vf", source)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(bytes) < 20 {
		t.Fatal("SPIR-V binary too short")
	}
	if magic := spirvMagic(bytes); magic != 0x07230203 {
		t.Errorf("invalid SPIR-V magic: got 0x%08x, want 0x07230203", magic)
	}
}

func TestIntegrationWithUniforms(t *testing.T) {
	source := `[nzsl_version("1.0")]
module;

struct Camera {
	viewProj: mat4[f32]
}

[auto_binding]
external {
	[set(0), binding(0)] camera: uniform[Camera]
}

[entry(vert)]
fn main([location(0)] position: vec3[f32]) -> [builtin(position)] vec4[f32] {
	return vec4[f32](position.x, position.y, position.z, 1.0);
}
`
	bytes, err := Compile("uniforms", source)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if magic := spirvMagic(bytes); magic != 0x07230203 {
		t.Errorf("invalid SPIR-V magic: got 0x%08x, want 0x07230203", magic)
	}
}

func TestGenerateSPIRVStage(t *testing.T) {
	source := `[nzsl_version("1.0")]
module;

[entry(vert)]
fn main([location(0)] pos: vec3[f32]) -> [builtin(position)] vec4[f32] {
	return vec4[f32](pos.x, pos.y, pos.z, 1.0);
}
`
	module, err := Sanitize("stage", source, nil, false)
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	bytes, err := GenerateSPIRV(module, spirv.Options{Version: spirv.Version1_3})
	if err != nil {
		t.Fatalf("GenerateSPIRV failed: %v", err)
	}
	if len(bytes) < 20 {
		t.Fatal("SPIR-V output too short")
	}
}

func TestIntegrationErrorHandling(t *testing.T) {
	tests := []struct {
		name        string
		source      string
		expectError bool
	}{
		{
			name: "valid shader",
			source: `[nzsl_version("1.0")]
module;

[entry(vert)]
fn main() -> [builtin(position)] vec4[f32] {
	return vec4[f32](0.0, 0.0, 0.0, 1.0);
}
`,
			expectError: false,
		},
		{
			name: "syntax error - missing parenthesis",
			source: `[nzsl_version("1.0")]
module;

[entry(vert)]
fn main( -> [builtin(position)] vec4[f32] {
	return vec4[f32](0.0, 0.0, 0.0, 1.0);
}
`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.name, tt.source)
			if tt.expectError && err == nil {
				t.Error("expected error but got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("expected no error but got: %v", err)
			}
		})
	}
}
