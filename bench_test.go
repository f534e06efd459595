package slc

import (
	"runtime"
	"testing"

	"github.com/shadelang/slc/glsl"
	"github.com/shadelang/slc/slwriter"
	"github.com/shadelang/slc/spirv"
)

// ---------------------------------------------------------------------------
// Test shader sources - realistic SL shaders at different complexity levels
// ---------------------------------------------------------------------------

// shaderSmallVertex is a minimal vertex shader.
const shaderSmallVertex = `[nzsl_version("1.0")]
module;

[entry(vert)]
fn vs_main([builtin(vertex_index)] idx: u32) -> [builtin(position)] vec4[f32] {
	return vec4[f32](0.0, 0.0, 0.0, 1.0);
}
`

// shaderSmallFragment is a minimal fragment shader.
const shaderSmallFragment = `[nzsl_version("1.0")]
module;

[entry(frag)]
fn fs_main() -> [location(0)] vec4[f32] {
	return vec4[f32](1.0, 0.0, 0.0, 1.0);
}
`

// shaderMediumCompute is a medium-complexity compute shader with math
// operations and control flow.
const shaderMediumCompute = `[nzsl_version("1.0")]
module;

[entry(compute)]
[workgroup(64, 1, 1)]
fn cs_main([builtin(global_invocation_id)] gid: vec3[u32]) {
	let x = f32(gid.x);
	let y = f32(gid.y);

	let dist = sqrt(x * x + y * y);

	var result: f32 = 0.0;
	if dist < 100.0 {
		result = dist;
	} else {
		result = clamp(dist, 0.0, 1.0);
	}
}
`

// shaderLargeFragment is a larger PBR-like fragment shader with a uniform
// block, multiple locals, and intrinsic calls.
const shaderLargeFragment = `[nzsl_version("1.0")]
module;

struct Camera {
	viewProj: mat4[f32]
}

[auto_binding]
external {
	[set(0), binding(0)] camera: uniform[Camera]
}

[entry(frag)]
fn fs_main([location(0)] normal: vec3[f32], [location(1)] worldPos: vec3[f32]) -> [location(0)] vec4[f32] {
	let n = normalize(normal);
	let lightPos = vec3[f32](10.0, 10.0, 10.0);
	let l = normalize(lightPos - worldPos);
	let ndotl = max(dot(n, l), 0.0);
	let diffuse = vec3[f32](1.0, 1.0, 1.0) * ndotl;
	let ambient = vec3[f32](0.05, 0.05, 0.05);
	let final = ambient + diffuse;
	return vec4[f32](final.x, final.y, final.z, 1.0);
}
`

// shaderTrianglePipeline is a complete vertex+fragment pipeline.
const shaderTrianglePipeline = `[nzsl_version("1.0")]
module;

struct VertexOutput {
	position: vec4[f32],
	color: vec4[f32]
}

[entry(vert)]
fn vs_main([location(0)] pos: vec3[f32]) -> VertexOutput {
	var out: VertexOutput;
	out.position = vec4[f32](pos.x, pos.y, pos.z, 1.0);
	out.color = vec4[f32](1.0, 0.0, 0.0, 1.0);
	return out;
}
`

type shaderCase struct {
	name   string
	source string
}

var shadersByComplexity = []shaderCase{
	{"small_vertex", shaderSmallVertex},
	{"small_fragment", shaderSmallFragment},
	{"medium_compute", shaderMediumCompute},
	{"large_pbr", shaderLargeFragment},
	{"triangle_pipeline", shaderTrianglePipeline},
}

// ---------------------------------------------------------------------------
// End-to-end: SL-to-SPIR-V compilation benchmarks by complexity
// ---------------------------------------------------------------------------

// BenchmarkCompileSPIRV benchmarks full SL-to-SPIR-V compilation grouped by
// shader complexity.
func BenchmarkCompileSPIRV(b *testing.B) {
	for _, sc := range shadersByComplexity {
		b.Run(sc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(sc.source)))
			b.ResetTimer()

			var result []byte
			for i := 0; i < b.N; i++ {
				var err error
				result, err = CompileWithOptions(sc.name, sc.source, CompileOptions{SPIRVVersion: spirv.Version1_3})
				if err != nil {
					b.Fatalf("compile failed: %v", err)
				}
			}
			runtime.KeepAlive(result)
		})
	}
}

// BenchmarkCompileSPIRVWithDebug measures the overhead of emitting debug
// info (OpName, ...) during SPIR-V generation.
func BenchmarkCompileSPIRVWithDebug(b *testing.B) {
	source := shaderTrianglePipeline
	b.ReportAllocs()
	b.SetBytes(int64(len(source)))
	b.ResetTimer()

	var result []byte
	for i := 0; i < b.N; i++ {
		var err error
		result, err = CompileWithOptions("bench_debug", source, CompileOptions{SPIRVVersion: spirv.Version1_3, Debug: true})
		if err != nil {
			b.Fatalf("compile failed: %v", err)
		}
	}
	runtime.KeepAlive(result)
}

// ---------------------------------------------------------------------------
// Cross-backend comparison: the same shader compiled to all three targets
// ---------------------------------------------------------------------------

// BenchmarkCompileAllBackends compares SPIR-V, GLSL, and SL re-serialization
// starting from the same sanitized module.
func BenchmarkCompileAllBackends(b *testing.B) {
	source := shaderTrianglePipeline

	module, err := Sanitize("bench_backends", source, nil, false)
	if err != nil {
		b.Fatalf("sanitize failed: %v", err)
	}

	b.Run("SPIRV", func(b *testing.B) {
		b.ReportAllocs()
		b.SetBytes(int64(len(source)))
		b.ResetTimer()

		var result []byte
		for i := 0; i < b.N; i++ {
			var genErr error
			result, genErr = GenerateSPIRV(module, spirv.DefaultOptions())
			if genErr != nil {
				b.Fatalf("spirv generate failed: %v", genErr)
			}
		}
		runtime.KeepAlive(result)
	})

	b.Run("GLSL", func(b *testing.B) {
		b.ReportAllocs()
		b.SetBytes(int64(len(source)))
		b.ResetTimer()

		var result string
		for i := 0; i < b.N; i++ {
			var genErr error
			result, _, genErr = GenerateGLSL(module, glsl.DefaultOptions())
			if genErr != nil {
				b.Fatalf("glsl generate failed: %v", genErr)
			}
		}
		runtime.KeepAlive(result)
	})

	b.Run("SL", func(b *testing.B) {
		b.ReportAllocs()
		b.SetBytes(int64(len(source)))
		b.ResetTimer()

		var result string
		for i := 0; i < b.N; i++ {
			var genErr error
			result, genErr = GenerateSL(module, slwriter.Options{})
			if genErr != nil {
				b.Fatalf("sl re-serialization failed: %v", genErr)
			}
		}
		runtime.KeepAlive(result)
	})
}

// ---------------------------------------------------------------------------
// Individual pipeline stage benchmarks
// ---------------------------------------------------------------------------

// BenchmarkParse benchmarks SL parsing (tokenization + AST construction)
// for shaders of different complexity.
func BenchmarkParse(b *testing.B) {
	for _, sc := range shadersByComplexity {
		b.Run(sc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(sc.source)))
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				module, err := Parse(sc.name, sc.source)
				if err != nil {
					b.Fatalf("parse failed: %v", err)
				}
				runtime.KeepAlive(module)
			}
		})
	}
}

// BenchmarkSanitize benchmarks import resolution, type checking, and
// binding assignment for shaders of different complexity.
func BenchmarkSanitize(b *testing.B) {
	for _, sc := range shadersByComplexity {
		b.Run(sc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(sc.source)))
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				module, err := Sanitize(sc.name, sc.source, nil, false)
				if err != nil {
					b.Fatalf("sanitize failed: %v", err)
				}
				runtime.KeepAlive(module)
			}
		})
	}
}

// BenchmarkGenerateSPIRV benchmarks only the SPIR-V code generation stage
// (sanitized module to binary) for shaders of different complexity.
func BenchmarkGenerateSPIRV(b *testing.B) {
	for _, sc := range shadersByComplexity {
		module, err := Sanitize(sc.name, sc.source, nil, false)
		if err != nil {
			b.Fatalf("sanitize failed: %v", err)
		}

		b.Run(sc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(sc.source)))
			b.ResetTimer()

			var result []byte
			for i := 0; i < b.N; i++ {
				var genErr error
				result, genErr = GenerateSPIRV(module, spirv.DefaultOptions())
				if genErr != nil {
					b.Fatalf("spirv generate failed: %v", genErr)
				}
			}
			runtime.KeepAlive(result)
		})
	}
}
