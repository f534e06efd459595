// Package glsl generates GLSL source from a sanitized *ast.Module.
//
// Unlike the SPIR-V backend, GLSL expressions and lvalues share
// identical surface syntax, so this package emits source text directly
// by recursing over the expression tree rather than building an
// intermediate graph of typed pointers.
//
// # Basic Usage
//
//	source, info, err := glsl.Compile(module, glsl.Options{
//	    LangVersion: glsl.Version330,
//	})
//
// module must have passed through sanitize.Sanitize; the writer relies
// on resolved types and entry-point legalization having already hoisted
// stage I/O into Module.Globals.
//
// # Supported Versions
//
//   - GLSL ES 3.00: WebGL 2.0, Mobile OpenGL ES 3.0
//   - GLSL 3.30 Core: Desktop OpenGL 3.3+
//   - GLSL ES 3.10: Android 5.0+ with compute shaders
//   - GLSL 4.30 Core: Desktop OpenGL 4.3+ with compute shaders
//
// # Samplers
//
// SL has no separate texture/sampler-state split: a Sampler type already
// names the single combined resource GLSL expects, so no texture-sampler
// pairing pass is needed.
//
// # Reserved Words
//
// GLSL has over 500 reserved words (including future reserved).
// Conflicting identifier names are escaped by prefixing an underscore.
package glsl
