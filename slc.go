// Package slc provides a Pure Go compiler for the SL shading language.
//
// slc compiles SL source code to one of three output targets:
//   - SPIR-V — binary format for Vulkan
//   - GLSL — OpenGL Shading Language for OpenGL 3.3+, ES 3.0+
//   - SL — re-serialized source, e.g. after import resolution
//
// The package provides a simple, high-level API for shader compilation as
// well as lower-level access to individual compilation stages.
//
// Example usage (SPIR-V):
//
//	source := `
//	[nzsl_version("1.0")]
//	module;
//
//	[entry(vert)]
//	fn main() -> [builtin(position)] vec4[f32] {
//	    return vec4[f32](0.0, 0.0, 0.0, 1.0);
//	}
//	`
//	bytes, err := slc.Compile("main", source)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// For GLSL output, sanitize the module and use the glsl package directly:
//
//	module, _ := slc.Sanitize("main", source, nil, false)
//	glslCode, info, err := glsl.Compile(module, glsl.DefaultOptions())
package slc

import (
	"github.com/pkg/errors"

	"github.com/shadelang/slc/ast"
	"github.com/shadelang/slc/glsl"
	"github.com/shadelang/slc/parser"
	"github.com/shadelang/slc/resolver"
	"github.com/shadelang/slc/sanitize"
	"github.com/shadelang/slc/slwriter"
	"github.com/shadelang/slc/spirv"
)

// CompileOptions configures shader compilation.
type CompileOptions struct {
	// SPIRVVersion is the target SPIR-V version (default: 1.3)
	SPIRVVersion spirv.Version

	// Debug includes debug information (OpName, ...) in the output.
	Debug bool

	// Partial allows sanitization to succeed with unresolved bindings
	// instead of raising ErrUnresolvedBinding.
	Partial bool

	// SearchPaths are directories searched, in order, for imported modules.
	SearchPaths []string
}

// DefaultOptions returns sensible default options.
func DefaultOptions() CompileOptions {
	return CompileOptions{
		SPIRVVersion: spirv.Version1_3,
	}
}

// Compile compiles SL source code to SPIR-V binary using default options.
//
// This is the simplest way to compile a shader. For more control, use
// CompileWithOptions or the individual Parse/Sanitize/Generate* functions.
func Compile(name, source string) ([]byte, error) {
	return CompileWithOptions(name, source, DefaultOptions())
}

// CompileWithOptions compiles SL source code to SPIR-V binary with custom
// options.
//
// The compilation pipeline is:
//  1. Parse SL source to an AST
//  2. Sanitize the AST (resolve imports, types, bindings)
//  3. Generate SPIR-V binary
func CompileWithOptions(name, source string, opts CompileOptions) ([]byte, error) {
	module, err := Sanitize(name, source, opts.SearchPaths, opts.Partial)
	if err != nil {
		return nil, err
	}
	spirvOpts := spirv.Options{
		Version: opts.SPIRVVersion,
		Debug:   opts.Debug,
	}
	return GenerateSPIRV(module, spirvOpts)
}

// Parse parses SL source code to an AST (Abstract Syntax Tree).
//
// This is the first stage of compilation. The AST represents the syntactic
// structure of the shader but has not been sanitized: imports are
// unresolved and bindings may be absent.
func Parse(name, source string) (*ast.Module, error) {
	return parser.Parse(name, source)
}

// Sanitize parses source and runs semantic analysis: import resolution
// against searchPaths, type checking, and binding assignment.
//
// When partial is true, unresolved bindings are left nil instead of
// raising an error, matching sanitize.Options.PartialSanitization.
func Sanitize(name, source string, searchPaths []string, partial bool) (*ast.Module, error) {
	module, err := Parse(name, source)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}
	res := resolver.NewFileResolver(searchPaths, parser.Parse)
	module, err = sanitize.Sanitize(module, res, sanitize.Options{
		PartialSanitization:     partial,
		ForceAutoBindingResolve: !partial,
	})
	if err != nil {
		return nil, errors.Wrap(err, "sanitize")
	}
	return module, nil
}

// GenerateSPIRV generates a binary SPIR-V module from a sanitized module.
//
// This is the final stage of the SPIR-V pipeline. The output is a binary
// blob that can be directly consumed by Vulkan or other SPIR-V consumers.
func GenerateSPIRV(module *ast.Module, opts spirv.Options) ([]byte, error) {
	bytes, err := spirv.NewBackend(opts).Compile(module)
	if err != nil {
		return nil, errors.Wrap(err, "spirv generation")
	}
	return bytes, nil
}

// GenerateGLSL generates GLSL source from a sanitized module.
func GenerateGLSL(module *ast.Module, opts glsl.Options) (string, glsl.TranslationInfo, error) {
	return glsl.Compile(module, opts)
}

// GenerateSL re-serializes a module back to SL source text.
func GenerateSL(module *ast.Module, opts slwriter.Options) (string, error) {
	return slwriter.Write(module, opts)
}
