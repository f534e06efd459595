// Package slwriter re-serializes an *ast.Module back into SL source
// text.
//
// Unlike the glsl and spirv back ends, slwriter accepts both a raw
// (unresolved, straight from package parser) and a sanitized module: a
// raw module still carries AccessIdentifier/CallFunction nodes exactly
// as parsed, while a sanitized module carries VariableValue, Swizzle,
// Cast, and Function/Intrinsic call targets instead. writeExpr handles
// both shapes so the same writer serves round-trip tests at either
// pipeline stage (spec.md's parse∘serialize idempotence and
// sanitize(sanitize(M)) == sanitize(M) properties).
//
// # Basic Usage
//
//	source, err := slwriter.Write(module, slwriter.Options{})
package slwriter
