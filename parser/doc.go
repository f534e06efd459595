// Package parser turns SL source text into a raw, unresolved
// *ast.Module: a lexer (token.go, lexer.go) followed by a recursive-
// descent parser (parser.go) that builds ast.Module's tables directly,
// leaving every symbol reference as an unresolved ast.AccessIdentifier
// or bare type name for package sanitize to resolve.
package parser
