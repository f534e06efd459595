// Package ast defines the typed intermediate representation for SL
// (the shading language accepted by slc).
//
// The IR is a tagged-variant abstract syntax tree: every expression and
// statement carries a type tag selecting one of a fixed set of node
// kinds, plus an optional resolved type and source span. A raw tree
// produced by package parser has every optional type unset; the
// sanitizer (package sanitize) resolves identifiers, infers and checks
// types, folds constants, and legalizes entry points, producing a new
// tree in which every expression carries Some(Type).
//
// Two double-dispatch visitor capability sets — ExpressionVisitor and
// StatementVisitor — give every compiler stage (sanitizer sub-pass, GLSL
// writer, SPIR-V back end, SL writer) a uniform way to walk the tree
// without type-switching by hand. Traverser and Rewriter are the two
// concrete bases: Traverser visits every child with no transformation,
// Rewriter returns a (possibly new) node per visit. A sub-pass is
// expressed by embedding one of these bases and overriding the handful
// of variants it cares about.
package ast
