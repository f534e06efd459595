package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadelang/slc/ast"
)

// buildConstModule builds `const N: i32 = 2 + 3;` at module scope plus
// a function `fn add() -> i32 { return N; }`.
func buildConstModule() *ast.Module {
	m := ast.NewModule("t")
	two := &ast.ConstantValue{Value: ast.LitI32(2)}
	three := &ast.ConstantValue{Value: ast.LitI32(3)}
	sum := &ast.Binary{Op: ast.BinAdd, Left: two, Right: three}
	m.Body = append(m.Body, &ast.DeclareConst{Name: "N", Value: sum})

	ref := &ast.AccessIdentifier{Identifiers: []string{"N"}}
	i32 := ast.Primitive(ast.I32)
	m.Functions = append(m.Functions, ast.FunctionDesc{
		Name:   "add",
		Result: &ast.Result{Type: i32},
		Body:   []ast.Statement{&ast.Return{Value: ref}},
	})
	return m
}

func TestSanitizeFoldsConstAndResolvesReference(t *testing.T) {
	m := buildConstModule()
	out, err := Sanitize(m, nil, Options{})
	require.NoError(t, err)
	require.True(t, out.Sanitized, "module not marked Sanitized")

	ret := out.Functions[0].Body[0].(*ast.Return)
	cv, ok := ret.Value.(*ast.ConstantValue)
	require.True(t, ok, "return value = %T, want *ast.ConstantValue", ret.Value)
	assert.Equal(t, ast.LitI32(5), cv.Value)
}

func TestSanitizeAssignsAutoBinding(t *testing.T) {
	m := ast.NewModule("t")
	m.Structs = append(m.Structs, ast.StructDesc{
		Name:    "Camera",
		Members: []ast.StructMember{{Name: "viewProj", Type: ast.Matrix(4, 4, ast.F32)}},
	})
	m.Externals = append(m.Externals, ast.ExternalBlock{
		AutoBinding: ast.AutoBindingOn,
		Bindings: []ast.ExternalBinding{
			{Name: "camera", Type: ast.Uniform(0)},
		},
	})

	out, err := Sanitize(m, nil, Options{})
	require.NoError(t, err)

	eb := out.Externals[0].Bindings[0]
	require.NotNil(t, eb.Set)
	assert.EqualValues(t, 0, *eb.Set)
	require.NotNil(t, eb.Binding)
	assert.EqualValues(t, 0, *eb.Binding)
	assert.EqualValues(t, 64, out.Structs[0].Size, "Camera size should be 64 (mat4 std140)")
}

func TestSanitizePartialLeavesBindingUnresolved(t *testing.T) {
	m := ast.NewModule("t")
	m.Structs = append(m.Structs, ast.StructDesc{
		Name:    "Params",
		Members: []ast.StructMember{{Name: "scale", Type: ast.Primitive(ast.F32)}},
	})
	m.Externals = append(m.Externals, ast.ExternalBlock{
		Bindings: []ast.ExternalBinding{{Name: "params", Type: ast.Uniform(0)}},
	})

	out, err := Sanitize(m, nil, Options{PartialSanitization: true})
	require.NoError(t, err)

	eb := out.Externals[0].Bindings[0]
	require.NotNil(t, eb.Set, "set should default to 0 even under partial sanitization")
	assert.EqualValues(t, 0, *eb.Set)
	assert.Nil(t, eb.Binding, "binding should stay unresolved under partial sanitization without force")
}
