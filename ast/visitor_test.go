package ast

import "testing"

// countingVisitor counts how many Binary/VariableValue nodes it sees by
// embedding the default Traverser and overriding only two methods: the
// "override a subset, fall through to the default" visitor pattern.
type countingVisitor struct {
	Traverser
	binaries int
	vars     int
}

func newCountingVisitor() *countingVisitor {
	c := &countingVisitor{}
	c.Self = c
	return c
}

func (c *countingVisitor) VisitBinary(n *Binary) error {
	c.binaries++
	return c.Traverser.VisitBinary(n)
}

func (c *countingVisitor) VisitVariableValue(n *VariableValue) error {
	c.vars++
	return nil
}

func TestTraverserFallsThroughUnoverriddenVariants(t *testing.T) {
	// (a + b) * c
	a := &VariableValue{Index: 0}
	b := &VariableValue{Index: 1}
	c := &VariableValue{Index: 2}
	sum := &Binary{Op: BinAdd, Left: a, Right: b}
	mul := &Binary{Op: BinMultiply, Left: sum, Right: c}

	v := newCountingVisitor()
	if err := WalkExpr(v, mul); err != nil {
		t.Fatalf("walk: %v", err)
	}
	if v.binaries != 2 {
		t.Errorf("binaries = %d, want 2", v.binaries)
	}
	if v.vars != 3 {
		t.Errorf("vars = %d, want 3", v.vars)
	}
}

// foldingRewriter replaces every VariableValue with Index==0 by a
// ConstantValue, demonstrating the rewrite base's subtree-replacement
// capability.
type foldingRewriter struct {
	Rewriter
}

func newFoldingRewriter() *foldingRewriter {
	f := &foldingRewriter{}
	f.Self = f
	return f
}

func (f *foldingRewriter) RewriteVariableValue(n *VariableValue) (Expr, error) {
	if n.Index == 0 {
		return &ConstantValue{Value: LitI32(42)}, nil
	}
	return n, nil
}

func TestRewriterReplacesSubtree(t *testing.T) {
	left := &VariableValue{Index: 0}
	right := &VariableValue{Index: 1}
	add := &Binary{Op: BinAdd, Left: left, Right: right}

	r := newFoldingRewriter()
	got, err := RewriteExpr(r, add)
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	bin, ok := got.(*Binary)
	if !ok {
		t.Fatalf("got %T, want *Binary", got)
	}
	cv, ok := bin.Left.(*ConstantValue)
	if !ok {
		t.Fatalf("left = %T, want *ConstantValue", bin.Left)
	}
	if cv.Value != LitI32(42) {
		t.Errorf("folded value = %v, want 42", cv.Value)
	}
	if _, ok := bin.Right.(*VariableValue); !ok {
		t.Errorf("right should remain a VariableValue, got %T", bin.Right)
	}
}

func TestTypeEqual(t *testing.T) {
	v4f := Vector(4, F32)
	v4f2 := Vector(4, F32)
	v3f := Vector(3, F32)
	if !v4f.Equal(v4f2) {
		t.Error("identical vector types should be equal")
	}
	if v4f.Equal(v3f) {
		t.Error("vec4 and vec3 should not be equal")
	}

	arr1 := FixedArray(Primitive(F32), 47)
	arr2 := FixedArray(Primitive(F32), 47)
	arr3 := RuntimeArray(Primitive(F32))
	if !arr1.Equal(arr2) {
		t.Error("identical fixed arrays should be equal")
	}
	if arr1.Equal(arr3) {
		t.Error("fixed and runtime arrays should not be equal")
	}
}

func TestComponentCount(t *testing.T) {
	cases := []struct {
		t    Type
		want uint32
	}{
		{Primitive(F32), 1},
		{Vector(3, F32), 3},
		{Matrix(4, 4, F32), 16},
	}
	for _, c := range cases {
		if got := c.t.ComponentCount(); got != c.want {
			t.Errorf("ComponentCount(%+v) = %d, want %d", c.t, got, c.want)
		}
	}
}
