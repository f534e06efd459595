package sanitize

import "github.com/shadelang/slc/ast"

// layoutStructs assigns struct-member offsets: every struct wrapped by
// a Uniform or Storage external gets std140 or std430 offsets assigned
// to its members, per the struct's Layout attribute; structs nested as
// members of such a struct are laid out under the same rule. Structs
// not reachable from a Uniform or Storage external (plain value-type
// structs) are left with Layout == LayoutDefault and no offsets.
func layoutStructs(st *state) error {
	for bi := range st.module.Externals {
		block := &st.module.Externals[bi]
		for _, eb := range block.Bindings {
			switch eb.Type.Kind {
			case ast.KindUniform:
				if err := assignLayout(st, eb.Type.Struct, ast.LayoutStd140); err != nil {
					return err
				}
			case ast.KindStorage:
				if err := assignLayout(st, eb.Type.Struct, ast.LayoutStd430); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func assignLayout(st *state, h ast.StructHandle, layout ast.Layout) error {
	sd := &st.module.Structs[h]
	if sd.Layout == layout && sd.Size != 0 {
		return nil // already laid out (struct reused by multiple externals)
	}
	sd.Layout = layout

	var offset uint32
	for i := range sd.Members {
		m := &sd.Members[i]
		align, size, err := layoutOf(st, m.Type, layout)
		if err != nil {
			return err
		}
		if m.Type.Kind == ast.KindArray && m.Type.RuntimeSized && i != len(sd.Members)-1 {
			return ast.NewError(ast.ErrLayoutError, m.Span, "runtime-sized array "+m.Name+" must be the last struct member")
		}
		offset = alignUp(offset, align)
		off := offset
		m.Offset = &off
		offset += size
	}
	structAlign := uint32(16)
	if layout == ast.LayoutStd430 {
		structAlign = memberMaxAlign(st, sd, layout)
	}
	sd.Size = alignUp(offset, structAlign)
	return nil
}

func memberMaxAlign(st *state, sd *ast.StructDesc, layout ast.Layout) uint32 {
	var max uint32 = 4
	for _, m := range sd.Members {
		a, _, _ := layoutOf(st, m.Type, layout)
		if a > max {
			max = a
		}
	}
	return max
}

func alignUp(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	if r := offset % align; r != 0 {
		return offset + (align - r)
	}
	return offset
}

// layoutOf returns (alignment, size) for t under layout. std140 rounds
// vec3/vec4,
// arrays, and structs up to a 16-byte stride/alignment; std430 does
// not, using each element's own natural alignment instead.
func layoutOf(st *state, t ast.Type, layout ast.Layout) (align, size uint32, err error) {
	switch t.Kind {
	case ast.KindPrimitive:
		return 4, 4, nil
	case ast.KindVector:
		switch t.Rows {
		case 2:
			return 8, 8, nil
		case 3:
			return 16, 12, nil
		case 4:
			return 16, 16, nil
		}
		return 4, 4, nil
	case ast.KindMatrix:
		// Column-major: one column per Vector(Rows, Component), each
		// column padded to the array stride rule for its layout.
		col := ast.Vector(t.Rows, t.Component)
		colAlign, colSize, err := layoutOf(st, col, layout)
		if err != nil {
			return 0, 0, err
		}
		stride := alignUp(colSize, colAlign)
		if layout == ast.LayoutStd140 {
			stride = alignUp(colSize, 16)
			colAlign = 16
		}
		return colAlign, stride * uint32(t.Columns), nil
	case ast.KindArray:
		elemAlign, elemSize, err := layoutOf(st, *t.Elem, layout)
		if err != nil {
			return 0, 0, err
		}
		stride := alignUp(elemSize, elemAlign)
		if layout == ast.LayoutStd140 {
			stride = alignUp(elemSize, 16)
			elemAlign = 16
			if elemAlign < 16 {
				elemAlign = 16
			}
		}
		if t.RuntimeSized {
			return elemAlign, 0, nil
		}
		return elemAlign, stride * t.ArrayLen, nil
	case ast.KindStruct:
		sd := &st.module.Structs[t.Struct]
		if err := assignLayout(st, t.Struct, layout); err != nil {
			return 0, 0, err
		}
		align := uint32(16)
		if layout == ast.LayoutStd430 {
			align = memberMaxAlign(st, sd, layout)
		}
		return align, sd.Size, nil
	default:
		return 0, 0, ast.NewError(ast.ErrLayoutError, ast.Span{}, "type is not valid inside a laid-out struct")
	}
}

// validateRuntimeArrays checks that a runtime-sized
// array type may only appear as the last member of a struct wrapped by
// a Storage external; this pass re-checks every struct reachable from
// an external even when it was never laid out (e.g. a plain value
// struct mistakenly containing one).
func validateRuntimeArrays(st *state) error {
	storageStructs := make(map[ast.StructHandle]bool)
	for _, block := range st.module.Externals {
		for _, eb := range block.Bindings {
			if eb.Type.Kind == ast.KindStorage {
				storageStructs[eb.Type.Struct] = true
			}
		}
	}
	for h := range st.module.Structs {
		sd := &st.module.Structs[h]
		for i, m := range sd.Members {
			if m.Type.Kind != ast.KindArray || !m.Type.RuntimeSized {
				continue
			}
			if i != len(sd.Members)-1 {
				return ast.NewError(ast.ErrLayoutError, m.Span, "runtime-sized array must be the last struct member")
			}
			if !storageStructs[ast.StructHandle(h)] {
				return ast.NewError(ast.ErrLayoutError, m.Span, "runtime-sized array member requires a storage-buffer external")
			}
		}
	}
	return nil
}
