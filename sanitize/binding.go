package sanitize

import "github.com/shadelang/slc/ast"

// assignBindings assigns binding indices: each external binding
// other than a push_constant gets set(0) attached when it has no set,
// and the non-push_constant bindings get a
// sequential binding index assigned when the block's auto_binding
// policy resolves to "on" — either explicitly, or (AutoBindingUnset)
// because the caller forced resolution via Options.ForceAutoBindingResolve.
// Under PartialSanitization without a forced resolve, an unset policy
// leaves Binding nil rather than raising UnresolvedBinding.
func assignBindings(st *state) error {
	var next uint32
	for bi := range st.module.Externals {
		block := &st.module.Externals[bi]
		resolve := shouldResolve(block.AutoBinding, st.opts)

		for i := range block.Bindings {
			eb := &block.Bindings[i]
			if eb.Type.Kind == ast.KindPushConstant {
				continue // push constants take neither a set nor a binding
			}
			if eb.Set == nil {
				zero := uint32(0)
				eb.Set = &zero
			}
			if eb.Binding != nil {
				if eb.Binding != nil && *eb.Binding >= next {
					next = *eb.Binding + 1
				}
				continue
			}
			if !resolve {
				if !st.opts.PartialSanitization {
					return ast.NewError(ast.ErrUnresolvedBinding, eb.Span, "external "+eb.Name+" has no binding and auto_binding is not enabled")
				}
				continue
			}
			b := next
			eb.Binding = &b
			next++
		}
	}
	return nil
}

func shouldResolve(policy ast.AutoBinding, opts Options) bool {
	switch policy {
	case ast.AutoBindingOn:
		return true
	case ast.AutoBindingOff:
		return false
	default: // AutoBindingUnset
		return opts.ForceAutoBindingResolve
	}
}
