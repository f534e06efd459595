package slwriter

import (
	"fmt"

	"github.com/shadelang/slc/ast"
)

// Options configures SL re-serialization. The zero value is valid.
type Options struct {
	// LanguageVersion overrides the [nzsl_version(...)] header emitted.
	// Defaults to module.LanguageVersion, falling back to "1.0" if that
	// is empty too.
	LanguageVersion string
}

// Write re-serializes module into SL source text.
func Write(module *ast.Module, options Options) (string, error) {
	w := newWriter(module, options)
	if err := w.writeModule(); err != nil {
		return "", fmt.Errorf("slwriter: %w", err)
	}
	return w.out.String(), nil
}
