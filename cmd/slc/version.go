package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shadelang/slc/glsl"
	"github.com/shadelang/slc/spirv"
)

// parseSPIRVVersion accepts "1.0", "1.3", "1.4", "1.5" and "1.6".
func parseSPIRVVersion(s string) (spirv.Version, error) {
	switch s {
	case "1.0":
		return spirv.Version1_0, nil
	case "1.3":
		return spirv.Version1_3, nil
	case "1.4":
		return spirv.Version1_4, nil
	case "1.5":
		return spirv.Version1_5, nil
	case "1.6":
		return spirv.Version1_6, nil
	default:
		return spirv.Version{}, fmt.Errorf("unsupported --spv-version %q: want one of 1.0, 1.3, 1.4, 1.5, 1.6", s)
	}
}

// parseGLVersion accepts desktop forms ("330", "450") and ES forms
// ("es300", "es320").
func parseGLVersion(s string) (glsl.Version, error) {
	es := strings.HasPrefix(s, "es")
	digits := strings.TrimPrefix(s, "es")
	n, err := strconv.Atoi(digits)
	if err != nil || len(digits) < 3 {
		return glsl.Version{}, fmt.Errorf("unsupported --gl-version %q: want e.g. 330, 450, es300, es320", s)
	}
	major := uint8(n / 100)
	minor := uint8(n % 100)
	return glsl.Version{Major: major, Minor: minor, ES: es}, nil
}
