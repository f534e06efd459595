package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/shadelang/slc/ast"
	"github.com/shadelang/slc/glsl"
	"github.com/shadelang/slc/parser"
	"github.com/shadelang/slc/resolver"
	"github.com/shadelang/slc/sanitize"
	"github.com/shadelang/slc/slwriter"
	"github.com/shadelang/slc/spirv"
)

var buildCmd = &cobra.Command{
	Use:   "build <input.sl>",
	Short: "compile an SL shader to SL, GLSL, or SPIR-V",
	Args:  cobra.ExactArgs(1),
	RunE:  runBuild,
}

func init() {
	flags := buildCmd.Flags()
	flags.StringP("target", "t", "spirv", "output target: sl, glsl, or spirv")
	flags.String("spv-version", "1.3", "SPIR-V version (1.0, 1.3, 1.4, 1.5, 1.6), used when --target=spirv")
	flags.String("gl-version", "330", "GLSL version (e.g. 330, 450, es300), used when --target=glsl")
	flags.Bool("partial", false, "allow partial sanitization: unresolved externals keep set(0) and drop binding instead of failing")
	flags.StringArray("include-path", nil, "search directory for imported modules, may be repeated")
	flags.StringToString("binding-map", nil, `pin an external binding before auto_binding resolution, as name=set.binding or name=binding`)
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.Bool("verbose", false, "enable debug logging")
}

func runBuild(cmd *cobra.Command, args []string) error {
	if GetBool(cmd, "verbose") {
		log.SetLevel(log.DebugLevel)
	}

	inputPath := args[0]
	source, err := os.ReadFile(inputPath)
	if err != nil {
		return errors.Wrapf(err, "reading %s", inputPath)
	}

	moduleName := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	module, err := parser.Parse(moduleName, string(source))
	if err != nil {
		return errors.Wrap(err, "parse")
	}
	log.WithFields(log.Fields{"module": moduleName, "structs": len(module.Structs), "functions": len(module.Functions)}).Debug("slc: parsed")

	target := GetString(cmd, "target")
	partial := GetBool(cmd, "partial")
	includePaths := GetStringArray(cmd, "include-path")
	bindingMap := GetStringToString(cmd, "binding-map")

	if err := applyBindingMap(module, bindingMap); err != nil {
		return err
	}

	res := resolver.NewFileResolver(includePaths, parser.Parse)
	module, err = sanitize.Sanitize(module, res, sanitize.Options{
		PartialSanitization:     partial,
		ForceAutoBindingResolve: !partial,
	})
	if err != nil {
		return errors.Wrap(err, "sanitize")
	}
	log.Debug("slc: sanitized")

	output, err := generate(module, cmd, target)
	if err != nil {
		return err
	}

	outputPath := GetString(cmd, "output")
	if outputPath == "" {
		_, err = os.Stdout.Write(output)
		return err
	}
	if err := os.WriteFile(outputPath, output, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", outputPath)
	}
	log.WithFields(log.Fields{"input": inputPath, "output": outputPath, "bytes": len(output)}).Info("slc: compiled")
	return nil
}

func generate(module *ast.Module, cmd *cobra.Command, target string) ([]byte, error) {
	switch target {
	case "sl":
		text, err := slwriter.Write(module, slwriter.Options{})
		if err != nil {
			return nil, errors.Wrap(err, "sl re-serialization")
		}
		return []byte(text), nil
	case "glsl":
		version, err := parseGLVersion(GetString(cmd, "gl-version"))
		if err != nil {
			return nil, err
		}
		opts := glsl.DefaultOptions()
		opts.LangVersion = version
		text, info, err := glsl.Compile(module, opts)
		if err != nil {
			return nil, errors.Wrap(err, "glsl compile")
		}
		log.WithField("extensions", info.UsedExtensions).Debug("slc: glsl compiled")
		return []byte(text), nil
	case "spirv":
		version, err := parseSPIRVVersion(GetString(cmd, "spv-version"))
		if err != nil {
			return nil, err
		}
		opts := spirv.DefaultOptions()
		opts.Version = version
		bytes, err := spirv.NewBackend(opts).Compile(module)
		if err != nil {
			return nil, errors.Wrap(err, "spirv compile")
		}
		return bytes, nil
	default:
		return nil, fmt.Errorf("unknown --target %q: want sl, glsl, or spirv", target)
	}
}

// applyBindingMap pins external bindings named on the command line before
// sanitize's auto_binding pass runs, so those names keep the requested
// set/binding instead of whatever auto_binding would otherwise assign.
// Entries look like "name=set.binding" or "name=binding".
func applyBindingMap(module *ast.Module, bindingMap map[string]string) error {
	for name, spec := range bindingMap {
		set, binding, err := parseBindingSpec(spec)
		if err != nil {
			return errors.Wrapf(err, "--binding-map %s=%s", name, spec)
		}
		found := false
		for bi := range module.Externals {
			block := &module.Externals[bi]
			for i := range block.Bindings {
				eb := &block.Bindings[i]
				if eb.Name != name {
					continue
				}
				if set != nil {
					eb.Set = set
				}
				eb.Binding = &binding
				found = true
			}
		}
		if !found {
			return fmt.Errorf("--binding-map: no external named %q in %s", name, module.Name)
		}
	}
	return nil
}

func parseBindingSpec(spec string) (set *uint32, binding uint32, err error) {
	parts := strings.Split(spec, ".")
	switch len(parts) {
	case 1:
		b, err := strconv.ParseUint(parts[0], 10, 32)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid binding %q", parts[0])
		}
		return nil, uint32(b), nil
	case 2:
		s, err := strconv.ParseUint(parts[0], 10, 32)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid set %q", parts[0])
		}
		b, err := strconv.ParseUint(parts[1], 10, 32)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid binding %q", parts[1])
		}
		sv := uint32(s)
		return &sv, uint32(b), nil
	default:
		return nil, 0, fmt.Errorf("want set.binding or binding, got %q", spec)
	}
}
