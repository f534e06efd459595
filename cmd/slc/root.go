package main

import (
	"runtime/debug"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "slc",
	Short: "Compiler for the SL shading language",
	Long: `slc parses SL shader source, resolves imports and bindings, and
emits one of three targets: re-serialized SL, GLSL, or a binary
SPIR-V module.`,
	SilenceUsage: true,
}

func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "dev"
	}
	return info.Main.Version
}

func init() {
	rootCmd.AddCommand(buildCmd)
	rootCmd.Version = buildVersion()
}
