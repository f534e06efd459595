package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// GetString reads a string flag, exiting the process on the programmer
// error of a missing or mistyped flag definition.
func GetString(cmd *cobra.Command, flag string) string {
	v, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	return v
}

func GetBool(cmd *cobra.Command, flag string) bool {
	v, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	return v
}

func GetStringArray(cmd *cobra.Command, flag string) []string {
	v, err := cmd.Flags().GetStringArray(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	return v
}

func GetStringToString(cmd *cobra.Command, flag string) map[string]string {
	v, err := cmd.Flags().GetStringToString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	return v
}
