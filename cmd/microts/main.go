// Package main implements the microts CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kdetry/MicroTS/internal/diag"
	"github.com/kdetry/MicroTS/internal/version"
)

var rootCmd = &cobra.Command{
	Use:          "microts",
	Short:        "MicroTS ahead-of-time compiler",
	Long:         `microts compiles a strict, statically-typed TypeScript subset to LLVM IR and native executables.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// applyColorMode resolves the persistent --color flag before any
// diagnostics are rendered.
func applyColorMode(cmd *cobra.Command) error {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	switch mode {
	case "on":
		diag.SetColorEnabled(true)
	case "off":
		diag.SetColorEnabled(false)
	default:
		diag.SetColorEnabled(isTerminal(os.Stderr))
	}
	return nil
}
