package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kdetry/MicroTS/internal/driver"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] [entry.ts]",
	Short: "Compile and execute a MicroTS program",
	Long:  "Compile a MicroTS program, link it, and run the produced executable. The process exits non-zero when the program does.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExecution,
}

func runExecution(cmd *cobra.Command, args []string) error {
	if err := applyColorMode(cmd); err != nil {
		return err
	}
	plan, err := resolvePlan(cmd, args)
	if err != nil {
		return err
	}
	_, ir, err := compilePlan(plan)
	if err != nil {
		return err
	}

	tmpDir, err := os.MkdirTemp("", "microts-run-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	irPath := filepath.Join(tmpDir, "out.ll")
	binPath := filepath.Join(tmpDir, "out")
	if err := driver.WriteIR(irPath, ir); err != nil {
		return err
	}
	if err := driver.BuildExecutable(irPath, binPath); err != nil {
		return err
	}
	code, err := driver.RunExecutable(binPath)
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("program exited with code %d", code)
	}
	return nil
}
