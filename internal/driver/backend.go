package driver

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// WriteIR persists the IR text; the compiler core itself never writes.
func WriteIR(path, ir string) error {
	return os.WriteFile(path, []byte(ir), 0o644)
}

// BuildExecutable hands the IR file to the C/LLVM toolchain for assembly
// and linking.
func BuildExecutable(irPath, outPath string) error {
	cmd := exec.Command("clang", "-Wno-override-module", irPath, "-o", outPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("clang failed: %s", msg)
		}
		return fmt.Errorf("clang failed: %w", err)
	}
	return nil
}

// RunExecutable executes the produced binary, forwarding its stdio, and
// returns the exit code.
func RunExecutable(path string, args ...string) (int, error) {
	cmd := exec.Command(path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
