package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kdetry/MicroTS/internal/backend/llvm"
	"github.com/kdetry/MicroTS/internal/diag"
	"github.com/kdetry/MicroTS/internal/driver"
	"github.com/kdetry/MicroTS/internal/project"
	"github.com/kdetry/MicroTS/internal/source"
)

const noManifestMessage = "no microts.toml found\nplease specify the entry file explicitly, e.g.:\n  microts build path/to/main.ts"

var buildCmd = &cobra.Command{
	Use:   "build [flags] [entry.ts]",
	Short: "Compile a MicroTS program",
	Long:  "Compile a MicroTS program to a native executable, or to LLVM IR with --emit-llvm.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  buildExecution,
}

func init() {
	for _, cmd := range []*cobra.Command{buildCmd, runCmd} {
		cmd.Flags().Bool("emit-llvm", false, "write the IR text and stop before the native backend")
		cmd.Flags().StringP("output", "o", "", "output path")
		cmd.Flags().String("target", "", "target triple (default "+llvm.DefaultTargetTriple+")")
		cmd.Flags().String("prelude", "", "path to a prelude descriptor (default: embedded)")
		cmd.Flags().Bool("emit-meta", false, "write the resolved module graph next to the output")
	}
}

// buildPlan is the fully resolved input of one build: flags merged over
// manifest defaults.
type buildPlan struct {
	entry    string
	target   string
	prelude  string
	output   string
	emitLLVM bool
	emitMeta bool
}

func resolvePlan(cmd *cobra.Command, args []string) (*buildPlan, error) {
	plan := &buildPlan{}
	var err error
	if plan.emitLLVM, err = cmd.Flags().GetBool("emit-llvm"); err != nil {
		return nil, err
	}
	if plan.emitMeta, err = cmd.Flags().GetBool("emit-meta"); err != nil {
		return nil, err
	}
	if plan.output, err = cmd.Flags().GetString("output"); err != nil {
		return nil, err
	}
	if plan.target, err = cmd.Flags().GetString("target"); err != nil {
		return nil, err
	}
	if plan.prelude, err = cmd.Flags().GetString("prelude"); err != nil {
		return nil, err
	}

	manifest, found, err := project.LoadManifest(".")
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		plan.entry = args[0]
	} else {
		if !found {
			return nil, errors.New(noManifestMessage)
		}
		plan.entry = manifest.EntryPath()
	}
	if found {
		cfg := manifest.Config.Build
		if plan.target == "" {
			plan.target = cfg.Target
		}
		if plan.prelude == "" && cfg.Prelude != "" {
			plan.prelude = filepath.Join(manifest.Root, cfg.Prelude)
		}
		if plan.output == "" && cfg.Output != "" {
			plan.output = filepath.Join(manifest.Root, cfg.Output)
		}
	}
	if plan.output == "" {
		base := source.ShortName(plan.entry)
		if plan.emitLLVM {
			plan.output = base + ".ll"
		} else {
			plan.output = base
		}
	}
	return plan, nil
}

// compilePlan runs the pipeline and reports diagnostics through the
// colored reporter before failing the command.
func compilePlan(plan *buildPlan) (*driver.Compilation, string, error) {
	comp := driver.NewCompilation(driver.Options{
		TargetTriple: plan.target,
		PreludePath:  plan.prelude,
	})
	ir, err := comp.Compile(plan.entry)
	if err != nil {
		var d *diag.Diagnostic
		if errors.As(err, &d) {
			diag.NewReporter(os.Stderr).Report(d)
			return nil, "", fmt.Errorf("compilation failed")
		}
		return nil, "", err
	}
	return comp, ir, nil
}

func buildExecution(cmd *cobra.Command, args []string) error {
	if err := applyColorMode(cmd); err != nil {
		return err
	}
	plan, err := resolvePlan(cmd, args)
	if err != nil {
		return err
	}
	comp, ir, err := compilePlan(plan)
	if err != nil {
		return err
	}

	if plan.emitLLVM {
		if err := driver.WriteIR(plan.output, ir); err != nil {
			return err
		}
	} else {
		irPath := strings.TrimSuffix(plan.output, filepath.Ext(plan.output)) + ".ll"
		if err := driver.WriteIR(irPath, ir); err != nil {
			return err
		}
		if err := driver.BuildExecutable(irPath, plan.output); err != nil {
			return err
		}
	}

	if plan.emitMeta {
		meta := project.Describe(plan.entry, plan.target, comp.Modules)
		if err := meta.WriteFile(plan.output + ".meta.mp"); err != nil {
			return err
		}
	}
	return nil
}
