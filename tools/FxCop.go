package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultFxCopExecutable = "FxCopCmd.exe"
	DefaultFxCopTimeout    = 10 * time.Minute

	// FxCopCmd sets this bit when it reports build-breaking messages; the
	// report is still complete.
	buildBreakingMessages = 0x400
)

// FxCopRunner runs FxCopCmd over a set of assemblies.
type FxCopRunner struct {
	Executable          string
	Assemblies          []string
	RuleSets            []string
	Dictionary          string
	IgnoreGeneratedCode bool
	Timeout             time.Duration
}

// Args builds the FxCopCmd command line writing its report to output.
func (r FxCopRunner) Args(output string) []string {
	var args []string
	for _, assembly := range r.Assemblies {
		args = append(args, "/file:"+assembly)
	}
	for _, ruleSet := range r.RuleSets {
		args = append(args, "/ruleset:="+ruleSet)
	}
	args = append(args, "/out:"+output)
	if r.Dictionary != "" {
		args = append(args, "/dictionary:"+r.Dictionary)
	}
	if r.IgnoreGeneratedCode {
		args = append(args, "/ignoregeneratedcode")
	}
	return append(args, "/forceoutput")
}

// Run executes FxCopCmd and returns once output has been written.
func (r FxCopRunner) Run(ctx context.Context, output string) error {
	if len(r.Assemblies) == 0 {
		return fmt.Errorf("no assemblies to analyse")
	}

	executable := r.Executable
	if executable == "" {
		executable = DefaultFxCopExecutable
	}
	path, err := exec.LookPath(executable)
	if err != nil {
		return fmt.Errorf("failed to locate FxCop executable '%s': %w", executable, err)
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultFxCopTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	args := r.Args(output)
	log.Infof("Running %s %s", path, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, path, args...)
	out, err := cmd.CombinedOutput()
	log.Debugf("FxCop output: %s", string(out))

	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("fxcop timed out after %s", timeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || !reportComplete(exitErr.ExitCode()) {
			return fmt.Errorf("fxcop analysis failed: %w", err)
		}
	}

	if _, err := os.Stat(output); err != nil {
		return fmt.Errorf("fxcop did not produce a report at %s: %w", output, err)
	}
	return nil
}

func reportComplete(exitCode int) bool {
	return exitCode&^buildBreakingMessages == 0
}
