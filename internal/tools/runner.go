// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tools abstracts invocation of the external binaries the pipeline
// depends on (poppler's pdftoppm/pdfinfo/pdftotext, pdflatex, and the yolo
// trainer CLI). Stages hold a Runner so tests can substitute fakes.
package tools

import (
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Runner executes external commands.
type Runner interface {
	// LookPath reports where the binary lives, or an error if it is not
	// on PATH.
	LookPath(bin string) (string, error)

	// Run executes the command, discarding output. Used for tools whose
	// effect is filesystem output.
	Run(bin string, args ...string) error

	// Output executes the command and returns its stdout.
	Output(bin string, args ...string) ([]byte, error)

	// Stream executes the command with stdout and stderr attached to w.
	// Used for long-running tools (training) whose progress matters.
	Stream(w io.Writer, bin string, args ...string) error
}

// ExecRunner is the production Runner backed by os/exec.
type ExecRunner struct{}

func (ExecRunner) LookPath(bin string) (string, error) {
	return exec.LookPath(bin)
}

func (ExecRunner) Run(bin string, args ...string) error {
	out, err := exec.Command(bin, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s", bin, strings.Join(args, " "), err, firstLine(out))
	}
	return nil
}

func (ExecRunner) Output(bin string, args ...string) ([]byte, error) {
	out, err := exec.Command(bin, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", bin, strings.Join(args, " "), err)
	}
	return out, nil
}

func (ExecRunner) Stream(w io.Writer, bin string, args ...string) error {
	cmd := exec.Command(bin, args...)
	cmd.Stdout = w
	cmd.Stderr = w
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", bin, err)
	}
	return nil
}

// Available reports whether bin is on PATH.
func Available(r Runner, bin string) bool {
	_, err := r.LookPath(bin)
	return err == nil
}

// firstLine trims combined output down to its first line for error messages.
func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
