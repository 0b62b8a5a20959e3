package tools

import (
	"fmt"
	"io"
	"testing"
)

type stubRunner struct {
	present bool
}

func (s stubRunner) LookPath(bin string) (string, error) {
	if !s.present {
		return "", fmt.Errorf("%s: not found", bin)
	}
	return "/usr/bin/" + bin, nil
}

func (s stubRunner) Run(bin string, args ...string) error              { return nil }
func (s stubRunner) Output(bin string, args ...string) ([]byte, error) { return nil, nil }
func (s stubRunner) Stream(w io.Writer, bin string, args ...string) error {
	return nil
}

func TestAvailable(t *testing.T) {
	if !Available(stubRunner{present: true}, "pdftoppm") {
		t.Error("binary on PATH reported unavailable")
	}
	if Available(stubRunner{present: false}, "pdftoppm") {
		t.Error("missing binary reported available")
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"one line", "one line"},
		{"first\nsecond\nthird", "first"},
		{"  padded\nrest", "padded"},
	}
	for _, tt := range tests {
		if got := firstLine([]byte(tt.in)); got != tt.want {
			t.Errorf("firstLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExecRunnerMissingBinary(t *testing.T) {
	r := ExecRunner{}
	if _, err := r.LookPath("definitely-not-a-real-binary-4242"); err == nil {
		t.Error("expected LookPath error for a missing binary")
	}
	if err := r.Run("definitely-not-a-real-binary-4242"); err == nil {
		t.Error("expected Run error for a missing binary")
	}
}
