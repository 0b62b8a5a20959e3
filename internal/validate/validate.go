// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate checks equation LaTeX structurally: delimiter balance,
// \left/\right pairing, and emptiness, plus a canonical hash of the
// normalized form for deduplication across sources.
package validate

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pdiddy/equation-scribe/internal/profile"
)

// Result is the outcome of validating one LaTeX string.
type Result struct {
	OK     bool     `json:"ok"`
	Errors []string `json:"errors,omitempty"`

	// Normalized is the micro-normalized LaTeX the checks ran on.
	Normalized string `json:"normalized,omitempty"`

	// CanonicalHash is a 16-hex digest of the normalized form, empty when
	// validation failed.
	CanonicalHash string `json:"canonical_hash,omitempty"`
}

var (
	inlineWrap  = regexp.MustCompile(`^\\\(|\\\)$`)
	displayWrap = regexp.MustCompile(`^\\\[|\\\]$`)
	spaces      = regexp.MustCompile(`\s+`)
)

// MicroNormalize strips math-mode wrappers and collapses whitespace.
// Cleanups only; the math content is untouched.
func MicroNormalize(latex string) string {
	t := strings.TrimSpace(latex)
	t = inlineWrap.ReplaceAllString(t, "")
	t = displayWrap.ReplaceAllString(t, "")
	return spaces.ReplaceAllString(t, " ")
}

var closers = map[rune]rune{'{': '}', '(': ')', '[': ']'}

// balancedDelims checks brace/paren/bracket balance and reports the
// position of the first mismatch.
func balancedDelims(s string) (bool, string) {
	var stack []rune
	for i, ch := range s {
		if want, open := closers[ch]; open {
			stack = append(stack, want)
			continue
		}
		switch ch {
		case '}', ')', ']':
			if len(stack) == 0 || stack[len(stack)-1] != ch {
				return false, fmt.Sprintf("unmatched closing %q at pos %d", ch, i)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return false, "unclosed delimiter(s) at end"
	}
	return true, ""
}

// Check validates one LaTeX string.
func Check(latex string) Result {
	if strings.TrimSpace(latex) == "" {
		return Result{OK: false, Errors: []string{"empty LaTeX"}}
	}

	s := MicroNormalize(latex)
	res := Result{Normalized: s}

	if ok, msg := balancedDelims(s); !ok {
		res.Errors = append(res.Errors, "delimiter check: "+msg)
	}

	nLeft := strings.Count(s, `\left`)
	nRight := strings.Count(s, `\right`)
	if nLeft != nRight {
		res.Errors = append(res.Errors, fmt.Sprintf(`\left/\right mismatch: %d vs %d`, nLeft, nRight))
	}

	res.OK = len(res.Errors) == 0
	if res.OK {
		res.CanonicalHash = profile.CanonicalHash(s)
	}
	return res
}

// Record is one validated input with its source label.
type Record struct {
	Source string
	Latex  string
	Result Result
}

// Run validates every record, printing one line per failure and a final
// summary to w. Returns the number of invalid records.
func Run(records []Record, w io.Writer) int {
	invalid := 0
	for i := range records {
		records[i].Result = Check(records[i].Latex)
		if !records[i].Result.OK {
			invalid++
			fmt.Fprintf(w, "INVALID %s: %s\n", records[i].Source, strings.Join(records[i].Result.Errors, "; "))
		}
	}
	fmt.Fprintf(w, "validated %d records: %d ok, %d invalid\n", len(records), len(records)-invalid, invalid)
	return invalid
}
