package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/equation-scribe/internal/pairs"
	"github.com/pdiddy/equation-scribe/internal/profile"
	"github.com/pdiddy/equation-scribe/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check LaTeX records for structural problems",
	Long: `Validate normalizes each LaTeX record and checks it for structural
problems: unbalanced delimiters, mismatched \left/\right, empty expressions.
It reads either a pairs JSONL manifest or a profile equations.jsonl and exits
non-zero when any record is invalid, unless --lenient is set.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().String("pairs", "", "pairs JSONL manifest to validate")
	validateCmd.Flags().String("equations", "", "profile equations.jsonl to validate")
	validateCmd.Flags().Bool("lenient", false, "report invalid records but exit zero")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	pairsPath, _ := cmd.Flags().GetString("pairs")
	eqsPath, _ := cmd.Flags().GetString("equations")
	lenient, _ := cmd.Flags().GetBool("lenient")

	if (pairsPath == "") == (eqsPath == "") {
		return fmt.Errorf("provide exactly one of --pairs or --equations")
	}

	var records []validate.Record
	switch {
	case pairsPath != "":
		ps, err := pairs.ReadJSONL(pairsPath)
		if err != nil {
			return err
		}
		for _, p := range ps {
			records = append(records, validate.Record{Source: p.Image, Latex: p.Latex})
		}
	case eqsPath != "":
		eqs, err := profile.ReadEquations(eqsPath)
		if err != nil {
			return err
		}
		for _, eq := range eqs {
			records = append(records, validate.Record{Source: eq.EqUID, Latex: eq.Latex})
		}
	}

	invalid := validate.Run(records, os.Stdout)
	if invalid > 0 && !lenient {
		return fmt.Errorf("%d invalid record(s)", invalid)
	}
	return nil
}
