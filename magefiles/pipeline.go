//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// Demo runs a small synthetic end-to-end pass under demo/: generate
// pages, verify the annotations, cut recognition pairs, and validate
// their LaTeX.
func Demo() error {
	mg.Deps(Build)

	bin := filepath.Join(binDir, binName)
	steps := [][]string{
		{"synth", "--pages", "10", "--seed", "7",
			"--out-images", "demo/synth/images", "--out-anns", "demo/synth/instances_all.json"},
		{"dataset", "check", "--coco", "demo/synth/instances_all.json",
			"--images-root", "demo/synth/images"},
		{"pairs", "demo/synth/instances_all.json", "--images-root", "demo/synth/images",
			"--out-images", "demo/pairs/crops", "--out-jsonl", "demo/pairs/pairs.jsonl"},
		{"validate", "--pairs", "demo/pairs/pairs.jsonl"},
	}

	for _, args := range steps {
		fmt.Printf("==> %s %v\n", bin, args)
		cmd := exec.Command(bin, args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("%s %v: %w", bin, args, err)
		}
	}
	return nil
}
