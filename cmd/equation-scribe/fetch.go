package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/equation-scribe/internal/fetch"
	"github.com/pdiddy/equation-scribe/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultDelay     = 1 * time.Second
	defaultUserAgent = "equation-scribe/0.1"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [identifiers...]",
	Short: "Download papers from arXiv IDs or direct PDF URLs",
	Long: `Fetch resolves paper identifiers (arXiv IDs like 2301.07041, optionally
with an arXiv: prefix or version suffix, or direct PDF URLs) and downloads the
PDFs into papers/raw/. Existing papers are skipped.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	fetchCmd.Flags().Duration("delay", 0, "delay between consecutive downloads (default 1s)")
	fetchCmd.Flags().String("papers-dir", "papers", "base directory for papers")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more paper identifiers (arXiv IDs or PDF URLs)")
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	delay, _ := cmd.Flags().GetDuration("delay")
	if delay == 0 {
		delay = defaultDelay
	}
	papersDir, _ := cmd.Flags().GetString("papers-dir")

	cfg := types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		DownloadDelay: delay,
		PapersDir:     papersDir,
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	result := fetch.FetchBatch(client, args, cfg, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d paper(s) failed to download", result.Failed)
	}
	return nil
}
