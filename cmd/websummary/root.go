package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for websummary.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "websummary",
		Short: "Crawl a website and summarize what it is built with",
		Long: `websummary crawls every page of a single website reachable from a seed URL.

It stays on the seed's host and reports the number of URLs found, the
bandwidth used, the number of images, the plugins and libraries the site
uses, links to social-media profiles and the most used keywords.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write log lines to stderr as JSON")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
