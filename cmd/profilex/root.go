package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagOutputDir string

var rootCmd = &cobra.Command{
	Use:   "profilex",
	Short: "profilex extracts a LinkedIn profile and renders it as Markdown, HTML and DOCX",
	Long: `profilex logs into LinkedIn in a browser, harvests the visible text of a
profile page, structures it with a language model and renders the result.

Configuration is read from the environment and an optional .env file.

Usage:
  profilex extract <profile-url>
  profilex structure --raw output/raw_profile.txt
  profilex render --profile output/structured_profile.json
  profilex docx-html resume.docx
  profilex serve`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagOutputDir, "output_dir", "", "Output directory (default: OUTPUT_DIR or ./output)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
