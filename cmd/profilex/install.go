package main

import (
	"fmt"

	"github.com/dgallion1/profilex/internal/browser"
	"github.com/spf13/cobra"
)

var installBrowserCmd = &cobra.Command{
	Use:   "install-browser",
	Short: "Download the Chromium build the extractor drives",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := browser.InstallChromium(); err != nil {
			return fmt.Errorf("install chromium: %w", err)
		}
		fmt.Println("chromium installed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installBrowserCmd)
}
