package main

import (
	"context"
	"fmt"

	"github.com/dgallion1/profilex/internal/pipeline"
	"github.com/dgallion1/profilex/internal/store"
	"github.com/spf13/cobra"
)

var flagProfilePath string

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Re-render every format from a structured profile",
	Example: `  profilex render --profile output/structured_profile.json
  RENDER_PDF=true profilex render --profile output/structured_profile.json --output_dir out`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVar(&flagProfilePath, "profile", "", "structured_profile.json to render")
	renderCmd.MarkFlagRequired("profile")
}

func runRender(cmd *cobra.Command, args []string) error {
	a := newApp()
	defer a.Close()

	p, err := store.ReadProfileJSON(flagProfilePath)
	if err != nil {
		return err
	}

	orch, err := a.orchestrator(context.Background(), pipeline.Capabilities{Render: true})
	if err != nil {
		return err
	}
	arts, renderErrs, err := orch.RenderProfile(cmd.Context(), p, a.cfg.OutputDir)
	if err != nil {
		return err
	}
	for _, f := range arts.Files() {
		fmt.Printf("  artifact: %s\n", f)
	}
	if len(renderErrs) > 0 {
		for f, e := range renderErrs {
			fmt.Printf("  failed:   %s: %v\n", f, e)
		}
		return fmt.Errorf("%d format(s) failed to render", len(renderErrs))
	}
	return nil
}
