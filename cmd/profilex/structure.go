package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dgallion1/profilex/internal/parser"
	"github.com/dgallion1/profilex/internal/pipeline"
	"github.com/dgallion1/profilex/internal/store"
	"github.com/spf13/cobra"
)

var (
	flagRawPath   string
	flagSourceURL string
)

var structureCmd = &cobra.Command{
	Use:   "structure",
	Short: "Structure and render an already saved raw profile",
	Long: `Structure runs the model and every renderer on raw text that is already on
disk: a raw_profile.txt from an earlier run, a LinkedIn "Save to PDF" export or
a saved profile page (.html).

Examples:
  profilex structure --raw output/raw_profile.txt
  profilex structure --raw Profile.pdf --source_url https://www.linkedin.com/in/jane-doe`,
	Args: cobra.NoArgs,
	RunE: runStructure,
}

func init() {
	rootCmd.AddCommand(structureCmd)

	structureCmd.Flags().StringVar(&flagRawPath, "raw", "", "Raw source file (.txt, .pdf, .html)")
	structureCmd.Flags().StringVar(&flagSourceURL, "source_url", "", "Profile URL recorded in provenance")
	structureCmd.MarkFlagRequired("raw")
}

func runStructure(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp()
	defer a.Close()

	if !parser.IsSupportedExtension(flagRawPath) {
		return fmt.Errorf("unsupported raw source: %s", filepath.Ext(flagRawPath))
	}
	f, err := os.Open(flagRawPath)
	if err != nil {
		return err
	}
	defer f.Close()
	text, err := parser.ReadRawText(f, flagRawPath, a.cfg.PDFFallbackPdftotext)
	if err != nil {
		return fmt.Errorf("read %s: %w", flagRawPath, err)
	}

	in := pipeline.RawInput{Text: text, SourceURL: flagSourceURL, OutputDir: a.cfg.OutputDir}
	// Keep the original provenance when re-running a persisted raw file.
	sidecar := filepath.Join(filepath.Dir(flagRawPath), store.ProvenanceName)
	if prov, err := store.ReadProvenance(sidecar); err == nil && filepath.Base(flagRawPath) == store.RawTextName {
		if in.SourceURL == "" {
			in.SourceURL = prov.SourceURL
		}
		in.ExtractedAt = prov.ExtractedAt
	}
	if in.ExtractedAt.IsZero() {
		if st, err := f.Stat(); err == nil {
			in.ExtractedAt = st.ModTime()
		} else {
			in.ExtractedAt = time.Now()
		}
	}

	orch, err := a.orchestrator(ctx, pipeline.FullCapabilities())
	if err != nil {
		return err
	}
	return report(orch.StructureAndRender(ctx, in))
}
