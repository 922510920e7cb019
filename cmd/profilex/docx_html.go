package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/profilex/internal/parser"
	"github.com/dgallion1/profilex/internal/render"
	"github.com/spf13/cobra"
)

var flagHTMLOut string

var docxHTMLCmd = &cobra.Command{
	Use:   "docx-html <file.docx>",
	Short: "Convert a profile DOCX into the profile HTML fragment",
	Long: `docx-html reads a Word document laid out like structured_profile.docx and
writes the same profile-container fragment the HTML renderer produces. Heading
levels map to name, headline, section and entry titles; bullet paragraphs map
to skill tags.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocxHTML,
}

func init() {
	rootCmd.AddCommand(docxHTMLCmd)
	docxHTMLCmd.Flags().StringVar(&flagHTMLOut, "out", "", "Output file (default: input name with .html)")
}

func runDocxHTML(cmd *cobra.Command, args []string) error {
	in := args[0]
	if !strings.EqualFold(filepath.Ext(in), ".docx") {
		return fmt.Errorf("not a .docx file: %s", in)
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	items, err := parser.ReadDOCXOutline(data)
	if err != nil {
		return err
	}
	out, err := render.OutlineHTML(items)
	if err != nil {
		return err
	}

	dst := flagHTMLOut
	if dst == "" {
		dst = strings.TrimSuffix(in, filepath.Ext(in)) + ".html"
	}
	if err := os.WriteFile(dst, out, 0o644); err != nil {
		return err
	}
	fmt.Println(dst)
	return nil
}
