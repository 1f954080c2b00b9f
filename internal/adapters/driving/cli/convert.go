package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
)

var (
	convertOut     string
	convertRefresh bool
)

var convertCmd = &cobra.Command{
	Use:   "convert [LCSC id]",
	Short: "Convert a part to KiCad files without importing it",
	Long: `Converts the part's symbol and footprint to .kicad_sym and .kicad_mod
files in the output directory. No project library is touched.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertOut, "out", "o", ".", "output directory")
	convertCmd.Flags().BoolVar(&convertRefresh, "refresh", false, "bypass the local source cache")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	if componentService == nil {
		return fmt.Errorf("convert: %w", errNotConfigured)
	}

	rec, artifacts, err := componentService.Convert(cmd.Context(), args[0], domain.SearchOptions{Refresh: convertRefresh})
	if err != nil {
		return fmt.Errorf("convert failed: %w", err)
	}

	if err := os.MkdirAll(convertOut, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	p := newPalette(cmd)
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, p.title.Render(rec.SourceID+"  "+rec.Name))

	symPath := filepath.Join(convertOut, rec.SourceID+".kicad_sym")
	if err := writeSide(w, p, domain.ArtifactSymbol, symPath, artifacts.Symbol.Content, artifacts); err != nil {
		return err
	}
	fpPath := filepath.Join(convertOut, artifacts.Footprint.Name+".kicad_mod")
	if artifacts.Footprint.Name == "" {
		fpPath = filepath.Join(convertOut, rec.SourceID+".kicad_mod")
	}
	if err := writeSide(w, p, domain.ArtifactFootprint, fpPath, artifacts.Footprint.Content, artifacts); err != nil {
		return err
	}

	if artifacts.Placeholder() {
		fmt.Fprintln(w, "  "+p.warn.Render("no CAD data published; placeholder artifacts written"))
	}
	for _, warning := range artifacts.Warnings {
		fmt.Fprintln(w, "  "+p.warn.Render("warning: "+warning))
	}
	return nil
}

func writeSide(w io.Writer, p palette, kind domain.ArtifactKind, path string, content []byte, artifacts domain.ConvertedArtifacts) error {
	if err := artifacts.Rejected[kind]; err != nil {
		fmt.Fprintf(w, "  %s %s: %v\n", p.bad.Render("rejected"), kind, err)
		return nil
	}
	if content == nil {
		return nil
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", kind, err)
	}
	fmt.Fprintf(w, "  %s %s\n", p.ok.Render("wrote"), path)
	return nil
}
