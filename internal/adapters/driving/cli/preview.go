package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
)

var (
	previewOut     string
	previewTimeout time.Duration
)

var previewCmd = &cobra.Command{
	Use:   "preview [LCSC id]",
	Short: "Render PNG previews of a part's symbol and footprint",
	Long: `Converts the part and renders its symbol and footprint with kicad-cli.
The images are written as <id>_symbol.png and <id>_footprint.png.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringVarP(&previewOut, "out", "o", ".", "output directory")
	previewCmd.Flags().DurationVar(&previewTimeout, "timeout", 60*time.Second, "maximum time to wait for rendering")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	if componentService == nil || previewService == nil {
		return fmt.Errorf("preview: %w", errNotConfigured)
	}

	rec, artifacts, err := componentService.Convert(cmd.Context(), args[0], domain.SearchOptions{})
	if err != nil {
		return fmt.Errorf("preview failed: %w", err)
	}
	if err := os.MkdirAll(previewOut, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	previewService.Select(cmd.Context(), rec.SourceID, artifacts)

	ctx, cancel := context.WithTimeout(cmd.Context(), previewTimeout)
	defer cancel()

	p := newPalette(cmd)
	w := cmd.OutOrStdout()
	failed := 0
	for _, kind := range []domain.ArtifactKind{domain.ArtifactSymbol, domain.ArtifactFootprint} {
		entry, err := previewService.Wait(ctx, domain.CacheKey{SourceID: rec.SourceID, Kind: kind})
		if err != nil {
			return fmt.Errorf("waiting for %s preview: %w", kind, err)
		}
		if entry.State != domain.CacheReady {
			failed++
			fmt.Fprintf(w, "  %s %s: %v\n", p.bad.Render("failed"), kind, entry.Err)
			continue
		}
		path := filepath.Join(previewOut, fmt.Sprintf("%s_%s.png", rec.SourceID, kind))
		if err := os.WriteFile(path, entry.Image, 0644); err != nil {
			return fmt.Errorf("writing %s preview: %w", kind, err)
		}
		fmt.Fprintf(w, "  %s %s\n", p.ok.Render("wrote"), path)
	}
	if failed == 2 {
		return fmt.Errorf("preview failed: %w", domain.ErrRenderFailed)
	}
	return nil
}
