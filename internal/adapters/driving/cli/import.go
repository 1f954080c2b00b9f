package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
)

var (
	importProject      string
	importOverwrite    []string
	importOverwriteAll bool
	importNo3D         bool
	importNoPrompt     bool
	importJSON         bool
	importYAML         bool
)

// interactive reports whether conflicts may be resolved with a prompt.
var interactive = stdinIsTerminal

// promptOverwrite asks which conflicting kinds to replace.
var promptOverwrite = func(id string, conflicts []domain.ArtifactKind) ([]domain.ArtifactKind, error) {
	options := make([]huh.Option[string], len(conflicts))
	for i, k := range conflicts {
		options[i] = huh.NewOption(k.String(), k.String())
	}
	var selected []string
	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title(fmt.Sprintf("%s is already in the library. Overwrite:", id)).
				Options(options...).
				Value(&selected),
		),
	).Run(); err != nil {
		return nil, err
	}
	kinds := make([]domain.ArtifactKind, len(selected))
	for i, s := range selected {
		kinds[i] = domain.ArtifactKind(s)
	}
	return kinds, nil
}

var importCmd = &cobra.Command{
	Use:   "import [LCSC id]",
	Short: "Import a part into a KiCad project library",
	Long: `Converts the part and adds its symbol, footprint and 3-D model to the
project library, registering it in sym-lib-table and fp-lib-table.

Artifacts already in the library are left untouched unless overwriting
is allowed with --overwrite or --overwrite-all. With --overwrite, only
the listed kinds are replaced and the others are kept as they are. On a
terminal you are asked which ones to replace.`,
	Example: `  kicad-lcsc import C2040 --project ./board
  kicad-lcsc import C2040 --overwrite footprint,model
  kicad-lcsc import C2040 --overwrite-all --no-3d`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importProject, "project", "p", ".", "KiCad project directory")
	importCmd.Flags().StringSliceVar(&importOverwrite, "overwrite", nil, "artifact kinds to replace (symbol, footprint, model)")
	importCmd.Flags().BoolVar(&importOverwriteAll, "overwrite-all", false, "replace every existing artifact")
	importCmd.Flags().BoolVar(&importNo3D, "no-3d", false, "skip 3-D models")
	importCmd.Flags().BoolVar(&importNoPrompt, "no-prompt", false, "never ask; report conflicts and exit")
	importCmd.Flags().BoolVar(&importJSON, "json", false, "output the result as JSON")
	importCmd.Flags().BoolVar(&importYAML, "yaml", false, "output the result as YAML")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if componentService == nil {
		return fmt.Errorf("import: %w", errNotConfigured)
	}
	format, err := selectFormat(importJSON, importYAML)
	if err != nil {
		return err
	}
	opts, err := parseImportOptions(importOverwrite, importOverwriteAll, importNo3D)
	if err != nil {
		return err
	}

	id := args[0]
	res, err := componentService.Import(cmd.Context(), importProject, id, opts)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	canPrompt := format == formatText && !importNoPrompt && len(opts.Overwrite) == 0 && interactive()
	if res.Status == domain.ImportStatusConflict && canPrompt {
		kinds, err := promptOverwrite(res.SourceID, res.Conflicts)
		if err != nil {
			return err
		}
		if len(kinds) > 0 {
			opts.Overwrite = make(map[domain.ArtifactKind]bool, len(kinds))
			for _, k := range kinds {
				opts.Overwrite[k] = true
			}
			opts = opts.KeepUnlisted()
			if res, err = componentService.Import(cmd.Context(), importProject, id, opts); err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
		}
	}

	if format != formatText {
		if err := writeStructured(cmd.OutOrStdout(), format, res); err != nil {
			return err
		}
	} else {
		printImport(cmd.OutOrStdout(), newPalette(cmd), res)
	}

	if res.Status == domain.ImportStatusConflict {
		return fmt.Errorf("%s: %w: %s exist; use --overwrite", res.SourceID, domain.ErrLibraryConflict, joinKinds(res.Conflicts))
	}
	return nil
}

func parseImportOptions(overwrite []string, all, no3D bool) (domain.ImportOptions, error) {
	opts := domain.ImportOptions{SkipModels: no3D}
	if all {
		opts.Overwrite = domain.OverwriteAll()
		return opts, nil
	}
	for _, raw := range overwrite {
		kind := domain.ArtifactKind(strings.ToLower(strings.TrimSpace(raw)))
		if !kind.IsValid() {
			return opts, fmt.Errorf("unknown artifact kind %q (want symbol, footprint or model)", raw)
		}
		if opts.Overwrite == nil {
			opts.Overwrite = make(map[domain.ArtifactKind]bool)
		}
		opts.Overwrite[kind] = true
	}
	if len(opts.Overwrite) > 0 {
		opts = opts.KeepUnlisted()
	}
	return opts, nil
}

func printImport(w io.Writer, p palette, res *domain.ImportResult) {
	status := string(res.Status)
	switch res.Status {
	case domain.ImportStatusImported:
		status = p.ok.Render(status)
	case domain.ImportStatusPartial:
		status = p.warn.Render(status)
	default:
		status = p.bad.Render(status)
	}
	fmt.Fprintf(w, "%s %s into %s\n", p.title.Render(res.SourceID), status, res.LibraryName)

	for _, k := range sortedKinds(res.Written) {
		fmt.Fprintf(w, "  %s %-9s %s\n", p.ok.Render("wrote"), k, res.Written[k])
	}
	for _, k := range sortedKinds(res.Failed) {
		fmt.Fprintf(w, "  %s %-9s %s\n", p.bad.Render("failed"), k, res.Failed[k])
	}
	if len(res.Kept) > 0 {
		fmt.Fprintf(w, "  %s %s\n", p.label.Render("kept"), joinKinds(res.Kept))
	}
	if len(res.Conflicts) > 0 {
		fmt.Fprintf(w, "  %s %s\n", p.warn.Render("exists"), joinKinds(res.Conflicts))
	}
	if res.IndexUpdated {
		fmt.Fprintln(w, "  "+p.label.Render("library tables updated"))
	}
	for _, warning := range res.Warnings {
		fmt.Fprintln(w, "  "+p.warn.Render("warning: "+warning))
	}
}

func sortedKinds(m map[domain.ArtifactKind]string) []domain.ArtifactKind {
	kinds := make([]domain.ArtifactKind, 0, len(m))
	for k := range m {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func joinKinds(kinds []domain.ArtifactKind) string {
	s := make([]string, len(kinds))
	for i, k := range kinds {
		s[i] = k.String()
	}
	return strings.Join(s, ", ")
}
