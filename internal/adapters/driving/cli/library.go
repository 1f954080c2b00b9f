package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
)

var (
	libraryProject string
	libraryJSON    bool
	libraryYAML    bool
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Inspect a project's imported library",
}

var libraryShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List the symbols, footprints and models in the library",
	Args:  cobra.NoArgs,
	RunE:  runLibraryShow,
}

var libraryWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print changes made to the library by other programs",
	Long: `Watches the library directories and both library tables and prints
each change until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runLibraryWatch,
}

func init() {
	libraryCmd.PersistentFlags().StringVarP(&libraryProject, "project", "p", ".", "KiCad project directory")
	libraryShowCmd.Flags().BoolVar(&libraryJSON, "json", false, "output as JSON")
	libraryShowCmd.Flags().BoolVar(&libraryYAML, "yaml", false, "output as YAML")
	libraryCmd.AddCommand(libraryShowCmd)
	libraryCmd.AddCommand(libraryWatchCmd)
	rootCmd.AddCommand(libraryCmd)
}

func runLibraryShow(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return fmt.Errorf("library: %w", errNotConfigured)
	}
	format, err := selectFormat(libraryJSON, libraryYAML)
	if err != nil {
		return err
	}

	info, err := libraryService.Info(libraryProject)
	if err != nil {
		return fmt.Errorf("reading library: %w", err)
	}
	if format != formatText {
		return writeStructured(cmd.OutOrStdout(), format, info)
	}
	printLibrary(cmd.OutOrStdout(), newPalette(cmd), info)
	return nil
}

func printLibrary(w io.Writer, p palette, info *domain.LibraryInfo) {
	fmt.Fprintln(w, p.title.Render(info.Nickname))
	p.field(w, "Symbols", info.SymbolPath)
	p.field(w, "Footprints", info.FootprintPath)
	p.field(w, "Models", info.ModelsPath)
	p.field(w, "sym-lib-table", registered(p, info.SymbolTable))
	p.field(w, "fp-lib-table", registered(p, info.FootprintTable))

	list := func(label string, names []string) {
		fmt.Fprintf(w, "  %s %d\n", p.label.Render(fmt.Sprintf("%-14s", label+":")), len(names))
		if len(names) > 0 {
			fmt.Fprintln(w, "    "+strings.Join(names, "\n    "))
		}
	}
	list("Symbol count", info.Symbols)
	list("Footprint count", info.Footprints)
	list("Model count", info.Models)
}

func registered(p palette, ok bool) string {
	if ok {
		return p.ok.Render("registered")
	}
	return p.warn.Render("not registered")
}

func runLibraryWatch(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return fmt.Errorf("library: %w", errNotConfigured)
	}

	events, err := libraryService.Watch(cmd.Context(), libraryProject)
	if err != nil {
		return fmt.Errorf("watching library: %w", err)
	}

	p := newPalette(cmd)
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Watching %s (Ctrl-C to stop)\n", libraryProject)
	for ev := range events {
		label := p.ok
		switch ev.Change {
		case domain.LibraryUpdated:
			label = p.warn
		case domain.LibraryDeleted:
			label = p.bad
		}
		fmt.Fprintf(w, "  %s %s\n", label.Render(fmt.Sprintf("%-8s", ev.Change)), ev.Path)
	}
	return nil
}
