package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
)

var (
	searchJSON    bool
	searchYAML    bool
	searchRefresh bool
	searchQuery   domain.KeywordQuery
)

var searchCmd = &cobra.Command{
	Use:   "search [LCSC id]",
	Short: "Look up an LCSC part",
	Long: `Fetches a part from EasyEDA and JLCPCB concurrently and prints the
merged record: identity, stock, price breaks and CAD availability.
If one source is unreachable the other's data is still shown.

With --keyword, --value, --package or --manufacturer instead of an id,
runs a free-text EasyEDA search and lists matching parts one page at a
time.`,
	Example: `  kicad-lcsc search C2040
  kicad-lcsc search --keyword capacitor --value 10uF --package 0603
  kicad-lcsc search -k NE555 --page 2 --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output the record as JSON")
	searchCmd.Flags().BoolVar(&searchYAML, "yaml", false, "output the record as YAML")
	searchCmd.Flags().BoolVar(&searchRefresh, "refresh", false, "bypass the local source cache")
	searchCmd.Flags().StringVarP(&searchQuery.Name, "keyword", "k", "", "free-text search: name or description")
	searchCmd.Flags().StringVar(&searchQuery.Value, "value", "", "free-text search: value, e.g. 10uF")
	searchCmd.Flags().StringVar(&searchQuery.Package, "package", "", "free-text search: package, e.g. 0603")
	searchCmd.Flags().StringVar(&searchQuery.Manufacturer, "manufacturer", "", "free-text search: manufacturer")
	searchCmd.Flags().IntVar(&searchQuery.Page, "page", 1, "free-text search: result page")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return fmt.Errorf("search: %w", errNotConfigured)
	}
	format, err := selectFormat(searchJSON, searchYAML)
	if err != nil {
		return err
	}

	keyword := searchQuery.Keyword() != ""
	switch {
	case keyword && len(args) > 0:
		return errors.New("give either an LCSC id or search terms, not both")
	case keyword:
		return runFind(cmd, format)
	case len(args) == 0:
		return errors.New("an LCSC id or --keyword is required")
	}

	rec, err := searchService.Search(cmd.Context(), args[0], domain.SearchOptions{Refresh: searchRefresh})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if format != formatText {
		return writeStructured(cmd.OutOrStdout(), format, rec)
	}
	printRecord(cmd.OutOrStdout(), newPalette(cmd), rec)
	return nil
}

func runFind(cmd *cobra.Command, format outputFormat) error {
	hits, err := searchService.Find(cmd.Context(), searchQuery)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if format != formatText {
		if hits == nil {
			hits = []domain.SearchHit{}
		}
		return writeStructured(cmd.OutOrStdout(), format, hits)
	}
	printHits(cmd.OutOrStdout(), newPalette(cmd), searchQuery, hits)
	return nil
}

func printHits(w io.Writer, p palette, q domain.KeywordQuery, hits []domain.SearchHit) {
	if len(hits) == 0 {
		fmt.Fprintf(w, "No parts found for %q.\n", q.Keyword())
		return
	}
	fmt.Fprintln(w, p.title.Render(fmt.Sprintf("%q page %d", q.Keyword(), q.PageOrFirst())))
	for _, h := range hits {
		id := h.SourceID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(w, "  %-10s %-32s %s\n", id, h.Title, p.label.Render(h.Package))
	}
	fmt.Fprintln(w, "  "+p.label.Render(fmt.Sprintf("more: --page %d", q.PageOrFirst()+1)))
}

func printRecord(w io.Writer, p palette, rec *domain.ComponentRecord) {
	fmt.Fprintln(w, p.title.Render(rec.SourceID+"  "+rec.Name))
	p.field(w, "Description", rec.Description)
	p.field(w, "Manufacturer", rec.Manufacturer)
	p.field(w, "MPN", rec.ManufacturerPart)
	p.field(w, "Package", rec.Package)
	p.field(w, "Class", rec.Classification.Description())
	p.field(w, "Stock", strconv.Itoa(rec.Stock))
	p.field(w, "Datasheet", rec.DatasheetURL)
	p.field(w, "Product page", rec.ProductURL)

	cad := p.bad.Render("none")
	if rec.HasGeometry() {
		cad = p.ok.Render("symbol + footprint")
	}
	p.field(w, "CAD data", cad)

	if len(rec.Model3DRefs) > 0 {
		formats := make([]string, len(rec.Model3DRefs))
		for i, m := range rec.Model3DRefs {
			formats[i] = string(m.Format)
		}
		p.field(w, "3-D models", strings.Join(formats, ", "))
	}

	if len(rec.PriceTiers) > 0 {
		fmt.Fprintln(w, "  "+p.label.Render("Price breaks:"))
		for _, t := range rec.PriceTiers {
			qty := strconv.Itoa(t.MinQty) + "+"
			if t.MaxQty > 0 {
				qty = fmt.Sprintf("%d-%d", t.MinQty, t.MaxQty)
			}
			fmt.Fprintf(w, "    %-12s $%s\n", qty, t.UnitPrice.String())
		}
	}

	sources := make([]string, len(rec.Sources))
	for i, s := range rec.Sources {
		sources[i] = s.String()
	}
	p.field(w, "Sources", strings.Join(sources, ", "))

	for _, n := range rec.Notes {
		fmt.Fprintln(w, "  "+p.warn.Render("note: "+n))
	}
}
