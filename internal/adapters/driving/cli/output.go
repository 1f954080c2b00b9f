package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// outputFormat selects how a command prints its result.
type outputFormat int

const (
	formatText outputFormat = iota
	formatJSON
	formatYAML
)

func selectFormat(asJSON, asYAML bool) (outputFormat, error) {
	switch {
	case asJSON && asYAML:
		return formatText, fmt.Errorf("--json and --yaml are mutually exclusive")
	case asJSON:
		return formatJSON, nil
	case asYAML:
		return formatYAML, nil
	default:
		return formatText, nil
	}
}

// writeStructured prints v as JSON or YAML.
func writeStructured(w io.Writer, format outputFormat, v any) error {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format")
	}
}

// palette holds the text styles. The zero palette renders plain text.
type palette struct {
	title lipgloss.Style
	label lipgloss.Style
	ok    lipgloss.Style
	warn  lipgloss.Style
	bad   lipgloss.Style
}

func newPalette(cmd *cobra.Command) palette {
	if !isTerminal(cmd.OutOrStdout()) {
		plain := lipgloss.NewStyle()
		return palette{title: plain, label: plain, ok: plain, warn: plain, bad: plain}
	}
	return palette{
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		label: lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		ok:    lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
		warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
		bad:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// field prints one "label: value" line, skipping empty values.
func (p palette) field(w io.Writer, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(w, "  %s %s\n", p.label.Render(fmt.Sprintf("%-14s", label+":")), value)
}
