package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var configJSON bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Read and change settings stored in ~/.kicad-lcsc/config.toml.

Keys:
  library.path, library.symbol_dir, library.symbol_file,
  library.footprint_dir, library.models_dir, library.nickname
  remote.api_timeout, remote.download_timeout (seconds)
  remote.requests_per_minute, remote.min_spacing_ms
  cache.enabled, cache.expiry_days
  preview.max_entries, preview.kicad_cli, preview.size`,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print the effective value of a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if settingsService == nil {
			return fmt.Errorf("config: %w", errNotConfigured)
		}
		v, err := settingsService.Value(args[0])
		if err != nil {
			return err
		}
		cmd.Println(v)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Validate and store a value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if settingsService == nil {
			return fmt.Errorf("config: %w", errNotConfigured)
		}
		if err := settingsService.SetValue(args[0], args[1]); err != nil {
			return err
		}
		cmd.Printf("%s = %s\n", args[0], args[1])
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset [key]",
	Short: "Remove a stored value so the default applies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if settingsService == nil {
			return fmt.Errorf("config: %w", errNotConfigured)
		}
		if err := settingsService.Reset(args[0]); err != nil {
			return err
		}
		v, err := settingsService.Value(args[0])
		if err != nil {
			return err
		}
		cmd.Printf("%s = %s (default)\n", args[0], v)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return fmt.Errorf("config: %w", errNotConfigured)
		}
		cmd.Println(settingsService.Path())
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every key with its effective value",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

func init() {
	configListCmd.Flags().BoolVar(&configJSON, "json", false, "output as JSON")
	configCmd.AddCommand(configGetCmd, configSetCmd, configUnsetCmd, configPathCmd, configListCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return fmt.Errorf("config: %w", errNotConfigured)
	}
	values, err := settingsService.List()
	if err != nil {
		return err
	}
	if configJSON {
		return writeStructured(cmd.OutOrStdout(), formatJSON, values)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := newPalette(cmd)
	for _, k := range keys {
		cmd.Printf("%s = %s\n", p.label.Render(k), values[k])
	}
	return nil
}
