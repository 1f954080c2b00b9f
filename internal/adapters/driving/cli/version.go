package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

var versionJSON bool

// buildInfo is what the version command reports.
type buildInfo struct {
	Version string `json:"version"`
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build platform",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := buildInfo{
			Version: version,
			Go:      runtime.Version(),
			OS:      runtime.GOOS,
			Arch:    runtime.GOARCH,
		}
		if versionJSON {
			return writeStructured(cmd.OutOrStdout(), formatJSON, info)
		}
		cmd.Printf("kicad-lcsc version %s (%s, %s/%s)\n", info.Version, info.Go, info.OS, info.Arch)
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(versionCmd)
}
