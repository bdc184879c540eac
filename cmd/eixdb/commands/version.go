package commands

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/PowerDNS/eixdb/eix"
	"github.com/PowerDNS/eixdb/output"
)

var version = "dev"

func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// VersionInfo is printed by the version command with --format
type VersionInfo struct {
	Version          string `json:"version" yaml:"version"`
	FormatVersion    uint32 `json:"format_version" yaml:"format_version"`
	MinFormatVersion uint32 `json:"min_format_version" yaml:"min_format_version"`
	GoVersion        string `json:"go_version" yaml:"go_version"`
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().StringP("format", "f", "", "Print all version details in this format: json, yaml")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the eix cache format versions it reads",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// No config loading for this one
	},
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		vi := VersionInfo{
			Version:          version,
			FormatVersion:    eix.CurrentFormatVersion,
			MinFormatVersion: eix.DefaultMinFormatVersion,
			GoVersion:        runtime.Version(),
		}
		if s, _ := cmd.Flags().GetString("format"); s != "" {
			format, err := output.ParseFormat(s)
			if err != nil {
				return err
			}
			return output.WriteValue(os.Stdout, format, vi)
		}
		fmt.Println(vi.Version)
		fmt.Printf("eix format version %d (default minimum %d)\n",
			vi.FormatVersion, vi.MinFormatVersion)
		return nil
	},
}
