package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/PowerDNS/eixdb/eix"
	"github.com/PowerDNS/eixdb/output"
)

func init() {
	rootCmd.AddCommand(headerCmd)
	headerCmd.Flags().StringP("format", "f", "yaml", "Output format, one of: json, yaml")

	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringP("format", "f", "yaml", "Output format, one of: json, yaml")
}

var headerCmd = &cobra.Command{
	Use:          "header [FILE]",
	Short:        "Print the file header: format version, overlays, features and string tables",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := getFormat(cmd)
		if err != nil {
			return err
		}
		_, db, err := loadInput(rootCtx, args)
		if err != nil {
			return err
		}
		defer db.Close()
		return output.WriteValue(os.Stdout, format, output.NewHeaderInfo(db.Header()))
	},
}

var statsCmd = &cobra.Command{
	Use:          "stats [FILE]",
	Short:        "Decode all packages and print totals",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := getFormat(cmd)
		if err != nil {
			return err
		}
		f, db, err := loadInput(rootCtx, args)
		if err != nil {
			return err
		}
		defer db.Close()

		st := output.Stats{
			Source:        f.Name,
			Compression:   db.Compression().String(),
			FormatVersion: db.Header().Version,
			FileSize:      f.Size(),
		}
		cursor := db.Cursor()
		err = cursor.Walk(func(p *eix.Package) error {
			st.Add(p)
			return rootCtx.Err()
		})
		if err != nil {
			return err
		}
		st.SetCursorStats(cursor.Stats())
		return output.WriteValue(os.Stdout, format, st)
	},
}
