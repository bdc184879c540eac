package commands

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/PowerDNS/eixdb/eix"
	"github.com/PowerDNS/eixdb/output"
)

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().StringP("format", "f", "json", "Output format, one of: json, yaml")
	dumpCmd.Flags().StringP("output", "o", "", "Output filename instead of stdout")
	addFilterFlags(dumpCmd)

	rootCmd.AddCommand(versionsCmd)
	versionsCmd.Flags().StringP("output", "o", "", "Output filename instead of stdout")
	addFilterFlags(versionsCmd)
}

// walkInput decodes the input file and writes all packages selected by the
// filter flags to the writer returned by newWriter.
func walkInput(cmd *cobra.Command, args []string, newWriter func(w io.Writer) (output.PackageWriter, error)) error {
	filter, err := getFilter(cmd)
	if err != nil {
		return err
	}
	_, db, err := loadInput(rootCtx, args)
	if err != nil {
		return err
	}
	defer db.Close()

	out, closeOut, err := outputFile(cmd)
	if err != nil {
		return err
	}
	pw, err := newWriter(out)
	if err != nil {
		_ = closeOut()
		return err
	}

	var count int
	cursor := db.Cursor()
	err = cursor.Walk(func(p *eix.Package) error {
		if err := rootCtx.Err(); err != nil {
			return err
		}
		p, ok := filter.Apply(p)
		if !ok {
			return nil
		}
		count++
		return pw.Write(p)
	})
	if err == nil {
		err = pw.Close()
	}
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	st := cursor.Stats()
	logrus.WithFields(logrus.Fields{
		"written":  count,
		"packages": st.Packages,
		"versions": st.Versions,
	}).Debug("Done")
	return nil
}

var dumpCmd = &cobra.Command{
	Use:   "dump [FILE]",
	Short: "Dump all packages as JSON or YAML",
	Long: `Dump all packages as JSON or YAML.

The JSON output is a single array of packages with all their versions.
FILE defaults to database.path from the config.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := getFormat(cmd)
		if err != nil {
			return err
		}
		return walkInput(cmd, args, func(w io.Writer) (output.PackageWriter, error) {
			return output.NewPackageWriter(w, format)
		})
	},
}

var versionsCmd = &cobra.Command{
	Use:   "versions [FILE]",
	Short: "Print a table with the flags of all package versions",
	Long: `Print a table with one line per package version:

  ` + output.VersionsHeader + `

Flags are printed as decimal numbers, overlay is the overlay key and repo
its label.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return walkInput(cmd, args, func(w io.Writer) (output.PackageWriter, error) {
			return output.NewVersionsTable(w), nil
		})
	},
}
