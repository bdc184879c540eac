package commands

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/PowerDNS/eixdb/eix"
	"github.com/PowerDNS/eixdb/index"
	"github.com/PowerDNS/eixdb/index/header"
	"github.com/PowerDNS/eixdb/output"
)

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().Bool("force", false, "Import even if the file did not change since the last import")

	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringP("format", "f", "json", "Output format, one of: json, yaml")
	queryCmd.Flags().StringP("output", "o", "", "Output filename instead of stdout")
	queryCmd.Flags().Bool("meta", false, "Print the description of the last import instead")
}

func openIndex(readOnly bool) (*index.Index, error) {
	opt := conf.Index.Options
	opt.ReadOnly = readOnly
	return index.Open(conf.Index.Path, opt, logrus.StandardLogger())
}

var importCmd = &cobra.Command{
	Use:   "import [FILE]",
	Short: "Import all packages into the index",
	Long: `Import all packages into the index, replacing the previous contents.

The import is skipped if the file has the same digest as the last import,
unless --force is given.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, err := cmd.Flags().GetBool("force")
		if err != nil {
			return err
		}
		ix, err := openIndex(false)
		if err != nil {
			return err
		}
		defer ix.Close()

		f, db, err := loadInput(rootCtx, args)
		if err != nil {
			return err
		}
		defer db.Close()

		if !force {
			if m, err := ix.Meta(); err == nil && m.Digest == f.Digest {
				logrus.WithFields(logrus.Fields{
					"source":     f.Name,
					"generation": m.GenerationID,
				}).Info("File unchanged since last import, skipping")
				return nil
			}
		}
		_, err = ix.Import(rootCtx, db, f.IndexSource())
		return err
	},
}

var queryCmd = &cobra.Command{
	Use:   "query NAME...",
	Short: "Look up packages in the index",
	Long: `Look up packages in the index.

A NAME of the form "category/name" returns that package. Any other NAME,
like "sys-libs/" or "dev-", returns all packages with that prefix.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := getFormat(cmd)
		if err != nil {
			return err
		}
		showMeta, err := cmd.Flags().GetBool("meta")
		if err != nil {
			return err
		}
		if !showMeta && len(args) == 0 {
			return cmd.Help()
		}

		ix, err := openIndex(true)
		if err != nil {
			return err
		}
		defer ix.Close()

		if showMeta {
			m, err := ix.Meta()
			if err != nil {
				return err
			}
			return output.WriteValue(os.Stdout, format, m)
		}

		out, closeOut, err := outputFile(cmd)
		if err != nil {
			return err
		}
		pw, err := output.NewPackageWriter(out, format)
		if err != nil {
			_ = closeOut()
			return err
		}
		err = queryIndex(ix, args, pw)
		if err == nil {
			err = pw.Close()
		}
		if cerr := closeOut(); err == nil {
			err = cerr
		}
		return err
	},
}

// isPackageName reports whether name looks like "category/name"
func isPackageName(name string) bool {
	cat, pkg, ok := strings.Cut(name, "/")
	return ok && cat != "" && pkg != "" && !strings.Contains(pkg, "/")
}

func queryIndex(ix *index.Index, names []string, pw output.PackageWriter) error {
	for _, name := range names {
		if isPackageName(name) {
			p, _, err := ix.Get(name)
			if err != nil {
				return err
			}
			if err := pw.Write(p); err != nil {
				return err
			}
			continue
		}
		err := ix.Walk(name, func(p *eix.Package, h header.Header) error {
			return pw.Write(p)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
