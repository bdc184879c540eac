package commands

import (
	"bytes"
	"io"
	"os"
	"regexp"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

func init() {
	rootCmd.AddCommand(docsCmd)
	docsCmd.Flags().String("dir", "", "Write one markdown file per command into this directory")
}

var docsCmd = &cobra.Command{
	Use:          "docs",
	Short:        "Generate markdown documentation for all commands",
	Long:         "Generate markdown documentation for all commands, as a single page on stdout or as a tree of files.",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := cmd.Flags().GetString("dir")
		if err != nil {
			return err
		}
		if dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
			rootCmd.DisableAutoGenTag = true
			return doc.GenMarkdownTree(rootCmd, dir)
		}
		return genDocsPage(rootCmd, os.Stdout)
	},
}

// seeAlsoRe matches the sections that repeat on every command of a single page
var seeAlsoRe = regexp.MustCompile(`(?s)### (SEE ALSO|Options inherited from parent commands).*`)

// genDocsPage writes the docs of cmd and its subcommands as one page
func genDocsPage(cmd *cobra.Command, w io.Writer) error {
	if cmd.Name() == "completion" || cmd.Hidden {
		return nil
	}
	var b bytes.Buffer
	if err := doc.GenMarkdown(cmd, &b); err != nil {
		return err
	}
	if _, err := w.Write(seeAlsoRe.ReplaceAll(b.Bytes(), nil)); err != nil {
		return err
	}
	for _, c := range cmd.Commands() {
		if err := genDocsPage(c, w); err != nil {
			return err
		}
	}
	return nil
}
