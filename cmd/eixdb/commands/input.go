package commands

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/PowerDNS/simpleblob"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/PowerDNS/eixdb/eix"
	"github.com/PowerDNS/eixdb/output"
	"github.com/PowerDNS/eixdb/source"
)

// openStorage returns the configured storage backend, or nil if none is
// configured.
func openStorage(ctx context.Context) (simpleblob.Interface, error) {
	if conf.Storage.Type == "" {
		return nil, nil
	}
	st, err := simpleblob.GetBackend(ctx, conf.Storage.Type, conf.Storage.Options)
	if err != nil {
		return nil, err
	}
	logrus.WithField("storage_type", conf.Storage.Type).Debug("Storage backend initialised")
	return st, nil
}

// inputName returns the file argument, or the configured database path.
func inputName(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return conf.Database.Path
}

// loadInput loads the input file and decodes its header. The storage is
// only opened for blob names.
func loadInput(ctx context.Context, args []string) (*source.File, *eix.Database, error) {
	name := inputName(args)
	var l source.Loader
	if source.IsBlob(name) {
		st, err := openStorage(ctx)
		if err != nil {
			return nil, nil, err
		}
		l.Storage = st
	}
	f, err := l.Load(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	db, err := f.Open(conf.Database.Options)
	if err != nil {
		return nil, nil, err
	}
	logrus.WithFields(logrus.Fields{
		"file":           f.Name,
		"size":           f.Size().HumanReadable(),
		"compression":    db.Compression(),
		"format_version": db.Header().Version,
	}).Debug("Opened cache file")
	return f, db, nil
}

// outputFile opens the --output file, or stdout. The returned close
// function flushes and closes it.
func outputFile(cmd *cobra.Command) (io.Writer, func() error, error) {
	name, err := cmd.Flags().GetString("output")
	if err != nil {
		return nil, nil, err
	}
	if name == "" || name == "-" {
		// Buffered output speeds things up
		out := bufio.NewWriter(os.Stdout)
		return out, out.Flush, nil
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, nil, err
	}
	out := bufio.NewWriter(f)
	return out, func() error {
		if err := out.Flush(); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	}, nil
}

// addFilterFlags adds the flags read by getFilter
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("category", nil, "Only include these categories (repeatable)")
	cmd.Flags().String("prefix", "", "Only include packages whose 'category/name' starts with this prefix")
	cmd.Flags().Bool("installed", false, "Only include installed versions")
	cmd.Flags().Bool("masked", false, "Only include hard masked versions")
}

func getFilter(cmd *cobra.Command) (f output.Filter, err error) {
	if f.Categories, err = cmd.Flags().GetStringSlice("category"); err != nil {
		return f, err
	}
	if f.Prefix, err = cmd.Flags().GetString("prefix"); err != nil {
		return f, err
	}
	if f.Installed, err = cmd.Flags().GetBool("installed"); err != nil {
		return f, err
	}
	if f.Masked, err = cmd.Flags().GetBool("masked"); err != nil {
		return f, err
	}
	return f, nil
}

func getFormat(cmd *cobra.Command) (output.Format, error) {
	s, err := cmd.Flags().GetString("format")
	if err != nil {
		return "", err
	}
	return output.ParseFormat(s)
}
