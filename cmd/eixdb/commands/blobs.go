package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/PowerDNS/simpleblob"
	"github.com/c2h5oh/datasize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/PowerDNS/eixdb/eix"
	"github.com/PowerDNS/eixdb/source"
)

// blobTimeout limits remote storage operations
const blobTimeout = 5 * time.Minute

func init() {
	rootCmd.AddCommand(blobsCmd)

	blobsCmd.AddCommand(blobsListCmd)
	blobsListCmd.Flags().StringP("prefix", "p", "", "Prefix filter")
	blobsListCmd.Flags().BoolP("long", "l", false, "Add extra information, like size")
	blobsListCmd.Flags().BoolP("size", "S", false, "Sort by size, largest first")

	blobsCmd.AddCommand(blobsRemoveCmd)

	blobsCmd.AddCommand(blobsGetCmd)
	blobsGetCmd.Flags().StringP("output", "o", "",
		"Output filename, if not the same as the remote name")

	blobsCmd.AddCommand(blobsPutCmd)
	blobsPutCmd.Flags().StringP("name", "n", "",
		"Name to store the file as, if different from the local name")
	blobsPutCmd.Flags().Bool("force", false, "Upload a file that is not a valid eix cache file")
}

// mustStorage opens the configured storage, which is required
func mustStorage(ctx context.Context) (simpleblob.Interface, error) {
	st, err := openStorage(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, source.ErrNoStorage
	}
	return st, nil
}

var blobsCmd = &cobra.Command{
	Use:   "blobs",
	Short: "Remote cache file operations (list, get, put, remove)",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var blobsListCmd = &cobra.Command{
	Use:          "list",
	Short:        "List cache files in storage",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(rootCtx, time.Minute)
		defer cancel()

		prefix, err := cmd.Flags().GetString("prefix")
		if err != nil {
			return err
		}
		long, err := cmd.Flags().GetBool("long")
		if err != nil {
			return err
		}
		bySize, err := cmd.Flags().GetBool("size")
		if err != nil {
			return err
		}

		st, err := mustStorage(ctx)
		if err != nil {
			return err
		}
		list, err := st.List(ctx, prefix)
		if err != nil {
			return err
		}
		if bySize {
			sort.SliceStable(list, func(i, j int) bool {
				return list[i].Size > list[j].Size
			})
		}

		for _, blob := range list {
			if long {
				fmt.Printf("%10s\t%s\n",
					datasize.ByteSize(blob.Size).HumanReadable(), source.BlobPrefix+blob.Name)
			} else {
				fmt.Printf("%s\n", source.BlobPrefix+blob.Name)
			}
		}
		return nil
	},
}

var blobsRemoveCmd = &cobra.Command{
	Use:          "remove NAME",
	Short:        "Remove a cache file from storage",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(rootCtx, time.Minute)
		defer cancel()

		st, err := mustStorage(ctx)
		if err != nil {
			return err
		}
		return st.Delete(ctx, blobName(args[0]))
	},
}

var blobsGetCmd = &cobra.Command{
	Use:          "get NAME",
	Short:        "Download a cache file",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(rootCtx, blobTimeout)
		defer cancel()

		name := blobName(args[0])
		outName, err := cmd.Flags().GetString("output")
		if err != nil {
			return err
		}
		if outName == "" {
			outName = filepath.Base(name)
		}

		st, err := mustStorage(ctx)
		if err != nil {
			return err
		}
		data, err := st.Load(ctx, name)
		if err != nil {
			return err
		}
		return os.WriteFile(outName, data, 0666)
	},
}

var blobsPutCmd = &cobra.Command{
	Use:          "put FILE",
	Short:        "Upload a cache file",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(rootCtx, blobTimeout)
		defer cancel()

		name, err := cmd.Flags().GetString("name")
		if err != nil {
			return err
		}
		if name == "" {
			name = filepath.Base(args[0])
		}
		name = blobName(name)
		force, err := cmd.Flags().GetBool("force")
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		if err := checkCacheFile(data); err != nil {
			if !force {
				return fmt.Errorf(
					"not a valid eix cache file (use --force to skip this check): %v", err)
			}
			logrus.WithError(err).Warn("Invalid cache file forced")
		}

		st, err := mustStorage(ctx)
		if err != nil {
			return err
		}
		return st.Store(ctx, name, data)
	},
}

// blobName strips the optional blob prefix
func blobName(name string) string {
	if source.IsBlob(name) {
		return name[len(source.BlobPrefix):]
	}
	return name
}

// checkCacheFile checks that the data holds a readable header. The minimum
// format version is not enforced, the reader decides what it accepts.
func checkCacheFile(data []byte) error {
	db, err := eix.LoadData(data, eix.Options{})
	if err != nil {
		return err
	}
	return db.Close()
}
