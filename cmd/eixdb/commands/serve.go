package commands

import (
	"context"
	"errors"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/wojas/go-healthz"
	"golang.org/x/sync/errgroup"

	"github.com/PowerDNS/eixdb/source"
	"github.com/PowerDNS/eixdb/status"
	"github.com/PowerDNS/eixdb/status/healthtracker"
	"github.com/PowerDNS/eixdb/status/starttracker"
)

var onlyOnce bool

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&onlyOnce, "only-once", false, "Only do a single import and exit")
}

func runServe(args []string) error {
	ctx, cancel := context.WithCancel(rootCtx)
	defer cancel()

	st, err := openStorage(ctx)
	if err != nil {
		return err
	}
	name := inputName(args)
	if name == source.Stdin {
		return errors.New("serve cannot poll stdin")
	}
	if source.IsBlob(name) && st == nil {
		return source.ErrNoStorage
	}

	l := logrus.WithField("component", "reload")
	ix, err := openIndex(false)
	if err != nil {
		return err
	}
	defer func() {
		if err := ix.Close(); err != nil {
			l.WithError(err).Error("Index close failed")
		}
	}()

	r := &reloader{
		name:   name,
		loader: source.Loader{Storage: st},
		ix:     ix,
		opt:    conf.Database.Options,
		l:      l.WithField("source", name),
	}
	if onlyOnce {
		logrus.Info("Not starting the HTTP server, because --only-once is set")
		r.init()
		_, err := r.check(ctx)
		return err
	}

	r.health = healthtracker.New(conf.Serve.Health, "reload", "reload the cache file", l)
	r.startup = starttracker.New(conf.Serve.Startup, "serve", l)
	r.server = status.New(conf, ix, status.Options{
		Storage: st,
		Reload:  r.health,
		Startup: r.startup,
	}, logrus.StandardLogger())

	healthz.AddBuildInfo()
	if hostname, err := os.Hostname(); err == nil {
		healthz.SetMeta("hostname", hostname)
	}
	healthz.SetMeta("version", version)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		err := r.run(ctx, conf.Serve.PollInterval)
		if errors.Is(err, context.Canceled) {
			l.Info("Reload loop stopped")
		}
		return err
	})
	eg.Go(func() error {
		return r.server.Run(ctx)
	})
	logrus.Info("Serving")
	return eg.Wait()
}

var serveCmd = &cobra.Command{
	Use:   "serve [FILE]",
	Short: "Keep the index up to date and serve it over HTTP",
	Long: `Keep the index up to date and serve it over HTTP.

The cache file is checked every poll interval and imported when its
contents changed.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(args); err != nil {
			logrus.WithError(err).Fatal("Error")
		}
	},
}
