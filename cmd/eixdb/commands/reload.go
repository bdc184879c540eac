package commands

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/PowerDNS/eixdb/eix"
	"github.com/PowerDNS/eixdb/index"
	"github.com/PowerDNS/eixdb/source"
	"github.com/PowerDNS/eixdb/status"
	"github.com/PowerDNS/eixdb/status/healthtracker"
	"github.com/PowerDNS/eixdb/status/starttracker"
	"github.com/PowerDNS/eixdb/utils"
)

// reloader imports the cache file into the index whenever its contents
// change.
type reloader struct {
	name    string
	loader  source.Loader
	ix      *index.Index
	opt     eix.Options
	health  *healthtracker.HealthTracker // optional
	startup *starttracker.StartTracker   // optional
	server  *status.Server               // optional
	l       logrus.FieldLogger

	lastDigest uint64
}

// init picks up the digest of an earlier import, so that an unchanged file
// is not imported again after a restart.
func (r *reloader) init() {
	m, err := r.ix.Meta()
	if err != nil {
		r.l.WithError(err).Info("No earlier import found")
		return
	}
	r.lastDigest = m.Digest
	r.l.WithFields(logrus.Fields{
		"source":     m.Source,
		"generation": m.GenerationID,
		"imported":   m.Time().Format(time.RFC3339),
	}).Info("Found earlier import")
	if r.startup != nil {
		r.startup.SetPassedInitialImport()
	}
}

// check loads the file and imports it if it changed. It returns whether an
// import was done.
func (r *reloader) check(ctx context.Context) (changed bool, err error) {
	defer func() {
		if r.server != nil {
			r.server.SetLastCheck(status.Check{
				Time:    time.Now(),
				Source:  r.name,
				Changed: changed,
				Err:     err,
			})
		}
		if r.health != nil && ctx.Err() == nil {
			if err != nil {
				r.health.AddFailure(err)
			} else {
				r.health.AddSuccess()
			}
		}
	}()

	f, err := r.loader.Load(ctx, r.name)
	if err != nil {
		return false, err
	}
	if r.lastDigest != 0 && f.Digest == r.lastDigest {
		r.l.Debug("Cache file unchanged")
		return false, nil
	}
	db, err := f.Open(r.opt)
	if err != nil {
		return false, err
	}
	defer db.Close()
	if _, err := r.ix.Import(ctx, db, f.IndexSource()); err != nil {
		return false, err
	}
	r.lastDigest = f.Digest
	if r.startup != nil {
		r.startup.SetPassedInitialImport()
	}
	mem := utils.ReleaseMemory()
	r.l.WithFields(logrus.Fields{
		"time_gc":  mem.Duration,
		"freed":    mem.Freed(),
		"released": mem.Released,
	}).Debug("Released memory after import")
	return true, nil
}

// run checks the file every interval until the context is canceled.
func (r *reloader) run(ctx context.Context, interval time.Duration) error {
	r.init()
	for {
		if _, err := r.check(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.l.WithError(err).Error("Reload failed")
		}
		if err := utils.SleepJitter(ctx, interval); err != nil {
			return err
		}
	}
}
