// Package index stores decoded eix packages in an LMDB database for fast
// lookups by name.
//
// The "packages" DBI maps "category/name" to a header.Header followed by
// the protobuf encoded package. Every import replaces all packages in a
// single write transaction, so readers always see a complete import.
// The "meta" DBI describes the last import.
package index

import (
	"bytes"
	"context"
	"math"
	"time"

	"github.com/PowerDNS/lmdb-go/lmdb"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/PowerDNS/eixdb/eix"
	"github.com/PowerDNS/eixdb/index/header"
)

const (
	DBIPackages = "packages"
	DBIMeta     = "meta"

	metaKey = "last_import"

	// ctxCheckInterval is the number of packages between context checks
	ctxCheckInterval = 256
)

var (
	ErrNotFound = errors.New("package not found")
	ErrNoIndex  = errors.New("index is empty, run an import first")
)

// Index is a persistent package index.
type Index struct {
	env  *lmdb.Env
	path string
	opt  Options
	l    logrus.FieldLogger
}

// Open opens or creates the index at path. It must be closed after use.
func Open(path string, opt Options, l logrus.FieldLogger) (*Index, error) {
	env, err := newEnv(path, opt)
	if err != nil {
		return nil, err
	}
	ix := &Index{
		env:  env,
		path: path,
		opt:  opt,
		l: l.WithFields(logrus.Fields{
			"component": "index",
			"path":      path,
		}),
	}
	if !opt.ReadOnly {
		err := env.Update(func(txn *lmdb.Txn) error {
			for _, name := range []string{DBIPackages, DBIMeta} {
				if _, err := txn.OpenDBI(name, lmdb.Create); err != nil {
					return errors.Wrap(err, "create dbi "+name)
				}
			}
			return nil
		})
		if err != nil {
			_ = env.Close()
			return nil, err
		}
	}
	lmdbCollector.add(path, env)
	return ix, nil
}

// Close closes the LMDB environment.
func (ix *Index) Close() error {
	lmdbCollector.remove(ix.path)
	return ix.env.Close()
}

// Path returns the LMDB path.
func (ix *Index) Path() string {
	return ix.path
}

// Source describes the file an import comes from.
type Source struct {
	Name   string
	Digest uint64 // eix.Digest of the raw file, 0 if unknown
}

// Import replaces the contents of the index with all remaining packages of
// db. Nothing is changed if the import fails.
func (ix *Index) Import(ctx context.Context, db *eix.Database, src Source) (Meta, error) {
	if ix.opt.ReadOnly {
		return Meta{}, errors.New("index opened read-only")
	}
	t0 := time.Now()
	h := db.Header()
	m := Meta{
		GenerationID:  uuid.NewString(),
		Source:        src.Name,
		FormatVersion: h.Version,
		Digest:        src.Digest,
		TimestampNano: uint64(t0.UnixNano()),
	}

	err := ix.env.Update(func(txn *lmdb.Txn) error {
		pkgDBI, err := txn.OpenDBI(DBIPackages, lmdb.Create)
		if err != nil {
			return errors.Wrap(err, "open dbi "+DBIPackages)
		}
		metaDBI, err := txn.OpenDBI(DBIMeta, lmdb.Create)
		if err != nil {
			return errors.Wrap(err, "open dbi "+DBIMeta)
		}
		// Empty the DBI, but keep it
		if err := txn.Drop(pkgDBI, false); err != nil {
			return errors.Wrap(err, "clear packages")
		}

		var buf []byte
		cursor := db.Cursor()
		err = cursor.Walk(func(p *eix.Package) error {
			if m.Packages%ctxCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			hdr := header.Header{
				Timestamp:     t0,
				FormatVersion: h.Version,
				Flags:         packageFlags(p),
				NumVersions:   uint16(min(len(p.Versions), math.MaxUint16)),
			}
			buf = hdr.AppendTo(buf[:0], MarshalPackage(p))
			if err := txn.Put(pkgDBI, []byte(p.FullName()), buf, 0); err != nil {
				return errors.Wrapf(err, "put %s", p.FullName())
			}
			m.Packages++
			m.Versions += uint64(len(p.Versions))
			for _, v := range p.Versions {
				if v.IsInstalled() {
					m.Installed++
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		st := cursor.Stats()
		m.Categories = st.Categories
		m.SourceBytes = uint64(st.Bytes)
		if err := txn.Put(metaDBI, []byte(metaKey), m.Marshal(), 0); err != nil {
			return errors.Wrap(err, "put meta")
		}
		return nil
	})
	if err != nil {
		metricImports.WithLabelValues("failed").Inc()
		return Meta{}, err
	}

	dt := time.Since(t0)
	metricImports.WithLabelValues("ok").Inc()
	metricImportDuration.Observe(dt.Seconds())
	metricImportLastTimestamp.Set(float64(t0.Unix()))
	metricPackages.Set(float64(m.Packages))
	metricVersions.Set(float64(m.Versions))

	ix.l.WithFields(logrus.Fields{
		"source":     m.Source,
		"generation": m.GenerationID,
		"packages":   m.Packages,
		"versions":   m.Versions,
		"time":       dt.Round(time.Millisecond),
	}).Info("Imported packages")
	return m, nil
}

func packageFlags(p *eix.Package) uint8 {
	var flags uint8
	masked := len(p.Versions) > 0
	for _, v := range p.Versions {
		if v.IsInstalled() {
			flags |= header.FlagInstalled
		}
		if v.Mask()&eix.MaskHard == 0 {
			masked = false
		}
	}
	if masked {
		flags |= header.FlagMasked
	}
	return flags
}

// Get returns the package with given "category/name".
func (ix *Index) Get(name string) (*eix.Package, header.Header, error) {
	var (
		p   *eix.Package
		hdr header.Header
	)
	err := ix.env.View(func(txn *lmdb.Txn) error {
		dbi, err := ix.openDBI(txn, DBIPackages)
		if err != nil {
			return err
		}
		val, err := txn.Get(dbi, []byte(name))
		if err != nil {
			if lmdb.IsNotFound(err) {
				return ErrNotFound
			}
			return errors.Wrap(err, "get")
		}
		var data []byte
		hdr, data, err = header.Parse(val)
		if err != nil {
			return errors.Wrap(err, name)
		}
		p, err = UnmarshalPackage(data)
		if err != nil {
			return errors.Wrap(err, name)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metricLookups.WithLabelValues("not_found").Inc()
		} else {
			metricLookups.WithLabelValues("error").Inc()
		}
		return nil, hdr, err
	}
	metricLookups.WithLabelValues("ok").Inc()
	return p, hdr, nil
}

// WalkFunc is called for every package by Walk.
type WalkFunc func(p *eix.Package, h header.Header) error

// Walk calls fn for all packages whose "category/name" starts with prefix,
// in name order.
func (ix *Index) Walk(prefix string, fn WalkFunc) error {
	return ix.env.View(func(txn *lmdb.Txn) error {
		dbi, err := ix.openDBI(txn, DBIPackages)
		if err != nil {
			return err
		}
		c, err := txn.OpenCursor(dbi)
		if err != nil {
			return errors.Wrap(err, "open cursor")
		}
		defer c.Close()

		var (
			key  []byte
			flag uint = lmdb.First
		)
		if prefix != "" {
			key = []byte(prefix)
			flag = lmdb.SetRange
		}
		for {
			k, v, err := c.Get(key, nil, flag)
			if err != nil {
				if lmdb.IsNotFound(err) {
					return nil // done
				}
				return errors.Wrap(err, "cursor next")
			}
			key, flag = nil, lmdb.Next
			if !bytes.HasPrefix(k, []byte(prefix)) {
				return nil
			}
			hdr, data, err := header.Parse(v)
			if err != nil {
				return errors.Wrap(err, string(k))
			}
			p, err := UnmarshalPackage(data)
			if err != nil {
				return errors.Wrap(err, string(k))
			}
			if err := fn(p, hdr); err != nil {
				return err
			}
		}
	})
}

// Meta returns the description of the last import.
func (ix *Index) Meta() (Meta, error) {
	var m Meta
	err := ix.env.View(func(txn *lmdb.Txn) error {
		dbi, err := ix.openDBI(txn, DBIMeta)
		if err != nil {
			return err
		}
		val, err := txn.Get(dbi, []byte(metaKey))
		if err != nil {
			if lmdb.IsNotFound(err) {
				return ErrNoIndex
			}
			return errors.Wrap(err, "get meta")
		}
		return m.Unmarshal(val)
	})
	return m, err
}

// openDBI opens an existing DBI. A missing DBI means nothing was imported.
func (ix *Index) openDBI(txn *lmdb.Txn, name string) (lmdb.DBI, error) {
	dbi, err := txn.OpenDBI(name, 0)
	if err != nil {
		if lmdb.IsNotFound(err) {
			return dbi, ErrNoIndex
		}
		return dbi, errors.Wrap(err, "open dbi "+name)
	}
	return dbi, nil
}
