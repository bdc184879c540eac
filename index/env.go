package index

import (
	"os"
	"path/filepath"

	"github.com/PowerDNS/lmdb-go/lmdb"
	"github.com/c2h5oh/datasize"
	"github.com/pkg/errors"
)

const (
	DefaultDirMask  = 0775
	DefaultFileMask = 0664
	// The whole Gentoo tree takes about 60 MB, this leaves plenty of room
	DefaultMapSize = 1 * datasize.GB
	DefaultMaxDBs  = 8
)

// Options configure the LMDB environment of the index.
// This type is also used for the yaml config file.
type Options struct {
	DirMask  os.FileMode       `yaml:"dir_mask"`
	FileMask os.FileMode       `yaml:"file_mask"`
	MapSize  datasize.ByteSize `yaml:"map_size"`
	MaxDBs   int               `yaml:"max_dbs"`
	NoSubdir bool              `yaml:"no_subdir"`
	// ReadOnly opens an existing index without creating it
	ReadOnly bool `yaml:"-"`
	EnvFlags uint `yaml:"-"` // Too dangerous for direct yaml support
}

// WithDefaults returns new Options with defaults set for values that were not set
func (o Options) WithDefaults() Options {
	if o.DirMask == 0 {
		o.DirMask = DefaultDirMask
	}
	if o.FileMask == 0 {
		o.FileMask = DefaultFileMask
	}
	if o.MaxDBs == 0 {
		o.MaxDBs = DefaultMaxDBs
	}
	return o
}

// newEnv opens the LMDB environment at path. Unless ReadOnly is set, the
// directory is created if needed.
// The returned env must be closed after use.
func newEnv(path string, opt Options) (*lmdb.Env, error) {
	opt = opt.WithDefaults()
	env, err := lmdb.NewEnv()
	if err != nil {
		return nil, errors.Wrap(err, "lmdb env: new")
	}

	flags := opt.EnvFlags
	if opt.NoSubdir {
		flags |= lmdb.NoSubdir
	}
	if opt.ReadOnly {
		flags |= lmdb.Readonly
	} else {
		flags |= lmdb.Create
		dirPath := path
		if opt.NoSubdir {
			dirPath, _ = filepath.Split(dirPath)
		}
		if dirPath != "" {
			if err := os.MkdirAll(dirPath, opt.DirMask); err != nil {
				_ = env.Close()
				return nil, errors.Wrap(err, "lmdb env: mkdir")
			}
		}
	}

	// With a zero MapSize LMDB uses the size of the existing file, which is
	// what we want for read-only access
	mapSize := opt.MapSize
	if mapSize == 0 && !opt.ReadOnly {
		mapSize = DefaultMapSize
	}
	if err := env.SetMapSize(int64(mapSize)); err != nil {
		_ = env.Close()
		return nil, errors.Wrap(err, "lmdb env: setmapsize")
	}
	if err := env.SetMaxDBs(opt.MaxDBs); err != nil {
		_ = env.Close()
		return nil, errors.Wrap(err, "lmdb env: setmaxdbs")
	}
	if err := env.Open(path, flags, opt.FileMask); err != nil {
		_ = env.Close()
		return nil, errors.Wrap(err, "lmdb env: open")
	}
	return env, nil
}
