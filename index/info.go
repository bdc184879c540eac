package index

import (
	"github.com/PowerDNS/lmdb-go/lmdb"
	"github.com/c2h5oh/datasize"
	"github.com/pkg/errors"
)

// Info describes the LMDB environment of the index.
type Info struct {
	MapSize    datasize.ByteSize
	FileSize   datasize.ByteSize
	Used       datasize.ByteSize
	NumReaders int
	MaxReaders int
	LastTxnID  int64
	ReaderLag  int64 // transactions the oldest reader lags behind
	DBIs       []DBIInfo
}

// DBIInfo describes a single named database.
type DBIInfo struct {
	Name    string
	Entries uint64
	Used    datasize.ByteSize
}

// UsedPercent returns the used part of the map size.
func (i Info) UsedPercent() float64 {
	if i.MapSize == 0 {
		return 0
	}
	return 100 * float64(i.Used) / float64(i.MapSize)
}

// Info returns environment statistics. DBIs that do not exist yet are
// left out.
func (ix *Index) Info() (Info, error) {
	var info Info
	envInfo, err := ix.env.Info()
	if err != nil {
		return info, errors.Wrap(err, "env info")
	}
	info.MapSize = datasize.ByteSize(envInfo.MapSize)
	info.NumReaders = int(envInfo.NumReaders)
	info.MaxReaders = int(envInfo.MaxReaders)
	info.LastTxnID = envInfo.LastTxnID

	readers, err := readerList(ix.env)
	if err != nil {
		return info, errors.Wrap(err, "reader list")
	}
	info.ReaderLag = readers.MaxAge(info.LastTxnID)

	path, err := ix.env.Path()
	if err != nil {
		return info, errors.Wrap(err, "env path")
	}
	size, err := lmdbFileSize(path)
	if err != nil {
		return info, err
	}
	info.FileSize = datasize.ByteSize(size)

	err = ix.env.View(func(txn *lmdb.Txn) error {
		for _, name := range []string{DBIPackages, DBIMeta} {
			dbi, err := txn.OpenDBI(name, 0)
			if err != nil {
				if lmdb.IsNotFound(err) {
					continue
				}
				return errors.Wrap(err, "open dbi "+name)
			}
			st, err := txn.Stat(dbi)
			if err != nil {
				return errors.Wrap(err, "stat "+name)
			}
			di := DBIInfo{
				Name:    name,
				Entries: st.Entries,
				Used:    datasize.ByteSize(pageUsageBytes(st)),
			}
			info.DBIs = append(info.DBIs, di)
			info.Used += di.Used
		}
		return nil
	})
	return info, err
}

// pageUsageBytes returns the bytes used by all pages of a DBI
func pageUsageBytes(st *lmdb.Stat) uint64 {
	return uint64(st.PSize) * (st.BranchPages + st.LeafPages + st.OverflowPages)
}
