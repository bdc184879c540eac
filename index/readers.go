package index

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PowerDNS/lmdb-go/lmdb"
)

// Reader is an open read transaction on the index, possibly from another
// process like "eixdb query".
type Reader struct {
	PID    int64
	Thread string
	TxnID  int64
}

// ReaderList lists the open readers of an index.
type ReaderList []Reader

// Oldest returns the lowest transaction ID still in use, or -1 if there is
// none. Pages freed after this transaction cannot be reused yet.
func (rl ReaderList) Oldest() int64 {
	var oldest int64 = -1
	for _, r := range rl {
		if r.TxnID <= 0 {
			continue
		}
		if oldest < 0 || r.TxnID < oldest {
			oldest = r.TxnID
		}
	}
	return oldest
}

// MaxAge returns how many transactions the oldest reader lags behind
// lastTxnID, or 0 if there is no reader.
func (rl ReaderList) MaxAge(lastTxnID int64) int64 {
	oldest := rl.Oldest()
	if oldest < 0 {
		return 0
	}
	return lastTxnID - oldest
}

var reReaderFields = regexp.MustCompile(" +")

// parseReaderLines parses the lines of the mdb_reader_list table. Lines
// without a PID are skipped.
func parseReaderLines(lines []string) ReaderList {
	var readers ReaderList
	for i, s := range lines {
		if i == 0 {
			continue // header: "    pid     thread     txnid"
		}
		s = strings.Trim(s, " \n\t")
		parts := reReaderFields.Split(s, -1)
		if len(parts) < 2 {
			continue
		}
		pid, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			continue // "(no active readers)"
		}
		r := Reader{PID: pid, Thread: parts[1]}
		if len(parts) >= 3 {
			r.TxnID, _ = strconv.ParseInt(parts[2], 10, 64)
		}
		readers = append(readers, r)
	}
	return readers
}

func readerList(env *lmdb.Env) (ReaderList, error) {
	var lines []string
	err := env.ReaderList(func(s string) error {
		lines = append(lines, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return parseReaderLines(lines), nil
}

// Readers returns the open readers of the index.
func (ix *Index) Readers() (ReaderList, error) {
	return readerList(ix.env)
}
