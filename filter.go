package xdisrocksdb

import (
	"bytes"
	"sync/atomic"
	"time"

	"github.com/linxGnu/grocksdb"
)

// metaReader resolves the live meta row for a user key during
// compaction. Compaction filters must be handed to rocksdb before the
// database is open, so the reader starts unbound and Bind is called
// once the handles exist. Until then every lookup reports "not ready"
// and the filters keep all rows.
type metaReader struct {
	bound  atomic.Bool
	db     *grocksdb.DB
	metaCF *grocksdb.ColumnFamilyHandle
	ro     *grocksdb.ReadOptions
}

func newMetaReader() *metaReader {
	return &metaReader{}
}

func (r *metaReader) Bind(db *grocksdb.DB, metaCF *grocksdb.ColumnFamilyHandle) {
	r.db = db
	r.metaCF = metaCF
	ro := grocksdb.NewDefaultReadOptions()
	ro.SetFillCache(false)
	r.ro = ro
	r.bound.Store(true)
}

func (r *metaReader) Close() {
	if r.bound.CompareAndSwap(true, false) && r.ro != nil {
		r.ro.Destroy()
	}
}

// Get returns the decoded meta row for key. found is false when the
// key has no meta row. ok is false when the reader is unbound or the
// lookup failed, in which case the caller must keep the row.
func (r *metaReader) Get(key []byte) (meta MetaValue, found bool, ok bool) {
	if !r.bound.Load() {
		return MetaValue{}, false, false
	}
	v, err := r.db.GetCF(r.ro, r.metaCF, key)
	if err != nil {
		return MetaValue{}, false, false
	}
	defer v.Free()
	if !v.Exists() {
		return MetaValue{}, false, true
	}
	meta, err = DecodeMetaValue(v.Data())
	if err != nil {
		return MetaValue{}, false, false
	}
	return meta, true, true
}

// metaCompactionFilter reclaims meta rows that are logically dead and
// old enough that no in-flight write can still resurrect the same
// version. Versions are wall-clock seconds, so a row whose version is
// the current second is left for the next compaction.
type metaCompactionFilter struct{}

func (f *metaCompactionFilter) Name() string { return "xdis.zset.meta-filter" }

func (f *metaCompactionFilter) Filter(level int, key, val []byte) (remove bool, newVal []byte) {
	meta, err := DecodeMetaValue(val)
	if err != nil {
		return false, nil
	}
	if meta.Version >= uint32(time.Now().Unix()) {
		return false, nil
	}
	if meta.Count == 0 {
		return true, nil
	}
	if meta.Timestamp != 0 && int64(meta.Timestamp) <= time.Now().Unix() {
		return true, nil
	}
	return false, nil
}

// dataCompactionFilter reclaims data and score cf rows whose meta is
// gone, stale, or on a newer version. Both cfs carry the same
// ksize | key | version prefix, so one filter serves either cf.
//
// Compaction hands rows over in key order, so consecutive rows of the
// same zset hit the cache instead of the meta cf.
type dataCompactionFilter struct {
	name   string
	reader *metaReader

	curKey     []byte
	curFound   bool
	curOK      bool
	curVersion uint32
	curStale   bool
}

func newDataCompactionFilter(name string, reader *metaReader) *dataCompactionFilter {
	return &dataCompactionFilter{name: name, reader: reader}
}

func (f *dataCompactionFilter) Name() string { return f.name }

func (f *dataCompactionFilter) Filter(level int, key, val []byte) (remove bool, newVal []byte) {
	userKey, version, _, err := zDecodeMemberKey(key)
	if err != nil {
		return false, nil
	}

	if !bytes.Equal(userKey, f.curKey) {
		f.curKey = append(f.curKey[:0], userKey...)
		meta, found, ok := f.reader.Get(userKey)
		f.curFound = found
		f.curOK = ok
		f.curVersion = meta.Version
		f.curStale = found && meta.IsStale()
	}

	if !f.curOK {
		return false, nil
	}
	if !f.curFound {
		return true, nil
	}
	if version != f.curVersion {
		return true, nil
	}
	if f.curStale {
		return true, nil
	}
	return false, nil
}
