package xdisrocksdb

import (
	"context"

	"github.com/gobwas/glob"
	"github.com/linxGnu/grocksdb"

	"github.com/weedge/xdis-rocksdb/config"
)

// DB owns one rocksdb instance with the three zset column families
// and everything the command surface needs around it.
type DB struct {
	rdb *grocksdb.DB
	cfs [cfCount]*grocksdb.ColumnFamilyHandle

	reader  *metaReader
	locker  *keyLocker
	cursors *zScanCursorStore

	wo *grocksdb.WriteOptions
	ro *grocksdb.ReadOptions

	cfOpts []*grocksdb.Options
	dbOpts *grocksdb.Options
}

// Open opens (creating if missing) the database under opts.DataDir.
//
// Bootstrap is two phase: the compaction filters are registered on the
// column family options before the database exists, so they start
// unbound and keep everything; once the handles are back the meta
// reader is bound and later compactions reclaim dead rows.
func Open(opts *config.StoragerOptions) (*DB, error) {
	db := &DB{
		reader: newMetaReader(),
		locker: newKeyLocker(),
	}

	cursors, err := newZScanCursorStore(opts.ZScanCursorCacheSize)
	if err != nil {
		return nil, err
	}
	db.cursors = cursors

	rocksOpts := &opts.RocksDB

	db.dbOpts = grocksdb.NewDefaultOptions()
	db.dbOpts.SetCreateIfMissing(true)
	db.dbOpts.SetCreateIfMissingColumnFamilies(true)
	db.dbOpts.SetMaxBackgroundJobs(rocksOpts.MaxBackgroundJobs)

	metaOpts := newCFOptions(rocksOpts)
	metaOpts.SetCompactionFilter(&metaCompactionFilter{})

	dataOpts := newCFOptions(rocksOpts)
	dataOpts.SetCompactionFilter(newDataCompactionFilter("xdis.zset.data-filter", db.reader))

	scoreOpts := newCFOptions(rocksOpts)
	scoreOpts.SetComparator(NewScoreKeyComparator())
	scoreOpts.SetCompactionFilter(newDataCompactionFilter("xdis.zset.score-filter", db.reader))

	db.cfOpts = []*grocksdb.Options{metaOpts, dataOpts, scoreOpts}

	names := []string{MetaCFName, DataCFName, ScoreCFName}
	rdb, handles, err := grocksdb.OpenDbColumnFamilies(db.dbOpts, rocksOpts.DataDir, names, db.cfOpts)
	if err != nil {
		return nil, err
	}

	db.rdb = rdb
	copy(db.cfs[:], handles)
	db.reader.Bind(rdb, db.cfs[metaCFIndex])

	db.wo = grocksdb.NewDefaultWriteOptions()
	db.ro = grocksdb.NewDefaultReadOptions()

	return db, nil
}

func newCFOptions(opts *config.RocksDBOptions) *grocksdb.Options {
	o := grocksdb.NewDefaultOptions()
	o.SetWriteBufferSize(opts.WriteBufferSize)

	bbto := grocksdb.NewDefaultBlockBasedTableOptions()
	bbto.SetBlockCache(grocksdb.NewLRUCache(opts.BlockCacheSize))
	if opts.BloomFilterBits > 0 {
		bbto.SetFilterPolicy(grocksdb.NewBloomFilterFull(float64(opts.BloomFilterBits)))
		bbto.SetWholeKeyFiltering(true)
	}
	o.SetBlockBasedTableFactory(bbto)
	return o
}

func (db *DB) Close() error {
	db.reader.Close()
	if db.wo != nil {
		db.wo.Destroy()
	}
	if db.ro != nil {
		db.ro.Destroy()
	}
	for _, cf := range db.cfs {
		if cf != nil {
			cf.Destroy()
		}
	}
	if db.rdb != nil {
		db.rdb.Close()
	}
	for _, o := range db.cfOpts {
		o.Destroy()
	}
	if db.dbOpts != nil {
		db.dbOpts.Destroy()
	}
	return nil
}

// snapshotReadOptions returns read options pinned to a fresh snapshot
// and a release func that must be called when iteration is done.
func (db *DB) snapshotReadOptions() (*grocksdb.ReadOptions, func()) {
	snap := db.rdb.NewSnapshot()
	ro := grocksdb.NewDefaultReadOptions()
	ro.SetSnapshot(snap)
	return ro, func() {
		ro.Destroy()
		db.rdb.ReleaseSnapshot(snap)
	}
}

// CompactRange compacts all three column families over their full key
// range, meta last so the data and score filters still see the meta
// rows that prove their rows dead.
func (db *DB) CompactRange(ctx context.Context) error {
	full := grocksdb.Range{}
	db.rdb.CompactRangeCF(db.cfs[dataCFIndex], full)
	db.rdb.CompactRangeCF(db.cfs[scoreCFIndex], full)
	db.rdb.CompactRangeCF(db.cfs[metaCFIndex], full)
	return nil
}

// GetProperty exposes a rocksdb property of the meta column family,
// e.g. "rocksdb.estimate-num-keys".
func (db *DB) GetProperty(property string) string {
	return db.rdb.GetPropertyCF(property, db.cfs[metaCFIndex])
}

// getMeta reads the meta row for key using ro. Stale rows are
// reported as absent.
func (db *DB) getMeta(ro *grocksdb.ReadOptions, key []byte) (meta MetaValue, found bool, err error) {
	v, err := db.rdb.GetCF(ro, db.cfs[metaCFIndex], key)
	if err != nil {
		return MetaValue{}, false, err
	}
	defer v.Free()
	if !v.Exists() {
		return MetaValue{}, false, nil
	}
	meta, err = DecodeMetaValue(v.Data())
	if err != nil {
		return MetaValue{}, false, err
	}
	if meta.IsStale() {
		return MetaValue{}, false, nil
	}
	return meta, true, nil
}

// rawMeta reads the meta row without the staleness check; DEL and the
// expiration surface need the dead row too.
func (db *DB) rawMeta(ro *grocksdb.ReadOptions, key []byte) (meta MetaValue, found bool, err error) {
	v, err := db.rdb.GetCF(ro, db.cfs[metaCFIndex], key)
	if err != nil {
		return MetaValue{}, false, err
	}
	defer v.Free()
	if !v.Exists() {
		return MetaValue{}, false, nil
	}
	meta, err = DecodeMetaValue(v.Data())
	if err != nil {
		return MetaValue{}, false, err
	}
	return meta, true, nil
}

// ScanKeyNum counts live zset keys.
func (db *DB) ScanKeyNum(ctx context.Context) (int64, error) {
	ro, release := db.snapshotReadOptions()
	defer release()

	it := db.rdb.NewIteratorCF(ro, db.cfs[metaCFIndex])
	defer it.Close()

	var n int64
	for it.SeekToFirst(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		meta, err := DecodeMetaValue(it.Value().Data())
		it.Value().Free()
		it.Key().Free()
		if err != nil {
			continue
		}
		if !meta.IsStale() {
			n++
		}
	}
	if err := it.Err(); err != nil {
		return 0, err
	}
	return n, nil
}

// ScanKeys returns up to limit live keys matching pattern, glob style.
// An empty pattern matches everything.
func (db *DB) ScanKeys(ctx context.Context, pattern string, limit int64) ([][]byte, error) {
	var matcher glob.Glob
	if pattern != "" && pattern != "*" {
		m, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		matcher = m
	}

	ro, release := db.snapshotReadOptions()
	defer release()

	it := db.rdb.NewIteratorCF(ro, db.cfs[metaCFIndex])
	defer it.Close()

	keys := make([][]byte, 0, 16)
	for it.SeekToFirst(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		keySlice := it.Key()
		valSlice := it.Value()
		meta, err := DecodeMetaValue(valSlice.Data())
		if err == nil && !meta.IsStale() {
			key := append([]byte{}, keySlice.Data()...)
			if matcher == nil || matcher.Match(string(key)) {
				keys = append(keys, key)
			}
		}
		keySlice.Free()
		valSlice.Free()

		if limit > 0 && int64(len(keys)) >= limit {
			break
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}
