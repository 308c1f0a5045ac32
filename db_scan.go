package xdisrocksdb

import (
	"bytes"
	"context"

	"github.com/gobwas/glob"

	"github.com/weedge/xdis-rocksdb/driver"
)

// Scan walks live keys in byte order starting after cursor, applying
// pattern as a glob. count budgets the number of live keys examined,
// matching or not, so a scan over a sparsely matching keyspace still
// terminates. The returned cursor is the next key to start after, or
// nil when the keyspace is exhausted.
func (db *DB) Scan(ctx context.Context, cursor []byte, count int64, pattern string) ([][]byte, []byte, error) {
	if count <= 0 {
		count = DefaultScanCount
	}

	var matcher glob.Glob
	if pattern != "" && pattern != "*" {
		m, err := glob.Compile(pattern)
		if err != nil {
			return nil, nil, err
		}
		matcher = m
	}

	ro, release := db.snapshotReadOptions()
	defer release()

	it := db.rdb.NewIteratorCF(ro, db.cfs[metaCFIndex])
	defer it.Close()

	if len(cursor) > 0 {
		it.Seek(cursor)
		if it.Valid() {
			k := it.Key()
			same := bytes.Equal(k.Data(), cursor)
			k.Free()
			if same {
				it.Next()
			}
		}
	} else {
		it.SeekToFirst()
	}

	keys := make([][]byte, 0, count)
	var nextCursor []byte
	for ; it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		keySlice := it.Key()
		valSlice := it.Value()
		key := append([]byte{}, keySlice.Data()...)
		meta, err := DecodeMetaValue(valSlice.Data())
		keySlice.Free()
		valSlice.Free()
		if err != nil || meta.IsStale() {
			continue
		}

		if matcher == nil || matcher.Match(string(key)) {
			keys = append(keys, key)
		}

		count--
		if count <= 0 {
			nextCursor = key
			break
		}
	}
	if err := it.Err(); err != nil {
		return nil, nil, err
	}
	return keys, nextCursor, nil
}

// ZScan walks the members of one zset in member byte order. The int64
// cursor is an opaque handle into the process local cursor store; 0
// starts from the beginning and a returned 0 means the set is
// exhausted. An evicted or unknown cursor silently restarts, which
// callers tolerate the same way they tolerate redis scan restarts
// after a rehash. count budgets members examined, matching or not.
func (db *DBZSet) ZScan(ctx context.Context, key []byte, cursor int64, pattern string, count int64) ([]driver.ScorePair, int64, error) {
	if err := checkKeySize(key); err != nil {
		return nil, 0, err
	}
	if cursor < 0 {
		return []driver.ScorePair{}, 0, nil
	}
	if count <= 0 {
		count = DefaultScanCount
	}

	var matcher glob.Glob
	if pattern != "" && pattern != "*" {
		m, err := glob.Compile(pattern)
		if err != nil {
			return nil, 0, err
		}
		matcher = m
	}

	ro, release := db.snapshotReadOptions()
	defer release()

	meta, found, err := db.getMeta(ro, key)
	if err != nil {
		return nil, 0, err
	}
	if !found {
		return []driver.ScorePair{}, 0, nil
	}

	prefix := zMemberKeyPrefix(key, meta.Version)
	seekTo := prefix
	if resume := db.cursors.Load(key, pattern, cursor); resume != nil {
		seekTo = zEncodeMemberKey(key, meta.Version, resume)
	}

	it := db.rdb.NewIteratorCF(ro, db.cfs[dataCFIndex])
	defer it.Close()

	pairs := make([]driver.ScorePair, 0, count)
	var nextMember []byte
	for it.Seek(seekTo); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		k := it.Key()
		ok := bytes.HasPrefix(k.Data(), prefix)
		var member []byte
		var derr error
		if ok {
			_, _, member, derr = zDecodeMemberKey(k.Data())
			if derr == nil {
				member = append([]byte{}, member...)
			}
		}
		k.Free()
		if !ok {
			break
		}
		if derr != nil {
			return nil, 0, derr
		}

		if count <= 0 {
			nextMember = member
			break
		}

		if matcher == nil || matcher.Match(string(member)) {
			v := it.Value()
			score, derr := zDecodeScoreValue(v.Data())
			v.Free()
			if derr != nil {
				return nil, 0, derr
			}
			pairs = append(pairs, driver.ScorePair{Score: score, Member: member})
		}
		count--
	}
	if err := it.Err(); err != nil {
		return nil, 0, err
	}

	if nextMember == nil {
		return pairs, 0, nil
	}
	return pairs, db.cursors.Save(key, pattern, nextMember), nil
}
