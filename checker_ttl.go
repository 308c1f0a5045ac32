package xdisrocksdb

import (
	"context"

	"github.com/cloudwego/kitex/pkg/klog"
)

// TTLChecker sweeps the meta cf for keys whose expiration has passed
// and rewrites them onto a dead, higher version. Reads already treat
// expired rows as gone, so the sweep only exists to hand the dead
// generations to the compaction filters promptly instead of waiting
// for the next write to the same key.
type TTLChecker struct {
	db *DB
}

func NewTTLChecker(db *DB) *TTLChecker {
	return &TTLChecker{db: db}
}

func (c *TTLChecker) Run(ctx context.Context) {
	n, err := c.clearExpired(ctx)
	if err != nil {
		klog.CtxErrorf(ctx, "clear expired keys err: %s", err.Error())
		return
	}
	if n > 0 {
		klog.CtxInfof(ctx, "ttl checker cleared %d expired keys", n)
	}
}

func (c *TTLChecker) clearExpired(ctx context.Context) (int64, error) {
	ro, release := c.db.snapshotReadOptions()
	defer release()

	it := c.db.rdb.NewIteratorCF(ro, c.db.cfs[metaCFIndex])
	defer it.Close()

	var cleared int64
	for it.SeekToFirst(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return cleared, err
		}

		keySlice := it.Key()
		valSlice := it.Value()
		key := append([]byte{}, keySlice.Data()...)
		meta, err := DecodeMetaValue(valSlice.Data())
		keySlice.Free()
		valSlice.Free()
		if err != nil {
			continue
		}
		if meta.Count == 0 || meta.Timestamp == 0 || !meta.IsStale() {
			continue
		}

		// re-check under the key lock against the live row; a
		// concurrent write may have revived the key since the
		// snapshot was taken
		unlock := c.db.locker.Lock(key)
		cur, found, err := c.db.rawMeta(c.db.ro, key)
		if err != nil || !found || cur.Count == 0 || cur.Timestamp == 0 || !cur.IsStale() {
			unlock()
			continue
		}
		cur.UpdateVersion()
		cur.Count = 0
		cur.Timestamp = 0
		err = c.db.rdb.PutCF(c.db.wo, c.db.cfs[metaCFIndex], key, cur.Encode())
		unlock()
		if err != nil {
			return cleared, err
		}
		cleared++
	}
	return cleared, it.Err()
}
