package xdisrocksdb

import (
	"context"
	"testing"

	"github.com/weedge/xdis-rocksdb/config"
)

var ctx = context.Background()

func openTestStorager(t *testing.T) *Storager {
	t.Helper()

	opts := config.DefaultStoragerOptions()
	opts.RocksDB.DataDir = t.TempDir()
	store, err := OpenStorager(opts)
	if err != nil {
		t.Fatalf("open storager fail err:%s", err.Error())
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close storager err:%s", err.Error())
		}
	})
	return store
}

func TestOpenClose(t *testing.T) {
	opts := config.DefaultStoragerOptions()
	opts.RocksDB.DataDir = t.TempDir()
	store, err := OpenStorager(opts)
	if err != nil {
		t.Fatalf("open storager fail err:%s", err.Error())
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close storager err:%s", err.Error())
	}
	// double close must be a no-op
	if err := store.Close(); err != nil {
		t.Fatalf("second close err:%s", err.Error())
	}
}

func TestReopen(t *testing.T) {
	opts := config.DefaultStoragerOptions()
	opts.RocksDB.DataDir = t.TempDir()

	store, err := OpenStorager(opts)
	if err != nil {
		t.Fatalf("open storager fail err:%s", err.Error())
	}
	if _, err := store.zset.ZAdd(ctx, []byte("durable"), scorePairs(1, "m1")...); err != nil {
		t.Fatalf("zadd fail err:%s", err.Error())
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close storager err:%s", err.Error())
	}

	store, err = OpenStorager(opts)
	if err != nil {
		t.Fatalf("reopen storager fail err:%s", err.Error())
	}
	defer store.Close()

	n, err := store.zset.ZCard(ctx, []byte("durable"))
	if err != nil {
		t.Fatalf("zcard fail err:%s", err.Error())
	}
	if n != 1 {
		t.Fatalf("zcard after reopen get %d expected 1", n)
	}
}

func TestScanKeyNumAndKeys(t *testing.T) {
	store := openTestStorager(t)
	zset := store.zset

	for _, key := range []string{"scan:a", "scan:b", "other:c"} {
		if _, err := zset.ZAdd(ctx, []byte(key), scorePairs(1, "m")...); err != nil {
			t.Fatalf("zadd fail err:%s", err.Error())
		}
	}

	n, err := store.db.ScanKeyNum(ctx)
	if err != nil {
		t.Fatalf("scan key num fail err:%s", err.Error())
	}
	if n != 3 {
		t.Fatalf("scan key num get %d expected 3", n)
	}

	keys, err := store.db.ScanKeys(ctx, "scan:*", 0)
	if err != nil {
		t.Fatalf("scan keys fail err:%s", err.Error())
	}
	if len(keys) != 2 {
		t.Fatalf("scan keys get %d expected 2", len(keys))
	}

	// deleted keys disappear from key scans
	if _, err := zset.Del(ctx, []byte("scan:a")); err != nil {
		t.Fatalf("del fail err:%s", err.Error())
	}
	n, err = store.db.ScanKeyNum(ctx)
	if err != nil {
		t.Fatalf("scan key num fail err:%s", err.Error())
	}
	if n != 2 {
		t.Fatalf("scan key num after del get %d expected 2", n)
	}
}

func TestGetProperty(t *testing.T) {
	store := openTestStorager(t)

	if v := store.db.GetProperty("rocksdb.estimate-num-keys"); v == "" {
		t.Fatalf("estimate-num-keys property is empty")
	}
}
