package xdisrocksdb

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/kitex/pkg/klog"
	"github.com/weedge/pkg/safer"

	"github.com/weedge/xdis-rocksdb/config"
	"github.com/weedge/xdis-rocksdb/driver"
)

// Storager owns the rocksdb instance, the zset command surface, and
// the background jobs. It is what a server embeds.
type Storager struct {
	opts *config.StoragerOptions

	db   *DB
	zset *DBZSet

	ttlChecker *TTLChecker
	gcChecker  *GCChecker

	wg   sync.WaitGroup
	quit chan struct{}
}

func OpenStorager(opts *config.StoragerOptions) (store *Storager, err error) {
	store = &Storager{opts: opts}

	defer func(s *Storager) {
		if err != nil {
			if e := s.Close(); e != nil {
				klog.Errorf("close store err: %s", e.Error())
			}
		}
	}(store)

	store.quit = make(chan struct{})

	if store.db, err = Open(opts); err != nil {
		return nil, err
	}
	store.zset = NewDBZSet(store.db)
	store.ttlChecker = NewTTLChecker(store.db)
	store.gcChecker = NewGCChecker(&opts.GCJob, store.db)

	store.checkTTL()
	store.checkGC()

	return store, nil
}

// ZSet returns the zset command surface.
func (m *Storager) ZSet() driver.IZSetCmd {
	return m.zset
}

// DB returns the underlying database for maintenance surfaces.
func (m *Storager) DB() *DB {
	return m.db
}

func (m *Storager) checkTTL() {
	interval := m.opts.TTLJob.TTLCheckInterval
	if interval <= 0 {
		interval = config.DefaultTTLJobOptions().TTLCheckInterval
	}

	safer.GoSafely(&m.wg, false, func() {
		tick := time.NewTicker(time.Duration(interval) * time.Second)
		defer tick.Stop()

		ctx := context.Background()
		for {
			select {
			case <-tick.C:
				m.ttlChecker.Run(ctx)
			case <-m.quit:
				return
			}
		}
	}, nil, os.Stderr)
}

func (m *Storager) checkGC() {
	if !m.opts.GCJob.GCEnabled {
		return
	}

	safer.GoSafely(&m.wg, false, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go func() {
			<-m.quit
			cancel()
		}()
		m.gcChecker.Run(ctx)
	}, nil, os.Stderr)
}

// Close stops the background jobs, then closes the database. Safe to
// call more than once.
func (m *Storager) Close() (err error) {
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	m.wg.Wait()

	errs := []error{}
	if m.db != nil {
		errs = append(errs, m.db.Close())
		m.db = nil
	}

	errStrs := []string{}
	for _, er := range errs {
		if er != nil {
			errStrs = append(errStrs, er.Error())
		}
	}
	if len(errStrs) > 0 {
		err = fmt.Errorf("errs: %s", strings.Join(errStrs, " | "))
	}
	return
}

// FlushAll drops every key by walking the meta cf and logically
// deleting each one.
func (m *Storager) FlushAll(ctx context.Context) (int64, error) {
	keys, err := m.db.ScanKeys(ctx, "", 0)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, key := range keys {
		cn, err := m.zset.Del(ctx, key)
		if err != nil {
			return n, err
		}
		n += cn
	}
	return n, nil
}
