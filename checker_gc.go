package xdisrocksdb

import (
	"context"
	"time"

	"github.com/cloudwego/kitex/pkg/klog"

	"github.com/weedge/xdis-rocksdb/config"
)

// GCChecker periodically compacts the whole key range so the
// compaction filters get a chance to reclaim dead generations even
// when organic compaction is idle.
type GCChecker struct {
	opts *config.GCJobOptions
	db   *DB
}

func NewGCChecker(opts *config.GCJobOptions, db *DB) *GCChecker {
	initGCOpts(opts)
	return &GCChecker{
		opts: opts,
		db:   db,
	}
}

func initGCOpts(opts *config.GCJobOptions) {
	if opts.GCInterval <= 0 {
		opts.GCInterval = 600
	}
}

func (m *GCChecker) Run(ctx context.Context) {
	klog.CtxInfof(ctx, "start db gc checker with opts %+v", *m.opts)
	ticker := time.NewTicker(time.Duration(m.opts.GCInterval) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			// for config change
			if !m.opts.GCEnabled {
				klog.CtxInfof(ctx, "gc checker unenabled")
				return
			}

			start := time.Now()
			if err := m.db.CompactRange(ctx); err != nil {
				klog.CtxErrorf(ctx, "run gc compaction failed, error: %s", err.Error())
				continue
			}
			klog.CtxInfof(ctx, "gc checker done, compaction took %s", time.Since(start))
		case <-ctx.Done():
			return
		}
	}
}
