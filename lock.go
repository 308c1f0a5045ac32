package xdisrocksdb

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 1024

// keyLocker serializes read-modify-write command flows per user key.
// Keys hash onto a fixed set of stripes, so unrelated keys rarely
// contend and the locker never grows with the keyspace.
type keyLocker struct {
	stripes [lockStripes]sync.Mutex
}

func newKeyLocker() *keyLocker {
	return &keyLocker{}
}

func (l *keyLocker) stripe(key []byte) *sync.Mutex {
	h := fnv.New32a()
	h.Write(key)
	return &l.stripes[h.Sum32()%lockStripes]
}

func (l *keyLocker) Lock(key []byte) func() {
	mu := l.stripe(key)
	mu.Lock()
	return mu.Unlock
}
