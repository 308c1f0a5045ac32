package xdisrocksdb

import (
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
)

// zScanCursorStore maps opaque zscan cursors to the member to resume
// from. Cursors are process local; an evicted or unknown cursor makes
// the scan restart from the beginning, which matches redis's weak
// scan guarantees.
type zScanCursorStore struct {
	cache *lru.Cache[string, []byte]
	next  chan int64
}

func newZScanCursorStore(capacity int) (*zScanCursorStore, error) {
	cache, err := lru.New[string, []byte](capacity)
	if err != nil {
		return nil, err
	}

	next := make(chan int64, 1)
	next <- 1
	return &zScanCursorStore{cache: cache, next: next}, nil
}

func cursorCacheKey(key []byte, pattern string, cursor int64) string {
	return string(key) + "_" + pattern + "_" + strconv.FormatInt(cursor, 10)
}

// Save stores the resume member and returns a fresh cursor for it.
func (s *zScanCursorStore) Save(key []byte, pattern string, member []byte) int64 {
	cursor := <-s.next
	s.next <- cursor + 1
	s.cache.Add(cursorCacheKey(key, pattern, cursor), member)
	return cursor
}

// Load returns the resume member for cursor, or nil when the cursor
// is 0, unknown, or evicted.
func (s *zScanCursorStore) Load(key []byte, pattern string, cursor int64) []byte {
	if cursor <= 0 {
		return nil
	}
	member, ok := s.cache.Get(cursorCacheKey(key, pattern, cursor))
	if !ok {
		return nil
	}
	return member
}
