package driver

import "context"

// ScorePair is a zset (score, member) element.
type ScorePair struct {
	Score  float64
	Member []byte
}

// RangeType describes the open/close state of a range's two bounds.
type RangeType uint8

const (
	RangeClose RangeType = 0x00
	RangeLOpen RangeType = 0x01
	RangeROpen RangeType = 0x10
	RangeOpen  RangeType = 0x11
)

// LeftClose reports whether the left bound is inclusive.
func (t RangeType) LeftClose() bool {
	return t&RangeLOpen == 0
}

// RightClose reports whether the right bound is inclusive.
func (t RangeType) RightClose() bool {
	return t&RangeROpen == 0
}

// IZSetCmd is the redis zset command surface over a kv store engine.
type IZSetCmd interface {
	ZAdd(ctx context.Context, key []byte, args ...ScorePair) (int64, error)
	ZCard(ctx context.Context, key []byte) (int64, error)
	ZScore(ctx context.Context, key []byte, member []byte) (float64, error)
	ZRem(ctx context.Context, key []byte, members ...[]byte) (int64, error)
	ZIncrBy(ctx context.Context, key []byte, delta float64, member []byte) (float64, error)
	ZCount(ctx context.Context, key []byte, min float64, max float64, rangeType RangeType) (int64, error)
	ZRank(ctx context.Context, key []byte, member []byte) (int64, error)
	ZRevRank(ctx context.Context, key []byte, member []byte) (int64, error)
	ZRange(ctx context.Context, key []byte, start int, stop int) ([]ScorePair, error)
	ZRevRange(ctx context.Context, key []byte, start int, stop int) ([]ScorePair, error)
	ZRangeByScore(ctx context.Context, key []byte, min float64, max float64, rangeType RangeType) ([]ScorePair, error)
	ZRevRangeByScore(ctx context.Context, key []byte, min float64, max float64, rangeType RangeType) ([]ScorePair, error)
	ZRemRangeByRank(ctx context.Context, key []byte, start int, stop int) (int64, error)
	ZRemRangeByScore(ctx context.Context, key []byte, min float64, max float64, rangeType RangeType) (int64, error)
	ZRangeByLex(ctx context.Context, key []byte, min []byte, max []byte, rangeType RangeType) ([][]byte, error)
	ZRemRangeByLex(ctx context.Context, key []byte, min []byte, max []byte, rangeType RangeType) (int64, error)
	ZLexCount(ctx context.Context, key []byte, min []byte, max []byte, rangeType RangeType) (int64, error)
	ZUnionStore(ctx context.Context, destKey []byte, srcKeys [][]byte, weights []float64, aggregate []byte) (int64, error)
	ZInterStore(ctx context.Context, destKey []byte, srcKeys [][]byte, weights []float64, aggregate []byte) (int64, error)
	ZScan(ctx context.Context, key []byte, cursor int64, pattern string, count int64) ([]ScorePair, int64, error)

	Del(ctx context.Context, key []byte) (int64, error)
	Expire(ctx context.Context, key []byte, duration int64) (int64, error)
	ExpireAt(ctx context.Context, key []byte, when int64) (int64, error)
	TTL(ctx context.Context, key []byte) (int64, error)
	Persist(ctx context.Context, key []byte) (int64, error)
}
