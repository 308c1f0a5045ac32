package xdisrocksdb

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/weedge/xdis-rocksdb/driver"
)

func scorePairs(startScore float64, members ...string) []driver.ScorePair {
	pairs := make([]driver.ScorePair, 0, len(members))
	for i, m := range members {
		pairs = append(pairs, driver.ScorePair{Score: startScore + float64(i), Member: []byte(m)})
	}
	return pairs
}

func members(pairs []driver.ScorePair) []string {
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, string(p.Member))
	}
	return out
}

func TestZAddZScoreZCard(t *testing.T) {
	zset := openTestStorager(t).zset
	key := []byte("zaddkey")

	n, err := zset.ZAdd(ctx, key, scorePairs(1, "m1", "m2", "m3")...)
	if err != nil {
		t.Fatalf("zadd fail err:%s", err.Error())
	}
	if n != 3 {
		t.Fatalf("zadd get %d expected 3", n)
	}

	score, err := zset.ZScore(ctx, key, []byte("m2"))
	if err != nil {
		t.Fatalf("zscore fail err:%s", err.Error())
	}
	if score != 2 {
		t.Fatalf("zscore get %f expected 2", score)
	}

	// updating an existing member is not an add
	n, err = zset.ZAdd(ctx, key, driver.ScorePair{Score: 9, Member: []byte("m2")})
	if err != nil {
		t.Fatalf("zadd update fail err:%s", err.Error())
	}
	if n != 0 {
		t.Fatalf("zadd update get %d expected 0", n)
	}
	score, err = zset.ZScore(ctx, key, []byte("m2"))
	if err != nil {
		t.Fatalf("zscore fail err:%s", err.Error())
	}
	if score != 9 {
		t.Fatalf("zscore after update get %f expected 9", score)
	}

	card, err := zset.ZCard(ctx, key)
	if err != nil {
		t.Fatalf("zcard fail err:%s", err.Error())
	}
	if card != 3 {
		t.Fatalf("zcard get %d expected 3", card)
	}

	if _, err := zset.ZScore(ctx, key, []byte("nosuch")); !errors.Is(err, ErrScoreMiss) {
		t.Fatalf("zscore missing member expected ErrScoreMiss, got %v", err)
	}
}

func TestZAddDuplicateMembersKeepFirst(t *testing.T) {
	zset := openTestStorager(t).zset
	key := []byte("zadddup")

	n, err := zset.ZAdd(ctx, key,
		driver.ScorePair{Score: 1, Member: []byte("m")},
		driver.ScorePair{Score: 7, Member: []byte("m")},
	)
	if err != nil {
		t.Fatalf("zadd fail err:%s", err.Error())
	}
	if n != 1 {
		t.Fatalf("zadd get %d expected 1", n)
	}

	score, err := zset.ZScore(ctx, key, []byte("m"))
	if err != nil {
		t.Fatalf("zscore fail err:%s", err.Error())
	}
	if score != 1 {
		t.Fatalf("duplicate member kept score %f expected first score 1", score)
	}
}

func TestZAddKeyMemberLimits(t *testing.T) {
	zset := openTestStorager(t).zset

	bigKey := make([]byte, MaxKeySize+1)
	if _, err := zset.ZAdd(ctx, bigKey, scorePairs(1, "m")...); !errors.Is(err, ErrKeySize) {
		t.Fatalf("oversized key expected ErrKeySize, got %v", err)
	}
	if _, err := zset.ZAdd(ctx, nil, scorePairs(1, "m")...); !errors.Is(err, ErrKeySize) {
		t.Fatalf("empty key expected ErrKeySize, got %v", err)
	}

	bigMember := make([]byte, MaxZSetMemberSize+1)
	if _, err := zset.ZAdd(ctx, []byte("k"), driver.ScorePair{Score: 1, Member: bigMember}); !errors.Is(err, ErrZSetMemberSize) {
		t.Fatalf("oversized member expected ErrZSetMemberSize, got %v", err)
	}
}

func TestZRem(t *testing.T) {
	zset := openTestStorager(t).zset
	key := []byte("zremkey")

	if _, err := zset.ZAdd(ctx, key, scorePairs(1, "m1", "m2", "m3")...); err != nil {
		t.Fatalf("zadd fail err:%s", err.Error())
	}

	// a repeated member must only count once
	n, err := zset.ZRem(ctx, key, []byte("m1"), []byte("m1"), []byte("nosuch"), []byte("m3"))
	if err != nil {
		t.Fatalf("zrem fail err:%s", err.Error())
	}
	if n != 2 {
		t.Fatalf("zrem get %d expected 2", n)
	}

	card, err := zset.ZCard(ctx, key)
	if err != nil {
		t.Fatalf("zcard fail err:%s", err.Error())
	}
	if card != 1 {
		t.Fatalf("zcard get %d expected 1", card)
	}

	// removing the last member empties the key
	if _, err := zset.ZRem(ctx, key, []byte("m2")); err != nil {
		t.Fatalf("zrem fail err:%s", err.Error())
	}
	exists, err := zset.Exists(ctx, key)
	if err != nil {
		t.Fatalf("exists fail err:%s", err.Error())
	}
	if exists != 0 {
		t.Fatalf("emptied key still exists")
	}
}

func TestZIncrBy(t *testing.T) {
	zset := openTestStorager(t).zset
	key := []byte("zincrkey")

	score, err := zset.ZIncrBy(ctx, key, 2.5, []byte("m"))
	if err != nil {
		t.Fatalf("zincrby fail err:%s", err.Error())
	}
	if score != 2.5 {
		t.Fatalf("zincrby on new member get %f expected 2.5", score)
	}

	score, err = zset.ZIncrBy(ctx, key, -4, []byte("m"))
	if err != nil {
		t.Fatalf("zincrby fail err:%s", err.Error())
	}
	if score != -1.5 {
		t.Fatalf("zincrby get %f expected -1.5", score)
	}

	card, err := zset.ZCard(ctx, key)
	if err != nil {
		t.Fatalf("zcard fail err:%s", err.Error())
	}
	if card != 1 {
		t.Fatalf("zcard get %d expected 1", card)
	}
}

func TestZRangeAndZRevRange(t *testing.T) {
	zset := openTestStorager(t).zset
	key := []byte("zrangekey")

	if _, err := zset.ZAdd(ctx, key, scorePairs(1, "a", "b", "c", "d")...); err != nil {
		t.Fatalf("zadd fail err:%s", err.Error())
	}

	pairs, err := zset.ZRange(ctx, key, 0, -1)
	if err != nil {
		t.Fatalf("zrange fail err:%s", err.Error())
	}
	if !reflect.DeepEqual(members(pairs), []string{"a", "b", "c", "d"}) {
		t.Fatalf("zrange get %v", members(pairs))
	}

	pairs, err = zset.ZRange(ctx, key, 1, 2)
	if err != nil {
		t.Fatalf("zrange fail err:%s", err.Error())
	}
	if !reflect.DeepEqual(members(pairs), []string{"b", "c"}) {
		t.Fatalf("zrange [1,2] get %v", members(pairs))
	}

	pairs, err = zset.ZRange(ctx, key, -2, -1)
	if err != nil {
		t.Fatalf("zrange fail err:%s", err.Error())
	}
	if !reflect.DeepEqual(members(pairs), []string{"c", "d"}) {
		t.Fatalf("zrange [-2,-1] get %v", members(pairs))
	}

	pairs, err = zset.ZRange(ctx, key, 10, 20)
	if err != nil {
		t.Fatalf("zrange fail err:%s", err.Error())
	}
	if len(pairs) != 0 {
		t.Fatalf("zrange past end get %v", members(pairs))
	}

	pairs, err = zset.ZRevRange(ctx, key, 0, 1)
	if err != nil {
		t.Fatalf("zrevrange fail err:%s", err.Error())
	}
	if !reflect.DeepEqual(members(pairs), []string{"d", "c"}) {
		t.Fatalf("zrevrange [0,1] get %v", members(pairs))
	}
}

func TestZRankAndZRevRank(t *testing.T) {
	zset := openTestStorager(t).zset
	key := []byte("zrankkey")

	if _, err := zset.ZAdd(ctx, key, scorePairs(1, "a", "b", "c")...); err != nil {
		t.Fatalf("zadd fail err:%s", err.Error())
	}

	rank, err := zset.ZRank(ctx, key, []byte("b"))
	if err != nil {
		t.Fatalf("zrank fail err:%s", err.Error())
	}
	if rank != 1 {
		t.Fatalf("zrank get %d expected 1", rank)
	}

	rank, err = zset.ZRevRank(ctx, key, []byte("b"))
	if err != nil {
		t.Fatalf("zrevrank fail err:%s", err.Error())
	}
	if rank != 1 {
		t.Fatalf("zrevrank get %d expected 1", rank)
	}

	rank, err = zset.ZRevRank(ctx, key, []byte("a"))
	if err != nil {
		t.Fatalf("zrevrank fail err:%s", err.Error())
	}
	if rank != 2 {
		t.Fatalf("zrevrank get %d expected 2", rank)
	}

	rank, err = zset.ZRank(ctx, key, []byte("nosuch"))
	if err != nil {
		t.Fatalf("zrank fail err:%s", err.Error())
	}
	if rank != -1 {
		t.Fatalf("zrank missing member get %d expected -1", rank)
	}
}

func TestZCountAndZRangeByScore(t *testing.T) {
	zset := openTestStorager(t).zset
	key := []byte("zscorerange")

	if _, err := zset.ZAdd(ctx, key, scorePairs(1, "a", "b", "c", "d", "e")...); err != nil {
		t.Fatalf("zadd fail err:%s", err.Error())
	}

	n, err := zset.ZCount(ctx, key, 2, 4, driver.RangeClose)
	if err != nil {
		t.Fatalf("zcount fail err:%s", err.Error())
	}
	if n != 3 {
		t.Fatalf("zcount closed get %d expected 3", n)
	}

	n, err = zset.ZCount(ctx, key, 2, 4, driver.RangeOpen)
	if err != nil {
		t.Fatalf("zcount fail err:%s", err.Error())
	}
	if n != 1 {
		t.Fatalf("zcount open get %d expected 1", n)
	}

	n, err = zset.ZCount(ctx, key, math.Inf(-1), math.Inf(1), driver.RangeClose)
	if err != nil {
		t.Fatalf("zcount fail err:%s", err.Error())
	}
	if n != 5 {
		t.Fatalf("zcount unbounded get %d expected 5", n)
	}

	pairs, err := zset.ZRangeByScore(ctx, key, 2, 4, driver.RangeLOpen)
	if err != nil {
		t.Fatalf("zrangebyscore fail err:%s", err.Error())
	}
	if !reflect.DeepEqual(members(pairs), []string{"c", "d"}) {
		t.Fatalf("zrangebyscore (2,4] get %v", members(pairs))
	}

	pairs, err = zset.ZRevRangeByScore(ctx, key, 2, 4, driver.RangeClose)
	if err != nil {
		t.Fatalf("zrevrangebyscore fail err:%s", err.Error())
	}
	if !reflect.DeepEqual(members(pairs), []string{"d", "c", "b"}) {
		t.Fatalf("zrevrangebyscore [2,4] get %v", members(pairs))
	}
}

func TestNegativeScoresOrderNumerically(t *testing.T) {
	zset := openTestStorager(t).zset
	key := []byte("znegkey")

	if _, err := zset.ZAdd(ctx, key,
		driver.ScorePair{Score: -10, Member: []byte("low")},
		driver.ScorePair{Score: -0.5, Member: []byte("mid")},
		driver.ScorePair{Score: 3, Member: []byte("high")},
	); err != nil {
		t.Fatalf("zadd fail err:%s", err.Error())
	}

	pairs, err := zset.ZRange(ctx, key, 0, -1)
	if err != nil {
		t.Fatalf("zrange fail err:%s", err.Error())
	}
	if !reflect.DeepEqual(members(pairs), []string{"low", "mid", "high"}) {
		t.Fatalf("negative scores misordered: %v", members(pairs))
	}
}

func TestZRemRangeByRankAndScore(t *testing.T) {
	zset := openTestStorager(t).zset
	key := []byte("zremrange")

	if _, err := zset.ZAdd(ctx, key, scorePairs(1, "a", "b", "c", "d", "e")...); err != nil {
		t.Fatalf("zadd fail err:%s", err.Error())
	}

	n, err := zset.ZRemRangeByRank(ctx, key, 0, 1)
	if err != nil {
		t.Fatalf("zremrangebyrank fail err:%s", err.Error())
	}
	if n != 2 {
		t.Fatalf("zremrangebyrank get %d expected 2", n)
	}

	pairs, err := zset.ZRange(ctx, key, 0, -1)
	if err != nil {
		t.Fatalf("zrange fail err:%s", err.Error())
	}
	if !reflect.DeepEqual(members(pairs), []string{"c", "d", "e"}) {
		t.Fatalf("after zremrangebyrank get %v", members(pairs))
	}

	n, err = zset.ZRemRangeByScore(ctx, key, 4, 5, driver.RangeClose)
	if err != nil {
		t.Fatalf("zremrangebyscore fail err:%s", err.Error())
	}
	if n != 2 {
		t.Fatalf("zremrangebyscore get %d expected 2", n)
	}

	card, err := zset.ZCard(ctx, key)
	if err != nil {
		t.Fatalf("zcard fail err:%s", err.Error())
	}
	if card != 1 {
		t.Fatalf("zcard get %d expected 1", card)
	}
}

func TestZLexOps(t *testing.T) {
	zset := openTestStorager(t).zset
	key := []byte("zlexkey")

	if _, err := zset.ZAdd(ctx, key,
		driver.ScorePair{Score: 0, Member: []byte("a")},
		driver.ScorePair{Score: 0, Member: []byte("b")},
		driver.ScorePair{Score: 0, Member: []byte("c")},
		driver.ScorePair{Score: 0, Member: []byte("d")},
	); err != nil {
		t.Fatalf("zadd fail err:%s", err.Error())
	}

	ms, err := zset.ZRangeByLex(ctx, key, nil, nil, driver.RangeClose)
	if err != nil {
		t.Fatalf("zrangebylex fail err:%s", err.Error())
	}
	if len(ms) != 4 {
		t.Fatalf("zrangebylex unbounded get %d expected 4", len(ms))
	}

	ms, err = zset.ZRangeByLex(ctx, key, []byte("b"), []byte("d"), driver.RangeROpen)
	if err != nil {
		t.Fatalf("zrangebylex fail err:%s", err.Error())
	}
	if !reflect.DeepEqual(ms, [][]byte{[]byte("b"), []byte("c")}) {
		t.Fatalf("zrangebylex [b,d) get %v", ms)
	}

	n, err := zset.ZLexCount(ctx, key, []byte("a"), []byte("c"), driver.RangeClose)
	if err != nil {
		t.Fatalf("zlexcount fail err:%s", err.Error())
	}
	if n != 3 {
		t.Fatalf("zlexcount get %d expected 3", n)
	}

	n, err = zset.ZRemRangeByLex(ctx, key, []byte("a"), []byte("b"), driver.RangeClose)
	if err != nil {
		t.Fatalf("zremrangebylex fail err:%s", err.Error())
	}
	if n != 2 {
		t.Fatalf("zremrangebylex get %d expected 2", n)
	}

	card, err := zset.ZCard(ctx, key)
	if err != nil {
		t.Fatalf("zcard fail err:%s", err.Error())
	}
	if card != 2 {
		t.Fatalf("zcard get %d expected 2", card)
	}
}

func TestZUnionStore(t *testing.T) {
	zset := openTestStorager(t).zset

	if _, err := zset.ZAdd(ctx, []byte("zu1"), scorePairs(1, "m1", "m2")...); err != nil {
		t.Fatalf("zadd fail err:%s", err.Error())
	}
	if _, err := zset.ZAdd(ctx, []byte("zu2"),
		driver.ScorePair{Score: 3, Member: []byte("m2")},
		driver.ScorePair{Score: 4, Member: []byte("m3")},
	); err != nil {
		t.Fatalf("zadd fail err:%s", err.Error())
	}

	srcKeys := [][]byte{[]byte("zu1"), []byte("zu2")}

	n, err := zset.ZUnionStore(ctx, []byte("zudest"), srcKeys, nil, []byte("sum"))
	if err != nil {
		t.Fatalf("zunionstore fail err:%s", err.Error())
	}
	if n != 3 {
		t.Fatalf("zunionstore get %d expected 3", n)
	}
	score, err := zset.ZScore(ctx, []byte("zudest"), []byte("m2"))
	if err != nil {
		t.Fatalf("zscore fail err:%s", err.Error())
	}
	if score != 5 {
		t.Fatalf("union sum m2 get %f expected 5", score)
	}

	n, err = zset.ZUnionStore(ctx, []byte("zudest"), srcKeys, []float64{2, 1}, []byte("max"))
	if err != nil {
		t.Fatalf("zunionstore weighted fail err:%s", err.Error())
	}
	if n != 3 {
		t.Fatalf("zunionstore weighted get %d expected 3", n)
	}
	score, err = zset.ZScore(ctx, []byte("zudest"), []byte("m2"))
	if err != nil {
		t.Fatalf("zscore fail err:%s", err.Error())
	}
	if score != 4 {
		t.Fatalf("union max m2 get %f expected 4", score)
	}

	if _, err := zset.ZUnionStore(ctx, []byte("zudest"), srcKeys, []float64{1}, []byte("sum")); !errors.Is(err, ErrInvalidWeightNum) {
		t.Fatalf("bad weights expected ErrInvalidWeightNum, got %v", err)
	}
	if _, err := zset.ZUnionStore(ctx, []byte("zudest"), srcKeys, nil, []byte("median")); !errors.Is(err, ErrInvalidAggregate) {
		t.Fatalf("bad aggregate expected ErrInvalidAggregate, got %v", err)
	}
}

func TestZInterStore(t *testing.T) {
	zset := openTestStorager(t).zset

	if _, err := zset.ZAdd(ctx, []byte("zi1"), scorePairs(1, "m1", "m2")...); err != nil {
		t.Fatalf("zadd fail err:%s", err.Error())
	}
	if _, err := zset.ZAdd(ctx, []byte("zi2"),
		driver.ScorePair{Score: 3, Member: []byte("m2")},
		driver.ScorePair{Score: 4, Member: []byte("m3")},
	); err != nil {
		t.Fatalf("zadd fail err:%s", err.Error())
	}

	srcKeys := [][]byte{[]byte("zi1"), []byte("zi2")}

	n, err := zset.ZInterStore(ctx, []byte("zidest"), srcKeys, nil, []byte("sum"))
	if err != nil {
		t.Fatalf("zinterstore fail err:%s", err.Error())
	}
	if n != 1 {
		t.Fatalf("zinterstore get %d expected 1", n)
	}
	score, err := zset.ZScore(ctx, []byte("zidest"), []byte("m2"))
	if err != nil {
		t.Fatalf("zscore fail err:%s", err.Error())
	}
	if score != 5 {
		t.Fatalf("inter sum m2 get %f expected 5", score)
	}

	// an empty source empties the destination, even a populated one
	n, err = zset.ZInterStore(ctx, []byte("zidest"), [][]byte{[]byte("zi1"), []byte("nosuch")}, nil, []byte("sum"))
	if err != nil {
		t.Fatalf("zinterstore fail err:%s", err.Error())
	}
	if n != 0 {
		t.Fatalf("zinterstore with missing src get %d expected 0", n)
	}
	card, err := zset.ZCard(ctx, []byte("zidest"))
	if err != nil {
		t.Fatalf("zcard fail err:%s", err.Error())
	}
	if card != 0 {
		t.Fatalf("dest not emptied, card %d", card)
	}

	if _, err := zset.ZInterStore(ctx, []byte("zidest"), nil, nil, []byte("sum")); !errors.Is(err, ErrInvalidSrcKeyNum) {
		t.Fatalf("no src keys expected ErrInvalidSrcKeyNum, got %v", err)
	}
}

func TestStoreNormalizesNegativeZero(t *testing.T) {
	zset := openTestStorager(t).zset

	if _, err := zset.ZAdd(ctx, []byte("znz"),
		driver.ScorePair{Score: math.Copysign(0, -1), Member: []byte("m")},
	); err != nil {
		t.Fatalf("zadd fail err:%s", err.Error())
	}

	n, err := zset.ZUnionStore(ctx, []byte("znzdest"), [][]byte{[]byte("znz")}, []float64{1}, []byte("sum"))
	if err != nil {
		t.Fatalf("zunionstore fail err:%s", err.Error())
	}
	if n != 1 {
		t.Fatalf("zunionstore get %d expected 1", n)
	}

	score, err := zset.ZScore(ctx, []byte("znzdest"), []byte("m"))
	if err != nil {
		t.Fatalf("zscore fail err:%s", err.Error())
	}
	if score != 0 || math.Signbit(score) {
		t.Fatalf("stored score is negative zero")
	}
}

func TestDelAndRecreate(t *testing.T) {
	zset := openTestStorager(t).zset
	key := []byte("zdelkey")

	if _, err := zset.ZAdd(ctx, key, scorePairs(1, "m1", "m2")...); err != nil {
		t.Fatalf("zadd fail err:%s", err.Error())
	}

	n, err := zset.Del(ctx, key)
	if err != nil {
		t.Fatalf("del fail err:%s", err.Error())
	}
	if n != 1 {
		t.Fatalf("del get %d expected 1", n)
	}

	card, err := zset.ZCard(ctx, key)
	if err != nil {
		t.Fatalf("zcard fail err:%s", err.Error())
	}
	if card != 0 {
		t.Fatalf("zcard after del get %d expected 0", card)
	}
	if _, err := zset.ZScore(ctx, key, []byte("m1")); !errors.Is(err, ErrScoreMiss) {
		t.Fatalf("zscore after del expected ErrScoreMiss, got %v", err)
	}

	// deleting an absent key is a no-op
	n, err = zset.Del(ctx, key)
	if err != nil {
		t.Fatalf("del fail err:%s", err.Error())
	}
	if n != 0 {
		t.Fatalf("second del get %d expected 0", n)
	}

	// the recreated key must not see the old generation's members
	if _, err := zset.ZAdd(ctx, key, scorePairs(10, "fresh")...); err != nil {
		t.Fatalf("zadd fail err:%s", err.Error())
	}
	pairs, err := zset.ZRange(ctx, key, 0, -1)
	if err != nil {
		t.Fatalf("zrange fail err:%s", err.Error())
	}
	if !reflect.DeepEqual(members(pairs), []string{"fresh"}) {
		t.Fatalf("recreated key sees old members: %v", members(pairs))
	}
}

func TestExpireTTLPersist(t *testing.T) {
	zset := openTestStorager(t).zset
	key := []byte("zttlkey")

	if _, err := zset.ZAdd(ctx, key, scorePairs(1, "m")...); err != nil {
		t.Fatalf("zadd fail err:%s", err.Error())
	}

	ttl, err := zset.TTL(ctx, key)
	if err != nil {
		t.Fatalf("ttl fail err:%s", err.Error())
	}
	if ttl != -1 {
		t.Fatalf("ttl without expire get %d expected -1", ttl)
	}

	n, err := zset.Expire(ctx, key, 100)
	if err != nil {
		t.Fatalf("expire fail err:%s", err.Error())
	}
	if n != 1 {
		t.Fatalf("expire get %d expected 1", n)
	}

	ttl, err = zset.TTL(ctx, key)
	if err != nil {
		t.Fatalf("ttl fail err:%s", err.Error())
	}
	if ttl <= 0 || ttl > 100 {
		t.Fatalf("ttl get %d expected in (0,100]", ttl)
	}

	n, err = zset.Persist(ctx, key)
	if err != nil {
		t.Fatalf("persist fail err:%s", err.Error())
	}
	if n != 1 {
		t.Fatalf("persist get %d expected 1", n)
	}
	ttl, err = zset.TTL(ctx, key)
	if err != nil {
		t.Fatalf("ttl fail err:%s", err.Error())
	}
	if ttl != -1 {
		t.Fatalf("ttl after persist get %d expected -1", ttl)
	}

	// a non-positive ttl deletes the key outright
	n, err = zset.Expire(ctx, key, 0)
	if err != nil {
		t.Fatalf("expire 0 fail err:%s", err.Error())
	}
	if n != 1 {
		t.Fatalf("expire 0 get %d expected 1", n)
	}
	card, err := zset.ZCard(ctx, key)
	if err != nil {
		t.Fatalf("zcard fail err:%s", err.Error())
	}
	if card != 0 {
		t.Fatalf("zcard after expire 0 get %d expected 0", card)
	}

	// expiring at a past time deletes the key too
	if _, err := zset.ZAdd(ctx, key, scorePairs(1, "m")...); err != nil {
		t.Fatalf("zadd fail err:%s", err.Error())
	}
	n, err = zset.ExpireAt(ctx, key, 1)
	if err != nil {
		t.Fatalf("expireat fail err:%s", err.Error())
	}
	if n != 1 {
		t.Fatalf("expireat get %d expected 1", n)
	}
	ttl, err = zset.TTL(ctx, key)
	if err != nil {
		t.Fatalf("ttl fail err:%s", err.Error())
	}
	if ttl != -2 {
		t.Fatalf("ttl of deleted key get %d expected -2", ttl)
	}

	ttl, err = zset.TTL(ctx, []byte("neverexisted"))
	if err != nil {
		t.Fatalf("ttl fail err:%s", err.Error())
	}
	if ttl != -2 {
		t.Fatalf("ttl of missing key get %d expected -2", ttl)
	}

	if _, err := zset.ExpireAt(ctx, key, 0); !errors.Is(err, ErrExpireValue) {
		t.Fatalf("expireat 0 expected ErrExpireValue, got %v", err)
	}
}
