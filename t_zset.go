package xdisrocksdb

import (
	"bytes"
	"context"
	"math"
	"strings"
	"time"

	"github.com/linxGnu/grocksdb"
	"github.com/weedge/pkg/utils"

	"github.com/weedge/xdis-rocksdb/driver"
)

// DBZSet is the zset command surface over one DB.
type DBZSet struct {
	*DB
}

func NewDBZSet(db *DB) *DBZSet {
	return &DBZSet{DB: db}
}

// loadOrInitMeta returns the meta row to write the next mutation
// under. A missing or stale row yields a fresh generation: stale rows
// keep their identity but move to a new version with zero members and
// no expiration.
func (db *DBZSet) loadOrInitMeta(ro *grocksdb.ReadOptions, key []byte) (MetaValue, error) {
	meta, found, err := db.rawMeta(ro, key)
	if err != nil {
		return MetaValue{}, err
	}
	if !found {
		return InitialMetaValue(), nil
	}
	if meta.IsStale() {
		meta.UpdateVersion()
		meta.Count = 0
		meta.Timestamp = 0
	}
	return meta, nil
}

// zSetItem writes one (member, score) pair into wb under version.
// exists reports whether the member was already present. A present
// member keeps the count unchanged; its old score row is replaced.
func (db *DBZSet) zSetItem(wb *grocksdb.WriteBatch, ro *grocksdb.ReadOptions,
	key []byte, version uint32, score float64, member []byte, mayExist bool) (exists bool, err error) {
	mk := zEncodeMemberKey(key, version, member)

	if mayExist {
		v, err := db.rdb.GetCF(ro, db.cfs[dataCFIndex], mk)
		if err != nil {
			return false, err
		}
		if v.Exists() {
			oldScore, derr := zDecodeScoreValue(v.Data())
			v.Free()
			if derr != nil {
				return false, derr
			}
			if oldScore == score {
				return true, nil
			}
			wb.DeleteCF(db.cfs[scoreCFIndex], zEncodeScoreKey(key, version, oldScore, member))
			wb.PutCF(db.cfs[dataCFIndex], mk, zEncodeScoreValue(score))
			wb.PutCF(db.cfs[scoreCFIndex], zEncodeScoreKey(key, version, score, member), []byte{})
			return true, nil
		}
		v.Free()
	}

	wb.PutCF(db.cfs[dataCFIndex], mk, zEncodeScoreValue(score))
	wb.PutCF(db.cfs[scoreCFIndex], zEncodeScoreKey(key, version, score, member), []byte{})
	return false, nil
}

func (db *DBZSet) ZAdd(ctx context.Context, key []byte, args ...driver.ScorePair) (int64, error) {
	if len(args) == 0 {
		return 0, nil
	}
	if err := checkKeySize(key); err != nil {
		return 0, err
	}
	for i := range args {
		if err := checkZSetKMSize(key, args[i].Member); err != nil {
			return 0, err
		}
	}

	// duplicate members keep the first occurrence
	unique := args[:0:0]
	seen := make(map[string]struct{}, len(args))
	for _, pair := range args {
		if _, ok := seen[utils.Bytes2String(pair.Member)]; ok {
			continue
		}
		seen[utils.Bytes2String(pair.Member)] = struct{}{}
		unique = append(unique, pair)
	}

	unlock := db.locker.Lock(key)
	defer unlock()

	meta, err := db.loadOrInitMeta(db.ro, key)
	if err != nil {
		return 0, err
	}
	mayExist := meta.Count > 0

	wb := grocksdb.NewWriteBatch()
	defer wb.Destroy()

	var added int64
	for _, pair := range unique {
		exists, err := db.zSetItem(wb, db.ro, key, meta.Version, pair.Score, pair.Member, mayExist)
		if err != nil {
			return 0, err
		}
		if !exists {
			added++
		}
	}

	meta.ModifyCount(int32(added))
	wb.PutCF(db.cfs[metaCFIndex], key, meta.Encode())

	if err := db.rdb.Write(db.wo, wb); err != nil {
		return 0, err
	}
	return added, nil
}

func (db *DBZSet) ZCard(ctx context.Context, key []byte) (int64, error) {
	if err := checkKeySize(key); err != nil {
		return 0, err
	}
	meta, found, err := db.getMeta(db.ro, key)
	if err != nil || !found {
		return 0, err
	}
	return int64(meta.Count), nil
}

func (db *DBZSet) ZScore(ctx context.Context, key []byte, member []byte) (float64, error) {
	if err := checkZSetKMSize(key, member); err != nil {
		return 0, err
	}
	meta, found, err := db.getMeta(db.ro, key)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, ErrScoreMiss
	}

	v, err := db.rdb.GetCF(db.ro, db.cfs[dataCFIndex], zEncodeMemberKey(key, meta.Version, member))
	if err != nil {
		return 0, err
	}
	defer v.Free()
	if !v.Exists() {
		return 0, ErrScoreMiss
	}
	return zDecodeScoreValue(v.Data())
}

func (db *DBZSet) ZRem(ctx context.Context, key []byte, members ...[]byte) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	for i := range members {
		if err := checkZSetKMSize(key, members[i]); err != nil {
			return 0, err
		}
	}

	// duplicate members must only count once; the batch is not yet
	// visible to reads, so a repeat would double delete
	unique := members[:0:0]
	seen := make(map[string]struct{}, len(members))
	for _, member := range members {
		if _, ok := seen[utils.Bytes2String(member)]; ok {
			continue
		}
		seen[utils.Bytes2String(member)] = struct{}{}
		unique = append(unique, member)
	}

	unlock := db.locker.Lock(key)
	defer unlock()

	meta, found, err := db.getMeta(db.ro, key)
	if err != nil || !found {
		return 0, err
	}

	wb := grocksdb.NewWriteBatch()
	defer wb.Destroy()

	var removed int64
	for _, member := range unique {
		mk := zEncodeMemberKey(key, meta.Version, member)
		v, err := db.rdb.GetCF(db.ro, db.cfs[dataCFIndex], mk)
		if err != nil {
			return 0, err
		}
		if !v.Exists() {
			v.Free()
			continue
		}
		score, derr := zDecodeScoreValue(v.Data())
		v.Free()
		if derr != nil {
			return 0, derr
		}
		wb.DeleteCF(db.cfs[dataCFIndex], mk)
		wb.DeleteCF(db.cfs[scoreCFIndex], zEncodeScoreKey(key, meta.Version, score, member))
		removed++
	}

	if removed == 0 {
		return 0, nil
	}

	meta.ModifyCount(int32(-removed))
	wb.PutCF(db.cfs[metaCFIndex], key, meta.Encode())

	if err := db.rdb.Write(db.wo, wb); err != nil {
		return 0, err
	}
	return removed, nil
}

func (db *DBZSet) ZIncrBy(ctx context.Context, key []byte, delta float64, member []byte) (float64, error) {
	if err := checkZSetKMSize(key, member); err != nil {
		return 0, err
	}

	unlock := db.locker.Lock(key)
	defer unlock()

	meta, err := db.loadOrInitMeta(db.ro, key)
	if err != nil {
		return 0, err
	}

	wb := grocksdb.NewWriteBatch()
	defer wb.Destroy()

	score := delta
	mk := zEncodeMemberKey(key, meta.Version, member)

	var existed bool
	if meta.Count > 0 {
		v, err := db.rdb.GetCF(db.ro, db.cfs[dataCFIndex], mk)
		if err != nil {
			return 0, err
		}
		if v.Exists() {
			oldScore, derr := zDecodeScoreValue(v.Data())
			v.Free()
			if derr != nil {
				return 0, derr
			}
			existed = true
			score = oldScore + delta
			wb.DeleteCF(db.cfs[scoreCFIndex], zEncodeScoreKey(key, meta.Version, oldScore, member))
		} else {
			v.Free()
		}
	}

	wb.PutCF(db.cfs[dataCFIndex], mk, zEncodeScoreValue(score))
	wb.PutCF(db.cfs[scoreCFIndex], zEncodeScoreKey(key, meta.Version, score, member), []byte{})

	if !existed {
		meta.ModifyCount(1)
	}
	wb.PutCF(db.cfs[metaCFIndex], key, meta.Encode())

	if err := db.rdb.Write(db.wo, wb); err != nil {
		return 0, err
	}
	return score, nil
}

// scoreInRange applies the bound checks of rangeType to one score.
// below/above report which side a failing score fell out on, so
// iteration loops can tell "keep walking" from "done".
func scoreInRange(score float64, min float64, max float64, rangeType driver.RangeType) (in bool, below bool, above bool) {
	if score < min || (score == min && !rangeType.LeftClose()) {
		return false, true, false
	}
	if score > max || (score == max && !rangeType.RightClose()) {
		return false, false, true
	}
	return true, false, false
}

func (db *DBZSet) ZCount(ctx context.Context, key []byte, min float64, max float64, rangeType driver.RangeType) (int64, error) {
	if err := checkKeySize(key); err != nil {
		return 0, err
	}

	ro, release := db.snapshotReadOptions()
	defer release()

	meta, found, err := db.getMeta(ro, key)
	if err != nil || !found {
		return 0, err
	}

	prefix := zScoreKeyPrefix(key, meta.Version)
	it := db.rdb.NewIteratorCF(ro, db.cfs[scoreCFIndex])
	defer it.Close()

	var n int64
	for it.Seek(zEncodeScoreKey(key, meta.Version, min, nil)); it.Valid(); it.Next() {
		k := it.Key()
		ok := bytes.HasPrefix(k.Data(), prefix)
		var score float64
		if ok {
			_, _, score, _, err = zDecodeScoreKey(k.Data())
		}
		k.Free()
		if !ok {
			break
		}
		if err != nil {
			return 0, err
		}

		in, _, above := scoreInRange(score, min, max, rangeType)
		if above {
			break
		}
		if in {
			n++
		}
	}
	return n, it.Err()
}

// zrank walks the score cf looking for member and returns its forward
// index, or -1 when the member is absent.
func (db *DBZSet) zrank(ro *grocksdb.ReadOptions, key []byte, meta MetaValue, member []byte) (int64, error) {
	prefix := zScoreKeyPrefix(key, meta.Version)
	it := db.rdb.NewIteratorCF(ro, db.cfs[scoreCFIndex])
	defer it.Close()

	var index int64
	for it.Seek(zEncodeScoreKey(key, meta.Version, math.Inf(-1), nil)); it.Valid(); it.Next() {
		k := it.Key()
		ok := bytes.HasPrefix(k.Data(), prefix)
		var m []byte
		var err error
		if ok {
			_, _, _, m, err = zDecodeScoreKey(k.Data())
			if err == nil && bytes.Equal(m, member) {
				k.Free()
				return index, nil
			}
		}
		k.Free()
		if !ok {
			break
		}
		if err != nil {
			return -1, err
		}
		index++
	}
	if err := it.Err(); err != nil {
		return -1, err
	}
	return -1, nil
}

func (db *DBZSet) ZRank(ctx context.Context, key []byte, member []byte) (int64, error) {
	if err := checkZSetKMSize(key, member); err != nil {
		return -1, err
	}

	ro, release := db.snapshotReadOptions()
	defer release()

	meta, found, err := db.getMeta(ro, key)
	if err != nil {
		return -1, err
	}
	if !found {
		return -1, nil
	}
	return db.zrank(ro, key, meta, member)
}

func (db *DBZSet) ZRevRank(ctx context.Context, key []byte, member []byte) (int64, error) {
	if err := checkZSetKMSize(key, member); err != nil {
		return -1, err
	}

	ro, release := db.snapshotReadOptions()
	defer release()

	meta, found, err := db.getMeta(ro, key)
	if err != nil {
		return -1, err
	}
	if !found {
		return -1, nil
	}

	index, err := db.zrank(ro, key, meta, member)
	if err != nil || index < 0 {
		return -1, err
	}
	return int64(meta.Count) - 1 - index, nil
}

// zParseLimit resolves redis style start/stop indexes against card
// into an offset and count. count < 0 means empty range.
func zParseLimit(card int64, start int, stop int) (offset int64, count int64) {
	s, e := int64(start), int64(stop)
	if s < 0 {
		s = card + s
	}
	if e < 0 {
		e = card + e
	}
	if s < 0 {
		s = 0
	}
	if s >= card || e < s {
		return 0, -1
	}
	if e >= card {
		e = card - 1
	}
	return s, e - s + 1
}

// zRangeIndex collects count pairs starting at offset, walking
// forward or reverse over the score cf.
func (db *DBZSet) zRangeIndex(ro *grocksdb.ReadOptions, key []byte, meta MetaValue,
	offset int64, count int64, reverse bool) ([]driver.ScorePair, error) {
	if count == 0 {
		return []driver.ScorePair{}, nil
	}

	prefix := zScoreKeyPrefix(key, meta.Version)
	it := db.rdb.NewIteratorCF(ro, db.cfs[scoreCFIndex])
	defer it.Close()

	advance := it.Next
	if reverse {
		it.SeekForPrev(zEncodeScoreKey(key, meta.Version, math.Inf(1), nil))
		advance = it.Prev
	} else {
		it.Seek(zEncodeScoreKey(key, meta.Version, math.Inf(-1), nil))
	}

	pairs := make([]driver.ScorePair, 0, count)
	var index int64
	for ; it.Valid(); advance() {
		k := it.Key()
		ok := bytes.HasPrefix(k.Data(), prefix)
		var score float64
		var member []byte
		var err error
		if ok {
			_, _, score, member, err = zDecodeScoreKey(k.Data())
			if err == nil && index >= offset {
				pairs = append(pairs, driver.ScorePair{Score: score, Member: append([]byte{}, member...)})
			}
		}
		k.Free()
		if !ok {
			break
		}
		if err != nil {
			return nil, err
		}
		index++
		if count > 0 && int64(len(pairs)) >= count {
			break
		}
	}
	return pairs, it.Err()
}

func (db *DBZSet) zRangeGeneric(ctx context.Context, key []byte, start int, stop int, reverse bool) ([]driver.ScorePair, error) {
	if err := checkKeySize(key); err != nil {
		return nil, err
	}

	ro, release := db.snapshotReadOptions()
	defer release()

	meta, found, err := db.getMeta(ro, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return []driver.ScorePair{}, nil
	}

	offset, count := zParseLimit(int64(meta.Count), start, stop)
	if count < 0 {
		return []driver.ScorePair{}, nil
	}
	return db.zRangeIndex(ro, key, meta, offset, count, reverse)
}

func (db *DBZSet) ZRange(ctx context.Context, key []byte, start int, stop int) ([]driver.ScorePair, error) {
	return db.zRangeGeneric(ctx, key, start, stop, false)
}

func (db *DBZSet) ZRevRange(ctx context.Context, key []byte, start int, stop int) ([]driver.ScorePair, error) {
	return db.zRangeGeneric(ctx, key, start, stop, true)
}

// zRangeScore collects all pairs whose score is inside the bounds,
// forward or reverse.
func (db *DBZSet) zRangeScore(ro *grocksdb.ReadOptions, key []byte, meta MetaValue,
	min float64, max float64, rangeType driver.RangeType, reverse bool) ([]driver.ScorePair, error) {
	prefix := zScoreKeyPrefix(key, meta.Version)
	it := db.rdb.NewIteratorCF(ro, db.cfs[scoreCFIndex])
	defer it.Close()

	advance := it.Next
	if reverse {
		it.SeekForPrev(zEncodeScoreKey(key, meta.Version, math.Inf(1), nil))
		advance = it.Prev
	} else {
		it.Seek(zEncodeScoreKey(key, meta.Version, min, nil))
	}

	pairs := make([]driver.ScorePair, 0, 16)
	for ; it.Valid(); advance() {
		k := it.Key()
		ok := bytes.HasPrefix(k.Data(), prefix)
		var score float64
		var member []byte
		var err error
		if ok {
			_, _, score, member, err = zDecodeScoreKey(k.Data())
			if err == nil {
				member = append([]byte{}, member...)
			}
		}
		k.Free()
		if !ok {
			break
		}
		if err != nil {
			return nil, err
		}

		in, below, above := scoreInRange(score, min, max, rangeType)
		if !reverse && above {
			break
		}
		if reverse && below {
			break
		}
		if in {
			pairs = append(pairs, driver.ScorePair{Score: score, Member: member})
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return pairs, nil
}

func (db *DBZSet) zRangeByScoreGeneric(ctx context.Context, key []byte,
	min float64, max float64, rangeType driver.RangeType, reverse bool) ([]driver.ScorePair, error) {
	if err := checkKeySize(key); err != nil {
		return nil, err
	}

	ro, release := db.snapshotReadOptions()
	defer release()

	meta, found, err := db.getMeta(ro, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return []driver.ScorePair{}, nil
	}
	return db.zRangeScore(ro, key, meta, min, max, rangeType, reverse)
}

func (db *DBZSet) ZRangeByScore(ctx context.Context, key []byte, min float64, max float64, rangeType driver.RangeType) ([]driver.ScorePair, error) {
	return db.zRangeByScoreGeneric(ctx, key, min, max, rangeType, false)
}

func (db *DBZSet) ZRevRangeByScore(ctx context.Context, key []byte, min float64, max float64, rangeType driver.RangeType) ([]driver.ScorePair, error) {
	return db.zRangeByScoreGeneric(ctx, key, min, max, rangeType, true)
}

func (db *DBZSet) ZRemRangeByRank(ctx context.Context, key []byte, start int, stop int) (int64, error) {
	if err := checkKeySize(key); err != nil {
		return 0, err
	}

	unlock := db.locker.Lock(key)
	defer unlock()

	meta, found, err := db.getMeta(db.ro, key)
	if err != nil || !found {
		return 0, err
	}

	offset, count := zParseLimit(int64(meta.Count), start, stop)
	if count < 0 {
		return 0, nil
	}

	pairs, err := db.zRangeIndex(db.ro, key, meta, offset, count, false)
	if err != nil {
		return 0, err
	}
	return db.zRemPairs(key, meta, pairs)
}

func (db *DBZSet) ZRemRangeByScore(ctx context.Context, key []byte, min float64, max float64, rangeType driver.RangeType) (int64, error) {
	if err := checkKeySize(key); err != nil {
		return 0, err
	}

	unlock := db.locker.Lock(key)
	defer unlock()

	meta, found, err := db.getMeta(db.ro, key)
	if err != nil || !found {
		return 0, err
	}

	pairs, err := db.zRangeScore(db.ro, key, meta, min, max, rangeType, false)
	if err != nil {
		return 0, err
	}
	return db.zRemPairs(key, meta, pairs)
}

// zRemPairs deletes the given pairs of one generation and rewrites
// the meta count, all in one batch.
func (db *DBZSet) zRemPairs(key []byte, meta MetaValue, pairs []driver.ScorePair) (int64, error) {
	if len(pairs) == 0 {
		return 0, nil
	}

	wb := grocksdb.NewWriteBatch()
	defer wb.Destroy()

	for _, pair := range pairs {
		wb.DeleteCF(db.cfs[dataCFIndex], zEncodeMemberKey(key, meta.Version, pair.Member))
		wb.DeleteCF(db.cfs[scoreCFIndex], zEncodeScoreKey(key, meta.Version, pair.Score, pair.Member))
	}

	meta.ModifyCount(int32(-len(pairs)))
	wb.PutCF(db.cfs[metaCFIndex], key, meta.Encode())

	if err := db.rdb.Write(db.wo, wb); err != nil {
		return 0, err
	}
	return int64(len(pairs)), nil
}

// memberInLexRange applies the bound checks of rangeType to one
// member. nil min means unbounded low, nil max unbounded high.
func memberInLexRange(member []byte, min []byte, max []byte, rangeType driver.RangeType) (in bool, above bool) {
	if min != nil {
		c := bytes.Compare(member, min)
		if c < 0 || (c == 0 && !rangeType.LeftClose()) {
			return false, false
		}
	}
	if max != nil {
		c := bytes.Compare(member, max)
		if c > 0 || (c == 0 && !rangeType.RightClose()) {
			return false, true
		}
	}
	return true, false
}

// zLexMembers walks the data cf, whose rows sort by member bytes, and
// collects members inside the lex bounds.
func (db *DBZSet) zLexMembers(ro *grocksdb.ReadOptions, key []byte, meta MetaValue,
	min []byte, max []byte, rangeType driver.RangeType) ([][]byte, error) {
	prefix := zMemberKeyPrefix(key, meta.Version)

	var seekTo []byte
	if min != nil {
		seekTo = zEncodeMemberKey(key, meta.Version, min)
	} else {
		seekTo = prefix
	}

	it := db.rdb.NewIteratorCF(ro, db.cfs[dataCFIndex])
	defer it.Close()

	members := make([][]byte, 0, 16)
	for it.Seek(seekTo); it.Valid(); it.Next() {
		k := it.Key()
		ok := bytes.HasPrefix(k.Data(), prefix)
		var member []byte
		var err error
		if ok {
			_, _, member, err = zDecodeMemberKey(k.Data())
			if err == nil {
				member = append([]byte{}, member...)
			}
		}
		k.Free()
		if !ok {
			break
		}
		if err != nil {
			return nil, err
		}

		in, above := memberInLexRange(member, min, max, rangeType)
		if above {
			break
		}
		if in {
			members = append(members, member)
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

func (db *DBZSet) ZRangeByLex(ctx context.Context, key []byte, min []byte, max []byte, rangeType driver.RangeType) ([][]byte, error) {
	if err := checkKeySize(key); err != nil {
		return nil, err
	}

	ro, release := db.snapshotReadOptions()
	defer release()

	meta, found, err := db.getMeta(ro, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return [][]byte{}, nil
	}
	return db.zLexMembers(ro, key, meta, min, max, rangeType)
}

func (db *DBZSet) ZLexCount(ctx context.Context, key []byte, min []byte, max []byte, rangeType driver.RangeType) (int64, error) {
	members, err := db.ZRangeByLex(ctx, key, min, max, rangeType)
	if err != nil {
		return 0, err
	}
	return int64(len(members)), nil
}

func (db *DBZSet) ZRemRangeByLex(ctx context.Context, key []byte, min []byte, max []byte, rangeType driver.RangeType) (int64, error) {
	if err := checkKeySize(key); err != nil {
		return 0, err
	}

	unlock := db.locker.Lock(key)
	defer unlock()

	meta, found, err := db.getMeta(db.ro, key)
	if err != nil || !found {
		return 0, err
	}

	members, err := db.zLexMembers(db.ro, key, meta, min, max, rangeType)
	if err != nil {
		return 0, err
	}

	pairs := make([]driver.ScorePair, 0, len(members))
	for _, member := range members {
		v, err := db.rdb.GetCF(db.ro, db.cfs[dataCFIndex], zEncodeMemberKey(key, meta.Version, member))
		if err != nil {
			return 0, err
		}
		if !v.Exists() {
			v.Free()
			continue
		}
		score, derr := zDecodeScoreValue(v.Data())
		v.Free()
		if derr != nil {
			return 0, derr
		}
		pairs = append(pairs, driver.ScorePair{Score: score, Member: member})
	}
	return db.zRemPairs(key, meta, pairs)
}

func getAggregateFunc(aggregate []byte) func(float64, float64) float64 {
	switch strings.ToLower(string(aggregate)) {
	case "", AggregateSum:
		return func(a, b float64) float64 { return a + b }
	case AggregateMin:
		return math.Min
	case AggregateMax:
		return math.Max
	}
	return nil
}

// zLoadSourceMap reads all members of one source key into dst with
// weighted scores, aggregating members seen in earlier sources.
// present tracks membership for intersection.
func (db *DBZSet) zLoadSourceMap(ro *grocksdb.ReadOptions, srcKey []byte, weight float64,
	aggregateFunc func(float64, float64) float64, dst map[string]float64, present map[string]int) error {
	meta, found, err := db.getMeta(ro, srcKey)
	if err != nil || !found {
		return err
	}

	pairs, err := db.zRangeIndex(ro, srcKey, meta, 0, int64(meta.Count), false)
	if err != nil {
		return err
	}
	for _, pair := range pairs {
		m := utils.Bytes2String(pair.Member)
		weighted := pair.Score * weight
		if old, ok := dst[m]; ok {
			dst[m] = aggregateFunc(old, weighted)
		} else {
			dst[m] = weighted
		}
		if present != nil {
			present[m]++
		}
	}
	return nil
}

// zStoreDest replaces destKey's content with destMap under a fresh
// version. The old generation is left to the compaction filters.
func (db *DBZSet) zStoreDest(destKey []byte, destMap map[string]float64) (int64, error) {
	unlock := db.locker.Lock(destKey)
	defer unlock()

	meta, found, err := db.rawMeta(db.ro, destKey)
	if err != nil {
		return 0, err
	}
	if found {
		meta.UpdateVersion()
	} else {
		meta = InitialMetaValue()
	}
	meta.Count = uint32(len(destMap))
	meta.Timestamp = 0

	wb := grocksdb.NewWriteBatch()
	defer wb.Destroy()

	for member, score := range destMap {
		// fold negative zero so ordering and lookups agree
		if score == 0 {
			score = 0
		}
		wb.PutCF(db.cfs[dataCFIndex], zEncodeMemberKey(destKey, meta.Version, []byte(member)), zEncodeScoreValue(score))
		wb.PutCF(db.cfs[scoreCFIndex], zEncodeScoreKey(destKey, meta.Version, score, []byte(member)), []byte{})
	}
	wb.PutCF(db.cfs[metaCFIndex], destKey, meta.Encode())

	if err := db.rdb.Write(db.wo, wb); err != nil {
		return 0, err
	}
	return int64(len(destMap)), nil
}

func checkStoreArgs(destKey []byte, srcKeys [][]byte, weights []float64) error {
	if err := checkKeySize(destKey); err != nil {
		return err
	}
	if len(srcKeys) == 0 {
		return ErrInvalidSrcKeyNum
	}
	for _, k := range srcKeys {
		if err := checkKeySize(k); err != nil {
			return err
		}
	}
	if weights != nil && len(weights) != len(srcKeys) {
		return ErrInvalidWeightNum
	}
	return nil
}

func (db *DBZSet) ZUnionStore(ctx context.Context, destKey []byte, srcKeys [][]byte, weights []float64, aggregate []byte) (int64, error) {
	aggregateFunc := getAggregateFunc(aggregate)
	if aggregateFunc == nil {
		return 0, ErrInvalidAggregate
	}
	if err := checkStoreArgs(destKey, srcKeys, weights); err != nil {
		return 0, err
	}

	ro, release := db.snapshotReadOptions()
	defer release()

	destMap := make(map[string]float64)
	for i, srcKey := range srcKeys {
		weight := 1.0
		if weights != nil {
			weight = weights[i]
		}
		if err := db.zLoadSourceMap(ro, srcKey, weight, aggregateFunc, destMap, nil); err != nil {
			return 0, err
		}
	}
	return db.zStoreDest(destKey, destMap)
}

func (db *DBZSet) ZInterStore(ctx context.Context, destKey []byte, srcKeys [][]byte, weights []float64, aggregate []byte) (int64, error) {
	aggregateFunc := getAggregateFunc(aggregate)
	if aggregateFunc == nil {
		return 0, ErrInvalidAggregate
	}
	if err := checkStoreArgs(destKey, srcKeys, weights); err != nil {
		return 0, err
	}

	ro, release := db.snapshotReadOptions()
	defer release()

	scores := make(map[string]float64)
	present := make(map[string]int)
	for i, srcKey := range srcKeys {
		weight := 1.0
		if weights != nil {
			weight = weights[i]
		}
		if err := db.zLoadSourceMap(ro, srcKey, weight, aggregateFunc, scores, present); err != nil {
			return 0, err
		}
	}

	destMap := make(map[string]float64)
	for member, n := range present {
		if n == len(srcKeys) {
			destMap[member] = scores[member]
		}
	}
	return db.zStoreDest(destKey, destMap)
}

// Del logically drops the key by moving its meta to a dead, higher
// version. Row reclamation is the compaction filters' job.
func (db *DBZSet) Del(ctx context.Context, key []byte) (int64, error) {
	if err := checkKeySize(key); err != nil {
		return 0, err
	}

	unlock := db.locker.Lock(key)
	defer unlock()

	meta, found, err := db.rawMeta(db.ro, key)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	live := !meta.IsStale()

	meta.UpdateVersion()
	meta.Count = 0
	meta.Timestamp = 0
	if err := db.rdb.PutCF(db.wo, db.cfs[metaCFIndex], key, meta.Encode()); err != nil {
		return 0, err
	}
	if live {
		return 1, nil
	}
	return 0, nil
}

func (db *DBZSet) Exists(ctx context.Context, key []byte) (int64, error) {
	if err := checkKeySize(key); err != nil {
		return 0, err
	}
	_, found, err := db.getMeta(db.ro, key)
	if err != nil || !found {
		return 0, err
	}
	return 1, nil
}

func (db *DBZSet) expireAt(key []byte, when int64) (int64, error) {
	unlock := db.locker.Lock(key)
	defer unlock()

	meta, found, err := db.rawMeta(db.ro, key)
	if err != nil {
		return 0, err
	}
	if !found || meta.IsStale() {
		return 0, nil
	}

	if when <= time.Now().Unix() {
		meta.UpdateVersion()
		meta.Count = 0
		meta.Timestamp = 0
	} else {
		meta.Timestamp = int32(when)
	}
	if err := db.rdb.PutCF(db.wo, db.cfs[metaCFIndex], key, meta.Encode()); err != nil {
		return 0, err
	}
	return 1, nil
}

// Expire sets a relative ttl. A ttl of zero or less deletes the key
// outright, like an ExpireAt with an already-past deadline would.
func (db *DBZSet) Expire(ctx context.Context, key []byte, duration int64) (int64, error) {
	if err := checkKeySize(key); err != nil {
		return 0, err
	}
	return db.expireAt(key, time.Now().Unix()+duration)
}

func (db *DBZSet) ExpireAt(ctx context.Context, key []byte, when int64) (int64, error) {
	if err := checkKeySize(key); err != nil {
		return 0, err
	}
	if when <= 0 {
		return 0, ErrExpireValue
	}
	return db.expireAt(key, when)
}

func (db *DBZSet) TTL(ctx context.Context, key []byte) (int64, error) {
	if err := checkKeySize(key); err != nil {
		return -1, err
	}

	meta, found, err := db.getMeta(db.ro, key)
	if err != nil {
		return -1, err
	}
	if !found {
		return -2, nil
	}
	if meta.Timestamp == 0 {
		return -1, nil
	}
	ttl := int64(meta.Timestamp) - time.Now().Unix()
	if ttl < 0 {
		ttl = 0
	}
	return ttl, nil
}

func (db *DBZSet) Persist(ctx context.Context, key []byte) (int64, error) {
	if err := checkKeySize(key); err != nil {
		return 0, err
	}

	unlock := db.locker.Lock(key)
	defer unlock()

	meta, found, err := db.getMeta(db.ro, key)
	if err != nil || !found {
		return 0, err
	}
	if meta.Timestamp == 0 {
		return 0, nil
	}

	meta.Timestamp = 0
	if err := db.rdb.PutCF(db.wo, db.cfs[metaCFIndex], key, meta.Encode()); err != nil {
		return 0, err
	}
	return 1, nil
}
