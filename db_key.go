package xdisrocksdb

import (
	"encoding/binary"
	"math"
	"time"
)

// MetaValue is the decoded meta cf row for one zset key.
// layout: version(4) | count(4) | timestamp(4), little endian
type MetaValue struct {
	Version   uint32
	Count     uint32
	Timestamp int32
}

// InitialMetaValue returns the meta row for a key created now,
// with no members and no expiration.
func InitialMetaValue() MetaValue {
	return MetaValue{
		Version:   uint32(time.Now().Unix()),
		Count:     0,
		Timestamp: 0,
	}
}

// IsStale reports whether the row is logically dead: either emptied
// or past its expiration time.
func (m MetaValue) IsStale() bool {
	if m.Count == 0 {
		return true
	}
	if m.Timestamp != 0 && int64(m.Timestamp) <= time.Now().Unix() {
		return true
	}
	return false
}

// UpdateVersion bumps the version for a logical rebirth of the key.
// The new version is the wall clock unless the clock has not moved
// past the old version, in which case it is old+1 so it stays
// strictly monotonic.
func (m *MetaValue) UpdateVersion() {
	now := uint32(time.Now().Unix())
	if now > m.Version {
		m.Version = now
	} else {
		m.Version++
	}
}

// ModifyCount adjusts the member count by delta.
func (m *MetaValue) ModifyCount(delta int32) {
	m.Count = uint32(int32(m.Count) + delta)
}

func (m MetaValue) Encode() []byte {
	buf := make([]byte, metaValueLen)
	binary.LittleEndian.PutUint32(buf[0:], m.Version)
	binary.LittleEndian.PutUint32(buf[4:], m.Count)
	binary.LittleEndian.PutUint32(buf[8:], uint32(m.Timestamp))
	return buf
}

func DecodeMetaValue(v []byte) (MetaValue, error) {
	if len(v) != metaValueLen {
		return MetaValue{}, ErrMetaValueFormat
	}
	return MetaValue{
		Version:   binary.LittleEndian.Uint32(v[0:]),
		Count:     binary.LittleEndian.Uint32(v[4:]),
		Timestamp: int32(binary.LittleEndian.Uint32(v[8:])),
	}, nil
}

// ksize(4) | key | version(4) | member
func zEncodeMemberKey(key []byte, version uint32, member []byte) []byte {
	buf := make([]byte, memberKeyBaseLen+len(key)+len(member))
	binary.LittleEndian.PutUint32(buf[0:], uint32(len(key)))
	pos := 4
	pos += copy(buf[pos:], key)
	binary.LittleEndian.PutUint32(buf[pos:], version)
	pos += 4
	copy(buf[pos:], member)
	return buf
}

func zDecodeMemberKey(ek []byte) (key []byte, version uint32, member []byte, err error) {
	if len(ek) < memberKeyBaseLen {
		err = ErrMemberKeyFormat
		return
	}
	keyLen := int(binary.LittleEndian.Uint32(ek[0:]))
	if memberKeyBaseLen+keyLen > len(ek) {
		err = ErrMemberKeyFormat
		return
	}
	pos := 4
	key = ek[pos : pos+keyLen]
	pos += keyLen
	version = binary.LittleEndian.Uint32(ek[pos:])
	pos += 4
	member = ek[pos:]
	return
}

// ksize(4) | key | version(4) | score(8, float64 bits) | member
func zEncodeScoreKey(key []byte, version uint32, score float64, member []byte) []byte {
	buf := make([]byte, scoreKeyBaseLen+len(key)+len(member))
	binary.LittleEndian.PutUint32(buf[0:], uint32(len(key)))
	pos := 4
	pos += copy(buf[pos:], key)
	binary.LittleEndian.PutUint32(buf[pos:], version)
	pos += 4
	binary.LittleEndian.PutUint64(buf[pos:], math.Float64bits(score))
	pos += 8
	copy(buf[pos:], member)
	return buf
}

func zDecodeScoreKey(ek []byte) (key []byte, version uint32, score float64, member []byte, err error) {
	if len(ek) < scoreKeyBaseLen {
		err = ErrScoreKeyFormat
		return
	}
	keyLen := int(binary.LittleEndian.Uint32(ek[0:]))
	if scoreKeyBaseLen+keyLen > len(ek) {
		err = ErrScoreKeyFormat
		return
	}
	pos := 4
	key = ek[pos : pos+keyLen]
	pos += keyLen
	version = binary.LittleEndian.Uint32(ek[pos:])
	pos += 4
	score = math.Float64frombits(binary.LittleEndian.Uint64(ek[pos:]))
	pos += 8
	member = ek[pos:]
	return
}

// zScoreKeyPrefix is the (key, version) prefix shared by every score
// cf row of one logical zset generation.
func zScoreKeyPrefix(key []byte, version uint32) []byte {
	buf := make([]byte, memberKeyBaseLen+len(key))
	binary.LittleEndian.PutUint32(buf[0:], uint32(len(key)))
	pos := 4
	pos += copy(buf[pos:], key)
	binary.LittleEndian.PutUint32(buf[pos:], version)
	return buf
}

// zMemberKeyPrefix is the same bytes as zScoreKeyPrefix; the member
// cf rows of one generation share it too.
func zMemberKeyPrefix(key []byte, version uint32) []byte {
	return zScoreKeyPrefix(key, version)
}

func zEncodeScoreValue(score float64) []byte {
	buf := make([]byte, scoreValueLen)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(score))
	return buf
}

func zDecodeScoreValue(v []byte) (float64, error) {
	if len(v) != scoreValueLen {
		return 0, ErrScoreValueFormat
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(v)), nil
}

func checkKeySize(key []byte) error {
	if len(key) > MaxKeySize || len(key) == 0 {
		return ErrKeySize
	}
	return nil
}

func checkZSetKMSize(key []byte, member []byte) error {
	if len(key) > MaxKeySize || len(key) == 0 {
		return ErrKeySize
	} else if len(member) > MaxZSetMemberSize {
		return ErrZSetMemberSize
	}
	return nil
}
