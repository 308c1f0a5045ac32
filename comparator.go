package xdisrocksdb

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/linxGnu/grocksdb"
)

// NewScoreKeyComparator orders score cf rows by user key, then
// version, then numeric score, then member. Plain byte order would
// misplace negative scores because of the IEEE sign bit, so the score
// segment is compared as a decoded float64.
//
// The comparator name is persisted by rocksdb; changing it makes old
// databases unopenable.
func NewScoreKeyComparator() *grocksdb.Comparator {
	return grocksdb.NewComparator("xdis.zset.score-key", compareScoreKey)
}

func compareScoreKey(a, b []byte) int {
	if len(a) < scoreKeyBaseLen || len(b) < scoreKeyBaseLen {
		// malformed rows fall back to raw byte order so the
		// comparator stays total
		return bytes.Compare(a, b)
	}

	aKeyLen := int(binary.LittleEndian.Uint32(a[0:]))
	bKeyLen := int(binary.LittleEndian.Uint32(b[0:]))
	if scoreKeyBaseLen+aKeyLen > len(a) || scoreKeyBaseLen+bKeyLen > len(b) {
		return bytes.Compare(a, b)
	}

	if r := bytes.Compare(a[4:4+aKeyLen], b[4:4+bKeyLen]); r != 0 {
		return r
	}

	aVersion := binary.LittleEndian.Uint32(a[4+aKeyLen:])
	bVersion := binary.LittleEndian.Uint32(b[4+bKeyLen:])
	if aVersion != bVersion {
		if aVersion < bVersion {
			return -1
		}
		return 1
	}

	aScore := math.Float64frombits(binary.LittleEndian.Uint64(a[8+aKeyLen:]))
	bScore := math.Float64frombits(binary.LittleEndian.Uint64(b[8+bKeyLen:]))
	if aScore < bScore {
		return -1
	} else if aScore > bScore {
		return 1
	}

	return bytes.Compare(a[scoreKeyBaseLen+aKeyLen:], b[scoreKeyBaseLen+bKeyLen:])
}
