package xdisrocksdb

// column family names; the meta cf is rocksdb's default cf
const (
	MetaCFName  = "default"
	DataCFName  = "data_cf"
	ScoreCFName = "score_cf"
)

// column family handle slots, in open order
const (
	metaCFIndex = iota
	dataCFIndex
	scoreCFIndex
	cfCount
)

const (
	MaxKeySize        = 1024
	MaxZSetMemberSize = 1024
)

const (
	AggregateSum = "sum"
	AggregateMin = "min"
	AggregateMax = "max"
)

const DefaultScanCount = 10

// encoded row widths
const (
	metaValueLen     = 12 // version(4) | count(4) | timestamp(4)
	scoreValueLen    = 8  // float64 bits
	memberKeyBaseLen = 8  // ksize(4) | version(4)
	scoreKeyBaseLen  = 16 // ksize(4) | version(4) | score(8)
)
