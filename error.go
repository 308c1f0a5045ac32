package xdisrocksdb

import "errors"

var (
	ErrKeySize        = errors.New("invalid key size")
	ErrZSetMemberSize = errors.New("invalid zset member size")
	ErrScoreMiss      = errors.New("zset score miss")
	ErrExpireValue    = errors.New("invalid expire value")

	ErrInvalidAggregate = errors.New("invalid aggregate")
	ErrInvalidSrcKeyNum = errors.New("invalid src key num")
	ErrInvalidWeightNum = errors.New("invalid weight num")

	ErrMetaValueFormat  = errors.New("invalid meta value format")
	ErrMemberKeyFormat  = errors.New("invalid member key format")
	ErrScoreKeyFormat   = errors.New("invalid score key format")
	ErrScoreValueFormat = errors.New("invalid score value format")
)
