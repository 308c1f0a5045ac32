package config

type RocksDBOptions struct {
	DataDir string `mapstructure:"dataDir"`

	// bloom filter bits per key, used on every column family
	BloomFilterBits int `mapstructure:"bloomFilterBits"`

	BlockCacheSize    uint64 `mapstructure:"blockCacheSize"`
	WriteBufferSize   uint64 `mapstructure:"writeBufferSize"`
	MaxBackgroundJobs int    `mapstructure:"maxBackgroundJobs"`
}

type TTLJobOptions struct {
	TTLCheckInterval int `mapstructure:"ttlCheckInterval"`
}

type GCJobOptions struct {
	GCEnabled  bool `mapstructure:"gcEnabled"`
	GCInterval int  `mapstructure:"gcInterval"`
}

type StoragerOptions struct {
	RocksDB RocksDBOptions `mapstructure:"rocksdbOpts"`
	TTLJob  TTLJobOptions  `mapstructure:"ttlJobOpts"`
	GCJob   GCJobOptions   `mapstructure:"gcJobOpts"`

	// zscan resume cursor lru cache capacity
	ZScanCursorCacheSize int `mapstructure:"zscanCursorCacheSize"`
}

func DefaultRocksDBOptions() *RocksDBOptions {
	return &RocksDBOptions{
		DataDir:           "./data",
		BloomFilterBits:   10,
		BlockCacheSize:    8 << 20,
		WriteBufferSize:   64 << 20,
		MaxBackgroundJobs: 2,
	}
}

func DefaultTTLJobOptions() *TTLJobOptions {
	return &TTLJobOptions{
		TTLCheckInterval: 10,
	}
}

func DefaultGCJobOptions() *GCJobOptions {
	return &GCJobOptions{
		GCEnabled:  false,
		GCInterval: 600, //10m
	}
}

func DefaultStoragerOptions() *StoragerOptions {
	return &StoragerOptions{
		RocksDB:              *DefaultRocksDBOptions(),
		TTLJob:               *DefaultTTLJobOptions(),
		GCJob:                *DefaultGCJobOptions(),
		ZScanCursorCacheSize: 5000,
	}
}
