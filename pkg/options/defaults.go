package options

const (
	// DefaultMappedThreshold is the file size above which Open selects the
	// memory-mapped sector source (100 MiB, per spec §4.2).
	DefaultMappedThreshold int64 = 100 * 1024 * 1024

	// MinHotBlockCacheSize is the smallest allowed hot-block cache size.
	MinHotBlockCacheSize = 1

	// DefaultHotBlockCacheSize is the default number of decoded blocks the
	// decoder's hot-block cache holds (spec §4.2: "a small bounded
	// cache (≥1024 slots)").
	DefaultHotBlockCacheSize = 1024

	// DefaultHotPrefixBlocks is the default size of the always-cached leading
	// block prefix (spec §3: "first ~100 blocks").
	DefaultHotPrefixBlocks = 100

	// MinMaxBlocks is the smallest allowed block-count safety bound.
	MinMaxBlocks = 1024

	// DefaultMaxBlocks is the default visited-bitset/iteration-cap bound.
	DefaultMaxBlocks = 1_000_000
)

// Holds the default configuration settings for opening a FileMaker file.
var defaultOptions = Options{
	MappedThreshold:   DefaultMappedThreshold,
	HotBlockCacheSize: DefaultHotBlockCacheSize,
	HotPrefixBlocks:   DefaultHotPrefixBlocks,
	MaxBlocks:         DefaultMaxBlocks,
}

// NewDefaultOptions returns a copy of the default Options.
func NewDefaultOptions() Options {
	return defaultOptions
}
