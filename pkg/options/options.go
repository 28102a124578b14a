// Package options provides data structures and functions for configuring
// the FileMaker decoder. It defines the parameters that control backend
// selection, caching, and traversal safety limits — directory paths and
// segment rotation from the teacher's write-path store have no analog here;
// this decoder never writes.
package options

import (
	"strings"

	"github.com/iamNilotpal/fmreader/pkg/errors"
)

// Defines the configuration parameters for opening a FileMaker file.
// It provides control over backend selection and traversal behavior.
type Options struct {
	// MappedThreshold is the file size, in bytes, above which Open selects the
	// memory-mapped sector source instead of eagerly reading every sector into
	// memory.
	//
	// Default: 100 MiB
	MappedThreshold int64 `json:"mappedThreshold"`

	// HotBlockCacheSize is the maximum number of decoded blocks the decoder's
	// hot-block cache holds, for either sector backend. Once the cache is
	// full, further blocks are decoded on demand and not cached; nothing is
	// evicted.
	//
	//  - Default: 1024
	//  - Minimum: 1
	HotBlockCacheSize int `json:"hotBlockCacheSize"`

	// HotPrefixBlocks is the number of leading blocks (by this_id) that are
	// cached once decoded and kept for the life of the open file, up to
	// HotBlockCacheSize entries. Blocks past this prefix are decoded on
	// demand and not retained.
	//
	// Default: 100
	HotPrefixBlocks int `json:"hotPrefixBlocks"`

	// MaxBlocks is the largest sector count a traversal accepts; a file with
	// more sectors is rejected with BadSectorCount. The visited bitset and
	// the iteration cap (2*sector count) that guarantee block-chain traversal
	// terminates on a corrupt or cyclic next_id chain are sized from the
	// file's sector count, so MaxBlocks bounds both.
	//
	// Default: 1_000_000
	MaxBlocks int `json:"maxBlocks"`

	// Charset, if non-empty, overrides the character set the header parser
	// would otherwise select, naming one of "MACINTOSH", "WINDOWS-1252", or
	// "SCSU".
	Charset string `json:"charset"`
}

// OptionFunc is a function type that modifies the decoder's configuration.
type OptionFunc func(*Options)

// WithDefaultOptions applies a predefined set of default configuration values.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		opts := NewDefaultOptions()
		o.MappedThreshold = opts.MappedThreshold
		o.HotBlockCacheSize = opts.HotBlockCacheSize
		o.HotPrefixBlocks = opts.HotPrefixBlocks
		o.MaxBlocks = opts.MaxBlocks
		o.Charset = opts.Charset
	}
}

// WithMappedThreshold sets the file-size threshold above which the
// memory-mapped sector source is selected instead of the eager stream
// source. Values at or below zero are ignored.
func WithMappedThreshold(bytes int64) OptionFunc {
	return func(o *Options) {
		if bytes > 0 {
			o.MappedThreshold = bytes
		}
	}
}

// WithHotBlockCacheSize sets the number of decoded blocks the decoder's
// hot-block cache may hold. Values below MinHotBlockCacheSize are ignored.
func WithHotBlockCacheSize(size int) OptionFunc {
	return func(o *Options) {
		if size >= MinHotBlockCacheSize {
			o.HotBlockCacheSize = size
		}
	}
}

// WithHotPrefixBlocks sets how many leading blocks stay cached for the
// duration of a traversal. Negative values are ignored.
func WithHotPrefixBlocks(count int) OptionFunc {
	return func(o *Options) {
		if count >= 0 {
			o.HotPrefixBlocks = count
		}
	}
}

// WithMaxBlocks sets the largest sector count a traversal accepts. Values
// below MinMaxBlocks are ignored.
func WithMaxBlocks(count int) OptionFunc {
	return func(o *Options) {
		if count >= MinMaxBlocks {
			o.MaxBlocks = count
		}
	}
}

// WithCharset overrides the character set the header parser would otherwise
// select. Blank strings are ignored.
func WithCharset(charset string) OptionFunc {
	return func(o *Options) {
		charset = strings.TrimSpace(charset)
		if charset != "" {
			o.Charset = strings.ToUpper(charset)
		}
	}
}

// validCharsets is the set of Charset override names internal/charset knows
// how to build a converter for.
var validCharsets = map[string]bool{
	"MACINTOSH":    true,
	"WINDOWS-1252": true,
	"SCSU":         true,
}

// Validate reports a *errors.ValidationError for the first structurally
// invalid field it finds, or nil if o is usable as-is.
//
// The With* setters above intentionally ignore out-of-range input
// rather than fail, the same way the teacher's WithSegmentSize/
// WithCompactInterval silently keep the previous value on a bad call — a
// functional OptionFunc has no error return to report through. That pattern
// only protects callers who build Options through NewDefaultOptions plus
// With* calls. A caller who assembles or mutates an Options value directly
// (as the teacher's index.New guards against a hand-built, invalid Config)
// bypasses every setter check, so Validate is the single place that actually
// rejects the result; decoder.Open and decoder.OpenBytes call it before
// opening anything.
func (o Options) Validate() error {
	if o.MappedThreshold <= 0 {
		return errors.NewFieldRangeError("MappedThreshold", o.MappedThreshold, 1, nil)
	}
	if o.HotBlockCacheSize < MinHotBlockCacheSize {
		return errors.NewFieldRangeError("HotBlockCacheSize", o.HotBlockCacheSize, MinHotBlockCacheSize, nil)
	}
	if o.HotPrefixBlocks < 0 {
		return errors.NewFieldRangeError("HotPrefixBlocks", o.HotPrefixBlocks, 0, nil)
	}
	if o.MaxBlocks < 1 {
		return errors.NewFieldRangeError("MaxBlocks", o.MaxBlocks, 1, nil)
	}
	if o.Charset != "" && !validCharsets[o.Charset] {
		return errors.NewFieldFormatError("Charset", o.Charset, `"MACINTOSH", "WINDOWS-1252", or "SCSU"`)
	}
	return nil
}
