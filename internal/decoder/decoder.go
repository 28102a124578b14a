// Package decoder is the file-context pipeline coordinator: it owns the
// header, sector source, path stack, and charset converter for one open
// file, and drives the block-chain traversal that both the metadata
// extractor and row assembler ride on (spec §2, §5). It plays the
// coordinating role the teacher's engine package plays over storage and
// index, adapted from a write-path key/value engine to a read-only
// decoding pipeline.
package decoder

import (
	"bytes"
	stdErrors "errors"
	"io"
	"os"
	"sync/atomic"

	"github.com/iamNilotpal/fmreader/internal/block"
	"github.com/iamNilotpal/fmreader/internal/charset"
	"github.com/iamNilotpal/fmreader/internal/chunk"
	"github.com/iamNilotpal/fmreader/internal/header"
	"github.com/iamNilotpal/fmreader/internal/pathstack"
	"github.com/iamNilotpal/fmreader/internal/sector"
	decodeerrors "github.com/iamNilotpal/fmreader/pkg/errors"
	"github.com/iamNilotpal/fmreader/pkg/filesys"
	"github.com/iamNilotpal/fmreader/pkg/options"
	"go.uber.org/zap"
)

// ErrFileClosed is returned when an operation is attempted against a
// Decoder that has already been closed.
var ErrFileClosed = stdErrors.New("operation failed: cannot access closed file")

// hotPrefixCacheMax is a defensive upper bound on how many blocks the hot
// prefix holds regardless of options, preventing a misconfigured
// HotPrefixBlocks from growing the cache unbounded.
const hotPrefixCacheMax = 1 << 16

// Decoder is the per-file pipeline coordinator. It is not safe for
// concurrent use by multiple goroutines; each open file is owned
// exclusively by its traversal (spec §5).
type Decoder struct {
	log        *zap.SugaredLogger
	opts       *options.Options
	header     *header.Header
	source     sector.Source
	conv       *charset.Converter
	stack      *pathstack.Stack
	sourceName string // basename used to synthesize a pre-v7 table name.

	hotBlocks map[uint32]*block.Block // first ~HotPrefixBlocks decoded blocks, kept warm.

	closed atomic.Bool
}

// Config holds the dependencies and options shared by Open and OpenBytes.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// Open opens path, selecting the stream or memory-mapped sector source by
// file size against cfg.Options.MappedThreshold.
func Open(path string, cfg *Config) (*Decoder, error) {
	if err := cfg.Options.Validate(); err != nil {
		return nil, err
	}

	exists, err := filesys.Exists(path)
	if err != nil {
		return nil, decodeerrors.NewDecodeError(err, decodeerrors.ErrorCodeOpen, "failed to stat file").
			WithDetail("path", path)
	}
	if !exists {
		return nil, decodeerrors.NewDecodeError(os.ErrNotExist, decodeerrors.ErrorCodeOpen, "file does not exist").
			WithDetail("path", path)
	}

	fileSize, err := filesys.Size(path)
	if err != nil {
		return nil, decodeerrors.NewDecodeError(err, decodeerrors.ErrorCodeOpen, "failed to size file").
			WithDetail("path", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, decodeerrors.NewDecodeError(err, decodeerrors.ErrorCodeOpen, "failed to open file").
			WithDetail("path", path)
	}

	raw := make([]byte, 1024)
	if _, err := io.ReadFull(f, raw); err != nil {
		f.Close()
		return nil, decodeerrors.NewDecodeError(err, decodeerrors.ErrorCodeRead, "failed to read file header")
	}

	h, err := header.Parse(raw)
	if err != nil {
		f.Close()
		return nil, err
	}

	var src sector.Source
	if fileSize > cfg.Options.MappedThreshold {
		src, err = sector.NewMappedSource(f, h.ThrowawaySectorEnd(), h.SectorSize, cfg.Logger)
		if err != nil {
			f.Close()
			return nil, err
		}
	} else {
		if _, err := f.Seek(h.ThrowawaySectorEnd(), io.SeekStart); err != nil {
			f.Close()
			return nil, decodeerrors.NewDecodeError(err, decodeerrors.ErrorCodeSeek, "failed to seek past throwaway sector")
		}
		src, err = sector.NewStreamSource(f, h.SectorSize, cfg.Logger)
		if err != nil {
			f.Close()
			return nil, err
		}
		// StreamSource reads f fully into memory at construction and keeps no
		// reference to the descriptor afterward; the mapped path closes f
		// itself (in MappedSource.Close), but the stream path must close it
		// here or the descriptor leaks for the life of the Decoder.
		if err := f.Close(); err != nil {
			return nil, decodeerrors.NewDecodeError(err, decodeerrors.ErrorCodeIO, "failed to close file after reading into memory")
		}
	}

	return newDecoder(h, src, fileSize, filepathBase(path), cfg)
}

// OpenBytes opens an in-memory buffer. Buffers larger than the mapped
// threshold are rejected with NoInMemoryOpenSupport: there is no file
// descriptor to memory-map, and eagerly slicing a very large byte slice
// defeats the purpose of the size threshold.
func OpenBytes(data []byte, sourceName string, cfg *Config) (*Decoder, error) {
	if err := cfg.Options.Validate(); err != nil {
		return nil, err
	}

	fileSize := int64(len(data))
	if fileSize > cfg.Options.MappedThreshold {
		return nil, decodeerrors.NewDecodeError(
			nil, decodeerrors.ErrorCodeNoInMemoryOpenSupport, "in-memory open is not supported above the mapped-source threshold",
		).WithDetail("size", fileSize).WithDetail("threshold", cfg.Options.MappedThreshold)
	}
	if fileSize < 1024 {
		return nil, decodeerrors.NewDecodeError(io.ErrUnexpectedEOF, decodeerrors.ErrorCodeRead, "buffer shorter than the 1024-byte header")
	}

	h, err := header.Parse(data[:1024])
	if err != nil {
		return nil, err
	}

	r := bytes.NewReader(data)
	if _, err := r.Seek(h.ThrowawaySectorEnd(), io.SeekStart); err != nil {
		return nil, decodeerrors.NewDecodeError(err, decodeerrors.ErrorCodeSeek, "failed to seek past throwaway sector")
	}
	src, err := sector.NewStreamSource(r, h.SectorSize, cfg.Logger)
	if err != nil {
		return nil, err
	}

	return newDecoder(h, src, fileSize, sourceName, cfg)
}

func newDecoder(h *header.Header, src sector.Source, fileSize int64, sourceName string, cfg *Config) (*Decoder, error) {
	conv, err := charset.New(h, cfg.Options.Charset)
	if err != nil {
		src.Close()
		return nil, err
	}

	first, err := decodeBlockAt(src, h, 0)
	if err != nil {
		src.Close()
		return nil, err
	}
	if err := h.ValidateSectorCount(first.NextID, fileSize); err != nil {
		src.Close()
		return nil, err
	}

	hotPrefix := cfg.Options.HotPrefixBlocks
	if hotPrefix > hotPrefixCacheMax {
		hotPrefix = hotPrefixCacheMax
	}

	d := &Decoder{
		log:        cfg.Logger,
		opts:       cfg.Options,
		header:     h,
		source:     src,
		conv:       conv,
		stack:      pathstack.New(),
		sourceName: sourceName,
		hotBlocks:  make(map[uint32]*block.Block, hotPrefix),
	}
	d.hotBlocks[first.ThisID] = first

	cfg.Logger.Infow(
		"file opened", "version", h.VersionNum, "sectorSize", h.SectorSize,
		"sectorCount", src.SectorCount(), "fileSize", fileSize,
	)
	return d, nil
}

func filepathBase(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}

// Header returns the parsed file header.
func (d *Decoder) Header() *header.Header { return d.header }

// SourceName returns the basename passed at open time, used to synthesize
// a pre-v7 file's single implicit table name.
func (d *Decoder) SourceName() string { return d.sourceName }

// Converter returns the charset converter selected for this file.
func (d *Decoder) Converter() *charset.Converter { return d.conv }

// Close releases the underlying sector source. Calling Close more than
// once returns ErrFileClosed.
func (d *Decoder) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return ErrFileClosed
	}
	d.log.Infow("closing file", "sectorCount", d.source.SectorCount())
	d.hotBlocks = nil
	return d.source.Close()
}

// decodeBlockAt decodes the block whose this_id is i+1 (i is the 0-based
// sector index implied by the chain, not necessarily the physical sector
// index). The source's base offset already accounts for the header and
// throwaway sector, so no further shift is needed for HBAM3/HBAM5/HBAM7/
// fmp12 files; the untagged pre-v7 generic header variant's physical
// sectors run h.SectorIndexShift further ahead of this_id numbering, which
// is applied here rather than at this_id itself so every other caller still
// reasons in terms of this_id-1 (spec §4.1, §4.3).
func decodeBlockAt(src sector.Source, h *header.Header, i int) (*block.Block, error) {
	raw, err := src.GetSector(i + h.SectorIndexShift)
	if err != nil {
		return nil, err
	}
	return block.Decode(h, uint32(i+1), raw)
}

// blockAt returns the block at sector index i, serving it from the hot
// prefix cache when present and caching it there when i falls within the
// configured hot prefix (spec §3 "Lifecycles": blocks outside the hot
// prefix are decoded on demand and not retained).
func (d *Decoder) blockAt(i int) (*block.Block, error) {
	thisID := uint32(i + 1)
	if b, ok := d.hotBlocks[thisID]; ok {
		return b, nil
	}

	b, err := decodeBlockAt(d.source, d.header, i)
	if err != nil {
		return nil, err
	}
	if i < d.opts.HotPrefixBlocks && len(d.hotBlocks) < d.opts.HotBlockCacheSize {
		d.hotBlocks[thisID] = b
	}
	return b, nil
}

// Walk traverses the block chain starting at sector index 0 (this_id 1),
// dispatching every non-deleted block's chunk chain to consume. Traversal
// stops on StatusDone or StatusAbort, on a bad or repeated block (an
// always-on bitset-backed visited tracker, per spec §9's resolution of the
// source's size-gated loop detection), or once the iteration cap of
// 2*num_blocks is reached.
func (d *Decoder) Walk(consume pathstack.Consumer) (pathstack.Status, error) {
	if d.closed.Load() {
		return pathstack.StatusAbort, ErrFileClosed
	}

	numBlocks := d.source.SectorCount()
	if numBlocks == 0 {
		return pathstack.StatusDone, nil
	}
	if numBlocks > d.opts.MaxBlocks {
		return pathstack.StatusAbort, decodeerrors.NewDecodeError(
			nil, decodeerrors.ErrorCodeBadSectorCount, "sector count exceeds the configured maximum block count",
		).WithDetail("sectorCount", numBlocks).WithDetail("maxBlocks", d.opts.MaxBlocks)
	}

	visited := newVisitedSet(numBlocks)
	iterationCap := 2 * numBlocks

	thisID := uint32(1)
	for iterations := 0; thisID != 0; iterations++ {
		if iterations >= iterationCap {
			return pathstack.StatusAbort, decodeerrors.NewDecodeError(
				nil, decodeerrors.ErrorCodeBadSector, "block chain exceeded its iteration cap",
			).WithBlockID(thisID)
		}

		idx := int(thisID) - 1
		if idx < 0 || idx >= numBlocks {
			return pathstack.StatusAbort, decodeerrors.NewBadSectorError(idx, numBlocks)
		}
		if visited.seen(thisID) {
			return pathstack.StatusAbort, decodeerrors.NewDecodeError(
				nil, decodeerrors.ErrorCodeBadSector, "block chain revisited a block",
			).WithBlockID(thisID)
		}
		visited.mark(thisID)

		b, err := d.blockAt(idx)
		if err != nil {
			return pathstack.StatusAbort, err
		}

		next := b.NextID
		if !b.Deleted {
			chain := chunk.Decode(b.Payload)
			status := d.stack.Dispatch(chain, d.header.VersionNum, consume)
			switch status {
			case pathstack.StatusAbort:
				return status, decodeerrors.NewUserAbortedError()
			case pathstack.StatusDone:
				return status, nil
			}
		}

		thisID = next
	}

	return pathstack.StatusNext, nil
}
