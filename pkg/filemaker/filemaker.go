// Package filemaker is the public surface of the decoder: it wires together
// internal/decoder, internal/metadata, and internal/row behind the closed
// operation set described for the file-context API (spec §6) — open/close a
// file, discover metadata, and stream row values through a callback. Every
// lower-level package lives under internal/ precisely so this is the one
// door callers go through.
package filemaker

import (
	"github.com/iamNilotpal/fmreader/internal/decoder"
	"github.com/iamNilotpal/fmreader/internal/metadata"
	"github.com/iamNilotpal/fmreader/internal/pathstack"
	"github.com/iamNilotpal/fmreader/internal/row"
	decodeerrors "github.com/iamNilotpal/fmreader/pkg/errors"
	"github.com/iamNilotpal/fmreader/pkg/logger"
	"github.com/iamNilotpal/fmreader/pkg/options"
	"go.uber.org/zap"
)

// Status is the two-valued outcome a callback or a top-level read operation
// reports, matching the {OK, ABORT} pair callbacks return (spec §6).
type Status int

const (
	StatusOK Status = iota
	StatusAbort
)

func (s Status) String() string {
	if s == StatusAbort {
		return "ABORT"
	}
	return "OK"
}

// Metadata, Table, and Column are re-exported so callers never need to
// import internal/metadata directly.
type (
	Metadata = metadata.Metadata
	Table    = metadata.Table
	Column   = metadata.Column
)

// ValueCallback receives one reconstructed value from ReadAllValues.
// Returning anything other than StatusOK aborts the whole traversal.
type ValueCallback func(tableIndex, row, column int, value string, userCtx any) Status

// TableValueCallback is the per-table variant ReadValues invokes; it omits
// the table index since the caller already named the table.
type TableValueCallback func(row, column int, value string, userCtx any) Status

// File is one open FileMaker database, selecting its sector backend and
// charset converter at Open/OpenBytes time.
type File struct {
	dec *decoder.Decoder
	log *zap.SugaredLogger
}

func buildConfig(opts []options.OptionFunc) *decoder.Config {
	o := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &decoder.Config{Options: &o, Logger: logger.New("filemaker")}
}

// Open opens path, selecting the stream or memory-mapped sector source by
// file size (spec §4.2). opts configures cache sizes and traversal limits;
// the zero value of any unset option falls back to its documented default.
func Open(path string, opts ...options.OptionFunc) (*File, error) {
	cfg := buildConfig(opts)
	dec, err := decoder.Open(path, cfg)
	if err != nil {
		return nil, err
	}
	return &File{dec: dec, log: cfg.Logger}, nil
}

// OpenBytes opens an in-memory buffer, rejecting sizes above the configured
// mapped threshold (spec §6 NoInMemoryOpenSupport). sourceName is used only
// to synthesize a pre-v7 file's single implicit table name.
func OpenBytes(data []byte, sourceName string, opts ...options.OptionFunc) (*File, error) {
	cfg := buildConfig(opts)
	dec, err := decoder.OpenBytes(data, sourceName, cfg)
	if err != nil {
		return nil, err
	}
	return &File{dec: dec, log: cfg.Logger}, nil
}

// Close releases every resource the file holds. Calling Close twice returns
// an error rather than panicking.
func (f *File) Close() error {
	return f.dec.Close()
}

func (f *File) newExtractor() *metadata.Extractor {
	h := f.dec.Header()
	if h.VersionNum < 7 {
		return metadata.NewPreV7Extractor(h.VersionNum, f.dec.Converter(), f.dec.SourceName())
	}
	return metadata.NewExtractor(h.VersionNum, f.dec.Converter())
}

// DiscoverAllMetadata runs one full traversal extracting every table and
// column definition (spec §4.6).
func (f *File) DiscoverAllMetadata() (*Metadata, error) {
	extractor := f.newExtractor()

	if _, err := f.dec.Walk(extractor.Visit); err != nil {
		return nil, err
	}

	meta := extractor.Result()
	f.log.Infow("metadata discovered", "tables", len(meta.Tables))
	return meta, nil
}

// ListTables is a convenience façade over DiscoverAllMetadata that returns
// only the table list (spec §6).
func (f *File) ListTables() ([]*Table, error) {
	meta, err := f.DiscoverAllMetadata()
	if err != nil {
		return nil, err
	}
	return meta.Tables, nil
}

// ListColumns is a convenience façade that discovers metadata and returns
// the column list for one table, identified by its original (preserved)
// index (spec §6).
func (f *File) ListColumns(tableIndex int) ([]*Column, error) {
	meta, err := f.DiscoverAllMetadata()
	if err != nil {
		return nil, err
	}
	return meta.ColumnsForTable(tableIndex), nil
}

// ReadAllValues runs one traversal emitting every reconstructed value across
// every table discovered in meta (spec §4.7, §6). meta should come from a
// prior DiscoverAllMetadata call against the same file.
func (f *File) ReadAllValues(meta *Metadata, cb ValueCallback, userCtx any) (Status, error) {
	emit := func(tableIndex, rowIndex, columnIndex int, value string) pathstack.Status {
		if cb(tableIndex, rowIndex, columnIndex, value, userCtx) != StatusOK {
			return pathstack.StatusAbort
		}
		return pathstack.StatusNext
	}

	assembler := row.NewAssembler(f.dec.Header().VersionNum, f.dec.Converter(), meta, emit)
	status, err := f.dec.Walk(assembler.Visit)
	if status == pathstack.StatusAbort {
		return StatusAbort, err
	}
	if err != nil {
		return StatusAbort, err
	}

	if finishStatus := assembler.Finish(); finishStatus == pathstack.StatusAbort {
		return StatusAbort, decodeerrors.NewUserAbortedError()
	}
	return StatusOK, nil
}

// ReadValues is the per-table variant of ReadAllValues: cb omits the table
// index, and values from every other table are silently dropped (spec §6).
func (f *File) ReadValues(meta *Metadata, tableIndex int, cb TableValueCallback, userCtx any) (Status, error) {
	wrapped := func(ti, rowIndex, columnIndex int, value string, ctx any) Status {
		if ti != tableIndex {
			return StatusOK
		}
		return cb(rowIndex, columnIndex, value, ctx)
	}
	return f.ReadAllValues(meta, wrapped, userCtx)
}

// FreeMetadata releases meta's discovered tables and columns. The Go
// runtime reclaims the memory on its own, but Free mirrors the explicit
// lifecycle the decoder API documents (spec §6) so callers following that
// contract have something to call.
func FreeMetadata(meta *Metadata) {
	if meta == nil {
		return
	}
	meta.Tables = nil
	meta.Columns = nil
}
