// Package row reconstructs (table, row, column, value) tuples from a file's
// dispatched chunk stream (spec §4.7). Like the metadata extractor, it is a
// pathstack.Consumer the decoder package dispatches every block's chunk
// chain to; the two consumers run independently and never share state.
package row

import (
	"github.com/iamNilotpal/fmreader/internal/charset"
	"github.com/iamNilotpal/fmreader/internal/chunk"
	"github.com/iamNilotpal/fmreader/internal/metadata"
	"github.com/iamNilotpal/fmreader/internal/pathstack"
)

// metadataSentinelRefSimple is the reserved ref_simple value that marks a
// metadata record rather than row data, excluded from regular-value column
// resolution (spec §4.7 step 2).
const metadataSentinelRefSimple = 252

// EmitFunc receives one reconstructed value. Returning anything other than
// pathstack.StatusNext stops the whole traversal, surfacing the returned
// status to the caller of the top-level read operation.
type EmitFunc func(tableIndex, rowIndex, columnIndex int, value string) pathstack.Status

// state is the per-table accumulator described in spec §4.7. The format
// gives rows no explicit counter, so currentRow only ever advances on the
// one observable signal available within a table's chunk stream: the
// resolved column index wrapping back below the previous one.
type state struct {
	currentRow   int
	lastColumn   int
	longBuf      []byte
	longBufTable int
}

// Assembler walks a file's dispatched chunks and emits reconstructed values
// through an EmitFunc, reassembling long-string fragments along the way.
type Assembler struct {
	versionNum int
	conv       *charset.Converter
	meta       *metadata.Metadata
	emit       EmitFunc
	states     map[int]*state // keyed by original (preserved) table index.
}

// NewAssembler returns an Assembler bound to meta's discovered tables and
// columns, emitting through emit.
func NewAssembler(versionNum int, conv *charset.Converter, meta *metadata.Metadata, emit EmitFunc) *Assembler {
	return &Assembler{
		versionNum: versionNum,
		conv:       conv,
		meta:       meta,
		emit:       emit,
		states:     make(map[int]*state),
	}
}

func (a *Assembler) stateFor(tableIndex int) *state {
	s, ok := a.states[tableIndex]
	if !ok {
		s = &state{}
		a.states[tableIndex] = s
	}
	return s
}

// Visit implements pathstack.Consumer.
func (a *Assembler) Visit(c *chunk.Chunk) pathstack.Status {
	if c.Type != chunk.KindFieldRefSimple && c.Type != chunk.KindDataSegment {
		return pathstack.StatusNext
	}

	tableIdx, tablePath, ok := a.tableData(c.Path)
	if !ok {
		return pathstack.StatusNext
	}

	cols := a.meta.ColumnsForTable(tableIdx)
	if cols == nil {
		return pathstack.StatusNext
	}
	s := a.stateFor(tableIdx)

	if longColumnIdx, isLong := longStringPath(tablePath); isLong {
		if c.Type == chunk.KindFieldRefSimple && c.RefSimple == 0 {
			return pathstack.StatusNext // rich-text formatting, dropped.
		}
		if metadata.ColumnByIndex(cols, longColumnIdx) == nil {
			return pathstack.StatusNext
		}
		if status := a.advanceAndFlush(s, longColumnIdx); status != pathstack.StatusNext {
			return status
		}
		s.longBuf = append(s.longBuf, c.Data...)
		s.longBufTable = tableIdx
		s.lastColumn = longColumnIdx
		return pathstack.StatusNext
	}

	columnIdx, ok := a.resolveRegularColumn(c, len(cols))
	if !ok {
		return pathstack.StatusNext
	}
	if metadata.ColumnByIndex(cols, columnIdx) == nil {
		return pathstack.StatusNext
	}

	if status := a.advanceAndFlush(s, columnIdx); status != pathstack.StatusNext {
		return status
	}

	value, err := a.conv.Convert(c.Data)
	if err != nil {
		return pathstack.StatusNext
	}
	s.lastColumn = columnIdx
	return a.emit(tableIdx, s.currentRow, columnIdx, value)
}

// tableData reports whether path identifies a chunk as table data, and if
// so returns the owning table's original index plus the path with the
// table-selector segment stripped for v7+ (spec §4.7: v7+ path[0] >= 128,
// pre-v7 path[0] <= 3).
func (a *Assembler) tableData(path []uint32) (tableIndex int, rest []uint32, ok bool) {
	if len(path) == 0 {
		return 0, nil, false
	}
	if a.versionNum >= 7 {
		if path[0] < 128 {
			return 0, nil, false
		}
		return int(path[0]) - 128, path[1:], true
	}
	if path[0] > 3 {
		return 0, nil, false
	}
	return 1, path, true
}

// longStringPath reports whether path matches the depth-3 long-string shape
// {3, 5, columnIdx}, the same pattern the metadata extractor recognizes
// column definitions by.
func longStringPath(path []uint32) (columnIndex int, ok bool) {
	if len(path) != 3 || path[0] != 3 || path[1] != 5 {
		return 0, false
	}
	return int(path[2]), true
}

// resolveRegularColumn resolves a non-long-string chunk's column index from
// ref_simple or segment_index, bounds-checked against columnCount and the
// reserved metadata sentinel (spec §4.7 step 2).
func (a *Assembler) resolveRegularColumn(c *chunk.Chunk, columnCount int) (int, bool) {
	var idx int
	switch c.Type {
	case chunk.KindFieldRefSimple:
		idx = c.RefSimple
	case chunk.KindDataSegment:
		idx = c.SegmentIndex
	default:
		return 0, false
	}
	if idx <= 0 || idx > columnCount || idx == metadataSentinelRefSimple {
		return 0, false
	}
	return idx, true
}

// advanceAndFlush implements spec §4.7 steps 3-4: flush a pending
// long-string buffer on column change, then advance current_row if the
// column index wrapped below its previous value.
func (a *Assembler) advanceAndFlush(s *state, resolvedColumn int) pathstack.Status {
	if resolvedColumn != s.lastColumn && len(s.longBuf) > 0 {
		if status := a.flush(s); status != pathstack.StatusNext {
			return status
		}
	}

	if resolvedColumn < s.lastColumn {
		s.currentRow++
	}

	return pathstack.StatusNext
}

// flush converts and emits the accumulated long-string buffer under the
// state's previous column and current row, then clears it.
func (a *Assembler) flush(s *state) pathstack.Status {
	value, err := a.conv.Convert(s.longBuf)
	s.longBuf = s.longBuf[:0]
	if err != nil {
		return pathstack.StatusNext
	}
	return a.emit(s.longBufTable, s.currentRow, s.lastColumn, value)
}

// Finish flushes every table's pending long-string buffer after the block
// chain has been fully consumed (spec §4.7 "Final flush").
func (a *Assembler) Finish() pathstack.Status {
	for _, s := range a.states {
		if len(s.longBuf) == 0 {
			continue
		}
		if status := a.flush(s); status != pathstack.StatusNext {
			return status
		}
	}
	return pathstack.StatusNext
}
