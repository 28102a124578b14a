// Package metadata extracts the table and column definitions encoded in a
// file's chunk stream (spec §4.6). It is a pathstack.Consumer: the decoder
// package dispatches every block's chunk chain to an Extractor exactly as
// it dispatches to the row assembler, the two consumers never interacting.
package metadata

import (
	"path/filepath"
	"strings"

	"github.com/iamNilotpal/fmreader/internal/charset"
	"github.com/iamNilotpal/fmreader/internal/chunk"
	"github.com/iamNilotpal/fmreader/internal/pathstack"
)

// ColumnType is the closed set of column kinds a FileMaker field can have.
type ColumnType int

const (
	ColumnTypeUnknown ColumnType = iota
	ColumnTypeString
	ColumnTypeNumber
	ColumnTypeDate
	ColumnTypeTime
	ColumnTypeContainer
	ColumnTypeCalc
	ColumnTypeSummary
	ColumnTypeGlobal
)

// String renders a ColumnType for diagnostics.
func (t ColumnType) String() string {
	switch t {
	case ColumnTypeString:
		return "STRING"
	case ColumnTypeNumber:
		return "NUMBER"
	case ColumnTypeDate:
		return "DATE"
	case ColumnTypeTime:
		return "TIME"
	case ColumnTypeContainer:
		return "CONTAINER"
	case ColumnTypeCalc:
		return "CALC"
	case ColumnTypeSummary:
		return "SUMMARY"
	case ColumnTypeGlobal:
		return "GLOBAL"
	default:
		return "UNKNOWN"
	}
}

// columnTypeByByte maps the raw type byte a FIELD_REF_SIMPLE ref_simple==2
// chunk carries to its enum entry. Indices beyond the table decode to
// ColumnTypeUnknown, matching spec §4.6's "else UNKNOWN" fallback.
var columnTypeByByte = [...]ColumnType{
	ColumnTypeUnknown,
	ColumnTypeString,
	ColumnTypeNumber,
	ColumnTypeDate,
	ColumnTypeTime,
	ColumnTypeContainer,
	ColumnTypeCalc,
	ColumnTypeSummary,
	ColumnTypeGlobal,
}

func columnTypeFromByte(b byte) ColumnType {
	if int(b) < len(columnTypeByByte) {
		return columnTypeByByte[b]
	}
	return ColumnTypeUnknown
}

// columnsPerTableGrowth is the minimum number of slots a table's column list
// grows by at a time (spec §4.6 "grown in chunks of at least 128 slots").
const columnsPerTableGrowth = 128

// Table is one table definition. Index is 1-based and is preserved through
// compaction even though the table's position in Metadata.Tables may shift.
type Table struct {
	Index int
	Name  string
	Skip  bool // client may mark unwanted tables; extraction never sets this.
}

// Column is one column definition within a table.
type Column struct {
	Index     int
	Name      string
	Type      ColumnType
	Collation byte
}

// Metadata is the compacted result of one extraction pass: a dense table
// list plus a columns-by-compacted-table-position map.
type Metadata struct {
	Tables  []*Table
	Columns map[int][]*Column // keyed 1..len(Tables), matching compacted table position.
}

// Extractor accumulates table and column definitions across a block-chain
// traversal. Tables and columns are grown sparsely as new indices are seen
// and compacted once at Result().
type Extractor struct {
	versionNum     int
	conv           *charset.Converter
	tables         []*Table         // index i holds table with Index == i+1, or nil.
	columnsByTable map[int][]*Column // keyed by original (uncompacted) table index during accumulation.
	done           bool
}

// NewExtractor returns an Extractor ready to consume a v7+ file's chunk
// stream, where table definitions are discovered from the chunks
// themselves.
func NewExtractor(versionNum int, conv *charset.Converter) *Extractor {
	return &Extractor{
		versionNum:     versionNum,
		conv:           conv,
		columnsByTable: make(map[int][]*Column),
	}
}

// NewPreV7Extractor returns an Extractor for a pre-v7 file, which has no
// table-definition chunks of its own: the file represents a single
// implicit table, synthesized here as table index 1 named after sourceFile
// with any extension stripped (spec §4.6).
func NewPreV7Extractor(versionNum int, conv *charset.Converter, sourceFile string) *Extractor {
	e := NewExtractor(versionNum, conv)
	base := filepath.Base(sourceFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	e.ensureTable(1).Name = name
	return e
}

func (e *Extractor) ensureTable(index int) *Table {
	for len(e.tables) < index {
		e.tables = append(e.tables, nil)
	}
	if e.tables[index-1] == nil {
		e.tables[index-1] = &Table{Index: index}
	}
	return e.tables[index-1]
}

func (e *Extractor) ensureColumn(tableIndex, columnIndex int) *Column {
	cols := e.columnsByTable[tableIndex]
	for len(cols) < columnIndex {
		grow := columnsPerTableGrowth
		if columnIndex-len(cols) > grow {
			grow = columnIndex - len(cols)
		}
		cols = append(cols, make([]*Column, grow)...)
	}
	if cols[columnIndex-1] == nil {
		cols[columnIndex-1] = &Column{Index: columnIndex}
	}
	e.columnsByTable[tableIndex] = cols
	return cols[columnIndex-1]
}

// Visit implements pathstack.Consumer.
func (e *Extractor) Visit(c *chunk.Chunk) pathstack.Status {
	if e.done {
		return pathstack.StatusDone
	}
	if c.Type != chunk.KindFieldRefSimple {
		return pathstack.StatusNext
	}

	path := c.Path
	if e.versionNum >= 7 {
		if len(path) > 0 && path[0] > 3 && path[0] < 128 {
			e.done = true
			return pathstack.StatusDone
		}
		if e.matchTableDef(path) {
			tableIdx := int(path[3]) - 128
			name, err := e.conv.Convert(c.Data)
			if err == nil {
				e.ensureTable(tableIdx).Name = name
			}
			return pathstack.StatusNext
		}
		if len(path) >= 1 && path[0] >= 128 {
			tableIdx := int(path[0]) - 128
			e.visitColumnChunk(tableIdx, path[1:], c)
		}
		return pathstack.StatusNext
	}

	// Pre-v7: single implicit table, no outer table-selector segment.
	e.visitColumnChunk(1, path, c)
	return pathstack.StatusNext
}

// matchTableDef reports whether path matches the v7+ table-definition
// pattern {3, 16, 5, tableIdx+128} (spec §4.6).
func (e *Extractor) matchTableDef(path []uint32) bool {
	return len(path) == 4 && path[0] == 3 && path[1] == 16 && path[2] == 5 && path[3] >= 128
}

// visitColumnChunk handles a FIELD_REF_SIMPLE chunk whose path (with any
// table-selector segment already stripped) matches the depth-3 column
// pattern {3, 5, columnIdx}: a literal prefix of {3, 5} followed by the
// innermost, variable column-index segment (spec §4.6).
func (e *Extractor) visitColumnChunk(tableIdx int, path []uint32, c *chunk.Chunk) {
	if len(path) != 3 || path[0] != 3 || path[1] != 5 {
		return
	}
	columnIdx := int(path[2])
	if columnIdx <= 0 {
		return
	}

	switch c.RefSimple {
	case 16, 1:
		name, err := e.conv.Convert(c.Data)
		if err == nil {
			e.ensureColumn(tableIdx, columnIdx).Name = name
		}
	case 2:
		if len(c.Data) < 4 {
			return
		}
		col := e.ensureColumn(tableIdx, columnIdx)
		col.Type = columnTypeFromByte(c.Data[1])
		col.Collation = c.Data[3]
	}
}

// Result compacts the accumulated tables and columns and returns the final
// Metadata. Compaction retains only entries with a nonzero index, preserving
// relative order, and re-keys the columns map to the compacted table
// positions (1..N) rather than the original per-table indices (spec §9's
// resolution of the source's fragile swap-indexing).
func (e *Extractor) Result() *Metadata {
	tables := make([]*Table, 0, len(e.tables))
	columns := make(map[int][]*Column, len(e.tables))

	for _, t := range e.tables {
		if t == nil || t.Index == 0 {
			continue
		}
		tables = append(tables, t)
		compactedPos := len(tables)
		columns[compactedPos] = compactColumns(e.columnsByTable[t.Index])
	}

	return &Metadata{Tables: tables, Columns: columns}
}

func compactColumns(cols []*Column) []*Column {
	out := make([]*Column, 0, len(cols))
	for _, c := range cols {
		if c == nil || c.Index == 0 {
			continue
		}
		out = append(out, c)
	}
	return out
}
