package metadata

// ColumnsForTable returns the compacted column list for the table whose
// preserved Index attribute equals tableIndex, or nil if no such table was
// discovered. Lookups use the original table index rather than a table's
// position in m.Tables, matching how the file format itself identifies a
// table in every chunk's path (spec §3: "original indices are preserved on
// the entities themselves").
func (m *Metadata) ColumnsForTable(tableIndex int) []*Column {
	for i, t := range m.Tables {
		if t.Index == tableIndex {
			return m.Columns[i+1]
		}
	}
	return nil
}

// ColumnByIndex returns the column with the given Index within cols, or
// nil if none matches (spec §4.7 step 2: "if the resolved index does not
// match any column's index, the chunk is skipped").
func ColumnByIndex(cols []*Column, index int) *Column {
	for _, c := range cols {
		if c.Index == index {
			return c
		}
	}
	return nil
}
