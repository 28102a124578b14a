// Package sector implements the two interchangeable sector-acquisition
// backends behind one contract: GetSector(i) returns the raw bytes of the
// i-th (0-based) sector. Everything above this package — block decoding,
// chunk decoding, path dispatch — is backend-agnostic; it only ever asks a
// Source for sector bytes.
package sector

import (
	decodeerrors "github.com/iamNilotpal/fmreader/pkg/errors"
)

// Source is implemented by both the eager stream backend and the
// memory-mapped backend. Both report BadSector when an index is out of
// range, so callers never need to special-case which backend they're using.
type Source interface {
	// GetSector returns the sectorSize-length byte slice for the 0-based
	// sector index i. The returned slice must not be retained past the
	// current block's processing for the mapped backend, which may reuse
	// or discard underlying storage once the caller is done with it.
	GetSector(i int) ([]byte, error)

	// SectorCount returns the total number of whole sectors available.
	SectorCount() int

	// Close releases any resources (mapping, file handle) held by the source.
	Close() error
}

// checkIndex is the bounds check shared by both backends.
func checkIndex(i, count int) error {
	if i < 0 || i >= count {
		return decodeerrors.NewBadSectorError(i, count)
	}
	return nil
}
