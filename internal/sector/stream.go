package sector

import (
	"io"

	decodeerrors "github.com/iamNilotpal/fmreader/pkg/errors"
	"go.uber.org/zap"
)

// StreamSource eagerly reads every sector of a seekable file into memory at
// open time. It is selected for files that comfortably fit in memory
// (spec §4.2, ~≤100 MiB) and trades a larger up-front read for simple,
// allocation-free GetSector calls afterward.
type StreamSource struct {
	sectorSize int
	sectors    [][]byte
	log        *zap.SugaredLogger
}

// NewStreamSource reads r from its current position to EOF and slices the
// result into sectorSize-byte sectors, discarding any trailing partial
// sector (the caller has already positioned r past the header and throwaway
// sector, at header.ThrowawaySectorEnd, so r's current position is the start
// of sector 0 as far as the block decoder is concerned).
func NewStreamSource(r io.Reader, sectorSize int, log *zap.SugaredLogger) (*StreamSource, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, decodeerrors.NewDecodeError(err, decodeerrors.ErrorCodeRead, "failed to read file into memory").
			WithCode(decodeerrors.ErrorCodeRead)
	}

	count := len(data) / sectorSize
	sectors := make([][]byte, count)
	for i := 0; i < count; i++ {
		sectors[i] = data[i*sectorSize : (i+1)*sectorSize]
	}

	log.Infow("stream sector source ready", "sectorCount", count, "sectorSize", sectorSize)

	return &StreamSource{sectorSize: sectorSize, sectors: sectors, log: log}, nil
}

// GetSector implements Source.
func (s *StreamSource) GetSector(i int) ([]byte, error) {
	if err := checkIndex(i, len(s.sectors)); err != nil {
		return nil, err
	}
	return s.sectors[i], nil
}

// SectorCount implements Source.
func (s *StreamSource) SectorCount() int { return len(s.sectors) }

// Close implements Source. The stream source holds no OS resources past
// the initial read, so Close is a no-op that only drops its reference to
// the in-memory sectors for the garbage collector.
func (s *StreamSource) Close() error {
	s.sectors = nil
	return nil
}
