package sector

import (
	"os"

	"github.com/edsrzf/mmap-go"
	decodeerrors "github.com/iamNilotpal/fmreader/pkg/errors"
	"go.uber.org/zap"
)

// MappedSource projects sectors as read-only sub-slices of a memory mapping,
// avoiding the up-front full-file read the stream backend pays. It is
// selected once file size exceeds the configured mapped-source threshold
// (spec §4.2). The decoder's block cache (internal/decoder) is responsible
// for deciding which decoded blocks stay warm; this source only ever hands
// back zero-copy views into the mapping itself.
type MappedSource struct {
	file       *os.File
	mapping    mmap.MMap
	baseOffset int64
	sectorSize int
	count      int
}

// NewMappedSource maps f read-only in full, then exposes sectors starting at
// baseOffset (the byte offset immediately past the throwaway sector the
// header parser skips) through EOF, sliced into sectorSize-byte sectors.
func NewMappedSource(f *os.File, baseOffset int64, sectorSize int, log *zap.SugaredLogger) (*MappedSource, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, decodeerrors.NewDecodeError(err, decodeerrors.ErrorCodeIO, "failed to stat file for mapping")
	}
	fileSize := info.Size()

	if baseOffset < 0 || baseOffset > fileSize {
		return nil, decodeerrors.NewDecodeError(nil, decodeerrors.ErrorCodeBadSector, "throwaway-sector offset exceeds file size").
			WithOffset(baseOffset)
	}

	mapping, err := mmap.MapRegion(f, int(fileSize), mmap.RDONLY, 0, 0)
	if err != nil {
		return nil, decodeerrors.NewDecodeError(err, decodeerrors.ErrorCodeMalloc, "failed to memory-map file")
	}

	count := int(fileSize-baseOffset) / sectorSize
	if count == 0 {
		_ = mapping.Unmap()
		return nil, decodeerrors.NewDecodeError(nil, decodeerrors.ErrorCodeBadSectorCount, "mapped file has no whole sectors after the header")
	}

	log.Infow("mapped sector source ready", "sectorCount", count, "sectorSize", sectorSize, "fileSize", fileSize)

	return &MappedSource{
		file:       f,
		mapping:    mapping,
		baseOffset: baseOffset,
		sectorSize: sectorSize,
		count:      count,
	}, nil
}

// GetSector implements Source.
func (m *MappedSource) GetSector(i int) ([]byte, error) {
	if err := checkIndex(i, m.count); err != nil {
		return nil, err
	}
	start := int(m.baseOffset) + i*m.sectorSize
	return m.mapping[start : start+m.sectorSize], nil
}

// SectorCount implements Source.
func (m *MappedSource) SectorCount() int { return m.count }

// Close implements Source, unmapping the region and closing the file
// descriptor in that order — the reverse of acquisition, per spec §5.
func (m *MappedSource) Close() error {
	if m.mapping != nil {
		if err := m.mapping.Unmap(); err != nil {
			return decodeerrors.NewDecodeError(err, decodeerrors.ErrorCodeIO, "failed to unmap file")
		}
		m.mapping = nil
	}
	if m.file != nil {
		if err := m.file.Close(); err != nil {
			return decodeerrors.NewDecodeError(err, decodeerrors.ErrorCodeIO, "failed to close mapped file")
		}
		m.file = nil
	}
	return nil
}
