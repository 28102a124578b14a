// Package block turns one raw sector into a Block: the prev/next links of
// the sector chain, the deletion flag, and the XOR-demasked payload that the
// chunk decoder tokenizes next. It knows nothing about chunks, paths, or
// tables — it is the narrowest possible seam between raw sector bytes and
// the rest of the pipeline, the same way the teacher's storage package keeps
// segment-file mechanics isolated from the index and engine layers above it.
package block

import (
	"encoding/binary"

	"github.com/iamNilotpal/fmreader/internal/header"
	decodeerrors "github.com/iamNilotpal/fmreader/pkg/errors"
)

// deletionByteOffset and deletionBitMask locate the block-deleted flag. The
// format keeps this bit at the very start of every sector header regardless
// of version, the one layout detail that doesn't vary with IDWidth/HeadLen.
const (
	deletionByteOffset = 0
	deletionBitMask    = 0x01
)

// Block is a decoded sector: its position in the doubly linked chain plus a
// ready-to-tokenize payload. The chunk chain a block's payload produces is
// not embedded here — the dispatcher pairs a Block with its chunk list by
// argument rather than by a self-referential pointer (spec §9 applies the
// same reasoning to the path stack; it applies equally here).
type Block struct {
	ThisID  uint32 // 1-based sector ordinal.
	PrevID  uint32 // 0 terminates the chain at the head.
	NextID  uint32 // 0 terminates the chain at the tail.
	Deleted bool   // deleted blocks are skipped at traversal.
	Payload []byte // XOR-demasked, sized to the sector's payload length.
}

// Decode parses one raw sector of length h.SectorSize into a Block. thisID
// is the 1-based ordinal the caller assigns from its position in the chain
// (sector index i has this_id == i+1 for the eagerly-walked case, or the
// previous block's next_id when following the chain).
func Decode(h *header.Header, thisID uint32, raw []byte) (*Block, error) {
	if len(raw) != h.SectorSize {
		return nil, decodeerrors.NewDecodeError(
			nil, decodeerrors.ErrorCodeRead, "sector length does not match header sector size",
		).WithDetail("wantLen", h.SectorSize).WithDetail("gotLen", len(raw))
	}

	prevID, err := readUint(raw, h.PrevOffset, h.IDWidth)
	if err != nil {
		return nil, err
	}
	nextID, err := readUint(raw, h.NextOffset, h.IDWidth)
	if err != nil {
		return nil, err
	}

	payloadLen := h.SectorSize - h.HeadLen
	if h.PayloadLenOffset >= 0 {
		explicit, err := readUint(raw, h.PayloadLenOffset, h.LenWidth)
		if err != nil {
			return nil, err
		}
		payloadLen = int(explicit)
	}
	if payloadLen < 0 || h.HeadLen+payloadLen > len(raw) {
		return nil, decodeerrors.NewDecodeError(
			nil, decodeerrors.ErrorCodeBadSector, "sector payload length out of range",
		).WithDetail("payloadLen", payloadLen).WithBlockID(thisID)
	}

	payload := make([]byte, payloadLen)
	copy(payload, raw[h.HeadLen:h.HeadLen+payloadLen])
	if h.XorMask != 0 {
		for i, b := range payload {
			payload[i] = b ^ h.XorMask
		}
	}

	return &Block{
		ThisID:  uint32(thisID),
		PrevID:  uint32(prevID),
		NextID:  uint32(nextID),
		Deleted: raw[deletionByteOffset]&deletionBitMask != 0,
		Payload: payload,
	}, nil
}

// readUint reads a big-endian unsigned integer of width bytes (1, 2, or 4)
// at offset. All multi-byte integers in sector headers are big-endian
// (spec §6).
func readUint(raw []byte, offset, width int) (uint32, error) {
	if offset < 0 || width <= 0 || offset+width > len(raw) {
		return 0, decodeerrors.NewDecodeError(
			nil, decodeerrors.ErrorCodeBadSector, "sector header field out of range",
		).WithOffset(int64(offset))
	}
	switch width {
	case 1:
		return uint32(raw[offset]), nil
	case 2:
		return uint32(binary.BigEndian.Uint16(raw[offset : offset+2])), nil
	case 4:
		return binary.BigEndian.Uint32(raw[offset : offset+4]), nil
	default:
		return 0, decodeerrors.NewDecodeError(
			nil, decodeerrors.ErrorCodeInternal, "unsupported header field width",
		).WithDetail("width", width)
	}
}
