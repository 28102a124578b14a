package errors

// DecodeError is a specialized error type for failures inside the decoder
// pipeline (header parsing, sector acquisition, block/chunk decoding, path
// dispatch, metadata extraction, and row assembly). It embeds baseError to
// inherit the standard error functionality, then adds the positional context
// needed to pin down exactly where in the file a failure occurred.
type DecodeError struct {
	*baseError

	sectorIndex int    // 0-based sector index being read when the error occurred, -1 if not applicable.
	blockID     uint32 // this_id of the block being decoded when the error occurred, 0 if not applicable.
	offset      int64  // byte offset within the sector/block/file relevant to the error.
	pathLevel   int    // recorded path_level at the point of failure, -1 if not applicable.
}

// NewDecodeError creates a new decoder-specific error.
func NewDecodeError(err error, code ErrorCode, msg string) *DecodeError {
	return &DecodeError{baseError: NewBaseError(err, code, msg), sectorIndex: -1, pathLevel: -1}
}

// Override base error methods to return *DecodeError instead of *baseError,
// so fluent chains keep access to the decoder-specific With* methods below.

// WithMessage updates the error message while maintaining the DecodeError type.
func (de *DecodeError) WithMessage(msg string) *DecodeError {
	de.baseError.WithMessage(msg)
	return de
}

// WithCode sets the error code while preserving the DecodeError type.
func (de *DecodeError) WithCode(code ErrorCode) *DecodeError {
	de.baseError.WithCode(code)
	return de
}

// WithDetail adds contextual information while maintaining the DecodeError type.
func (de *DecodeError) WithDetail(key string, value any) *DecodeError {
	de.baseError.WithDetail(key, value)
	return de
}

// WithSectorIndex records which sector was being read when the error occurred.
func (de *DecodeError) WithSectorIndex(index int) *DecodeError {
	de.sectorIndex = index
	return de
}

// WithBlockID records which block (this_id) was being decoded when the error occurred.
func (de *DecodeError) WithBlockID(id uint32) *DecodeError {
	de.blockID = id
	return de
}

// WithOffset records the byte offset relevant to the error.
func (de *DecodeError) WithOffset(offset int64) *DecodeError {
	de.offset = offset
	return de
}

// WithPathLevel records the path stack depth at the point of failure.
func (de *DecodeError) WithPathLevel(level int) *DecodeError {
	de.pathLevel = level
	return de
}

// SectorIndex returns the sector index involved in the error, or -1 if none.
func (de *DecodeError) SectorIndex() int { return de.sectorIndex }

// BlockID returns the block id involved in the error, or 0 if none.
func (de *DecodeError) BlockID() uint32 { return de.blockID }

// Offset returns the byte offset relevant to the error.
func (de *DecodeError) Offset() int64 { return de.offset }

// PathLevel returns the path stack depth recorded at the point of failure, or -1 if none.
func (de *DecodeError) PathLevel() int { return de.pathLevel }

// Helper constructors for the closed error taxonomy (spec §7). Each mirrors
// the shape the top-level decoder API returns so callers never have to build
// a DecodeError by hand for the common cases.

// NewBadMagicError reports a header whose signature didn't match.
func NewBadMagicError(got []byte) *DecodeError {
	return NewDecodeError(nil, ErrorCodeBadMagic, "file does not start with the FileMaker magic signature").
		WithDetail("gotBytes", got)
}

// NewBadSectorError reports a sector index outside the file's bounds.
func NewBadSectorError(index int, sectorCount int) *DecodeError {
	return NewDecodeError(nil, ErrorCodeBadSector, "sector index out of range").
		WithSectorIndex(index).
		WithDetail("sectorCount", sectorCount)
}

// NewBadSectorCountError reports the first block's next_id disagreeing with file size.
func NewBadSectorCountError(impliedSectors int64, fileSize int64) *DecodeError {
	return NewDecodeError(nil, ErrorCodeBadSectorCount, "first block's next_id is inconsistent with file size").
		WithDetail("impliedSectors", impliedSectors).
		WithDetail("fileSize", fileSize)
}

// NewUnsupportedCharsetError reports a header charset this decoder can't convert.
func NewUnsupportedCharsetError(name string) *DecodeError {
	return NewDecodeError(nil, ErrorCodeUnsupportedCharset, "unsupported character set").
		WithDetail("charset", name)
}

// NewUserAbortedError reports a value callback that returned Abort.
func NewUserAbortedError() *DecodeError {
	return NewDecodeError(nil, ErrorCodeUserAborted, "traversal aborted by value callback")
}
