package errors

// ErrorCode represents a standardized way to categorize different types of errors.
type ErrorCode string

// Base error codes represent the fundamental categories of failures that can
// occur across any software system. These codes provide the foundation layer
// of error classification.
const (
	// ErrorCodeIO represents input/output failures that fall outside the
	// decoder codes below: stat-ing a file for mapping, unmapping it, closing
	// its descriptor, or an EIO reported while opening it.
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// ErrorCodeInvalidInput represents client-side errors where the provided
	// data doesn't meet the system's requirements or constraints. This maps
	// to HTTP 400-series errors and indicates problems with the request itself
	// rather than system failures.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeInternal represents unexpected system failures that don't fit
	// into other categories. These are the equivalent of HTTP 500 errors and
	// indicate bugs, assertion failures, or other programming errors that
	// shouldn't occur during normal operation.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Decoder error codes form the closed taxonomy the pipeline reports against.
// Every failure the header parser, sector source, block/chunk decoders, and
// row assembler can produce maps to exactly one of these.
const (
	// ErrorCodeOpen indicates the backing file or in-memory buffer could not
	// be opened or recognized.
	ErrorCodeOpen ErrorCode = "OPEN_FAILED"

	// ErrorCodeRead indicates a read from the sector source failed.
	ErrorCodeRead ErrorCode = "READ_FAILED"

	// ErrorCodeSeek indicates a seek on the backing stream failed, including
	// the post-header repositioning past the throwaway sector.
	ErrorCodeSeek ErrorCode = "SEEK_FAILED"

	// ErrorCodeBadMagic indicates the 15-byte FileMaker signature did not
	// match at the start of the file.
	ErrorCodeBadMagic ErrorCode = "BAD_MAGIC"

	// ErrorCodeBadSector indicates a requested sector index fell outside the
	// file's sector count.
	ErrorCodeBadSector ErrorCode = "BAD_SECTOR"

	// ErrorCodeBadSectorCount indicates the first block's next_id implied a
	// total sector count inconsistent with the file's actual size.
	ErrorCodeBadSectorCount ErrorCode = "BAD_SECTOR_COUNT"

	// ErrorCodeMalloc indicates an allocation failure while materializing
	// sectors, blocks, or the path-stack buffer.
	ErrorCodeMalloc ErrorCode = "ALLOCATION_FAILED"

	// ErrorCodeUnsupportedCharset indicates the header named a character set
	// this decoder has no converter for.
	ErrorCodeUnsupportedCharset ErrorCode = "UNSUPPORTED_CHARSET"

	// ErrorCodeNoInMemoryOpenSupport indicates an in-memory open was attempted
	// for a buffer larger than the mapped-source threshold.
	ErrorCodeNoInMemoryOpenSupport ErrorCode = "NO_IN_MEMORY_OPEN_SUPPORT"

	// ErrorCodeUserAborted indicates a value callback returned Abort and
	// traversal was stopped at the caller's request.
	ErrorCodeUserAborted ErrorCode = "USER_ABORTED"
)
