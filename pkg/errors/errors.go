// This package addresses the fundamental challenge that generic error handling presents in complex
// systems: when an error occurs, developers and operators need much more than just "something went wrong."
// They need to understand exactly what failed, why it failed, where it failed, and most importantly,
// what they can do about it. This package transforms error handling from reactive debugging into
// proactive problem resolution.
//
// Architecture and Design Philosophy:
//
// The error system is built around a hierarchical structure that starts with a foundational baseError
// and extends into domain-specific error types. This design provides several key advantages:
// it maintains consistency across all error types while allowing specialized context for different
// domains, enables rich error chaining that preserves the complete failure context, supports
// programmatic error handling through standardized error codes, and facilitates comprehensive
// logging and monitoring through structured error details.
//
// The system recognizes that different parts of a decoder pipeline fail in fundamentally different
// ways and require different types of contextual information for effective diagnosis. A validation
// error needs to know which field failed and what rule was violated. A decode error needs to know
// which sector, block, or path level was involved. By capturing this domain-specific context at the
// point of failure, the system enables much more intelligent error handling throughout the stack.
//
// Error Classification and Codes:
//
// Central to this system is a comprehensive error code taxonomy that provides standardized
// categorization of failures. These codes serve multiple purposes: they enable programmatic
// error handling that doesn't rely on parsing error messages, they provide consistent
// categorization for monitoring and alerting systems, they facilitate error recovery logic
// by identifying specific failure modes, and they support internationalization by separating
// error identification from error presentation.
//
// The error codes are organized into two categories. Base codes cover fundamental failure
// types that can occur in any system: IO_ERROR for input/output failures, INVALID_INPUT for
// client-side validation problems, and INTERNAL_ERROR for unexpected system failures. Decoder
// codes address the closed taxonomy the pipeline itself defines: BAD_MAGIC and BAD_SECTOR_COUNT
// for header/layout mismatches, BAD_SECTOR for out-of-range sector reads, UNSUPPORTED_CHARSET
// for header-named converters this decoder doesn't have, and USER_ABORTED for callback-driven
// cancellation.
package errors

import (
	stdErrors "errors"
	"os"
	"syscall"
)

// IsValidationError checks if the given error is a ValidationError or contains one in its error chain.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return stdErrors.As(err, &ve)
}

// IsDecodeError determines if an error originated from the decoder pipeline
// (header parsing, sector acquisition, block/chunk decoding, metadata
// extraction, or row assembly).
func IsDecodeError(err error) bool {
	var de *DecodeError
	return stdErrors.As(err, &de)
}

// AsValidationError safely extracts a ValidationError from an error chain, providing access
// to validation-specific context such as which field failed, what rule was violated, and
// what values were provided versus expected.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stdErrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// AsDecodeError extracts DecodeError context from an error chain, providing access to
// sector index, block id, byte offset, and path-level information needed to pinpoint
// exactly where in the file a decode failure occurred.
func AsDecodeError(err error) (*DecodeError, bool) {
	var de *DecodeError
	if stdErrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from any error that supports it, or returns
// ErrorCodeInternal for errors that don't have specific codes.
func GetErrorCode(err error) ErrorCode {
	if ve, ok := AsValidationError(err); ok {
		return ve.Code()
	}

	if de, ok := AsDecodeError(err); ok {
		return de.Code()
	}

	return ErrorCodeInternal
}

// GetErrorDetails extracts structured details from any error that supports them,
// returning an empty map for errors without details.
func GetErrorDetails(err error) map[string]any {
	if ve, ok := AsValidationError(err); ok {
		if details := ve.Details(); details != nil {
			return details
		}
	}

	if de, ok := AsDecodeError(err); ok {
		if details := de.Details(); details != nil {
			return details
		}
	}

	return make(map[string]any)
}

// ClassifyFileOpenError analyzes file opening failures and returns a DecodeError
// with appropriate context. This provides much more specific information than a
// generic I/O error when Open fails to acquire the backing file.
func ClassifyFileOpenError(err error, path string) error {
	if os.IsPermission(err) {
		return NewDecodeError(
			err, ErrorCodeOpen, "insufficient permissions to open file",
		).WithDetail("path", path).WithDetail("suggestion", "check file permissions")
	}

	if os.IsNotExist(err) {
		return NewDecodeError(
			err, ErrorCodeOpen, "file does not exist",
		).WithDetail("path", path)
	}

	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok && errno == syscall.EIO {
			return NewDecodeError(
				err, ErrorCodeIO, "I/O error while opening file - possible hardware or corruption issue",
			).WithDetail("path", path).WithDetail("severity", "high")
		}
	}

	return NewDecodeError(err, ErrorCodeOpen, "failed to open file").WithDetail("path", path)
}
