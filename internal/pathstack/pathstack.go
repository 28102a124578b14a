// Package pathstack owns the file context's path stack and dispatches a
// block's chunk chain to a consumer with each chunk annotated by the path
// state at the moment it was visited (spec §4.5).
//
// The C source mutates one shared path array across callbacks and hands
// consumers a raw pointer into it. That doesn't survive translation: a
// consumer that held onto a chunk past the next push/pop would see it
// change underneath it. Per the re-architecture note in the spec's design
// section, each chunk instead gets an owned copy of the path segments in
// effect when it was dispatched, materialized here rather than aliased.
package pathstack

import (
	"github.com/iamNilotpal/fmreader/internal/chunk"
)

// Status is the closed set of outcomes a consumer can return from
// Dispatch, controlling how the caller's block-chain traversal proceeds.
type Status int

const (
	// StatusNext advances to the next chunk.
	StatusNext Status = iota
	// StatusDone stops traversing further blocks for this pass, reporting success.
	StatusDone
	// StatusAbort surfaces a UserAborted error from the top-level traversal.
	StatusAbort
)

// Consumer receives each dispatched chunk and reports how traversal should
// continue. Both the metadata extractor and the row assembler implement
// this signature.
type Consumer func(c *chunk.Chunk) Status

// Stack is the file context's path stack: an ordered sequence of path
// segments, reset to empty at the start of every block (the path is
// per-block, not per-file, per spec §3/§4.5).
type Stack struct {
	segments [][]byte
}

// New returns an empty Stack ready for a file context's lifetime; Reset is
// called before every block.
func New() *Stack {
	return &Stack{segments: make([][]byte, 0, 16)}
}

// Reset clears the stack to depth 0, as required at the start of each block.
func (s *Stack) Reset() {
	s.segments = s.segments[:0]
}

// Depth returns the current stack depth.
func (s *Stack) Depth() int {
	return len(s.segments)
}

// Push appends segment as the new top of the stack, growing capacity as needed.
func (s *Stack) Push(segment []byte) {
	s.segments = append(s.segments, segment)
}

// Pop removes the top segment, clamped at depth 0 (popping an empty stack
// is a no-op rather than an error — the format is under-documented and
// malformed push/pop balance must not abort traversal).
func (s *Stack) Pop() {
	if len(s.segments) == 0 {
		return
	}
	s.segments = s.segments[:len(s.segments)-1]
}

// Snapshot returns an owned copy of the segments currently on the stack,
// decoded into their integer path values for versionNum (spec §4.5's
// path-value decoding rule). This is what gets attached to a dispatched
// chunk's Path field.
func (s *Stack) Snapshot(versionNum int) []uint32 {
	out := make([]uint32, len(s.segments))
	for i, seg := range s.segments {
		out[i] = PathValue(seg, versionNum)
	}
	return out
}

// PathValue decodes a 1-3 byte path segment into its integer label,
// following the fixed rule in spec §4.5. Segments outside that length range
// decode to 0, matching the "else: 0" fallback the spec names explicitly.
func PathValue(b []byte, versionNum int) uint32 {
	switch len(b) {
	case 1:
		return uint32(b[0])
	case 2:
		return 0x80 + (uint32(b[0]&0x7F) << 8) + uint32(b[1])
	case 3:
		if versionNum >= 7 {
			return 0x80 + (uint32(b[1]) << 8) + uint32(b[2])
		}
		return 0xC000 + (uint32(b[0]&0x3F) << 16) + (uint32(b[1]) << 8) + uint32(b[2])
	default:
		return 0
	}
}

// Dispatch resets the stack, then walks head's chunk chain. For each chunk
// it records the path snapshot and depth as of entry, applies that chunk's
// own push/pop effect, and only then invokes consume — so a PATH_PUSH or
// PATH_POP chunk itself reports the depth it was pushed/popped *from*, and
// the stack reflects the new depth by the time the chunk after it is
// visited.
func (s *Stack) Dispatch(head *chunk.Chunk, versionNum int, consume Consumer) Status {
	s.Reset()

	for c := head; c != nil; c = c.Next {
		c.PathLevel = s.Depth()
		c.VersionNum = versionNum
		c.Path = s.Snapshot(versionNum)

		switch c.Type {
		case chunk.KindPathPop:
			s.Pop()
		case chunk.KindPathPush:
			s.Push(c.Data)
		}

		status := consume(c)
		switch status {
		case StatusNext:
			continue
		case StatusDone, StatusAbort:
			return status
		}
	}

	return StatusNext
}
