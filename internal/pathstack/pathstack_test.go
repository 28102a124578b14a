package pathstack

import (
	"testing"

	"github.com/iamNilotpal/fmreader/internal/chunk"
)

func TestPathValue(t *testing.T) {
	tests := []struct {
		name       string
		segment    []byte
		versionNum int
		want       uint32
	}{
		{"1-byte segment", []byte{0x2A}, 7, 0x2A},
		{"2-byte segment", []byte{0x01, 0x10}, 7, 0x80 + (0x01 << 8) + 0x10},
		{"3-byte segment v7+", []byte{0xFF, 0x02, 0x03}, 7, 0x80 + (0x02 << 8) + 0x03},
		{"3-byte segment pre-v7", []byte{0x7F, 0x02, 0x03}, 5, 0xC000 + (0x3F << 16) + (0x02 << 8) + 0x03},
		{"unsupported length decodes to 0", []byte{}, 7, 0},
		{"4-byte segment decodes to 0", []byte{1, 2, 3, 4}, 7, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PathValue(tt.segment, tt.versionNum); got != tt.want {
				t.Errorf("want 0x%X, got 0x%X", tt.want, got)
			}
		})
	}
}

func TestStackPushPopDepth(t *testing.T) {
	s := New()
	if s.Depth() != 0 {
		t.Fatalf("want depth 0, got %d", s.Depth())
	}

	s.Push([]byte{3})
	s.Push([]byte{16})
	if s.Depth() != 2 {
		t.Fatalf("want depth 2, got %d", s.Depth())
	}

	s.Pop()
	if s.Depth() != 1 {
		t.Fatalf("want depth 1 after pop, got %d", s.Depth())
	}

	// Popping past empty is a no-op, not an error.
	s.Pop()
	s.Pop()
	if s.Depth() != 0 {
		t.Fatalf("want depth clamped at 0, got %d", s.Depth())
	}
}

func TestStackResetPerBlock(t *testing.T) {
	s := New()
	s.Push([]byte{1})
	s.Push([]byte{2})
	s.Reset()
	if s.Depth() != 0 {
		t.Fatalf("want depth 0 after Reset, got %d", s.Depth())
	}
}

// buildChain links chunks into a singly linked list for dispatch tests.
func buildChain(chunks ...*chunk.Chunk) *chunk.Chunk {
	for i := 0; i < len(chunks)-1; i++ {
		chunks[i].Next = chunks[i+1]
	}
	if len(chunks) == 0 {
		return nil
	}
	return chunks[0]
}

func TestDispatchRecordsPathLevelAndSnapshot(t *testing.T) {
	push3 := &chunk.Chunk{Type: chunk.KindPathPush, Data: []byte{3}}
	push16 := &chunk.Chunk{Type: chunk.KindPathPush, Data: []byte{16}}
	value := &chunk.Chunk{Type: chunk.KindFieldRefSimple, RefSimple: 1, Data: []byte("x")}
	pop := &chunk.Chunk{Type: chunk.KindPathPop}

	head := buildChain(push3, push16, value, pop)

	s := New()
	var visited []*chunk.Chunk
	status := s.Dispatch(head, 7, func(c *chunk.Chunk) Status {
		visited = append(visited, c)
		return StatusNext
	})
	if status != StatusNext {
		t.Fatalf("want StatusNext, got %v", status)
	}

	if push3.PathLevel != 0 {
		t.Errorf("push3 PathLevel: want 0, got %d", push3.PathLevel)
	}
	if push16.PathLevel != 1 {
		t.Errorf("push16 PathLevel: want 1, got %d", push16.PathLevel)
	}
	if value.PathLevel != 2 {
		t.Errorf("value PathLevel: want 2, got %d", value.PathLevel)
	}
	if len(value.Path) != 2 || value.Path[0] != 3 || value.Path[1] != 16 {
		t.Errorf("value Path: want [3 16], got %v", value.Path)
	}
	if pop.PathLevel != 2 {
		t.Errorf("pop PathLevel: want 2 (recorded before its own effect), got %d", pop.PathLevel)
	}

	// Stack depth does not return to 0 at block end here: push3, push16, pop
	// leaves depth 1 for this unbalanced chain — Dispatch never asserts
	// balance, it just tracks it faithfully.
	if s.Depth() != 1 {
		t.Errorf("want residual depth 1 for this unbalanced chain, got %d", s.Depth())
	}
}

func TestDispatchStopsOnDoneAndAbort(t *testing.T) {
	a := &chunk.Chunk{Type: chunk.KindFieldRefSimple}
	b := &chunk.Chunk{Type: chunk.KindFieldRefSimple}
	c := &chunk.Chunk{Type: chunk.KindFieldRefSimple}
	head := buildChain(a, b, c)

	s := New()
	var seen int
	status := s.Dispatch(head, 7, func(ch *chunk.Chunk) Status {
		seen++
		if ch == b {
			return StatusDone
		}
		return StatusNext
	})
	if status != StatusDone {
		t.Fatalf("want StatusDone, got %v", status)
	}
	if seen != 2 {
		t.Fatalf("want traversal to stop after 2 chunks, got %d", seen)
	}

	s2 := New()
	seen = 0
	status2 := s2.Dispatch(head, 7, func(ch *chunk.Chunk) Status {
		seen++
		if ch == a {
			return StatusAbort
		}
		return StatusNext
	})
	if status2 != StatusAbort {
		t.Fatalf("want StatusAbort, got %v", status2)
	}
	if seen != 1 {
		t.Fatalf("want traversal to stop after 1 chunk, got %d", seen)
	}
}

func TestDispatchResetsBetweenBlocks(t *testing.T) {
	s := New()
	push := &chunk.Chunk{Type: chunk.KindPathPush, Data: []byte{9}}
	s.Dispatch(buildChain(push), 7, func(c *chunk.Chunk) Status { return StatusNext })
	if s.Depth() != 1 {
		t.Fatalf("want depth 1 after first block, got %d", s.Depth())
	}

	value := &chunk.Chunk{Type: chunk.KindFieldRefSimple}
	s.Dispatch(buildChain(value), 7, func(c *chunk.Chunk) Status { return StatusNext })
	if value.PathLevel != 0 {
		t.Fatalf("want path reset to depth 0 for the new block, got %d", value.PathLevel)
	}
}
