package decoder

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/iamNilotpal/fmreader/internal/chunk"
	"github.com/iamNilotpal/fmreader/internal/pathstack"
	decodeerrors "github.com/iamNilotpal/fmreader/pkg/errors"
	"github.com/iamNilotpal/fmreader/pkg/logger"
	"github.com/iamNilotpal/fmreader/pkg/options"
)

const (
	testSectorSize = 1024
	testHeadLen    = 14
)

// buildHeaderBytes returns the first 1024 bytes of a synthetic pre-v7
// (HBAM5) file: magic signature plus tag, everything else zeroed.
func buildHeaderBytes() []byte {
	raw := make([]byte, 1024)
	copy(raw, []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x02, 0x00, 0x01, 0x00, 0x05, 0x00, 0x02, 0x00, 0x02, 0xC0})
	copy(raw[15:], []byte("HBAM5"))
	return raw
}

// buildSector assembles one 1024-byte pre-v7 sector: a 14-byte header
// (deletion flag, 2-byte prev_id, 2-byte next_id, 2-byte payload length)
// followed by payload, zero-padded to the full sector size.
func buildSector(prevID, nextID uint16, payload []byte) []byte {
	raw := make([]byte, testSectorSize)
	raw[2] = byte(prevID >> 8)
	raw[3] = byte(prevID)
	raw[6] = byte(nextID >> 8)
	raw[7] = byte(nextID)
	raw[12] = byte(len(payload) >> 8)
	raw[13] = byte(len(payload))
	copy(raw[testHeadLen:], payload)
	return raw
}

// simplePayload builds a harmless PATH_PUSH(1-byte segment)/value/PATH_POP chunk
// payload, shaped to avoid the long-string {3,5,*} path pattern entirely so
// tests here stay about traversal mechanics, not row/metadata semantics.
func simplePayload(segment byte, refSimple byte, data string) []byte {
	out := []byte{0x11, segment} // opPathPush|1, segment byte
	out = append(out, 0x30, refSimple) // opFieldRefSimpl, ref_simple
	out = append(out, byte(len(data)>>8), byte(len(data)))
	out = append(out, []byte(data)...)
	out = append(out, 0x20) // opPathPop
	out = append(out, 0x00) // opEnd
	return out
}

func testConfig() *Config {
	o := options.NewDefaultOptions()
	return &Config{Options: &o, Logger: logger.New("decoder-test")}
}

func TestOpenBytesTwoBlockChain(t *testing.T) {
	block1 := buildSector(0, 2, simplePayload(9, 1, "one"))
	block2 := buildSector(1, 0, simplePayload(9, 1, "two"))

	data := append(buildHeaderBytes(), make([]byte, testSectorSize)...) // header + throwaway
	data = append(data, block1...)
	data = append(data, block2...)

	dec, err := OpenBytes(data, "Test.fp5", testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer dec.Close()

	var seenValues []string
	var seenPathLevels []int
	status, err := dec.Walk(func(c *chunk.Chunk) pathstack.Status {
		if c.Type == chunk.KindFieldRefSimple {
			seenValues = append(seenValues, string(c.Data))
			seenPathLevels = append(seenPathLevels, c.PathLevel)
		}
		return pathstack.StatusNext
	})
	if err != nil {
		t.Fatalf("unexpected Walk error: %v", err)
	}
	if status != pathstack.StatusNext {
		t.Fatalf("want StatusNext, got %v", status)
	}

	if len(seenValues) != 2 || seenValues[0] != "one" || seenValues[1] != "two" {
		t.Fatalf("want values [one two] in block order, got %v", seenValues)
	}
	// Both values sit at path depth 1 (after their block's single PATH_PUSH),
	// and that depth resets independently for each block.
	if seenPathLevels[0] != 1 || seenPathLevels[1] != 1 {
		t.Errorf("want both values recorded at path depth 1, got %v", seenPathLevels)
	}
}

func TestWalkDetectsSelfReferencingCycle(t *testing.T) {
	// A single block whose next_id points back to itself (this_id 1). The
	// whole-file sector-count check must still pass at Open time: with one
	// block, implied sectors = next_id(1) + 1 + 1(pre-v7) = 3.
	block1 := buildSector(0, 1, simplePayload(9, 1, "x"))
	data := append(buildHeaderBytes(), make([]byte, testSectorSize)...)
	data = append(data, block1...)

	dec, err := OpenBytes(data, "Loop.fp5", testConfig())
	if err != nil {
		t.Fatalf("unexpected error opening file: %v", err)
	}
	defer dec.Close()

	_, err = dec.Walk(func(c *chunk.Chunk) pathstack.Status { return pathstack.StatusNext })
	if err == nil {
		t.Fatal("want an error for a block chain that revisits a block")
	}
}

func TestWalkRejectsSectorCountAboveMaxBlocks(t *testing.T) {
	block1 := buildSector(0, 2, simplePayload(9, 1, "one"))
	block2 := buildSector(1, 0, simplePayload(9, 1, "two"))
	data := append(buildHeaderBytes(), make([]byte, testSectorSize)...)
	data = append(data, block1...)
	data = append(data, block2...)

	cfg := testConfig()
	cfg.Options.MaxBlocks = 1

	dec, err := OpenBytes(data, "Test.fp5", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer dec.Close()

	if _, err := dec.Walk(func(c *chunk.Chunk) pathstack.Status { return pathstack.StatusNext }); err == nil {
		t.Fatal("want an error when sector count exceeds MaxBlocks")
	}
}

func TestOpenBytesRejectsOverThreshold(t *testing.T) {
	cfg := testConfig()
	cfg.Options.MappedThreshold = 10
	data := make([]byte, 2048)
	copy(data, buildHeaderBytes())

	if _, err := OpenBytes(data, "Big.fp5", cfg); err == nil {
		t.Fatal("want NoInMemoryOpenSupport error above the mapped threshold")
	}
}

func TestOpenBytesRejectsShortBuffer(t *testing.T) {
	if _, err := OpenBytes(make([]byte, 100), "Short.fp5", testConfig()); err == nil {
		t.Fatal("want an error for a buffer shorter than the header")
	}
}

// TestOpenBytesRejectsInvalidOptions guards the one path a caller who builds
// or mutates an Options value directly (bypassing every With* setter's
// range check) can still reach: Validate is called before anything else, so a
// structurally invalid Options value never gets as far as reading the
// buffer.
func TestOpenBytesRejectsInvalidOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Options.MaxBlocks = 0

	data := make([]byte, 2048)
	copy(data, buildHeaderBytes())

	_, err := OpenBytes(data, "Invalid.fp5", cfg)
	if _, ok := decodeerrors.AsValidationError(err); !ok {
		t.Fatalf("want a *errors.ValidationError, got %v", err)
	}
}

func TestCloseTwiceReturnsErrFileClosed(t *testing.T) {
	block1 := buildSector(0, 1, simplePayload(9, 1, "x"))
	data := append(buildHeaderBytes(), make([]byte, testSectorSize)...)
	data = append(data, block1...)

	dec, err := OpenBytes(data, "Loop.fp5", testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := dec.Close(); err != nil {
		t.Fatalf("unexpected error on first Close: %v", err)
	}
	if err := dec.Close(); err != ErrFileClosed {
		t.Fatalf("want ErrFileClosed on second Close, got %v", err)
	}
}

// TestOpenStreamBackedClosesDescriptorImmediately guards against a stream
// backend that reads its *os.File into memory at construction but forgets to
// close the descriptor, which would leak one fd per opened file for the
// lifetime of the process (spec §8: "open then close releases every
// resource"). StreamSource keeps no reference to the file past construction,
// so the descriptor count must already be back to baseline before Close is
// even called.
func TestOpenStreamBackedClosesDescriptorImmediately(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("fd-count introspection via /proc/self/fd is Linux-only")
	}

	block1 := buildSector(0, 1, simplePayload(9, 1, "x"))
	data := append(buildHeaderBytes(), make([]byte, testSectorSize)...)
	data = append(data, block1...)

	path := filepath.Join(t.TempDir(), "StreamLeak.fp5")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	before, err := countOpenFDs()
	if err != nil {
		t.Skipf("cannot count open fds: %v", err)
	}

	dec, err := Open(path, testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer dec.Close()

	after, err := countOpenFDs()
	if err != nil {
		t.Skipf("cannot count open fds: %v", err)
	}

	if after > before {
		t.Fatalf("want no net increase in open file descriptors after Open, before=%d after=%d", before, after)
	}
}

func countOpenFDs() (int, error) {
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func TestWalkOnClosedDecoderFails(t *testing.T) {
	block1 := buildSector(0, 1, simplePayload(9, 1, "x"))
	data := append(buildHeaderBytes(), make([]byte, testSectorSize)...)
	data = append(data, block1...)

	dec, err := OpenBytes(data, "Loop.fp5", testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dec.Close()

	if _, err := dec.Walk(func(c *chunk.Chunk) pathstack.Status { return pathstack.StatusNext }); err != ErrFileClosed {
		t.Fatalf("want ErrFileClosed, got %v", err)
	}
}
