package header

import (
	"testing"
)

func buildRaw(tag string, v12Marker byte) []byte {
	raw := make([]byte, headerReadLen)
	copy(raw, magic)
	copy(raw[tagOffset:], []byte(tag))
	raw[v12MarkerByte] = v12Marker
	copy(raw[versionDateOff:], []byte("31-Jul-26"[:versionDateLen]))
	raw[versionStrOff] = 3
	copy(raw[versionStrOff+1:], []byte("abc"))
	return raw
}

func TestParse(t *testing.T) {
	tests := []struct {
		name                 string
		tag                  string
		v12Marker            byte
		wantVersion          int
		wantSectorSize       int
		wantXorMask          byte
		wantCharset          Charset
		wantSectorIndexShift int
	}{
		{
			name:           "HBAM7 without v12 marker",
			tag:            "HBAM7",
			v12Marker:      0x00,
			wantVersion:    7,
			wantSectorSize: 4096,
			wantXorMask:    0x5A,
			wantCharset:    CharsetSCSU,
		},
		{
			name:           "HBAM7 with v12 marker",
			tag:            "HBAM7",
			v12Marker:      0x1E,
			wantVersion:    12,
			wantSectorSize: 4096,
			wantXorMask:    0x5A,
			wantCharset:    CharsetSCSU,
		},
		{
			name:           "HBAM3",
			tag:            "HBAM3",
			wantVersion:    3,
			wantSectorSize: 1024,
			wantXorMask:    0,
			wantCharset:    CharsetMacintosh,
		},
		{
			name:           "HBAM5",
			tag:            "HBAM5",
			wantVersion:    5,
			wantSectorSize: 1024,
			wantXorMask:    0,
			wantCharset:    CharsetWindows1252,
		},
		{
			// Neither HBAM3 nor HBAM5: the untagged pre-v7 generic branch
			// (spec §4.1), which shares HBAM5's offsets and charset but
			// carries its own sector_index_shift=1.
			name:                 "untagged pre-v7 generic",
			tag:                  "HBAMX",
			wantVersion:          5,
			wantSectorSize:       1024,
			wantXorMask:          0,
			wantCharset:          CharsetWindows1252,
			wantSectorIndexShift: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Parse(buildRaw(tt.tag, tt.v12Marker))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if h.VersionNum != tt.wantVersion {
				t.Errorf("VersionNum: want %d, got %d", tt.wantVersion, h.VersionNum)
			}
			if h.SectorSize != tt.wantSectorSize {
				t.Errorf("SectorSize: want %d, got %d", tt.wantSectorSize, h.SectorSize)
			}
			if h.XorMask != tt.wantXorMask {
				t.Errorf("XorMask: want 0x%02X, got 0x%02X", tt.wantXorMask, h.XorMask)
			}
			if h.Charset != tt.wantCharset {
				t.Errorf("Charset: want %s, got %s", tt.wantCharset, h.Charset)
			}
			if h.SectorIndexShift != tt.wantSectorIndexShift {
				t.Errorf("SectorIndexShift: want %d, got %d", tt.wantSectorIndexShift, h.SectorIndexShift)
			}
		})
	}
}

func TestParseBadMagic(t *testing.T) {
	raw := buildRaw("HBAM7", 0x00)
	raw[0] = 0xFF

	if _, err := Parse(raw); err == nil {
		t.Fatal("expected an error for a corrupted magic signature")
	}
}

func TestParseShortInput(t *testing.T) {
	if _, err := Parse(make([]byte, 100)); err == nil {
		t.Fatal("expected an error for input shorter than the header length")
	}
}

func TestThrowawaySectorEnd(t *testing.T) {
	tests := []struct {
		name    string
		version int
		size    int
		want    int64
	}{
		{"v7+ has no throwaway sector beyond the header", 7, 4096, 4096},
		{"v12 matches v7 layout", 12, 4096, 4096},
		{"pre-v7 skips one extra sector", 5, 1024, 2048},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Header{VersionNum: tt.version, SectorSize: tt.size}
			if got := h.ThrowawaySectorEnd(); got != tt.want {
				t.Errorf("want %d, got %d", tt.want, got)
			}
		})
	}
}

func TestValidateSectorCount(t *testing.T) {
	h := &Header{VersionNum: 7, SectorSize: 4096}
	// next_id of block 1 being 2 implies a 3-sector file for v7+: next_id
	// plus the header sector, with no extra throwaway sector to add.
	if err := h.ValidateSectorCount(2, 3*4096); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := h.ValidateSectorCount(2, 4*4096); err == nil {
		t.Error("expected a BadSectorCount error for a mismatched file size")
	}

	pre7 := &Header{VersionNum: 5, SectorSize: 1024}
	// pre-v7 adds one extra sector (the throwaway sector after the header) on top.
	if err := pre7.ValidateSectorCount(2, 4*1024); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPascalString(t *testing.T) {
	raw := make([]byte, 10)
	raw[0] = 3
	copy(raw[1:], []byte("abc"))
	if got := parsePascalString(raw, 0); got != "abc" {
		t.Errorf("want %q, got %q", "abc", got)
	}

	// Length prefix claims more bytes than are available: truncate rather
	// than error, since this is informational metadata only.
	raw2 := make([]byte, 3)
	raw2[0] = 100
	if got := parsePascalString(raw2, 0); len(got) > 2 {
		t.Errorf("want truncation to at most 2 bytes, got %d bytes", len(got))
	}

	if got := parsePascalString(raw, 20); got != "" {
		t.Errorf("want empty string for an out-of-range offset, got %q", got)
	}
}
