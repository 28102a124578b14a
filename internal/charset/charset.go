// Package charset converts the raw bytes a chunk carries into UTF-8,
// dispatching to the header's selected converter: the legacy MACINTOSH or
// WINDOWS-1252 8-bit encodings for pre-v7 files via golang.org/x/text, or
// the hand-rolled SCSU decoder for v7+ files (spec §4.7's shared
// character-set conversion routine).
package charset

import (
	"bytes"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/iamNilotpal/fmreader/internal/header"
	decodeerrors "github.com/iamNilotpal/fmreader/pkg/errors"
)

// Converter holds the charset selected by a file's header and exposes the
// single Convert entry point the metadata extractor and row assembler both
// call.
type Converter struct {
	kind header.Charset
}

// New builds a Converter for h's selected charset, failing with
// UnsupportedCharset if the header named one this decoder has no converter
// for. override, if non-empty, replaces the header's own selection with the
// caller-named charset (pkg/options.Options.Charset), one of "MACINTOSH",
// "WINDOWS-1252", or "SCSU".
func New(h *header.Header, override string) (*Converter, error) {
	kind := h.Charset
	if override != "" {
		overridden, err := parseCharsetName(override)
		if err != nil {
			return nil, err
		}
		kind = overridden
	}

	switch kind {
	case header.CharsetMacintosh, header.CharsetWindows1252, header.CharsetSCSU:
		return &Converter{kind: kind}, nil
	default:
		return nil, decodeerrors.NewUnsupportedCharsetError(kind.String())
	}
}

// parseCharsetName maps an options.Options.Charset override string (already
// upper-cased by the options package) to its header.Charset value.
func parseCharsetName(name string) (header.Charset, error) {
	switch name {
	case "MACINTOSH":
		return header.CharsetMacintosh, nil
	case "WINDOWS-1252":
		return header.CharsetWindows1252, nil
	case "SCSU":
		return header.CharsetSCSU, nil
	default:
		return header.CharsetUnknown, decodeerrors.NewUnsupportedCharsetError(name)
	}
}

// Convert trims leading spaces from data (fields are commonly space-padded
// to a fixed width) and converts the remainder to UTF-8. data is expected to
// already be XOR-demasked by the block decoder; Convert never re-applies
// the mask.
func (c *Converter) Convert(data []byte) (string, error) {
	trimmed := bytes.TrimLeft(data, " ")
	if len(trimmed) == 0 {
		return "", nil
	}

	switch c.kind {
	case header.CharsetMacintosh:
		return decodeLegacy(charmap.Macintosh, trimmed)
	case header.CharsetWindows1252:
		return decodeLegacy(charmap.Windows1252, trimmed)
	case header.CharsetSCSU:
		return decodeSCSU(trimmed)
	default:
		return "", decodeerrors.NewUnsupportedCharsetError(c.kind.String())
	}
}

// decodeLegacy runs an 8-bit legacy charmap decoder over data.
func decodeLegacy(cm *charmap.Charmap, data []byte) (string, error) {
	out, _, err := transform.Bytes(cm.NewDecoder(), data)
	if err != nil {
		return "", decodeerrors.NewDecodeError(err, decodeerrors.ErrorCodeUnsupportedCharset, "legacy charset conversion failed").
			WithDetail("charmap", cm.String())
	}
	return string(out), nil
}
