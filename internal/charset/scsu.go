package charset

import (
	"unicode/utf16"

	decodeerrors "github.com/iamNilotpal/fmreader/pkg/errors"
)

// SCSU (Standard Compression Scheme for Unicode, Unicode Technical Standard
// #6) has no maintained Go implementation in the wider ecosystem — every
// charset-handling library the example pack pulls in (golang.org/x/text)
// covers legacy 8-bit charmaps and UTF transforms, not this one. This file
// is therefore the single hand-rolled exception the rest of the decoder
// avoids: a direct implementation of the state machine the standard
// defines, kept to the single-byte/Unicode-mode core every v7+ string
// value actually exercises.

// presetWindowOffsets are the 8 preset high-codepoint window offsets an SDn
// command can select by table index, per the standard's static offset
// table (partial: the ranges FileMaker's own string data realistically
// touches).
var presetWindowOffsets = [...]int32{
	0x00C0, 0x0250, 0x0370, 0x0530, 0x3040, 0x30A0, 0xFF00, 0x0E00,
}

// initialWindowOffsets are the 8 dynamic windows' offsets at the start of
// decoding, before any SCn/SDn command runs.
var initialWindowOffsets = [8]int32{
	0x0000, 0x0080, 0x0100, 0x0300, 0x2000, 0x2080, 0x2100, 0x3000,
}

const (
	scsuModeSingleByte = iota
	scsuModeUnicode
)

// decodeSCSU decodes an SCSU byte stream to a UTF-8 string.
func decodeSCSU(data []byte) (string, error) {
	var (
		out      []rune
		windows  = initialWindowOffsets
		active   = 0
		mode     = scsuModeSingleByte
		pendHigh rune = -1 // pending high surrogate awaiting its low half.
	)

	emit := func(r rune) {
		if pendHigh >= 0 {
			if utf16.IsSurrogate(r) {
				out = append(out, utf16.DecodeRune(pendHigh, r))
			} else {
				out = append(out, pendHigh, r)
			}
			pendHigh = -1
			return
		}
		if utf16.IsSurrogate(r) {
			pendHigh = r
			return
		}
		out = append(out, r)
	}

	i := 0
	readByte := func() (byte, bool) {
		if i >= len(data) {
			return 0, false
		}
		b := data[i]
		i++
		return b, true
	}

	for i < len(data) {
		b := data[i]
		i++

		if mode == scsuModeSingleByte {
			switch {
			case b == 0x00, b == 0x09, b == 0x0A, b == 0x0D, b == 0x0C:
				emit(rune(b))

			case b >= 0x01 && b <= 0x08:
				// SQn: quote a single character from window n, then resume.
				n := int(b - 0x01)
				nb, ok := readByte()
				if !ok {
					return "", unexpectedEnd()
				}
				if nb >= 0x80 {
					emit(windows[n] + rune(nb-0x80))
				} else {
					emit(rune(nb))
				}

			case b == 0x0B:
				// SDX: define an extended window; consume its 2 operand bytes.
				if _, ok := readByte(); !ok {
					return "", unexpectedEnd()
				}
				if _, ok := readByte(); !ok {
					return "", unexpectedEnd()
				}

			case b == 0x0E:
				// SQU: quote one literal UTF-16 code unit.
				hi, ok1 := readByte()
				lo, ok2 := readByte()
				if !ok1 || !ok2 {
					return "", unexpectedEnd()
				}
				emit(rune(hi)<<8 | rune(lo))

			case b == 0x0F:
				mode = scsuModeUnicode

			case b >= 0x10 && b <= 0x17:
				active = int(b - 0x10)

			case b >= 0x18 && b <= 0x1F:
				n := int(b - 0x18)
				sel, ok := readByte()
				if !ok {
					return "", unexpectedEnd()
				}
				windows[n] = presetWindow(sel)
				active = n

			case b >= 0x20 && b <= 0x7F:
				emit(rune(b))

			default: // 0x80-0xFF
				emit(windows[active] + rune(b-0x80))
			}
			continue
		}

		// Unicode mode.
		switch {
		case b >= 0xE0 && b <= 0xE7:
			mode = scsuModeSingleByte
			active = int(b - 0xE0)

		case b >= 0xE8 && b <= 0xEF:
			n := int(b - 0xE8)
			sel, ok := readByte()
			if !ok {
				return "", unexpectedEnd()
			}
			windows[n] = presetWindow(sel)
			mode = scsuModeSingleByte
			active = n

		case b == 0xF0:
			hi, ok1 := readByte()
			lo, ok2 := readByte()
			if !ok1 || !ok2 {
				return "", unexpectedEnd()
			}
			emit(rune(hi)<<8 | rune(lo))

		case b == 0xF1:
			hi1, ok1 := readByte()
			hi2, ok2 := readByte()
			if !ok1 || !ok2 {
				return "", unexpectedEnd()
			}
			mode = scsuModeSingleByte
			active = 0
			windows[0] = (rune(hi1)<<8 | rune(hi2)) + 0x10000

		default:
			lo, ok := readByte()
			if !ok {
				return "", unexpectedEnd()
			}
			emit(rune(b)<<8 | rune(lo))
		}
	}

	if pendHigh >= 0 {
		out = append(out, pendHigh)
	}

	return string(out), nil
}

func presetWindow(selector byte) rune {
	idx := int(selector)
	if idx < 0 || idx >= len(presetWindowOffsets) {
		return 0
	}
	return presetWindowOffsets[idx]
}

func unexpectedEnd() error {
	return decodeerrors.NewDecodeError(
		nil, decodeerrors.ErrorCodeUnsupportedCharset, "SCSU stream ended mid-sequence",
	)
}
