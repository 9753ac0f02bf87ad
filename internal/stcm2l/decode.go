package stcm2l

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// decodeSpan turns a byte span into text. It never fails: valid UTF-8 is taken
// as-is, printable single-byte text is recovered through Latin-1, and anything
// else keeps replacement runes so the validity filter can reject it.
func decodeSpan(b []byte) string {
	b = bytes.TrimRight(b, "\x00")
	if len(b) == 0 {
		return ""
	}
	if utf8.Valid(b) {
		return string(b)
	}
	if isPrintableLatin1(b) {
		s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
		if err == nil {
			return string(s)
		}
	}
	return strings.ToValidUTF8(string(b), "�")
}

// isPrintableLatin1 reports whether every byte is a printable Latin-1
// character. Random binary spans almost always contain C0/C1 bytes, so this
// keeps the Latin-1 path from resurrecting garbage.
func isPrintableLatin1(b []byte) bool {
	for _, c := range b {
		if c < 0x20 && c != '\n' && c != '\r' && c != '\t' {
			return false
		}
		if c >= 0x7F && c < 0xA0 {
			return false
		}
	}
	return true
}

// decodeCString decodes a null-terminated run starting at pos. Returns the
// text and the number of bytes consumed including the terminator.
func decodeCString(data []byte, pos int) (string, int) {
	end := pos
	for end < len(data) && data[end] != 0x00 {
		end++
	}
	return decodeSpan(data[pos:end]), end - pos + 1
}
