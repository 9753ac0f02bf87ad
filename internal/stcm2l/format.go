package stcm2l

import (
	"bytes"
	"encoding/binary"
)

// magic is the 6-byte tag opening structured script files.
var magic = []byte("STCM2L")

// maxHeaderEntryCount is the sanity ceiling for the legacy layout's leading
// entry count. Anything at or above this is not a plausible header.
const maxHeaderEntryCount = 10000

// DetectFormat inspects the first bytes of a file buffer and selects a layout
// hypothesis. FormatUnknown is not a failure: callers fall back to the legacy
// path rather than rejecting the file.
func DetectFormat(data []byte) Format {
	if bytes.HasPrefix(data, magic) {
		return FormatFull
	}
	if len(data) >= 8 {
		if count := binary.LittleEndian.Uint32(data[:4]); count < maxHeaderEntryCount {
			return FormatLegacy
		}
	}
	return FormatUnknown
}

// findCodeStart locates the offset of the bytecode section in a full-format
// file, after the GLOBAL_DATA and CODE_START_ markers. Used for diagnostics;
// extraction strategies scan the whole buffer regardless.
func findCodeStart(data []byte) int {
	offset := 0x2C // past the fixed header
	if i := bytes.Index(data, []byte("GLOBAL_DATA")); i > 0 {
		offset = i + 12
	}
	if i := bytes.Index(data, []byte("CODE_START_")); i > 0 {
		offset = i + 12
	}
	return offset
}
