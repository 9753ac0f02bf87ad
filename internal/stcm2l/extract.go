package stcm2l

import (
	"encoding/binary"
	"unicode/utf8"
)

// Structural validation bounds shared by the header strategies.
const (
	maxEntrySize        = 10000
	maxEntryIndex       = 100000
	placeholderScanCap  = 500 // tag 0x10 spans are terminator-delimited, capped
	compactMinEntrySize = 4   // without padding there is one less signal, be stricter
)

// Extractor locates candidate entries in a raw buffer. All strategies scan the
// whole buffer: fragments of interest occur before CODE_START_ as well.
type Extractor struct {
	classifier *Classifier
}

// NewExtractor returns an extractor using the given classifier for fragment
// admission.
func NewExtractor(c *Classifier) *Extractor {
	if c == nil {
		c = NewClassifier()
	}
	return &Extractor{classifier: c}
}

// ExtractPadded scans for the padded header shape:
//
//	00 00 00 00 [00 00 00 00] TT TT TT TT II II II II SS SS SS SS [text]
//
// with 4 or 8 bytes of zero padding before the little-endian type/index/size
// triple. Any validation failure advances the cursor one byte and retries;
// the scan never aborts.
func (e *Extractor) ExtractPadded(data []byte) []RawEntry {
	var entries []RawEntry

	pos := 0
	for pos < len(data)-24 {
		if !isZeroRun(data, pos, 4) {
			pos++
			continue
		}

		pad := 4
		if isZeroRun(data, pos+4, 4) {
			pad = 8
		}

		tag := binary.LittleEndian.Uint32(data[pos+pad : pos+pad+4])
		index := binary.LittleEndian.Uint32(data[pos+pad+4 : pos+pad+8])
		size := int(binary.LittleEndian.Uint32(data[pos+pad+8 : pos+pad+12]))

		if !paddedTags.has(tag) {
			pos++
			continue
		}

		textStart := pos + pad + 12
		if tag == tagPadded {
			// The declared size is a placeholder; measure the real span.
			size = spanToTerminator(data, textStart)
			if size < 1 {
				pos++
				continue
			}
		} else if size < 1 || size > maxEntrySize {
			pos++
			continue
		}

		if index > maxEntryIndex {
			pos++
			continue
		}

		end := textStart + size
		if end > len(data) {
			break
		}

		text := decodeSpan(data[textStart:end])
		if text != "" && e.classifier.IsValidText(text) {
			entries = append(entries, RawEntry{
				Index:  index,
				Tag:    tag,
				Text:   text,
				Offset: pos,
				Size:   size,
			})
		}

		pos = end
		pos = resyncPadded(data, pos)
	}

	return entries
}

// resyncPadded advances past padding to the next plausible padded header.
func resyncPadded(data []byte, pos int) int {
	for pos < len(data)-24 {
		if isZeroRun(data, pos, 4) {
			nextTag := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
			nextSize := int(binary.LittleEndian.Uint32(data[pos+12 : pos+16]))
			if isZeroRun(data, pos+4, 4) {
				nextTag = binary.LittleEndian.Uint32(data[pos+8 : pos+12])
				nextSize = int(binary.LittleEndian.Uint32(data[pos+16 : pos+20]))
			}
			if resyncTags.has(nextTag) {
				if nextTag == tagPadded || (nextSize >= 1 && nextSize <= maxEntrySize) {
					return pos
				}
			}
		}
		pos++
	}
	return pos
}

// ExtractCompact scans for the same header without the leading zero padding:
//
//	TT TT TT TT II II II II SS SS SS SS [text]
//
// The missing padding removes one disambiguating signal, so the minimum
// accepted size is stricter.
func (e *Extractor) ExtractCompact(data []byte) []RawEntry {
	var entries []RawEntry

	pos := 0
	for pos+12 <= len(data) {
		tag := binary.LittleEndian.Uint32(data[pos : pos+4])
		if !compactTags.has(tag) {
			pos++
			continue
		}

		index := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
		if index > maxEntryIndex {
			pos++
			continue
		}

		size := int(binary.LittleEndian.Uint32(data[pos+8 : pos+12]))
		if tag == tagPadded {
			size = spanToTerminator(data, pos+12)
			if size < 1 {
				pos++
				continue
			}
		} else if size < compactMinEntrySize || size > maxEntrySize {
			pos++
			continue
		}

		end := pos + 12 + size
		if end > len(data) {
			break
		}

		text := decodeSpan(data[pos+12 : end])
		if text != "" && e.classifier.IsValidText(text) {
			entries = append(entries, RawEntry{
				Index:  index,
				Tag:    tag,
				Text:   text,
				Offset: pos,
				Size:   size,
			})
		}

		pos = end
		for pos < len(data)-16 && data[pos] == 0x00 {
			pos++
		}
	}

	return entries
}

// ExtractLegacyScan is the fallback strategy: decode a null-terminated run at
// every non-padding byte and keep anything of two or more characters. Entries
// are tagged as speaker or dialogue purely by roster membership.
func (e *Extractor) ExtractLegacyScan(data []byte) []RawEntry {
	var entries []RawEntry

	count := uint32(0)
	pos := 0
	for pos < len(data)-4 {
		b := data[pos]
		if b == 0x00 || b == 0xFF {
			pos++
			continue
		}

		text, consumed := decodeCString(data, pos)
		if utf8.RuneCountInString(text) >= 2 && e.classifier.IsValidText(text) {
			tag := tagDialogue
			if e.classifier.IsSpeakerName(text) {
				tag = tagSpeaker
			}
			entries = append(entries, RawEntry{
				Index:  count,
				Tag:    tag,
				Text:   text,
				Offset: pos,
				Size:   consumed - 1,
			})
			count++
			pos += consumed
		} else {
			pos++
		}
	}

	return entries
}

// spanToTerminator measures a terminator-delimited span: the text runs to the
// first null that is followed by at least one more null within the next four
// bytes (inter-entry padding), capped at placeholderScanCap.
func spanToTerminator(data []byte, start int) int {
	end := start
	for end < len(data) && end-start < placeholderScanCap {
		if data[end] == 0x00 {
			nulls := 0
			for i := 0; i < 4 && end+i < len(data); i++ {
				if data[end+i] == 0x00 {
					nulls++
				}
			}
			if nulls >= 2 {
				break
			}
		}
		end++
	}
	return end - start
}

func isZeroRun(data []byte, pos, n int) bool {
	if pos+n > len(data) {
		return false
	}
	for i := 0; i < n; i++ {
		if data[pos+i] != 0x00 {
			return false
		}
	}
	return true
}
