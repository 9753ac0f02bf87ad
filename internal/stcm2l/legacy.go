package stcm2l

import (
	"bytes"
	"encoding/binary"
	"sort"
	"strings"
	"unicode/utf8"
)

// choiceFormatHeaderType in the second header field marks the choice/branch
// dialogue variant of the legacy layout.
const choiceFormatHeaderType = 8

// speakerPrefixes are the byte runs that open a speaker field right after a
// legacy entry header. Observed in the corpus, not derivable.
var speakerPrefixes = [][]byte{
	[]byte("yougo"), []byte("her01"), []byte("zara0"), []byte("ness0"),
	[]byte("pear0"), []byte("rich0"), []byte("rath0"), []byte("elza0"),
	[]byte("tiara"),
}

// segmentSkipWords are instruction labels that appear inside legacy entry
// bodies and are never narrative text.
var segmentSkipWords = map[string]struct{}{
	"memory_init": {}, "memory_exit": {}, "COLLECTION_LINK": {},
	"scene_play": {}, "suma": {},
}

// legacyHeader is the 8-byte header of the dialogue layout.
type legacyHeader struct {
	EntryCount uint32
	FormatType uint32
}

func readLegacyHeader(data []byte) (legacyHeader, bool) {
	if len(data) < 8 {
		return legacyHeader{}, false
	}
	return legacyHeader{
		EntryCount: binary.LittleEndian.Uint32(data[0:4]),
		FormatType: binary.LittleEndian.Uint32(data[4:8]),
	}, true
}

// parseDialogueLayout parses the legacy dialogue layout: entries located by
// a 2-byte type / 2-byte index header followed by a known speaker byte
// prefix, with one or more null- or 0xFF-delimited text segments per entry.
// The longest segment is the main text; other substantial segments become a
// bracketed notes suffix. These entries carry their speaker inline, so they
// bypass the assembler and come out as finished utterances.
func parseDialogueLayout(data []byte) []Utterance {
	hdr, ok := readLegacyHeader(data)
	if !ok {
		return nil
	}
	maxIndex := hdr.EntryCount

	// Locate candidate headers: XX 00 YY 00 with small type and plausible
	// index, confirmed by a speaker prefix right behind them.
	var offsets []int
	for i := 0; i+13 < len(data); i++ {
		if data[i+1] != 0x00 || data[i+3] != 0x00 {
			continue
		}
		entryType := binary.LittleEndian.Uint16(data[i : i+2])
		entryIndex := binary.LittleEndian.Uint16(data[i+2 : i+4])
		if entryType < 1 || entryType > 100 {
			continue
		}
		if uint32(entryIndex) < 1 || uint32(entryIndex) > maxIndex {
			continue
		}
		if i+9 < len(data) && hasSpeakerPrefix(data[i+4:i+9]) {
			offsets = append(offsets, i)
		}
	}

	offsets = dedupeSorted(offsets)

	var utterances []Utterance
	for n, offset := range offsets {
		if offset+8 > len(data) {
			break
		}
		entryType := uint32(binary.LittleEndian.Uint16(data[offset : offset+2]))
		entryIndex := uint32(binary.LittleEndian.Uint16(data[offset+2 : offset+4]))

		next := len(data)
		if n+1 < len(offsets) {
			next = offsets[n+1]
		}

		speaker, textStart := readLegacySpeaker(data, offset+4, next)
		text := collectSegments(data, textStart, next)

		if speaker != "" || strings.TrimSpace(text) != "" {
			kind := KindUnknown
			if speaker != "" {
				kind = KindDialogue
			}
			utterances = append(utterances, Utterance{
				Index:   entryIndex,
				Speaker: speaker,
				Text:    text,
				Kind:    kind,
				Tag:     entryType,
			})
		}
	}
	return utterances
}

// hasSpeakerPrefix reports whether the 5-byte window matches a known speaker
// field opening.
func hasSpeakerPrefix(b []byte) bool {
	for _, p := range speakerPrefixes {
		if bytes.Equal(b, p) {
			return true
		}
	}
	return false
}

// readLegacySpeaker decodes the speaker field starting at pos, bounded by
// next. Returns the speaker string and the offset where body text begins.
func readLegacySpeaker(data []byte, pos, next int) (string, int) {
	if pos >= next {
		return "", pos
	}
	field := data[pos:next]
	if nul := bytes.IndexByte(field, 0x00); nul >= 0 {
		return decodeSpan(field[:nul]), pos + nul + 1
	}
	trimmed := bytes.TrimRight(field, "\xff")
	return decodeSpan(trimmed), pos + len(trimmed) + 1
}

// collectSegments recovers every text segment between pos and next, skipping
// null/0xFF padding and instruction labels, then joins them with the longest
// segment first and the rest as a bracketed note.
func collectSegments(data []byte, pos, next int) string {
	var segments []string

	for pos < next {
		for pos < next && (data[pos] == 0x00 || data[pos] == 0xFF) {
			pos++
		}
		if pos >= next {
			break
		}

		end := pos
		for end < next && data[end] != 0x00 && data[end] != 0xFF {
			end++
		}

		if end > pos+1 {
			seg := decodeSpan(data[pos:end])
			if keepSegment(seg) {
				segments = append(segments, seg)
			}
		}
		pos = end + 1
	}

	if len(segments) == 0 {
		return ""
	}

	sort.SliceStable(segments, func(i, j int) bool {
		return utf8.RuneCountInString(segments[i]) > utf8.RuneCountInString(segments[j])
	})

	text := segments[0]
	var notes []string
	for _, s := range segments[1:] {
		if utf8.RuneCountInString(s) > 5 {
			notes = append(notes, s)
		}
	}
	if len(notes) > 0 {
		text += " [" + strings.Join(notes, ", ") + "]"
	}
	return text
}

func keepSegment(seg string) bool {
	if utf8.RuneCountInString(seg) <= 2 {
		return false
	}
	if _, skip := segmentSkipWords[seg]; skip {
		return false
	}
	return !strings.HasPrefix(seg, "@") && !strings.HasPrefix(seg, "#")
}

func dedupeSorted(offsets []int) []int {
	if len(offsets) == 0 {
		return offsets
	}
	sort.Ints(offsets)
	out := offsets[:1]
	for _, o := range offsets[1:] {
		if o != out[len(out)-1] {
			out = append(out, o)
		}
	}
	return out
}
