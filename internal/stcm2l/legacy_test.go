package stcm2l

import (
	"strings"
	"testing"
)

func TestReadLegacyHeader(t *testing.T) {
	hdr, ok := readLegacyHeader([]byte{0x05, 0x00, 0x00, 0x00, 0x08, 0x00, 0x00, 0x00})
	if !ok {
		t.Fatal("readLegacyHeader() ok = false")
	}
	if hdr.EntryCount != 5 || hdr.FormatType != 8 {
		t.Errorf("header = %+v, want count=5 type=8", hdr)
	}

	if _, ok := readLegacyHeader([]byte{0x05, 0x00}); ok {
		t.Error("readLegacyHeader() accepted a short buffer")
	}
}

func TestParseDialogueLayout_NoSpeakerPrefix(t *testing.T) {
	// Plausible headers without a known speaker prefix behind them are not
	// entries.
	var data []byte
	data = append(data, le32(2)...)
	data = append(data, le32(1)...)
	data = append(data, 0x01, 0x00, 0x01, 0x00)
	data = append(data, "xxxxx\x00some body text here\x00"...)

	if got := parseDialogueLayout(data); got != nil {
		t.Errorf("parseDialogueLayout() = %+v, want nil", got)
	}
}

func TestCollectSegments(t *testing.T) {
	// Longest segment becomes the text; other substantial segments become a
	// bracketed note; instruction labels and markers are dropped.
	var data []byte
	data = append(data, "scene_play\x00"...)
	data = append(data, "短い方の台詞\x00\xFF\xFF"...)
	data = append(data, "こちらがいちばん長い本文の台詞です\x00"...)
	data = append(data, "@se_01\x00"...)

	got := collectSegments(data, 0, len(data))
	if !strings.HasPrefix(got, "こちらがいちばん長い本文の台詞です") {
		t.Errorf("longest segment not first: %q", got)
	}
	if !strings.Contains(got, "[短い方の台詞]") {
		t.Errorf("secondary segment not noted: %q", got)
	}
	if strings.Contains(got, "scene_play") || strings.Contains(got, "@se_01") {
		t.Errorf("instruction labels leaked into text: %q", got)
	}
}

func TestKeepSegment(t *testing.T) {
	cases := []struct {
		seg  string
		want bool
	}{
		{"普通の台詞です", true},
		{"ab", false}, // two characters or fewer
		{"suma", false},
		{"memory_init", false},
		{"@se_play", false},
		{"#Name[1]", false},
	}

	for _, tc := range cases {
		if got := keepSegment(tc.seg); got != tc.want {
			t.Errorf("keepSegment(%q) = %v, want %v", tc.seg, got, tc.want)
		}
	}
}

func TestReadLegacySpeaker(t *testing.T) {
	data := []byte("pear001a\x00body text")
	speaker, textStart := readLegacySpeaker(data, 0, len(data))
	if speaker != "pear001a" {
		t.Errorf("speaker = %q", speaker)
	}
	if textStart != 9 {
		t.Errorf("textStart = %d, want 9", textStart)
	}

	// 0xFF-terminated field, no null.
	data = []byte("rich01b\xFF\xFF")
	speaker, _ = readLegacySpeaker(data, 0, len(data))
	if speaker != "rich01b" {
		t.Errorf("speaker = %q", speaker)
	}
}
