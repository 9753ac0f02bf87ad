package stcm2l

import (
	"bytes"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want Format
	}{
		{"full magic", []byte("STCM2L\x00\x00rest of file"), FormatFull},
		{"legacy count", []byte{0x03, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00}, FormatLegacy},
		{"implausible count", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00}, FormatUnknown},
		{"too short", []byte{0x01, 0x00, 0x00, 0x00}, FormatUnknown},
		{"empty", nil, FormatUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectFormat(tc.data); got != tc.want {
				t.Errorf("DetectFormat() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFindCodeStart(t *testing.T) {
	if got := findCodeStart([]byte("no markers here at all, just filler bytes")); got != 0x2C {
		t.Errorf("findCodeStart() without markers = %#x, want 0x2C", got)
	}

	data := append([]byte("STCM2L\x00\x00 padding CODE_START_"), make([]byte, 32)...)
	want := bytes.Index(data, []byte("CODE_START_")) + 12
	if got := findCodeStart(data); got != want {
		t.Errorf("findCodeStart() = %d, want %d", got, want)
	}
}
