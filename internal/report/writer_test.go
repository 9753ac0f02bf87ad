package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Sunnie-Evergale/stcm2l-psv/internal/stcm2l"
)

func TestFormatText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"foo#nbar", "foo\nbar"},
		{"foo#n#nbar", "foo\nbar"},
		{"  padded  ", "padded"},
		{"no markers", "no markers"},
	}

	for _, tc := range cases {
		if got := FormatText(tc.in); got != tc.want {
			t.Errorf("FormatText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWrite(t *testing.T) {
	res := stcm2l.Result{
		Format: stcm2l.FormatFull,
		Utterances: []stcm2l.Utterance{
			{Index: 1, Speaker: "パール", Text: "こんにちは。#nいい天気ですね。", Kind: stcm2l.KindDialogue, Tag: 4},
			{Index: 9, Text: "はい / いいえ", Kind: stcm2l.KindChoice, Tag: 2, Options: []string{"はい", "いいえ"}},
		},
	}

	var buf bytes.Buffer
	if err := NewWriter().Write(&buf, "scene01.dat", res); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"STCM2L Decompiled Script",
		"Source: scene01.dat",
		"--- Entry 1 (Type: 4) ---",
		"Speaker: パール",
		"こんにちは。\nいい天気ですね。",
		"--- Entry 2 (Type: 2) [CHOICE] ---",
		"[2 options: はい / いいえ]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter().Write(&buf, "empty.dat", stcm2l.Result{Format: stcm2l.FormatLegacy}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.Contains(buf.String(), "[No entries found]") {
		t.Errorf("empty report missing placeholder:\n%s", buf.String())
	}
}

func TestWrite_ChoiceFormat(t *testing.T) {
	res := stcm2l.Result{
		Format:       stcm2l.FormatLegacy,
		ChoiceFormat: true,
		Utterances: []stcm2l.Utterance{
			{Index: 64, Speaker: "pear001a", Text: "通常の台詞", Kind: stcm2l.KindDialogue, Tag: 80},
			{Index: 72, Speaker: "rich01b", Text: "別の場面の台詞", Kind: stcm2l.KindDialogue, Tag: 82},
		},
	}

	var buf bytes.Buffer
	if err := NewWriter().Write(&buf, "ev064.dat", res); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "CHOICE DIALOGUE FORMAT") {
		t.Errorf("choice-format banner missing:\n%s", out)
	}
	// The base scene ID is noise; only other IDs are surfaced.
	if strings.Contains(out, "RefID: 64") {
		t.Errorf("base scene ID surfaced:\n%s", out)
	}
	if !strings.Contains(out, "RefID: 72") {
		t.Errorf("non-base scene ID not surfaced:\n%s", out)
	}
}

func TestWriteFile(t *testing.T) {
	path := t.TempDir() + "/out.txt"
	res := stcm2l.Result{
		Format:     stcm2l.FormatFull,
		Utterances: []stcm2l.Utterance{{Index: 1, Text: "本文です", Kind: stcm2l.KindUnknown, Tag: 4}},
	}
	if err := NewWriter().WriteFile(path, "x.dat", res); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}
