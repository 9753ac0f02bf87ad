package stcm2l

import (
	"strings"
	"testing"
)

func TestDecompile_LegacyScanBuffer(t *testing.T) {
	d := New(DefaultOptions())

	// Legacy layout: entry-count header, then null-terminated strings. One of
	// them is a roster speaker name.
	var data []byte
	data = append(data, le32(3)...)
	data = append(data, le32(1)...)
	data = append(data, "パール\x00"...)
	data = append(data, "こんにちは。\x00"...)
	data = append(data, "おはようございます。\x00"...)
	data = append(data, 0xFF, 0xFF, 0xFF, 0xFF)

	res := d.Decompile("scene01.dat", data)
	if res.Format != FormatLegacy {
		t.Fatalf("Format = %v, want %v", res.Format, FormatLegacy)
	}

	var dialogues []Utterance
	for _, u := range res.Utterances {
		if u.Kind == KindDialogue {
			dialogues = append(dialogues, u)
		}
	}
	if len(dialogues) != 1 {
		t.Fatalf("got %d dialogue utterances, want 1: %+v", len(dialogues), res.Utterances)
	}
	if dialogues[0].Speaker != "パール" || dialogues[0].Text != "こんにちは。" {
		t.Errorf("dialogue = %+v", dialogues[0])
	}
}

func TestDecompile_FullFormatChoices(t *testing.T) {
	d := New(DefaultOptions())

	// Full format: magic, then five compact entries at close indices, each a
	// short option-like fragment.
	data := []byte("STCM2L\x00\x00")
	for i, text := range []string{"はい", "いいえ", "たぶん", "やめる", "にげる"} {
		data = append(data, compactEntry(tagDialogue, uint32(i+1), text)...)
	}

	res := d.Decompile("choice.dat", data)
	if res.Format != FormatFull {
		t.Fatalf("Format = %v, want %v", res.Format, FormatFull)
	}
	if len(res.Utterances) != 1 {
		t.Fatalf("got %d utterances, want 1: %+v", len(res.Utterances), res.Utterances)
	}
	u := res.Utterances[0]
	if u.Kind != KindChoice {
		t.Fatalf("Kind = %v, want %v", u.Kind, KindChoice)
	}
	if len(u.Options) != 5 {
		t.Fatalf("got %d options, want 5", len(u.Options))
	}
	if u.Text != "はい / いいえ / たぶん / やめる / にげる" {
		t.Errorf("combined text = %q", u.Text)
	}
}

func TestDecompile_LegacyDialogueLayout(t *testing.T) {
	d := New(DefaultOptions())

	// Dialogue layout with the choice-format header type: entries are located
	// by their 2-byte type/index header and inline speaker prefix.
	var data []byte
	data = append(data, le32(2)...)
	data = append(data, le32(8)...)
	data = append(data, 0x50, 0x00, 0x01, 0x00) // type 80, index 1
	data = append(data, "pear001a\x00"...)
	data = append(data, "久しぶりだな、元気だったか\x00"...)
	data = append(data, 0x52, 0x00, 0x02, 0x00) // type 82, index 2
	data = append(data, "rich01b\x00"...)
	data = append(data, "そうでもないさ\x00"...)

	res := d.Decompile("ev064.dat", data)
	if res.Format != FormatLegacy {
		t.Fatalf("Format = %v, want %v", res.Format, FormatLegacy)
	}
	if !res.ChoiceFormat {
		t.Error("ChoiceFormat = false, want true for header type 8")
	}
	if len(res.Utterances) != 2 {
		t.Fatalf("got %d utterances, want 2: %+v", len(res.Utterances), res.Utterances)
	}
	if res.Utterances[0].Speaker != "pear001a" || res.Utterances[0].Tag != 80 {
		t.Errorf("first utterance = %+v", res.Utterances[0])
	}
	if res.Utterances[1].Speaker != "rich01b" || res.Utterances[1].Text != "そうでもないさ" {
		t.Errorf("second utterance = %+v", res.Utterances[1])
	}
}

func TestDecompile_DialogueLayoutNotGrouped(t *testing.T) {
	d := New(DefaultOptions())

	// Two adjacent short speakered replies look like choice candidates, but
	// dialogue-layout entries are complete and must keep their speakers.
	var data []byte
	data = append(data, le32(2)...)
	data = append(data, le32(1)...)
	data = append(data, 0x01, 0x00, 0x01, 0x00)
	data = append(data, "pear001a\x00"...)
	data = append(data, "どうした\x00"...)
	data = append(data, 0x02, 0x00, 0x02, 0x00)
	data = append(data, "rich01b\x00"...)
	data = append(data, "なんでもない\x00"...)

	res := d.Decompile("ev010.dat", data)
	if len(res.Utterances) != 2 {
		t.Fatalf("got %d utterances, want 2: %+v", len(res.Utterances), res.Utterances)
	}
	for _, u := range res.Utterances {
		if u.Kind == KindChoice {
			t.Fatalf("speakered replies collapsed into a choice: %+v", u)
		}
	}
	if res.Utterances[0].Speaker != "pear001a" || res.Utterances[1].Speaker != "rich01b" {
		t.Errorf("speakers lost: %+v", res.Utterances)
	}
}

func TestDecompile_EmptyBuffer(t *testing.T) {
	d := New(DefaultOptions())

	res := d.Decompile("empty.dat", nil)
	if res.Format != FormatUnknown {
		t.Errorf("Format = %v, want %v", res.Format, FormatUnknown)
	}
	if len(res.Utterances) != 0 {
		t.Errorf("got %d utterances, want 0", len(res.Utterances))
	}
}

func TestDecompile_GarbageBuffer(t *testing.T) {
	d := New(DefaultOptions())

	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(0x80 | i&0x0F)
	}
	res := d.Decompile("garbage.dat", data)
	if len(res.Utterances) != 0 {
		t.Errorf("got %d utterances from garbage, want 0: %+v", len(res.Utterances), res.Utterances)
	}
}

func TestDecompile_Options(t *testing.T) {
	opts := DefaultOptions()
	opts.BytecodeDensity = 0.5
	opts.ChoiceSeparator = " | "
	d := New(opts)

	if d.Classifier().DensityThreshold != 0.5 {
		t.Errorf("DensityThreshold = %v, want 0.5", d.Classifier().DensityThreshold)
	}
	if d.grouper.Separator != " | " {
		t.Errorf("Separator = %q, want %q", d.grouper.Separator, " | ")
	}
}

func TestDecompile_Reusable(t *testing.T) {
	d := New(DefaultOptions())

	var data []byte
	data = append(data, le32(1)...)
	data = append(data, le32(1)...)
	data = append(data, "Pearl\x00Good morning.\x00"...)
	data = append(data, 0xFF, 0xFF, 0xFF, 0xFF)

	first := d.Decompile("a.dat", data)
	second := d.Decompile("a.dat", data)
	if len(first.Utterances) != len(second.Utterances) {
		t.Fatalf("results differ across runs: %d vs %d", len(first.Utterances), len(second.Utterances))
	}
	if len(first.Utterances) == 0 {
		t.Fatal("expected utterances from the legacy scan")
	}
	if !strings.Contains(first.Utterances[0].Text+first.Utterances[0].Speaker, "Pearl") {
		t.Errorf("first utterance = %+v", first.Utterances[0])
	}
}
