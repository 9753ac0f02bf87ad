package stcm2l

import (
	"reflect"
	"testing"
)

func TestGroup_ClustersWithinWindow(t *testing.T) {
	g := NewChoiceGrouper(nil)

	utterances := []Utterance{
		{Index: 10, Text: "はい", Kind: KindUnknown, Tag: tagDialogue},
		{Index: 12, Text: "いいえ", Kind: KindUnknown, Tag: tagDialogue},
		{Index: 15, Text: "たぶん", Kind: KindUnknown, Tag: tagDialogue},
	}
	out := g.Group(utterances)
	if len(out) != 1 {
		t.Fatalf("Group() got %d utterances, want 1", len(out))
	}
	u := out[0]
	if u.Kind != KindChoice || u.Index != 10 {
		t.Errorf("Group() = %+v", u)
	}
	if len(u.Options) != 3 {
		t.Fatalf("got %d options, want 3", len(u.Options))
	}
	if u.Text != "はい / いいえ / たぶん" {
		t.Errorf("combined text = %q", u.Text)
	}
}

func TestGroup_Idempotent(t *testing.T) {
	g := NewChoiceGrouper(nil)

	utterances := []Utterance{
		{Index: 10, Text: "はい", Kind: KindUnknown, Tag: tagDialogue},
		{Index: 12, Text: "いいえ", Kind: KindUnknown, Tag: tagDialogue},
	}
	once := g.Group(utterances)
	twice := g.Group(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Group() not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestGroup_SingletonLeftAlone(t *testing.T) {
	g := NewChoiceGrouper(nil)

	utterances := []Utterance{
		{Index: 1, Text: "はい", Kind: KindUnknown, Tag: tagDialogue},
		{Index: 90, Speaker: "パール", Text: "長い台詞がここに続いています。", Kind: KindDialogue, Tag: tagDialogue},
	}
	out := g.Group(utterances)
	if len(out) != 2 {
		t.Fatalf("Group() got %d utterances, want 2", len(out))
	}
	for _, u := range out {
		if u.Kind == KindChoice {
			t.Errorf("singleton became a choice: %+v", u)
		}
	}
}

func TestGroup_WindowExcludesDistant(t *testing.T) {
	g := NewChoiceGrouper(nil)

	utterances := []Utterance{
		{Index: 10, Text: "はい", Kind: KindUnknown, Tag: tagDialogue},
		{Index: 200, Text: "いいえ", Kind: KindUnknown, Tag: tagDialogue},
	}
	out := g.Group(utterances)
	if len(out) != 2 {
		t.Fatalf("Group() got %d utterances, want 2", len(out))
	}
	for _, u := range out {
		if u.Kind == KindChoice {
			t.Errorf("distant candidates grouped: %+v", u)
		}
	}
}

func TestGroup_PreservesSurroundingOrder(t *testing.T) {
	g := NewChoiceGrouper(nil)

	utterances := []Utterance{
		{Index: 5, Speaker: "パール", Text: "どちらにしますか？質問です。", Kind: KindDialogue, Tag: tagDialogue},
		{Index: 10, Text: "はい", Kind: KindUnknown, Tag: tagDialogue},
		{Index: 12, Text: "いいえ", Kind: KindUnknown, Tag: tagDialogue},
		{Index: 80, Speaker: "リッチー", Text: "わかりました、そうしましょう。", Kind: KindDialogue, Tag: tagDialogue},
	}
	out := g.Group(utterances)
	if len(out) != 3 {
		t.Fatalf("Group() got %d utterances, want 3", len(out))
	}
	if out[0].Kind != KindDialogue || out[1].Kind != KindChoice || out[2].Kind != KindDialogue {
		t.Errorf("order disturbed: %+v", out)
	}
}

func TestGroup_CustomSeparator(t *testing.T) {
	g := NewChoiceGrouper(nil)
	g.Separator = " | "

	utterances := []Utterance{
		{Index: 1, Text: "はい", Kind: KindUnknown, Tag: tagDialogue},
		{Index: 2, Text: "いいえ", Kind: KindUnknown, Tag: tagDialogue},
	}
	out := g.Group(utterances)
	if len(out) != 1 || out[0].Text != "はい | いいえ" {
		t.Fatalf("Group() = %+v", out)
	}
}
