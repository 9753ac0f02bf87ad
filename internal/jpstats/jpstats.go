// Package jpstats produces volume estimates over recovered Japanese script
// text, so translators can size the work per file and per speaker.
package jpstats

import (
	"fmt"
	"sort"

	"github.com/Sunnie-Evergale/stcm2l-psv/internal/stcm2l"
	"github.com/Sunnie-Evergale/stcm2l-psv/internal/textutil"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// SpeakerStats aggregates counts for one speaker label.
type SpeakerStats struct {
	Utterances int
	Morphemes  int
	Words      int
}

// Stats summarizes one decompiled script.
type Stats struct {
	Utterances         int
	JapaneseUtterances int
	// Morphemes counts every non-symbol token the analyzer produced.
	Morphemes int
	// Words counts content morphemes (nouns, verbs, adjectives, adverbs),
	// the closest Japanese analogue of a translatable word count.
	Words     int
	BySpeaker map[string]SpeakerStats
}

// Analyzer wraps a morphological tokenizer. Building one loads the IPA
// dictionary; reuse a single value across files.
type Analyzer struct {
	tok *tokenizer.Tokenizer
}

// New builds an analyzer over the IPA dictionary.
func New() (*Analyzer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("init tokenizer: %w", err)
	}
	return &Analyzer{tok: t}, nil
}

// Analyze tokenizes every Japanese utterance and aggregates counts.
func (a *Analyzer) Analyze(utterances []stcm2l.Utterance) Stats {
	stats := Stats{
		Utterances: len(utterances),
		BySpeaker:  make(map[string]SpeakerStats),
	}

	for _, u := range utterances {
		if !textutil.ContainsJapanese(u.Text) {
			continue
		}
		stats.JapaneseUtterances++

		morphemes, words := a.countTokens(u.Text)
		stats.Morphemes += morphemes
		stats.Words += words

		if u.Speaker != "" {
			s := stats.BySpeaker[u.Speaker]
			s.Utterances++
			s.Morphemes += morphemes
			s.Words += words
			stats.BySpeaker[u.Speaker] = s
		}
	}

	return stats
}

// countTokens returns (all non-symbol morphemes, content words).
func (a *Analyzer) countTokens(text string) (int, int) {
	morphemes, words := 0, 0
	for _, tok := range a.tok.Tokenize(text) {
		features := tok.Features()
		if len(features) == 0 {
			continue
		}
		switch features[0] {
		case "記号": // punctuation and symbols
			continue
		case "名詞", "動詞", "形容詞", "副詞":
			words++
		}
		morphemes++
	}
	return morphemes, words
}

// Speakers returns the speaker labels in descending morpheme order.
func (s Stats) Speakers() []string {
	names := make([]string, 0, len(s.BySpeaker))
	for name := range s.BySpeaker {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := s.BySpeaker[names[i]], s.BySpeaker[names[j]]
		if a.Morphemes != b.Morphemes {
			return a.Morphemes > b.Morphemes
		}
		return names[i] < names[j]
	})
	return names
}
