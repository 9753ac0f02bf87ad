package stcm2l

import (
	"sort"
	"strings"
)

// Choice grouping defaults, tuned against the corpus.
const (
	DefaultChoiceWindow    = 50
	DefaultChoiceMin       = 2
	DefaultChoiceMax       = 5
	DefaultChoiceSeparator = " / "
)

// ChoiceGrouper collapses clusters of short, proximate option-like utterances
// into single multi-option choice records.
type ChoiceGrouper struct {
	classifier *Classifier
	// Window is the maximum index distance from the first candidate of a
	// forming cluster.
	Window int64
	// Min and Max bound accepted cluster sizes. A singleton is not a choice;
	// anything above Max is likely mis-detection and is left alone.
	Min, Max int
	// Separator joins the option texts in the combined record.
	Separator string
}

func NewChoiceGrouper(c *Classifier) *ChoiceGrouper {
	if c == nil {
		c = NewClassifier()
	}
	return &ChoiceGrouper{
		classifier: c,
		Window:     DefaultChoiceWindow,
		Min:        DefaultChoiceMin,
		Max:        DefaultChoiceMax,
		Separator:  DefaultChoiceSeparator,
	}
}

// Group is a post-pass over assembled utterances. It is idempotent: synthetic
// choice records are never candidates again.
func (g *ChoiceGrouper) Group(utterances []Utterance) []Utterance {
	var candidates []int
	for i, u := range utterances {
		if u.Kind == KindChoice || len(u.Options) > 0 {
			continue
		}
		if g.classifier.IsChoiceCandidate(u.Text, u.Tag) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return utterances
	}

	removed := make(map[int]bool)
	var combined []Utterance

	i := 0
	for i < len(candidates) {
		first := utterances[candidates[i]]
		group := candidates[i : i+1]

		j := i + 1
		for j < len(candidates) {
			next := utterances[candidates[j]]
			if int64(next.Index)-int64(first.Index) <= g.Window {
				group = candidates[i : j+1]
				j++
			} else {
				break
			}
		}

		if len(group) >= g.Min && len(group) <= g.Max {
			options := make([]string, len(group))
			for k, gi := range group {
				options[k] = strings.TrimSpace(utterances[gi].Text)
				removed[gi] = true
			}
			combined = append(combined, Utterance{
				Index:   first.Index,
				Text:    strings.Join(options, g.Separator),
				Kind:    KindChoice,
				Tag:     tagSpeaker,
				Options: options,
			})
		}

		if j > i+1 {
			i = j
		} else {
			i++
		}
	}

	result := make([]Utterance, 0, len(utterances))
	for i, u := range utterances {
		if !removed[i] {
			result = append(result, u)
		}
	}
	result = append(result, combined...)

	// Restore document order. The sort is stable so entries sharing an index
	// keep their relative positions.
	sort.SliceStable(result, func(a, b int) bool {
		return result[a].Index < result[b].Index
	})

	return result
}
