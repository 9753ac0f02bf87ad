package stcm2l

import "sort"

// MergeEntries combines the padded- and compact-strategy outputs into one
// candidate list. Compact entries win whenever both strategies found an entry
// at the same logical index: parsing without the padding prefix preserves tag
// fidelity better. Padded entries fill the remaining indices.
//
// The result is ordered by (index, offset); the offset tie-break keeps file
// order among genuinely repeated indices. Everything is re-filtered through
// the validity check as a safety net against either strategy admitting
// garbage.
func MergeEntries(padded, compact []RawEntry, c *Classifier) []RawEntry {
	if c == nil {
		c = NewClassifier()
	}

	merged := make([]RawEntry, 0, len(padded)+len(compact))
	seen := make(map[uint32]struct{}, len(compact))

	for _, e := range compact {
		merged = append(merged, e)
		seen[e.Index] = struct{}{}
	}
	for _, e := range padded {
		if _, ok := seen[e.Index]; !ok {
			merged = append(merged, e)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Index != merged[j].Index {
			return merged[i].Index < merged[j].Index
		}
		return merged[i].Offset < merged[j].Offset
	})

	out := merged[:0]
	for _, e := range merged {
		if c.IsValidText(e.Text) {
			out = append(out, e)
		}
	}
	return out
}
