package stcm2l

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// quoteRune is the only quotation mark tracked by the balance counter.
// Directional and CJK quote pairs (「」『』) are covered by the terminal
// punctuation and bracket rules instead; extending the counter to them is
// unvalidated against the corpus.
const quoteRune = '"'

// speakerBreakPrefix marks an entry that must not fold into the previous
// speaker's run, whatever the punctuation says.
const speakerBreakPrefix = `"--`

// Assembler folds the merged candidate sequence into utterances. It is a
// single forward pass with bounded lookahead and lookback; emitted utterances
// are never revisited.
type Assembler struct {
	classifier *Classifier
}

func NewAssembler(c *Classifier) *Assembler {
	if c == nil {
		c = NewClassifier()
	}
	return &Assembler{classifier: c}
}

// Assemble walks the candidate sequence once, dispatching on the tag's
// semantic role.
func (a *Assembler) Assemble(entries []RawEntry) []Utterance {
	var out []Utterance
	i := 0
	for i < len(entries) {
		switch {
		case entries[i].Tag == tagSpeaker || entries[i].Tag == tagSpeakerAlt:
			i = a.speakerEntry(entries, i, &out)
		case entries[i].Tag == tagNarration:
			i = a.narrationEntry(entries, i, &out)
		case entries[i].Tag == tagChoiceWord:
			i = a.choiceWordEntry(entries, i, &out)
		case entries[i].Tag == tagMixed:
			i = a.mixedEntry(entries, i, &out)
		case dialogueTags.has(entries[i].Tag):
			i = a.continuationEntry(entries, i, &out)
		default:
			i = a.unknownEntry(entries, i, &out)
		}
	}
	return out
}

// speakerEntry handles speaker-role tags. A roster name opens a speaker run:
// following continuation-family fragments are folded in until a name marker,
// a structural break, or balanced terminal punctuation closes it.
func (a *Assembler) speakerEntry(entries []RawEntry, i int, out *[]Utterance) int {
	cur := entries[i]

	if !a.classifier.IsSpeakerName(cur.Text) {
		// Not a roster name. Short Japanese fragments here are UI text or
		// choice options and stay; name markers are dropped (the continuation
		// handler re-attaches them by lookback); bytecode is dropped.
		trimmed := strings.TrimSpace(cur.Text)
		switch {
		case utf8.RuneCountInString(trimmed) >= 2 && containsJapanese(cur.Text) && !a.classifier.IsBytecode(cur.Text):
			*out = append(*out, Utterance{Index: cur.Index, Text: cur.Text, Kind: KindUnknown, Tag: cur.Tag})
		case a.classifier.IsNameMarker(cur.Text):
		case !a.classifier.IsBytecode(cur.Text):
			*out = append(*out, Utterance{Index: cur.Index, Text: cur.Text, Kind: KindUnknown, Tag: cur.Tag})
		}
		return i + 1
	}

	speaker := strings.Trim(strings.TrimSpace(cur.Text), "\x00")
	i++

	var parts []string
	for i < len(entries) {
		next := entries[i]
		if !speakerRunTags.has(next.Tag) {
			break
		}
		if a.classifier.IsNameMarker(next.Text) {
			break
		}
		if strings.HasPrefix(strings.TrimSpace(next.Text), speakerBreakPrefix) {
			break
		}

		if endsWithTerminal(next.Text) {
			parts = append(parts, next.Text)
			i++
			if countQuotes(strings.Join(parts, " "))%2 == 1 {
				i = a.quoteLookahead(entries, i, &parts)
			}
			break
		}

		if a.classifier.IsBytecode(next.Text) {
			i++
			continue
		}

		// A fragment mixing both scripts (romaji inside Japanese) never folds
		// into a run.
		if containsJapanese(next.Text) && hasLatin(next.Text) {
			break
		}
		if len(parts) > 0 {
			soFar := strings.Join(parts, " ")
			if crossesLanguage(soFar, next.Text) {
				break
			}
			prev := strings.TrimRight(parts[len(parts)-1], " \t\r\n")
			if endsWithTerminal(prev) && next.Text != "" {
				if countQuotes(soFar)%2 == 1 {
					// unclosed quote, keep folding regardless of case
				} else if startsUpper(next.Text) && !strings.HasPrefix(next.Text, "I'm") && !strings.HasPrefix(next.Text, "I ") {
					break
				}
			}
		}

		parts = append(parts, next.Text)
		i++
	}

	if len(parts) > 0 {
		*out = append(*out, Utterance{
			Index:   cur.Index,
			Speaker: speaker,
			Text:    joinParts(parts),
			Kind:    KindDialogue,
			Tag:     tagDialogue,
		})
	}
	return i
}

// quoteLookahead continues a closed run across further fragments until the
// double-quote count balances or a disqualifying fragment is met.
func (a *Assembler) quoteLookahead(entries []RawEntry, i int, parts *[]string) int {
	for i < len(entries) {
		next := entries[i]
		switch next.Tag {
		case 0x0C, 0x0D:
			// interleaved narration between dialogue halves, always absorbed
			*parts = append(*parts, next.Text)
			i++
			continue
		case tagDialogue, 0x06, tagSpeakerAlt, 0x0F:
			if strings.ContainsRune(next.Text, quoteRune) {
				*parts = append(*parts, next.Text)
				i++
				if countQuotes(strings.Join(*parts, " "))%2 == 0 {
					return i
				}
				continue
			}
			if next.Text != "" && !startsUpper(next.Text) {
				// trailing speech, no quote yet
				*parts = append(*parts, next.Text)
				i++
				continue
			}
			return i
		default:
			return i
		}
	}
	return i
}

// narrationEntry emits narration standalone; never attributed, never merged.
func (a *Assembler) narrationEntry(entries []RawEntry, i int, out *[]Utterance) int {
	cur := entries[i]
	if !a.classifier.IsBytecode(cur.Text) {
		*out = append(*out, Utterance{Index: cur.Index, Text: cur.Text, Kind: KindNarration, Tag: cur.Tag})
	}
	return i + 1
}

// choiceWordEntry admits English UI words and re-tags them into the
// choice role for the grouping pass. Anything else under this tag is garbage.
func (a *Assembler) choiceWordEntry(entries []RawEntry, i int, out *[]Utterance) int {
	cur := entries[i]
	if _, ok := uiChoiceWords[strings.ToLower(strings.TrimSpace(cur.Text))]; ok {
		*out = append(*out, Utterance{Index: cur.Index, Text: cur.Text, Kind: KindUnknown, Tag: tagSpeaker})
	}
	return i + 1
}

// mixedEntry handles tag 0x07, which carries dialogue or narration depending
// on context: a roster speaker looking forward at it makes it attributed
// dialogue, anything else leaves it unattributed. Speaker-run folding skips
// 0x07, so the attribution happens here by lookback instead.
func (a *Assembler) mixedEntry(entries []RawEntry, i int, out *[]Utterance) int {
	cur := entries[i]
	if a.classifier.IsBytecode(cur.Text) {
		return i + 1
	}

	speaker := ""
	for j := i - 1; j >= 0; j-- {
		prev := entries[j]
		if prev.Tag == tagSpeaker || prev.Tag == tagSpeakerAlt {
			if a.classifier.IsSpeakerName(prev.Text) {
				speaker = strings.Trim(strings.TrimSpace(prev.Text), "\x00")
			}
			break
		}
		if mixedBreakTags.has(prev.Tag) {
			break
		}
	}

	combined := cur.Text
	j := i + 1
	for j < len(entries) {
		next := entries[j]
		if !mixedAbsorbTags.has(next.Tag) {
			break
		}
		// Consecutive 0x07 fragments belong together only within one logical
		// entry; the other continuation tags combine regardless of index.
		if next.Tag == tagMixed && next.Index != cur.Index {
			break
		}
		if a.classifier.IsNameMarker(next.Text) {
			break
		}
		if a.classifier.IsBytecode(next.Text) {
			j++
			continue
		}
		combined = appendPart(combined, next.Text)
		j++
	}

	u := Utterance{Index: cur.Index, Text: combined, Kind: KindUnknown, Tag: cur.Tag}
	if speaker != "" {
		u.Speaker = speaker
		u.Kind = KindDialogue
	}
	*out = append(*out, u)
	return j
}

// continuationEntry handles the dialogue-continuation family: look back for
// the nearest name marker, then greedily absorb further continuation
// fragments under the shared combination rules.
func (a *Assembler) continuationEntry(entries []RawEntry, i int, out *[]Utterance) int {
	cur := entries[i]

	// Lookback past speaker-role fragments for the nearest preceding marker;
	// stop at any earlier dialogue entry so the search never crosses a
	// previous utterance.
	marker := ""
	for j := i - 1; j >= 0; j-- {
		if a.classifier.IsNameMarker(entries[j].Text) {
			marker = strings.TrimSpace(entries[j].Text)
			break
		}
		if dialogueTags.has(entries[j].Tag) {
			break
		}
	}

	if a.classifier.IsBytecode(cur.Text) {
		return i + 1
	}
	if !meaningfulLength(cur.Text) {
		return i + 1
	}

	combined := cur.Text
	j := i + 1
	for j < len(entries) {
		next := entries[j]
		if !continuationTags.has(next.Tag) {
			break
		}
		if a.classifier.IsNameMarker(next.Text) {
			break
		}
		// 0x03 and 0x0A carry legitimate short dialogue words that look like
		// bytecode; only the other tags get the skip.
		if next.Tag != tagSpeakerAlt && next.Tag != 0x0A && a.classifier.IsBytecode(next.Text) {
			j++
			continue
		}
		if crossesLanguage(combined, next.Text) {
			break
		}
		if !a.shouldCombine(combined, next.Text) {
			break
		}
		combined = appendPart(combined, next.Text)
		j++
	}

	if marker != "" {
		combined = marker + "\n" + combined
	}

	if containsJapanese(combined) || letterCount(combined) > 3 {
		u := Utterance{Index: cur.Index, Text: combined, Kind: KindUnknown, Tag: cur.Tag}
		if marker != "" {
			u.Speaker = marker
			u.Kind = KindDialogue
		}
		*out = append(*out, u)
	}
	return j
}

// unknownEntry keeps unclassified tags only when long enough to be text.
func (a *Assembler) unknownEntry(entries []RawEntry, i int, out *[]Utterance) int {
	cur := entries[i]
	if !a.classifier.IsBytecode(cur.Text) && meaningfulLength(cur.Text) {
		*out = append(*out, Utterance{Index: cur.Index, Text: cur.Text, Kind: KindUnknown, Tag: cur.Tag})
	}
	return i + 1
}

// shouldCombine is the shared predicate for folding an adjacent fragment into
// plain-text dialogue outside an explicit speaker run.
func (a *Assembler) shouldCombine(prev, curr string) bool {
	if a.classifier.IsBytecode(curr) || a.classifier.IsNameMarker(curr) {
		return false
	}

	// Multi-segment entries from the dialogue-format parser end in a
	// bracketed notes suffix; those are already complete.
	if strings.Contains(prev, " [") && strings.HasSuffix(strings.TrimRight(prev, " \t"), "]") {
		return false
	}

	if containsJapanese(curr) && hasLatin(curr) {
		return false
	}
	if crossesLanguage(prev, curr) {
		return false
	}

	// Previous fragment trails off mid-thought.
	if utf8.RuneCountInString(prev) > 3 && !terminalSearchClass.MatchString(prev) {
		return true
	}
	// Current opens like a continuation.
	if continuationOpener.MatchString(curr) {
		return true
	}
	// Unbalanced parenthetical, ASCII or fullwidth.
	if openParenCount(prev) > closeParenCount(prev) {
		return true
	}
	return false
}

// crossesLanguage reports whether folding curr after prev would switch
// between Japanese-only and Latin-only text.
func crossesLanguage(prev, curr string) bool {
	pjp, pen := containsJapanese(prev), hasLatin(prev)
	cjp, cen := containsJapanese(curr), hasLatin(curr)
	if pjp && cen && !cjp {
		return true
	}
	if pen && cjp && !cen {
		return true
	}
	return false
}

// meaningfulLength reports whether a fragment is worth keeping on its own:
// three characters, or two when they carry Japanese script (はい and うん are
// complete words).
func meaningfulLength(text string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if n >= 3 {
		return true
	}
	return n >= 2 && containsJapanese(text)
}

// endsWithTerminal reports terminal sentence punctuation that is not part of
// an ellipsis.
func endsWithTerminal(text string) bool {
	s := strings.TrimRight(text, " \t\r\n")
	if strings.HasSuffix(s, "...") || strings.HasSuffix(s, "。。。") {
		return false
	}
	last, size := utf8.DecodeLastRuneInString(s)
	if size == 0 {
		return false
	}
	switch last {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

func countQuotes(s string) int {
	return strings.Count(s, string(quoteRune))
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func letterCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

func openParenCount(s string) int {
	return strings.Count(s, "(") + strings.Count(s, "（")
}

func closeParenCount(s string) int {
	return strings.Count(s, ")") + strings.Count(s, "）")
}

// appendPart concatenates a fragment, inserting one space unless the text
// already ends in whitespace.
func appendPart(combined, part string) string {
	if combined != "" {
		last, _ := utf8.DecodeLastRuneInString(combined)
		if last != ' ' && last != '\n' {
			combined += " "
		}
	}
	return combined + part
}

func joinParts(parts []string) string {
	combined := parts[0]
	for _, p := range parts[1:] {
		combined = appendPart(combined, p)
	}
	return combined
}
