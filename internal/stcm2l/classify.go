package stcm2l

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// LanguageMix describes which scripts a fragment contains.
type LanguageMix int

const (
	MixNeither LanguageMix = iota
	MixJapaneseOnly
	MixLatinOnly
	MixMixed
)

// uiChoiceWords are the known English UI option labels. They are never
// bytecode and always choice-eligible, whatever their other signals say.
var uiChoiceWords = map[string]struct{}{
	"yes": {}, "no": {}, "ok": {}, "cancel": {},
	"accept": {}, "decline": {}, "close": {},
}

// speakerNames is the closed roster of character names observed in Type 0x02
// entries, in both English and katakana spellings. Matching is case-insensitive
// after null-padding is stripped.
var speakerNames = map[string]struct{}{
	"pearl": {}, "richie": {}, "nesso": {}, "zara": {}, "edgar": {},
	"elza": {}, "rath": {}, "guillan": {}, "arles": {}, "henrietta": {},
	"パール": {}, "リッチー": {}, "ネッソ": {}, "ザラ": {}, "エドガー": {},
	"エルザ": {}, "ラス": {}, "ギラン": {}, "アルル": {}, "ヘンリエッタ": {},
}

// bytecodePatterns match embedded scripting tokens at the start of a fragment:
// control-flow keywords, background/effect references, character-ID prefixes,
// @-commands and known internal variable names. #Name[X] markers are NOT here;
// those are kept as speaker indicators.
var bytecodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^switch`),
	regexp.MustCompile(`(?i)^case`),
	regexp.MustCompile(`(?i)^default`),
	regexp.MustCompile(`(?i)^bg[0-9a-f]+`),
	regexp.MustCompile(`(?i)^@[a-zA-Z0-9_]+`),
	regexp.MustCompile(`(?i)^(edga|her|zara|ness|pear|rich|rath|elza|haniy|zk)[0-9]+[a-z]*`),
	regexp.MustCompile(`(?i)^suma$`),
	regexp.MustCompile(`(?i)^scene_play$`),
	regexp.MustCompile(`(?i)^flg_memory$`),
}

// nameMarkerPattern is the fixed-shape #Name[X] speaker-slot indicator.
var nameMarkerPattern = regexp.MustCompile(`^#Name\[[0-9]+\]$`)

// identifierPatterns is the broader library used by the validity filter:
// internal variable names, route/ending flags, effect codes and character
// variable shapes. A match only disqualifies text with no Japanese content;
// narrative Japanese legitimately contains some of these shapes.
var identifierPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bRelease_`),
	regexp.MustCompile(`(?i)\bRute_count_`),
	regexp.MustCompile(`(?i)\bFav[A-Z]`),
	regexp.MustCompile(`(?i)\bLH_sel_`),
	regexp.MustCompile(`(?i)\bsure\d+`),
	regexp.MustCompile(`(?i)\bsuma\b`),
	regexp.MustCompile(`(?i)\bmemory_`),
	regexp.MustCompile(`(?i)\bCOLLECTION_LINK`),
	regexp.MustCompile(`(?i)\bEXPORT_DATA`),
	regexp.MustCompile(`(?i)\bswitch`),
	regexp.MustCompile(`(?i)\bscene_play`),
	regexp.MustCompile(`(?i)\brathL`),
	regexp.MustCompile(`(?i)\belzaL`),
	regexp.MustCompile(`(?i)\bzara0`),
	regexp.MustCompile(`(?i)\bness0`),
	regexp.MustCompile(`(?i)\bher\d+`),
	regexp.MustCompile(`(?i)\bzk\d+`),
	regexp.MustCompile(`(?i)\bbg\d+`),
	regexp.MustCompile(`(?i)\b[A-Z][a-z]+_(bad|good)_end\b`),
	regexp.MustCompile(`(?i)\bTrueEnd\b`),
	regexp.MustCompile(`(?i)^[A-Z][a-z]+_[A-Za-z_]+$`),
	regexp.MustCompile(`(?i)\bef_[a-z0-9_]+\b`),
	regexp.MustCompile(`(?i)\bselect\b`),
	regexp.MustCompile(`(?i)\bexport_data\b`),
	regexp.MustCompile(`(?i)^[a-z]+\d+[a-z]*_[a-z]+$`),
	regexp.MustCompile(`(?i)^[a-z]+\d+$`),
	regexp.MustCompile(`(?i)^[a-z]{3,5}$`),
}

// Token shapes for the lexical density heuristic.
var (
	shortWordPattern    = regexp.MustCompile(`^[a-z]{1,3}$`)
	alphaDigitPattern   = regexp.MustCompile(`^[a-z]+\d+$`)
	punctuationOnly     = regexp.MustCompile(`^[。！？]+$`)
	vowelRepeatRunes    = "あいうえお"
	terminalForChoice   = "。！』）」"
	terminalSearchClass = regexp.MustCompile(`[。！？.!?"』）\]…]`)
	continuationOpener  = regexp.MustCompile(`^[a-z(「『（]`)
)

// Classifier labels decoded fragments. The density knobs are configuration,
// not constants: they were retuned several times against the corpus and will
// be again.
type Classifier struct {
	// DensityThreshold is the fraction of code-shaped tokens beyond which a
	// multi-word fragment counts as bytecode. Tuned to 0.85; lower values
	// misclassify English dialogue built from short words ("to", "for").
	DensityThreshold float64
	// DensityMinTokens is the minimum whitespace token count before the
	// density heuristic applies at all.
	DensityMinTokens int
}

// NewClassifier returns a classifier with corpus-tuned defaults.
func NewClassifier() *Classifier {
	return &Classifier{
		DensityThreshold: 0.85,
		DensityMinTokens: 5,
	}
}

// containsJapanese reports whether s has any codepoint in the wide CJK range
// used by the combination logic (ideographic space through the CJK ideographs).
func containsJapanese(s string) bool {
	for _, r := range s {
		if r >= 0x3000 && r <= 0x9FFF {
			return true
		}
	}
	return false
}

// containsJapaneseScript is the narrower range used by the validity filter
// (hiragana onward), excluding CJK punctuation.
func containsJapaneseScript(s string) bool {
	for _, r := range s {
		if r >= 0x3040 && r <= 0x9FFF {
			return true
		}
	}
	return false
}

// latinLetterCount counts ASCII alphabetic runes.
func latinLetterCount(s string) int {
	n := 0
	for _, r := range s {
		if r < 128 && unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

// hasLatin reports significant Latin-alphabet content (more than two letters).
func hasLatin(s string) bool {
	return latinLetterCount(s) > 2
}

// LanguageMix classifies the script content of a fragment.
func (c *Classifier) LanguageMix(text string) LanguageMix {
	jp := containsJapanese(text)
	latin := hasLatin(text)
	switch {
	case jp && latin:
		return MixMixed
	case jp:
		return MixJapaneseOnly
	case latin:
		return MixLatinOnly
	default:
		return MixNeither
	}
}

// IsBytecode reports whether a fragment is embedded scripting rather than
// narrative text.
func (c *Classifier) IsBytecode(text string) bool {
	text = strings.TrimSpace(text)

	if _, ok := uiChoiceWords[strings.ToLower(text)]; ok {
		return false
	}

	for _, p := range bytecodePatterns {
		if p.MatchString(text) {
			return true
		}
	}

	// Lexical density: a long run of code-shaped tokens is bytecode even when
	// no single token matches a known pattern.
	words := strings.Fields(text)
	if len(words) > c.DensityMinTokens {
		codeShaped := 0
		for _, w := range words {
			if strings.HasPrefix(w, "@") ||
				shortWordPattern.MatchString(w) ||
				alphaDigitPattern.MatchString(w) ||
				utf8.RuneCountInString(w) < 3 {
				codeShaped++
			}
		}
		if float64(codeShaped)/float64(len(words)) > c.DensityThreshold {
			return true
		}
	}

	return false
}

// IsNameMarker reports whether text is a #Name[X] speaker-slot indicator.
// These are kept verbatim, never filtered.
func (c *Classifier) IsNameMarker(text string) bool {
	return nameMarkerPattern.MatchString(strings.TrimSpace(text))
}

// IsSpeakerName reports whether text is a character name from the roster.
func (c *Classifier) IsSpeakerName(text string) bool {
	text = strings.Trim(strings.TrimSpace(text), "\x00")
	_, ok := speakerNames[strings.ToLower(text)]
	return ok
}

// IsChoiceCandidate reports whether a fragment looks like one UI choice
// option. Choices are short, not speaker names, not bytecode, not questions,
// and do not close with dialogue-terminal punctuation.
func (c *Classifier) IsChoiceCandidate(text string, tag uint32) bool {
	text = strings.TrimSpace(text)
	n := utf8.RuneCountInString(text)
	if n < 2 || n > 10 {
		return false
	}

	// Choice-role entries with no Japanese are only eligible when they are a
	// known English UI word; other short Latin scraps ("ed") are garbage.
	if tag == tagSpeaker && !containsJapanese(text) {
		_, ok := uiChoiceWords[strings.ToLower(text)]
		return ok
	}

	if !containsJapanese(text) {
		return false
	}
	if c.IsSpeakerName(text) {
		return false
	}
	if c.IsBytecode(text) {
		return false
	}
	if strings.HasSuffix(text, "？") {
		return false
	}
	if isVowelRepeat(text) {
		return false
	}
	if punctuationOnly.MatchString(text) {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(text)
	if strings.ContainsRune(terminalForChoice, last) {
		return false
	}
	return true
}

// isVowelRepeat detects same-vowel interjections (あああ, いいい) while
// keeping real words like いいえ, which mix runes.
func isVowelRepeat(text string) bool {
	var first rune
	for i, r := range text {
		if i == 0 {
			first = r
			continue
		}
		if r != first {
			return false
		}
	}
	return utf8.RuneCountInString(text) >= 2 && strings.ContainsRune(vowelRepeatRunes, first)
}

// IsValidText is the admission filter applied to every decoded fragment
// before it becomes a candidate entry.
func (c *Classifier) IsValidText(text string) bool {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < 2 {
		return false
	}

	// Replacement rune means the span did not decode cleanly.
	if strings.ContainsRune(text, '�') {
		return false
	}

	runeCount := utf8.RuneCountInString(text)
	controls := 0
	for _, r := range text {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			controls++
		}
	}
	if controls > runeCount/4 {
		return false
	}

	if strings.HasPrefix(text, "@") && runeCount < 5 {
		return false
	}
	if runeCount > 10 && strings.Count(text, "@") > runeCount/10 {
		return false
	}

	// Speaker names and UI words always pass; they pair with dialogue even
	// though they superficially match identifier shapes.
	if c.IsSpeakerName(trimmed) {
		return true
	}
	if _, ok := uiChoiceWords[strings.ToLower(trimmed)]; ok {
		return true
	}

	for _, p := range identifierPatterns {
		if p.MatchString(trimmed) && !containsJapaneseScript(text) {
			return false
		}
	}

	if containsJapaneseScript(text) {
		return true
	}
	letters := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters >= 2
}
