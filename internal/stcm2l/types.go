package stcm2l

// Format identifies the on-disk layout of a script file.
type Format int

const (
	// FormatUnknown means the detector could not classify the file.
	// Callers should still attempt the legacy path.
	FormatUnknown Format = iota
	// FormatLegacy is the dialogue layout: an entry-count header followed by
	// loosely structured speaker/text entries.
	FormatLegacy
	// FormatFull is the structured layout starting with the STCM2L magic,
	// containing GLOBAL_DATA and CODE_START_ bytecode sections.
	FormatFull
)

func (f Format) String() string {
	switch f {
	case FormatLegacy:
		return "dialogue"
	case FormatFull:
		return "full"
	default:
		return "unknown"
	}
}

// Kind classifies a reconstructed utterance.
type Kind int

const (
	KindUnknown Kind = iota
	KindDialogue
	KindNarration
	KindChoice
)

func (k Kind) String() string {
	switch k {
	case KindDialogue:
		return "dialogue"
	case KindNarration:
		return "narration"
	case KindChoice:
		return "choice"
	default:
		return "unknown"
	}
}

// Entry type tags observed in structured STCM2L files. The roles are inferred
// from binary analysis, not documented anywhere.
const (
	tagChoiceWord uint32 = 0x01 // English UI choice options (Yes, No, OK, ...)
	tagSpeaker    uint32 = 0x02 // speaker names, also short Japanese UI text
	tagSpeakerAlt uint32 = 0x03 // speaker names or dialogue continuation
	tagDialogue   uint32 = 0x04 // main dialogue
	tagMixed      uint32 = 0x07 // dialogue or narration, decided by context
	tagPadded     uint32 = 0x10 // size field is a placeholder, not a real span
	tagNarration  uint32 = 0x12 // narration, never attributed to a speaker
)

// tagSet is a closed set of tag values, used for the per-strategy validation
// tables and the continuation families.
type tagSet map[uint32]struct{}

func newTagSet(tags ...uint32) tagSet {
	s := make(tagSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

func (s tagSet) has(t uint32) bool {
	_, ok := s[t]
	return ok
}

// Tag families. These sets were grown revision by revision against the target
// corpus; treat them as tuning tables, not derivable facts.
var (
	// paddedTags are accepted by the padded-header strategy.
	paddedTags = newTagSet(0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x09, 0x0A, 0x0B, 0x0C, 0x0F, 0x10, 0x11, 0x12)

	// compactTags are accepted by the compact-header strategy.
	compactTags = newTagSet(0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10, 0x11, 0x12)

	// resyncTags are accepted when re-synchronizing after a padded entry.
	resyncTags = newTagSet(0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x10, 0x11)

	// speakerRunTags may be folded into an open speaker run. 0x07 is absent:
	// it has its own dialogue-or-narration logic. 0x12 is narration and never
	// combines.
	speakerRunTags = newTagSet(0x01, 0x03, 0x04, 0x05, 0x06, 0x08, 0x09, 0x0A,
		0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10, 0x11)

	// continuationTags may be absorbed into a plain dialogue run.
	continuationTags = newTagSet(0x01, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10, 0x11)

	// dialogueTags dispatch to the continuation handler in the assembler.
	dialogueTags = newTagSet(0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B,
		0x0C, 0x0D, 0x0E, 0x0F, 0x10, 0x11)

	// mixedAbsorbTags may be folded into a 0x07 entry's run.
	mixedAbsorbTags = newTagSet(0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09,
		0x0A, 0x0B, 0x0C, 0x0D, 0x0E)

	// mixedBreakTags end the backward speaker search for a 0x07 entry: any of
	// these between the fragment and a candidate speaker means the speaker
	// belongs to an earlier utterance.
	mixedBreakTags = newTagSet(0x04, 0x05, 0x06, 0x07, 0x0D, 0x0E, 0x12)
)

// RawEntry is one structurally located fragment, prior to reconstruction.
type RawEntry struct {
	// Index is the logical position supplied by the binary. It is neither
	// unique nor monotonic; most structured entries carry Index=1.
	Index uint32
	// Tag is the entry type value from the header.
	Tag uint32
	// Text is the decoded fragment. Decoding never fails; invalid spans fall
	// back to a byte-preserving decode.
	Text string
	// Offset is the file offset the fragment was read from. Used only as a
	// tie-break when sorting, never semantically.
	Offset int
	// Size is the declared or recomputed byte span length.
	Size int
}

// Utterance is one reconstructed logical unit of script.
type Utterance struct {
	// Index is the index of the first constituent entry.
	Index uint32
	// Speaker is empty for narration and choices.
	Speaker string
	// Text may be a multi-fragment concatenation. The #n line-break marker is
	// preserved here and expanded by the report writer.
	Text string
	// Kind is the semantic classification.
	Kind Kind
	// Tag is the entry type carried through for reporting.
	Tag uint32
	// Options holds the ordered option texts when Kind is KindChoice.
	Options []string
}
