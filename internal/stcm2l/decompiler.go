package stcm2l

import (
	"github.com/rs/zerolog/log"
)

// Options carries the per-run tuning knobs. The zero value is not usable;
// start from DefaultOptions.
type Options struct {
	// BytecodeDensity is the code-shaped token fraction that marks a
	// multi-word fragment as bytecode.
	BytecodeDensity float64
	// DensityMinTokens is the token count below which the density heuristic
	// never applies.
	DensityMinTokens int
	// ChoiceWindow is the index distance for clustering choice options.
	ChoiceWindow int64
	// ChoiceMin and ChoiceMax bound accepted cluster sizes.
	ChoiceMin, ChoiceMax int
	// ChoiceSeparator joins grouped option texts.
	ChoiceSeparator string
}

// DefaultOptions returns the corpus-tuned defaults.
func DefaultOptions() Options {
	return Options{
		BytecodeDensity:  0.85,
		DensityMinTokens: 5,
		ChoiceWindow:     DefaultChoiceWindow,
		ChoiceMin:        DefaultChoiceMin,
		ChoiceMax:        DefaultChoiceMax,
		ChoiceSeparator:  DefaultChoiceSeparator,
	}
}

// Result is the outcome for one file. An empty Utterances slice is a valid
// result, not an error; the core has no fatal error class.
type Result struct {
	// Format is the detected layout.
	Format Format
	// ChoiceFormat marks the choice/branch variant of the legacy layout,
	// which the report writer annotates differently.
	ChoiceFormat bool
	// Utterances is the ordered, reconstructed script.
	Utterances []Utterance
}

// Decompiler runs the full pipeline over one in-memory file buffer. It holds
// no per-file state; one value is safe to reuse across files and goroutines.
type Decompiler struct {
	opts       Options
	classifier *Classifier
	extractor  *Extractor
	assembler  *Assembler
	grouper    *ChoiceGrouper
}

// New builds a decompiler from options.
func New(opts Options) *Decompiler {
	c := NewClassifier()
	if opts.BytecodeDensity > 0 {
		c.DensityThreshold = opts.BytecodeDensity
	}
	if opts.DensityMinTokens > 0 {
		c.DensityMinTokens = opts.DensityMinTokens
	}

	g := NewChoiceGrouper(c)
	if opts.ChoiceWindow > 0 {
		g.Window = opts.ChoiceWindow
	}
	if opts.ChoiceMin > 0 {
		g.Min = opts.ChoiceMin
	}
	if opts.ChoiceMax > 0 {
		g.Max = opts.ChoiceMax
	}
	if opts.ChoiceSeparator != "" {
		g.Separator = opts.ChoiceSeparator
	}

	return &Decompiler{
		opts:       opts,
		classifier: c,
		extractor:  NewExtractor(c),
		assembler:  NewAssembler(c),
		grouper:    g,
	}
}

// Classifier exposes the configured classifier for callers that post-process
// utterances (statistics, cataloguing).
func (d *Decompiler) Classifier() *Classifier {
	return d.classifier
}

// Decompile turns a raw file buffer into the ordered utterance sequence.
// Processing is a pure function of the buffer: the worst outcome is an empty
// result, never a failure.
func (d *Decompiler) Decompile(name string, data []byte) Result {
	format := DetectFormat(data)
	log.Debug().Str("file", name).Stringer("format", format).Int("bytes", len(data)).Msg("Detected script format")

	var res Result
	res.Format = format

	switch format {
	case FormatFull:
		res.Utterances = d.decompileFull(name, data)
	default:
		// Unknown formats still get the legacy attempt rather than a hard
		// failure.
		res = d.decompileLegacy(name, data)
		res.Format = format
	}

	log.Info().
		Str("file", name).
		Stringer("format", format).
		Int("utterances", len(res.Utterances)).
		Msg("Decompiled script")
	return res
}

// decompileFull runs the structured-layout strategies, merges them, and
// reconstructs dialogue. When both header strategies come up empty the legacy
// byte scan is the fallback.
func (d *Decompiler) decompileFull(name string, data []byte) []Utterance {
	if cs := findCodeStart(data); cs > 0x2C {
		log.Debug().Str("file", name).Int("code_start", cs).Msg("Found bytecode section")
	}

	padded := d.extractor.ExtractPadded(data)
	compact := d.extractor.ExtractCompact(data)
	merged := MergeEntries(padded, compact, d.classifier)
	log.Debug().
		Str("file", name).
		Int("padded", len(padded)).
		Int("compact", len(compact)).
		Int("merged", len(merged)).
		Msg("Extraction strategies complete")

	if len(merged) == 0 {
		merged = d.extractor.ExtractLegacyScan(data)
		log.Debug().Str("file", name).Int("entries", len(merged)).Msg("Structured strategies empty, used legacy scan")
	}

	utterances := d.assembler.Assemble(merged)
	return d.grouper.Group(utterances)
}

// decompileLegacy handles the dialogue layout: the prefix-located entry
// parser first, and the raw string scan through the assembler when that
// yields nothing.
func (d *Decompiler) decompileLegacy(name string, data []byte) Result {
	var res Result
	res.Format = FormatLegacy

	if hdr, ok := readLegacyHeader(data); ok {
		res.ChoiceFormat = hdr.FormatType == choiceFormatHeaderType
		log.Debug().
			Str("file", name).
			Uint32("count", hdr.EntryCount).
			Uint32("type", hdr.FormatType).
			Bool("choice_format", res.ChoiceFormat).
			Msg("Legacy dialogue header")
	}

	// Dialogue-layout entries carry their speakers inline and are already
	// complete; choice grouping applies only to assembled fragment streams,
	// never here, or short speakered replies would collapse into choices.
	if utterances := parseDialogueLayout(data); len(utterances) > 0 {
		res.Utterances = utterances
		return res
	}

	entries := d.extractor.ExtractLegacyScan(data)
	utterances := d.assembler.Assemble(entries)
	res.Utterances = d.grouper.Group(utterances)
	return res
}
