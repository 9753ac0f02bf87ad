// Package report renders recovered script sequences for translators: a
// plain-text report per script file, plus a JSON export of the same records.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/Sunnie-Evergale/stcm2l-psv/internal/stcm2l"

	"github.com/rs/zerolog/log"
)

const banner = "==================================================================="

// lineBreakMarker is the in-text escape the game engine uses for line breaks.
// The core keeps it unexpanded; the writer turns it into real newlines.
const lineBreakMarker = "#n"

// refIDBase is the scene/event ID legacy choice files use for ordinary
// entries; only other IDs are worth surfacing.
const refIDBase = 64

var newlineRuns = regexp.MustCompile(`\n+`)

// Writer renders one decompilation result as a plain-text report.
type Writer struct{}

func NewWriter() *Writer { return &Writer{} }

// WriteFile renders the report for one script file to outputPath.
func (w *Writer) WriteFile(outputPath, sourceName string, res stcm2l.Result) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := w.Write(bw, sourceName, res); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}

	log.Info().Str("path", outputPath).Int("entries", len(res.Utterances)).Msg("Wrote report")
	return nil
}

// Write renders the report to any writer.
func (w *Writer) Write(out io.Writer, sourceName string, res stcm2l.Result) error {
	fmt.Fprintln(out, banner)
	if res.ChoiceFormat {
		fmt.Fprintln(out, "STCM2L Decompiled Script - CHOICE DIALOGUE FORMAT")
	} else {
		fmt.Fprintln(out, "STCM2L Decompiled Script")
	}
	fmt.Fprintf(out, "Source: %s\n", sourceName)
	fmt.Fprintln(out, banner)
	fmt.Fprintln(out)

	if res.ChoiceFormat {
		fmt.Fprintln(out, "NOTE: This file contains dialogue choices with voice/emotion variants.")
		fmt.Fprintln(out, "Type 80 = Main dialogue choices")
		fmt.Fprintln(out, "Type 82 = Alternative/short responses")
		fmt.Fprintln(out, "Entries reference scene/event IDs (e.g., 64) rather than sequential numbers.")
		fmt.Fprintln(out)
	}

	if len(res.Utterances) == 0 {
		fmt.Fprintln(out, "[No entries found]")
		return nil
	}

	// Display indices are sequential; the binary's index fields are mostly a
	// constant 1 and useless to a human reader.
	for display, u := range res.Utterances {
		choiceTag := ""
		if u.Kind == stcm2l.KindChoice {
			choiceTag = " [CHOICE]"
		}

		if res.ChoiceFormat {
			refID := ""
			if u.Index != refIDBase {
				refID = fmt.Sprintf(", RefID: %d", u.Index)
			}
			fmt.Fprintf(out, "--- Entry %d (Type: %d%s)%s ---\n", display+1, u.Tag, refID, choiceTag)
		} else {
			fmt.Fprintf(out, "--- Entry %d (Type: %d)%s ---\n", display+1, u.Tag, choiceTag)
		}

		if len(u.Options) > 1 {
			fmt.Fprintf(out, "[%d options: %s]\n", len(u.Options), strings.Join(u.Options, " / "))
		}
		if u.Speaker != "" {
			fmt.Fprintf(out, "Speaker: %s\n", u.Speaker)
		}
		if text := FormatText(u.Text); text != "" {
			fmt.Fprintf(out, "Text:\n%s\n", text)
		}
		fmt.Fprintln(out)
	}

	return nil
}

// FormatText expands the engine's line-break markers and collapses the
// resulting blank runs for readability.
func FormatText(text string) string {
	text = strings.ReplaceAll(text, lineBreakMarker, "\n")
	text = newlineRuns.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}
