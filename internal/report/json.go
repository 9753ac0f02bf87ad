package report

import (
	"fmt"
	"os"

	"github.com/Sunnie-Evergale/stcm2l-psv/internal/stcm2l"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
)

// Record is the JSON shape of one recovered utterance.
type Record struct {
	Entry   int      `json:"entry"`
	Kind    string   `json:"kind"`
	Speaker string   `json:"speaker,omitempty"`
	Text    string   `json:"text"`
	Options []string `json:"options,omitempty"`
}

// Document is the JSON export for one script file.
type Document struct {
	Source       string   `json:"source"`
	Format       string   `json:"format"`
	ChoiceFormat bool     `json:"choice_format,omitempty"`
	Records      []Record `json:"records"`
}

// ExportJSON writes the record sequence for one script file as JSON.
func ExportJSON(outputPath, sourceName string, res stcm2l.Result) error {
	doc := Document{
		Source:       sourceName,
		Format:       res.Format.String(),
		ChoiceFormat: res.ChoiceFormat,
		Records:      make([]Record, 0, len(res.Utterances)),
	}
	for display, u := range res.Utterances {
		doc.Records = append(doc.Records, Record{
			Entry:   display + 1,
			Kind:    u.Kind.String(),
			Speaker: u.Speaker,
			Text:    FormatText(u.Text),
			Options: u.Options,
		})
	}

	data, err := sonic.ConfigDefault.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("write JSON export: %w", err)
	}

	log.Info().Str("path", outputPath).Int("records", len(doc.Records)).Msg("Exported JSON")
	return nil
}
