package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Sunnie-Evergale/stcm2l-psv/internal/catalog"
	"github.com/Sunnie-Evergale/stcm2l-psv/internal/config"
	"github.com/Sunnie-Evergale/stcm2l-psv/internal/filewalker"
	"github.com/Sunnie-Evergale/stcm2l-psv/internal/jpstats"
	"github.com/Sunnie-Evergale/stcm2l-psv/internal/report"
	"github.com/Sunnie-Evergale/stcm2l-psv/internal/stcm2l"
	"github.com/Sunnie-Evergale/stcm2l-psv/internal/worker"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Version of the tool; the default output directory name derives from it so
// extraction runs with different heuristics never overwrite each other.
const Version = "2.0.0"

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd := &cobra.Command{
		Use:     "stcm2l-decomp",
		Short:   "Recover dialogue text from STCM2L binary script files",
		Long:    "Extracts human-readable dialogue, narration and UI choices from STCM2L binary scripts so the text can be handed to translators.",
		Version: Version,
	}

	rootCmd.AddCommand(decompileCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(catalogCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func decompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decompile <input-file-or-dir> [output-dir]",
		Short: "Decompile STCM2L files to readable text reports",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputDir := ""
			if len(args) >= 2 {
				outputDir = args[1]
			}
			format, _ := cmd.Flags().GetString("format")
			return runDecompile(args[0], outputDir, format)
		},
	}
	cmd.Flags().String("format", "txt", "Output format: txt, json or both")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <input-file-or-dir>",
		Short: "Report Japanese morpheme and word counts for translation sizing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(args[0])
		},
	}
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog <input-file-or-dir>",
		Short: "Store recovered lines in PostgreSQL and report which are new",
		Long: `Decompiles the input and upserts every recovered line into the script_lines
table, keyed by text hash. Running it again after a game patch reports only
the lines that changed. Requires DATABASE_URL.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			export, _ := cmd.Flags().GetString("export")
			return runCatalog(args[0], export)
		},
	}
	cmd.Flags().String("export", "", "Also export the full catalog to this TSV path")
	return cmd
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Warn().Msg("Received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

func pipelineOptions(cfg *config.Config) stcm2l.Options {
	opts := stcm2l.DefaultOptions()
	opts.BytecodeDensity = cfg.BytecodeDensity
	opts.DensityMinTokens = cfg.DensityMinTokens
	opts.ChoiceWindow = int64(cfg.ChoiceWindow)
	opts.ChoiceMin = cfg.ChoiceMin
	opts.ChoiceMax = cfg.ChoiceMax
	opts.ChoiceSeparator = cfg.ChoiceSeparator
	return opts
}

// fileResult pairs one input file with its pipeline output.
type fileResult struct {
	Entry  filewalker.Entry
	Result stcm2l.Result
}

// decompileAll walks the input and runs every file through the pipeline on a
// worker pool. A malformed file yields an empty result, never aborts the
// batch.
func decompileAll(ctx context.Context, cfg *config.Config, input string) ([]fileResult, error) {
	entries, err := filewalker.Walk(input)
	if err != nil {
		return nil, fmt.Errorf("walk input: %w", err)
	}

	dec := stcm2l.New(pipelineOptions(cfg))

	pool := worker.NewPool[filewalker.Entry, stcm2l.Result](cfg.WorkerCount,
		func(ctx context.Context, entry filewalker.Entry) (stcm2l.Result, error) {
			data, err := filewalker.Read(entry)
			if err != nil {
				return stcm2l.Result{}, err
			}
			return dec.Decompile(entry.Name, data), nil
		},
	)

	results := pool.Execute(ctx, entries)

	out := make([]fileResult, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			log.Error().Err(r.Err).Str("file", r.Input.Path).Msg("Decompile failed")
			continue
		}
		out = append(out, fileResult{Entry: r.Input, Result: r.Output})
	}
	return out, nil
}

// runDecompile handles the `decompile` command.
func runDecompile(input, outputDir, format string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	if outputDir == "" {
		outputDir = fmt.Sprintf("%s_v%s", cfg.OutputDir, Version)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	results, err := decompileAll(ctx, cfg, input)
	if err != nil {
		return err
	}

	writer := report.NewWriter()
	success := 0
	for _, fr := range results {
		if len(fr.Result.Utterances) == 0 {
			log.Warn().Str("file", fr.Entry.Name).Msg("No entries recovered")
		}

		if format == "txt" || format == "both" {
			outPath := filepath.Join(outputDir, fr.Entry.Name+".txt")
			if err := writer.WriteFile(outPath, fr.Entry.Name, fr.Result); err != nil {
				log.Error().Err(err).Str("file", fr.Entry.Name).Msg("Write report failed")
				continue
			}
		}
		if format == "json" || format == "both" {
			outPath := filepath.Join(outputDir, fr.Entry.Name+".json")
			if err := report.ExportJSON(outPath, fr.Entry.Name, fr.Result); err != nil {
				log.Error().Err(err).Str("file", fr.Entry.Name).Msg("JSON export failed")
				continue
			}
		}
		if len(fr.Result.Utterances) > 0 {
			success++
		}
	}

	log.Info().
		Int("processed", success).
		Int("total", len(results)).
		Str("output", outputDir).
		Msg("Decompilation complete")
	return nil
}

// runStats handles the `stats` command.
func runStats(input string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()

	results, err := decompileAll(ctx, cfg, input)
	if err != nil {
		return err
	}

	analyzer, err := jpstats.New()
	if err != nil {
		return fmt.Errorf("init analyzer: %w", err)
	}

	var total jpstats.Stats
	for _, fr := range results {
		stats := analyzer.Analyze(fr.Result.Utterances)
		log.Info().
			Str("file", fr.Entry.Name).
			Int("utterances", stats.Utterances).
			Int("japanese", stats.JapaneseUtterances).
			Int("morphemes", stats.Morphemes).
			Int("words", stats.Words).
			Msg("Script statistics")

		total.Utterances += stats.Utterances
		total.JapaneseUtterances += stats.JapaneseUtterances
		total.Morphemes += stats.Morphemes
		total.Words += stats.Words

		for _, speaker := range stats.Speakers() {
			s := stats.BySpeaker[speaker]
			fmt.Printf("%s\t%s\t%d utterances\t%d morphemes\t%d words\n",
				fr.Entry.Name, speaker, s.Utterances, s.Morphemes, s.Words)
		}
	}

	fmt.Printf("TOTAL\t%d utterances\t%d japanese\t%d morphemes\t%d words\n",
		total.Utterances, total.JapaneseUtterances, total.Morphemes, total.Words)
	return nil
}

// runCatalog handles the `catalog` command.
func runCatalog(input, exportPath string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect PostgreSQL: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping PostgreSQL: %w", err)
	}
	log.Info().Msg("Connected to PostgreSQL")

	store := catalog.New(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := store.Preload(ctx); err != nil {
		return err
	}

	results, err := decompileAll(ctx, cfg, input)
	if err != nil {
		return err
	}

	totalNew := 0
	for _, fr := range results {
		inserted, err := store.Upsert(ctx, fr.Entry.Name, fr.Result.Utterances)
		if err != nil {
			return fmt.Errorf("catalog %s: %w", fr.Entry.Name, err)
		}
		totalNew += inserted
	}

	if exportPath != "" {
		if err := store.ExportTSV(ctx, exportPath); err != nil {
			return err
		}
	}

	log.Info().Int("files", len(results)).Int("new_lines", totalNew).Msg("Catalog run complete")
	return nil
}
