package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ankivox/core/anki"
	"ankivox/core/config"
	"ankivox/core/metrics"
	"ankivox/core/reconcile"
	"ankivox/core/speech"
	"ankivox/core/storage"
	"ankivox/feature/notes"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// syncFlags holds the flags of the sync command.
type syncFlags struct {
	query     string
	source    string
	target    string
	voice     string
	tempDir   string
	limit     int
	overwrite bool
	workers   int
	dryRun    bool
	report    string
}

var syncOpts syncFlags

// syncCmd synthesizes audio for the notes matching a query.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synthesize audio for matching notes",
	Long: `Sync finds the notes matching an Anki search query, synthesizes the text of
the source field and stores a [sound:...] reference in the target field.

Notes whose target field already holds something are skipped unless
--overwrite is given. --limit counts only notes that are actually attempted.

Examples:
  # Voice every French card that has no audio yet
  ankivox sync -q "deck:French" -s Front -t Audio -v fr-FR-DeniseNeural

  # Try the first ten only
  ankivox sync -q "deck:French" -s Front -t Audio --limit 10

  # Show what would happen and keep a report
  ankivox sync -q "deck:French" -s Front -t Audio --dry-run --report plan.yaml`,
	RunE: runSync,
}

func init() {
	f := syncCmd.Flags()
	f.StringVarP(&syncOpts.query, "query", "q", "", "Anki search query selecting the notes")
	f.StringVarP(&syncOpts.source, "source", "s", "", "Field holding the text to speak")
	f.StringVarP(&syncOpts.target, "target", "t", "", "Field receiving the sound reference")
	f.StringVarP(&syncOpts.voice, "voice", "v", "", "Azure voice short name (default AZURE_DEFAULT_VOICE)")
	f.StringVar(&syncOpts.tempDir, "temp-dir", "", "Directory for staged audio (default SYNC_TEMP_DIR)")
	f.IntVar(&syncOpts.limit, "limit", 0, "Maximum number of notes to attempt")
	f.BoolVar(&syncOpts.overwrite, "overwrite", false, "Replace existing target field content")
	f.IntVar(&syncOpts.workers, "workers", 0, "Notes processed concurrently (default SYNC_WORKERS)")
	f.BoolVar(&syncOpts.dryRun, "dry-run", false, "Plan only; do not synthesize or update notes")
	f.StringVar(&syncOpts.report, "report", "", "Write the run summary to a .json or .yaml file")

	_ = syncCmd.MarkFlagRequired("query")
	_ = syncCmd.MarkFlagRequired("source")
	_ = syncCmd.MarkFlagRequired("target")

	RootCmd.AddCommand(syncCmd)
}

// job builds the engine job from the flags, falling back to configuration.
func (o syncFlags) job(cfg *config.Config, limitSet bool) reconcile.Job {
	job := reconcile.Job{
		Query:     o.query,
		Target:    reconcile.Target{Source: o.source, Field: o.target},
		Voice:     o.voice,
		Overwrite: o.overwrite,
		TempDir:   o.tempDir,
		Workers:   o.workers,
		Pace:      time.Duration(cfg.Sync.PaceMS) * time.Millisecond,
		DryRun:    o.dryRun,
	}
	if job.Voice == "" {
		job.Voice = cfg.Azure.DefaultVoice
	}
	if job.TempDir == "" {
		job.TempDir = cfg.Sync.TempDir
	}
	if job.Workers == 0 {
		job.Workers = cfg.Sync.Workers
	}
	if limitSet {
		job.Limit = reconcile.IntPtr(o.limit)
	}
	return job
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, l, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	job := syncOpts.job(cfg, cmd.Flags().Changed("limit"))
	if err := job.Validate(); err != nil {
		return err
	}

	ankiClient, err := anki.NewClient(cfg.Anki)
	if err != nil {
		return fmt.Errorf("failed to create anki client: %w", err)
	}
	version, err := ankiClient.Version(ctx)
	if err != nil {
		return fmt.Errorf("failed to reach anki: %w", err)
	}
	l.Debug("Connected to AnkiConnect", zap.String("url", cfg.Anki.ConnectURL), zap.Int("version", version))

	speechClient, err := speech.NewClient(cfg.Azure)
	if err != nil {
		return fmt.Errorf("failed to create speech client: %w", err)
	}

	archive, err := openArchive(ctx, cfg, l)
	if err != nil {
		return err
	}

	l.Info("Starting sync",
		zap.String("query", job.Query),
		zap.String("source", job.Target.Source),
		zap.String("target", job.Target.Field),
		zap.String("voice", job.Voice),
		zap.Bool("dry_run", job.DryRun),
	)

	collector, err := metrics.NewCollector()
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}
	defer func() { _ = collector.Shutdown(context.Background()) }()

	engine := reconcile.NewEngine(notes.NewAdapter(ankiClient, speechClient, archive, l), l,
		reconcile.WithMetrics(collector.Metrics))
	summary, runErr := engine.Run(ctx, job)
	if summary == nil || (runErr != nil && summary.Processed == 0) {
		return runErr
	}

	// ctx may already be cancelled; the figures are still wanted.
	snap, err := collector.Snapshot(context.Background())
	if err != nil {
		l.Warn("Failed to read run metrics", zap.Error(err))
	}

	printSummary(cmd.OutOrStdout(), summary, snap, job.DryRun)

	if syncOpts.report != "" {
		if err := writeReport(syncOpts.report, &runReport{Run: summary, Metrics: snap}); err != nil {
			return err
		}
		l.Info("Wrote report", zap.String("path", syncOpts.report))
	}

	return runErr
}

// openArchive connects the optional audio archive; nil when disabled.
func openArchive(ctx context.Context, cfg *config.Config, l *zap.Logger) (*notes.Archive, error) {
	if !cfg.Storage.Enabled {
		return nil, nil
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to storage: %w", err)
	}
	if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
		return nil, err
	}

	l.Info("Archiving audio", zap.String("bucket", cfg.Storage.Bucket), zap.String("prefix", cfg.Storage.Prefix))
	return &notes.Archive{Client: client, Bucket: cfg.Storage.Bucket, Prefix: cfg.Storage.Prefix}, nil
}
