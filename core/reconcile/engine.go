package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ankivox/core/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// errEmptyAudio is returned when the speech service answers with no payload.
var errEmptyAudio = errors.New("speech service returned no audio")

// Engine reconciles a record set with synthesized audio.
type Engine struct {
	adapter Adapter
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics records run metrics into m instead of metrics.Default().
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates an engine driving the given adapter.
func NewEngine(adapter Adapter, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{adapter: adapter, logger: logger}
	for _, o := range opts {
		o(e)
	}
	if e.metrics == nil {
		e.metrics = metrics.Default()
	}
	return e
}

// Plan validates the job, fetches the candidate records and returns the
// skip/limit decisions without synthesizing anything.
func (e *Engine) Plan(ctx context.Context, job Job) (*Plan, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	records, err := e.fetch(ctx, job)
	if err != nil {
		return nil, err
	}
	return BuildPlan(records, job), nil
}

// Run executes the job. Only a *ConfigError (before anything happens), a
// *RemoteError from the initial fetch, a *ResourceError when the staging
// directory cannot be created, or the context error after cancellation are
// returned; every per-record failure is recorded in the summary instead.
// The summary is non-nil whenever the job was valid.
func (e *Engine) Run(ctx context.Context, job Job) (*RunSummary, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	summary := &RunSummary{
		RunID:    uuid.NewString(),
		Outcomes: []Outcome{},
		Failures: []Failure{},
	}
	log := e.logger.With(zap.String("run_id", summary.RunID))

	records, err := e.fetch(ctx, job)
	if err != nil {
		return summary, err
	}
	if len(records) == 0 {
		log.Info("No matching records", zap.String("query", job.Query))
		return summary, nil
	}

	plan := BuildPlan(records, job)
	log.Info("Planned sync",
		zap.Int("fetched", len(records)),
		zap.Int("admitted", plan.Admitted),
		zap.Int("has_audio", plan.HasAudio),
		zap.Int("limit_reached", plan.LimitReached),
	)

	outcomes := make([]Outcome, len(plan.Decisions))
	if job.DryRun {
		for i, d := range plan.Decisions {
			reason := d.Reason
			if d.Admit {
				reason = ReasonDryRun
			}
			outcomes[i] = skipped(d.Record.ID, reason)
			e.report(ctx, log, i, len(outcomes), outcomes[i])
		}
		e.finish(log, summary, outcomes)
		return summary, nil
	}

	store, err := newTempStore(ctx, job.TempDir, e.metrics)
	if err != nil {
		return summary, err
	}
	defer func() {
		leaked, errs := store.Sweep()
		summary.Leaked = leaked
		for _, err := range errs {
			summary.addCleanupError("", err)
		}
		if leaked > 0 {
			log.Warn("Released leaked temp audio at end of run", zap.Int("count", leaked))
		}
		for _, err := range errs {
			log.Warn("Temp audio cleanup failed", zap.Error(err))
		}
	}()

	var g errgroup.Group
	g.SetLimit(job.workers())
	for i, d := range plan.Decisions {
		if !d.Admit {
			outcomes[i] = skipped(d.Record.ID, d.Reason)
			e.report(ctx, log, i, len(outcomes), outcomes[i])
			continue
		}
		if ctx.Err() != nil {
			outcomes[i] = skipped(d.Record.ID, ReasonCancelled)
			e.report(ctx, log, i, len(outcomes), outcomes[i])
			continue
		}
		g.Go(func() error {
			outcomes[i] = e.process(ctx, store, job, d.Record)
			e.report(ctx, log, i, len(outcomes), outcomes[i])
			return nil
		})
	}
	_ = g.Wait()

	e.finish(log, summary, outcomes)
	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("sync cancelled: %w", err)
	}
	return summary, nil
}

func (e *Engine) fetch(ctx context.Context, job Job) ([]Record, error) {
	start := time.Now()
	records, err := e.adapter.Find(ctx, job.Query)
	e.metrics.ObserveStage(ctx, string(StageFetch), time.Since(start), err)
	if err != nil {
		return nil, &RemoteError{Stage: StageFetch, Err: err}
	}
	return records, nil
}

// process drives one admitted record through normalize, synthesize, publish
// and update. It never returns an error: every failure becomes the outcome.
func (e *Engine) process(ctx context.Context, store *tempStore, job Job, rec Record) (out Outcome) {
	if ctx.Err() != nil {
		return skipped(rec.ID, ReasonCancelled)
	}

	text := e.adapter.Normalize(rec.Field(job.Target.Source))
	if strings.TrimSpace(text) == "" {
		return failed(rec.ID, StageNormalize, ErrEmptyInput)
	}

	audio, err := store.Create(rec.ID)
	if err != nil {
		return failed(rec.ID, StageSynthesize, err)
	}
	// Covers every early return; a no-op after the explicit release below.
	defer func() {
		if err := audio.Release(); err != nil && out.CleanupErr == nil {
			out.CleanupErr = err
		}
	}()

	err = e.stage(ctx, StageSynthesize, func() error {
		if err := e.adapter.Synthesize(ctx, text, job.Voice, audio); err != nil {
			return err
		}
		if err := audio.Seal(); err != nil {
			return err
		}
		if audio.Size() == 0 {
			return errEmptyAudio
		}
		return nil
	})
	if err != nil {
		return failed(rec.ID, StageSynthesize, err)
	}

	var ref string
	err = e.stage(ctx, StagePublish, func() error {
		r, err := audio.Open()
		if err != nil {
			return err
		}
		defer r.Close()
		ref, err = e.adapter.Publish(ctx, MediaFilename(job.Target.Source, rec.ID), r)
		return err
	})
	if err != nil {
		return failed(rec.ID, StagePublish, err)
	}

	// The payload lives in the store now; drop the local copy before the update.
	cleanupErr := audio.Release()

	err = e.stage(ctx, StageUpdate, func() error {
		return e.adapter.SetField(ctx, rec.ID, job.Target.Field, ref)
	})
	if err != nil {
		out = failed(rec.ID, StageUpdate, err)
		out.CleanupErr = cleanupErr
		return out
	}

	out = Outcome{RecordID: rec.ID, Kind: OutcomeSynthesized, Reference: ref, CleanupErr: cleanupErr}
	if job.Pace > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(job.Pace):
		}
	}
	return out
}

// stage times fn and records it against the stage metrics.
func (e *Engine) stage(ctx context.Context, stage Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	e.metrics.ObserveStage(ctx, string(stage), time.Since(start), err)
	return err
}

// report logs one outcome as soon as it is known and records it in metrics.
func (e *Engine) report(ctx context.Context, log *zap.Logger, i, total int, o Outcome) {
	e.metrics.RecordOutcome(context.WithoutCancel(ctx), string(o.Kind), o.Reason)

	fields := []zap.Field{
		zap.Int("index", i+1),
		zap.Int("total", total),
		zap.String("note_id", o.RecordID),
		zap.String("outcome", string(o.Kind)),
	}
	switch o.Kind {
	case OutcomeFailed:
		log.Error("Record failed", append(fields, zap.String("stage", string(o.Stage)), zap.Error(o.Err))...)
	case OutcomeSkipped:
		log.Debug("Record skipped", append(fields, zap.String("reason", o.Reason))...)
	default:
		log.Info("Record synthesized", append(fields, zap.String("reference", o.Reference))...)
	}
	if o.CleanupErr != nil {
		log.Warn("Temp audio release failed", zap.String("note_id", o.RecordID), zap.Error(o.CleanupErr))
	}
}

// finish stores outcomes in the summary and logs the totals.
func (e *Engine) finish(log *zap.Logger, summary *RunSummary, outcomes []Outcome) {
	summary.Outcomes = outcomes
	summary.tally()

	log.Info("Sync finished",
		zap.Int("processed", summary.Processed),
		zap.Int("synthesized", summary.Synthesized),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
}

func skipped(id, reason string) Outcome {
	return Outcome{RecordID: id, Kind: OutcomeSkipped, Reason: reason}
}

func failed(id string, stage Stage, err error) Outcome {
	if !errors.Is(err, ErrEmptyInput) {
		var rerr *ResourceError
		if !errors.As(err, &rerr) {
			err = &RemoteError{Stage: stage, RecordID: id, Err: err}
		}
	}
	return Outcome{RecordID: id, Kind: OutcomeFailed, Stage: stage, Err: err, Error: err.Error()}
}
