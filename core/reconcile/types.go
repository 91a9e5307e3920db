package reconcile

import (
	"strconv"
	"strings"
	"time"
)

// Record is a transient snapshot of one note fetched from the card store.
type Record struct {
	// ID is the store-assigned identifier (an AnkiConnect note id in base 10).
	ID string

	// Fields maps field names to raw field values. Values may contain HTML.
	Fields map[string]string
}

// Field returns the raw value of the named field, or "" if the record has no such field.
func (r Record) Field(name string) string {
	return r.Fields[name]
}

// Target selects the field pair a run reconciles.
type Target struct {
	// Source is the field holding the text to speak.
	Source string `json:"source" yaml:"source"`

	// Field is the field that receives the media reference tag.
	Field string `json:"field" yaml:"field"`
}

// Job is the immutable configuration of a single run.
type Job struct {
	// Query is the store filter selecting candidate records (e.g. "deck:Default").
	Query string

	// Target names the source and target fields.
	Target Target

	// Voice selects the synthesis voice (e.g. "en-US-JennyNeural").
	Voice string

	// Overwrite replaces target values that are already filled.
	Overwrite bool

	// Limit bounds the number of records admitted past the skip check.
	// Nil means unlimited.
	Limit *int

	// TempDir is the root directory for staged audio. A per-run directory is
	// created beneath it and removed when the run ends.
	TempDir string

	// Workers is the number of records processed concurrently. Zero means 1.
	Workers int

	// Pace is the delay observed after each synthesized record.
	Pace time.Duration

	// DryRun plans the run without calling the speech service or mutating records.
	DryRun bool
}

// Validate reports the first problem that makes the job ambiguous or malformed.
func (j Job) Validate() error {
	switch {
	case strings.TrimSpace(j.Query) == "":
		return &ConfigError{Field: "query", Reason: "must not be empty"}
	case j.Target.Source == "":
		return &ConfigError{Field: "source", Reason: "must not be empty"}
	case j.Target.Field == "":
		return &ConfigError{Field: "target", Reason: "must not be empty"}
	case j.Target.Source == j.Target.Field && !j.Overwrite:
		return &ConfigError{Field: "target", Reason: "equals the source field; pass overwrite to replace the text with audio"}
	case j.Limit != nil && *j.Limit < 0:
		return &ConfigError{Field: "limit", Reason: "must be >= 0, got " + strconv.Itoa(*j.Limit)}
	case strings.TrimSpace(j.Voice) == "":
		return &ConfigError{Field: "voice", Reason: "must not be empty"}
	case j.Workers < 0:
		return &ConfigError{Field: "workers", Reason: "must not be negative"}
	case j.Pace < 0:
		return &ConfigError{Field: "pace", Reason: "must not be negative"}
	}
	return nil
}

func (j Job) workers() int {
	if j.Workers < 1 {
		return 1
	}
	return j.Workers
}

// IntPtr is a helper for building a Job with a limit.
func IntPtr(v int) *int {
	return &v
}

// OutcomeKind is the terminal state of a record within a run.
type OutcomeKind string

const (
	// OutcomeSkipped means the record was left untouched.
	OutcomeSkipped OutcomeKind = "skipped"
	// OutcomeSynthesized means audio was generated, published and linked.
	OutcomeSynthesized OutcomeKind = "synthesized"
	// OutcomeFailed means one stage of the pipeline failed for the record.
	OutcomeFailed OutcomeKind = "failed"
)

// Skip reasons.
const (
	ReasonHasAudio     = "has-audio"
	ReasonLimitReached = "limit-reached"
	ReasonDryRun       = "dry-run"
	ReasonCancelled    = "cancelled"
)

// Outcome is the per-record result of a run.
type Outcome struct {
	RecordID string      `json:"record_id" yaml:"record_id"`
	Kind     OutcomeKind `json:"kind" yaml:"kind"`

	// Reason is set for skipped records.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`

	// Stage and Err are set for failed records.
	Stage Stage  `json:"stage,omitempty" yaml:"stage,omitempty"`
	Err   error  `json:"-" yaml:"-"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// Reference is the tag written to the target field of a synthesized record.
	Reference string `json:"reference,omitempty" yaml:"reference,omitempty"`

	// CleanupErr is a ResourceError raised while releasing the record's staged audio.
	CleanupErr error `json:"-" yaml:"-"`
}

// Failure identifies a failed record, or a cleanup problem, in a RunSummary.
type Failure struct {
	RecordID string `json:"record_id" yaml:"record_id"`
	Stage    Stage  `json:"stage" yaml:"stage"`
	Err      error  `json:"-" yaml:"-"`
	Error    string `json:"error" yaml:"error"`
}

// RunSummary aggregates the outcomes of one run.
type RunSummary struct {
	RunID       string `json:"run_id" yaml:"run_id"`
	Processed   int    `json:"processed" yaml:"processed"`
	Skipped     int    `json:"skipped" yaml:"skipped"`
	Failed      int    `json:"failed" yaml:"failed"`
	Synthesized int    `json:"synthesized" yaml:"synthesized"`

	// Outcomes holds one entry per fetched record, in fetch order.
	Outcomes []Outcome `json:"outcomes" yaml:"outcomes"`

	// Failures lists every failed record with its cause.
	Failures []Failure `json:"failures" yaml:"failures"`

	// CleanupErrors lists staged audio that could not be removed.
	CleanupErrors []Failure `json:"cleanup_errors,omitempty" yaml:"cleanup_errors,omitempty"`

	// Leaked counts staged files still held when the final sweep ran.
	Leaked int `json:"leaked" yaml:"leaked"`
}

// tally recomputes the counters and failure list from Outcomes.
func (s *RunSummary) tally() {
	s.Processed = len(s.Outcomes)
	s.Skipped, s.Failed, s.Synthesized = 0, 0, 0
	s.Failures = s.Failures[:0]
	for _, o := range s.Outcomes {
		switch o.Kind {
		case OutcomeSkipped:
			s.Skipped++
		case OutcomeSynthesized:
			s.Synthesized++
		case OutcomeFailed:
			s.Failed++
			s.Failures = append(s.Failures, Failure{RecordID: o.RecordID, Stage: o.Stage, Err: o.Err, Error: o.Error})
		}
		if o.CleanupErr != nil {
			s.addCleanupError(o.RecordID, o.CleanupErr)
		}
	}
}

func (s *RunSummary) addCleanupError(recordID string, err error) {
	s.CleanupErrors = append(s.CleanupErrors, Failure{
		RecordID: recordID,
		Stage:    StageCleanup,
		Err:      err,
		Error:    err.Error(),
	})
}

// FailedIDs returns the identifiers of failed records in fetch order.
func (s *RunSummary) FailedIDs() []string {
	ids := make([]string, 0, len(s.Failures))
	for _, f := range s.Failures {
		ids = append(ids, f.RecordID)
	}
	return ids
}

// RetryQuery returns a store query selecting only the failed records, or ""
// when nothing failed.
func (s *RunSummary) RetryQuery() string {
	ids := s.FailedIDs()
	if len(ids) == 0 {
		return ""
	}
	return "nid:" + strings.Join(ids, ",")
}

// MediaFilename returns the media filename used for a record's audio.
// Characters outside [A-Za-z0-9_-] in the source field name become '_'.
func MediaFilename(source, recordID string) string {
	var b strings.Builder
	for _, r := range source {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return "azv_" + b.String() + "_" + recordID + ".mp3"
}
