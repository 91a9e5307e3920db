package reconcile

import (
	"errors"
	"fmt"
)

// Stage names a step of the per-record pipeline.
type Stage string

const (
	StageFetch      Stage = "fetch"
	StageNormalize  Stage = "normalize"
	StageSynthesize Stage = "synthesize"
	StagePublish    Stage = "publish"
	StageUpdate     Stage = "update"
	StageCleanup    Stage = "cleanup"
)

// ErrEmptyInput is recorded when a record's source text normalizes to nothing.
var ErrEmptyInput = errors.New("normalized source text is empty")

// ConfigError reports a malformed Job. Run returns it before any record is touched.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid job: %s %s", e.Field, e.Reason)
}

// RemoteError wraps a failed call to the card store or the speech service.
type RemoteError struct {
	Stage    Stage
	RecordID string
	Err      error
}

func (e *RemoteError) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s record %s: %v", e.Stage, e.RecordID, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// ResourceError reports a staged audio file or directory that could not be created or removed.
type ResourceError struct {
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("temp audio %s: %v", e.Path, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}
