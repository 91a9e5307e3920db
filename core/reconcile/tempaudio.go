package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"ankivox/core/metrics"
)

// TempAudio is a staged audio payload owned by one record's processing.
// It is an io.Writer while the payload is being synthesized, then sealed and
// read back for publishing. Release removes the file; only the first call has
// any effect.
type TempAudio struct {
	store *tempStore
	path  string
	file  *os.File
	size  int64
}

// Write appends synthesized audio to the staged file.
func (t *TempAudio) Write(p []byte) (int, error) {
	n, err := t.file.Write(p)
	t.size += int64(n)
	return n, err
}

// Path returns the location of the staged file.
func (t *TempAudio) Path() string {
	return t.path
}

// Size returns the number of bytes written so far.
func (t *TempAudio) Size() int64 {
	return t.size
}

// Seal flushes and closes the writer side of the staged file.
func (t *TempAudio) Seal() error {
	if err := t.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return &ResourceError{Path: t.path, Err: err}
	}
	return nil
}

// Open returns a reader over the sealed payload.
func (t *TempAudio) Open() (io.ReadCloser, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, &ResourceError{Path: t.path, Err: err}
	}
	return f, nil
}

// Release closes and deletes the staged file. Calls after the first return nil.
func (t *TempAudio) Release() error {
	return t.store.release(t)
}

// tempStore tracks every TempAudio created during one run.
type tempStore struct {
	ctx         context.Context
	root        string
	createdRoot bool
	dir         string
	metrics     *metrics.Metrics

	mu   sync.Mutex
	live map[*TempAudio]struct{}
}

// newTempStore creates a per-run staging directory beneath root.
func newTempStore(ctx context.Context, root string, m *metrics.Metrics) (*tempStore, error) {
	if root == "" {
		root = os.TempDir()
	}
	_, statErr := os.Stat(root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &ResourceError{Path: root, Err: err}
	}
	dir, err := os.MkdirTemp(root, "run-")
	if err != nil {
		return nil, &ResourceError{Path: root, Err: err}
	}
	return &tempStore{
		ctx:         context.WithoutCancel(ctx),
		root:        root,
		createdRoot: errors.Is(statErr, os.ErrNotExist),
		dir:         dir,
		metrics:     m,
		live:        make(map[*TempAudio]struct{}),
	}, nil
}

// Create stages a new, empty audio file for the given record.
func (s *tempStore) Create(recordID string) (*TempAudio, error) {
	f, err := os.CreateTemp(s.dir, fmt.Sprintf("rec-%s-*.mp3", recordID))
	if err != nil {
		return nil, &ResourceError{Path: s.dir, Err: err}
	}
	t := &TempAudio{store: s, path: f.Name(), file: f}

	s.mu.Lock()
	s.live[t] = struct{}{}
	s.mu.Unlock()
	s.metrics.TempAudioAcquired(s.ctx)
	return t, nil
}

func (s *tempStore) release(t *TempAudio) error {
	s.mu.Lock()
	if _, ok := s.live[t]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.live, t)
	s.mu.Unlock()
	s.metrics.TempAudioReleased(s.ctx)

	_ = t.file.Close()
	if err := os.Remove(t.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &ResourceError{Path: t.path, Err: err}
	}
	return nil
}

// Live returns the number of unreleased handles.
func (s *tempStore) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Sweep releases any handle still held, removes the run directory, and removes
// the root too when this run created it and nothing else is left in it. It returns how many handles
// were still live and every error met on the way.
func (s *tempStore) Sweep() (leaked int, errs []error) {
	s.mu.Lock()
	remaining := make([]*TempAudio, 0, len(s.live))
	for t := range s.live {
		remaining = append(remaining, t)
	}
	s.mu.Unlock()

	for _, t := range remaining {
		if err := t.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := os.RemoveAll(s.dir); err != nil {
		errs = append(errs, &ResourceError{Path: s.dir, Err: err})
	}
	if s.createdRoot {
		// os.Remove refuses non-empty directories.
		_ = os.Remove(s.root)
	}
	return len(remaining), errs
}
