package reconcile

import (
	"context"
	"io"
)

// Fetcher queries the card store for candidate records.
type Fetcher interface {
	// Find returns every record matching the store filter, in store order.
	// An empty result is not an error.
	Find(ctx context.Context, query string) ([]Record, error)
}

// Normalizer turns a raw field value into plain text suitable for synthesis.
type Normalizer interface {
	// Normalize is a pure transform; malformed markup passes through as text.
	Normalize(raw string) string
}

// Synthesizer converts text into audio.
type Synthesizer interface {
	// Synthesize writes the audio payload for text spoken by voice into w.
	Synthesize(ctx context.Context, text, voice string, w io.Writer) error
}

// Publisher uploads audio to the store's media area.
type Publisher interface {
	// Publish stores the payload under filename (a hint the store may adjust)
	// and returns the reference tag that renders it.
	Publish(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// Updater writes field values back to records.
type Updater interface {
	// SetField replaces the value of one field of the record identified by id.
	SetField(ctx context.Context, id, field, value string) error
}

// Adapter bundles every collaborator the engine drives.
// feature/notes provides the AnkiConnect + Azure implementation.
type Adapter interface {
	Fetcher
	Normalizer
	Synthesizer
	Publisher
	Updater
}
