package mocks

import (
	"context"
	"io"

	"ankivox/core/speech"

	"github.com/stretchr/testify/mock"
)

// Client is a mock implementation of speech.Client.
// Synthesize writes the payload passed as the first return argument (a
// []byte or string) into w before returning the error.
type Client struct {
	mock.Mock
}

func (m *Client) Synthesize(ctx context.Context, text, voice string, w io.Writer) error {
	args := m.Called(ctx, text, voice, w)
	switch payload := args.Get(0).(type) {
	case []byte:
		if _, err := w.Write(payload); err != nil {
			return err
		}
	case string:
		if _, err := io.WriteString(w, payload); err != nil {
			return err
		}
	}
	return args.Error(1)
}

func (m *Client) ListVoices(ctx context.Context, locale string) ([]speech.Voice, error) {
	args := m.Called(ctx, locale)
	if voices, ok := args.Get(0).([]speech.Voice); ok {
		return voices, args.Error(1)
	}
	return nil, args.Error(1)
}
