package mocks

import (
	"context"

	"ankivox/core/anki"

	"github.com/stretchr/testify/mock"
)

// Client is a mock implementation of anki.Client
type Client struct {
	mock.Mock
}

func (m *Client) Version(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *Client) FindNotes(ctx context.Context, query string) ([]int64, error) {
	args := m.Called(ctx, query)
	if ids, ok := args.Get(0).([]int64); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) NotesInfo(ctx context.Context, ids []int64) ([]anki.NoteInfo, error) {
	args := m.Called(ctx, ids)
	if notes, ok := args.Get(0).([]anki.NoteInfo); ok {
		return notes, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) StoreMediaFile(ctx context.Context, filename string, data []byte) (string, error) {
	args := m.Called(ctx, filename, data)
	return args.String(0), args.Error(1)
}

func (m *Client) UpdateNoteFields(ctx context.Context, id int64, fields map[string]string) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}
