package notes_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ankivox/core/anki"
	ankimocks "ankivox/core/anki/mocks"
	"ankivox/core/metrics"
	"ankivox/core/reconcile"
	speechmocks "ankivox/core/speech/mocks"
	storagemocks "ankivox/core/storage/mocks"
	"ankivox/feature/notes"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

func note(id int64, fields map[string]string) anki.NoteInfo {
	info := anki.NoteInfo{NoteID: id, ModelName: "Basic", Fields: map[string]anki.Field{}}
	order := 0
	for name, value := range fields {
		info.Fields[name] = anki.Field{Value: value, Order: order}
		order++
	}
	return info
}

func TestAdapter_Find(t *testing.T) {
	ctx := context.Background()

	t.Run("MapsNotesToRecords", func(t *testing.T) {
		ac := new(ankimocks.Client)
		ac.On("FindNotes", mock.Anything, "deck:French").Return([]int64{11, 12}, nil)
		ac.On("NotesInfo", mock.Anything, []int64{11, 12}).Return([]anki.NoteInfo{
			note(11, map[string]string{"Front": "chat", "Audio": ""}),
			note(12, map[string]string{"Front": "chien", "Audio": "[sound:x.mp3]"}),
		}, nil)

		a := notes.NewAdapter(ac, nil, nil, zap.NewNop())
		records, err := a.Find(ctx, "deck:French")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "11", records[0].ID)
		assert.Equal(t, "chat", records[0].Field("Front"))
		assert.Equal(t, "[sound:x.mp3]", records[1].Field("Audio"))
		ac.AssertExpectations(t)
	})

	t.Run("NoMatches", func(t *testing.T) {
		ac := new(ankimocks.Client)
		ac.On("FindNotes", mock.Anything, "deck:Empty").Return([]int64{}, nil)

		a := notes.NewAdapter(ac, nil, nil, nil)
		records, err := a.Find(ctx, "deck:Empty")
		require.NoError(t, err)
		assert.Empty(t, records)
		ac.AssertNotCalled(t, "NotesInfo", mock.Anything, mock.Anything)
	})

	t.Run("BatchesNotesInfo", func(t *testing.T) {
		ids := make([]int64, 501)
		for i := range ids {
			ids[i] = int64(i + 1)
		}
		ac := new(ankimocks.Client)
		ac.On("FindNotes", mock.Anything, "deck:Big").Return(ids, nil)
		ac.On("NotesInfo", mock.Anything, mock.MatchedBy(func(batch []int64) bool { return len(batch) == 500 })).
			Return([]anki.NoteInfo{note(1, map[string]string{"Front": "a"})}, nil).Once()
		ac.On("NotesInfo", mock.Anything, []int64{501}).
			Return([]anki.NoteInfo{note(501, map[string]string{"Front": "b"})}, nil).Once()

		a := notes.NewAdapter(ac, nil, nil, nil)
		records, err := a.Find(ctx, "deck:Big")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "501", records[1].ID)
		ac.AssertExpectations(t)
	})

	t.Run("SkipsVanishedNotes", func(t *testing.T) {
		ac := new(ankimocks.Client)
		ac.On("FindNotes", mock.Anything, "q").Return([]int64{1, 2}, nil)
		ac.On("NotesInfo", mock.Anything, []int64{1, 2}).Return([]anki.NoteInfo{
			{},
			note(2, map[string]string{"Front": "b"}),
		}, nil)

		a := notes.NewAdapter(ac, nil, nil, nil)
		records, err := a.Find(ctx, "q")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "2", records[0].ID)
	})

	t.Run("FindFails", func(t *testing.T) {
		ac := new(ankimocks.Client)
		ac.On("FindNotes", mock.Anything, "q").Return(nil, anki.ErrUnavailable)

		a := notes.NewAdapter(ac, nil, nil, nil)
		_, err := a.Find(ctx, "q")
		assert.ErrorIs(t, err, anki.ErrUnavailable)
	})
}

func TestAdapter_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("ReturnsSoundTag", func(t *testing.T) {
		ac := new(ankimocks.Client)
		ac.On("StoreMediaFile", mock.Anything, "azv_Front_1.mp3", []byte("ID3")).Return("azv_Front_1.mp3", nil)

		a := notes.NewAdapter(ac, nil, nil, nil)
		ref, err := a.Publish(ctx, "azv_Front_1.mp3", strings.NewReader("ID3"))
		require.NoError(t, err)
		assert.Equal(t, "[sound:azv_Front_1.mp3]", ref)
	})

	t.Run("UsesStoredName", func(t *testing.T) {
		ac := new(ankimocks.Client)
		ac.On("StoreMediaFile", mock.Anything, "azv_Front_1.mp3", mock.Anything).Return("azv_Front_1-2.mp3", nil)

		a := notes.NewAdapter(ac, nil, nil, nil)
		ref, err := a.Publish(ctx, "azv_Front_1.mp3", strings.NewReader("ID3"))
		require.NoError(t, err)
		assert.Equal(t, "[sound:azv_Front_1-2.mp3]", ref)
	})

	t.Run("StoreFails", func(t *testing.T) {
		ac := new(ankimocks.Client)
		ac.On("StoreMediaFile", mock.Anything, mock.Anything, mock.Anything).
			Return("", &anki.APIError{Action: "storeMediaFile", Message: "disk full"})

		a := notes.NewAdapter(ac, nil, nil, nil)
		_, err := a.Publish(ctx, "azv_Front_1.mp3", strings.NewReader("ID3"))
		var apiErr *anki.APIError
		assert.ErrorAs(t, err, &apiErr)
	})

	t.Run("Archives", func(t *testing.T) {
		ac := new(ankimocks.Client)
		ac.On("StoreMediaFile", mock.Anything, mock.Anything, mock.Anything).Return("azv_Front_1.mp3", nil)
		sc := new(storagemocks.Client)
		sc.On("PutObject", mock.Anything, "clips", "audio/azv_Front_1.mp3", mock.Anything, int64(3), mock.Anything).
			Return(minio.UploadInfo{}, nil)

		a := notes.NewAdapter(ac, nil, &notes.Archive{Client: sc, Bucket: "clips", Prefix: "audio/"}, nil)
		_, err := a.Publish(ctx, "azv_Front_1.mp3", strings.NewReader("ID3"))
		require.NoError(t, err)
		sc.AssertExpectations(t)
	})

	t.Run("ArchiveFailureIsNotFatal", func(t *testing.T) {
		ac := new(ankimocks.Client)
		ac.On("StoreMediaFile", mock.Anything, mock.Anything, mock.Anything).Return("azv_Front_1.mp3", nil)
		sc := new(storagemocks.Client)
		sc.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(minio.UploadInfo{}, errors.New("bucket gone"))

		a := notes.NewAdapter(ac, nil, &notes.Archive{Client: sc, Bucket: "clips", Prefix: "audio/"}, nil)
		ref, err := a.Publish(ctx, "azv_Front_1.mp3", strings.NewReader("ID3"))
		require.NoError(t, err)
		assert.Equal(t, "[sound:azv_Front_1.mp3]", ref)
	})
}

func TestAdapter_SetField(t *testing.T) {
	ctx := context.Background()

	t.Run("Updates", func(t *testing.T) {
		ac := new(ankimocks.Client)
		ac.On("UpdateNoteFields", mock.Anything, int64(42), map[string]string{"Audio": "[sound:a.mp3]"}).Return(nil)

		a := notes.NewAdapter(ac, nil, nil, nil)
		require.NoError(t, a.SetField(ctx, "42", "Audio", "[sound:a.mp3]"))
		ac.AssertExpectations(t)
	})

	t.Run("InvalidID", func(t *testing.T) {
		a := notes.NewAdapter(new(ankimocks.Client), nil, nil, nil)
		assert.Error(t, a.SetField(ctx, "abc", "Audio", "x"))
	})
}

func TestAdapter_SyncRun(t *testing.T) {
	ctx := context.Background()

	ac := new(ankimocks.Client)
	ac.On("FindNotes", mock.Anything, "deck:French").Return([]int64{1, 2, 3}, nil)
	ac.On("NotesInfo", mock.Anything, []int64{1, 2, 3}).Return([]anki.NoteInfo{
		note(1, map[string]string{"Front": "<b>chat</b>", "Audio": ""}),
		note(2, map[string]string{"Front": "chien", "Audio": "[sound:old.mp3]"}),
		note(3, map[string]string{"Front": "[sound:only.mp3]", "Audio": ""}),
	}, nil)
	ac.On("StoreMediaFile", mock.Anything, "azv_Front_1.mp3", []byte("ID3-chat")).Return("azv_Front_1.mp3", nil)
	ac.On("UpdateNoteFields", mock.Anything, int64(1), map[string]string{"Audio": "[sound:azv_Front_1.mp3]"}).Return(nil)

	sp := new(speechmocks.Client)
	sp.On("Synthesize", mock.Anything, "chat", "fr-FR-DeniseNeural", mock.Anything).Return("ID3-chat", nil)

	engine := reconcile.NewEngine(notes.NewAdapter(ac, sp, nil, nil), zap.NewNop(),
		reconcile.WithMetrics(mustMetrics(t)))

	summary, err := engine.Run(ctx, reconcile.Job{
		Query:   "deck:French",
		Target:  reconcile.Target{Source: "Front", Field: "Audio"},
		Voice:   "fr-FR-DeniseNeural",
		TempDir: t.TempDir(),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 1, summary.Synthesized)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []string{"3"}, summary.FailedIDs())
	assert.ErrorIs(t, summary.Failures[0].Err, reconcile.ErrEmptyInput)
	assert.Zero(t, summary.Leaked)
	ac.AssertExpectations(t)
	sp.AssertExpectations(t)
}

func mustMetrics(t *testing.T) *metrics.Metrics {
	t.Helper()
	m, err := metrics.NewMetrics(noop.NewMeterProvider())
	require.NoError(t, err)
	return m
}
