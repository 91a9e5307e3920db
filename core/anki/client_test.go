package anki_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ankivox/core/anki"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ankiRequest struct {
	Action  string          `json:"action"`
	Version int             `json:"version"`
	Params  json.RawMessage `json:"params"`
	Key     string          `json:"key"`
}

// fakeAnki answers AnkiConnect actions through handler and records every request.
func fakeAnki(t *testing.T, handler func(req ankiRequest) (any, string)) (*httptest.Server, *[]ankiRequest) {
	t.Helper()
	var seen []ankiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req ankiRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		seen = append(seen, req)

		result, errMsg := handler(req)
		resp := map[string]any{"result": result, "error": nil}
		if errMsg != "" {
			resp["error"] = errMsg
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func newClient(t *testing.T, url, key string) anki.Client {
	t.Helper()
	c, err := anki.NewClient(anki.Config{ConnectURL: url, APIKey: key, TimeoutSeconds: 5})
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	t.Run("EmptyURL", func(t *testing.T) {
		c, err := anki.NewClient(anki.Config{ConnectURL: " "})
		assert.Error(t, err)
		assert.Nil(t, c)
	})

	t.Run("SchemeAdded", func(t *testing.T) {
		c, err := anki.NewClient(anki.Config{ConnectURL: "127.0.0.1:8765"})
		assert.NoError(t, err)
		assert.NotNil(t, c)
	})
}

func TestClient_FindNotesAndNotesInfo(t *testing.T) {
	srv, seen := fakeAnki(t, func(req ankiRequest) (any, string) {
		switch req.Action {
		case "findNotes":
			return []int64{1700000000001, 1700000000002}, ""
		case "notesInfo":
			return []map[string]any{
				{
					"noteId":    1700000000001,
					"modelName": "Basic",
					"tags":      []string{"es"},
					"fields": map[string]any{
						"Front": map[string]any{"value": "<b>hola</b>", "order": 0},
						"Audio": map[string]any{"value": "", "order": 1},
					},
				},
			}, ""
		}
		return nil, "unsupported action"
	})
	c := newClient(t, srv.URL, "")
	ctx := context.Background()

	ids, err := c.FindNotes(ctx, "deck:Spanish")
	require.NoError(t, err)
	assert.Equal(t, []int64{1700000000001, 1700000000002}, ids)

	notes, err := c.NotesInfo(ctx, ids[:1])
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, int64(1700000000001), notes[0].NoteID)
	assert.Equal(t, "<b>hola</b>", notes[0].Fields["Front"].Value)
	assert.Equal(t, 1, notes[0].Fields["Audio"].Order)

	require.Len(t, *seen, 2)
	first := (*seen)[0]
	assert.Equal(t, 6, first.Version)
	assert.JSONEq(t, `{"query":"deck:Spanish"}`, string(first.Params))
	assert.Empty(t, first.Key)
}

func TestClient_NotesInfoEmptySkipsRequest(t *testing.T) {
	srv, seen := fakeAnki(t, func(req ankiRequest) (any, string) { return nil, "" })
	notes, err := newClient(t, srv.URL, "").NotesInfo(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, notes)
	assert.Empty(t, *seen)
}

func TestClient_StoreMediaFile(t *testing.T) {
	srv, seen := fakeAnki(t, func(req ankiRequest) (any, string) {
		return "azv_Front_1.mp3", ""
	})
	c := newClient(t, srv.URL, "secret")

	stored, err := c.StoreMediaFile(context.Background(), "azv_Front_1.mp3", []byte("ID3audio"))
	require.NoError(t, err)
	assert.Equal(t, "azv_Front_1.mp3", stored)

	req := (*seen)[0]
	assert.Equal(t, "storeMediaFile", req.Action)
	assert.Equal(t, "secret", req.Key)

	var params struct {
		Filename string `json:"filename"`
		Data     string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(req.Params, &params))
	decoded, err := base64.StdEncoding.DecodeString(params.Data)
	require.NoError(t, err)
	assert.Equal(t, "ID3audio", string(decoded))
}

func TestClient_UpdateNoteFields(t *testing.T) {
	srv, seen := fakeAnki(t, func(req ankiRequest) (any, string) { return nil, "" })
	err := newClient(t, srv.URL, "").UpdateNoteFields(context.Background(), 42, map[string]string{"Audio": "[sound:a.mp3]"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"note":{"id":42,"fields":{"Audio":"[sound:a.mp3]"}}}`, string((*seen)[0].Params))
}

func TestClient_APIError(t *testing.T) {
	srv, _ := fakeAnki(t, func(req ankiRequest) (any, string) {
		return nil, "cannot create note because it is empty"
	})
	err := newClient(t, srv.URL, "").UpdateNoteFields(context.Background(), 1, map[string]string{"Audio": "x"})

	var apiErr *anki.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "updateNoteFields", apiErr.Action)
	assert.Contains(t, apiErr.Error(), "cannot create note")
}

func TestClient_Version(t *testing.T) {
	srv, _ := fakeAnki(t, func(req ankiRequest) (any, string) { return 6, "" })
	v, err := newClient(t, srv.URL, "").Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, v)
}

func TestClient_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newClient(t, url, "").Version(context.Background())
	assert.True(t, errors.Is(err, anki.ErrUnavailable))
}

func TestClient_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL, "").FindNotes(context.Background(), "deck:x")
	assert.ErrorContains(t, err, "unexpected status 403")
}
