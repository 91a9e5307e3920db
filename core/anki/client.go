package anki

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// protocolVersion is the AnkiConnect API version this client speaks.
const protocolVersion = 6

// ErrUnavailable is wrapped into errors caused by Anki not answering at all.
var ErrUnavailable = errors.New("unable to reach AnkiConnect; ensure Anki is running and the AnkiConnect add-on is installed")

// APIError is an error reported by AnkiConnect itself.
type APIError struct {
	Action  string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ankiconnect %s: %s", e.Action, e.Message)
}

// Field is a single note field as returned by notesInfo.
type Field struct {
	Value string `json:"value"`
	Order int    `json:"order"`
}

// NoteInfo is a note as returned by notesInfo.
type NoteInfo struct {
	NoteID    int64            `json:"noteId"`
	ModelName string           `json:"modelName"`
	Tags      []string         `json:"tags"`
	Fields    map[string]Field `json:"fields"`
}

// Client defines the AnkiConnect actions used by ankivox.
type Client interface {
	// Version returns the protocol version reported by the add-on.
	Version(ctx context.Context) (int, error)
	// FindNotes returns the ids of notes matching an Anki search query.
	FindNotes(ctx context.Context, query string) ([]int64, error)
	// NotesInfo returns the notes for the given ids, in the same order.
	NotesInfo(ctx context.Context, ids []int64) ([]NoteInfo, error)
	// StoreMediaFile uploads data as filename and returns the stored filename.
	StoreMediaFile(ctx context.Context, filename string, data []byte) (string, error)
	// UpdateNoteFields replaces the given fields of note id.
	UpdateNoteFields(ctx context.Context, id int64, fields map[string]string) error
}

// NewClient creates an AnkiConnect client based on the configuration.
func NewClient(cfg Config) (Client, error) {
	url := strings.TrimRight(strings.TrimSpace(cfg.ConnectURL), "/")
	if url == "" {
		return nil, errors.New("anki: connect url must not be empty")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}

	return &httpClient{
		url:    url,
		apiKey: cfg.APIKey,
		http:   &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}, nil
}

type httpClient struct {
	url    string
	apiKey string
	http   *http.Client
}

type request struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params,omitempty"`
	Key     string `json:"key,omitempty"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// invoke performs one AnkiConnect action and decodes its result into out (if non-nil).
func (c *httpClient) invoke(ctx context.Context, action string, params, out any) error {
	body, err := json.Marshal(request{Action: action, Version: protocolVersion, Params: params, Key: c.apiKey})
	if err != nil {
		return fmt.Errorf("anki: encode %s: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("anki: %s: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("anki: %s: %w", action, ctx.Err())
		}
		return fmt.Errorf("anki: %s: %w (%v)", action, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("anki: %s: unexpected status %d", action, resp.StatusCode)
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return fmt.Errorf("anki: %s: decode response: %w", action, err)
	}
	if r.Error != nil {
		return &APIError{Action: action, Message: *r.Error}
	}
	if out == nil || len(r.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Result, out); err != nil {
		return fmt.Errorf("anki: %s: decode result: %w", action, err)
	}
	return nil
}

func (c *httpClient) Version(ctx context.Context) (int, error) {
	var v int
	err := c.invoke(ctx, "version", nil, &v)
	return v, err
}

func (c *httpClient) FindNotes(ctx context.Context, query string) ([]int64, error) {
	var ids []int64
	if err := c.invoke(ctx, "findNotes", map[string]any{"query": query}, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *httpClient) NotesInfo(ctx context.Context, ids []int64) ([]NoteInfo, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var notes []NoteInfo
	if err := c.invoke(ctx, "notesInfo", map[string]any{"notes": ids}, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (c *httpClient) StoreMediaFile(ctx context.Context, filename string, data []byte) (string, error) {
	params := map[string]any{
		"filename": filename,
		"data":     base64.StdEncoding.EncodeToString(data),
	}
	var stored string
	if err := c.invoke(ctx, "storeMediaFile", params, &stored); err != nil {
		return "", err
	}
	if stored == "" {
		stored = filename
	}
	return stored, nil
}

func (c *httpClient) UpdateNoteFields(ctx context.Context, id int64, fields map[string]string) error {
	params := map[string]any{
		"note": map[string]any{
			"id":     id,
			"fields": fields,
		},
	}
	return c.invoke(ctx, "updateNoteFields", params, nil)
}
