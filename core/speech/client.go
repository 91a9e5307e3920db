package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

const (
	synthesizePath = "/cognitiveservices/v1"
	voicesPath     = "/cognitiveservices/voices/list"
	userAgent      = "ankivox"

	// maxErrorBody caps how much of an error response is kept for the message.
	maxErrorBody = 512
)

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("azure speech %s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("azure speech %s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Voice describes one entry of the voice catalogue.
type Voice struct {
	ShortName   string `json:"ShortName"`
	DisplayName string `json:"DisplayName"`
	LocalName   string `json:"LocalName"`
	Gender      string `json:"Gender"`
	Locale      string `json:"Locale"`
	VoiceType   string `json:"VoiceType"`
}

// Client defines the speech operations used by ankivox.
type Client interface {
	// Synthesize writes the audio for text spoken by voice into w.
	Synthesize(ctx context.Context, text, voice string, w io.Writer) error
	// ListVoices returns the catalogue sorted by short name. A non-empty locale
	// keeps voices whose locale equals it or starts with it followed by "-".
	ListVoices(ctx context.Context, locale string) ([]Voice, error)
}

// NewClient creates an Azure Speech client based on the configuration.
func NewClient(cfg Config) (Client, error) {
	if cfg.SpeechKey == "" {
		return nil, errors.New("azure speech: speech key must not be empty")
	}
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		if cfg.SpeechRegion == "" {
			return nil, errors.New("azure speech: region or endpoint must be set")
		}
		endpoint = fmt.Sprintf("https://%s.tts.speech.microsoft.com", cfg.SpeechRegion)
	}

	format := cfg.OutputFormat
	if format == "" {
		format = "audio-16khz-32kbitrate-mono-mp3"
	}
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}

	return &azureClient{
		endpoint: endpoint,
		key:      cfg.SpeechKey,
		format:   format,
		http:     &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}, nil
}

type azureClient struct {
	endpoint string
	key      string
	format   string
	http     *http.Client
}

func (c *azureClient) Synthesize(ctx context.Context, text, voice string, w io.Writer) error {
	body, err := BuildSSML(text, voice)
	if err != nil {
		return fmt.Errorf("azure speech synthesize: build ssml: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+synthesizePath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("azure speech synthesize: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", c.format)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("azure speech synthesize HTTP: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return statusError("synthesize", resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("azure speech synthesize: read audio: %w", err)
	}
	return nil
}

func (c *azureClient) ListVoices(ctx context.Context, locale string) ([]Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+voicesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("azure speech list voices: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("azure speech list voices HTTP: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("list voices", resp)
	}

	var voices []Voice
	if err := json.NewDecoder(resp.Body).Decode(&voices); err != nil {
		return nil, fmt.Errorf("azure speech list voices decode: %w", err)
	}
	return FilterVoices(voices, locale), nil
}

// FilterVoices keeps voices matching locale (see Client.ListVoices) and sorts
// them by short name.
func FilterVoices(voices []Voice, locale string) []Voice {
	locale = strings.ToLower(strings.TrimSpace(locale))
	out := make([]Voice, 0, len(voices))
	for _, v := range voices {
		l := strings.ToLower(v.Locale)
		if locale == "" || l == locale || strings.HasPrefix(l, locale+"-") {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ShortName < out[j].ShortName
	})
	return out
}

func statusError(op string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
}
