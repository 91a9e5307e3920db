package notes

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"ankivox/core/anki"
	"ankivox/core/reconcile"
	"ankivox/core/speech"
	"ankivox/core/storage"

	"go.uber.org/zap"
)

// infoBatchSize bounds the number of ids sent in one notesInfo call.
const infoBatchSize = 500

// Archive is an optional bucket every published clip is copied into.
type Archive struct {
	Client storage.Client
	Bucket string
	Prefix string
}

// Adapter implements reconcile.Adapter for Anki notes voiced by Azure Speech.
type Adapter struct {
	anki    anki.Client
	speech  speech.Client
	archive *Archive
	logger  *zap.Logger
}

var _ reconcile.Adapter = (*Adapter)(nil)

// NewAdapter creates a new notes adapter. archive may be nil.
func NewAdapter(ankiClient anki.Client, speechClient speech.Client, archive *Archive, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		anki:    ankiClient,
		speech:  speechClient,
		archive: archive,
		logger:  logger,
	}
}

// Find returns the notes matching query in the order Anki reports them.
func (a *Adapter) Find(ctx context.Context, query string) ([]reconcile.Record, error) {
	ids, err := a.anki.FindNotes(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find notes: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	records := make([]reconcile.Record, 0, len(ids))
	for start := 0; start < len(ids); start += infoBatchSize {
		end := min(start+infoBatchSize, len(ids))

		infos, err := a.anki.NotesInfo(ctx, ids[start:end])
		if err != nil {
			return nil, fmt.Errorf("notes info: %w", err)
		}
		for _, info := range infos {
			// notesInfo answers with an empty object for ids deleted meanwhile
			if info.NoteID == 0 {
				continue
			}
			records = append(records, toRecord(info))
		}
	}

	a.logger.Debug("Fetched notes", zap.String("query", query), zap.Int("count", len(records)))
	return records, nil
}

// Normalize turns a raw field value into speakable text.
func (a *Adapter) Normalize(raw string) string {
	return Normalize(raw)
}

// Synthesize streams the audio for text into w.
func (a *Adapter) Synthesize(ctx context.Context, text, voice string, w io.Writer) error {
	return a.speech.Synthesize(ctx, text, voice, w)
}

// Publish stores the clip in the collection's media folder and returns its
// sound tag.
func (a *Adapter) Publish(ctx context.Context, filename string, audio io.Reader) (string, error) {
	data, err := io.ReadAll(audio)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}

	stored, err := a.anki.StoreMediaFile(ctx, filename, data)
	if err != nil {
		return "", fmt.Errorf("store media file: %w", err)
	}
	if stored == "" {
		stored = filename
	}

	if a.archive != nil {
		if err := storage.Archive(ctx, a.archive.Client, a.archive.Bucket, a.archive.Prefix, stored, data); err != nil {
			a.logger.Warn("Failed to archive audio",
				zap.String("file", stored),
				zap.String("bucket", a.archive.Bucket),
				zap.Error(err))
		}
	}

	return SoundTag(stored), nil
}

// SetField writes value into field of the note identified by id.
func (a *Adapter) SetField(ctx context.Context, id, field, value string) error {
	noteID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid note id %q: %w", id, err)
	}
	if err := a.anki.UpdateNoteFields(ctx, noteID, map[string]string{field: value}); err != nil {
		return fmt.Errorf("update note fields: %w", err)
	}
	return nil
}

// SoundTag returns the Anki sound reference for filename.
func SoundTag(filename string) string {
	return "[sound:" + filename + "]"
}

func toRecord(info anki.NoteInfo) reconcile.Record {
	fields := make(map[string]string, len(info.Fields))
	for name, f := range info.Fields {
		fields[name] = f.Value
	}
	return reconcile.Record{
		ID:     strconv.FormatInt(info.NoteID, 10),
		Fields: fields,
	}
}
