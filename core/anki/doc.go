// Package anki is a client for the AnkiConnect add-on.
//
// AnkiConnect exposes a running Anki desktop instance over a small JSON-over-HTTP
// protocol: every request is a POST of {"action", "version", "params"} and every
// response is {"result", "error"}. This package speaks protocol version 6.
//
// # Client Interface
//
// The Client interface covers the actions a sync run needs and can be mocked
// for unit tests (see core/anki/mocks):
//
//   - Version: checks that Anki is running and the add-on answers
//   - FindNotes: runs a browser search and returns note ids
//   - NotesInfo: loads fields for a batch of note ids
//   - StoreMediaFile: uploads a file into the collection's media folder
//   - UpdateNoteFields: replaces field values of a note
//
// # Usage
//
//	client, err := anki.NewClient(cfg.Anki)
//	ids, err := client.FindNotes(ctx, "deck:Spanish")
package anki
