// Package notes connects the reconciliation engine to Anki and Azure Speech.
//
// Adapter fetches notes through AnkiConnect, turns field HTML into plain text,
// synthesizes it with Azure, uploads the clip to the collection's media folder
// and writes the resulting [sound:...] tag back into the target field.
// Published clips can additionally be archived in object storage.
package notes
