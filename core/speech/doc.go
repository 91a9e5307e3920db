// Package speech is a client for the Azure Cognitive Services text-to-speech REST API.
//
// Synthesis posts an SSML document to /cognitiveservices/v1 and streams the
// encoded audio (MP3 by default) into the caller's writer. The voice catalogue
// is read from /cognitiveservices/voices/list.
//
// # Usage
//
//	client, err := speech.NewClient(cfg.Azure)
//	err = client.Synthesize(ctx, "hola", "es-ES-ElviraNeural", file)
//	voices, err := client.ListVoices(ctx, "es")
package speech
