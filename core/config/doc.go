// Package config provides configuration management for ankivox.
//
// Settings come from environment variables, optionally preloaded from an env
// file with godotenv, and are mapped onto nested structs by Viper. Every leaf
// field declares its key with a mapstructure tag and its fallback with a
// default tag; the environment name is the dotted key upper-cased with dots
// replaced by underscores (anki.connect_url -> ANKI_CONNECT_URL).
//
// # Configuration Structure
//
//   - Anki: AnkiConnect URL, API key and timeout
//   - Azure: Speech key, region, default voice, endpoint override, output format
//   - Sync: staging directory, worker count and pacing
//   - Storage: S3/MinIO archive of published clips
//   - Log: level, format and optional rotating file
//
// # Usage
//
//	cfg, err := config.LoadConfig("")
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config
