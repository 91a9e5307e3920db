package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"ankivox/core/anki"
	"ankivox/core/logger"
	"ankivox/core/speech"
	"ankivox/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// defaultEnvFile is loaded when present and no other file is requested.
const defaultEnvFile = ".env"

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Anki holds configuration for the AnkiConnect endpoint.
	Anki anki.Config `mapstructure:"anki"`
	// Azure holds configuration for Azure Speech.
	Azure speech.Config `mapstructure:"azure"`
	// Sync holds defaults for sync runs.
	Sync SyncConfig `mapstructure:"sync"`
	// Storage holds configuration for the optional audio archive (e.g., S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
}

// SyncConfig holds defaults for sync runs that flags can override.
type SyncConfig struct {
	// TempDir is where audio is staged between synthesis and upload.
	TempDir string `mapstructure:"temp_dir" default:"temp_audios"`
	// Workers is the number of notes processed concurrently.
	Workers int `mapstructure:"workers" default:"1"`
	// PaceMS is the pause after each synthesized note, in milliseconds.
	PaceMS int `mapstructure:"pace_ms" default:"50"`
}

// LoadConfig loads configuration from environment variables and an env file.
// An explicitly named envFile must exist; otherwise ./.env is loaded if present.
func LoadConfig(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Overload(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else if _, err := os.Stat(defaultEnvFile); err == nil {
		if err := godotenv.Overload(defaultEnvFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", defaultEnvFile, err)
		}
	}

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. ANKI_CONNECT_URL -> anki.connect_url)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// DEFAULT_VOICE is accepted for existing .env files
	if err := v.BindEnv("azure.default_voice", "AZURE_DEFAULT_VOICE", "DEFAULT_VOICE"); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate reports settings every command needs.
func (c *Config) Validate() error {
	var errs []error
	if c.Azure.SpeechKey == "" {
		errs = append(errs, errors.New("AZURE_SPEECH_KEY is not set"))
	}
	if c.Azure.SpeechRegion == "" && c.Azure.Endpoint == "" {
		errs = append(errs, errors.New("AZURE_SPEECH_REGION is not set"))
	}
	if c.Anki.ConnectURL == "" {
		errs = append(errs, errors.New("ANKI_CONNECT_URL is empty"))
	}
	if c.Sync.Workers < 1 {
		errs = append(errs, fmt.Errorf("SYNC_WORKERS must be at least 1, got %d", c.Sync.Workers))
	}
	if c.Sync.PaceMS < 0 {
		errs = append(errs, fmt.Errorf("SYNC_PACE_MS must not be negative, got %d", c.Sync.PaceMS))
	}
	return errors.Join(errs...)
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
