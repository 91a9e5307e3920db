package anki

// Config holds configuration for the AnkiConnect add-on endpoint.
type Config struct {
	// ConnectURL is the AnkiConnect HTTP endpoint.
	ConnectURL string `mapstructure:"connect_url" default:"http://127.0.0.1:8765"`
	// APIKey is sent as "key" when AnkiConnect is configured to require one.
	APIKey string `mapstructure:"api_key" default:""`
	// TimeoutSeconds bounds each request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
