package speech

// Config holds configuration for Azure Cognitive Services Speech.
type Config struct {
	// SpeechKey is the subscription key of the Speech resource.
	SpeechKey string `mapstructure:"speech_key" default:""`
	// SpeechRegion is the Azure region of the Speech resource (e.g., westeurope).
	SpeechRegion string `mapstructure:"speech_region" default:""`
	// DefaultVoice is used when a sync does not name a voice.
	DefaultVoice string `mapstructure:"default_voice" default:"en-US-JennyNeural"`
	// Endpoint overrides https://<region>.tts.speech.microsoft.com.
	Endpoint string `mapstructure:"endpoint" default:""`
	// OutputFormat is the X-Microsoft-OutputFormat requested from the service.
	OutputFormat string `mapstructure:"output_format" default:"audio-16khz-32kbitrate-mono-mp3"`
	// TimeoutSeconds bounds each request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
