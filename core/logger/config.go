package logger

// Config holds configuration for the logger.
type Config struct {
	// Level is the minimum enabled level: debug, info, warn or error.
	Level string `mapstructure:"level" default:"info"`
	// Format is the encoding of the console output: console or json.
	Format string `mapstructure:"format" default:"console"`
	// File, when set, receives a JSON copy of every entry.
	File string `mapstructure:"file" default:""`
	// MaxSizeMB is the size at which File is rotated.
	MaxSizeMB int `mapstructure:"max_size_mb" default:"10"`
	// MaxBackups is the number of rotated files kept.
	MaxBackups int `mapstructure:"max_backups" default:"3"`
}
