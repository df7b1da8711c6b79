package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	JWTSecret   string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string `mapstructure:"jwt_audience" yaml:"jwt_audience"`

	UploadDir          string `mapstructure:"upload_dir" yaml:"upload_dir"`
	PublicBaseURL      string `mapstructure:"public_base_url" yaml:"public_base_url"`
	MaxAttachmentBytes int64  `mapstructure:"max_attachment_bytes" yaml:"max_attachment_bytes"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		DatabasePath:      "vellum.db",
		LogLevel:          "info",

		JWTSecret:   "change-me",
		JWTIssuer:   "vellum-server",
		JWTAudience: "vellum-client",

		UploadDir:          "uploads",
		PublicBaseURL:      "http://localhost:8080",
		MaxAttachmentBytes: 5 << 20, // 5 MiB, same cap the upload form enforces
	}
}
