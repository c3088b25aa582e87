package storage

// Config holds the snapshot archive settings.
type Config struct {
	// Enabled turns the archive on. When false no client is created.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Endpoint is the S3 compatible endpoint, with or without scheme.
	Endpoint  string `mapstructure:"endpoint" default:"localhost:9000"`
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	UseSSL    bool   `mapstructure:"use_ssl" default:"false"`
	// Bucket receives the archived snapshots.
	Bucket string `mapstructure:"bucket" default:"worklog"`
	Region string `mapstructure:"region" default:""`
	// Prefix is prepended to every object name.
	Prefix string `mapstructure:"prefix" default:"snapshots"`
	// Keep is the number of archives retained by Prune. Zero keeps everything.
	Keep int `mapstructure:"keep" default:"30"`
	// TimeoutSeconds bounds connection setup and the first response byte.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
