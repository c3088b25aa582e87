package config

import (
	"reflect"
	"strings"

	"worklog/core/database"
	"worklog/core/logger"
	"worklog/core/remote"
	"worklog/core/server"
	"worklog/core/settings"
	"worklog/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the local store.
	Database database.Config `mapstructure:"database"`
	// Remote holds the remote table connection and seed credentials.
	Remote RemoteConfig `mapstructure:"remote"`
	// Sync holds scheduler settings.
	Sync SyncConfig `mapstructure:"sync"`
	// Storage holds the snapshot archive configuration.
	Storage storage.Config `mapstructure:"storage"`
}

// RemoteConfig extends the connection settings with credentials. The
// credentials only seed the persisted settings on first run.
type RemoteConfig struct {
	remote.Config `mapstructure:",squash"`

	AppID     string `mapstructure:"app_id" default:""`
	AppSecret string `mapstructure:"app_secret" default:""`
	AppToken  string `mapstructure:"app_token" default:""`
	TableID   string `mapstructure:"table_id" default:""`
}

// SyncConfig holds scheduler settings.
type SyncConfig struct {
	// IntervalHours seeds the persisted periodic interval.
	IntervalHours int `mapstructure:"interval_hours" default:"24"`
	// Periodic enables the periodic trigger in the server.
	Periodic bool `mapstructure:"periodic" default:"true"`
}

// SeedSettings returns the settings used when none are persisted yet.
func (c *Config) SeedSettings() settings.Settings {
	return settings.Settings{
		AppID:             c.Remote.AppID,
		AppSecret:         c.Remote.AppSecret,
		AppToken:          c.Remote.AppToken,
		TableID:           c.Remote.TableID,
		SyncIntervalHours: c.Sync.IntervalHours,
	}
}

// LoadConfig loads configuration from environment variables and a .env file in path.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Missing .env is fine in production.
	_ = godotenv.Overload(envPath)

	v := viper.New()

	bindValues(v, Config{}, "")

	// REMOTE_APP_ID -> remote.app_id
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues walks the struct and registers every mapstructure key with its
// 'default' tag so AutomaticEnv can resolve it. Squashed embedded structs
// share their parent's prefix.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag == "" {
			continue
		}

		name, opts, _ := strings.Cut(tag, ",")
		if field.Type.Kind() == reflect.Struct && strings.Contains(opts, "squash") {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), prefix)
			continue
		}

		key := name
		if prefix != "" {
			key = prefix + "." + name
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set, even if empty, to register the key for AutomaticEnv.
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
