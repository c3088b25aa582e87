// Package config loads the application configuration from the environment.
//
// Values come from a .env file (loaded with godotenv) and the process
// environment through viper. Every key is registered from the `mapstructure`
// and `default` struct tags, so SERVER_PORT maps to server.port and
// REMOTE_APP_ID to remote.app_id.
//
// The remote credentials and sync interval only seed the persisted settings;
// once saved, core/settings is authoritative.
package config
