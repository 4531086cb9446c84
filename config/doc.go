// Package config loads and validates shadowkit configuration.
//
// Files are resolved in standard locations (cmd/<service>/config.yml,
// config/config.yml, ./config.yml) and read with Viper; a .env file is loaded
// with godotenv, then environment variables override file values
// (AUDIO_CHUNK_SIZE overrides audio.chunk_size).
//
//	var cfg AppConfig
//	if err := config.LoadConfig("shadowkit", &cfg); err != nil { ... }
//	if err := config.Validate(&cfg); err != nil { ... }
package config
