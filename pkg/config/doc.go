// Package config loads environment driven configuration structs.
//
// Structs declare their variables with caarlos0/env tags. Load parses a
// struct type once and caches it for the lifetime of the process, so
// packages can ask for their configuration wherever they need it without
// re-reading the environment. A .env file in the working directory is
// loaded on first use through godotenv; LoadEnv loads explicit files.
//
//	type Config struct {
//		Backend string `env:"RATELIMIT_BACKEND" envDefault:"memory"`
//		Prefix  string `env:"RATELIMIT_PREFIX" envDefault:"ratelimit:"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
//
// Parse skips the cache and is the right choice in tests that change the
// environment with t.Setenv.
package config
