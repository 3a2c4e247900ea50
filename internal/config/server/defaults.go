package server

import "github.com/spf13/viper"

func GetServerDefault() BaseServerConfig {
	return BaseServerConfig{
		Address:         ":8080",
		ShutdownTimeout: "10s",

		Log: LogServerConfig{
			Level:      "INFO",
			TimeFormat: "2006-01-02 15:04:05",
			File:       "",
			NoColor:    false,
			JSON:       false,
			NoTerminal: false,
			Rotation: LogServerRotationConfig{
				MaxSize:    128,
				MaxBackups: 5,
				MaxAge:     16,
				Compress:   false,
			},
		},

		Metadata: MetadataServerConfig{
			Type: "sqlite",
			SQLite: MetadataSQLiteConfig{
				Path: "./data/fdatracker.db",
			},
			Postgres: MetadataPostgresConfig{
				MaxOpenConns: 10,
			},
		},

		Auth: AuthServerConfig{
			Secret:    "",
			Issuer:    "fdatracker",
			AdminRole: "admin",
			TokenTTL:  "12h",
		},

		Source: SourceServerConfig{
			Path: "",
		},

		Validation: ValidationServerConfig{
			BaseURL:    "https://api.fda.gov",
			APIKey:     "",
			BatchSize:  5,
			BatchDelay: "1s",
			CacheSize:  1024,
			CacheTTL:   "6h",
			Timeout:    "15s",
		},
	}
}

func setDefaults() {
	defaults := GetServerDefault()

	viper.SetDefault("address", defaults.Address)
	viper.SetDefault("shutdown_timeout", defaults.ShutdownTimeout)

	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.time_format", defaults.Log.TimeFormat)
	viper.SetDefault("log.file", defaults.Log.File)
	viper.SetDefault("log.no_color", defaults.Log.NoColor)
	viper.SetDefault("log.json", defaults.Log.JSON)
	viper.SetDefault("log.no_terminal", defaults.Log.NoTerminal)
	viper.SetDefault("log.rotation.max_size", defaults.Log.Rotation.MaxSize)
	viper.SetDefault("log.rotation.max_backups", defaults.Log.Rotation.MaxBackups)
	viper.SetDefault("log.rotation.max_age", defaults.Log.Rotation.MaxAge)
	viper.SetDefault("log.rotation.compress", defaults.Log.Rotation.Compress)

	viper.SetDefault("metadata.type", defaults.Metadata.Type)
	viper.SetDefault("metadata.sqlite.path", defaults.Metadata.SQLite.Path)
	viper.SetDefault("metadata.postgres.dsn", defaults.Metadata.Postgres.DSN)
	viper.SetDefault("metadata.postgres.max_open_conns", defaults.Metadata.Postgres.MaxOpenConns)

	viper.SetDefault("auth.secret", defaults.Auth.Secret)
	viper.SetDefault("auth.issuer", defaults.Auth.Issuer)
	viper.SetDefault("auth.admin_role", defaults.Auth.AdminRole)
	viper.SetDefault("auth.token_ttl", defaults.Auth.TokenTTL)

	viper.SetDefault("source.path", defaults.Source.Path)

	viper.SetDefault("validation.base_url", defaults.Validation.BaseURL)
	viper.SetDefault("validation.api_key", defaults.Validation.APIKey)
	viper.SetDefault("validation.batch_size", defaults.Validation.BatchSize)
	viper.SetDefault("validation.batch_delay", defaults.Validation.BatchDelay)
	viper.SetDefault("validation.cache_size", defaults.Validation.CacheSize)
	viper.SetDefault("validation.cache_ttl", defaults.Validation.CacheTTL)
	viper.SetDefault("validation.timeout", defaults.Validation.Timeout)
}
