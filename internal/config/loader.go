package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/rpattn/crmimport/internal/db"
)

// Config holds the full application configuration.
type Config struct {
	Database       db.Config
	ListenAddr     string
	UploadDir      string
	AllowedOrigins []string
	Retention      time.Duration
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Database:       db.DefaultConfig(),
		ListenAddr:     ":8080",
		UploadDir:      "./uploads",
		AllowedOrigins: []string{"http://localhost:3000"},
		Retention:      30 * 24 * time.Hour,
	}
}

// Load reads config.yaml from configPath with environment overrides.
func Load(configPath string) (Config, error) {
	// Start with defaults
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()         // allow environment overrides
	v.SetEnvPrefix("IMPORT") // map env vars like IMPORT_DATABASE.HOST

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("server.addr")
	v.BindEnv("server.allowed_origins")
	v.BindEnv("import.upload_dir")
	v.BindEnv("import.retention_days")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Just log it, use defaults + env
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	// Override defaults if values exist
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("server.addr") {
		cfg.ListenAddr = v.GetString("server.addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("import.upload_dir") {
		cfg.UploadDir = v.GetString("import.upload_dir")
	}
	if v.IsSet("import.retention_days") {
		cfg.Retention = time.Duration(v.GetInt("import.retention_days")) * 24 * time.Hour
	}

	return cfg, nil
}
