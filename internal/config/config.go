package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	ServerAddress string   `json:"serverAddress"`
	DatabasePath  string   `json:"databasePath"`
	DatabaseURL   string   `json:"databaseUrl"`
	Storage       Storage  `json:"storage"`
	Security      Security `json:"security"`
}

// Storage configuration: the filesystem root the photo tree lives under and
// the knobs of the upload pipeline.
type Storage struct {
	RootPath      string `json:"rootPath"`
	ThumbSize     int    `json:"thumbSize"`
	MaxFileSizeMB int64  `json:"maxFileSizeMB"`
	MaxNameProbes int    `json:"maxNameProbes"`
}

// Security configuration
type Security struct {
	APIKey       string `json:"apiKey"`
	APIKeyHeader string `json:"apiKeyHeader"`
}

// UsePostgres returns true if PostgreSQL should be used
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// Default configuration
func defaultConfig() *Config {
	return &Config{
		ServerAddress: ":8080",
		DatabasePath:  "photoalbum.db",
		Storage: Storage{
			RootPath:      "./data",
			ThumbSize:     150,
			MaxFileSizeMB: 50,
			MaxNameProbes: 1000,
		},
		Security: Security{
			APIKey:       "CHANGE_THIS_TO_A_SECURE_API_KEY_AT_LEAST_32_CHARS",
			APIKeyHeader: "X-API-Key",
		},
	}
}

// Load loads configuration from file or environment
func Load() (*Config, error) {
	cfg := defaultConfig()

	// Try to load from config file
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// Override from environment variables
	if addr := os.Getenv("SERVER_ADDRESS"); addr != "" {
		cfg.ServerAddress = addr
	}
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if rootPath := os.Getenv("STORAGE_ROOT"); rootPath != "" {
		cfg.Storage.RootPath = rootPath
	}
	if thumbSize := os.Getenv("THUMB_SIZE"); thumbSize != "" {
		if px, err := strconv.Atoi(thumbSize); err == nil && px > 0 {
			cfg.Storage.ThumbSize = px
		}
	}
	if apiKey := os.Getenv("API_KEY"); apiKey != "" {
		cfg.Security.APIKey = apiKey
	}

	// Ensure the storage root exists
	if err := os.MkdirAll(cfg.Storage.RootPath, 0755); err != nil {
		return nil, err
	}

	// Make root path absolute
	absPath, err := filepath.Abs(cfg.Storage.RootPath)
	if err != nil {
		return nil, err
	}
	cfg.Storage.RootPath = absPath

	return cfg, nil
}
