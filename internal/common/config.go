package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Paths      PathsConfig      `yaml:"paths"`
	Processing ProcessingConfig `yaml:"processing"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Server     ServerConfig     `yaml:"server"`
	LogLevel   string           `yaml:"log_level"`
}

// PathsConfig holds every directory and file the application touches.
type PathsConfig struct {
	PendingDir   string `yaml:"pending_dir"`
	ProcessedDir string `yaml:"processed_dir"`
	ImagesDir    string `yaml:"images_dir"`
	TextDir      string `yaml:"text_dir"`
	CatalogFile  string `yaml:"catalog_file"`
	DatabaseFile string `yaml:"database_file"`
}

// ProcessingConfig holds the batch-run toggles.
type ProcessingConfig struct {
	ExtractImages       bool   `yaml:"extract_images"`
	ExtractText         bool   `yaml:"extract_text"`
	MoveAfterProcessing bool   `yaml:"move_after_processing"`
	SkipProcessedFiles  bool   `yaml:"skip_processed_files"`
	HexIDLength         int    `yaml:"hex_id_length"`
	Schedule            string `yaml:"schedule"`
}

// EmbeddingsConfig holds the optional vector-store collaborator settings.
type EmbeddingsConfig struct {
	Enabled      bool          `yaml:"enabled"`
	OllamaURL    string        `yaml:"ollama_url"`
	Model        string        `yaml:"model"`
	PostgresDSN  string        `yaml:"postgres_dsn"`
	Dimensions   int           `yaml:"dimensions"`
	ChunkSize    int           `yaml:"chunk_size"`
	ChunkOverlap int           `yaml:"chunk_overlap"`
	Timeout      time.Duration `yaml:"timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns the configuration used when no file or env overrides
// are present. All paths are relative to a single data directory.
func DefaultConfig() *Config {
	dataDir := "data"
	return &Config{
		Paths: PathsConfig{
			PendingDir:   filepath.Join(dataDir, "pending"),
			ProcessedDir: filepath.Join(dataDir, "processed"),
			ImagesDir:    filepath.Join(dataDir, "images"),
			TextDir:      filepath.Join(dataDir, "text"),
			CatalogFile:  "complete_metadata.json",
			DatabaseFile: "pdf_insight.db",
		},
		Processing: ProcessingConfig{
			ExtractImages:       true,
			ExtractText:         true,
			MoveAfterProcessing: true,
			SkipProcessedFiles:  true,
			HexIDLength:         8,
		},
		Embeddings: EmbeddingsConfig{
			Enabled:      false,
			OllamaURL:    "http://localhost:11434",
			Model:        "nomic-embed-text",
			Dimensions:   768,
			ChunkSize:    500,
			ChunkOverlap: 10,
			Timeout:      2 * time.Minute,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		LogLevel: "info",
	}
}

// LoadConfig reads the YAML config file if present, then applies environment
// variable overrides on top. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Paths.PendingDir = getEnv("PDF_PENDING_DIR", cfg.Paths.PendingDir)
	cfg.Paths.ProcessedDir = getEnv("PDF_PROCESSED_DIR", cfg.Paths.ProcessedDir)
	cfg.Paths.ImagesDir = getEnv("PDF_IMAGES_DIR", cfg.Paths.ImagesDir)
	cfg.Paths.TextDir = getEnv("PDF_TEXT_DIR", cfg.Paths.TextDir)
	cfg.Paths.CatalogFile = getEnv("PDF_CATALOG_FILE", cfg.Paths.CatalogFile)
	cfg.Paths.DatabaseFile = getEnv("PDF_DATABASE_FILE", cfg.Paths.DatabaseFile)
	cfg.Processing.HexIDLength = getEnvAsInt("PDF_HEX_ID_LENGTH", cfg.Processing.HexIDLength)
	cfg.Embeddings.OllamaURL = getEnv("OLLAMA_URL", cfg.Embeddings.OllamaURL)
	cfg.Embeddings.PostgresDSN = getEnv("EMBEDDINGS_DB_URL", cfg.Embeddings.PostgresDSN)
	cfg.Server.Addr = getEnv("SERVER_ADDR", cfg.Server.Addr)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	return cfg, nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Paths.PendingDir == "" {
		return NewAppError("CONFIG_ERROR", "paths.pending_dir is required", ErrInvalidInput)
	}
	if c.Paths.DatabaseFile == "" && c.Paths.CatalogFile == "" {
		return NewAppError("CONFIG_ERROR", "at least one of paths.database_file or paths.catalog_file is required", ErrInvalidInput)
	}
	if c.Processing.HexIDLength <= 0 {
		return NewAppError("CONFIG_ERROR", "processing.hex_id_length must be positive", ErrInvalidInput)
	}
	if c.Embeddings.Enabled && c.Embeddings.PostgresDSN == "" {
		return NewAppError("CONFIG_ERROR", "embeddings.postgres_dsn is required when embeddings are enabled", ErrInvalidInput)
	}
	return nil
}

// EnsureDirectories creates every configured directory that does not exist.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.PendingDir, c.Paths.ProcessedDir, c.Paths.ImagesDir, c.Paths.TextDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
