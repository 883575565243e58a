/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config loads the engine configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/suparena/ddbquery/datastore/ddb"
	"github.com/suparena/ddbquery/registry"
	"github.com/suparena/ddbquery/storagemodels"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file configuration.
const (
	EnvRegion             = "AWS_REGION"
	EnvAccessKey          = "AWS_ACCESS_KEY"
	EnvSecretKey          = "AWS_SECRET_KEY"
	EnvEndpoint           = "DDB_ENDPOINT"
	EnvMetadataTTL        = "DDB_METADATA_TTL"
	EnvLogLevel           = "DDB_LOG_LEVEL"
	EnvSegmentConcurrency = "DDB_SEGMENT_CONCURRENCY"
)

// Config is the complete engine configuration.
type Config struct {
	Region    string `yaml:"region"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	// Endpoint overrides the DynamoDB endpoint, e.g. "http://localhost:8000".
	Endpoint    string        `yaml:"endpoint"`
	MetadataTTL time.Duration `yaml:"metadataTTL"`
	LogLevel    string        `yaml:"logLevel"`
	// EnvFile is loaded into the process environment before overrides apply. Missing files are ignored.
	EnvFile string `yaml:"envFile"`

	Settings ddb.Settings `yaml:"settings"`
	// Tables are declared schemas; they are never described against the store.
	Tables []storagemodels.TableSchema `yaml:"tables"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		MetadataTTL: ddb.DefaultMetadataTTL,
		LogLevel:    "info",
		EnvFile:     ".env",
		Settings:    ddb.DefaultSettings(),
	}
}

// Load reads path (if non-empty), applies the environment and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.LoadFromFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFromFile merges a YAML file into c.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv loads c.EnvFile and applies environment overrides.
func (c *Config) LoadFromEnv() error {
	if c.EnvFile != "" {
		if err := godotenv.Load(c.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", c.EnvFile, err)
		}
	}

	if v := os.Getenv(EnvRegion); v != "" {
		c.Region = v
	}
	if v := os.Getenv(EnvAccessKey); v != "" {
		c.AccessKey = v
	}
	if v := os.Getenv(EnvSecretKey); v != "" {
		c.SecretKey = v
	}
	if v := os.Getenv(EnvEndpoint); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvMetadataTTL); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMetadataTTL, err)
		}
		c.MetadataTTL = ttl
	}
	if v := os.Getenv(EnvSegmentConcurrency); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvSegmentConcurrency, err)
		}
		c.Settings.SegmentConcurrency = n
	}
	return nil
}

// Validate checks the configuration for values the engine cannot use.
func (c *Config) Validate() error {
	if c.MetadataTTL < 0 {
		return fmt.Errorf("metadataTTL must not be negative")
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		return fmt.Errorf("accessKey and secretKey must be set together")
	}
	if c.Settings.BatchGetChunkSize > ddb.MaxBatchGetKeys {
		return fmt.Errorf("settings.batchGetChunkSize must not exceed %d", ddb.MaxBatchGetKeys)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid logLevel %q: %w", c.LogLevel, err)
	}
	for _, t := range c.Tables {
		if err := registry.Validate(t); err != nil {
			return err
		}
	}
	return nil
}

// Registry returns the declared tables as a schema registry.
func (c *Config) Registry() (*registry.Schemas, error) {
	schemas := registry.NewSchemas()
	for _, t := range c.Tables {
		if err := schemas.Register(t); err != nil {
			return nil, err
		}
	}
	return schemas, nil
}

// ClientConfig returns the DynamoDB connection settings.
func (c *Config) ClientConfig() ddb.ClientConfig {
	return ddb.ClientConfig{
		Region:    c.Region,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Endpoint:  c.Endpoint,
	}
}

// Logger builds a production zap logger at c.LogLevel.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid logLevel %q: %w", c.LogLevel, err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
