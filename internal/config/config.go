// Package config loads application configuration from the environment.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/bhulekh-reconcile/internal/match"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Matching MatchingConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string
	Port int
	Env  string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int
}

// DSN renders the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// AuthConfig holds API authentication configuration.
type AuthConfig struct {
	Enabled bool
	APIKey  string
}

// MatchingConfig holds every engine tunable: algorithm selection, area
// tolerance, classification thresholds, sub-metric and combined-score
// weights, and the candidate-search worker count.
type MatchingConfig struct {
	Algorithm        match.Algorithm
	AreaTolerancePct float64
	MatchedThreshold float64
	PartialThreshold float64
	NameWeights      match.NameWeights
	CombinedWeights  match.CombinedWeights
	Workers          int
}

// Scorer builds a scorer from the configured tunables, optionally
// overriding the algorithm and tolerance (zero values keep the
// configured ones).
func (m MatchingConfig) Scorer(algorithm match.Algorithm, areaTolerancePct float64) *match.Scorer {
	if algorithm == "" {
		algorithm = m.Algorithm
	}
	if areaTolerancePct <= 0 {
		areaTolerancePct = m.AreaTolerancePct
	}
	return match.NewScorer(algorithm, areaTolerancePct, m.NameWeights, m.CombinedWeights)
}

// Classifier builds a classifier from the configured thresholds.
func (m MatchingConfig) Classifier() *match.Classifier {
	return &match.Classifier{
		MatchedThreshold: m.MatchedThreshold,
		PartialThreshold: m.PartialThreshold,
	}
}

// Load reads configuration from environment variables with development
// defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 8080)
	v.SetDefault("ENV", "development")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "bhulekh")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 20)

	v.SetDefault("AUTH_ENABLED", false)
	v.SetDefault("AUTH_API_KEY", "")

	v.SetDefault("MATCH_ALGORITHM", string(match.AlgorithmCombined))
	v.SetDefault("MATCH_AREA_TOLERANCE_PCT", 5.0)
	v.SetDefault("MATCH_MATCHED_THRESHOLD", 80.0)
	v.SetDefault("MATCH_PARTIAL_THRESHOLD", 50.0)
	v.SetDefault("MATCH_RATIO_WEIGHT", 0.25)
	v.SetDefault("MATCH_PARTIAL_RATIO_WEIGHT", 0.25)
	v.SetDefault("MATCH_TOKEN_SORT_WEIGHT", 0.25)
	v.SetDefault("MATCH_TOKEN_SET_WEIGHT", 0.25)
	v.SetDefault("MATCH_NAME_WEIGHT", 0.40)
	v.SetDefault("MATCH_AREA_WEIGHT", 0.30)
	v.SetDefault("MATCH_ID_WEIGHT", 0.30)
	v.SetDefault("MATCH_WORKERS", 1)

	v.AutomaticEnv()

	algorithm, err := match.ParseAlgorithm(v.GetString("MATCH_ALGORITHM"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("HOST"),
			Port: v.GetInt("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			MaxConns: v.GetInt("DB_MAX_CONNS"),
		},
		Auth: AuthConfig{
			Enabled: v.GetBool("AUTH_ENABLED"),
			APIKey:  v.GetString("AUTH_API_KEY"),
		},
		Matching: MatchingConfig{
			Algorithm:        algorithm,
			AreaTolerancePct: v.GetFloat64("MATCH_AREA_TOLERANCE_PCT"),
			MatchedThreshold: v.GetFloat64("MATCH_MATCHED_THRESHOLD"),
			PartialThreshold: v.GetFloat64("MATCH_PARTIAL_THRESHOLD"),
			NameWeights: match.NameWeights{
				Ratio:        v.GetFloat64("MATCH_RATIO_WEIGHT"),
				PartialRatio: v.GetFloat64("MATCH_PARTIAL_RATIO_WEIGHT"),
				TokenSort:    v.GetFloat64("MATCH_TOKEN_SORT_WEIGHT"),
				TokenSet:     v.GetFloat64("MATCH_TOKEN_SET_WEIGHT"),
			},
			CombinedWeights: match.CombinedWeights{
				Name: v.GetFloat64("MATCH_NAME_WEIGHT"),
				Area: v.GetFloat64("MATCH_AREA_WEIGHT"),
				ID:   v.GetFloat64("MATCH_ID_WEIGHT"),
			},
			Workers: v.GetInt("MATCH_WORKERS"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Matching.AreaTolerancePct <= 0 {
		return fmt.Errorf("area tolerance must be positive, got %v", c.Matching.AreaTolerancePct)
	}
	if c.Matching.PartialThreshold > c.Matching.MatchedThreshold {
		return fmt.Errorf("partial threshold %v exceeds matched threshold %v",
			c.Matching.PartialThreshold, c.Matching.MatchedThreshold)
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("AUTH_API_KEY is required when AUTH_ENABLED is true")
	}
	return nil
}
