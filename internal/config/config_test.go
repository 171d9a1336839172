package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhulekh-reconcile/internal/match"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)

	assert.Equal(t, "bhulekh", cfg.Database.Name)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	assert.False(t, cfg.Auth.Enabled)

	assert.Equal(t, match.AlgorithmCombined, cfg.Matching.Algorithm)
	assert.Equal(t, 5.0, cfg.Matching.AreaTolerancePct)
	assert.Equal(t, 80.0, cfg.Matching.MatchedThreshold)
	assert.Equal(t, 50.0, cfg.Matching.PartialThreshold)
	assert.Equal(t, 0.40, cfg.Matching.CombinedWeights.Name)
	assert.Equal(t, 1, cfg.Matching.Workers)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MATCH_ALGORITHM", "jaro_winkler")
	t.Setenv("MATCH_WORKERS", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, match.AlgorithmJaroWinkler, cfg.Matching.Algorithm)
	assert.Equal(t, 4, cfg.Matching.Workers)
}

func TestLoadRejectsUnknownAlgorithm(t *testing.T) {
	t.Setenv("MATCH_ALGORITHM", "soundex")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port out of range", "PORT", "70000"},
		{"zero tolerance", "MATCH_AREA_TOLERANCE_PCT", "0"},
		{"inverted thresholds", "MATCH_PARTIAL_THRESHOLD", "95"},
		{"auth without key", "AUTH_ENABLED", "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "db", Port: "5433", Name: "land", User: "app", Password: "s3cret", SSLMode: "require",
	}
	assert.Equal(t, "host=db port=5433 user=app password=s3cret dbname=land sslmode=require", d.DSN())
}

func TestMatchingScorerOverrides(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	// Zero values fall back to the configured algorithm and tolerance.
	s := cfg.Matching.Scorer("", 0)
	require.NotNil(t, s)

	s = cfg.Matching.Scorer(match.AlgorithmCosine, 10.0)
	require.NotNil(t, s)
}
