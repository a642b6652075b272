package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "olsfit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 0.05, cfg.Alpha)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Intercept)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
data: mtcars.csv
response: mpg
predictors: [hp, cyl]
intercept: true
alpha: 0.1
row_labels: model
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mtcars.csv", cfg.Data)
	assert.Equal(t, "mpg", cfg.Response)
	assert.Equal(t, []string{"hp", "cyl"}, cfg.Predictors)
	assert.True(t, cfg.Intercept)
	assert.Equal(t, 0.1, cfg.Alpha)
	assert.Equal(t, "model", cfg.RowLabels)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "response: mpg\nalpha: 0.1\n")
	t.Setenv("OLSFIT_ALPHA", "0.01")
	t.Setenv("OLSFIT_LOG_LEVEL", "warn")
	t.Setenv("OLSFIT_ROW_LABELS", "model")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mpg", cfg.Response)
	assert.Equal(t, 0.01, cfg.Alpha)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "model", cfg.RowLabels)
}

func TestLoadExplicitZeroAlpha(t *testing.T) {
	valid := "data: mtcars.csv\nresponse: mpg\npredictors: [hp]\n"

	cfg, err := Load(writeConfig(t, valid+"alpha: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Alpha)
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	t.Setenv("OLSFIT_ALPHA", "0")
	cfg, err = Load(writeConfig(t, valid))
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Alpha)
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "alpha: [unterminated\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Data = "mtcars.csv"
		cfg.Response = "mpg"
		cfg.Predictors = []string{"hp", "cyl"}
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "intercept", modify: func(c *Config) { c.Intercept = true }},
		{name: "no data", modify: func(c *Config) { c.Data = "" }, wantErr: true},
		{name: "no response", modify: func(c *Config) { c.Response = "" }, wantErr: true},
		{name: "no predictors", modify: func(c *Config) { c.Predictors = nil }, wantErr: true},
		{name: "response as predictor", modify: func(c *Config) { c.Predictors = []string{"mpg"} }, wantErr: true},
		{name: "alpha zero", modify: func(c *Config) { c.Alpha = 0 }, wantErr: true},
		{name: "alpha one", modify: func(c *Config) { c.Alpha = 1 }, wantErr: true},
		{name: "bad log level", modify: func(c *Config) { c.Log.Level = "loud" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
