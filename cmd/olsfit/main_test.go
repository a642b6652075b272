package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/anyappinc/ols/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mtcars = "../../testdata/mtcars.csv"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestFitWithoutIntercept(t *testing.T) {
	out, err := execute(t, "fit",
		"--data", mtcars,
		"--response", "mpg",
		"--predictors", "hp,cyl",
		"--row-labels", "model",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "Call: mpg ~ hp + cyl + 0")
	assert.Contains(t, out, "Formula: mpg = - 0.1075*hp + 5.4036*cyl")
	assert.Contains(t, out, "-0.107466")
	assert.Contains(t, out, "5.403645")
	assert.Contains(t, out, "0.045383")
	assert.Contains(t, out, "1.139220")
	assert.Contains(t, out, "on 30 degrees of freedom")
	assert.Contains(t, out, "Prediction intervals (95%)")
	assert.Contains(t, out, "Mazda RX4")
	assert.Contains(t, out, "20.6006")
	assert.Contains(t, out, "-0.8674")
	assert.Contains(t, out, "42.0686")
}

func TestFitWithIntercept(t *testing.T) {
	out, err := execute(t, "fit",
		"--data", mtcars,
		"--response", "mpg",
		"--predictors", "hp,cyl",
		"--intercept",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "Call: mpg ~ hp + cyl + 1")
	assert.Contains(t, out, "(Intercept)")
	assert.Contains(t, out, "36.908330")
	assert.Contains(t, out, "-2.264694")
	assert.Contains(t, out, "R-squared: 0.7407, Adjusted R-squared: 0.7228")
}

func TestFitWithConfigFile(t *testing.T) {
	data, err := filepath.Abs(mtcars)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "olsfit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data: "+data+"\nresponse: mpg\npredictors: [hp, cyl]\nalpha: 0.1\n"), 0600))

	out, err := execute(t, "fit", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Prediction intervals (90%)")
}

func TestFitPredictFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.csv")
	require.NoError(t, os.WriteFile(path, []byte("hp,cyl\n110,6\n"), 0600))

	out, err := execute(t, "fit",
		"--data", mtcars,
		"--response", "mpg",
		"--predictors", "hp,cyl",
		"--predict", path,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "20.6006")
	assert.Contains(t, out, "42.0686")
	assert.NotContains(t, out, "11.6203")
}

func TestFitErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{
			name: "missing response",
			args: []string{"fit", "--data", mtcars, "--predictors", "hp"},
			want: config.ErrInvalidConfig,
		},
		{
			name: "bad alpha",
			args: []string{"fit", "--data", mtcars, "--response", "mpg", "--predictors", "hp", "--alpha", "1.5"},
			want: config.ErrInvalidConfig,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := execute(t, "fit", "--data", mtcars, "--response", "mpg", "--predictors", "weight")
	assert.Error(t, err)

	_, err = execute(t, "fit", "--data", "missing.csv", "--response", "mpg", "--predictors", "hp")
	assert.Error(t, err)
}
