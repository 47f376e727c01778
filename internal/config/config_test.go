package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "data/coupons.csv", c.DataPath)
	require.Equal(t, []string{"car"}, c.DropColumns)
	require.Equal(t, "impute", c.NumericMissing)
	require.Equal(t, "drop", c.CategoricalMissing)
	require.True(t, c.Dedupe)
	require.Equal(t, "info", c.LogLevel)
	require.Equal(t, "markdown", c.ReportFormat)
	require.Equal(t, filepath.Join(os.Getenv("HOME"), ".couponlens", "projects"), c.ProjectsDir)
}

func TestSaveLoadRoundTripWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c := &Global{
		DataPath:     "/data/in-vehicle-coupons.csv",
		DropColumns:  []string{"car", "direction_opp"},
		LogLevel:     "debug",
		ReportFormat: "json",
		ProjectsDir:  "/tmp/projects",
		Dedupe:       true,
	}
	require.NoError(t, Save(c, path))

	t.Setenv("COUPONLENS_REPORT_FORMAT", "yaml")
	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/data/in-vehicle-coupons.csv", got.DataPath)
	require.Equal(t, []string{"car", "direction_opp"}, got.DropColumns)
	require.Equal(t, "debug", got.LogLevel)
	require.Equal(t, "yaml", got.ReportFormat, "env wins over file")
	require.Equal(t, "/tmp/projects", got.ProjectsDir)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestSet(t *testing.T) {
	t.Parallel()

	c := &Global{}
	require.NoError(t, c.Set("charts", "yes"))
	require.True(t, c.Charts)
	require.NoError(t, c.Set("drop_columns", "car, Y ,"))
	require.Equal(t, []string{"car", "Y"}, c.DropColumns)
	require.NoError(t, c.Set("delimiter", "tab"))
	d, err := c.DelimiterRune()
	require.NoError(t, err)
	require.Equal(t, '\t', d)

	require.Error(t, c.Set("strict", "maybe"))
	require.Error(t, c.Set("api_key", "x"))
	c.Delimiter = ";;"
	_, err = c.DelimiterRune()
	require.Error(t, err)
}
