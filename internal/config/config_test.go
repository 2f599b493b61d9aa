package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy-mix-pipeline/internal/model"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "pipeline.db", cfg.DBPath)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "owid-energy", cfg.Energy.ID)
	assert.Equal(t, "country", cfg.Energy.EntityColumn)
	assert.Equal(t, "coal_consumption", cfg.Energy.Columns[model.QtyCoal])
	assert.Equal(t, 2015, cfg.Trend.StartYear)
	assert.Equal(t, 2024, cfg.Trend.EndYear)
	assert.Equal(t, 2008, cfg.Break.PivotYear)
	assert.Equal(t, 5, cfg.Break.WindowYears)
	assert.Equal(t, 1990, cfg.Break.ModernFloor)
	assert.Equal(t, 1.0, cfg.CoverageThreshold)
	assert.Len(t, cfg.Groups.EU27, 27)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
db_path: custom.db
coverage_threshold: 0.9
trend:
  start_year: 2010
  end_year: 2020
groups:
  eu27: ["France", "Germany"]
  usa: ["United States"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom.db", cfg.DBPath)
	assert.Equal(t, 0.9, cfg.CoverageThreshold)
	assert.Equal(t, 2010, cfg.Trend.StartYear)
	assert.Equal(t, []string{"France", "Germany"}, cfg.Groups.EU27)

	// Untouched keys keep their defaults.
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 2008, cfg.Break.PivotYear)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidTrendRange(t *testing.T) {
	path := writeConfig(t, `
trend:
  start_year: 2024
  end_year: 2024
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid range")
}

func TestLoad_InvalidCoverageThreshold(t *testing.T) {
	path := writeConfig(t, "coverage_threshold: 1.5\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestMembership_FromConfig(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	m, err := cfg.Membership()
	require.NoError(t, err)
	assert.Len(t, m.Members(model.GroupEU27), 27)
	assert.Equal(t, []string{"United States"}, m.Members(model.GroupUSA))
}

func TestMembership_OverlapFails(t *testing.T) {
	path := writeConfig(t, `
groups:
  eu27: ["France"]
  usa: ["France"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = cfg.Membership()
	assert.Error(t, err)
}
