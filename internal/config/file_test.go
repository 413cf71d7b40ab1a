package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chaosprobe.yaml"), []byte(content), 0o644))
	return dir
}

func TestLoadFileMissingIsNotAnError(t *testing.T) {
	cfg, err := LoadFile(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Workload)
	assert.Equal(t, 0, cfg.Experiments)
}

func TestLoadFileParsesAllFields(t *testing.T) {
	dir := writeConfigFile(t, `
workload: https://github.com/example/shop.git
region: eu-west-1
experiments: 5
tags: Environment=prod,Team=core
model: custom-model
`)

	cfg, err := LoadFile(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/example/shop.git", cfg.Workload)
	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.Equal(t, 5, cfg.Experiments)
	assert.Equal(t, "Environment=prod,Team=core", cfg.Tags)
	assert.Equal(t, "custom-model", cfg.Model)
}

func TestLoadFileRejectsMalformedYAML(t *testing.T) {
	dir := writeConfigFile(t, "workload: [broken")

	_, err := LoadFile(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestLoadFileValidatesTags(t *testing.T) {
	dir := writeConfigFile(t, "tags: Environment")

	_, err := LoadFile(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid tag format")
}

func TestLoadFileRejectsNegativeExperiments(t *testing.T) {
	dir := writeConfigFile(t, "experiments: -1")

	_, err := LoadFile(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "experiments must be non-negative")
}
