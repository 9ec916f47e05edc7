package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	v, err := Load(t.TempDir(), "does-not-exist")
	require.NoError(t, err)
	v.SetDefault("server.port", 8096)
	assert.Equal(t, 8096, v.GetInt("server.port"))
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "svc.yaml"), []byte("server:\n  port: 9000\nkafka:\n  brokers: file:9092\n"), 0o600))
	t.Setenv("TEST_KAFKA_BROKERS", "env:9092")

	v, err := Load(dir, "svc")
	require.NoError(t, err)
	require.NoError(t, BindEnvs(v, map[string]string{"kafka.brokers": "TEST_KAFKA_BROKERS"}))

	assert.Equal(t, 9000, v.GetInt("server.port"))
	assert.Equal(t, "env:9092", v.GetString("kafka.brokers"))
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("server: [unclosed"), 0o600))

	_, err := Load(dir, "bad")
	assert.Error(t, err)
}
