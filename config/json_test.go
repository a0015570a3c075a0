package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Duration
	}{
		{name: "duration string", input: `"15m"`, want: 15 * time.Minute},
		{name: "compound duration string", input: `"1h30m"`, want: 90 * time.Minute},
		{name: "raw nanoseconds", input: `60000000000`, want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			require.NoError(t, json.Unmarshal([]byte(tt.input), &d))
			assert.Equal(t, tt.want, time.Duration(d))
		})
	}
}

func TestDuration_UnmarshalJSONRejectsGarbage(t *testing.T) {
	var d Duration
	assert.Error(t, json.Unmarshal([]byte(`"not-a-duration"`), &d))
}

func TestDuration_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Duration(15 * time.Minute))
	require.NoError(t, err)
	assert.Equal(t, `"15m0s"`, string(data))
}

func TestParseJSON_FullDocument(t *testing.T) {
	path := writeTempJSONConfig(t, map[string]any{
		"vault": map[string]any{
			"auto_lock_timeout":   "10m",
			"kdf_iterations":      200000,
			"container_key":       "vault:main",
			"allow_binding_reset": true,
		},
		"storage": map[string]any{
			"type": "s3",
			"s3": map[string]any{
				"endpoint":   "http://localhost:9000",
				"region":     "us-east-1",
				"bucket":     "vault-bucket",
				"access_key": "minio",
				"secret_key": "minio123",
			},
		},
		"identity": map[string]any{
			"provider":      "remote",
			"base_url":      "https://accounts.example.com",
			"poll_interval": "2m",
		},
	})

	cfg, err := parseJSON(path)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, cfg.Vault.AutoLockTimeout)
	assert.Equal(t, 200_000, cfg.Vault.KDFIterations)
	assert.Equal(t, "vault:main", cfg.Vault.ContainerKey)
	assert.True(t, cfg.Vault.AllowBindingReset)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "http://localhost:9000", cfg.Storage.S3.Endpoint)
	assert.Equal(t, "vault-bucket", cfg.Storage.S3.Bucket)
	assert.Equal(t, "remote", cfg.Identity.Provider)
	assert.Equal(t, 2*time.Minute, cfg.Identity.PollInterval)
}

func TestParseJSON_MalformedDocument(t *testing.T) {
	f := writeTempJSONConfig(t, "just a string, not an object")

	_, err := parseJSON(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error decoding json configs")
}
