package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"CONFIG_FILE", "PORT", "MODEL_PATH", "CLASSES_PATH", "ONNXRUNTIME_LIB",
	"INTRA_OP_THREADS", "CACHE_SIZE", "MAX_UPLOAD_MB", "LOG_LEVEL", "LOG_FORMAT",
	"CORS_ORIGINS",
}

func clearEnv(t *testing.T) {
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, DefaultModelPath, cfg.ModelPath)
	assert.Equal(t, DefaultClassesPath, cfg.ClassesPath)
	assert.Equal(t, 128, cfg.CacheSize)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes())
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "plantdoc.yaml")
	data := []byte(`
port: "8080"
modelPath: /srv/model.onnx
cacheSize: 16
logFormat: json
corsOrigins:
  - http://localhost:3000
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	t.Setenv("CACHE_SIZE", "0")
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "/srv/model.onnx", cfg.ModelPath)
	assert.Equal(t, 0, cfg.CacheSize)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSOrigins)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidEnv(t *testing.T) {
	cases := map[string]string{
		"MAX_UPLOAD_MB": "ten",
		"CACHE_SIZE":    "-1",
		"LOG_LEVEL":     "loud",
		"LOG_FORMAT":    "xml",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(k, v)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
