package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, "fraud_model.bin", cfg.ArtifactPath)
	assert.Equal(t, "rf", cfg.Training.Model)
	assert.True(t, cfg.Training.Rebalance)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
strict: true
training:
  model: xgb
boost:
  max_depth: 4
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Strict)
	assert.Equal(t, "xgb", cfg.Training.Model)
	assert.Equal(t, 4, cfg.Boost.MaxDepth)
	assert.Equal(t, 300, cfg.Boost.Rounds)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("training:\n  model: xgb\n"), 0o644))

	t.Setenv("FRAUD_TRAINING_MODEL", "mlp")
	t.Setenv("FRAUD_DATASET_FRAUD_RATE", "0.2")
	t.Setenv("FRAUD_LOG_LEVEL", "debug")
	t.Setenv("FRAUD_ARTIFACT_PATH", "out/model.bin")
	t.Setenv("FRAUD_TRAINING_REBALANCE", "false")
	t.Setenv("FRAUD_MLP_ACTIVATION", "tanh")
	t.Setenv("FRAUD_MLP_SCHEDULER", "step")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mlp", cfg.Training.Model)
	assert.Equal(t, 0.2, cfg.Dataset.FraudRate)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "out/model.bin", cfg.ArtifactPath)
	assert.False(t, cfg.Training.Rebalance)
	assert.Equal(t, "tanh", cfg.MLP.Activation)
	assert.Equal(t, "step", cfg.MLP.Scheduler)
	assert.Equal(t, "bce", cfg.MLP.Loss)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad log level", "FRAUD_LOG_LEVEL", "loud"},
		{"fraud rate above one", "FRAUD_DATASET_FRAUD_RATE", "1.5"},
		{"zero test size", "FRAUD_SPLIT_TEST_SIZE", "0"},
		{"no trees", "FRAUD_FOREST_TREES", "0"},
		{"empty artifact path", "FRAUD_ARTIFACT_PATH", ""},
		{"unknown activation", "FRAUD_MLP_ACTIVATION", "swish"},
		{"unknown scheduler", "FRAUD_MLP_SCHEDULER", "cosine"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"FRAUD_LOG_LEVEL":           "log_level",
		"FRAUD_STRICT":              "strict",
		"FRAUD_BOOST_MAX_DEPTH":     "boost.max_depth",
		"FRAUD_DATASET_EXPORT_PATH": "dataset.export_path",
		"FRAUD_SMOTE_NEIGHBORS":     "smote.neighbors",
		"FRAUD_MLP_STEP_SIZE":       "mlp.step_size",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}
