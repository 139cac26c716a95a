package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryConfig_WithDefaults_FillsZeroValues(t *testing.T) {
	cfg := MemoryConfig{}.withDefaults()

	assert.Equal(t, 0.01, cfg.RecencyDecay)
	assert.Equal(t, 3, cfg.RetrievalK)
	assert.Equal(t, 10, cfg.ReflectionThreshold)
	assert.Equal(t, 0, cfg.ContextBudget, "budget 0 means unlimited, not defaulted")
}

func TestMemoryConfig_WithDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := MemoryConfig{RecencyDecay: 0.5, RetrievalK: 7, ContextBudget: 200, ReflectionThreshold: 4}.withDefaults()

	assert.Equal(t, 0.5, cfg.RecencyDecay)
	assert.Equal(t, 7, cfg.RetrievalK)
	assert.Equal(t, 200, cfg.ContextBudget)
	assert.Equal(t, 4, cfg.ReflectionThreshold)
}

func TestLoadRunConfig_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
seed: 1234
ticks: 50
world_dir: worlds/hamlet
replay_dir: runs
memory:
  recency_decay: 0.02
  retrieval_k: 5
  reflection_threshold: 15
dynamics:
  weather_period: 6
`), 0o644))

	cfg, err := LoadRunConfig(path)

	require.NoError(t, err)
	assert.Equal(t, int64(1234), cfg.Seed)
	assert.Equal(t, int64(50), cfg.Ticks)
	assert.Equal(t, "worlds/hamlet", cfg.WorldDir)
	assert.Equal(t, "runs", cfg.ReplayDir)
	assert.Equal(t, 0.02, cfg.Memory.RecencyDecay)
	assert.Equal(t, 5, cfg.Memory.RetrievalK)
	assert.Equal(t, 15, cfg.Memory.ReflectionThreshold)
	assert.Equal(t, int64(6), cfg.Dynamics.WeatherPeriod)
}

func TestLoadRunConfig_MissingFile_Errors(t *testing.T) {
	_, err := LoadRunConfig(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.Error(t, err)
}

func TestLoadRunConfig_MalformedYAML_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: [not a number"), 0o644))

	_, err := LoadRunConfig(path)

	assert.Error(t, err)
}
