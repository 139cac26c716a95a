package sim

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SchedulerConfig groups the tick-loop parameters.
type SchedulerConfig struct {
	Seed          int64         `yaml:"seed"`           // master seed for all partitioned subsystems
	PolicyTimeout time.Duration `yaml:"policy_timeout"` // per-agent decide budget; 0 = no timeout
}

// MemoryConfig groups retrieval and reflection parameters.
type MemoryConfig struct {
	RecencyDecay        float64 `yaml:"recency_decay"`        // exponential decay rate per tick (default 0.01)
	RetrievalK          int     `yaml:"retrieval_k"`          // top-k records per retrieval (default 3)
	ContextBudget       int     `yaml:"context_budget"`       // max summed description length; 0 = unlimited
	ReflectionThreshold int     `yaml:"reflection_threshold"` // cumulative importance that triggers reflection (default 10)
}

// DynamicsConfig groups the world-dynamics parameters.
type DynamicsConfig struct {
	WeatherPeriod int64 `yaml:"weather_period"` // ticks between weather draws (default 12)
}

// RunConfig is the optional YAML run file mirrored by the CLI flags. Zero
// values fall back to flag defaults.
type RunConfig struct {
	Seed      int64          `yaml:"seed"`
	Ticks     int64          `yaml:"ticks"`
	WorldDir  string         `yaml:"world_dir"`
	ReplayDir string         `yaml:"replay_dir,omitempty"`
	MemoryDB  string         `yaml:"memory_db,omitempty"`
	Listen    string         `yaml:"listen,omitempty"`
	Memory    MemoryConfig   `yaml:"memory"`
	Dynamics  DynamicsConfig `yaml:"dynamics"`
}

// LoadRunConfig reads and decodes a YAML run file.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run config: %w", err)
	}
	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse run config %s: %w", path, err)
	}
	return &cfg, nil
}

// withDefaults fills unset memory parameters.
func (c MemoryConfig) withDefaults() MemoryConfig {
	if c.RecencyDecay <= 0 {
		c.RecencyDecay = 0.01
	}
	if c.RetrievalK <= 0 {
		c.RetrievalK = 3
	}
	if c.ReflectionThreshold <= 0 {
		c.ReflectionThreshold = 10
	}
	return c
}
