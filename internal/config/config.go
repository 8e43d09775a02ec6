// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EvaluatorConfig holds all configuration for an evaluator process.
type EvaluatorConfig struct {
	// Server configuration
	Port        int    `mapstructure:"port"`
	MetricsPort int    `mapstructure:"metrics_port"`
	Redis       string `mapstructure:"redis"`

	// Batching
	BatchWindowMS int `mapstructure:"batch_window_ms"`

	// Object storage for model artifacts
	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`
	S3Secure    bool   `mapstructure:"s3_secure"`
	ScratchDir  string `mapstructure:"scratch_dir"`

	// OpenTelemetry configuration
	OTELEnabled  bool   `mapstructure:"otel_enabled"`
	OTELEndpoint string `mapstructure:"otel_endpoint"`

	// Feature flags
	UseMockEngine bool `mapstructure:"use_mock_engine"`
}

// BatchWindow returns the collection window as a duration.
func (c *EvaluatorConfig) BatchWindow() time.Duration {
	return time.Duration(c.BatchWindowMS) * time.Millisecond
}

// Validate validates the evaluator configuration.
func (c *EvaluatorConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.MetricsPort <= 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.MetricsPort)
	}
	if c.Port == c.MetricsPort {
		return fmt.Errorf("port and metrics_port must be different")
	}
	if c.BatchWindowMS < 0 {
		return fmt.Errorf("batch_window_ms must be non-negative")
	}
	return nil
}

// DispatcherConfig holds all configuration for the dispatcher process.
type DispatcherConfig struct {
	Port        int    `mapstructure:"port"`
	MetricsPort int    `mapstructure:"metrics_port"`

	// Pool and bootstrap
	PoolManifest string `mapstructure:"pool_manifest"`
	Model        string `mapstructure:"model"`
	Device       string `mapstructure:"device"`
	Precision    string `mapstructure:"precision"`
	BatchMax     int    `mapstructure:"batch_max"`

	// Ensemble
	Trajectories int     `mapstructure:"trajectories"`
	Steps        int64   `mapstructure:"steps"`
	Timestep     float64 `mapstructure:"timestep"`
	Friction     float64 `mapstructure:"friction"`
	Temperature  float64 `mapstructure:"temperature"`

	// Initial conditions: a jittered cubic lattice of Atoms atoms
	Atoms    int    `mapstructure:"atoms"`
	Species  string `mapstructure:"species"`
	Spacing  float64 `mapstructure:"spacing"`
	BaseSeed int64  `mapstructure:"base_seed"`

	// Retry policy, one delay per attempt
	RetryDelaysMS []int `mapstructure:"retry_delays_ms"`

	PollIntervalS int `mapstructure:"poll_interval_s"`

	OTELEnabled  bool   `mapstructure:"otel_enabled"`
	OTELEndpoint string `mapstructure:"otel_endpoint"`
}

// RetryDelays returns the retry policy delays as durations.
func (c *DispatcherConfig) RetryDelays() []time.Duration {
	out := make([]time.Duration, len(c.RetryDelaysMS))
	for i, ms := range c.RetryDelaysMS {
		out[i] = time.Duration(ms) * time.Millisecond
	}
	return out
}

// Validate validates the dispatcher configuration.
func (c *DispatcherConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.MetricsPort <= 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.MetricsPort)
	}
	if c.Port == c.MetricsPort {
		return fmt.Errorf("port and metrics_port must be different")
	}
	if c.PoolManifest == "" {
		return fmt.Errorf("pool_manifest is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Trajectories < 0 {
		return fmt.Errorf("trajectories must be non-negative")
	}
	if c.Steps <= 0 {
		return fmt.Errorf("steps must be positive")
	}
	if c.Timestep <= 0 {
		return fmt.Errorf("timestep must be positive")
	}
	if c.Friction <= 0 {
		return fmt.Errorf("friction must be positive")
	}
	if c.Atoms <= 0 {
		return fmt.Errorf("atoms must be positive")
	}
	for i, ms := range c.RetryDelaysMS {
		if ms < 0 {
			return fmt.Errorf("retry_delays_ms[%d] must be non-negative", i)
		}
	}
	return nil
}

// RunnerConfig holds all configuration for a runner process.
type RunnerConfig struct {
	RunnerID       string `mapstructure:"runner_id"`
	DispatcherAddr string `mapstructure:"dispatcher_addr"`
	PollIntervalS  int    `mapstructure:"poll_interval_s"`
}

// Validate validates the runner configuration.
func (c *RunnerConfig) Validate() error {
	if c.RunnerID == "" {
		return fmt.Errorf("runner_id is required")
	}
	if c.DispatcherAddr == "" {
		return fmt.Errorf("dispatcher_addr is required")
	}
	return nil
}

// newViper builds a viper instance with the shared layering:
// env vars (MDFLEET_ prefix) > config file > defaults.
func newViper(configPath string) (*viper.Viper, error) {
	v := viper.New()

	v.SetEnvPrefix("MDFLEET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
		}
		return v, nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/mdfleet/")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; ignore
	}
	return v, nil
}

// LoadEvaluator loads the evaluator configuration. configPath may be empty.
func LoadEvaluator(configPath string) (*EvaluatorConfig, error) {
	v, err := newViper(configPath)
	if err != nil {
		return nil, err
	}

	v.SetDefault("port", 50051)
	v.SetDefault("metrics_port", 9100)
	v.SetDefault("redis", "")
	v.SetDefault("batch_window_ms", 2)
	v.SetDefault("scratch_dir", "/tmp/mdfleet-models")
	v.SetDefault("s3_secure", false)
	v.SetDefault("otel_enabled", false)
	v.SetDefault("use_mock_engine", false)

	var cfg EvaluatorConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// LoadDispatcher loads the dispatcher configuration. configPath may be empty.
func LoadDispatcher(configPath string) (*DispatcherConfig, error) {
	v, err := newViper(configPath)
	if err != nil {
		return nil, err
	}

	v.SetDefault("port", 50060)
	v.SetDefault("metrics_port", 9101)
	v.SetDefault("device", "cuda:0")
	v.SetDefault("precision", "float32")
	v.SetDefault("batch_max", 32)
	v.SetDefault("trajectories", 0)
	v.SetDefault("steps", 1000)
	v.SetDefault("timestep", 0.5)
	v.SetDefault("friction", 1.0)
	v.SetDefault("temperature", 300.0)
	v.SetDefault("atoms", 8)
	v.SetDefault("species", "Cu")
	v.SetDefault("spacing", 2.5)
	v.SetDefault("base_seed", 1)
	v.SetDefault("retry_delays_ms", []int{1000, 5000})
	v.SetDefault("poll_interval_s", 1)
	v.SetDefault("otel_enabled", false)

	var cfg DispatcherConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// LoadRunner loads the runner configuration. configPath may be empty.
func LoadRunner(configPath string) (*RunnerConfig, error) {
	v, err := newViper(configPath)
	if err != nil {
		return nil, err
	}

	v.SetDefault("runner_id", "")
	v.SetDefault("dispatcher_addr", "localhost:50060")
	v.SetDefault("poll_interval_s", 1)

	var cfg RunnerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
