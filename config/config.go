// Package config loads vertexcache settings from defaults, an optional YAML
// file and environment variables, in that order of precedence.
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("vertexcache.yaml").
//	    WithEnvPrefix("VERTEXCACHE").
//	    Load()
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/IvanBrykalov/vertexcache/cache"
	"github.com/IvanBrykalov/vertexcache/policy"
	"github.com/IvanBrykalov/vertexcache/policy/lru"
	"github.com/IvanBrykalov/vertexcache/policy/scan"
	"github.com/IvanBrykalov/vertexcache/stream"
)

// Config is the complete vertexcache configuration.
type Config struct {
	Cache     CacheConfig     `yaml:"cache" env:"CACHE"`
	Stream    StreamConfig    `yaml:"stream" env:"STREAM"`
	Log       LogConfig       `yaml:"log" env:"LOG"`
	Metrics   MetricsConfig   `yaml:"metrics" env:"METRICS"`
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// CacheConfig configures the vertex cache.
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries" env:"MAX_ENTRIES"`
	// Policy is "lru" or "scan".
	Policy            string `yaml:"policy" env:"POLICY"`
	IndexShards       int    `yaml:"index_shards" env:"INDEX_SHARDS"`
	EntrySizeEstimate int    `yaml:"entry_size_estimate" env:"ENTRY_SIZE_ESTIMATE"`
}

// StreamConfig configures the stream producer.
type StreamConfig struct {
	ChunkSize           int           `yaml:"chunk_size" env:"CHUNK_SIZE"`
	ChunkDelay          time.Duration `yaml:"chunk_delay" env:"CHUNK_DELAY"`
	EnableParallelProbe bool          `yaml:"enable_parallel_probe" env:"ENABLE_PARALLEL_PROBE"`
	ProbeFanOut         int           `yaml:"probe_fan_out" env:"PROBE_FAN_OUT"`
	ProbeKey            string        `yaml:"probe_key" env:"PROBE_KEY"`
	QueueCapacity       int           `yaml:"queue_capacity" env:"QUEUE_CAPACITY"`
	BaseConfidence      float64       `yaml:"base_confidence" env:"BASE_CONFIDENCE"`
	ConfidenceStep      float64       `yaml:"confidence_step" env:"CONFIDENCE_STEP"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json, console
	Format      string   `yaml:"format" env:"FORMAT"`
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
}

// MetricsConfig configures the metrics exporter.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// Backend is "prometheus" or "otel".
	Backend   string `yaml:"backend" env:"BACKEND"`
	Addr      string `yaml:"addr" env:"ADDR"`
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// TelemetryConfig configures tracing.
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled" env:"ENABLED"`
	ServiceName string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRate  float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	sc := stream.DefaultConfig()
	return &Config{
		Cache: CacheConfig{
			MaxEntries:        10_000,
			Policy:            "lru",
			EntrySizeEstimate: cache.DefaultEntrySizeEstimate,
		},
		Stream: StreamConfig{
			ChunkSize:           sc.ChunkSize,
			ChunkDelay:          sc.ChunkDelay,
			EnableParallelProbe: sc.EnableParallelProbe,
			ProbeFanOut:         sc.ProbeFanOut,
			ProbeKey:            sc.ProbeKey,
			QueueCapacity:       sc.QueueCapacity,
			BaseConfidence:      sc.BaseConfidence,
			ConfidenceStep:      sc.ConfidenceStep,
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "json",
			OutputPaths: []string{"stderr"},
		},
		Metrics: MetricsConfig{
			Backend:   "prometheus",
			Addr:      ":8080",
			Namespace: "vertexcache",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "vertexcache",
			SampleRate:  1.0,
		},
	}
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Cache.MaxEntries <= 0 {
		errs = append(errs, "cache.max_entries must be positive")
	}
	if _, err := c.Cache.policy(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Cache.IndexShards < 0 {
		errs = append(errs, "cache.index_shards must not be negative")
	}

	if c.Stream.ChunkSize <= 0 {
		errs = append(errs, "stream.chunk_size must be positive")
	}
	if c.Stream.ChunkDelay < 0 {
		errs = append(errs, "stream.chunk_delay must not be negative")
	}
	if c.Stream.ProbeFanOut <= 0 {
		errs = append(errs, "stream.probe_fan_out must be positive")
	}
	if c.Stream.QueueCapacity <= 0 {
		errs = append(errs, "stream.queue_capacity must be positive")
	}
	if c.Stream.BaseConfidence < 0 || c.Stream.BaseConfidence > 1 {
		errs = append(errs, "stream.base_confidence must be between 0 and 1")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q is not one of json, console", c.Log.Format))
	}

	if c.Metrics.Enabled {
		switch c.Metrics.Backend {
		case "prometheus", "otel":
		default:
			errs = append(errs, fmt.Sprintf("metrics.backend %q is not one of prometheus, otel", c.Metrics.Backend))
		}
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, "telemetry.sample_rate must be between 0 and 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c CacheConfig) policy() (policy.Policy[cache.Key], error) {
	switch c.Policy {
	case "", "lru":
		return lru.New[cache.Key](), nil
	case "scan":
		return scan.New[cache.Key](), nil
	default:
		return nil, fmt.Errorf("cache.policy %q is not one of lru, scan", c.Policy)
	}
}

// CacheOptions converts the section into cache.Options. Logger, Metrics,
// Loader and Clock are left for the caller.
func (c CacheConfig) CacheOptions() (cache.Options, error) {
	pol, err := c.policy()
	if err != nil {
		return cache.Options{}, err
	}
	return cache.Options{
		MaxEntries:        c.MaxEntries,
		Policy:            pol,
		IndexShards:       c.IndexShards,
		EntrySizeEstimate: c.EntrySizeEstimate,
	}, nil
}

// ProducerConfig converts the section into stream.Config.
func (c StreamConfig) ProducerConfig() stream.Config {
	return stream.Config{
		ChunkSize:           c.ChunkSize,
		ChunkDelay:          c.ChunkDelay,
		EnableParallelProbe: c.EnableParallelProbe,
		ProbeFanOut:         c.ProbeFanOut,
		ProbeKey:            c.ProbeKey,
		QueueCapacity:       c.QueueCapacity,
		BaseConfidence:      c.BaseConfidence,
		ConfidenceStep:      c.ConfidenceStep,
	}
}
