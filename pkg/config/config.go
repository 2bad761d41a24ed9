package config

import "time"

// Config is the root configuration structure for basicrules.
// It contains the rule source settings and the telemetry settings used by
// the engine and the command-line tool.
type Config struct {
	// Rules contains configuration for loading rule files including the
	// source location, accepted extensions, and watch mode.
	Rules RulesConfig `yaml:"rules"`

	// Server contains configuration for the HTTP evaluation service
	// started by "basicrules serve".
	Server ServerConfig `yaml:"server"`

	// Telemetry contains configuration for observability including logging
	// and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// RulesConfig contains configuration for the rule source.
type RulesConfig struct {
	// Path is a rule file or a directory of rule files.
	// Default: "./rules"
	Path string `yaml:"path"`

	// Extensions is the list of file extensions loaded from a directory.
	// Default: [".yaml", ".yml", ".json"]
	Extensions []string `yaml:"extensions"`

	// Watch enables hot reloading when rule files change.
	// Default: false
	Watch bool `yaml:"watch"`

	// DebounceInterval is the time to wait after a file change before
	// reloading.
	// Default: 100ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// StopOnError stops evaluating the remaining rules of a ruleset after
	// the first rule that fails.
	// Default: false
	StopOnError bool `yaml:"stop_on_error"`
}

// ServerConfig contains configuration for the HTTP evaluation service.
type ServerConfig struct {
	// ListenAddress is the address to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request on a
	// keep-alive connection.
	// Default: 60s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// RequestTimeout bounds the handling of a single request.
	// Default: 5s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// ShutdownTimeout is the grace period for in-flight requests on
	// shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes limits the size of request bodies.
	// Default: 1MiB
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether the metrics endpoint is served.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Address is the listen address of the metrics endpoint. When it
	// equals server.listen_address the endpoint is mounted on the
	// evaluation service instead of a dedicated listener.
	// Default: "127.0.0.1:9090"
	Address string `yaml:"address"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "basicrules"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "engine"
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets defines histogram buckets for rule evaluation
	// duration (seconds).
	// Default: exponential from 1µs to 16ms
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig contains OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled controls whether evaluation spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS towards the collector.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export call.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// Sampler is the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces sampled by the "ratio" sampler.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// SkipRuleSpans records only the evaluation span, not one span per
	// rule.
	// Default: false
	SkipRuleSpans bool `yaml:"skip_rule_spans"`

	// ServiceName is the service.name resource attribute.
	// Default: "basicrules"
	ServiceName string `yaml:"service_name"`
}
