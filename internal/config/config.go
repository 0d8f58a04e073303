// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and RANGEBOARD_* env vars.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// APIEndpoint is the base URL of the remote GraphQL service. Required.
	APIEndpoint string `koanf:"api_endpoint"`

	// GraphQLPath is appended to APIEndpoint for queries and mutations.
	GraphQLPath string `koanf:"graphql_path"`

	// SubscriptionURL overrides the websocket URL used for live updates.
	// When empty it is derived from APIEndpoint and GraphQLPath.
	SubscriptionURL string `koanf:"subscription_url"`

	// RequestTimeoutMS bounds a single remote GraphQL round trip.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// RetryMax is the number of transport retries for reads. 0 disables retries.
	RetryMax int `koanf:"retry_max"`

	// CatalogCacheTTLSeconds controls how long statistics option lists are cached.
	CatalogCacheTTLSeconds int `koanf:"catalog_cache_ttl_seconds"`

	// NotificationQueueSize bounds each binder's notification queue.
	NotificationQueueSize int `koanf:"notification_queue_size"`

	// LiveOutboxSize bounds the per-viewer push buffer.
	LiveOutboxSize int `koanf:"live_outbox_size"`

	// SubscriptionReconnectMS is the delay before re-opening a dropped subscription.
	SubscriptionReconnectMS int `koanf:"subscription_reconnect_ms"`

	// MetricsEnabled turns metric recording on or off. /healthz is served either way.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsNamespace and MetricsSubsystem prefix every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsPrefix is inserted between the subsystem and the metric name.
	MetricsPrefix string `koanf:"metrics_prefix"`

	// MetricsLatencyBuckets overrides the HTTP and error latency histogram
	// buckets. Env form: "0.1,0.5,1".
	MetricsLatencyBuckets []float64 `koanf:"metrics_latency_buckets"`

	// MetricsLabels are constant labels attached to every metric.
	MetricsLabels map[string]string `koanf:"metrics_labels"`

	// MetricsRefreshMS is how often system gauges are sampled.
	MetricsRefreshMS int `koanf:"metrics_refresh_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":9080",
		GraphQLPath:             "/graphql",
		RequestTimeoutMS:        10_000,
		RetryMax:                0,
		CatalogCacheTTLSeconds:  30,
		NotificationQueueSize:   64,
		LiveOutboxSize:          16,
		SubscriptionReconnectMS: 2_000,
		MetricsEnabled:          true,
		MetricsNamespace:        "rangeboard",
		MetricsSubsystem:        "dashboard",
		MetricsRefreshMS:        10_000,
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.APIEndpoint == "" {
		return fmt.Errorf("%w: api_endpoint must not be empty", ErrInvalidConfig)
	}
	u, err := url.Parse(c.APIEndpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: api_endpoint must be an absolute URL", ErrInvalidConfig)
	}
	switch {
	case c.RequestTimeoutMS <= 0:
		return fmt.Errorf("%w: request_timeout_ms must be positive", ErrInvalidConfig)
	case c.RetryMax < 0:
		return fmt.Errorf("%w: retry_max must not be negative", ErrInvalidConfig)
	case c.CatalogCacheTTLSeconds < 0:
		return fmt.Errorf("%w: catalog_cache_ttl_seconds must not be negative", ErrInvalidConfig)
	case c.NotificationQueueSize <= 0:
		return fmt.Errorf("%w: notification_queue_size must be positive", ErrInvalidConfig)
	case c.LiveOutboxSize <= 0:
		return fmt.Errorf("%w: live_outbox_size must be positive", ErrInvalidConfig)
	case c.SubscriptionReconnectMS <= 0:
		return fmt.Errorf("%w: subscription_reconnect_ms must be positive", ErrInvalidConfig)
	case c.MetricsRefreshMS <= 0:
		return fmt.Errorf("%w: metrics_refresh_ms must be positive", ErrInvalidConfig)
	case !slices.IsSorted(c.MetricsLatencyBuckets) || len(slices.Compact(slices.Clone(c.MetricsLatencyBuckets))) != len(c.MetricsLatencyBuckets):
		return fmt.Errorf("%w: metrics_latency_buckets must be strictly increasing", ErrInvalidConfig)
	}
	return nil
}

// GraphQLURL returns the HTTP endpoint for queries and mutations.
func (c *Config) GraphQLURL() string {
	return strings.TrimRight(c.APIEndpoint, "/") + c.GraphQLPath
}

// SubscriptionEndpoint returns the websocket URL for live updates.
func (c *Config) SubscriptionEndpoint() string {
	if c.SubscriptionURL != "" {
		return c.SubscriptionURL
	}
	u := c.GraphQLURL()
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// CatalogCacheTTL returns CatalogCacheTTLSeconds as a duration.
func (c *Config) CatalogCacheTTL() time.Duration {
	return time.Duration(c.CatalogCacheTTLSeconds) * time.Second
}

// MetricsRefresh returns MetricsRefreshMS as a duration.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshMS) * time.Millisecond
}

// SubscriptionReconnect returns SubscriptionReconnectMS as a duration.
func (c *Config) SubscriptionReconnect() time.Duration {
	return time.Duration(c.SubscriptionReconnectMS) * time.Millisecond
}
