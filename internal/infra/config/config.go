package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App         AppSettings         `mapstructure:"app"`
	Postgres    PostgresSettings    `mapstructure:"postgres"`
	Redis       RedisSettings       `mapstructure:"redis"`
	Kafka       KafkaSettings       `mapstructure:"kafka"`
	Telemetry   TelemetrySettings   `mapstructure:"telemetry"`
	OIDC        OIDCSettings        `mapstructure:"oidc"`
	LegacyAPI   LegacyAPISettings   `mapstructure:"legacy_api"`
	Tokens      TokenSettings       `mapstructure:"tokens"`
	Integration IntegrationSettings `mapstructure:"integration"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures the best-effort token-touch coalescing queue.
type RedisSettings struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	DB          int           `mapstructure:"db"`
	Password    string        `mapstructure:"password"`
	TLSEnabled  bool          `mapstructure:"tls_enabled"`
	TouchPrefix string        `mapstructure:"touch_prefix"`
	TouchTTL    time.Duration `mapstructure:"touch_ttl"`
}

// KafkaSettings configures the audit log mirror producer.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	Async       bool     `mapstructure:"async"`
}

// OIDCSettings configures the external session guard used by the admin
// write API (C. SUPPLEMENTED FEATURES).
type OIDCSettings struct {
	IssuerURL    string `mapstructure:"issuer_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// LegacyAPISettings configures the unauthenticated legacy v0 surface and
// its rate limiting.
type LegacyAPISettings struct {
	Enabled            bool          `mapstructure:"enabled"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
	RateLimitPerWindow int           `mapstructure:"rate_limit_per_window"`
}

// TokenSettings configures API token bookkeeping behavior (§4.4).
type TokenSettings struct {
	TouchMode string `mapstructure:"touch_mode"`
}

// IntegrationSettings configures scheduled integration tasks (§4.5).
type IntegrationSettings struct {
	GoogleWorkspaceEnabled bool          `mapstructure:"google_workspace_enabled"`
	ReconcileOnStartup     bool          `mapstructure:"reconcile_on_startup"`
	RunTimeout             time.Duration `mapstructure:"run_timeout"`
}

type TelemetrySettings struct {
	MetricsPort     int     `mapstructure:"metrics_port"`
	TracingEndpoint string  `mapstructure:"tracing_endpoint"`
	OTLPEndpoint    string  `mapstructure:"otlp_endpoint"`
	ServiceName     string  `mapstructure:"service_name"`
	SamplingRate    float64 `mapstructure:"sampling_rate"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("HIVE")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.touch_prefix",
		"redis.touch_ttl",
		"kafka.brokers",
		"kafka.topic_prefix",
		"kafka.async",
		"oidc.issuer_url",
		"oidc.client_id",
		"oidc.client_secret",
		"oidc.redirect_url",
		"legacy_api.enabled",
		"legacy_api.rate_limit_window",
		"legacy_api.rate_limit_per_window",
		"tokens.touch_mode",
		"integration.google_workspace_enabled",
		"integration.reconcile_on_startup",
		"integration.run_timeout",
		"telemetry.metrics_port",
		"telemetry.tracing_endpoint",
		"telemetry.otlp_endpoint",
		"telemetry.service_name",
		"telemetry.sampling_rate",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "hive")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "hive")
	v.SetDefault("postgres.password", "hive_password")
	v.SetDefault("postgres.database", "hive")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.touch_prefix", "hive:token_touch")
	v.SetDefault("redis.touch_ttl", "10m")

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic_prefix", "hive")
	v.SetDefault("kafka.async", true)

	v.SetDefault("oidc.issuer_url", "")
	v.SetDefault("oidc.client_id", "")
	v.SetDefault("oidc.client_secret", "")
	v.SetDefault("oidc.redirect_url", "")

	v.SetDefault("legacy_api.enabled", true)
	v.SetDefault("legacy_api.rate_limit_window", "1m")
	v.SetDefault("legacy_api.rate_limit_per_window", 60)

	v.SetDefault("tokens.touch_mode", "lenient")

	v.SetDefault("integration.google_workspace_enabled", false)
	v.SetDefault("integration.reconcile_on_startup", true)
	v.SetDefault("integration.run_timeout", "30m")

	v.SetDefault("telemetry.metrics_port", 9090)
	v.SetDefault("telemetry.tracing_endpoint", "http://localhost:4317")
	v.SetDefault("telemetry.otlp_endpoint", "http://localhost:4318")
	v.SetDefault("telemetry.service_name", "hive")
	v.SetDefault("telemetry.sampling_rate", 1.0)
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "HIVE_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
