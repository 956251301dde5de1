package configs

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/nowly-app/nowly/internal/infrastructure/env"
)

type Config struct {
	HTTP        HTTPConfig        `koanf:"http"`
	RateLimiter RateLimiterConfig `koanf:"rateLimiter"`
	RoomStore   RoomStoreConfig   `koanf:"room_store"`
	Presence    PresenceConfig    `koanf:"presence"`
	Tracing     TracingConfig     `koanf:"tracing"`
}

type HTTPConfig struct {
	Host         string        `koanf:"host"`
	Port         uint16        `koanf:"port"`
	PublicURL    string        `koanf:"public_url"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type RateLimiterConfig struct {
	RequestsPerTimeFrame int           `koanf:"requestsPerTimeFrame"`
	TimeFrame            time.Duration `koanf:"timeFrame"`
}

type RoomStoreConfig struct {
	Capacity     uint          `koanf:"capacity"`
	ReapInterval time.Duration `koanf:"reap_interval"`
}

// PresenceConfig carries the engine's timing constants. The defaults match
// the original 2s publish / 2s sweep / 7s stale / 1.2s grace behavior.
type PresenceConfig struct {
	PublishInterval time.Duration `koanf:"publish_interval"`
	SweepInterval   time.Duration `koanf:"sweep_interval"`
	StaleThreshold  time.Duration `koanf:"stale_threshold"`
	RedirectGrace   time.Duration `koanf:"redirect_grace"`
}

type TracingConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Exporter string `koanf:"exporter"`
	Endpoint string `koanf:"endpoint"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyDefaults(k)
	applyEnvOverrides(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	setDefault(k, "http.host", "0.0.0.0")
	setDefault(k, "http.port", 8080)
	setDefault(k, "http.public_url", "http://localhost:8080")
	setDefault(k, "http.read_timeout", 10*time.Second)
	setDefault(k, "http.write_timeout", 30*time.Second)

	setDefault(k, "rateLimiter.requestsPerTimeFrame", 100)
	setDefault(k, "rateLimiter.timeFrame", 5*time.Second)

	setDefault(k, "room_store.capacity", 1000)
	setDefault(k, "room_store.reap_interval", 30*time.Second)

	setDefault(k, "presence.publish_interval", 2*time.Second)
	setDefault(k, "presence.sweep_interval", 2*time.Second)
	setDefault(k, "presence.stale_threshold", 7*time.Second)
	setDefault(k, "presence.redirect_grace", 1200*time.Millisecond)

	setDefault(k, "tracing.enabled", false)
	setDefault(k, "tracing.exporter", "otlp")
	setDefault(k, "tracing.endpoint", "http://jaeger:4318")
}

func applyEnvOverrides(k *koanf.Koanf) {
	if host := env.GetString("HTTP_HOST", ""); host != "" {
		k.Set("http.host", host)
	}
	if port := env.GetInt("HTTP_PORT", 0); port > 0 {
		k.Set("http.port", port)
	}
	if publicURL := env.GetString("PUBLIC_URL", ""); publicURL != "" {
		k.Set("http.public_url", publicURL)
	}

	if maxRequests := env.GetInt("RATE_LIMIT_REQUESTS_PER_TIME_FRAME", 0); maxRequests > 0 {
		k.Set("rateLimiter.requestsPerTimeFrame", maxRequests)
	}
	if frame := env.GetInt("RATE_LIMIT_TIME_FRAME_SECONDS", 0); frame > 0 {
		k.Set("rateLimiter.timeFrame", time.Duration(frame)*time.Second)
	}

	if capacity := env.GetInt("ROOM_STORE_CAPACITY", 0); capacity > 0 {
		k.Set("room_store.capacity", uint(capacity))
	}

	if env.GetBool("TRACING_ENABLED", false) {
		k.Set("tracing.enabled", true)
	}
	if exporter := env.GetString("TRACING_EXPORTER", ""); exporter != "" {
		k.Set("tracing.exporter", exporter)
	}
	if endpoint := env.GetString("TRACING_ENDPOINT", ""); endpoint != "" {
		k.Set("tracing.endpoint", endpoint)
	}
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value interface{}) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}
