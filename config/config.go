package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del tracker.
type Config struct {
	Tracker TrackerConfig `yaml:"tracker"`
	Feed    FeedConfig    `yaml:"feed"`
	Hedge   HedgeConfig   `yaml:"hedge"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// TrackerConfig controla el loop de evaluación de parlays.
type TrackerConfig struct {
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	MinSeverity         string `yaml:"min_severity"` // at_risk | danger
	DedupTTLSeconds     int    `yaml:"dedup_ttl_seconds"`
}

// FeedConfig contiene los endpoints del feed de stats en vivo.
type FeedConfig struct {
	BaseURL             string `yaml:"base_url"`
	StreamURL           string `yaml:"stream_url"` // SSE; vacío = solo polling
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
}

// HedgeConfig contiene el endpoint del servicio de hedge.
type HedgeConfig struct {
	BaseURL       string `yaml:"base_url"`
	ExpoPushToken string `yaml:"expo_push_token"`
}

// StorageConfig controla dónde se persisten los parlays trackeados.
type StorageConfig struct {
	Backend   string `yaml:"backend"`    // sqlite | redis
	DSN       string `yaml:"dsn"`        // ruta al archivo SQLite, o ":memory:"
	RedisAddr string `yaml:"redis_addr"` // host:port
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// PollInterval devuelve el intervalo del hedge poller como time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Tracker.PollIntervalSeconds) * time.Second
}

// DedupTTL devuelve la ventana de dedup de alertas como time.Duration.
func (c *Config) DedupTTL() time.Duration {
	return time.Duration(c.Tracker.DedupTTLSeconds) * time.Second
}

// FeedPollInterval devuelve el intervalo de polling del feed.
func (c *Config) FeedPollInterval() time.Duration {
	return time.Duration(c.Feed.PollIntervalSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FEED_BASE_URL"); v != "" {
		cfg.Feed.BaseURL = v
	}
	if v := os.Getenv("FEED_STREAM_URL"); v != "" {
		cfg.Feed.StreamURL = v
	}
	if v := os.Getenv("HEDGE_BASE_URL"); v != "" {
		cfg.Hedge.BaseURL = v
	}
	if v := os.Getenv("EXPO_PUSH_TOKEN"); v != "" {
		cfg.Hedge.ExpoPushToken = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Storage.RedisAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Tracker.PollIntervalSeconds <= 0 {
		cfg.Tracker.PollIntervalSeconds = 30
	}
	if cfg.Tracker.MinSeverity == "" {
		cfg.Tracker.MinSeverity = "at_risk"
	}
	if cfg.Tracker.DedupTTLSeconds <= 0 {
		cfg.Tracker.DedupTTLSeconds = 300
	}
	if cfg.Feed.PollIntervalSeconds <= 0 {
		cfg.Feed.PollIntervalSeconds = 30
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "sqlite"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "parlaywatch.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
