package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the platform reads.
	EnvPrefix = "distrokhata"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	OrderWindow  OrderWindowConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.OrderWindow.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"DISTROKHATA_APP_ENV" required:"true"`
	Port         string   `envconfig:"DISTROKHATA_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"DISTROKHATA_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"DISTROKHATA_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"DISTROKHATA_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"DISTROKHATA_DB_DSN"`

	Host     string `envconfig:"DISTROKHATA_DB_HOST"`
	Port     int    `envconfig:"DISTROKHATA_DB_PORT" default:"5432"`
	User     string `envconfig:"DISTROKHATA_DB_USER"`
	Password string `envconfig:"DISTROKHATA_DB_PASSWORD"`
	Name     string `envconfig:"DISTROKHATA_DB_NAME"`
	SSLMode  string `envconfig:"DISTROKHATA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DISTROKHATA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DISTROKHATA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DISTROKHATA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DISTROKHATA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either DISTROKHATA_DB_DSN or host/user/name settings are required")
	}
	d.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(d.Password),
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"DISTROKHATA_REDIS_URL"`
	Address      string        `envconfig:"DISTROKHATA_REDIS_ADDR"`
	Password     string        `envconfig:"DISTROKHATA_REDIS_PASSWORD"`
	DB           int           `envconfig:"DISTROKHATA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DISTROKHATA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DISTROKHATA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DISTROKHATA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DISTROKHATA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DISTROKHATA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"DISTROKHATA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DISTROKHATA_JWT_ISSUER" default:"distrokhata"`
	ExpirationMinutes int    `envconfig:"DISTROKHATA_JWT_EXPIRATION_MINUTES" default:"720"`
}

// OrderWindowConfig describes the two daily ordering windows. Orders placed
// inside one window target the opposite window for delivery.
type OrderWindowConfig struct {
	Enabled      bool   `envconfig:"DISTROKHATA_ORDER_WINDOW_ENABLED" default:"true"`
	Timezone     string `envconfig:"DISTROKHATA_ORDER_WINDOW_TZ" default:"Asia/Kolkata"`
	MorningStart string `envconfig:"DISTROKHATA_ORDER_WINDOW_MORNING_START" default:"05:00"`
	MorningEnd   string `envconfig:"DISTROKHATA_ORDER_WINDOW_MORNING_END" default:"11:00"`
	EveningStart string `envconfig:"DISTROKHATA_ORDER_WINDOW_EVENING_START" default:"16:00"`
	EveningEnd   string `envconfig:"DISTROKHATA_ORDER_WINDOW_EVENING_END" default:"21:00"`
}

// Validate checks the window boundaries parse as HH:MM clock times and the
// timezone resolves.
func (w OrderWindowConfig) Validate() error {
	if _, err := time.LoadLocation(w.Timezone); err != nil {
		return fmt.Errorf("invalid order window timezone %q: %w", w.Timezone, err)
	}
	for _, boundary := range []string{w.MorningStart, w.MorningEnd, w.EveningStart, w.EveningEnd} {
		if _, err := time.Parse("15:04", boundary); err != nil {
			return fmt.Errorf("invalid order window boundary %q: %w", boundary, err)
		}
	}
	return nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DISTROKHATA_FEATURE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"DISTROKHATA_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrderEventsTopic string        `envconfig:"DISTROKHATA_PUBSUB_ORDER_EVENTS_TOPIC" default:"order-events"`
	PublishTimeout   time.Duration `envconfig:"DISTROKHATA_PUBSUB_PUBLISH_TIMEOUT" default:"5s"`
}
