package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "COLMENA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "COLMENA_APP_ENV"
	EnvDBDSN    = "COLMENA_DB_DSN"
	EnvDBHost   = "COLMENA_DB_HOST"
	EnvDBUser   = "COLMENA_DB_USER"
	EnvDBName   = "COLMENA_DB_NAME"
	EnvRedisURL = "COLMENA_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Reconciler   ReconcilerConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"COLMENA_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"COLMENA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"COLMENA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"COLMENA_SERVICE_KIND" default:"reconciler"`
}

type DBConfig struct {
	DSN    string `envconfig:"COLMENA_DB_DSN"`
	Driver string `envconfig:"COLMENA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"COLMENA_DB_HOST"`
	LegacyPort     int    `envconfig:"COLMENA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"COLMENA_DB_USER"`
	LegacyPassword string `envconfig:"COLMENA_DB_PASSWORD"`
	LegacyName     string `envconfig:"COLMENA_DB_NAME"`
	LegacySSLMode  string `envconfig:"COLMENA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"COLMENA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"COLMENA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"COLMENA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"COLMENA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"COLMENA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"COLMENA_REDIS_ADDR"`
	Password     string        `envconfig:"COLMENA_REDIS_PASSWORD"`
	DB           int           `envconfig:"COLMENA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"COLMENA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"COLMENA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"COLMENA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"COLMENA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"COLMENA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// ReconcilerConfig tunes the batch reconciliation worker.
type ReconcilerConfig struct {
	Interval time.Duration `envconfig:"COLMENA_RECONCILER_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"COLMENA_RECONCILER_LOCK_TTL" default:"2h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"COLMENA_FEATURE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
