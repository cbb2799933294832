package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Uploads      UploadsConfig
	Sync         SyncConfig
	Drive        DriveConfig
	Recaptcha    RecaptchaConfig
	RateLimit    RateLimitConfig
	Magazines    MagazinesConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Relay        RelayConfig
	Metrics      MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if cfg.Uploads.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("%s must be positive", EnvMaxUploadMB)
	}
	if cfg.Sync.Interval <= 0 {
		return nil, fmt.Errorf("%s must be positive", EnvSyncInterval)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GALATA_APP_ENV" required:"true"`
	Port         string `envconfig:"GALATA_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"GALATA_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"GALATA_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"GALATA_LOG_WARN_STACK" default:"false"`
	InstanceID   string `envconfig:"GALATA_INSTANCE_ID"`

	// CORSOrigins lists the sites allowed to call the JSON endpoints.
	CORSOrigins     []string      `envconfig:"GALATA_CORS_ORIGINS" default:"https://galatadergisi.org,https://www.galatadergisi.org"`
	// ShutdownTimeout bounds how long in-flight requests may take after a signal.
	ShutdownTimeout time.Duration `envconfig:"GALATA_SHUTDOWN_TIMEOUT" default:"30s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"GALATA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GALATA_DB_DSN"`
	Driver string `envconfig:"GALATA_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"GALATA_DB_HOST"`
	Port     int    `envconfig:"GALATA_DB_PORT" default:"5432"`
	User     string `envconfig:"GALATA_DB_USER"`
	Password string `envconfig:"GALATA_DB_PASSWORD"`
	Name     string `envconfig:"GALATA_DB_NAME"`
	SSLMode  string `envconfig:"GALATA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GALATA_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"GALATA_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"GALATA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GALATA_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQuery logs statements at warn level once they take longer.
	SlowQuery  time.Duration `envconfig:"GALATA_DB_SLOW_QUERY" default:"500ms"`
	LogQueries bool          `envconfig:"GALATA_DB_LOG_QUERIES" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GALATA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GALATA_REDIS_ADDR"`
	Password     string        `envconfig:"GALATA_REDIS_PASSWORD"`
	DB           int           `envconfig:"GALATA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GALATA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GALATA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GALATA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GALATA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GALATA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GALATA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GALATA_AUTO_MIGRATE" default:"false"`
}

type UploadsConfig struct {
	Dir         string `envconfig:"GALATA_UPLOADS_DIR" default:"uploads"`
	MaxUploadMB int    `envconfig:"GALATA_MAX_UPLOAD_MB" default:"50"`
}

// MaxBytes returns the per-file upload limit in bytes.
func (u UploadsConfig) MaxBytes() int64 {
	return int64(u.MaxUploadMB) << 20
}

type SyncConfig struct {
	Interval      time.Duration `envconfig:"GALATA_SYNC_INTERVAL" default:"60s"`
	LockTTL       time.Duration `envconfig:"GALATA_SYNC_LOCK_TTL" default:"30m"`
	TimeZone      string        `envconfig:"GALATA_SYNC_TIMEZONE" default:"Europe/Istanbul"`
	RetentionDays int           `envconfig:"GALATA_NOTIFICATION_RETENTION_DAYS" default:"30"`
}

// Location resolves the configured time zone, falling back to UTC.
func (s SyncConfig) Location() *time.Location {
	if strings.TrimSpace(s.TimeZone) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type DriveConfig struct {
	// TokenURL and Endpoint are only overridden in tests and local fakes.
	TokenURL     string        `envconfig:"GALATA_DRIVE_TOKEN_URL"`
	Endpoint     string        `envconfig:"GALATA_DRIVE_ENDPOINT"`
	RefreshSkew  time.Duration `envconfig:"GALATA_DRIVE_REFRESH_SKEW" default:"5m"`
	StartupCheck bool          `envconfig:"GALATA_DRIVE_STARTUP_CHECK" default:"true"`
}

type RecaptchaConfig struct {
	VerifyURL string        `envconfig:"GALATA_RECAPTCHA_VERIFY_URL" default:"https://www.google.com/recaptcha/api/siteverify"`
	Timeout   time.Duration `envconfig:"GALATA_RECAPTCHA_TIMEOUT" default:"10s"`
}

type RateLimitConfig struct {
	SubmissionWindow  time.Duration `envconfig:"GALATA_RATE_LIMIT_SUBMISSION_WINDOW" default:"10m"`
	SubmissionIPLimit int           `envconfig:"GALATA_RATE_LIMIT_SUBMISSION_IP_LIMIT" default:"10"`
}

type MagazinesConfig struct {
	IndexPath string        `envconfig:"GALATA_MAGAZINES_INDEX_PATH" default:"public/index.html"`
	StaticDir string        `envconfig:"GALATA_STATIC_DIR" default:"public"`
	CacheSize int           `envconfig:"GALATA_MAGAZINES_CACHE_SIZE" default:"64"`
	CacheTTL  time.Duration `envconfig:"GALATA_MAGAZINES_CACHE_TTL" default:"5m"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"GALATA_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	NotificationTopic string        `envconfig:"GALATA_PUBSUB_NOTIFICATION_TOPIC" default:"galata-notifications"`
	PublishTimeout    time.Duration `envconfig:"GALATA_PUBSUB_PUBLISH_TIMEOUT" default:"30s"`
}

// RelayConfig tunes cmd/notification-relay.
type RelayConfig struct {
	BatchSize    int           `envconfig:"GALATA_RELAY_BATCH_SIZE" default:"50"`
	PollInterval time.Duration `envconfig:"GALATA_RELAY_POLL_INTERVAL" default:"1s"`
	MaxAttempts  int           `envconfig:"GALATA_RELAY_MAX_ATTEMPTS" default:"10"`
	MaxBackoff   time.Duration `envconfig:"GALATA_RELAY_MAX_BACKOFF" default:"30s"`
}

type MetricsConfig struct {
	Port string `envconfig:"GALATA_METRICS_PORT" default:"9090"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.DSN = "galata.db"
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
