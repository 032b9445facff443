package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTP        HTTP
	Postgres    Postgres
	Redis       Redis
	API         API
	Cache       Cache
	Jobs        Jobs
	Import      Import
	GoogleDrive GoogleDrive
}

type HTTP struct {
	Port           int           `env:"HTTP_PORT" envDefault:"8080"`
	ReadTimeout    time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout   time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
	RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"55s"`
	AllowedOrigins []string      `env:"HTTP_ALLOWED_ORIGINS" envDefault:"*"`
}

type Postgres struct {
	Host            string `env:"PG_HOST"`
	Port            int    `env:"PG_PORT"`
	DbName          string `env:"PG_DB_NAME"`
	Password        string `env:"PG_PASSWORD"`
	User            string `env:"PG_USER"`
	MaxOpenConns    int    `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
	ConnMaxLifetime int    `env:"PG_CONN_MAX_LIFETIME" envDefault:"300"`
	MaxIdleConns    int    `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxIdleTime int    `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"60"`
	MigrationDir    string `env:"PG_MIGRATION_DIR" envDefault:"migrations"`

	ConnAttempts  int           `env:"PG_CONN_ATTEMPTS" envDefault:"10"`
	ConnTimeout   time.Duration `env:"PG_CONN_TIMEOUT" envDefault:"5s"`
	RetryInterval time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"1s"`
}

type Redis struct {
	Host     string `env:"REDIS_HOST"`
	Port     int    `env:"REDIS_PORT"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type API struct {
	Debug    bool          `env:"API_DEBUG" envDefault:"false"`
	Timeout  time.Duration `env:"API_TIMEOUT" envDefault:"10s"`
	QuoteApi QuoteApi
}

type QuoteApi struct {
	Url       string `env:"QUOTE_API_URL" envDefault:"https://query2.finance.yahoo.com"`
	UserAgent string `env:"QUOTE_API_USER_AGENT" envDefault:"portfolio-tracker/1.0"`
}

type Cache struct {
	QuotesExpiration time.Duration `env:"CACHE_QUOTES_EXPIRATION" envDefault:"5m"`
}

type Jobs struct {
	RefreshPricesInterval time.Duration `env:"REFRESH_PRICES_JOB_INTERVAL" envDefault:"15m"`
	CleanupExportsCrontab string        `env:"CLEANUP_EXPORTS_JOB_CRONTAB" envDefault:"0 3 * * *"`
}

type Import struct {
	MaxBytes   int64         `env:"IMPORT_MAX_BYTES" envDefault:"10485760"`
	Workers    int           `env:"IMPORT_WORKERS" envDefault:"8"`
	RowTimeout time.Duration `env:"IMPORT_ROW_TIMEOUT" envDefault:"10s"`
}

// GoogleDrive is optional: with an empty credentials file exports are only
// streamed back to the caller.
type GoogleDrive struct {
	CredentialsFile string        `env:"GOOGLE_DRIVE_CREDENTIALS_FILE" envDefault:""`
	FileTTL         time.Duration `env:"GOOGLE_DRIVE_FILE_TTL" envDefault:"24h"`
}

func (g GoogleDrive) Enabled() bool {
	return g.CredentialsFile != ""
}

func MustLoad() *Config {
	_ = godotenv.Load(".env")

	cfg := &Config{}

	opts := env.Options{RequiredIfNoDef: true}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		log.Fatalf("parse config error: %s", err)
	}

	return cfg
}
