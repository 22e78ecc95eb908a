package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timezone, timeout, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server      ServerConfig
	DB          DBConfig
	CORS        CORSConfig
	Log         LogConfig
	Admin       AdminConfig
	MercadoPago MercadoPagoConfig
	Email       EmailConfig
	Booking     BookingConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"America/Argentina/Buenos_Aires"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"America/Argentina/Buenos_Aires"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"-10800"` // -3*60*60
}

// AdminConfig guards administrative endpoints (expiry sweep trigger).
type AdminConfig struct {
	JWTSecret string `envconfig:"ADMIN_JWT_SECRET" required:"true"`
}

type MercadoPagoConfig struct {
	AccessToken   string        `envconfig:"MERCADO_PAGO_ACCESS_TOKEN" required:"true"`
	PublicKey     string        `envconfig:"MERCADO_PAGO_PUBLIC_KEY" required:"true"`
	BaseURL       string        `envconfig:"MERCADO_PAGO_BASE_URL" default:"https://api.mercadopago.com"`
	Timeout       time.Duration `envconfig:"MERCADO_PAGO_TIMEOUT" default:"5s"`
	FrontendURL   string        `envconfig:"FRONTEND_URL" required:"true"`
	BackendURL    string        `envconfig:"BACKEND_URL" required:"true"`
	CurrencyID    string        `envconfig:"MERCADO_PAGO_CURRENCY" default:"ARS"`
	PreferenceTTL time.Duration `envconfig:"MERCADO_PAGO_PREFERENCE_TTL" default:"24h"`
}

type EmailConfig struct {
	APIKeyPublic  string        `envconfig:"MAILJET_API_KEY" required:"true"`
	APIKeyPrivate string        `envconfig:"MAILJET_SECRET_KEY" required:"true"`
	BaseURL       string        `envconfig:"MAILJET_BASE_URL" default:"https://api.mailjet.com/v3"`
	FromAddress   string        `envconfig:"EMAIL_FROM" required:"true"`
	FromName      string        `envconfig:"EMAIL_FROM_NAME" default:"El Sosiego"`
	Timeout       time.Duration `envconfig:"EMAIL_TIMEOUT" default:"10s"`
}

type BookingConfig struct {
	NightlyRateCents int64  `envconfig:"BOOKING_NIGHTLY_RATE_CENTS" default:"4500000"`
	PropertyName     string `envconfig:"BOOKING_PROPERTY_NAME" default:"Casa de Campo El Sosiego"`
	SweepSchedule    string `envconfig:"BOOKING_SWEEP_SCHEDULE" default:"10 0 * * *"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "America/Argentina/Buenos_Aires",
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "America/Argentina/Buenos_Aires",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: -10800,
		},
		Admin: AdminConfig{
			JWTSecret: "test-admin-secret",
		},
		Booking: BookingConfig{
			NightlyRateCents: 4500000,
			PropertyName:     "Casa de Campo El Sosiego",
			SweepSchedule:    "10 0 * * *",
		},
	}
}
