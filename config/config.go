package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig holds the application configuration
type AppConfig struct {
	Env         string
	Port        string
	DBURL       string
	BearerToken string
	LogLevel    string
	LogFormat   string
	Timezone    string

	Redis RedisConfig
	SMTP  SMTPConfig

	WhatsAppGatewayURL string
	SMSGatewayURL      string
	SMSGatewayToken    string

	MidtransServerKey  string
	MidtransProduction bool

	SweepSchedule    string
	DispatchSchedule string
	DefaultCurrency  string
	DefaultChannel   string

	CorsOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// RedisConfig holds the Redis connection settings
type RedisConfig struct {
	URL          string
	PoolSize     int
	DialTimeout  time.Duration
	MinIdleConns int
	ReadTimeout  time.Duration
	MaxRetries   int
}

// SMTPConfig holds the outgoing mail settings
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

// GetBearerToken returns the BearerToken from the config
func (c *AppConfig) GetBearerToken() string {
	return c.BearerToken
}

// IsDevelopment reports whether the service runs in development mode.
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// Location returns the time zone used for day and month windows.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "production")
	v.SetDefault("PORT", "8930")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_DIAL_TIMEOUT", 30*time.Second)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 5)
	v.SetDefault("REDIS_READ_TIMEOUT", 10*time.Second)
	v.SetDefault("REDIS_MAX_RETRIES", 3)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("MIDTRANS_PRODUCTION", false)
	v.SetDefault("SWEEP_SCHEDULE", "*/15 * * * *")
	v.SetDefault("DISPATCH_SCHEDULE", "*/5 * * * *")
	v.SetDefault("DEFAULT_CURRENCY", "ARS")
	v.SetDefault("DEFAULT_CHANNEL", "WhatsApp")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 15)
	v.SetDefault("RATE_LIMIT_BURST", 30)
}

// Load reads the configuration from the environment, loading a .env file first when present.
func Load() (*AppConfig, error) {
	// A missing .env is fine; the process environment wins either way.
	_ = godotenv.Load()
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// FromViper builds the AppConfig from an already populated viper instance.
func FromViper(v *viper.Viper) (*AppConfig, error) {
	dbURL := v.GetString("DB_URL")
	if dbURL == "" {
		return nil, errors.New("missing DB_URL environment variable")
	}

	redisURL := v.GetString("REDIS_URL")
	if redisURL == "" {
		return nil, errors.New("missing REDIS_URL environment variable")
	}

	return &AppConfig{
		Env:         v.GetString("ENV"),
		Port:        v.GetString("PORT"),
		DBURL:       dbURL,
		BearerToken: v.GetString("BEARER_TOKEN"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		LogFormat:   v.GetString("LOG_FORMAT"),
		Timezone:    v.GetString("TIMEZONE"),
		Redis: RedisConfig{
			URL:          redisURL,
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
			MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
			ReadTimeout:  v.GetDuration("REDIS_READ_TIMEOUT"),
			MaxRetries:   v.GetInt("REDIS_MAX_RETRIES"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASS"),
		},
		WhatsAppGatewayURL: v.GetString("WHATSAPP_GATEWAY_URL"),
		SMSGatewayURL:      v.GetString("SMS_GATEWAY_URL"),
		SMSGatewayToken:    v.GetString("SMS_GATEWAY_TOKEN"),
		MidtransServerKey:  v.GetString("MIDTRANS_SERVER_KEY"),
		MidtransProduction: v.GetBool("MIDTRANS_PRODUCTION"),
		SweepSchedule:      v.GetString("SWEEP_SCHEDULE"),
		DispatchSchedule:   v.GetString("DISPATCH_SCHEDULE"),
		DefaultCurrency:    v.GetString("DEFAULT_CURRENCY"),
		DefaultChannel:     v.GetString("DEFAULT_CHANNEL"),
		CorsOrigins:        splitList(v.GetString("CORS_ORIGINS")),
		RateLimitRPS:       v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:     v.GetInt("RATE_LIMIT_BURST"),
	}, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
