package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Medusa    MedusaConfig
	Backend   BackendConfig
	Pricing   PricingConfig
	Payment   PaymentConfig
	Store     StoreConfig
	Email     EmailConfig
	Breaker   BreakerConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	StateTTL time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

// MedusaConfig points at the commerce platform's store API
type MedusaConfig struct {
	BaseURL        string
	PublishableKey string
	RegionID       string
	Timeout        time.Duration
}

// BackendConfig points at the storefront backend (wishlist, coupons, gift cards, config, payments)
type BackendConfig struct {
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
}

type PricingConfig struct {
	TaxRate         float64
	DefaultCurrency string
}

type PaymentConfig struct {
	RazorpayKeyID        string
	RazorpayKeySecret    string
	StripePublishableKey string
	AttemptTimeout       time.Duration
	ResumeInterval       time.Duration
}

type StoreConfig struct {
	SyncPolicy  string
	QueueSize   int
	SessionTTL  time.Duration
	SyncTimeout time.Duration
}

type EmailConfig struct {
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	FromName      string
	FromEmail     string
	StorefrontURL string
}

type BreakerConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	// Set defaults
	viper.SetDefault("APP_NAME", "storefront")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_STATE_TTL_HOURS", 720)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "storefront")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "Asia/Kolkata")
	viper.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	viper.SetDefault("JWT_EXPIRY_HOURS", 720)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
	viper.SetDefault("MEDUSA_BASE_URL", "http://localhost:9000")
	viper.SetDefault("MEDUSA_PUBLISHABLE_KEY", "")
	viper.SetDefault("MEDUSA_REGION_ID", "")
	viper.SetDefault("MEDUSA_TIMEOUT_SECONDS", 10)
	viper.SetDefault("BACKEND_BASE_URL", "http://localhost:3000/api")
	viper.SetDefault("BACKEND_SERVICE_KEY", "")
	viper.SetDefault("BACKEND_TIMEOUT_SECONDS", 10)
	viper.SetDefault("TAX_RATE", 0.18)
	viper.SetDefault("DEFAULT_CURRENCY", "INR")
	viper.SetDefault("RAZORPAY_KEY_ID", "")
	viper.SetDefault("RAZORPAY_KEY_SECRET", "")
	viper.SetDefault("STRIPE_PUBLISHABLE_KEY", "")
	viper.SetDefault("PAYMENT_ATTEMPT_TIMEOUT_MINUTES", 15)
	viper.SetDefault("PAYMENT_RESUME_INTERVAL_MINUTES", 5)
	viper.SetDefault("STORE_SYNC_POLICY", "rollback")
	viper.SetDefault("STORE_QUEUE_SIZE", 64)
	viper.SetDefault("STORE_SESSION_TTL_MINUTES", 30)
	viper.SetDefault("STORE_SYNC_TIMEOUT_SECONDS", 15)
	viper.SetDefault("SMTP_HOST", "")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_FROM_NAME", "Storefront")
	viper.SetDefault("SMTP_FROM_EMAIL", "orders@localhost")
	viper.SetDefault("STOREFRONT_URL", "http://localhost:3000")
	viper.SetDefault("BREAKER_MAX_REQUESTS", 3)
	viper.SetDefault("BREAKER_INTERVAL_SECONDS", 60)
	viper.SetDefault("BREAKER_TIMEOUT_SECONDS", 30)
	viper.SetDefault("BREAKER_FAILURE_RATIO", 0.6)
	viper.SetDefault("BREAKER_MIN_REQUESTS", 5)

	return &Config{
		App: AppConfig{
			Name:  viper.GetString("APP_NAME"),
			Env:   viper.GetString("APP_ENV"),
			Port:  viper.GetString("APP_PORT"),
			Debug: viper.GetBool("APP_DEBUG"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			StateTTL: time.Duration(viper.GetInt("REDIS_STATE_TTL_HOURS")) * time.Hour,
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			Timezone: viper.GetString("DB_TIMEZONE"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
			Expiry: time.Duration(viper.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
		Medusa: MedusaConfig{
			BaseURL:        viper.GetString("MEDUSA_BASE_URL"),
			PublishableKey: viper.GetString("MEDUSA_PUBLISHABLE_KEY"),
			RegionID:       viper.GetString("MEDUSA_REGION_ID"),
			Timeout:        time.Duration(viper.GetInt("MEDUSA_TIMEOUT_SECONDS")) * time.Second,
		},
		Backend: BackendConfig{
			BaseURL:    viper.GetString("BACKEND_BASE_URL"),
			ServiceKey: viper.GetString("BACKEND_SERVICE_KEY"),
			Timeout:    time.Duration(viper.GetInt("BACKEND_TIMEOUT_SECONDS")) * time.Second,
		},
		Pricing: PricingConfig{
			TaxRate:         viper.GetFloat64("TAX_RATE"),
			DefaultCurrency: viper.GetString("DEFAULT_CURRENCY"),
		},
		Payment: PaymentConfig{
			RazorpayKeyID:        viper.GetString("RAZORPAY_KEY_ID"),
			RazorpayKeySecret:    viper.GetString("RAZORPAY_KEY_SECRET"),
			StripePublishableKey: viper.GetString("STRIPE_PUBLISHABLE_KEY"),
			AttemptTimeout:       time.Duration(viper.GetInt("PAYMENT_ATTEMPT_TIMEOUT_MINUTES")) * time.Minute,
			ResumeInterval:       time.Duration(viper.GetInt("PAYMENT_RESUME_INTERVAL_MINUTES")) * time.Minute,
		},
		Store: StoreConfig{
			SyncPolicy:  viper.GetString("STORE_SYNC_POLICY"),
			QueueSize:   viper.GetInt("STORE_QUEUE_SIZE"),
			SessionTTL:  time.Duration(viper.GetInt("STORE_SESSION_TTL_MINUTES")) * time.Minute,
			SyncTimeout: time.Duration(viper.GetInt("STORE_SYNC_TIMEOUT_SECONDS")) * time.Second,
		},
		Email: EmailConfig{
			SMTPHost:      viper.GetString("SMTP_HOST"),
			SMTPPort:      viper.GetInt("SMTP_PORT"),
			SMTPUsername:  viper.GetString("SMTP_USERNAME"),
			SMTPPassword:  viper.GetString("SMTP_PASSWORD"),
			FromName:      viper.GetString("SMTP_FROM_NAME"),
			FromEmail:     viper.GetString("SMTP_FROM_EMAIL"),
			StorefrontURL: viper.GetString("STOREFRONT_URL"),
		},
		Breaker: BreakerConfig{
			MaxRequests:  uint32(viper.GetInt("BREAKER_MAX_REQUESTS")),
			Interval:     time.Duration(viper.GetInt("BREAKER_INTERVAL_SECONDS")) * time.Second,
			Timeout:      time.Duration(viper.GetInt("BREAKER_TIMEOUT_SECONDS")) * time.Second,
			FailureRatio: viper.GetFloat64("BREAKER_FAILURE_RATIO"),
			MinRequests:  uint32(viper.GetInt("BREAKER_MIN_REQUESTS")),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}
