package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env         string
	Port        int
	BasePath    string
	CORSOrigins []string

	StoreDriver string
	MongoURI    string
	MongoDB     string

	JWTSecret string
	JWTTTL    time.Duration
	ClientURL string

	SMTP SMTPConfig

	StorageDriver string
	S3            S3Config

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	LogLevel  string
	LogFormat string

	RateLimitRPS   float64
	RateLimitBurst int

	RequirePrescriptionFront bool
	ConcealUnknownEmail      bool
	ResetTokenTTL            time.Duration
	ResetSweepSchedule       string
	MaxUploadBytes           int64
	Location                 *time.Location

	AdminName     string
	AdminEmail    string
	AdminPassword string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Secure   bool
	User     string
	Password string
	From     string
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	UsePathStyle    bool
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

/*
* Load the .env file when present, environment variables win over it
* Apply defaults for everything optional
* Refuse to start a production server without its secrets
 */
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	loc, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("config: TIMEZONE: %w", err)
	}

	cfg := &Config{
		Env:         v.GetString("ENV"),
		Port:        v.GetInt("PORT"),
		BasePath:    v.GetString("API_BASE_PATH"),
		CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),

		StoreDriver: v.GetString("STORE_DRIVER"),
		MongoURI:    v.GetString("MONGO_URI"),
		MongoDB:     v.GetString("MONGO_DB"),

		JWTSecret: v.GetString("JWT_SECRET"),
		JWTTTL:    v.GetDuration("JWT_TTL"),
		ClientURL: strings.TrimRight(v.GetString("CLIENT_URL"), "/"),

		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Secure:   v.GetBool("SMTP_SECURE"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASS"),
			From:     v.GetString("EMAIL_FROM"),
		},

		StorageDriver: v.GetString("STORAGE_DRIVER"),
		S3: S3Config{
			Bucket:          v.GetString("S3_BUCKET"),
			Region:          v.GetString("S3_REGION"),
			Endpoint:        v.GetString("S3_ENDPOINT"),
			AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
			PublicBaseURL:   strings.TrimRight(v.GetString("S3_PUBLIC_BASE_URL"), "/"),
			UsePathStyle:    v.GetBool("S3_USE_PATH_STYLE"),
		},

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		CacheTTL:      v.GetDuration("CACHE_TTL"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),

		RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),

		RequirePrescriptionFront: v.GetBool("REQUIRE_PRESCRIPTION_FRONT"),
		ConcealUnknownEmail:      v.GetBool("RESET_CONCEAL_UNKNOWN_EMAIL"),
		ResetTokenTTL:            v.GetDuration("RESET_TOKEN_TTL"),
		ResetSweepSchedule:       v.GetString("RESET_SWEEP_SCHEDULE"),
		MaxUploadBytes:           v.GetInt64("MAX_UPLOAD_MB") << 20,
		Location:                 loc,

		AdminName:     v.GetString("ADMIN_NAME"),
		AdminEmail:    v.GetString("ADMIN_EMAIL"),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),
	}

	if cfg.S3.PublicBaseURL == "" && cfg.S3.Bucket != "" {
		cfg.S3.PublicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3.Bucket, cfg.S3.Region)
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "console"
		if cfg.IsProduction() {
			cfg.LogFormat = "json"
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_BASE_PATH", "/api/auth")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("STORE_DRIVER", "mongo")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "patient_registration")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("CLIENT_URL", "http://localhost:3000")
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_SECURE", false)
	v.SetDefault("EMAIL_FROM", `"Patient Registration" <noreply@patientregistration.com>`)
	v.SetDefault("STORAGE_DRIVER", "mock")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "10m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("REQUIRE_PRESCRIPTION_FRONT", false)
	v.SetDefault("RESET_CONCEAL_UNKNOWN_EMAIL", false)
	v.SetDefault("RESET_TOKEN_TTL", "10m")
	v.SetDefault("RESET_SWEEP_SCHEDULE", "@every 15m")
	v.SetDefault("MAX_UPLOAD_MB", 10)
	v.SetDefault("TIMEZONE", "UTC")
}

func (c *Config) validate() error {
	var errs []error
	if c.JWTSecret == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("JWT_SECRET is required in production"))
		} else {
			c.JWTSecret = "development-only-secret"
		}
	}
	switch c.StoreDriver {
	case "mongo":
		if c.IsProduction() && c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required in production"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	switch c.StorageDriver {
	case "s3":
		if c.S3.Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when STORAGE_DRIVER=s3"))
		}
	case "mock":
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}
	if c.Port <= 0 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}
	if c.JWTTTL <= 0 || c.ResetTokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL and RESET_TOKEN_TTL must be positive"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
