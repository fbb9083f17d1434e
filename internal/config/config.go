package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string
	AppEnv     string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RabbitMQURI string

	VerifyBaseURL string
	VerifyToken   string
	VerifyTimeout time.Duration

	UseS3         bool
	S3Bucket      string
	S3Region      string
	CloudFrontURL string
	UploadDir     string

	BootstrapAdminName   string
	BootstrapAdminMobile string
	BootstrapAdminMPIN   string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		AppEnv:     getEnv("APP_ENV", "development"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "fincore"),

		JWTSecret: getEnv("JWT_SECRET", "supersecretkey"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RabbitMQURI: getEnv("RABBITMQ_URI", ""),

		VerifyBaseURL: getEnv("VERIFY_BASE_URL", "https://api.fincore.local"),
		VerifyToken:   getEnv("VERIFY_TOKEN", ""),
		VerifyTimeout: getEnvDuration("VERIFY_TIMEOUT", 15*time.Second),

		UseS3:         getEnv("USE_S3", "false") == "true",
		S3Bucket:      getEnv("S3_BUCKET", ""),
		S3Region:      getEnv("S3_REGION", "ap-south-1"),
		CloudFrontURL: getEnv("CLOUDFRONT_URL", ""),
		UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),

		BootstrapAdminName:   getEnv("BOOTSTRAP_ADMIN_NAME", "Super Admin"),
		BootstrapAdminMobile: getEnv("BOOTSTRAP_ADMIN_MOBILE", ""),
		BootstrapAdminMPIN:   getEnv("BOOTSTRAP_ADMIN_MPIN", ""),
	}

	log.Println("✅ Config loaded")
	return cfg
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return d
}
