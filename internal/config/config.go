package config

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreMemory   = "memory"
)

type DB struct {
	DbHOST     string
	DbPORT     string
	DbUSER     string
	DbPASSWORD string
	DbNAME     string
	DbSSLMODE  string
	Migrations string
}

type Mongo struct {
	URI      string
	Database string
}

type MinIO struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
	UseSSL     bool
	Region     string
	PublicURL  string
}

type SMTP struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Cookie describes how the credential cookie is written and cleared.
type Cookie struct {
	Name     string
	Secure   bool
	SameSite http.SameSite
}

type Config struct {
	ServerPort    int
	Env           string
	StoreDriver   string
	DB            DB
	Mongo         Mongo
	MinIO         MinIO
	SMTP          SMTP
	Cookie        Cookie
	JWTSecretKey  string
	TokenDuration time.Duration
	ResetTokenTTL time.Duration
	FrontendURI   string
	MaxUploadSize int64
	StoreTimeout  time.Duration
	MediaTimeout  time.Duration
	ExposeErrors  bool
}

// IsDevelopment reports whether the process runs with NODE_ENV=DEVELOPMENT.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "DEVELOPMENT")
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
			return duration
		}
	}
	return fallback
}

func LoadDB() DB {
	return DB{
		DbHOST:     getEnv("DB_HOST", "localhost"),
		DbPORT:     getEnv("DB_PORT", "5432"),
		DbUSER:     getEnv("DB_USER", "postgres"),
		DbPASSWORD: getEnv("DB_PASSWORD", "password"),
		DbNAME:     getEnv("DB_NAME", "tweetline"),
		DbSSLMODE:  getEnv("DB_SSLMODE", "disable"),
		Migrations: getEnv("MIGRATIONS_PATH", "migrations/001_create_tables.sql"),
	}
}

func LoadMongo() Mongo {
	return Mongo{
		URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		Database: getEnv("MONGO_DB", "tweetline"),
	}
}

func LoadMinIO() MinIO {
	useSSL := getEnvBool("MINIO_USE_SSL", false)
	endpoint := getEnv("MINIO_ENDPOINT", "localhost:9000")

	scheme := "http"
	if useSSL {
		scheme = "https"
	}

	return MinIO{
		Endpoint:   endpoint,
		AccessKey:  getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		SecretKey:  getEnv("MINIO_SECRET_KEY", "minioadmin"),
		BucketName: getEnv("MINIO_BUCKET_NAME", "media"),
		UseSSL:     useSSL,
		Region:     getEnv("MINIO_REGION", "us-east-1"),
		PublicURL:  strings.TrimSuffix(getEnv("MINIO_PUBLIC_URL", scheme+"://"+endpoint), "/"),
	}
}

func LoadSMTP() SMTP {
	return SMTP{
		Host:     getEnv("SMTP_HOST", ""),
		Port:     getEnvAsInt("SMTP_PORT", 2525),
		User:     getEnv("SMTP_USER", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     getEnv("SMTP_FROM", "no-reply@tweetline.local"),
	}
}

// LoadCookie picks cookie flags per environment: cross-site cookies in production
// must be SameSite=None and Secure.
func LoadCookie(development bool) Cookie {
	cookie := Cookie{
		Name:     getEnv("COOKIE_NAME", "token"),
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
	if development {
		cookie.Secure = false
		cookie.SameSite = http.SameSiteLaxMode
	}
	return cookie
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("warning: .env file not found, using environment variables")
	}

	cfg := &Config{
		ServerPort:    getEnvAsInt("SERVER_PORT", 8080),
		Env:           getEnv("NODE_ENV", "DEVELOPMENT"),
		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", StorePostgres)),
		DB:            LoadDB(),
		Mongo:         LoadMongo(),
		MinIO:         LoadMinIO(),
		SMTP:          LoadSMTP(),
		JWTSecretKey:  getEnv("JWT_SECRET_KEY", ""),
		TokenDuration: getEnvDuration("TOKEN_DURATION", time.Hour),
		ResetTokenTTL: getEnvDuration("RESET_TOKEN_TTL", 10*time.Minute),
		FrontendURI:   getEnv("FRONTEND_URI", "http://localhost:3000"),
		MaxUploadSize: parseMaxUploadSize(getEnv("MAX_UPLOAD_SIZE", "10485760")),
		StoreTimeout:  getEnvDuration("STORE_TIMEOUT", 5*time.Second),
		MediaTimeout:  getEnvDuration("MEDIA_TIMEOUT", 15*time.Second),
	}
	cfg.Cookie = LoadCookie(cfg.IsDevelopment())
	cfg.ExposeErrors = getEnvBool("EXPOSE_ERRORS", cfg.IsDevelopment())

	return cfg
}

func parseMaxUploadSize(value string) int64 {
	size, err := strconv.ParseInt(value, 10, 64)
	if err != nil || size <= 0 {
		return 10 * 1024 * 1024
	}
	return size
}
