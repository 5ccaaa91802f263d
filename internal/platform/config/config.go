package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	AuthProviderLocal    = "local"
	AuthProviderSupabase = "supabase"

	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"

	DBBackendPostgres = "postgres"
	DBBackendMemory   = "memory"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string
	DBBackend  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheBackend  string

	QueryStaleTime    time.Duration
	QueryFetchTimeout time.Duration
	RowLockTTL        time.Duration
	SearchLimit       int

	PaperCountQueueName string

	AuthProvider    string
	SupabaseURL     string
	SupabaseAnonKey string

	BootstrapAdminEmail    string
	BootstrapAdminPassword string

	LogLevel       string
	LogDevelopment bool
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:                getEnv("API_PORT", "8080"),
		JWTKey:                 []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:                 time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		DBHost:                 getEnv("DB_HOST", "localhost"),
		DBPort:                 getEnv("DB_PORT", "5432"),
		DBUser:                 getEnv("DB_USER", "postgres"),
		DBPassword:             getEnv("DB_PASSWORD", "postgres"),
		DBName:                 getEnv("DB_NAME", "paperarchive"),
		DBSslMode:              getEnv("DB_SSLMODE", "disable"),
		DBBackend:              getEnv("DB_BACKEND", DBBackendPostgres),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		RedisDB:                getEnvAsInt("REDIS_DB", 0),
		CacheBackend:           getEnv("CACHE_BACKEND", CacheBackendRedis),
		QueryStaleTime:         time.Duration(getEnvAsInt("QUERY_STALE_SECONDS", 300)) * time.Second,
		QueryFetchTimeout:      time.Duration(getEnvAsInt("QUERY_FETCH_TIMEOUT_SECONDS", 15)) * time.Second,
		RowLockTTL:             time.Duration(getEnvAsInt("ROW_LOCK_TTL_SECONDS", 30)) * time.Second,
		SearchLimit:            getEnvAsInt("SEARCH_LIMIT", 10),
		PaperCountQueueName:    getEnv("PAPER_COUNT_QUEUE_NAME", "paper_count_queue"),
		AuthProvider:           getEnv("AUTH_PROVIDER", AuthProviderLocal),
		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:        getEnv("SUPABASE_ANON_KEY", ""),
		BootstrapAdminEmail:    getEnv("BOOTSTRAP_ADMIN_EMAIL", ""),
		BootstrapAdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogDevelopment:         getEnvAsBool("LOG_DEVELOPMENT", false),
	}

	// DATABASE_URL wins over the discrete DB_* settings (hosted providers hand out a URL).
	AppConfig.DBConnStr = getEnv("DATABASE_URL", "")
	if AppConfig.DBConnStr == "" {
		AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
			" port=" + AppConfig.DBPort +
			" user=" + AppConfig.DBUser +
			" password=" + AppConfig.DBPassword +
			" dbname=" + AppConfig.DBName +
			" sslmode=" + AppConfig.DBSslMode
	}
}

// UsesRedis reports whether the cache, row guard and paper-count queue should be backed by Redis.
func (c *Config) UsesRedis() bool {
	return c.CacheBackend != CacheBackendMemory
}

// UsesPostgres is false when the archive runs on the in-memory tables (local demos).
func (c *Config) UsesPostgres() bool {
	return c.DBBackend != DBBackendMemory
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
