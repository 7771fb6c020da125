package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string
	Debug    bool

	DBDriver string // sqlite|postgres|memory
	DBDSN    string

	SessionSecret string
	SessionTTL    time.Duration
	SessionCookie string
	SessionSecure bool

	MappingDriver string // memory|redis
	MappingTTL    time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	BlobBasePath string // question images

	LLMBaseURL     string
	LLMAPIKey      string
	LLMModel       string
	LLMTemperature float64
	LLMTimeout     time.Duration
	ExplainSubject string

	LogLevel string
	LogFile  string // empty: stdout only

	CORSOrigins  []string
	HistoryLimit int
}

// Load reads an optional .env file and then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env: %v", err)
	}
	return FromEnv()
}

func FromEnv() Config {
	debug := envBool("DEBUG", false)
	return Config{
		HTTPAddr: envOr("HTTP_ADDR", ":8080"),
		Debug:    debug,

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		SessionSecret: envOr("SESSION_SECRET", "default_secret"),
		SessionTTL:    envDuration("SESSION_TTL", 30*24*time.Hour),
		SessionCookie: envOr("SESSION_COOKIE", "quiz_session"),
		SessionSecure: envBool("SESSION_SECURE", false),

		MappingDriver: envOr("MAPPING_DRIVER", "memory"),
		MappingTTL:    envDuration("MAPPING_TTL", 2*time.Hour),
		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		BlobBasePath: envOr("BLOB_BASE_PATH", "./images"),

		LLMBaseURL:     envOr("LLM_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMAPIKey:      envOr("LLM_API_KEY", os.Getenv("GOOGLE_API_KEY")),
		LLMModel:       envOr("LLM_MODEL", "gemini-2.0-flash"),
		LLMTemperature: envFloat("LLM_TEMPERATURE", 0.7),
		LLMTimeout:     envDuration("LLM_TIMEOUT", 60*time.Second),
		ExplainSubject: os.Getenv("EXPLAIN_SUBJECT"),

		LogLevel: envOr("LOG_LEVEL", defaultLogLevel(debug)),
		LogFile:  os.Getenv("LOG_FILE"),

		CORSOrigins:  csvOr("CORS_ORIGINS", "http://localhost:3000"),
		HistoryLimit: envInt("HISTORY_LIMIT", 50),
	}
}

func defaultLogLevel(debug bool) string {
	if debug {
		return "debug"
	}
	return "info"
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "YES":
		return true
	case "0", "false", "FALSE", "False", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return n
}

func envFloat(k string, def float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(k), 64)
	if err != nil {
		return def
	}
	return f
}

func envDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
