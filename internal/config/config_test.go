package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "DEBUG", "DB_DRIVER", "LOG_LEVEL", "MAPPING_TTL", "CORS_ORIGINS", "LLM_API_KEY", "GOOGLE_API_KEY", "HISTORY_LIMIT"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.HTTPAddr != ":8080" || c.DBDriver != "sqlite" || c.LogLevel != "info" {
		t.Fatalf("defaults = %+v", c)
	}
	if c.MappingTTL != 2*time.Hour || c.HistoryLimit != 50 {
		t.Fatalf("defaults = %+v", c)
	}
	if len(c.CORSOrigins) != 1 || c.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("cors = %v", c.CORSOrigins)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DEBUG", "true")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("MAPPING_TTL", "15m")
	t.Setenv("LLM_TEMPERATURE", "0.1")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("HISTORY_LIMIT", "not-a-number")

	c := FromEnv()
	if !c.Debug || c.LogLevel != "debug" || c.DBDriver != "postgres" {
		t.Fatalf("config = %+v", c)
	}
	if c.MappingTTL != 15*time.Minute || c.LLMTemperature != 0.1 || c.LLMAPIKey != "g-key" {
		t.Fatalf("config = %+v", c)
	}
	if len(c.CORSOrigins) != 2 || c.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("cors = %q", c.CORSOrigins)
	}
	if c.HistoryLimit != 50 {
		t.Fatalf("history limit = %d, want fallback 50", c.HistoryLimit)
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("HTTP_ADDR=:9999\nMAPPING_DRIVER=redis\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	// godotenv never overrides variables that are already set
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("MAPPING_DRIVER", "")
	os.Unsetenv("HTTP_ADDR")
	os.Unsetenv("MAPPING_DRIVER")

	c := Load()
	if c.HTTPAddr != ":9999" || c.MappingDriver != "redis" {
		t.Fatalf("config = %+v", c)
	}
}
