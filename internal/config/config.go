package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"route-analyzer-go/internal/client"
	"route-analyzer-go/internal/geo"
)

// Config содержит конфигурацию приложения
type Config struct {
	Environment string

	Server struct {
		Port int
		Host string
	}
	Database struct {
		Host     string
		Port     string
		Name     string
		User     string
		Password string
		SSLMode  string
	}
	Terrarium struct {
		BaseURL string
		Timeout int // секунды
	}
	Analysis struct {
		// пороги nil берутся из пресета области
		SteepThresholdDeg   *float64
		PrimaryThresholdDeg *float64
		Scope               string
		ElevationBackfill   bool
		ElevationZoom       int
		Workers             int
	}
	Logging struct {
		Level string
	}
	StaticDir string
}

// LoadConfig загружает конфигурацию из переменных окружения
func LoadConfig() *Config {
	cfg := &Config{}

	cfg.Environment = getEnv("ENVIRONMENT", "development")

	cfg.Server.Port = getEnvInt("SERVER_PORT", 8080)
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnv("DB_PORT", "5432")
	cfg.Database.Name = getEnv("DB_NAME", "route_analyzer")
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.SSLMode = getEnv("DB_SSL_MODE", "disable")

	cfg.Terrarium.BaseURL = getEnv("TERRARIUM_BASE_URL", client.DefaultTerrariumURL)
	cfg.Terrarium.Timeout = getEnvInt("TERRARIUM_TIMEOUT_SECONDS", 30)

	cfg.Analysis.SteepThresholdDeg = getEnvFloat("STEEP_THRESHOLD_DEG")
	cfg.Analysis.PrimaryThresholdDeg = getEnvFloat("PRIMARY_THRESHOLD_DEG")
	cfg.Analysis.Scope = getEnv("PRIMARY_ASPECT_SCOPE", string(geo.ScopeWholeRoute))
	cfg.Analysis.ElevationBackfill = getEnvBool("ELEVATION_BACKFILL", false)
	cfg.Analysis.ElevationZoom = getEnvInt("ELEVATION_ZOOM", 12)
	cfg.Analysis.Workers = getEnvInt("ANALYZE_WORKERS", 4)

	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	cfg.StaticDir = getEnv("STATIC_DIR", "static")

	return cfg
}

// Policy собирает политику анализа из конфигурации. Область выбирает
// пресет, явно заданные пороги его переопределяют.
func (c *Config) Policy() (geo.Policy, error) {
	scope, err := geo.ParseScope(c.Analysis.Scope)
	if err != nil {
		return geo.Policy{}, err
	}
	policy := geo.PolicyFor(scope)
	if c.Analysis.SteepThresholdDeg != nil {
		policy.SteepThresholdDeg = *c.Analysis.SteepThresholdDeg
	}
	if c.Analysis.PrimaryThresholdDeg != nil {
		policy.PrimaryThresholdDeg = *c.Analysis.PrimaryThresholdDeg
	}
	if err := policy.Validate(); err != nil {
		return geo.Policy{}, err
	}
	return policy, nil
}

// DSN возвращает строку подключения к PostgreSQL
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.Name, c.Database.SSLMode,
	)
}

// TerrariumTimeout возвращает таймаут запроса тайла
func (c *Config) TerrariumTimeout() time.Duration {
	return time.Duration(c.Terrarium.Timeout) * time.Second
}

// Addr возвращает адрес HTTP сервера
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает переменную окружения как int или значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat получает переменную окружения как float или nil, если она не задана или неверна
func getEnvFloat(key string) *float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return &floatValue
		}
	}
	return nil
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
