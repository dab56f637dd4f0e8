package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Weather   WeatherConfig
	Satellite SatelliteConfig
	Advisor   AdvisorConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	RedisURL           string
	SessionTTL         time.Duration
}

type WeatherConfig struct {
	ForecastURL  string
	ArchiveURL   string
	GeocodingURL string
	Timezone     string
	CacheTTL     time.Duration
}

type SatelliteConfig struct {
	BaseURL string // empty means mock mode
	APIKey  string
}

type AdvisorConfig struct {
	BaseURL string // upstream analysis API; empty means canned fallback
	APIKey  string
	Timeout time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "gateway.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			RedisURL:           getEnv("REDIS_URL", ""),
			SessionTTL:         getEnvAsDuration("SESSION_TTL", 1*time.Hour),
		},
		Weather: WeatherConfig{
			ForecastURL:  getEnv("OPEN_METEO_FORECAST_URL", "https://api.open-meteo.com/v1/forecast"),
			ArchiveURL:   getEnv("OPEN_METEO_ARCHIVE_URL", "https://archive-api.open-meteo.com/v1/archive"),
			GeocodingURL: getEnv("OPEN_METEO_GEOCODING_URL", "https://geocoding-api.open-meteo.com/v1/search"),
			Timezone:     getEnv("WEATHER_TIMEZONE", "America/Los_Angeles"),
			CacheTTL:     getEnvAsDuration("WEATHER_CACHE_TTL", 10*time.Minute),
		},
		Satellite: SatelliteConfig{
			BaseURL: getEnv("SATELLITE_API_URL", ""),
			APIKey:  getEnv("SATELLITE_API_KEY", ""),
		},
		Advisor: AdvisorConfig{
			BaseURL: getEnv("ANALYSIS_API_URL", ""),
			APIKey:  getEnv("ANALYSIS_API_KEY", ""),
			Timeout: getEnvAsDuration("ANALYSIS_TIMEOUT", 30*time.Second),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil && value > 0 {
		return value
	}
	return fallback
}
