package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string
	DBPath string

	BooksBaseURL   string
	QuotesBaseURL  string
	AddressAPIURL  string
	RequestDelayMs int
	HTTPTimeoutMs  int
	FetchAttempts  int

	GBPToEURRate    float64
	MaxBookPriceGBP float64
	DefaultMaxPages int

	MinioEndpoint      string
	MinioAccessKey     string
	MinioSecretKey     string
	MinioSecure        bool
	MinioImagesBucket  string
	MinioExportsBucket string
	ExportPrefix       string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv: getEnv("APP_ENV", "production"),
		DBPath: getEnv("DB_PATH", filepath.Join(cwd, "data", "pipeline.db")),

		BooksBaseURL:   getEnv("BOOKS_BASE_URL", "https://books.toscrape.com/"),
		QuotesBaseURL:  getEnv("QUOTES_BASE_URL", "https://quotes.toscrape.com/"),
		AddressAPIURL:  getEnv("ADDRESS_API_URL", "https://api-adresse.data.gouv.fr/search/"),
		RequestDelayMs: getEnvInt("REQUEST_DELAY_MS", 1000),
		HTTPTimeoutMs:  getEnvInt("HTTP_TIMEOUT_MS", 30000),
		FetchAttempts:  getEnvInt("FETCH_ATTEMPTS", 3),

		GBPToEURRate:    getEnvFloat("GBP_EUR_RATE", 1.17),
		MaxBookPriceGBP: getEnvFloat("MAX_BOOK_PRICE_GBP", 500),
		DefaultMaxPages: getEnvInt("MAX_PAGES", 3),

		MinioEndpoint:      getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:     getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey:     getEnv("MINIO_SECRET_KEY", "minioadmin123"),
		MinioSecure:        getEnvBool("MINIO_SECURE", false),
		MinioImagesBucket:  getEnv("MINIO_IMAGES_BUCKET", "product-images"),
		MinioExportsBucket: getEnv("MINIO_EXPORTS_BUCKET", "data-exports"),
		ExportPrefix:       getEnv("EXPORT_PREFIX", "export"),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
