package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

type LLMConfig struct {
	Provider    string
	Model       string
	Temperature float64
	MaxTokens   int
}

type CrawlConfig struct {
	StartURLs []string
	MaxPages  int
	MaxDepth  int
	Delay     time.Duration
}

type PriceConfig struct {
	TokenAddress string
	PairAddress  string
	NetworkSlug  string
	Timeout      time.Duration
}

type Config struct {
	PostgresDSN   string
	TelegramToken string
	DataDir       string
	APIAddr       string

	ChunkSize    int
	ChunkOverlap int

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OllamaHost    string

	LLM   LLMConfig
	Crawl CrawlConfig
	Price PriceConfig
}

func Load() Config {
	return Config{
		PostgresDSN:   getEnv("POSTGRES_DSN", "postgres://localhost:5432/pepubot?sslmode=disable"),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DataDir:       getEnv("PEPU_DATA_DIR", "data"),
		APIAddr:       getEnv("PEPU_API_ADDR", ":8080"),

		ChunkSize:    getEnvInt("PEPU_CHUNK_SIZE", 2000),
		ChunkOverlap: getEnvInt("PEPU_CHUNK_OVERLAP", 200),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OllamaHost:    getEnv("OLLAMA_HOST", "http://localhost:11434"),

		LLM: LLMConfig{
			Provider:    getEnv("PEPU_LLM_PROVIDER", ProviderOpenAI),
			Model:       getEnv("PEPU_LLM_MODEL", "gpt-4o-mini"),
			Temperature: getEnvFloat("PEPU_LLM_TEMPERATURE", 0.7),
			MaxTokens:   getEnvInt("PEPU_LLM_MAX_TOKENS", 400),
		},
		Crawl: CrawlConfig{
			StartURLs: getEnvList("PEPU_SITE_URLS", []string{"https://pepeunchained.com", "https://docs.pepeunchained.com"}),
			MaxPages:  getEnvInt("PEPU_CRAWL_MAX_PAGES", 50),
			MaxDepth:  getEnvInt("PEPU_CRAWL_MAX_DEPTH", 3),
			Delay:     getEnvDuration("PEPU_CRAWL_DELAY", 500*time.Millisecond),
		},
		Price: PriceConfig{
			TokenAddress: getEnv("PEPU_TOKEN_ADDRESS", "0x93aa0ccd1e5628d3a841c4dbdf602d9eb04085d6"),
			PairAddress:  os.Getenv("PEPU_PAIR_ADDRESS"),
			NetworkSlug:  getEnv("PEPU_NETWORK_SLUG", "eth"),
			Timeout:      getEnvDuration("PEPU_PRICE_TIMEOUT", 10*time.Second),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}
