package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	WorkerCount      int
	OutputDir        string
	BytecodeDensity  float64
	DensityMinTokens int
	ChoiceWindow     int
	ChoiceMin        int
	ChoiceMax        int
	ChoiceSeparator  string
	DatabaseURL      string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		WorkerCount:      getEnvInt("WORKER_COUNT", 8),
		OutputDir:        getEnv("OUTPUT_DIR", "decompiled"),
		BytecodeDensity:  getEnvFloat("BYTECODE_DENSITY", 0.85),
		DensityMinTokens: getEnvInt("BYTECODE_MIN_TOKENS", 5),
		ChoiceWindow:     getEnvInt("CHOICE_WINDOW", 50),
		ChoiceMin:        getEnvInt("CHOICE_MIN_OPTIONS", 2),
		ChoiceMax:        getEnvInt("CHOICE_MAX_OPTIONS", 5),
		ChoiceSeparator:  getEnv("CHOICE_SEPARATOR", " / "),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
