package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost          string
	DBPort          string
	DBUser          string
	DBPassword      string
	DBName          string
	JWTSecret       string
	ServerPort      string
	GeneratorAPIKey string
	GeneratorAPIURL string
	GeneratorModel  string
	ExpirySweepSec  string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found, using environment")
	}

	return &Config{
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "postgres"),
		DBPassword:      getEnv("DB_PASSWORD", "postgres"),
		DBName:          getEnv("DB_NAME", "quizbit"),
		JWTSecret:       getEnv("JWT_SECRET", "super-secret-key-change-me"),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		GeneratorAPIKey: getEnv("GENERATOR_API_KEY", ""),
		GeneratorAPIURL: getEnv("GENERATOR_API_URL", "https://api.openai.com/v1"),
		GeneratorModel:  getEnv("GENERATOR_MODEL", "gpt-4o-mini"),
		ExpirySweepSec:  getEnv("EXPIRY_SWEEP_INTERVAL", "30"),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
