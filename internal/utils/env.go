package utils

import (
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// LoadEnv reads the optional .env file. Absence is normal in containers,
// where configuration arrives through the environment directly.
func LoadEnv(logger *zap.Logger) {
	if _, err := os.Stat(".env"); err != nil {
		logger.Info("No .env file, reading configuration from the environment")
		return
	}
	if err := godotenv.Load(); err != nil {
		logger.Warn("Failed to load .env file", zap.Error(err))
		return
	}
	logger.Info(".env file loaded")
}
