package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables
const (
	EnvPrivateKey  = "FLASHARB_PRIVATE_KEY"
	EnvRPCEndpoint = "FLASHARB_RPC_ENDPOINT"
)

// LoadEnv loads environment variables from a .env file if one exists.
func LoadEnv() error {
	return godotenv.Load()
}

// GetEnvWithDefault gets an environment variable with a default value
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetRequiredEnv fails when the environment variable is unset.
func GetRequiredEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("required environment variable %s not set", key)
	}
	return value, nil
}

// SecureConfig holds secrets sourced only from the environment.
type SecureConfig struct {
	PrivateKey string
}

// LoadSecureConfig reads secrets from the environment.
func LoadSecureConfig() (*SecureConfig, error) {
	privateKey, err := GetRequiredEnv(EnvPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("private key not found: %w", err)
	}

	return &SecureConfig{PrivateKey: privateKey}, nil
}
