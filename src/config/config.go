package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Referrer ReferrerConfig
	Express  ExpressConfig
	OneInch  OneInchConfig
}

// ReferrerConfig identifies the affiliate account passed to exchange providers.
type ReferrerConfig struct {
	Address string
	FeeBps  int
}

type ExpressConfig struct {
	// DefaultGasPolicy is "normal" or "priority".
	DefaultGasPolicy string
	// UnlimitedApprove requests the maximum allowance instead of the exact swap amount.
	UnlimitedApprove bool
	// RefreshDebounce is the minimum interval callers should keep between refresh cycles.
	RefreshDebounce time.Duration
}

type OneInchConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// LoadFromEnv reads configuration from environment variables with fallback defaults.
// It also loads `.env` if present (for local development).
func LoadFromEnv() *Config {
	// Load .env if exists, ignore error if no file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded, relying on environment variables")
	}

	env := getEnv("ENV", "dev")

	debounceStr := getEnv("EXPRESS_REFRESH_DEBOUNCE", "10s")
	debounce, err := time.ParseDuration(debounceStr)
	if err != nil {
		log.Fatalf("[FATAL] Invalid EXPRESS_REFRESH_DEBOUNCE duration: %v", err)
	}

	timeoutStr := getEnv("ONEINCH_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		log.Fatalf("[FATAL] Invalid ONEINCH_TIMEOUT duration: %v", err)
	}

	feeBps, err := strconv.Atoi(getEnv("REFERRER_FEE_BPS", "0"))
	if err != nil {
		log.Fatalf("[FATAL] Invalid REFERRER_FEE_BPS: %v", err)
	}

	return &Config{
		Env: env,
		Referrer: ReferrerConfig{
			Address: getEnv("REFERRER_ADDRESS", ""),
			FeeBps:  feeBps,
		},
		Express: ExpressConfig{
			DefaultGasPolicy: getEnv("EXPRESS_GAS_POLICY", "normal"),
			UnlimitedApprove: getEnv("EXPRESS_UNLIMITED_APPROVE", "true") == "true",
			RefreshDebounce:  debounce,
		},
		OneInch: OneInchConfig{
			BaseURL: getEnv("ONEINCH_BASE_URL", "https://api.1inch.dev/swap/v5.2"),
			APIKey:  getEnv("ONEINCH_API_KEY", ""),
			Timeout: timeout,
		},
	}
}

// helper to get env with default fallback
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
