package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName         = "CongoBridge"
	defaultAppEnv          = "development"
	defaultPort            = "8090"
	defaultLogLevel        = "info"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultConfirmations   = 6
	defaultPollInterval    = 5 * time.Second
	defaultConfirmTimeout  = 2 * time.Minute
	defaultAssetDecimals   = 6
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
)

// Config captures bridge runtime configuration loaded from environment variables.
type Config struct {
	AppName  string
	AppEnv   string
	Port     string
	LogLevel string

	DatabaseURL string
	RedisURL    string

	ChainARPCURL           string
	ChainBRPCURL           string
	DepositContractAddress string
	TokenContractAddress   string
	TreasuryPrivateKey     string

	// Confirmations is the number of child blocks required before a deposit
	// event is considered final and credited.
	Confirmations uint64
	// StartBlock is the Chain A block the deposit watcher begins from when no
	// cursor has been persisted yet.
	StartBlock     uint64
	PollInterval   time.Duration
	ConfirmTimeout time.Duration
	AssetDecimals  int

	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:                getEnv("APP_NAME", defaultAppName),
		AppEnv:                 getEnv("APP_ENV", defaultAppEnv),
		Port:                   getEnv("PORT", defaultPort),
		LogLevel:               strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisURL:               os.Getenv("REDIS_URL"),
		ChainARPCURL:           getEnv("CHAIN_A_RPC_URL", "http://127.0.0.1:8545"),
		ChainBRPCURL:           getEnv("CHAIN_B_RPC_URL", "http://127.0.0.1:8546"),
		DepositContractAddress: os.Getenv("DEPOSIT_CONTRACT_ADDRESS"),
		TokenContractAddress:   os.Getenv("TOKEN_CONTRACT_ADDRESS"),
		TreasuryPrivateKey:     os.Getenv("TREASURY_PRIVATE_KEY"),
		Confirmations:          defaultConfirmations,
		PollInterval:           defaultPollInterval,
		ConfirmTimeout:         defaultConfirmTimeout,
		AssetDecimals:          defaultAssetDecimals,
		ShutdownPeriod:         defaultShutdownDelay,
		IdempotencyTTL:         defaultIdempotencyTTL,
	}

	if v := os.Getenv("BLOCK_CONFIRMATIONS"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid BLOCK_CONFIRMATIONS: %w", err)
		}
		cfg.Confirmations = n
	}

	if v := os.Getenv("START_BLOCK"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid START_BLOCK: %w", err)
		}
		cfg.StartBlock = n
	}

	if v := os.Getenv("ASSET_DECIMALS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 18 {
			return Config{}, fmt.Errorf("invalid ASSET_DECIMALS: %q", v)
		}
		cfg.AssetDecimals = n
	}

	var err error
	if cfg.PollInterval, err = durationEnv("POLL_INTERVAL", cfg.PollInterval); err != nil {
		return Config{}, err
	}
	if cfg.ConfirmTimeout, err = durationEnv("WITHDRAW_CONFIRM_TIMEOUT", cfg.ConfirmTimeout); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownPeriod, err = durationEnv(shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv(idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}
	if cfg.DepositContractAddress == "" {
		return Config{}, fmt.Errorf("DEPOSIT_CONTRACT_ADDRESS must be set")
	}
	if cfg.TokenContractAddress == "" {
		return Config{}, fmt.Errorf("TOKEN_CONTRACT_ADDRESS must be set")
	}
	if cfg.TreasuryPrivateKey == "" {
		return Config{}, fmt.Errorf("TREASURY_PRIVATE_KEY must be set")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
