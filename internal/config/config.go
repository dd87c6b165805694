// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cyphera/authority-proxy/internal/constants"
	"github.com/cyphera/authority-proxy/internal/programs"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Environment variable names.
const (
	EnvStage                = "STAGE"
	EnvLogLevel             = "LOG_LEVEL"
	EnvAPIPort              = "API_PORT"
	EnvSolanaRPCURL         = "SOLANA_RPC_URL"
	EnvMintWrapperProgramID = "MINT_WRAPPER_PROGRAM_ID"
	EnvCORSAllowedOrigins   = "CORS_ALLOWED_ORIGINS"
	EnvRateLimitRPS         = "RATE_LIMIT_RPS"
	EnvRateLimitBurst       = "RATE_LIMIT_BURST"
	EnvConfirmTimeout       = "CONFIRM_TIMEOUT"
	EnvMinterKeySecretARN   = "MINTER_KEY_SECRET_ARN"
	EnvMinterPrivateKey     = "MINTER_PRIVATE_KEY"
)

// Config holds the settings shared by the API and the CLI.
type Config struct {
	Stage                string
	LogLevel             string
	APIPort              string
	RPCURL               string
	MintWrapperProgramID solana.PublicKey
	CORSAllowedOrigins   []string
	RateLimitRPS         int
	RateLimitBurst       int
	ConfirmTimeout       time.Duration
}

// Load reads the configuration, applying defaults for unset variables.
func Load() (*Config, error) {
	programID, err := solana.PublicKeyFromBase58(getEnvWithDefault(EnvMintWrapperProgramID, programs.DefaultMintWrapperProgramID))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvMintWrapperProgramID, err)
	}

	rps, err := getIntWithDefault(EnvRateLimitRPS, 10)
	if err != nil {
		return nil, err
	}
	burst, err := getIntWithDefault(EnvRateLimitBurst, 20)
	if err != nil {
		return nil, err
	}
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("%s and %s must be positive", EnvRateLimitRPS, EnvRateLimitBurst)
	}

	timeout, err := time.ParseDuration(getEnvWithDefault(EnvConfirmTimeout, "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvConfirmTimeout, err)
	}

	stage := getEnvWithDefault(EnvStage, constants.DevEnvironment)
	if !IsValidStage(stage) {
		return nil, fmt.Errorf("invalid %s %q", EnvStage, stage)
	}

	return &Config{
		Stage:                stage,
		LogLevel:             getEnvWithDefault(EnvLogLevel, "info"),
		APIPort:              getEnvWithDefault(EnvAPIPort, "8000"),
		RPCURL:               getEnvWithDefault(EnvSolanaRPCURL, rpc.DevNet_RPC),
		MintWrapperProgramID: programID,
		CORSAllowedOrigins:   splitList(getEnvWithDefault(EnvCORSAllowedOrigins, "http://localhost:3000")),
		RateLimitRPS:         rps,
		RateLimitBurst:       burst,
		ConfirmTimeout:       timeout,
	}, nil
}

// IsValidStage checks if the provided stage string is one of the defined valid stages.
func IsValidStage(stage string) bool {
	switch stage {
	case constants.ProdEnvironment, constants.DevEnvironment, constants.LocalEnvironment:
		return true
	default:
		return false
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntWithDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
