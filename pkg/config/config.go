// Package config defines the process-wide configuration surface, read from
// environment variables and validated once at startup.
package config

import (
	"os"
	"strconv"

	"github.com/transipdev/transip-acme-go/pkg/apierr"
	"github.com/transipdev/transip-acme-go/pkg/authrequest"
)

// Environment variable names recognized by this module.
const (
	EnvUsername        = "TRANSIP_API_USERNAME"
	EnvPrivateKey      = "TRANSIP_API_PRIVATE_KEY"
	EnvTokenPath       = "TRANSIP_API_TOKEN_PATH"
	EnvWhitelistedOnly = "TRANSIP_API_WHITELISTED_ONLY"
	EnvReadOnly        = "TRANSIP_API_READONLY"
	EnvTokenExpiration = "TRANSIP_API_TOKEN_EXPIRATION"
	EnvLogLevel        = "TRANSIP_LOG_LEVEL"
	EnvLogFormat       = "TRANSIP_LOG_FORMAT"
	EnvMetricsAddr     = "TRANSIP_METRICS_ADDR"
	EnvIPv6Only        = "TRANSIP_IPV6_ONLY"
)

// requiredVars lists the env vars that must all be set before any operation
// is attempted.
var requiredVars = []string{
	EnvUsername,
	EnvPrivateKey,
	EnvTokenPath,
	EnvWhitelistedOnly,
	EnvReadOnly,
	EnvTokenExpiration,
}

// Config is the immutable, process-wide configuration surface.
type Config struct {
	Username        string
	PrivateKeyPath  string
	TokenPath       string
	WhitelistedOnly bool
	ReadOnly        bool
	TokenExpiration authrequest.Expiration
	IPv6Only        bool

	// Ambient, additive — not part of the required env var set.
	LogLevel    string
	LogFormat   string
	MetricsAddr string
}

// FromEnv reads and validates the Configuration from the process
// environment. All required fields must be present and a file must exist
// at the PEM path before this returns successfully; the file's contents are
// not read here.
func FromEnv() (*Config, error) {
	for _, name := range requiredVars {
		if _, ok := os.LookupEnv(name); !ok {
			return nil, apierr.New(apierr.EnvVarMissing, "environment variable not set: "+name)
		}
	}

	privateKeyPath := os.Getenv(EnvPrivateKey)
	if _, err := os.Stat(privateKeyPath); err != nil {
		return nil, apierr.Wrap(apierr.EnvironmentVariable, "private key not found at "+privateKeyPath, err)
	}

	whitelistedOnly, err := parseBool(EnvWhitelistedOnly)
	if err != nil {
		return nil, err
	}

	readOnly, err := parseBool(EnvReadOnly)
	if err != nil {
		return nil, err
	}

	expiration, err := authrequest.ParseExpiration(os.Getenv(EnvTokenExpiration))
	if err != nil {
		return nil, err
	}

	ipv6Only := false
	if v, ok := os.LookupEnv(EnvIPv6Only); ok {
		ipv6Only, err = strconv.ParseBool(v)
		if err != nil {
			return nil, apierr.Wrap(apierr.ParseBool, EnvIPv6Only+" should contain true or false", err)
		}
	}

	return &Config{
		Username:        os.Getenv(EnvUsername),
		PrivateKeyPath:  privateKeyPath,
		TokenPath:       os.Getenv(EnvTokenPath),
		WhitelistedOnly: whitelistedOnly,
		ReadOnly:        readOnly,
		TokenExpiration: expiration,
		IPv6Only:        ipv6Only,
		LogLevel:        envOr(EnvLogLevel, "info"),
		LogFormat:       envOr(EnvLogFormat, "text"),
		MetricsAddr:     os.Getenv(EnvMetricsAddr),
	}, nil
}

func parseBool(envName string) (bool, error) {
	v, err := strconv.ParseBool(os.Getenv(envName))
	if err != nil {
		return false, apierr.Wrap(apierr.ParseBool, envName+" should contain true or false", err)
	}
	return v, nil
}

func envOr(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return fallback
}
