// Package config handles configuration for the server and the command line
// tools: defaults, a .env file and SHOPAUTH_* environment variables, a JSON
// overlay and finally command-line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/server/hashing"
	"github.com/dmitrijs2005/shopauth/internal/server/lockout"
	"github.com/dmitrijs2005/shopauth/internal/server/password"
)

const (
	ProfileSecure   = "secure"
	ProfileInsecure = "insecure"

	MailBackendLog   = "log"
	MailBackendKafka = "kafka"
)

// Config holds runtime settings.
//
// Profile selects the capability bundle. The insecure profile switches
// hashing, the password policy, the lockout and parameter binding off
// regardless of the individual settings below; under the secure profile
// each of them can still be tuned or disabled one by one.
type Config struct {
	Profile        string
	HTTPAddr       string
	DatabaseDriver string
	DatabaseDSN    string

	Hashing       hashing.Config
	Policy        password.Policy
	Lockout       lockout.Policy
	ResetTokenTTL time.Duration

	SecretKey  string
	SessionTTL time.Duration

	LogBackend string
	LogLevel   string

	MailBackend  string
	MailFrom     string
	KafkaBrokers []string
	KafkaTopic   string

	RedisAddr    string
	SignupLimit  int
	SignupWindow time.Duration

	ArchiveEnabled bool
	S3RootUser     string
	S3RootPassword string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
}

// DefaultSecretKey is the development token signing key. The secure profile
// refuses to start with it.
const DefaultSecretKey = "secretKey"

// MinSecretKeyLength is the shortest signing key the secure profile accepts.
const MinSecretKeyLength = 16

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey and the S3 credentials must be overridden in production.
func (c *Config) LoadDefaults() {
	c.Profile = ProfileSecure
	c.HTTPAddr = ":8080"
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "shopauth.db"

	c.Hashing = hashing.DefaultConfig()
	c.Policy = password.DefaultPolicy()
	c.Lockout = lockout.DefaultPolicy()
	c.ResetTokenTTL = 30 * time.Minute

	c.SecretKey = DefaultSecretKey
	c.SessionTTL = 15 * time.Minute

	c.LogBackend = "slog"
	c.LogLevel = "info"

	c.MailBackend = MailBackendLog
	c.MailFrom = "no-reply@shop.local"
	c.KafkaBrokers = []string{"127.0.0.1:9092"}
	c.KafkaTopic = "shopauth.mail"

	c.SignupLimit = 5
	c.SignupWindow = time.Hour

	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "ledger-archive"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// Validate checks the combination of settings that cannot be caught by the
// individual parsers.
func (c *Config) Validate() error {
	var errs []error
	switch c.Profile {
	case ProfileSecure, ProfileInsecure:
	default:
		errs = append(errs, fmt.Errorf("unknown profile %q", c.Profile))
	}
	switch c.MailBackend {
	case MailBackendLog:
	case MailBackendKafka:
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("kafka mail backend needs at least one broker"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown mail backend %q", c.MailBackend))
	}
	switch {
	case c.SecretKey == "":
		errs = append(errs, errors.New("secret key must not be empty"))
	case c.Profile == ProfileSecure && c.SecretKey == DefaultSecretKey:
		errs = append(errs, errors.New("secret key is the built-in default; set SECRET_KEY"))
	case c.Profile == ProfileSecure && len(c.SecretKey) < MinSecretKeyLength:
		errs = append(errs, fmt.Errorf("secret key must be at least %d bytes", MinSecretKeyLength))
	}
	if c.ResetTokenTTL <= 0 {
		errs = append(errs, errors.New("reset token ttl must be positive"))
	}
	if err := c.Policy.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Lockout.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config by applying defaults, then the environment,
// then an optional JSON file and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
