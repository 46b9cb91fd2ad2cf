package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/shopauth/internal/flagx"
	"github.com/dmitrijs2005/shopauth/internal/server/hashing"
	"github.com/dmitrijs2005/shopauth/internal/server/lockout"
	"github.com/dmitrijs2005/shopauth/internal/server/password"
	"github.com/dmitrijs2005/shopauth/internal/timex"
)

// JsonConfig is the file form of Config. Durations use timex.Duration so
// that both "5m" and integer nanoseconds are accepted.
type JsonConfig struct {
	Profile        string `json:"profile"`
	HTTPAddr       string `json:"http_addr"`
	DatabaseDriver string `json:"database_driver"`
	DatabaseDSN    string `json:"database_dsn"`

	Hashing       hashing.Config  `json:"hashing"`
	Policy        password.Policy `json:"password_policy"`
	Lockout       lockout.Policy  `json:"lockout"`
	ResetTokenTTL timex.Duration  `json:"reset_token_ttl"`

	SecretKey  string         `json:"secret_key"`
	SessionTTL timex.Duration `json:"session_ttl"`

	LogBackend string `json:"log_backend"`
	LogLevel   string `json:"log_level"`

	MailBackend  string   `json:"mail_backend"`
	MailFrom     string   `json:"mail_from"`
	KafkaBrokers []string `json:"kafka_brokers"`
	KafkaTopic   string   `json:"kafka_topic"`

	RedisAddr    string         `json:"redis_addr"`
	SignupLimit  int            `json:"signup_limit"`
	SignupWindow timex.Duration `json:"signup_window"`

	ArchiveEnabled bool   `json:"archive_enabled"`
	S3RootUser     string `json:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		Profile:        c.Profile,
		HTTPAddr:       c.HTTPAddr,
		DatabaseDriver: c.DatabaseDriver,
		DatabaseDSN:    c.DatabaseDSN,
		Hashing:        c.Hashing,
		Policy:         c.Policy,
		Lockout:        c.Lockout,
		ResetTokenTTL:  timex.Duration{Duration: c.ResetTokenTTL},
		SecretKey:      c.SecretKey,
		SessionTTL:     timex.Duration{Duration: c.SessionTTL},
		LogBackend:     c.LogBackend,
		LogLevel:       c.LogLevel,
		MailBackend:    c.MailBackend,
		MailFrom:       c.MailFrom,
		KafkaBrokers:   c.KafkaBrokers,
		KafkaTopic:     c.KafkaTopic,
		RedisAddr:      c.RedisAddr,
		SignupLimit:    c.SignupLimit,
		SignupWindow:   timex.Duration{Duration: c.SignupWindow},
		ArchiveEnabled: c.ArchiveEnabled,
		S3RootUser:     c.S3RootUser,
		S3RootPassword: c.S3RootPassword,
		S3Bucket:       c.S3Bucket,
		S3Region:       c.S3Region,
		S3BaseEndpoint: c.S3BaseEndpoint,
	}
}

// parseJson overlays the JSON file named by -c/-config onto config. Keys
// missing from the file keep their current values. An unreadable file or
// invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.Profile = c.Profile
	config.HTTPAddr = c.HTTPAddr
	config.DatabaseDriver = c.DatabaseDriver
	config.DatabaseDSN = c.DatabaseDSN
	config.Hashing = c.Hashing
	config.Policy = c.Policy
	config.Lockout = c.Lockout
	config.ResetTokenTTL = c.ResetTokenTTL.Duration
	config.SecretKey = c.SecretKey
	config.SessionTTL = c.SessionTTL.Duration
	config.LogBackend = c.LogBackend
	config.LogLevel = c.LogLevel
	config.MailBackend = c.MailBackend
	config.MailFrom = c.MailFrom
	config.KafkaBrokers = c.KafkaBrokers
	config.KafkaTopic = c.KafkaTopic
	config.RedisAddr = c.RedisAddr
	config.SignupLimit = c.SignupLimit
	config.SignupWindow = c.SignupWindow.Duration
	config.ArchiveEnabled = c.ArchiveEnabled
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
}
