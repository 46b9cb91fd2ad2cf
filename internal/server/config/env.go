package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/flagx"
	"github.com/joho/godotenv"
)

const envPrefix = "SHOPAUTH_"

// readEnv merges the dotenv file (given by -env-file, or ./.env when it
// exists) with the process environment. Real environment variables win.
// The process environment itself is left untouched.
func readEnv() map[string]string {
	path := flagx.EnvFileFlags()
	explicit := path != ""
	if !explicit {
		path = ".env"
	}

	vars, err := godotenv.Read(path)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
		vars = map[string]string{}
	}

	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(k, envPrefix) {
			vars[k] = v
		}
	}
	return vars
}

// parseEnv applies SHOPAUTH_* variables. Malformed numbers and durations
// panic, as malformed flags do.
func parseEnv(config *Config) {
	vars := readEnv()

	str := func(name string, dst *string) {
		if v, ok := vars[envPrefix+name]; ok {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := vars[envPrefix+name]; ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(err)
			}
			*dst = d
		}
	}
	num := func(name string, dst *int) {
		if v, ok := vars[envPrefix+name]; ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				panic(err)
			}
			*dst = n
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := vars[envPrefix+name]; ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				panic(err)
			}
			*dst = b
		}
	}

	str("PROFILE", &config.Profile)
	str("HTTP_ADDR", &config.HTTPAddr)
	str("DATABASE_DRIVER", &config.DatabaseDriver)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("HASH_ALGORITHM", &config.Hashing.Algorithm)
	boolean("LOCKOUT_ENABLED", &config.Lockout.Enabled)
	num("LOCKOUT_THRESHOLD", &config.Lockout.Threshold)
	dur("LOCKOUT_WINDOW", &config.Lockout.Window.Duration)
	dur("RESET_TOKEN_TTL", &config.ResetTokenTTL)
	str("SECRET_KEY", &config.SecretKey)
	dur("SESSION_TTL", &config.SessionTTL)
	str("LOG_BACKEND", &config.LogBackend)
	str("LOG_LEVEL", &config.LogLevel)
	str("MAIL_BACKEND", &config.MailBackend)
	str("MAIL_FROM", &config.MailFrom)
	if v, ok := vars[envPrefix+"KAFKA_BROKERS"]; ok {
		config.KafkaBrokers = splitList(v)
	}
	str("KAFKA_TOPIC", &config.KafkaTopic)
	str("REDIS_ADDR", &config.RedisAddr)
	num("SIGNUP_LIMIT", &config.SignupLimit)
	dur("SIGNUP_WINDOW", &config.SignupWindow)
	boolean("ARCHIVE_ENABLED", &config.ArchiveEnabled)
	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
