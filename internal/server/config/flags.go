package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-profile string  secure | insecure
//	-a string        HTTP bind address (e.g., ":8080")
//	-driver string   database driver: pgx | sqlite
//	-d string        database DSN
//	-s string        JWT HMAC secret key
//	-t int           session validity, minutes
//	-l string        log level
//	-r string        Redis address for the signup throttle
//	-k string        mail backend: log | kafka
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-profile", "-a", "-driver", "-d", "-s", "-t", "-l", "-r", "-k"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Profile, "profile", config.Profile, "security profile: secure or insecure")
	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDriver, "driver", config.DatabaseDriver, "database driver: pgx or sqlite")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	sessionTTL := fs.Int("t", int(config.SessionTTL.Minutes()), "session token validity (in minutes)")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address for the signup throttle")
	fs.StringVar(&config.MailBackend, "k", config.MailBackend, "mail backend: log or kafka")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
}

// ValueFlags lists every flag read by LoadConfig that takes a value, so
// tools sharing os.Args can tell their own positional arguments apart.
var ValueFlags = []string{
	"-profile", "-a", "-driver", "-d", "-s", "-t", "-l", "-r", "-k",
	"-c", "-config", "-envfile", "-env-file",
}
