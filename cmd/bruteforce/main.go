package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/shopauth/internal/bruteforce"
	"github.com/dmitrijs2005/shopauth/internal/dbx"
	"github.com/dmitrijs2005/shopauth/internal/logging"
	"github.com/dmitrijs2005/shopauth/internal/server/config"
	"github.com/dmitrijs2005/shopauth/internal/server/services"
)

const victim = "victim@example.com"

func main() {
	profile := flag.String("profile", config.ProfileInsecure, "security profile to attack: secure or insecure")
	victimPassword := flag.String("victim-password", "b", "victim password (the secure profile needs a policy compliant one)")
	maxLen := flag.Int("max-len", 8, "longest candidate password")
	maxAttempts := flag.Int("max-attempts", 100000, "stop after this many attempts, 0 for no limit")
	verbose := flag.Bool("v", false, "print every candidate")
	flag.Parse()

	ctx := context.Background()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Profile = *profile
	cfg.DatabaseDriver = string(dbx.DialectSQLite)
	cfg.DatabaseDSN = ":memory:"

	p, err := services.NewProfile(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	db, err := dbx.Open(dbx.DialectSQLite, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer db.Close()

	if err := p.Repositories.RunMigrations(ctx, db); err != nil {
		log.Fatalf("%v", err)
	}

	svc := services.NewAuthService(db, p, services.WithLogger(logging.Nop{}))
	if _, err := svc.CreateAccount(ctx, victim, *victimPassword); err != nil {
		log.Fatalf("cannot create victim account: %v", err)
	}

	var progress func(int, string)
	if *verbose {
		progress = func(n int, candidate string) { fmt.Printf("Trying password %d: %q\n", n, candidate) }
	}

	res, err := bruteforce.Attack(ctx, svc, victim, *maxLen, *maxAttempts, progress)
	if err != nil {
		log.Fatalf("attack aborted: %v", err)
	}

	fmt.Fprintf(os.Stdout, "profile=%s attempts=%d elapsed=%s\n", p.Name, res.Attempts, res.Elapsed)
	if res.Cracked {
		fmt.Fprintf(os.Stdout, "Password cracked. Password is: %q\n", res.Password)
		return
	}
	fmt.Fprintln(os.Stdout, "Password not cracked.")
}
