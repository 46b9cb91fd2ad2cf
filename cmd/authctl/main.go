package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/authctl"
	"github.com/dmitrijs2005/shopauth/internal/flagx"
	"github.com/dmitrijs2005/shopauth/internal/server"
	"github.com/dmitrijs2005/shopauth/internal/server/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	args := flagx.Positional(os.Args[1:], config.ValueFlags)
	if len(args) == 0 {
		authctl.Usage(os.Stderr)
		return 2
	}

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := server.NewApp(ctx, cfg, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer app.Close()

	cli := authctl.New(app.AuthService(), os.Stdin, os.Stdout, func() time.Time { return time.Now().UTC() })
	if err := cli.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, authctl.ErrUsage) {
			authctl.Usage(os.Stderr)
			return 2
		}
		return 1
	}
	return 0
}
