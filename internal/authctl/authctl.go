// Package authctl implements the one-shot operator commands of the authctl
// tool. Each command runs one core operation and prints its outcome.
package authctl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
	"github.com/dmitrijs2005/shopauth/internal/server/services"
)

// Core is the subset of the authentication service the commands drive.
type Core interface {
	CreateAccount(ctx context.Context, email, password string) (*models.Account, error)
	Authenticate(ctx context.Context, email, password string) (*models.Account, error)
	RequestPasswordReset(ctx context.Context, email string) error
	CompletePasswordReset(ctx context.Context, token, newPassword string) error
	BootstrapAdmin(ctx context.Context, email string) (*models.Account, error)
	PromoteToAdmin(ctx context.Context, actor *models.Account, email string) (*models.Account, error)
	PurgeLoginAttempts(ctx context.Context, actor *models.Account, before time.Time) (*services.PurgeResult, error)
	LoginHistory(ctx context.Context, actor *models.Account, accountID int64, limit int) ([]*models.LoginAttempt, error)
}

var ErrUsage = errors.New("usage error")

type command struct {
	args  string
	help  string
	nargs int
	run   func(c *CLI, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"create-account":  {"<email>", "create an account, password is prompted", 1, (*CLI).createAccount},
	"login":           {"<email>", "check credentials, password is prompted", 1, (*CLI).login},
	"request-reset":   {"<email>", "email a password reset token", 1, (*CLI).requestReset},
	"complete-reset":  {"<token>", "set a new password with a reset token", 1, (*CLI).completeReset},
	"bootstrap-admin": {"<email>", "make the first admin while none exists", 1, (*CLI).bootstrapAdmin},
	"promote":         {"<admin-email> <email>", "grant the admin role", 2, (*CLI).promote},
	"purge":           {"<admin-email> <before>", "archive and delete older ledger rows (RFC3339 time or age like 720h)", 2, (*CLI).purge},
	"history":         {"<email> <account-id> [limit]", "list recent login attempts", 2, (*CLI).history},
}

type CLI struct {
	core   Core
	reader *bufio.Reader
	out    io.Writer
	now    func() time.Time
}

func New(core Core, in io.Reader, out io.Writer, now func() time.Time) *CLI {
	return &CLI{core: core, reader: bufio.NewReader(in), out: out, now: now}
}

// Usage prints the command list.
func Usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "usage: authctl [config flags] <command> [args]")
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(w, "  %-16s %-30s %s\n", name, c.args, c.help)
	}
}

// Run executes the command named by args[0].
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	if len(args)-1 < cmd.nargs {
		return fmt.Errorf("%w: %s %s", ErrUsage, args[0], cmd.args)
	}
	return cmd.run(c, ctx, args[1:])
}

func (c *CLI) password(prompt string) (string, error) {
	pw, err := getPassword(c.reader, prompt, c.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// actor authenticates email interactively; admin commands act as that account.
func (c *CLI) actor(ctx context.Context, email string) (*models.Account, error) {
	pw, err := c.password("Password for " + email)
	if err != nil {
		return nil, err
	}
	a, err := c.core.Authenticate(ctx, email, pw)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, errors.New("authentication failed")
	}
	return a, nil
}

func (c *CLI) createAccount(ctx context.Context, args []string) error {
	pw, err := c.password("New password")
	if err != nil {
		return err
	}
	a, err := c.core.CreateAccount(ctx, args[0], pw)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "created account %d for %s\n", a.ID, a.Email)
	return nil
}

func (c *CLI) login(ctx context.Context, args []string) error {
	pw, err := c.password("Password")
	if err != nil {
		return err
	}
	a, err := c.core.Authenticate(ctx, args[0], pw)
	if err != nil {
		return err
	}
	if a == nil {
		fmt.Fprintln(c.out, "access denied")
		return nil
	}
	fmt.Fprintf(c.out, "access granted: account %d admin=%t\n", a.ID, a.IsAdmin)
	return nil
}

func (c *CLI) requestReset(ctx context.Context, args []string) error {
	if err := c.core.RequestPasswordReset(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(c.out, services.ResetRequestedMessage)
	return nil
}

func (c *CLI) completeReset(ctx context.Context, args []string) error {
	pw, err := c.password("New password")
	if err != nil {
		return err
	}
	if err := c.core.CompletePasswordReset(ctx, args[0], pw); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "password updated")
	return nil
}

func (c *CLI) bootstrapAdmin(ctx context.Context, args []string) error {
	a, err := c.core.BootstrapAdmin(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "account %d is now admin\n", a.ID)
	return nil
}

func (c *CLI) promote(ctx context.Context, args []string) error {
	actor, err := c.actor(ctx, args[0])
	if err != nil {
		return err
	}
	a, err := c.core.PromoteToAdmin(ctx, actor, args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "account %d is now admin\n", a.ID)
	return nil
}

func (c *CLI) purge(ctx context.Context, args []string) error {
	before, err := parseCutoff(args[1], c.now())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	actor, err := c.actor(ctx, args[0])
	if err != nil {
		return err
	}
	res, err := c.core.PurgeLoginAttempts(ctx, actor, before)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "deleted %d login attempts before %s\n", res.Deleted, res.Cutoff.Format(time.RFC3339))
	if res.Location != "" {
		fmt.Fprintf(c.out, "archived to %s\n", res.Location)
	}
	return nil
}

func (c *CLI) history(ctx context.Context, args []string) error {
	accountID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid account id %q", ErrUsage, args[1])
	}
	limit := 0
	if len(args) > 2 {
		if limit, err = strconv.Atoi(args[2]); err != nil {
			return fmt.Errorf("%w: invalid limit %q", ErrUsage, args[2])
		}
	}

	actor, err := c.actor(ctx, args[0])
	if err != nil {
		return err
	}
	rows, err := c.core.LoginHistory(ctx, actor, accountID, limit)
	if err != nil {
		return err
	}
	for _, r := range rows {
		fmt.Fprintf(c.out, "%s  %-30s %s\n", r.CreatedAt.Format(time.RFC3339), r.ResultCode, r.Email)
	}
	return nil
}

// parseCutoff accepts an RFC3339 instant or an age relative to now.
func parseCutoff(s string, now time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return time.Time{}, fmt.Errorf("invalid cutoff %q", s)
	}
	return now.Add(-d), nil
}
