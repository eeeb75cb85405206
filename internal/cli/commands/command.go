package commands

import (
	"VaultSync/internal/cli/api"
	"VaultSync/internal/cli/repo/fs"
	"VaultSync/internal/config"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
)

// ErrUsage is returned by a command when arguments are invalid and usage should be shown.
var ErrUsage = errors.New("usage")

// ErrNotLoggedIn — токена нет, нужно выполнить login или register.
var ErrNotLoggedIn = errors.New("not logged in: run `vscli login <email>` first")

// Command represents a CLI subcommand.
type Command interface {
	// Name returns the command name as typed by the user, e.g. "login".
	Name() string
	// Description is a short human-readable description shown in help.
	Description() string
	// Usage returns the exact usage string, e.g. "login <email> [password]".
	Usage() string
	// Run executes the command with provided args (without the command name).
	Run(ctx context.Context, cfg *config.Config, args []string) error
}

// registry holds available commands by name.
var registry = map[string]Command{}

// Out — общий writer для вывода CLI. По умолчанию os.Stdout, но в тестах может переназначаться.
var Out io.Writer = os.Stdout

// RegisterCmd adds a command to the registry. Should be called from init() of each command.
func RegisterCmd(cmd Command) {
	registry[cmd.Name()] = cmd
}

// Get returns a command by name.
func Get(name string) (Command, bool) {
	c, ok := registry[name]
	return c, ok
}

// List returns all registered commands sorted by name.
func List() []Command {
	list := make([]Command, 0, len(registry))
	for _, c := range registry {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// FormatGlobalUsage builds a help text for all commands.
func FormatGlobalUsage() string {
	lines := []string{
		"VaultSync CLI",
		"",
		"Usage:",
		"  vscli [--base-url <host:port>] [--https] <command> [args]",
		"",
		"Commands:",
	}
	for _, c := range List() {
		lines = append(lines, fmt.Sprintf("  %-44s %s", c.Usage(), c.Description()))
	}
	return strings.Join(lines, "\n") + "\n"
}

func storeFor(cfg *config.Config) fs.AuthFSStore {
	return fs.AuthFSStore{TokenFile: cfg.TokenFile}
}

// authedClient — клиент API с сохранённым токеном.
func authedClient(cfg *config.Config) (*api.Client, error) {
	token, err := storeFor(cfg).Load()
	if err != nil {
		return nil, ErrNotLoggedIn
	}
	return api.New(cfg.ServerURL, token), nil
}

// vaultArg — id хранилища из аргумента или текущее хранилище (команда use).
func vaultArg(cfg *config.Config, args []string) (string, []string, error) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:], nil
	}
	id, err := storeFor(cfg).LoadVault()
	if err != nil {
		return "", args, errors.New("no vault given and no current vault: run `vscli use <vault-id>`")
	}
	return id, args, nil
}

func table(header ...string) *tabwriter.Writer {
	w := tabwriter.NewWriter(Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	return w
}

// warnDegraded сообщает, что запись прошла, но часть побочных эффектов не выполнилась.
func warnDegraded(r *api.Response) {
	if r != nil && r.Degraded != "" {
		fmt.Fprintf(Out, "warning: saved, but degraded: %s\n", r.Degraded)
	}
}
