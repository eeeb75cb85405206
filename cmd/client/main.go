// vscli — клиент VaultSync: аккаунт, хранилища, источники, аннотации и
// живая лента событий хранилища.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"VaultSync/internal/cli/commands"
	"VaultSync/internal/config"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	cfg := config.NewConfig()

	if cfg.Version {
		printVersion(os.Stdout, cfg)
		return
	}

	// Ctrl+C останавливает watch и прерывает текущий запрос
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := commands.Dispatch(ctx, cfg, flag.Args())
	cancel()
	if code != commands.ExitOK {
		os.Exit(code)
	}
}

func printVersion(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "VaultSync CLI\nVersion: %s\nBuild date: %s\nServer: %s\nToken file: %s\n",
		version, buildDate, cfg.ServerURL, cfg.TokenFile)
}
