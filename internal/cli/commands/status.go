package commands

import (
	"VaultSync/internal/cli/api"
	"VaultSync/internal/config"
	"context"
	"fmt"
	"net/http"
)

type meResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Status печатает текущего пользователя по сохранённому токену.
func Status(ctx context.Context, cfg *config.Config) error {
	c, err := authedClient(cfg)
	if err != nil {
		fmt.Fprintln(Out, "Status: anonymous")
		return nil
	}
	var me meResponse
	if _, err := c.DoJSON(ctx, http.MethodGet, "/api/users/me", nil, &me); err != nil {
		if api.ReasonOf(err) == "unauthorized" {
			fmt.Fprintln(Out, "Status: token expired, login again")
			return nil
		}
		return err
	}
	fmt.Fprintf(Out, "Status: %s <%s> (id %s)\n", me.Name, me.Email, me.ID)
	if vaultID, err := storeFor(cfg).LoadVault(); err == nil {
		fmt.Fprintf(Out, "Current vault: %s\n", vaultID)
	}
	return nil
}

type statusCmd struct{}

func (statusCmd) Name() string        { return "status" }
func (statusCmd) Description() string { return "Show current user" }
func (statusCmd) Usage() string       { return "status" }

func (statusCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 0 {
		return ErrUsage
	}
	return Status(ctx, cfg)
}

func init() { RegisterCmd(statusCmd{}) }
