package commands

import (
	"VaultSync/internal/cli/api"
	"VaultSync/internal/config"
	"context"
	"errors"
	"fmt"
	"net/http"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password"`
}

// Register регистрирует пользователя и сохраняет токен.
func Register(ctx context.Context, cfg *config.Config, req RegisterRequest) (*authResponse, error) {
	var out authResponse
	resp, err := api.New(cfg.ServerURL, "").DoJSON(ctx, http.MethodPost, "/api/users/register", req, &out)
	if err != nil {
		if api.ReasonOf(err) == "email_taken" {
			return nil, errors.New("email already registered")
		}
		return nil, err
	}
	if err := persistAuth(cfg, resp, out.User.Email); err != nil {
		return nil, err
	}
	return &out, nil
}

type registerCmd struct{}

func (registerCmd) Name() string        { return "register" }
func (registerCmd) Description() string { return "Create an account and store auth token" }
func (registerCmd) Usage() string       { return "register <email> <name> [password]" }

func (registerCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	password, err := passwordArg(args, 2)
	if err != nil {
		return err
	}
	out, err := Register(ctx, cfg, RegisterRequest{Email: args[0], Name: args[1], Password: password})
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Registered %s <%s>\n", out.User.Name, out.User.Email)
	return nil
}

func init() { RegisterCmd(registerCmd{}) }
