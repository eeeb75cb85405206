package commands

import (
	"VaultSync/internal/cli/api"
	"VaultSync/internal/config"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/term"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
	Token string `json:"token"`
}

// readPassword спрашивает пароль без эха; в тестах подменяется.
var readPassword = func(prompt string) (string, error) {
	fmt.Fprint(Out, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(Out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

// passwordArg — пароль из аргумента или с терминала.
func passwordArg(args []string, i int) (string, error) {
	if len(args) > i {
		return args[i], nil
	}
	return readPassword("Password: ")
}

type loginCmd struct{}

func (loginCmd) Name() string        { return "login" }
func (loginCmd) Description() string { return "Login and store auth token" }
func (loginCmd) Usage() string       { return "login <email> [password]" }

func (loginCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return ErrUsage
	}
	password, err := passwordArg(args, 1)
	if err != nil {
		return err
	}
	req := LoginRequest{Email: args[0], Password: password}
	var out authResponse
	resp, err := api.New(cfg.ServerURL, "").DoJSON(ctx, http.MethodPost, "/api/users/login", req, &out)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return errors.New("invalid email or password")
		}
		return err
	}
	if err := persistAuth(cfg, resp, out.User.Email); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Logged in as %s <%s>\n", out.User.Name, out.User.Email)
	return nil
}

// persistAuth сохраняет токен и email из ответа регистрации/входа.
func persistAuth(cfg *config.Config, resp *api.Response, email string) error {
	token, err := api.TokenFromResponse(resp)
	if err != nil {
		return fmt.Errorf("saving auth: %w", err)
	}
	store := storeFor(cfg)
	if err := store.Save(token); err != nil {
		return fmt.Errorf("saving auth: %w", err)
	}
	if email != "" {
		_ = store.SaveEmail(strings.ToLower(email))
	}
	return nil
}

type logoutCmd struct{}

func (logoutCmd) Name() string        { return "logout" }
func (logoutCmd) Description() string { return "Forget stored auth token" }
func (logoutCmd) Usage() string       { return "logout" }

func (logoutCmd) Run(_ context.Context, cfg *config.Config, _ []string) error {
	if err := storeFor(cfg).Clear(); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Logged out")
	return nil
}

func init() {
	RegisterCmd(loginCmd{})
	RegisterCmd(logoutCmd{})
}
