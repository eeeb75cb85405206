package commands

import (
	"VaultSync/internal/config"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type vaultView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

type memberView struct {
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type vaultsCmd struct{}

func (vaultsCmd) Name() string        { return "vaults" }
func (vaultsCmd) Description() string { return "List vaults you are a member of" }
func (vaultsCmd) Usage() string       { return "vaults" }

func (vaultsCmd) Run(ctx context.Context, cfg *config.Config, _ []string) error {
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	var vaults []vaultView
	if _, err := c.DoJSON(ctx, http.MethodGet, "/api/vaults", nil, &vaults); err != nil {
		return err
	}
	if len(vaults) == 0 {
		fmt.Fprintln(Out, "No vaults yet: run `vscli vault-create <name>`")
		return nil
	}
	current, _ := storeFor(cfg).LoadVault()
	w := table("", "ID", "NAME", "ROLE", "CREATED")
	for _, v := range vaults {
		mark := ""
		if v.ID == current {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", mark, v.ID, v.Name, v.Role, v.CreatedAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}

type vaultCreateCmd struct{}

func (vaultCreateCmd) Name() string        { return "vault-create" }
func (vaultCreateCmd) Description() string { return "Create a vault and make it current" }
func (vaultCreateCmd) Usage() string       { return "vault-create <name> [description...]" }

func (vaultCreateCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return ErrUsage
	}
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	req := map[string]string{"name": args[0], "description": strings.Join(args[1:], " ")}
	var v vaultView
	resp, err := c.DoJSON(ctx, http.MethodPost, "/api/vaults", req, &v)
	if err != nil {
		return err
	}
	warnDegraded(resp)
	if err := storeFor(cfg).SaveVault(v.ID); err != nil {
		return fmt.Errorf("save current vault: %w", err)
	}
	fmt.Fprintf(Out, "Vault created: %s (%s)\n", v.Name, v.ID)
	return nil
}

type membersCmd struct{}

func (membersCmd) Name() string        { return "members" }
func (membersCmd) Description() string { return "List vault members" }
func (membersCmd) Usage() string       { return "members [vault-id]" }

func (membersCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	vaultID, _, err := vaultArg(cfg, args)
	if err != nil {
		return err
	}
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	var members []memberView
	if _, err := c.DoJSON(ctx, http.MethodGet, "/api/vaults/"+url.PathEscape(vaultID)+"/members", nil, &members); err != nil {
		return err
	}
	w := table("NAME", "EMAIL", "ROLE", "JOINED")
	for _, m := range members {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Name, m.Email, m.Role, m.JoinedAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}

type inviteCmd struct{}

func (inviteCmd) Name() string        { return "invite" }
func (inviteCmd) Description() string { return "Invite a registered user into the current vault" }
func (inviteCmd) Usage() string       { return "invite <email> <OWNER|CONTRIBUTOR|VIEWER>" }

func (inviteCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	vaultID, _, err := vaultArg(cfg, args[2:])
	if err != nil {
		return err
	}
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	req := map[string]string{"email": args[0], "role": strings.ToUpper(args[1])}
	var m memberView
	resp, err := c.DoJSON(ctx, http.MethodPost, "/api/vaults/"+url.PathEscape(vaultID)+"/invite", req, &m)
	if err != nil {
		return err
	}
	warnDegraded(resp)
	fmt.Fprintf(Out, "Invited %s as %s\n", m.Email, m.Role)
	return nil
}

type useCmd struct{}

func (useCmd) Name() string        { return "use" }
func (useCmd) Description() string { return "Set the current vault" }
func (useCmd) Usage() string       { return "use <vault-id>" }

func (useCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	if err := storeFor(cfg).SaveVault(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Current vault: %s\n", args[0])
	return nil
}

func init() {
	RegisterCmd(vaultsCmd{})
	RegisterCmd(vaultCreateCmd{})
	RegisterCmd(membersCmd{})
	RegisterCmd(inviteCmd{})
	RegisterCmd(useCmd{})
}
