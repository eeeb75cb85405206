package commands

import (
	"VaultSync/internal/cli/live"
	"VaultSync/internal/config"
	"VaultSync/internal/realtime"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type watchCmd struct{}

func (watchCmd) Name() string        { return "watch" }
func (watchCmd) Description() string { return "Follow live vault activity and presence" }
func (watchCmd) Usage() string       { return "watch [vault-id] [source-id...]" }

func (watchCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	vaultID, sourceIDs, err := vaultArg(cfg, args)
	if err != nil {
		return err
	}
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	var me meResponse
	if _, err := c.DoJSON(ctx, http.MethodGet, "/api/users/me", nil, &me); err != nil {
		return err
	}

	conn, err := live.Dial(ctx, cfg.ServerURL, c.Token)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer conn.Close()

	if err := conn.JoinVault(vaultID, &realtime.Presence{ID: me.ID, Name: me.Name, Email: me.Email}); err != nil {
		return err
	}
	for _, id := range sourceIDs {
		if err := conn.JoinSource(id); err != nil {
			return err
		}
	}
	fmt.Fprintf(Out, "Watching vault %s, Ctrl+C to stop\n", vaultID)

	roster := live.NewRoster()
	for {
		env, err := conn.Next()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("connection closed: %w", err)
		}
		fmt.Fprintln(Out, describeEvent(env))
		changed, err := roster.Apply(env)
		if err != nil {
			fmt.Fprintf(Out, "warning: %v\n", err)
			continue
		}
		if changed {
			names := make([]string, 0)
			for _, p := range roster.Users(vaultID) {
				names = append(names, p.Name)
			}
			fmt.Fprintf(Out, "  online: %s\n", strings.Join(names, ", "))
		}
	}
}

// describeEvent — строка события для вывода в терминал.
func describeEvent(env realtime.Envelope) string {
	at := time.UnixMilli(env.Timestamp).Local().Format(time.TimeOnly)
	switch env.Type {
	case realtime.EventSourceAdded, realtime.EventSourceUpdated:
		var s sourceView
		if json.Unmarshal(env.Data, &s) == nil {
			return fmt.Sprintf("%s %s: %s (%s)", at, env.Type, s.Title, s.ID)
		}
	case realtime.EventAnnotationAdded:
		var a annotationView
		if json.Unmarshal(env.Data, &a) == nil {
			return fmt.Sprintf("%s %s on %s %s: %s", at, env.Type, a.SourceID, a.Position, a.Content)
		}
	case realtime.EventUserJoined, realtime.EventUserLeft:
		var p realtime.PresenceEvent
		if json.Unmarshal(env.Data, &p) == nil {
			return fmt.Sprintf("%s %s: %s", at, env.Type, p.User.Name)
		}
	case realtime.EventError:
		var e realtime.ErrorEvent
		if json.Unmarshal(env.Data, &e) == nil {
			return fmt.Sprintf("%s error: %s %s", at, e.Reason, e.Group)
		}
	}
	return fmt.Sprintf("%s %s %s", at, env.Type, string(env.Data))
}

func init() { RegisterCmd(watchCmd{}) }
