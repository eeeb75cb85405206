// Package live — клиентская сторона канала /api/ws: подключение и список
// присутствующих, собранный из событий user_joined / user_left.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"VaultSync/internal/realtime"

	"github.com/gorilla/websocket"
)

// Conn — websocket-подключение к серверу.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex // запись в websocket не потокобезопасна
}

// WSURL переводит адрес сервера http(s)://host в ws(s)://host/api/ws.
func WSURL(serverURL string) (string, error) {
	u, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/ws"
	return u.String(), nil
}

// Dial подключается с bearer-токеном.
func Dial(ctx context.Context, serverURL, token string) (*Conn, error) {
	wsURL, err := WSURL(serverURL)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: status %d: %w", wsURL, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}
	return &Conn{ws: ws}, nil
}

// Send отправляет действие клиента.
func (c *Conn) Send(m realtime.ClientMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(m)
}

// JoinVault подписывается на события хранилища и объявляет себя присутствующим.
func (c *Conn) JoinVault(vaultID string, me *realtime.Presence) error {
	return c.Send(realtime.ClientMessage{Action: realtime.ActionJoinVault, VaultID: vaultID, User: me})
}

// JoinSource подписывается на аннотации источника.
func (c *Conn) JoinSource(sourceID string) error {
	return c.Send(realtime.ClientMessage{Action: realtime.ActionJoinSource, SourceID: sourceID})
}

// Next блокируется до следующего события сервера.
func (c *Conn) Next() (realtime.Envelope, error) {
	var env realtime.Envelope
	err := c.ws.ReadJSON(&env)
	return env, err
}

// Close закрывает подключение.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.ws.Close()
}

// Roster — кто сейчас в каком хранилище, по событиям присутствия.
// Сервер список не хранит: видны только те, кто вошёл после подключения.
type Roster struct {
	mu     sync.Mutex
	vaults map[string]map[string]realtime.Presence
}

func NewRoster() *Roster {
	return &Roster{vaults: make(map[string]map[string]realtime.Presence)}
}

// Apply учитывает событие; changed == true, если список изменился.
func (r *Roster) Apply(env realtime.Envelope) (changed bool, err error) {
	if env.Type != realtime.EventUserJoined && env.Type != realtime.EventUserLeft {
		return false, nil
	}
	var ev realtime.PresenceEvent
	if err := json.Unmarshal(env.Data, &ev); err != nil {
		return false, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	if ev.VaultID == "" || ev.User.ID == "" {
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	users := r.vaults[ev.VaultID]
	if env.Type == realtime.EventUserJoined {
		if users == nil {
			users = make(map[string]realtime.Presence)
			r.vaults[ev.VaultID] = users
		}
		prev, ok := users[ev.User.ID]
		users[ev.User.ID] = ev.User
		return !ok || prev != ev.User, nil
	}
	if _, ok := users[ev.User.ID]; !ok {
		return false, nil
	}
	delete(users, ev.User.ID)
	if len(users) == 0 {
		delete(r.vaults, ev.VaultID)
	}
	return true, nil
}

// Users — присутствующие в хранилище, по имени.
func (r *Roster) Users(vaultID string) []realtime.Presence {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]realtime.Presence, 0, len(r.vaults[vaultID]))
	for _, p := range r.vaults[vaultID] {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}
