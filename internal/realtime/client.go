package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	maxMessage = 8 << 10
	// authorizeTimeout ограничивает проверку членства при вступлении в группу.
	authorizeTimeout = 5 * time.Second
)

// Authorizer проверяет право пользователя вступить в группу.
type Authorizer interface {
	AuthorizeVault(ctx context.Context, userID, vaultID string) error
	AuthorizeSource(ctx context.Context, userID, sourceID string) error
}

// Client — одно websocket-соединение.
type Client struct {
	id     string
	userID string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte

	// presence по группам хранилищ; трогает только readPump
	presence map[string]Presence
}

func newClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		id:       uuid.NewString(),
		userID:   userID,
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		presence: make(map[string]Presence),
	}
}

// ID — идентификатор соединения.
func (c *Client) ID() string { return c.id }

// UserID — аутентифицированный пользователь соединения.
func (c *Client) UserID() string { return c.userID }

func (c *Client) readPump(ctx context.Context, auth Authorizer) {
	defer func() {
		c.disconnect()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.hub.logger.Debugw("realtime: read", "client", c.id, "error", err)
			}
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.hub.send(c, EventError, ErrorEvent{Reason: "invalid_message"})
			continue
		}
		c.handle(ctx, auth, msg)
	}
}

func (c *Client) handle(ctx context.Context, auth Authorizer, msg ClientMessage) {
	switch msg.Action {
	case ActionJoinVault:
		if msg.VaultID == "" {
			c.hub.send(c, EventError, ErrorEvent{Action: msg.Action, Reason: "missing_field"})
			return
		}
		group := VaultGroup(msg.VaultID)
		if !c.authorize(ctx, msg.Action, group, func(ctx context.Context) error {
			return auth.AuthorizeVault(ctx, c.userID, msg.VaultID)
		}) {
			return
		}
		if msg.User != nil {
			p := *msg.User
			if p.ID == "" {
				p.ID = c.userID
			}
			c.presence[group] = p
			_ = c.hub.EmitExcept(group, EventUserJoined, PresenceEvent{VaultID: msg.VaultID, User: p}, c)
		}

	case ActionLeaveVault:
		group := VaultGroup(msg.VaultID)
		c.hub.Leave(c, group)
		if p, ok := c.presence[group]; ok {
			delete(c.presence, group)
			_ = c.hub.Emit(group, EventUserLeft, PresenceEvent{VaultID: msg.VaultID, User: p})
		}
		c.hub.send(c, EventLeft, GroupEvent{Group: group})

	case ActionJoinSource:
		if msg.SourceID == "" {
			c.hub.send(c, EventError, ErrorEvent{Action: msg.Action, Reason: "missing_field"})
			return
		}
		group := SourceGroup(msg.SourceID)
		c.authorize(ctx, msg.Action, group, func(ctx context.Context) error {
			return auth.AuthorizeSource(ctx, c.userID, msg.SourceID)
		})

	case ActionLeaveSource:
		group := SourceGroup(msg.SourceID)
		c.hub.Leave(c, group)
		c.hub.send(c, EventLeft, GroupEvent{Group: group})

	case ActionPing:
		c.hub.send(c, EventPong, nil)

	default:
		c.hub.send(c, EventError, ErrorEvent{Action: msg.Action, Reason: "unknown_action"})
	}
}

// authorize проверяет доступ, вступает в группу и отвечает joined или error.
func (c *Client) authorize(ctx context.Context, action, group string, check func(context.Context) error) bool {
	actx, cancel := context.WithTimeout(ctx, authorizeTimeout)
	err := check(actx)
	cancel()
	if err != nil {
		c.hub.send(c, EventError, ErrorEvent{Action: action, Reason: reasonOf(err), Group: group})
		return false
	}
	if err := c.hub.Join(c, group); err != nil {
		c.hub.send(c, EventError, ErrorEvent{Action: action, Reason: "unavailable", Group: group})
		return false
	}
	c.hub.send(c, EventJoined, GroupEvent{Group: group})
	return true
}

// disconnect выходит из всех групп и рассылает user_left по группам хранилищ с presence.
func (c *Client) disconnect() {
	c.hub.remove(c)
	for group, p := range c.presence {
		vaultID := group[len("vault:"):]
		_ = c.hub.Emit(group, EventUserLeft, PresenceEvent{VaultID: vaultID, User: p})
	}
	c.presence = nil
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// reasoner — ошибки с машиночитаемой причиной (service.Error).
type reasoner interface {
	ReasonCode() string
}

func reasonOf(err error) string {
	var r reasoner
	if errors.As(err, &r) && r.ReasonCode() != "" {
		return r.ReasonCode()
	}
	return "forbidden"
}
