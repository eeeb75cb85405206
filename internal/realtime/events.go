// Package realtime — группы присутствия и рассылка событий по websocket.
//
// Клиент подключается к /api/ws, вступает в группы vault:<id> и source:<id>
// и получает события в конверте {type, data, timestamp}. Доставка best-effort,
// без хранения и повторной отправки.
package realtime

import (
	"encoding/json"
	"time"
)

// События сервер → клиент.
const (
	EventSourceAdded     = "source_added"
	EventSourceUpdated   = "source_updated"
	EventAnnotationAdded = "annotation_added"
	EventUserJoined      = "user_joined"
	EventUserLeft        = "user_left"
	EventJoined          = "joined"
	EventLeft            = "left"
	EventPong            = "pong"
	EventError           = "error"
)

// Действия клиент → сервер.
const (
	ActionJoinVault   = "join_vault"
	ActionLeaveVault  = "leave_vault"
	ActionJoinSource  = "join_source"
	ActionLeaveSource = "leave_source"
	ActionPing        = "ping"
)

// VaultGroup — имя группы хранилища.
func VaultGroup(vaultID string) string { return "vault:" + vaultID }

// SourceGroup — имя группы источника.
func SourceGroup(sourceID string) string { return "source:" + sourceID }

// Envelope — обёртка всех сообщений сервера.
type Envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Presence — идентичность участника, которую сообщает сам клиент.
type Presence struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// ClientMessage — входящее сообщение клиента.
type ClientMessage struct {
	Action   string    `json:"action"`
	VaultID  string    `json:"vault_id,omitempty"`
	SourceID string    `json:"source_id,omitempty"`
	User     *Presence `json:"user,omitempty"`
}

// PresenceEvent — данные user_joined / user_left.
type PresenceEvent struct {
	VaultID string   `json:"vault_id"`
	User    Presence `json:"user"`
}

// GroupEvent — данные joined / left.
type GroupEvent struct {
	Group string `json:"group"`
}

// ErrorEvent — отказ на действие клиента.
type ErrorEvent struct {
	Action string `json:"action,omitempty"`
	Reason string `json:"reason"`
	Group  string `json:"group,omitempty"`
}

func encode(eventType string, data any) ([]byte, error) {
	env := Envelope{Type: eventType, Timestamp: time.Now().UnixMilli()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		env.Data = raw
	}
	return json.Marshal(env)
}
