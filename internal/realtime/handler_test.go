package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type reasonErr struct{ reason string }

func (e reasonErr) Error() string      { return e.reason }
func (e reasonErr) ReasonCode() string { return e.reason }

// fakeAuth: пользователь состоит только в хранилище "v1" и видит только источник "s1".
type fakeAuth struct{}

func (fakeAuth) AuthorizeVault(_ context.Context, userID, vaultID string) error {
	if vaultID == "v1" && userID != "stranger" {
		return nil
	}
	return reasonErr{"not_a_member"}
}

func (fakeAuth) AuthorizeSource(_ context.Context, userID, sourceID string) error {
	if sourceID == "s1" && userID != "stranger" {
		return nil
	}
	return errors.New("no")
}

func newWSServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(zap.NewNop().Sugar())
	verify := func(token string) (string, error) {
		if strings.HasPrefix(token, "tok-") {
			return strings.TrimPrefix(token, "tok-"), nil
		}
		return "", errors.New("bad token")
	}
	noCtxUser := func(*http.Request) (string, bool) { return "", false }
	srv := httptest.NewServer(Handler(hub, fakeAuth{}, noCtxUser, verify))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, user string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=tok-" + user
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendMsg(t *testing.T, c *websocket.Conn, m ClientMessage) {
	t.Helper()
	require.NoError(t, c.WriteJSON(m))
}

func next(t *testing.T, c *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(3*time.Second)))
	var env Envelope
	require.NoError(t, c.ReadJSON(&env))
	return env
}

func TestHandler_RejectsWithoutToken(t *testing.T) {
	_, srv := newWSServer(t)
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_PresenceAndBroadcast(t *testing.T) {
	hub, srv := newWSServer(t)
	alice := dial(t, srv, "u1")
	bob := dial(t, srv, "u2")

	sendMsg(t, alice, ClientMessage{Action: ActionJoinVault, VaultID: "v1", User: &Presence{ID: "u1", Name: "Alice"}})
	env := next(t, alice)
	require.Equal(t, EventJoined, env.Type)
	assert.JSONEq(t, `{"group":"vault:v1"}`, string(env.Data))

	sendMsg(t, bob, ClientMessage{Action: ActionJoinVault, VaultID: "v1", User: &Presence{Name: "Bob"}})
	require.Equal(t, EventJoined, next(t, bob).Type)

	// alice видит, что bob вошёл; id подставлен из токена
	env = next(t, alice)
	require.Equal(t, EventUserJoined, env.Type)
	var pe PresenceEvent
	require.NoError(t, json.Unmarshal(env.Data, &pe))
	assert.Equal(t, "v1", pe.VaultID)
	assert.Equal(t, Presence{ID: "u2", Name: "Bob"}, pe.User)

	require.NoError(t, hub.Emit(VaultGroup("v1"), EventSourceAdded, map[string]string{"id": "s9"}))
	for _, c := range []*websocket.Conn{alice, bob} {
		env := next(t, c)
		assert.Equal(t, EventSourceAdded, env.Type)
		assert.JSONEq(t, `{"id":"s9"}`, string(env.Data))
	}

	// bob отключается: alice получает user_left
	require.NoError(t, bob.Close())
	env = next(t, alice)
	require.Equal(t, EventUserLeft, env.Type)
	require.NoError(t, json.Unmarshal(env.Data, &pe))
	assert.Equal(t, "u2", pe.User.ID)
}

func TestHandler_JoinRefused(t *testing.T) {
	_, srv := newWSServer(t)
	c := dial(t, srv, "stranger")

	sendMsg(t, c, ClientMessage{Action: ActionJoinVault, VaultID: "v1"})
	env := next(t, c)
	require.Equal(t, EventError, env.Type)
	var e ErrorEvent
	require.NoError(t, json.Unmarshal(env.Data, &e))
	assert.Equal(t, "not_a_member", e.Reason)
	assert.Equal(t, "vault:v1", e.Group)

	sendMsg(t, c, ClientMessage{Action: ActionJoinSource, SourceID: "s1"})
	env = next(t, c)
	require.Equal(t, EventError, env.Type)
	require.NoError(t, json.Unmarshal(env.Data, &e))
	assert.Equal(t, "forbidden", e.Reason)
}

func TestHandler_SourceGroupPingAndLeave(t *testing.T) {
	hub, srv := newWSServer(t)
	c := dial(t, srv, "u1")

	sendMsg(t, c, ClientMessage{Action: ActionPing})
	assert.Equal(t, EventPong, next(t, c).Type)

	sendMsg(t, c, ClientMessage{Action: ActionJoinSource, SourceID: "s1"})
	require.Equal(t, EventJoined, next(t, c).Type)
	assert.Equal(t, 1, hub.Members(SourceGroup("s1")))

	require.NoError(t, hub.Emit(SourceGroup("s1"), EventAnnotationAdded, map[string]string{"id": "a1"}))
	assert.Equal(t, EventAnnotationAdded, next(t, c).Type)

	sendMsg(t, c, ClientMessage{Action: ActionLeaveSource, SourceID: "s1"})
	assert.Equal(t, EventLeft, next(t, c).Type)
	assert.Equal(t, 0, hub.Members(SourceGroup("s1")))

	sendMsg(t, c, ClientMessage{Action: "dance"})
	env := next(t, c)
	assert.Equal(t, EventError, env.Type)
	assert.Contains(t, string(env.Data), "unknown_action")
}
