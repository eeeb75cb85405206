package realtime

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrHubClosed — хаб остановлен, рассылка невозможна.
var ErrHubClosed = errors.New("realtime hub closed")

// sendBuffer — размер очереди исходящих сообщений клиента.
const sendBuffer = 256

// Hub хранит членство клиентов в группах и рассылает события.
// Создаётся в main и передаётся всем, кому нужна рассылка.
type Hub struct {
	mu      sync.Mutex
	groups  map[string]map[*Client]struct{}
	clients map[*Client]struct{}
	closed  bool
	logger  *zap.SugaredLogger
}

// NewHub создаёт пустой хаб.
func NewHub(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		groups:  make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) register(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	h.clients[c] = struct{}{}
	return nil
}

// Join добавляет клиента в группу.
func (h *Hub) Join(c *Client, group string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	if _, ok := h.clients[c]; !ok {
		return errors.New("client is not connected")
	}
	members, ok := h.groups[group]
	if !ok {
		members = make(map[*Client]struct{})
		h.groups[group] = members
	}
	members[c] = struct{}{}
	return nil
}

// Leave удаляет клиента из группы. Пустые группы удаляются.
func (h *Hub) Leave(c *Client, group string) {
	h.mu.Lock()
	h.leaveLocked(c, group)
	h.mu.Unlock()
}

func (h *Hub) leaveLocked(c *Client, group string) {
	members, ok := h.groups[group]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.groups, group)
	}
}

// Members — число клиентов в группе.
func (h *Hub) Members(group string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[group])
}

// Emit рассылает событие всем участникам группы.
func (h *Hub) Emit(group, eventType string, data any) error {
	return h.EmitExcept(group, eventType, data, nil)
}

// EmitExcept рассылает событие всем участникам группы, кроме except.
// Сообщение ставится в очереди всех участников под одной блокировкой,
// поэтому порядок событий в группе одинаков для всех получателей.
func (h *Hub) EmitExcept(group, eventType string, data any, except *Client) error {
	msg, err := encode(eventType, data)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	for c := range h.groups[group] {
		if c == except {
			continue
		}
		h.enqueueLocked(c, msg)
	}
	return nil
}

// send отправляет сообщение одному клиенту.
func (h *Hub) send(c *Client, eventType string, data any) {
	msg, err := encode(eventType, data)
	if err != nil {
		h.logger.Warnw("realtime: encode", "type", eventType, "error", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		h.enqueueLocked(c, msg)
	}
}

// enqueueLocked не блокируется: клиент с переполненной очередью отключается.
func (h *Hub) enqueueLocked(c *Client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		h.logger.Warnw("realtime: client too slow, dropping", "client", c.id)
		h.removeLocked(c)
	}
}

// remove отключает клиента от всех групп и закрывает его очередь.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
}

func (h *Hub) removeLocked(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	for group := range h.groups {
		h.leaveLocked(c, group)
	}
	delete(h.clients, c)
	close(c.send)
}

// Close останавливает хаб: очереди клиентов закрываются, последующие Emit возвращают ErrHubClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for c := range h.clients {
		h.removeLocked(c)
	}
	h.closed = true
}
