package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/shenikar/saferoute/internal/models"
)

var (
	ErrConnectionNotFound = errors.New("ws: connection not found")
	ErrConnectionClosed   = errors.New("ws: connection closed")
	ErrSendQueueFull      = errors.New("ws: send queue full")
)

const sendBufferSize = 32

type client struct {
	id   string
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClient(id string) *client {
	return &client{
		id:   id,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
}

// close помечает клиента закрытым; канал send не закрывается, чтобы отправитель не паниковал
func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// Hub - реестр открытых WebSocket-соединений по connectionID.
// Реализует service.AlertEmitter.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*client),
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
}

func (h *Hub) unregister(id string) {
	h.mu.Lock()
	c, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()
	if ok {
		c.close()
	}
}

// EmitAlert ставит событие alert в очередь соединения без блокировки.
// Если очередь переполнена, соединение закрывается и событие не доставляется
func (h *Hub) EmitAlert(connectionID string, event models.AlertEvent) error {
	return h.send(connectionID, EventAlert, event)
}

func (h *Hub) send(connectionID, event string, data any) error {
	h.mu.RLock()
	c, ok := h.clients[connectionID]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrConnectionNotFound, connectionID)
	}

	payload, err := json.Marshal(outboundMessage{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("ws: marshal %s event: %w", event, err)
	}
	if err := c.enqueue(payload); err != nil {
		if errors.Is(err, ErrSendQueueFull) {
			// медленный клиент отключается: в реестре остаются только те, кто получит событие
			h.unregister(connectionID)
		}
		return fmt.Errorf("%w: %s", err, connectionID)
	}
	return nil
}

func (c *client) enqueue(payload []byte) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}
	select {
	case c.send <- payload:
		return nil
	case <-c.done:
		return ErrConnectionClosed
	default:
		return ErrSendQueueFull
	}
}
