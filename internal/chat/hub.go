// Package chat implements the premium chat channel: a subscription
// gate at connection time and fire-and-forget fan-out between the
// currently connected members. Messages are not persisted; a client
// that is offline when a message is sent never receives it.
package chat

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSubscriptionRequired is returned by Admit for plans outside the
// premium set. The connection must be refused before any membership is
// established.
var ErrSubscriptionRequired = errors.New("subscription required: only premium users can access the chat")

// premiumPlans is the set of subscription plans admitted to the chat.
var premiumPlans = map[string]bool{
	"monthly": true,
	"yearly":  true,
	"premium": true,
}

// Admit decides whether a token's subscription plan may join the chat.
func Admit(plan string) error {
	if !premiumPlans[plan] {
		return ErrSubscriptionRequired
	}
	return nil
}

// Conn is the subset of *websocket.Conn the hub writes to. Narrowed to
// an interface so tests can observe deliveries without real sockets.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Member is one admitted connection.
type Member struct {
	Conn    Conn
	UserID  uint64
	Email   string
	Plan    string
	Joined  time.Time
	writeMu sync.Mutex
}

func (m *Member) send(v interface{}) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return m.Conn.WriteJSON(v)
}

// Envelope is the wire frame sent to clients: an event name plus its
// payload.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Message is a relayed chat message.
type Message struct {
	ID          string    `json:"id"`
	SenderID    uint64    `json:"sender_id"`
	SenderEmail string    `json:"sender_email"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
}

// Hub owns the connection registry for the single premium broadcast
// group. It is constructed in main and passed to the socket handler and
// the queue consumer; its lifetime is the server's. All methods are
// safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	members map[*Member]struct{}
	closed  bool
	log     *zap.Logger
	nowFn   func() time.Time
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		members: make(map[*Member]struct{}),
		log:     log,
		nowFn:   time.Now,
	}
}

// Add registers an admitted connection and returns its membership.
func (h *Hub) Add(conn Conn, userID uint64, email, plan string) *Member {
	m := &Member{Conn: conn, UserID: userID, Email: email, Plan: plan, Joined: h.nowFn()}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return m
	}
	h.members[m] = struct{}{}
	total := len(h.members)
	h.mu.Unlock()

	h.log.Info("chat member joined",
		zap.String("email", email), zap.String("plan", plan), zap.Int("members", total))
	return m
}

// Remove drops a member and closes its connection.
func (h *Hub) Remove(m *Member) {
	h.mu.Lock()
	_, present := h.members[m]
	delete(h.members, m)
	total := len(h.members)
	h.mu.Unlock()

	_ = m.Conn.Close()
	if present {
		h.log.Info("chat member left", zap.String("email", m.Email), zap.Int("members", total))
	}
}

// Relay fans a member's message out to every other current member.
// Delivery is at-most-once: a failed write drops the recipient rather
// than retrying, and the sender does not receive its own message back.
func (h *Hub) Relay(sender *Member, text string) Message {
	msg := Message{
		ID:          uuid.NewString(),
		SenderID:    sender.UserID,
		SenderEmail: sender.Email,
		Text:        text,
		Timestamp:   h.nowFn().UTC(),
	}
	h.deliver(sender, Envelope{Event: "new_chat_message", Data: msg})
	return msg
}

// Broadcast sends an event to every current member. The queue consumer
// uses this to announce freshly published content.
func (h *Hub) Broadcast(event string, data interface{}) {
	h.deliver(nil, Envelope{Event: event, Data: data})
}

func (h *Hub) deliver(exclude *Member, env Envelope) {
	h.mu.RLock()
	targets := make([]*Member, 0, len(h.members))
	for m := range h.members {
		if m != exclude {
			targets = append(targets, m)
		}
	}
	h.mu.RUnlock()

	for _, m := range targets {
		if err := m.send(env); err != nil {
			h.log.Warn("chat delivery failed, dropping member",
				zap.String("email", m.Email), zap.Error(err))
			go h.Remove(m)
		}
	}
}

// Len reports the current member count.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members)
}

// Close disconnects everyone and refuses further registrations. Called
// on server shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	members := make([]*Member, 0, len(h.members))
	for m := range h.members {
		members = append(members, m)
	}
	h.members = make(map[*Member]struct{})
	h.closed = true
	h.mu.Unlock()

	for _, m := range members {
		_ = m.Conn.Close()
	}
}
