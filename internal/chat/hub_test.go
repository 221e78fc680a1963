package chat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeConn records everything written to it.
type fakeConn struct {
	mu     sync.Mutex
	frames []Envelope
	closed bool
	fail   bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errFake
	}
	c.frames = append(c.frames, v.(Envelope))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) received() []Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Envelope, len(c.frames))
	copy(out, c.frames)
	return out
}

var errFake = &fakeErr{}

type fakeErr struct{}

func (e *fakeErr) Error() string { return "write failed" }

func TestAdmitGate(t *testing.T) {
	require.NoError(t, Admit("monthly"))
	require.NoError(t, Admit("yearly"))
	require.NoError(t, Admit("premium"))

	require.ErrorIs(t, Admit("free"), ErrSubscriptionRequired)
	require.ErrorIs(t, Admit("lifetime_free"), ErrSubscriptionRequired)
	require.ErrorIs(t, Admit(""), ErrSubscriptionRequired)
	require.ErrorIs(t, Admit("admin"), ErrSubscriptionRequired)
}

func TestRelayExcludesSender(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	alice, bob, carol := &fakeConn{}, &fakeConn{}, &fakeConn{}
	a := hub.Add(alice, 1, "alice@example.com", "yearly")
	hub.Add(bob, 2, "bob@example.com", "monthly")
	hub.Add(carol, 3, "carol@example.com", "premium")

	msg := hub.Relay(a, "BTC looking strong")
	require.Equal(t, uint64(1), msg.SenderID)
	require.NotEmpty(t, msg.ID)

	require.Empty(t, alice.received(), "sender must not receive its own message")
	for _, c := range []*fakeConn{bob, carol} {
		frames := c.received()
		require.Len(t, frames, 1)
		require.Equal(t, "new_chat_message", frames[0].Event)
		got := frames[0].Data.(Message)
		require.Equal(t, "BTC looking strong", got.Text)
		require.Equal(t, "alice@example.com", got.SenderEmail)
	}
}

func TestBroadcastReachesEveryone(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	alice, bob := &fakeConn{}, &fakeConn{}
	hub.Add(alice, 1, "alice@example.com", "yearly")
	hub.Add(bob, 2, "bob@example.com", "monthly")

	hub.Broadcast("premium_chat", map[string]string{"symbol": "EURUSD"})

	for _, c := range []*fakeConn{alice, bob} {
		frames := c.received()
		require.Len(t, frames, 1)
		require.Equal(t, "premium_chat", frames[0].Event)
	}
}

func TestFailedWriteDropsMember(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	good, bad := &fakeConn{}, &fakeConn{fail: true}
	g := hub.Add(good, 1, "good@example.com", "yearly")
	hub.Add(bad, 2, "bad@example.com", "monthly")
	require.Equal(t, 2, hub.Len())

	hub.Relay(g, "hello")

	// The failed recipient is removed asynchronously.
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)
	require.True(t, bad.closed)
}

func TestOfflineMemberMissesMessages(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	alice, bob := &fakeConn{}, &fakeConn{}
	a := hub.Add(alice, 1, "alice@example.com", "yearly")
	b := hub.Add(bob, 2, "bob@example.com", "monthly")

	hub.Remove(b)
	hub.Relay(a, "while you were away")

	// Fire-and-forget: nothing is queued for reconnects.
	require.Empty(t, bob.received())
	re := hub.Add(bob, 2, "bob@example.com", "monthly")
	require.Empty(t, bob.received())
	hub.Remove(re)
}

func TestCloseRefusesLateJoins(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := &fakeConn{}
	hub.Add(c, 1, "a@example.com", "yearly")
	hub.Close()
	require.True(t, c.closed)
	require.Equal(t, 0, hub.Len())

	late := &fakeConn{}
	hub.Add(late, 2, "b@example.com", "monthly")
	require.True(t, late.closed)
	require.Equal(t, 0, hub.Len())
}
