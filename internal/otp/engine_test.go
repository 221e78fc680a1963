package otp

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quantora/signals-backend/internal/model"
)

// memoryStore is an in-memory Store with the same "latest by created_at
// wins" resolution the SQL implementation has.
type memoryStore struct {
	nextID uint64
	rows   []model.Otp
}

func (m *memoryStore) Latest(_ context.Context, email, purpose string) (model.Otp, error) {
	matches := []model.Otp{}
	for _, r := range m.rows {
		if r.Email == email && r.Purpose == purpose {
			matches = append(matches, r)
		}
	}
	if len(matches) == 0 {
		return model.Otp{}, sql.ErrNoRows
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })
	return matches[0], nil
}

func (m *memoryStore) Insert(_ context.Context, email, purpose, code string, expiresAt, lastSent time.Time) error {
	m.nextID++
	m.rows = append(m.rows, model.Otp{
		ID: m.nextID, Email: email, Purpose: purpose, Code: code,
		ExpiresAt: expiresAt, LastSent: lastSent, CreatedAt: lastSent,
	})
	return nil
}

func (m *memoryStore) Refresh(_ context.Context, id uint64, code string, expiresAt, lastSent time.Time) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].Code = code
			m.rows[i].ExpiresAt = expiresAt
			m.rows[i].LastSent = lastSent
			m.rows[i].ResendCount++
			m.rows[i].Attempts = 0
			m.rows[i].BlockUntil = nil
		}
	}
	return nil
}

func (m *memoryStore) IncrementAttempts(_ context.Context, id uint64) (int, error) {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].Attempts++
			return m.rows[i].Attempts, nil
		}
	}
	return 0, sql.ErrNoRows
}

func (m *memoryStore) Block(_ context.Context, id uint64, until time.Time) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			u := until
			m.rows[i].BlockUntil = &u
		}
	}
	return nil
}

func (m *memoryStore) DeleteAll(_ context.Context, email, purpose string) error {
	kept := m.rows[:0]
	for _, r := range m.rows {
		if !(r.Email == email && r.Purpose == purpose) {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	return nil
}

type captureSender struct {
	codes []string
}

func (c *captureSender) SendCode(_ context.Context, _ string, code string) error {
	c.codes = append(c.codes, code)
	return nil
}

func newTestEngine(t *testing.T, start time.Time) (*Engine, *memoryStore, *captureSender, *time.Time) {
	t.Helper()
	store := &memoryStore{}
	sender := &captureSender{}
	now := start
	eng := NewEngine(store, sender, zap.NewNop()).WithClock(func() time.Time { return now })
	return eng, store, sender, &now
}

func TestVerifyOnceThenNotFound(t *testing.T) {
	ctx := context.Background()
	eng, _, sender, _ := newTestEngine(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	require.NoError(t, eng.Request(ctx, "User@Example.com", PurposeRegister))
	require.Len(t, sender.codes, 1)
	code := sender.codes[0]

	res, err := eng.Verify(ctx, "user@example.com", PurposeRegister, code)
	require.NoError(t, err)
	require.Equal(t, StatusVerified, res.Status)

	// The records were deleted on success; the same code cannot replay.
	res, err = eng.Verify(ctx, "user@example.com", PurposeRegister, code)
	require.NoError(t, err)
	require.Equal(t, StatusNotFound, res.Status)
}

func TestFifthFailureBlocksRegardlessOfCode(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	eng, _, sender, now := newTestEngine(t, start)

	require.NoError(t, eng.Request(ctx, "user@example.com", PurposeRegister))
	code := sender.codes[0]

	for i := 0; i < 4; i++ {
		res, err := eng.Verify(ctx, "user@example.com", PurposeRegister, "000000")
		require.NoError(t, err)
		require.Equal(t, StatusInvalid, res.Status, "attempt %d", i+1)
	}

	res, err := eng.Verify(ctx, "user@example.com", PurposeRegister, "000000")
	require.NoError(t, err)
	require.Equal(t, StatusBlocked, res.Status)
	require.Equal(t, start.Add(BlockWindow), res.BlockedUntil)

	// Even the correct code is refused while the block holds.
	*now = start.Add(5 * time.Minute)
	res, err = eng.Verify(ctx, "user@example.com", PurposeRegister, code)
	require.NoError(t, err)
	require.Equal(t, StatusBlocked, res.Status)
}

func TestResendCooldownDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	eng, store, sender, now := newTestEngine(t, start)

	require.NoError(t, eng.Request(ctx, "user@example.com", PurposeRegister))
	before, err := store.Latest(ctx, "user@example.com", "register")
	require.NoError(t, err)

	*now = start.Add(30 * time.Second)
	err = eng.Request(ctx, "user@example.com", PurposeRegister)
	var rl *RateLimitedError
	require.ErrorAs(t, err, &rl)
	require.Equal(t, 30*time.Second, rl.RetryAfter)

	after, err := store.Latest(ctx, "user@example.com", "register")
	require.NoError(t, err)
	require.Equal(t, before.Code, after.Code)
	require.Equal(t, before.ResendCount, after.ResendCount)
	require.Len(t, sender.codes, 1)
}

func TestResendAfterCooldownRotatesCode(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	eng, store, sender, now := newTestEngine(t, start)

	require.NoError(t, eng.Request(ctx, "user@example.com", PurposeRegister))

	*now = start.Add(61 * time.Second)
	require.NoError(t, eng.Request(ctx, "user@example.com", PurposeRegister))
	require.Len(t, sender.codes, 2)

	rec, err := store.Latest(ctx, "user@example.com", "register")
	require.NoError(t, err)
	require.Equal(t, 1, rec.ResendCount)
	require.Equal(t, sender.codes[1], rec.Code)
	require.Equal(t, (*now).Add(CodeTTL), rec.ExpiresAt)
}

func TestResendBudgetExhausted(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	eng, _, _, now := newTestEngine(t, start)

	require.NoError(t, eng.Request(ctx, "user@example.com", PurposeRegister))
	for i := 0; i < MaxResends; i++ {
		*now = (*now).Add(61 * time.Second)
		require.NoError(t, eng.Request(ctx, "user@example.com", PurposeRegister))
	}

	*now = (*now).Add(61 * time.Second)
	err := eng.Request(ctx, "user@example.com", PurposeRegister)
	require.ErrorIs(t, err, ErrTooManyResends)
}

func TestExpiredCode(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	eng, _, sender, now := newTestEngine(t, start)

	require.NoError(t, eng.Request(ctx, "user@example.com", PurposeRegister))

	*now = start.Add(CodeTTL + time.Second)
	res, err := eng.Verify(ctx, "user@example.com", PurposeRegister, sender.codes[0])
	require.NoError(t, err)
	require.Equal(t, StatusExpired, res.Status)
}

func TestBlockScopedPerPurpose(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	eng, _, sender, _ := newTestEngine(t, start)

	require.NoError(t, eng.Request(ctx, "user@example.com", PurposeForgot))
	require.NoError(t, eng.Request(ctx, "user@example.com", PurposeRegister))
	registerCode := sender.codes[1]

	// Exhaust attempts on the forgot flow.
	for i := 0; i < MaxAttempts; i++ {
		_, err := eng.Verify(ctx, "user@example.com", PurposeForgot, "000000")
		require.NoError(t, err)
	}
	res, err := eng.Verify(ctx, "user@example.com", PurposeForgot, "000000")
	require.NoError(t, err)
	require.Equal(t, StatusBlocked, res.Status)

	// The register flow is untouched.
	res, err = eng.Verify(ctx, "user@example.com", PurposeRegister, registerCode)
	require.NoError(t, err)
	require.Equal(t, StatusVerified, res.Status)
}

func TestLatestRecordWins(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	eng, store, _, now := newTestEngine(t, start)

	// Two fresh inserts for the same pair, as happens when a flow is
	// restarted: only the newest code verifies.
	require.NoError(t, store.Insert(ctx, "user@example.com", "register", "111111", start.Add(CodeTTL), start))
	*now = start.Add(2 * time.Minute)
	require.NoError(t, store.Insert(ctx, "user@example.com", "register", "222222", (*now).Add(CodeTTL), *now))

	res, err := eng.Verify(ctx, "user@example.com", PurposeRegister, "111111")
	require.NoError(t, err)
	require.Equal(t, StatusInvalid, res.Status)

	res, err = eng.Verify(ctx, "user@example.com", PurposeRegister, "222222")
	require.NoError(t, err)
	require.Equal(t, StatusVerified, res.Status)
}

func TestFirstRequestInsertsFreshRecord(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	eng, store, sender, _ := newTestEngine(t, start)

	require.NoError(t, eng.Request(ctx, "user@example.com", PurposeRegister))

	// The very first request must leave a live record behind, not just
	// dispatch a code.
	require.Len(t, store.rows, 1)
	rec, err := store.Latest(ctx, "user@example.com", "register")
	require.NoError(t, err)
	require.Equal(t, 0, rec.Attempts)
	require.Equal(t, 0, rec.ResendCount)
	require.Nil(t, rec.BlockUntil)
	require.Equal(t, start.Add(CodeTTL), rec.ExpiresAt)
	require.Len(t, sender.codes, 1)
	require.Equal(t, sender.codes[0], rec.Code)

	res, err := eng.Verify(ctx, "user@example.com", PurposeRegister, sender.codes[0])
	require.NoError(t, err)
	require.Equal(t, StatusVerified, res.Status)
}

func TestNewCodeClearsBlock(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	eng, _, sender, now := newTestEngine(t, start)

	require.NoError(t, eng.Request(ctx, "user@example.com", PurposeRegister))
	for i := 0; i < MaxAttempts; i++ {
		_, err := eng.Verify(ctx, "user@example.com", PurposeRegister, "000000")
		require.NoError(t, err)
	}
	res, err := eng.Verify(ctx, "user@example.com", PurposeRegister, "000000")
	require.NoError(t, err)
	require.Equal(t, StatusBlocked, res.Status)

	// A freshly issued code ends the block early and resets the
	// attempt budget.
	*now = start.Add(61 * time.Second)
	require.NoError(t, eng.Request(ctx, "user@example.com", PurposeRegister))
	require.Len(t, sender.codes, 2)

	res, err = eng.Verify(ctx, "user@example.com", PurposeRegister, sender.codes[1])
	require.NoError(t, err)
	require.Equal(t, StatusVerified, res.Status)
}

func TestGenerateCodeShape(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, ch := range code {
			require.True(t, ch >= '0' && ch <= '9')
		}
	}
}
