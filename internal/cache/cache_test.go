package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceqa/internal/ledger"
	"invoiceqa/pkg/models"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

var snapshot = ledger.Table{
	{"Doc No", "Debtor Name", "Sub Total"},
	{"IV-2601-001", "ABC TRADING", "100"},
}

func TestNewRedisClient(t *testing.T) {
	assert.Nil(t, NewRedisClient(Config{}))

	client := NewRedisClient(Config{Addr: "localhost:6379"})
	require.NotNil(t, client)
	assert.NoError(t, client.Close())

	assert.NoError(t, Ping(context.Background(), nil))
}

func TestTableCache_Redis(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()
	c := NewTableCache(client, time.Minute, "test:")

	_, err := c.Get(ctx, "ledger")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, "ledger", snapshot))
	assert.True(t, mr.Exists("test:table:ledger"))
	assert.Equal(t, time.Minute, mr.TTL("test:table:ledger"))

	got, err := c.Get(ctx, "ledger")
	require.NoError(t, err)
	assert.Equal(t, snapshot, got)

	require.NoError(t, c.Invalidate(ctx, "ledger"))
	assert.False(t, mr.Exists("test:table:ledger"))
	_, err = c.Get(ctx, "ledger")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestTableCache_SharedAcrossInstances(t *testing.T) {
	_, client := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, NewTableCache(client, time.Minute, "p:").Set(ctx, "ledger", snapshot))

	got, err := NewTableCache(client, time.Minute, "p:").Get(ctx, "ledger")
	require.NoError(t, err)
	assert.Equal(t, snapshot, got)
}

func TestTableCache_MemoryExpiry(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	c := NewTableCache(nil, time.Minute, "")
	c.now = func() time.Time { return clock }

	require.NoError(t, c.Set(ctx, "ledger", snapshot))
	got, err := c.Get(ctx, "ledger")
	require.NoError(t, err)
	assert.Equal(t, snapshot, got)

	clock = clock.Add(time.Minute)
	_, err = c.Get(ctx, "ledger")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestTableCache_FallsBackToMemoryWhenRedisDown(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()
	c := NewTableCache(client, time.Minute, "")

	mr.Close()

	assert.Error(t, c.Set(ctx, "ledger", snapshot))
	got, err := c.Get(ctx, "ledger")
	require.NoError(t, err)
	assert.Equal(t, snapshot, got)
}

type countingReader struct {
	calls atomic.Int32
	table ledger.Table
	err   error
}

func (r *countingReader) ReadTable(context.Context) (ledger.Table, error) {
	r.calls.Add(1)
	return r.table, r.err
}

func TestSource(t *testing.T) {
	_, client := setupRedis(t)
	ctx := context.Background()
	reader := &countingReader{table: snapshot}
	src := NewSource(NewTableCache(client, time.Minute, ""), "ledger", reader)

	for i := 0; i < 3; i++ {
		got, err := src.ReadTable(ctx)
		require.NoError(t, err)
		assert.Equal(t, snapshot, got)
	}
	assert.Equal(t, int32(1), reader.calls.Load())

	require.NoError(t, src.Invalidate(ctx))
	_, err := src.ReadTable(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), reader.calls.Load())
}

func TestSource_LoadError(t *testing.T) {
	boom := errors.New("sheet unavailable")
	src := NewSource(NewTableCache(nil, time.Minute, ""), "ledger", &countingReader{err: boom})

	_, err := src.ReadTable(context.Background())
	assert.ErrorIs(t, err, boom)
}

// blockingReader waits for release and fails with its context's error when
// that context was cancelled in the meantime
type blockingReader struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (r *blockingReader) ReadTable(ctx context.Context) (ledger.Table, error) {
	r.calls.Add(1)
	close(r.started)
	<-r.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func TestSource_LoadSurvivesCallerCancel(t *testing.T) {
	reader := &blockingReader{started: make(chan struct{}), release: make(chan struct{})}
	src := NewSource(NewTableCache(nil, time.Minute, ""), "ledger", reader)

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		table ledger.Table
		err   error
	}
	done := make(chan result, 1)
	go func() {
		got, err := src.ReadTable(ctx)
		done <- result{got, err}
	}()

	<-reader.started
	cancel()
	close(reader.release)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, snapshot, res.table)

	got, err := src.ReadTable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snapshot, got)
	assert.Equal(t, int32(1), reader.calls.Load())
}

func TestHistory_Redis(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()
	h := NewHistory(client, 3, time.Hour, "test:")

	require.NoError(t, h.Append(ctx, "chat-1",
		models.ChatMessage{Role: models.RoleUser, Content: "q1"},
		models.ChatMessage{Role: models.RoleAssistant, Content: "a1"},
	))
	require.NoError(t, h.Append(ctx, "chat-1",
		models.ChatMessage{Role: models.RoleUser, Content: "q2"},
		models.ChatMessage{Role: models.RoleAssistant, Content: "a2"},
	))

	msgs, err := h.Recent(ctx, "chat-1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "a1", msgs[0].Content)
	assert.Equal(t, "a2", msgs[2].Content)
	assert.Equal(t, time.Hour, mr.TTL("test:history:chat-1"))

	other, err := h.Recent(ctx, "chat-2")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, h.Clear(ctx, "chat-1"))
	msgs, err = h.Recent(ctx, "chat-1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestHistory_Memory(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(nil, 2, 0, "")

	for _, c := range []string{"one", "two", "three"} {
		require.NoError(t, h.Append(ctx, "chat", models.ChatMessage{Role: models.RoleUser, Content: c}))
	}

	msgs, err := h.Recent(ctx, "chat")
	require.NoError(t, err)
	assert.Equal(t, []models.ChatMessage{
		{Role: models.RoleUser, Content: "two"},
		{Role: models.RoleUser, Content: "three"},
	}, msgs)

	assert.NoError(t, h.Append(ctx, "", models.ChatMessage{Content: "ignored"}))
	require.NoError(t, h.Clear(ctx, "chat"))
	msgs, err = h.Recent(ctx, "chat")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
