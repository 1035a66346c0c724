package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisstore "github.com/gosuda/laneboard/internal/store/redis"
)

func newPubSub(t *testing.T) (*redisstore.PubSub, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	ps, err := redisstore.New(t.Context(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ps.Close() })
	return ps, mr
}

func TestBoardChannel(t *testing.T) {
	t.Parallel()

	boardID := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	other := uuid.MustParse("99999999-8888-7777-6666-555544443333")

	assert.Equal(t, "laneboard:board:11111111-2222-3333-4444-555555555555", redisstore.BoardChannel(boardID))
	assert.NotEqual(t, redisstore.BoardChannel(boardID), redisstore.BoardChannel(other))
}

func TestNew_PingFailure(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()

	_, err := redisstore.New(ctx, addr, "", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping")
}

func TestPubSub_Ping(t *testing.T) {
	t.Parallel()

	ps, mr := newPubSub(t)
	require.NoError(t, ps.Ping(t.Context()))

	mr.Close()
	assert.Error(t, ps.Ping(t.Context()))
}

func TestPubSub_PublishSubscribe(t *testing.T) {
	t.Parallel()

	ps, mr := newPubSub(t)
	boardID := uuid.New()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	messages, cleanup, err := ps.SubscribeBoard(ctx, boardID)
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, map[string]int{redisstore.BoardChannel(boardID): 1}, mr.PubSubNumSub(redisstore.BoardChannel(boardID)))

	n, err := ps.PublishBoard(ctx, boardID, []byte(`{"n":1}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = ps.PublishBoard(ctx, boardID, []byte(`{"n":2}`))
	require.NoError(t, err)

	for _, want := range []string{`{"n":1}`, `{"n":2}`} {
		select {
		case got := <-messages:
			assert.JSONEq(t, want, string(got))
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestPubSub_PublishWithoutViewers(t *testing.T) {
	t.Parallel()

	ps, _ := newPubSub(t)

	n, err := ps.PublishBoard(t.Context(), uuid.New(), []byte("nobody"))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPubSub_BoardsAreIsolated(t *testing.T) {
	t.Parallel()

	ps, _ := newPubSub(t)
	mine, other := uuid.New(), uuid.New()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	messages, cleanup, err := ps.SubscribeBoard(ctx, mine)
	require.NoError(t, err)
	defer cleanup()

	_, err = ps.PublishBoard(ctx, other, []byte("elsewhere"))
	require.NoError(t, err)
	_, err = ps.PublishBoard(ctx, mine, []byte("here"))
	require.NoError(t, err)

	select {
	case got := <-messages:
		assert.Equal(t, "here", string(got))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func TestPubSub_ClosesOnContextCancel(t *testing.T) {
	t.Parallel()

	ps, _ := newPubSub(t)

	ctx, cancel := context.WithCancel(t.Context())
	messages, cleanup, err := ps.SubscribeBoard(ctx, uuid.New())
	require.NoError(t, err)
	defer cleanup()

	cancel()

	select {
	case _, ok := <-messages:
		assert.False(t, ok, "channel must be closed after cancel")
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
