package dialogue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminebeauty/booking-assistant/internal/profile"
	"github.com/luminebeauty/booking-assistant/pkg/logging"
)

type recordingReplier struct {
	mu      sync.Mutex
	replies []string
	tokens  []string
}

func (r *recordingReplier) Reply(_ context.Context, replyToken, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = append(r.tokens, replyToken)
	r.replies = append(r.replies, text)
	return nil
}

func (r *recordingReplier) snapshot() ([]string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.tokens...), append([]string(nil), r.replies...)
}

func newDispatcherFixture(t *testing.T) (*Dispatcher, *fixture, *recordingReplier) {
	t.Helper()
	f := newFixture(t)
	replier := &recordingReplier{}
	d := NewDispatcher(
		f.engine,
		NewMemoryQueue(16),
		replier,
		nil,
		logging.New("error"),
		WithWorkerCount(1),
		WithReceiveWaitSeconds(1),
	)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = d.Shutdown(ctx)
	})
	return d, f, replier
}

func TestDispatcherProcessesTurn(t *testing.T) {
	d, f, replier := newDispatcherFixture(t)

	err := d.Enqueue(context.Background(), Turn{UserID: "u1", Text: "哈囉", ReplyToken: "tok-1"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		tokens, _ := replier.snapshot()
		return len(tokens) == 1
	}, 2*time.Second, 10*time.Millisecond)

	tokens, replies := replier.snapshot()
	assert.Equal(t, "tok-1", tokens[0])
	assert.Contains(t, replies[0], "稱呼")
	assert.Equal(t, profile.StateCollectingName, f.profileOf(t, "u1").State)
}

func TestDispatcherPreservesArrivalOrder(t *testing.T) {
	d, f, replier := newDispatcherFixture(t)

	turns := []Turn{
		{UserID: "u1", Text: "哈囉", ReplyToken: "t1"},
		{UserID: "u1", Text: "王小明", ReplyToken: "t2"},
		{UserID: "u1", Text: "0912345678", ReplyToken: "t3"},
	}
	for _, turn := range turns {
		require.NoError(t, d.Enqueue(context.Background(), turn))
	}

	require.Eventually(t, func() bool {
		tokens, _ := replier.snapshot()
		return len(tokens) == 3
	}, 3*time.Second, 10*time.Millisecond)

	tokens, _ := replier.snapshot()
	assert.Equal(t, []string{"t1", "t2", "t3"}, tokens)
	assert.Equal(t, profile.StateAskService, f.profileOf(t, "u1").State)
}

func TestDispatcherSkipsMalformedPayload(t *testing.T) {
	f := newFixture(t)
	replier := &recordingReplier{}
	queue := NewMemoryQueue(16)
	d := NewDispatcher(f.engine, queue, replier, nil, logging.New("error"), WithWorkerCount(1), WithReceiveWaitSeconds(1))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = d.Shutdown(ctx)
	}()

	require.NoError(t, queue.Send(context.Background(), "{not json"))
	require.NoError(t, d.Enqueue(context.Background(), Turn{UserID: "u1", Text: "哈囉", ReplyToken: "ok"}))

	require.Eventually(t, func() bool {
		tokens, _ := replier.snapshot()
		return len(tokens) == 1
	}, 2*time.Second, 10*time.Millisecond)

	tokens, _ := replier.snapshot()
	assert.Equal(t, []string{"ok"}, tokens)
}

func TestDispatcherRejectsAfterShutdown(t *testing.T) {
	d, _, _ := newDispatcherFixture(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))

	err := d.Enqueue(context.Background(), Turn{UserID: "u1", Text: "哈囉"})
	assert.ErrorIs(t, err, ErrDispatcherClosed)
}
