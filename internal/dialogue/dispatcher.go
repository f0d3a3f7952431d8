package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/luminebeauty/booking-assistant/internal/userlock"
	"github.com/luminebeauty/booking-assistant/pkg/logging"
)

// Turn is one inbound message waiting to be processed.
type Turn struct {
	UserID     string `json:"user_id"`
	Text       string `json:"text"`
	ReplyToken string `json:"reply_token"`
}

// Replier delivers the engine's reply back to the messaging channel.
type Replier interface {
	Reply(ctx context.Context, replyToken, text string) error
}

// ErrDispatcherClosed indicates the dispatcher is no longer accepting work.
var ErrDispatcherClosed = errors.New("dialogue: dispatcher closed")

type queueClient interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

const (
	defaultWorkers          = 2
	defaultReceiveWait      = 2  // seconds
	defaultReceiveMax       = 5  // messages
	maxReceiveWaitSeconds   = 20 // SQS limit
	maxReceiveBatchMessages = 10
)

type dispatcherConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
}

// DispatcherOption configures the dispatcher.
type DispatcherOption func(*dispatcherConfig)

// WithWorkerCount overrides the number of queue polling goroutines.
func WithWorkerCount(workers int) DispatcherOption {
	return func(cfg *dispatcherConfig) {
		if workers > 0 {
			cfg.workers = workers
		}
	}
}

// WithReceiveWaitSeconds sets the long-poll wait time for receive calls.
func WithReceiveWaitSeconds(seconds int) DispatcherOption {
	return func(cfg *dispatcherConfig) {
		if seconds < 0 {
			return
		}
		if seconds > maxReceiveWaitSeconds {
			seconds = maxReceiveWaitSeconds
		}
		cfg.receiveWaitSecs = seconds
	}
}

// WithReceiveBatchSize overrides how many messages each poll may return.
func WithReceiveBatchSize(size int) DispatcherOption {
	return func(cfg *dispatcherConfig) {
		if size <= 0 {
			return
		}
		if size > maxReceiveBatchMessages {
			size = maxReceiveBatchMessages
		}
		cfg.receiveBatchSize = size
	}
}

// Dispatcher routes inbound turns through a queue before invoking the
// dialogue engine. The webhook handler only enqueues, so a slow calendar
// or LLM call never blocks webhook delivery; replies go out through the
// channel's reply API from worker goroutines. The queue can point at
// LocalStack SQS during development and AWS SQS in production without
// touching the HTTP layer.
type Dispatcher struct {
	engine  *Engine
	queue   queueClient
	replier Replier
	locker  userlock.Locker
	logger  *logging.Logger

	cfg dispatcherConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher wires a queue-backed worker pool around the engine.
func NewDispatcher(engine *Engine, queue queueClient, replier Replier, locker userlock.Locker, logger *logging.Logger, opts ...DispatcherOption) *Dispatcher {
	if engine == nil {
		panic("dialogue: engine cannot be nil")
	}
	if queue == nil {
		panic("dialogue: queue cannot be nil")
	}
	if replier == nil {
		panic("dialogue: replier cannot be nil")
	}
	if locker == nil {
		locker = userlock.NoopLocker{}
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg := dispatcherConfig{
		workers:          defaultWorkers,
		receiveWaitSecs:  defaultReceiveWait,
		receiveBatchSize: defaultReceiveMax,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		engine:  engine,
		queue:   queue,
		replier: replier,
		locker:  locker,
		logger:  logger,
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < cfg.workers; i++ {
		d.wg.Add(1)
		go d.runWorker(i + 1)
	}

	return d
}

// Enqueue accepts an inbound turn for asynchronous processing.
func (d *Dispatcher) Enqueue(ctx context.Context, turn Turn) error {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-d.ctx.Done():
		return ErrDispatcherClosed
	default:
	}

	body, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("dialogue: failed to encode turn: %w", err)
	}
	if err := d.queue.Send(ctx, string(body)); err != nil {
		return fmt.Errorf("dialogue: failed to enqueue turn: %w", err)
	}
	return nil
}

// Shutdown stops worker goroutines and waits for in-flight turns.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (d *Dispatcher) runWorker(workerID int) {
	defer d.wg.Done()
	d.logger.Debug("dialogue worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-d.ctx.Done():
			d.logger.Debug("dialogue worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := d.queue.Receive(d.ctx, d.cfg.receiveBatchSize, d.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			d.logger.Error("failed to receive turns", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			d.handleQueueMessage(msg)
		}
	}
}

func (d *Dispatcher) handleQueueMessage(msg queueMessage) {
	defer func() {
		deleteCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.queue.Delete(deleteCtx, msg.ReceiptHandle); err != nil {
			d.logger.Error("failed to delete turn", "error", err)
		}
	}()

	var turn Turn
	if err := json.Unmarshal([]byte(msg.Body), &turn); err != nil {
		d.logger.Error("failed to decode turn", "error", err)
		return
	}
	if turn.UserID == "" {
		d.logger.Warn("turn missing user id", "message_id", msg.ID)
		return
	}

	// Same-user turns are serialized through the lock so a stale profile
	// state never drives the rule match.
	err := d.locker.WithUserLock(d.ctx, turn.UserID, func(ctx context.Context) error {
		reply, err := d.engine.HandleMessage(ctx, turn.UserID, turn.Text)
		if err != nil {
			return err
		}
		return d.replier.Reply(ctx, turn.ReplyToken, reply)
	})
	if err != nil {
		d.logger.Error("turn processing failed", "user_id", turn.UserID, "error", err)
	}
}
