package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/auction-sync/internal/contracts"
	"github.com/andreyxaxa/auction-sync/internal/infrastructure"
	kafkapc "github.com/andreyxaxa/auction-sync/internal/infrastructure/kafka"
	"github.com/andreyxaxa/auction-sync/internal/metrics"
	"github.com/andreyxaxa/auction-sync/pkg/logger"
	"github.com/andreyxaxa/auction-sync/pkg/types/errs"
	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
)

const _kindUnknown = "unknown"

type KafkaController struct {
	name     string
	handlers Handlers
	er       infrastructure.EventsReader
	dlq      infrastructure.DeadLetterSink
	logger   logger.Interface

	commitTimeout  time.Duration
	processTimeout time.Duration
	retryBackoff   time.Duration
	maxAttempts    int

	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	started atomic.Bool
}

func New(
	name string,
	handlers Handlers,
	er infrastructure.EventsReader,
	dlq infrastructure.DeadLetterSink,
	l logger.Interface,
	commitTimeout time.Duration,
	processTimeout time.Duration,
	retryBackoff time.Duration,
	maxAttempts int,
	workers int,
) *KafkaController {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if workers < 1 {
		workers = 1
	}

	return &KafkaController{
		name:           name,
		handlers:       handlers,
		er:             er,
		dlq:            dlq,
		logger:         l,
		commitTimeout:  commitTimeout,
		processTimeout: processTimeout,
		retryBackoff:   retryBackoff,
		maxAttempts:    maxAttempts,
		workers:        workers,
	}
}

func (c *KafkaController) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("KafkaController - Start - controller already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	// one channel per worker; a partition always maps to the same worker so its
	// offsets are committed in order
	shards := make([]chan kafka.Message, c.workers)
	for i := range shards {
		shards[i] = make(chan kafka.Message, 2)

		c.wg.Add(1)
		go c.worker(shards[i])
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			for _, ch := range shards {
				close(ch)
			}
		}()

		for {
			select {
			case <-c.ctx.Done():
				return
			default:
				msg, err := c.er.ReadEvent(c.ctx)
				if err != nil {
					if errors.Is(err, kafkapc.ErrReaderClosed) {
						return
					}
					if !errors.Is(err, context.Canceled) {
						c.logger.Error(err, "KafkaController - Start - c.er.ReadEvent")
					}
					continue
				}

				select {
				case shards[msg.Partition%c.workers] <- msg:
				case <-c.ctx.Done():
					return
				}
			}
		}
	}()

	return nil
}

func (c *KafkaController) worker(msgs <-chan kafka.Message) {
	defer c.wg.Done()

	for msg := range msgs {
		commit := func() (commit bool) {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error(fmt.Errorf("panic %v", r), "KafkaController - worker - panic")
					commit = c.deadLetter(msg, _kindUnknown, fmt.Errorf("panic: %v", r))
				}
			}()

			return c.handle(msg)
		}()
		if !commit {
			continue
		}

		commitCtx, commitCancel := context.WithTimeout(context.Background(), c.commitTimeout)
		err := c.er.CommitEvent(commitCtx, msg)
		commitCancel()
		if err != nil {
			c.logger.Error(err, "KafkaController - worker - c.er.CommitEvent")
		}
	}
}

// handle reports whether the message is done with and its offset may be committed.
func (c *KafkaController) handle(msg kafka.Message) bool {
	env, err := contracts.Unmarshal(msg.Value)
	if err != nil {
		return c.deadLetter(msg, _kindUnknown, err)
	}

	kind := string(env.Kind)

	h, ok := c.handlers[env.Kind]
	if !ok {
		c.logger.Warn("%s: no handler for kind %s on topic %s, skipping", c.name, kind, msg.Topic)
		metrics.EventsHandled.WithLabelValues(kind, metrics.OutcomeUnknown).Inc()

		return true
	}

	err = c.process(h, env)
	if err == nil {
		metrics.EventsHandled.WithLabelValues(kind, metrics.OutcomeOK).Inc()

		return true
	}

	// shutting down mid-retry: leave the offset alone so the message is redelivered
	if c.ctx.Err() != nil {
		return false
	}

	return c.deadLetter(msg, kind, err)
}

func (c *KafkaController) process(h Handler, env contracts.Envelope) error {
	attempt := 0

	op := func() error {
		attempt++

		processCtx, processCancel := context.WithTimeout(c.ctx, c.processTimeout)
		defer processCancel()

		err := h(processCtx, env)
		if err == nil {
			return nil
		}

		if errors.Is(err, errs.ErrInvalidEvent) {
			return backoff.Permanent(err)
		}

		if attempt < c.maxAttempts {
			metrics.EventsRetried.WithLabelValues(string(env.Kind)).Inc()
			c.logger.Warn("%s: %s %s failed (attempt %d/%d): %v", c.name, env.Kind, env.ID, attempt, c.maxAttempts, err)
		}

		return err
	}

	return backoff.Retry(op, c.newBackOff())
}

// deadLetter hands msg to the sink. It reports false only when the controller is stopping
// before the sink accepted the message.
func (c *KafkaController) deadLetter(msg kafka.Message, kind string, reason error) bool {
	fault := contracts.AuctionCreatedFault{
		Topic:     msg.Topic,
		Consumer:  c.name,
		SourceKey: string(msg.Key),
		Payload:   string(msg.Value),
		Reason:    reason.Error(),
		FailedAt:  time.Now().UTC(),
	}

	err := backoff.Retry(func() error {
		sendCtx, sendCancel := context.WithTimeout(c.ctx, c.processTimeout)
		defer sendCancel()

		return c.dlq.Send(sendCtx, fault)
	}, c.newBackOff())
	if err != nil {
		if c.ctx.Err() != nil {
			return false
		}

		c.logger.Error(err, "KafkaController - deadLetter - c.dlq.Send")
		c.logger.Warn("%s: dropping %s/%d@%d after dead-letter failure: %s", c.name, msg.Topic, msg.Partition, msg.Offset, fault.Payload)
	}

	metrics.EventsHandled.WithLabelValues(kind, metrics.OutcomeDeadLetter).Inc()
	c.logger.Warn("%s: dead-lettered %s/%d@%d: %v", c.name, msg.Topic, msg.Partition, msg.Offset, reason)

	return true
}

func (c *KafkaController) newBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retryBackoff
	eb.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(c.maxAttempts-1)), c.ctx)
}

func (c *KafkaController) Shutdown(ctx context.Context) error {
	if !c.started.Load() {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})

	go func() {
		c.wg.Wait()
		if err := c.er.Close(); err != nil {
			c.logger.Error(err, "KafkaController - Shutdown - c.er.Close")
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("KafkaController - Shutdown: %w", ctx.Err())
	}
}
