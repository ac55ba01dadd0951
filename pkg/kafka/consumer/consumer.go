// Package consumer wraps a kafka-go group reader subscribed to several topics.
package consumer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/andreyxaxa/auction-sync/pkg/kafka/broker"
	"github.com/segmentio/kafka-go"
)

const (
	_defaultConnAttempts   = 10
	_defaultConnTimeout    = time.Second
	_defaultMaxWait        = 500 * time.Millisecond
	_defaultSessionTimeout = 30 * time.Second
)

type Consumer struct {
	connAttempts   int
	connTimeout    time.Duration
	maxWait        time.Duration
	sessionTimeout time.Duration

	provision bool
	topicSpec broker.TopicSpec

	brokers []string
	groupID string
	topics  []string

	Reader *kafka.Reader
}

// New creates a group reader for topics. Offsets are never auto-committed:
// the caller commits each message after it has been handled.
func New(ctx context.Context, brokers []string, groupID string, topics []string, opts ...Option) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("Kafka Consumer - New - no brokers")
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("Kafka Consumer - New - no topics")
	}
	if groupID == "" {
		return nil, fmt.Errorf("Kafka Consumer - New - empty group id")
	}

	c := &Consumer{
		connAttempts:   _defaultConnAttempts,
		connTimeout:    _defaultConnTimeout,
		maxWait:        _defaultMaxWait,
		sessionTimeout: _defaultSessionTimeout,
		brokers:        brokers,
		groupID:        groupID,
		topics:         topics,
	}

	for _, opt := range opts {
		opt(c)
	}

	var err error

	for c.connAttempts > 0 {
		err = broker.Ping(ctx, c.brokers)
		if err == nil {
			break
		}

		log.Printf("Kafka consumer is trying to connect, attempts left: %d", c.connAttempts)

		time.Sleep(c.connTimeout)

		c.connAttempts--
	}

	if err != nil {
		return nil, fmt.Errorf("Kafka Consumer - New - connAttempts == 0: %w", err)
	}

	// A group reader on a missing topic never gets an assignment.
	if c.provision {
		err = broker.EnsureTopics(ctx, c.brokers, c.topicSpec, c.topics...)
		if err != nil {
			return nil, fmt.Errorf("Kafka Consumer - New - broker.EnsureTopics: %w", err)
		}
	}

	c.Reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:        c.brokers,
		GroupID:        c.groupID,
		GroupTopics:    c.topics,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        c.maxWait,
		SessionTimeout: c.sessionTimeout,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: 0,
	})

	return c, nil
}

func (c *Consumer) Close() error {
	if c.Reader != nil {
		return c.Reader.Close()
	}
	return nil
}
