// Package producer wraps a kafka-go writer that publishes to many topics.
package producer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/andreyxaxa/auction-sync/pkg/kafka/broker"
	"github.com/segmentio/kafka-go"
)

const (
	_defaultConnAttempts = 10
	_defaultConnTimeout  = time.Second
	_defaultBatchTimeout = 10 * time.Millisecond
	_defaultWriteTimeout = 10 * time.Second
)

type Producer struct {
	connAttempts int
	connTimeout  time.Duration
	batchTimeout time.Duration
	writeTimeout time.Duration

	topics    []string
	topicSpec broker.TopicSpec

	brokers []string
	Writer  *kafka.Writer
}

// New creates a writer without a default topic; every message names its own.
// Messages are hashed by key, so one auction always lands on one partition.
func New(ctx context.Context, brokers []string, opts ...Option) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("Kafka Producer - New - no brokers")
	}

	p := &Producer{
		connAttempts: _defaultConnAttempts,
		connTimeout:  _defaultConnTimeout,
		batchTimeout: _defaultBatchTimeout,
		writeTimeout: _defaultWriteTimeout,
		topicSpec:    broker.TopicSpec{Partitions: 1, ReplicationFactor: 1},
		brokers:      brokers,
	}

	for _, opt := range opts {
		opt(p)
	}

	var err error
	for p.connAttempts > 0 {
		err = broker.Ping(ctx, p.brokers)
		if err == nil {
			break
		}

		log.Printf("Kafka producer is trying to connect, attempts left: %d", p.connAttempts)

		time.Sleep(p.connTimeout)

		p.connAttempts--
	}

	if err != nil {
		return nil, fmt.Errorf("Kafka Producer - New - connAttempts == 0: %w", err)
	}

	err = broker.EnsureTopics(ctx, p.brokers, p.topicSpec, p.topics...)
	if err != nil {
		return nil, fmt.Errorf("Kafka Producer - New - broker.EnsureTopics: %w", err)
	}

	p.Writer = &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: p.batchTimeout,
		WriteTimeout: p.writeTimeout,
		// Topics are provisioned above when the caller lists them.
		AllowAutoTopicCreation: len(p.topics) == 0,
	}

	return p, nil
}

func (p *Producer) Close() error {
	if p.Writer != nil {
		return p.Writer.Close()
	}

	return nil
}
