package producer

import (
	"time"

	"github.com/andreyxaxa/auction-sync/pkg/kafka/broker"
)

type Option func(*Producer)

func ConnAttempts(attempts int) Option {
	return func(p *Producer) {
		p.connAttempts = attempts
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(p *Producer) {
		p.connTimeout = timeout
	}
}

func BatchTimeout(timeout time.Duration) Option {
	return func(p *Producer) {
		p.batchTimeout = timeout
	}
}

func WriteTimeout(timeout time.Duration) Option {
	return func(p *Producer) {
		p.writeTimeout = timeout
	}
}

// Topics makes New create the listed topics up front and disables auto-creation.
func Topics(spec broker.TopicSpec, topics ...string) Option {
	return func(p *Producer) {
		p.topicSpec = spec
		p.topics = append(p.topics, topics...)
	}
}
