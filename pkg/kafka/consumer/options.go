package consumer

import (
	"time"

	"github.com/andreyxaxa/auction-sync/pkg/kafka/broker"
)

type Option func(*Consumer)

func ConnAttempts(attempts int) Option {
	return func(c *Consumer) {
		c.connAttempts = attempts
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(c *Consumer) {
		c.connTimeout = timeout
	}
}

func MaxWait(wait time.Duration) Option {
	return func(c *Consumer) {
		c.maxWait = wait
	}
}

func SessionTimeout(timeout time.Duration) Option {
	return func(c *Consumer) {
		c.sessionTimeout = timeout
	}
}

// Provision creates the subscribed topics that do not exist yet.
func Provision(spec broker.TopicSpec) Option {
	return func(c *Consumer) {
		c.provision = true
		c.topicSpec = spec
	}
}
