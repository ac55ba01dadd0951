// Package broker holds the cluster-level calls shared by producers and consumers.
package broker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/segmentio/kafka-go"
)

// Ping succeeds as soon as one of brokers answers a metadata request.
func Ping(ctx context.Context, brokers []string) error {
	if len(brokers) == 0 {
		return errors.New("broker - Ping - no brokers")
	}

	var errs []error

	for _, addr := range brokers {
		conn, err := kafka.DialContext(ctx, "tcp", addr)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", addr, err))
			continue
		}

		_, err = conn.Brokers()
		_ = conn.Close()

		if err == nil {
			return nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", addr, err))
	}

	return fmt.Errorf("broker - Ping: %w", errors.Join(errs...))
}

// TopicSpec is the layout requested for topics that do not exist yet.
type TopicSpec struct {
	Partitions        int
	ReplicationFactor int
}

// EnsureTopics creates the missing topics through the cluster controller.
// Existing topics are left as they are, whatever their partition count.
func EnsureTopics(ctx context.Context, brokers []string, spec TopicSpec, topics ...string) error {
	if len(topics) == 0 {
		return nil
	}

	if len(brokers) == 0 {
		return errors.New("broker - EnsureTopics - no brokers")
	}

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("broker - EnsureTopics - kafka.DialContext: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("broker - EnsureTopics - conn.Controller: %w", err)
	}

	ctrlConn, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("broker - EnsureTopics - dial controller: %w", err)
	}
	defer ctrlConn.Close()

	configs := make([]kafka.TopicConfig, 0, len(topics))
	for _, t := range topics {
		configs = append(configs, kafka.TopicConfig{
			Topic:             t,
			NumPartitions:     spec.Partitions,
			ReplicationFactor: spec.ReplicationFactor,
		})
	}

	err = ctrlConn.CreateTopics(configs...)
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("broker - EnsureTopics - ctrlConn.CreateTopics: %w", err)
	}

	return nil
}
