package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andreyxaxa/auction-sync/config"
	"github.com/andreyxaxa/auction-sync/internal/contracts"
	infrakafka "github.com/andreyxaxa/auction-sync/internal/infrastructure/kafka"
	"github.com/andreyxaxa/auction-sync/internal/repo"
	"github.com/andreyxaxa/auction-sync/internal/repo/archive"
	"github.com/andreyxaxa/auction-sync/pkg/httpserver"
	"github.com/andreyxaxa/auction-sync/pkg/kafka/broker"
	"github.com/andreyxaxa/auction-sync/pkg/kafka/consumer"
	"github.com/andreyxaxa/auction-sync/pkg/logger"
	"github.com/andreyxaxa/auction-sync/pkg/s3client"
	"github.com/google/uuid"
)

// shutdowner is every background component started by a service.
type shutdowner interface {
	Shutdown(ctx context.Context) error
}

func topics(t config.Topics) infrakafka.Topics {
	return infrakafka.Topics{
		contracts.KindAuctionCreated:      t.AuctionCreated,
		contracts.KindAuctionUpdated:      t.AuctionUpdated,
		contracts.KindAuctionFinished:     t.AuctionFinished,
		contracts.KindAuctionDeleted:      t.AuctionDeleted,
		contracts.KindBidPlaced:           t.BidPlaced,
		contracts.KindAuctionCreatedFault: t.AuctionCreatedFault,
	}
}

func subscriptions(t config.Topics, kinds ...contracts.Kind) []string {
	all := topics(t)

	res := make([]string, 0, len(kinds))
	for _, k := range kinds {
		res = append(res, all[k])
	}

	return res
}

func topicSpec(cfg config.Kafka) broker.TopicSpec {
	return broker.TopicSpec{
		Partitions:        cfg.Partitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}
}

// consumerOptions provisions the subscribed topics so a fresh cluster works without manual setup.
func consumerOptions(cfg config.Kafka) []consumer.Option {
	return []consumer.Option{
		consumer.Provision(topicSpec(cfg)),
		consumer.SessionTimeout(cfg.SessionTimeout),
	}
}

// relayOwner identifies this process in outbox claims.
func relayOwner(service string) string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}

	return fmt.Sprintf("%s/%s/%s", service, host, uuid.NewString())
}

// deadLetterArchive returns nil when S3 archiving is off. Objects land under the service name.
func deadLetterArchive(ctx context.Context, cfg config.S3, service string, l logger.Interface) repo.DeadLetterArchive {
	if !cfg.Enabled {
		return nil
	}

	s3Ctx, s3Cancel := context.WithTimeout(ctx, cfg.CfgLoadTimeout)
	defer s3Cancel()

	s3c, err := s3client.New(s3Ctx, cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.Bucket,
		s3client.Region(cfg.Region),
		s3client.ConnAttempts(cfg.ConnAttempts),
		s3client.KeyPrefix(service),
	)
	if err != nil {
		l.Fatal(fmt.Errorf("app - deadLetterArchive - s3client.New: %w", err))
	}

	return archive.NewDeadLetterRepo(s3c)
}

func newHTTPServer(cfg config.HTTP, name string, l logger.Interface) *httpserver.Server {
	return httpserver.New(l,
		httpserver.AppName(name),
		httpserver.Port(cfg.Port),
		httpserver.Prefork(cfg.UsePreforkMode),
		httpserver.ReadTimeout(cfg.ReadTimeout),
		httpserver.WriteTimeout(cfg.WriteTimeout),
		httpserver.ShutdownTimeout(cfg.ShutdownTimeout),
		httpserver.BodyLimit(cfg.BodyLimit),
	)
}

func waitSignal(l logger.Interface, httpServer *httpserver.Server) {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err := <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	}
}

func shutdown(l logger.Interface, name string, c shutdowner, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := c.Shutdown(ctx); err != nil {
		l.Error(fmt.Errorf("app - Run - %s.Shutdown: %w", name, err))
	}
}
