package app

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/auction-sync/config"
	"github.com/andreyxaxa/auction-sync/internal/contracts"
	kafkactrl "github.com/andreyxaxa/auction-sync/internal/controller/kafka"
	"github.com/andreyxaxa/auction-sync/internal/controller/restapi"
	"github.com/andreyxaxa/auction-sync/internal/controller/worker/finalizer"
	"github.com/andreyxaxa/auction-sync/internal/controller/worker/outbox"
	infrakafka "github.com/andreyxaxa/auction-sync/internal/infrastructure/kafka"
	"github.com/andreyxaxa/auction-sync/internal/repo/persistent"
	"github.com/andreyxaxa/auction-sync/internal/usecase/bid"
	outboxuc "github.com/andreyxaxa/auction-sync/internal/usecase/outbox"
	"github.com/andreyxaxa/auction-sync/migrations"
	"github.com/andreyxaxa/auction-sync/pkg/kafka/consumer"
	"github.com/andreyxaxa/auction-sync/pkg/kafka/producer"
	"github.com/andreyxaxa/auction-sync/pkg/logger"
	"github.com/andreyxaxa/auction-sync/pkg/postgres"
)

// RunBidding starts the bidding service: bid placement, the finalizer sweep and
// the mirror of auctions it needs to judge bids.
func RunBidding(cfg *config.Bidding) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Repository

	// postgres
	if cfg.PG.AutoMigrate {
		if err := postgres.Migrate(cfg.PG.URL, migrations.FS, migrations.BiddingDir); err != nil {
			l.Fatal(fmt.Errorf("app - RunBidding - postgres.Migrate: %w", err))
		}
	}

	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunBidding - postgres.New: %w", err))
	}
	defer pg.Close()

	outboxRepo := persistent.NewOutboxRepo(pg, persistent.BidsOutboxTable)

	// Use-Case
	bidUseCase := bid.New(
		persistent.NewBidRepo(pg),
		persistent.NewAuctionMirrorRepo(pg),
		outboxuc.NewWriter(pg, outboxRepo),
		l,
	)

	relayUseCase := outboxuc.NewRelayUseCase(
		outboxRepo,
		l,
		relayOwner("bidding"),
		cfg.OutboxRelay.ClaimTTL,
		cfg.OutboxRelay.Retention,
	)

	// Kafka Producer
	kafkaProducer, err := producer.New(ctx, cfg.Kafka.Brokers, producer.Topics(topicSpec(cfg.Kafka), subscriptions(cfg.Topics,
		contracts.KindBidPlaced,
		contracts.KindAuctionFinished,
		contracts.KindAuctionCreatedFault,
	)...))
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunBidding - producer.New: %w", err))
	}
	defer kafkaProducer.Close()

	// Outbox Relay Worker
	outboxRelayWorker := outbox.New(
		relayUseCase,
		infrakafka.NewEventProducer(kafkaProducer, topics(cfg.Topics)),
		l,
		cfg.OutboxRelay.PollInterval,
		cfg.OutboxRelay.ReapInterval,
		cfg.OutboxRelay.CleanupInterval,
		cfg.OutboxRelay.ProcessBatchTimeout,
		cfg.OutboxRelay.BatchSize,
	)

	// Finalizer Worker
	finalizerWorker := finalizer.New(
		bidUseCase,
		l,
		cfg.Finalizer.Interval,
		cfg.Finalizer.Timeout,
		cfg.Finalizer.BatchSize,
	)

	// Kafka Consumer
	kafkaConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID, subscriptions(cfg.Topics,
		contracts.KindAuctionCreated,
		contracts.KindAuctionDeleted,
	), consumerOptions(cfg.Kafka)...)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunBidding - consumer.New: %w", err))
	}

	// Kafka as Controller
	kafkaController := kafkactrl.New(
		"bidding-svc",
		kafkactrl.Handlers{
			contracts.KindAuctionCreated: kafkactrl.Handle(bidUseCase.MirrorAuction),
			contracts.KindAuctionDeleted: kafkactrl.Handle(bidUseCase.RemoveAuction),
		},
		infrakafka.NewEventConsumer(kafkaConsumer),
		infrakafka.NewDeadLetterProducer(kafkaProducer, cfg.Topics.AuctionCreatedFault, deadLetterArchive(ctx, cfg.S3, "bidding-svc", l), l),
		l,
		cfg.KafkaController.CommitTimeout,
		cfg.KafkaController.ProcessTimeout,
		cfg.KafkaController.RetryBackoff,
		cfg.KafkaController.MaxAttempts,
		cfg.KafkaController.Workers,
	)

	// HTTP Server
	httpServer := newHTTPServer(cfg.HTTP, "bidding-svc", l)
	restapi.NewBiddingRouter(httpServer.App, bidUseCase, l)

	// Start Components
	err = outboxRelayWorker.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunBidding - outboxRelayWorker.Start: %w", err))
	}
	err = finalizerWorker.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunBidding - finalizerWorker.Start: %w", err))
	}
	err = kafkaController.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunBidding - kafkaController.Start: %w", err))
	}
	httpServer.Start()

	// Waiting Signal
	waitSignal(l, httpServer)

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - RunBidding - httpServer.Shutdown: %w", err))
	}

	shutdown(l, "finalizerWorker", finalizerWorker, cfg.Finalizer.Timeout)
	shutdown(l, "outboxRelayWorker", outboxRelayWorker, cfg.OutboxRelay.ShutdownTimeout)
	shutdown(l, "kafkaController", kafkaController, cfg.KafkaController.ShutdownTimeout)
}
