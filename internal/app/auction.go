package app

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/auction-sync/config"
	"github.com/andreyxaxa/auction-sync/internal/contracts"
	kafkactrl "github.com/andreyxaxa/auction-sync/internal/controller/kafka"
	"github.com/andreyxaxa/auction-sync/internal/controller/restapi"
	"github.com/andreyxaxa/auction-sync/internal/controller/worker/outbox"
	infrakafka "github.com/andreyxaxa/auction-sync/internal/infrastructure/kafka"
	"github.com/andreyxaxa/auction-sync/internal/repo/persistent"
	"github.com/andreyxaxa/auction-sync/internal/usecase/auction"
	outboxuc "github.com/andreyxaxa/auction-sync/internal/usecase/outbox"
	"github.com/andreyxaxa/auction-sync/migrations"
	"github.com/andreyxaxa/auction-sync/pkg/kafka/consumer"
	"github.com/andreyxaxa/auction-sync/pkg/kafka/producer"
	"github.com/andreyxaxa/auction-sync/pkg/logger"
	"github.com/andreyxaxa/auction-sync/pkg/postgres"
)

// RunAuction starts the auction service: the authoritative auction store, its outbox relay
// and the consumer that folds bids and finish outcomes back into it.
func RunAuction(cfg *config.Auction) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Repository

	// postgres
	if cfg.PG.AutoMigrate {
		if err := postgres.Migrate(cfg.PG.URL, migrations.FS, migrations.AuctionDir); err != nil {
			l.Fatal(fmt.Errorf("app - RunAuction - postgres.Migrate: %w", err))
		}
	}

	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunAuction - postgres.New: %w", err))
	}
	defer pg.Close()

	outboxRepo := persistent.NewOutboxRepo(pg, persistent.AuctionsOutboxTable)

	// Use-Case
	auctionUseCase := auction.New(
		persistent.NewAuctionRepo(pg),
		outboxuc.NewWriter(pg, outboxRepo),
		l,
	)

	relayUseCase := outboxuc.NewRelayUseCase(
		outboxRepo,
		l,
		relayOwner("auction"),
		cfg.OutboxRelay.ClaimTTL,
		cfg.OutboxRelay.Retention,
	)

	// Kafka Producer
	kafkaProducer, err := producer.New(ctx, cfg.Kafka.Brokers, producer.Topics(topicSpec(cfg.Kafka), subscriptions(cfg.Topics,
		contracts.KindAuctionCreated,
		contracts.KindAuctionUpdated,
		contracts.KindAuctionDeleted,
		contracts.KindAuctionCreatedFault,
	)...))
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunAuction - producer.New: %w", err))
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

	// Kafka Consumer
	kafkaConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID, subscriptions(cfg.Topics,
		contracts.KindBidPlaced,
		contracts.KindAuctionFinished,
		contracts.KindAuctionCreatedFault,
	), consumerOptions(cfg.Kafka)...)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunAuction - consumer.New: %w", err))
	}

	// Kafka as Controller
	kafkaController := kafkactrl.New(
		"auction-svc",
		kafkactrl.Handlers{
			contracts.KindBidPlaced:           kafkactrl.Handle(auctionUseCase.ApplyBidPlaced),
			contracts.KindAuctionFinished:     kafkactrl.Handle(auctionUseCase.ApplyAuctionFinished),
			contracts.KindAuctionCreatedFault: kafkactrl.Handle(auctionUseCase.RecordFault),
		},
		infrakafka.NewEventConsumer(kafkaConsumer),
		infrakafka.NewDeadLetterProducer(kafkaProducer, cfg.Topics.AuctionCreatedFault, deadLetterArchive(ctx, cfg.S3, "auction-svc", l), l),
		l,
		cfg.KafkaController.CommitTimeout,
		cfg.KafkaController.ProcessTimeout,
		cfg.KafkaController.RetryBackoff,
		cfg.KafkaController.MaxAttempts,
		cfg.KafkaController.Workers,
	)

	// HTTP Server
	httpServer := newHTTPServer(cfg.HTTP, "auction-svc", l)
	restapi.NewAuctionRouter(httpServer.App, auctionUseCase, l)

	// Start Components
	err = outboxRelayWorker.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunAuction - outboxRelayWorker.Start: %w", err))
	}
	err = kafkaController.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunAuction - kafkaController.Start: %w", err))
	}
	httpServer.Start()

	// Waiting Signal
	waitSignal(l, httpServer)

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - RunAuction - httpServer.Shutdown: %w", err))
	}

	shutdown(l, "outboxRelayWorker", outboxRelayWorker, cfg.OutboxRelay.ShutdownTimeout)
	shutdown(l, "kafkaController", kafkaController, cfg.KafkaController.ShutdownTimeout)
}
