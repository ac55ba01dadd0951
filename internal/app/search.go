package app

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/auction-sync/config"
	"github.com/andreyxaxa/auction-sync/internal/contracts"
	kafkactrl "github.com/andreyxaxa/auction-sync/internal/controller/kafka"
	"github.com/andreyxaxa/auction-sync/internal/controller/restapi"
	"github.com/andreyxaxa/auction-sync/internal/controller/worker/reconcile"
	"github.com/andreyxaxa/auction-sync/internal/infrastructure/auctionsvc"
	infrakafka "github.com/andreyxaxa/auction-sync/internal/infrastructure/kafka"
	"github.com/andreyxaxa/auction-sync/internal/repo/projection"
	"github.com/andreyxaxa/auction-sync/internal/usecase/search"
	"github.com/andreyxaxa/auction-sync/pkg/kafka/consumer"
	"github.com/andreyxaxa/auction-sync/pkg/kafka/producer"
	"github.com/andreyxaxa/auction-sync/pkg/logger"
	"github.com/andreyxaxa/auction-sync/pkg/redis"
)

// RunSearch starts the search service: the Redis projection fed by every auction and bid
// event, plus the periodic catch-up pull from the auction service.
func RunSearch(cfg *config.Search) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Repository

	// redis
	rdb, err := redis.New(ctx, cfg.Redis.URL, redis.PoolSize(cfg.Redis.PoolSize))
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunSearch - redis.New: %w", err))
	}
	defer rdb.Close()

	// Use-Case
	searchUseCase := search.New(
		projection.NewItemRepo(rdb),
		auctionsvc.New(cfg.AuctionService.URL, cfg.AuctionService.Timeout),
		l,
		search.Overlap(cfg.Reconcile.Overlap),
	)

	// Reconcile Worker
	reconcileWorker := reconcile.New(searchUseCase, l, cfg.Reconcile.Interval, cfg.Reconcile.Timeout)

	// Kafka Producer (dead letters only)
	kafkaProducer, err := producer.New(ctx, cfg.Kafka.Brokers, producer.Topics(topicSpec(cfg.Kafka), cfg.Topics.AuctionCreatedFault))
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunSearch - producer.New: %w", err))
	}
	defer kafkaProducer.Close()

	// Kafka Consumer
	kafkaConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID, subscriptions(cfg.Topics,
		contracts.KindAuctionCreated,
		contracts.KindAuctionUpdated,
		contracts.KindBidPlaced,
		contracts.KindAuctionFinished,
		contracts.KindAuctionDeleted,
	), consumerOptions(cfg.Kafka)...)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunSearch - consumer.New: %w", err))
	}

	// Kafka as Controller
	kafkaController := kafkactrl.New(
		"search-svc",
		kafkactrl.Handlers{
			contracts.KindAuctionCreated:  kafkactrl.Handle(searchUseCase.ProjectCreated),
			contracts.KindAuctionUpdated:  kafkactrl.Handle(searchUseCase.ProjectUpdated),
			contracts.KindBidPlaced:       kafkactrl.Handle(searchUseCase.ProjectBidPlaced),
			contracts.KindAuctionFinished: kafkactrl.Handle(searchUseCase.ProjectFinished),
			contracts.KindAuctionDeleted:  kafkactrl.Handle(searchUseCase.ProjectDeleted),
		},
		infrakafka.NewEventConsumer(kafkaConsumer),
		infrakafka.NewDeadLetterProducer(kafkaProducer, cfg.Topics.AuctionCreatedFault, deadLetterArchive(ctx, cfg.S3, "search-svc", l), l),
		l,
		cfg.KafkaController.CommitTimeout,
		cfg.KafkaController.ProcessTimeout,
		cfg.KafkaController.RetryBackoff,
		cfg.KafkaController.MaxAttempts,
		cfg.KafkaController.Workers,
	)

	// HTTP Server
	httpServer := newHTTPServer(cfg.HTTP, "search-svc", l)
	restapi.NewSearchRouter(httpServer.App, searchUseCase, l)

	// Start Components
	err = reconcileWorker.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunSearch - reconcileWorker.Start: %w", err))
	}
	err = kafkaController.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunSearch - kafkaController.Start: %w", err))
	}
	httpServer.Start()

	// Waiting Signal
	waitSignal(l, httpServer)

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - RunSearch - httpServer.Shutdown: %w", err))
	}

	shutdown(l, "reconcileWorker", reconcileWorker, cfg.Reconcile.Timeout)
	shutdown(l, "kafkaController", kafkaController, cfg.KafkaController.ShutdownTimeout)
}
