package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type (
	// Auction is the configuration of the auction service.
	Auction struct {
		HTTP            HTTP
		Log             Log
		PG              PG
		Kafka           Kafka
		Topics          Topics
		OutboxRelay     OutboxRelay
		KafkaController KafkaController
		S3              S3
	}

	// Bidding is the configuration of the bidding service.
	Bidding struct {
		HTTP            HTTP
		Log             Log
		PG              PG
		Kafka           Kafka
		Topics          Topics
		OutboxRelay     OutboxRelay
		KafkaController KafkaController
		S3              S3
		Finalizer       Finalizer
	}

	// Search is the configuration of the search service.
	Search struct {
		HTTP            HTTP
		Log             Log
		Redis           Redis
		Kafka           Kafka
		Topics          Topics
		KafkaController KafkaController
		S3              S3
		Reconcile       Reconcile
		AuctionService  AuctionService
	}

	HTTP struct {
		Port            string        `env:"HTTP_PORT,required"`
		UsePreforkMode  bool          `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"5s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"3s"`
		BodyLimit       int           `env:"HTTP_BODY_LIMIT" envDefault:"1048576"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL,required"`
	}

	PG struct {
		PoolMax     int    `env:"PG_POOL_MAX,required"`
		URL         string `env:"PG_URL,required"`
		AutoMigrate bool   `env:"PG_AUTO_MIGRATE" envDefault:"false"`
	}

	Redis struct {
		URL      string `env:"REDIS_URL,required"`
		PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
	}

	S3 struct {
		Enabled        bool          `env:"S3_ENABLED" envDefault:"false"`
		Endpoint       string        `env:"S3_ENDPOINT"`
		Region         string        `env:"S3_REGION" envDefault:"us-east-1"`
		AccessKey      string        `env:"S3_ACCESS_KEY"`
		SecretKey      string        `env:"S3_SECRET_KEY"`
		Bucket         string        `env:"S3_BUCKET" envDefault:"dead-letters"`
		CfgLoadTimeout time.Duration `env:"S3_LOAD_CFG_TIMEOUT" envDefault:"10s"`
		ConnAttempts   int           `env:"S3_CONN_ATTEMPTS" envDefault:"3"`
	}

	Kafka struct {
		Brokers []string `env:"KAFKA_BROKERS,required"`
		GroupID string   `env:"KAFKA_GROUP_ID,required"`

		// Layout of topics created on startup.
		Partitions        int           `env:"KAFKA_TOPIC_PARTITIONS" envDefault:"3"`
		ReplicationFactor int           `env:"KAFKA_TOPIC_REPLICATION_FACTOR" envDefault:"1"`
		SessionTimeout    time.Duration `env:"KAFKA_SESSION_TIMEOUT" envDefault:"30s"`
	}

	Topics struct {
		AuctionCreated      string `env:"TOPIC_AUCTION_CREATED" envDefault:"auction-created"`
		AuctionUpdated      string `env:"TOPIC_AUCTION_UPDATED" envDefault:"auction-updated"`
		AuctionFinished     string `env:"TOPIC_AUCTION_FINISHED" envDefault:"auction-finished"`
		AuctionDeleted      string `env:"TOPIC_AUCTION_DELETED" envDefault:"auction-deleted"`
		BidPlaced           string `env:"TOPIC_BID_PLACED" envDefault:"bid-placed"`
		AuctionCreatedFault string `env:"TOPIC_AUCTION_CREATED_FAULT" envDefault:"auction-created-fault"`
	}

	OutboxRelay struct {
		PollInterval        time.Duration `env:"OUTBOX_RELAY_POLL_INTERVAL" envDefault:"2s"`
		ReapInterval        time.Duration `env:"OUTBOX_RELAY_REAP_INTERVAL" envDefault:"1m"`
		CleanupInterval     time.Duration `env:"OUTBOX_RELAY_CLEANUP_INTERVAL" envDefault:"1h"`
		ProcessBatchTimeout time.Duration `env:"OUTBOX_RELAY_PROCESS_BATCH_TIMEOUT" envDefault:"15s"`
		ClaimTTL            time.Duration `env:"OUTBOX_RELAY_CLAIM_TTL" envDefault:"1m"`
		Retention           time.Duration `env:"OUTBOX_RELAY_RETENTION" envDefault:"72h"`
		ShutdownTimeout     time.Duration `env:"OUTBOX_RELAY_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		BatchSize           int           `env:"OUTBOX_RELAY_BATCH_SIZE" envDefault:"100"`
	}

	KafkaController struct {
		CommitTimeout   time.Duration `env:"KAFKA_CONTROLLER_COMMIT_TIMEOUT" envDefault:"2s"`
		ProcessTimeout  time.Duration `env:"KAFKA_CONTROLLER_PROCESS_TIMEOUT" envDefault:"10s"`
		ShutdownTimeout time.Duration `env:"KAFKA_CONTROLLER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		MaxAttempts     int           `env:"KAFKA_CONTROLLER_MAX_ATTEMPTS" envDefault:"5"`
		RetryBackoff    time.Duration `env:"KAFKA_CONTROLLER_RETRY_BACKOFF" envDefault:"200ms"`
		Workers         int           `env:"KAFKA_CONTROLLER_WORKERS" envDefault:"4"`
	}

	Finalizer struct {
		Interval  time.Duration `env:"FINALIZER_INTERVAL" envDefault:"10s"`
		Timeout   time.Duration `env:"FINALIZER_TIMEOUT" envDefault:"30s"`
		BatchSize int           `env:"FINALIZER_BATCH_SIZE" envDefault:"100"`
	}

	Reconcile struct {
		Interval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"5m"`
		Timeout  time.Duration `env:"RECONCILE_TIMEOUT" envDefault:"30s"`
		Overlap  time.Duration `env:"RECONCILE_OVERLAP" envDefault:"1m"`
	}

	AuctionService struct {
		URL     string        `env:"AUCTION_SERVICE_URL,required"`
		Timeout time.Duration `env:"AUCTION_SERVICE_TIMEOUT" envDefault:"10s"`
	}
)

func NewAuction() (*Auction, error) {
	return parse[Auction]()
}

func NewBidding() (*Bidding, error) {
	return parse[Bidding]()
}

func NewSearch() (*Search, error) {
	return parse[Search]()
}

func parse[T any]() (*T, error) {
	cfg := new(T)

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}
