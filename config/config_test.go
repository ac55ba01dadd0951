package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setCommon(t *testing.T) {
	t.Helper()

	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("KAFKA_GROUP_ID", "svc")
}

func TestNewBiddingDefaults(t *testing.T) {
	setCommon(t)
	t.Setenv("PG_POOL_MAX", "4")
	t.Setenv("PG_URL", "postgres://u:p@localhost:5432/bids")
	t.Setenv("FINALIZER_INTERVAL", "3s")

	cfg, err := NewBidding()
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 3*time.Second, cfg.Finalizer.Interval)
	assert.Equal(t, 100, cfg.Finalizer.BatchSize)
	assert.Equal(t, "bid-placed", cfg.Topics.BidPlaced)
	assert.Equal(t, "auction-deleted", cfg.Topics.AuctionDeleted)
	assert.Equal(t, time.Minute, cfg.OutboxRelay.ClaimTTL)
	assert.Equal(t, 5, cfg.KafkaController.MaxAttempts)
	assert.False(t, cfg.S3.Enabled)
}

func TestNewSearchRequiresAuctionService(t *testing.T) {
	setCommon(t)
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	_, err := NewSearch()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUCTION_SERVICE_URL")

	t.Setenv("AUCTION_SERVICE_URL", "http://auction-svc:8080")

	cfg, err := NewSearch()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.Reconcile.Interval)
	assert.Equal(t, time.Minute, cfg.Reconcile.Overlap)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}

func TestNewAuctionMissingPG(t *testing.T) {
	setCommon(t)

	_, err := NewAuction()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PG_URL")
}
