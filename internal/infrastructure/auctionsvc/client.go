// Package auctionsvc talks to the auction service's HTTP API.
package auctionsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/andreyxaxa/auction-sync/internal/entity"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

const (
	_listPath = "/v1/auctions"

	_breakerMaxRequests    = 1
	_breakerOpenTimeout    = 30 * time.Second
	_breakerFailuresToTrip = 3
	_defaultRequestTimeout = 10 * time.Second
)

type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = _defaultRequestTimeout
	}

	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "auction-service",
			MaxRequests: _breakerMaxRequests,
			Timeout:     _breakerOpenTimeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= _breakerFailuresToTrip
			},
		}),
	}
}

// ListUpdatedSince returns auctions changed strictly after since, oldest change first.
func (c *Client) ListUpdatedSince(ctx context.Context, since time.Time) ([]entity.Item, error) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		var auctions []entity.Auction

		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("date", since.UTC().Format(time.RFC3339Nano)).
			SetResult(&auctions).
			Get(_listPath)
		if err != nil {
			return nil, fmt.Errorf("c.http.Get: %w", err)
		}

		if resp.IsError() {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode())
		}

		return auctions, nil
	})
	if err != nil {
		return nil, fmt.Errorf("auctionsvc - ListUpdatedSince - c.breaker.Execute: %w", err)
	}

	auctions := res.([]entity.Auction)

	items := make([]entity.Item, 0, len(auctions))
	for i := range auctions {
		items = append(items, entity.ItemFromAuction(&auctions[i]))
	}

	return items, nil
}
