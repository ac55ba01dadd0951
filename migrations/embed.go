// Package migrations embeds the schema of every Postgres-backed service.
package migrations

import "embed"

const (
	AuctionDir = "auction"
	BiddingDir = "bidding"
)

//go:embed auction/*.sql bidding/*.sql
var FS embed.FS
