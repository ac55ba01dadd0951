package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bid is immutable once stored: the status is decided at placement time.
type Bid struct {
	ID        uuid.UUID       `json:"id"`
	AuctionID uuid.UUID       `json:"auctionId"`
	Bidder    string          `json:"bidder"`
	Amount    decimal.Decimal `json:"amount"`
	BidTime   time.Time       `json:"bidTime"`
	Status    BidStatus       `json:"status"`
}

// AuctionMirror is the bidding service's copy of the fields it needs from an auction.
type AuctionMirror struct {
	ID           uuid.UUID       `json:"id"`
	Seller       string          `json:"seller"`
	ReservePrice decimal.Decimal `json:"reservePrice"`
	AuctionEnd   time.Time       `json:"auctionEnd"`
	Status       AuctionStatus   `json:"status"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (m *AuctionMirror) Ended(now time.Time) bool {
	return !now.Before(m.AuctionEnd)
}

// FinalizeResult reports what a single finalization attempt did.
// Transitioned is false when the auction was already Finished or has not ended yet.
type FinalizeResult struct {
	AuctionID    uuid.UUID        `json:"auctionId"`
	Transitioned bool             `json:"transitioned"`
	ItemSold     bool             `json:"itemSold"`
	Winner       *string          `json:"winner,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
}
