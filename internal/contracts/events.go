// Package contracts holds the wire shape of every message exchanged between services.
package contracts

import (
	"fmt"
	"strings"
	"time"

	"github.com/andreyxaxa/auction-sync/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindBidPlaced           Kind = "BidPlaced"
	KindAuctionCreated      Kind = "AuctionCreated"
	KindAuctionUpdated      Kind = "AuctionUpdated"
	KindAuctionFinished     Kind = "AuctionFinished"
	KindAuctionDeleted      Kind = "AuctionDeleted"
	KindAuctionCreatedFault Kind = "AuctionCreatedFault"
)

// Kinds lists every known kind in a stable order.
var Kinds = []Kind{
	KindAuctionCreated,
	KindAuctionUpdated,
	KindAuctionFinished,
	KindAuctionDeleted,
	KindBidPlaced,
	KindAuctionCreatedFault,
}

type Event interface {
	Kind() Kind
	// Key is the partitioning key: the auction id for every auction/bid event.
	Key() string
	Validate() error
}

type BidPlaced struct {
	ID        uuid.UUID       `json:"id"`
	AuctionID uuid.UUID       `json:"auctionId"`
	Bidder    string          `json:"bidder"`
	BidTime   time.Time       `json:"bidTime"`
	Amount    decimal.Decimal `json:"amount"`
	BidStatus string          `json:"bidStatus"`
}

func (BidPlaced) Kind() Kind { return KindBidPlaced }
func (e BidPlaced) Key() string { return e.AuctionID.String() }
func (e BidPlaced) Validate() error {
	return check(
		field(e.ID == uuid.Nil, "id"),
		field(e.AuctionID == uuid.Nil, "auctionId"),
		field(e.Bidder == "", "bidder"),
		field(!e.Amount.IsPositive(), "amount"),
		field(e.BidStatus == "", "bidStatus"),
	)
}

type AuctionCreated struct {
	ID           uuid.UUID       `json:"id"`
	Seller       string          `json:"seller"`
	ReservePrice decimal.Decimal `json:"reservePrice"`
	AuctionEnd   time.Time       `json:"auctionEnd"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	Status       string          `json:"status"`

	Make     string `json:"make"`
	Model    string `json:"model"`
	Year     int    `json:"year"`
	Color    string `json:"color"`
	Mileage  int    `json:"mileage"`
	ImageURL string `json:"imageUrl"`
}

func (AuctionCreated) Kind() Kind { return KindAuctionCreated }
func (e AuctionCreated) Key() string { return e.ID.String() }
func (e AuctionCreated) Validate() error {
	return check(
		field(e.ID == uuid.Nil, "id"),
		field(e.Seller == "", "seller"),
		field(e.ReservePrice.IsNegative(), "reservePrice"),
		field(e.AuctionEnd.IsZero(), "auctionEnd"),
		field(e.UpdatedAt.IsZero(), "updatedAt"),
	)
}

type AuctionUpdated struct {
	ID        uuid.UUID `json:"id"`
	Make      string    `json:"make"`
	Model     string    `json:"model"`
	Year      int       `json:"year"`
	Color     string    `json:"color"`
	Mileage   int       `json:"mileage"`
	ImageURL  string    `json:"imageUrl"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (AuctionUpdated) Kind() Kind { return KindAuctionUpdated }
func (e AuctionUpdated) Key() string { return e.ID.String() }
func (e AuctionUpdated) Validate() error {
	return check(
		field(e.ID == uuid.Nil, "id"),
		field(e.UpdatedAt.IsZero(), "updatedAt"),
	)
}

type AuctionFinished struct {
	AuctionID  uuid.UUID        `json:"auctionId"`
	ItemSold   bool             `json:"itemSold"`
	Seller     string           `json:"seller"`
	Winner     *string          `json:"winner,omitempty"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	FinishedAt time.Time        `json:"finishedAt"`
}

func (AuctionFinished) Kind() Kind { return KindAuctionFinished }
func (e AuctionFinished) Key() string { return e.AuctionID.String() }
func (e AuctionFinished) Validate() error {
	return check(
		field(e.AuctionID == uuid.Nil, "auctionId"),
		field(e.ItemSold && (e.Winner == nil || e.Amount == nil), "winner"),
	)
}

// AuctionDeleted withdraws a listing. UpdatedAt is the final watermark of the auction;
// consumers keep it as a tombstone so late events cannot bring the auction back.
type AuctionDeleted struct {
	ID        uuid.UUID `json:"id"`
	Seller    string    `json:"seller"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (AuctionDeleted) Kind() Kind { return KindAuctionDeleted }
func (e AuctionDeleted) Key() string { return e.ID.String() }
func (e AuctionDeleted) Validate() error {
	return check(
		field(e.ID == uuid.Nil, "id"),
		field(e.Seller == "", "seller"),
		field(e.UpdatedAt.IsZero(), "updatedAt"),
	)
}

// AuctionCreatedFault is the dead-letter representation of a message a consumer could not process.
type AuctionCreatedFault struct {
	Topic     string    `json:"topic"`
	Consumer  string    `json:"consumer"`
	SourceKey string    `json:"key,omitempty"`
	Payload   string    `json:"payload"`
	Reason    string    `json:"reason"`
	FailedAt  time.Time `json:"failedAt"`
}

func (AuctionCreatedFault) Kind() Kind { return KindAuctionCreatedFault }

// Key keeps faults of the same source message on one partition.
func (e AuctionCreatedFault) Key() string { return e.Topic + "/" + e.SourceKey }
func (e AuctionCreatedFault) Validate() error {
	return check(field(e.Reason == "", "reason"))
}

func field(missing bool, name string) string {
	if missing {
		return name
	}
	return ""
}

func check(fields ...string) error {
	var bad []string
	for _, f := range fields {
		if f != "" {
			bad = append(bad, f)
		}
	}

	if len(bad) > 0 {
		return fmt.Errorf("%w: missing or invalid %s", errs.ErrInvalidEvent, strings.Join(bad, ", "))
	}

	return nil
}
