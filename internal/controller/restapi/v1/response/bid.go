package response

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlaceBid carries the classification. TooLow and Finished are answered with 201 too.
type PlaceBid struct {
	ID        string          `json:"id"`
	AuctionID string          `json:"auctionId"`
	Bidder    string          `json:"bidder"`
	Amount    decimal.Decimal `json:"amount"`
	BidTime   time.Time       `json:"bidTime"`
	BidStatus string          `json:"bidStatus"`
}
