package bid

import (
	"time"

	"github.com/andreyxaxa/auction-sync/internal/entity"
	"github.com/shopspring/decimal"
)

// Evaluate classifies a new bid against the auction and its current highest competitive bid.
//
// A bid placed at or after the end is kept for audit with status Finished. Otherwise it has
// to strictly exceed the highest bid to compete; a competing bid is Accepted when it strictly
// exceeds the reserve and AcceptedBelowReserve otherwise.
func Evaluate(auction *entity.AuctionMirror, highest *entity.Bid, amount decimal.Decimal, now time.Time) entity.BidStatus {
	if auction.Status == entity.AuctionFinished || auction.Ended(now) {
		return entity.BidFinished
	}

	if highest != nil && !amount.GreaterThan(highest.Amount) {
		return entity.BidTooLow
	}

	if amount.GreaterThan(auction.ReservePrice) {
		return entity.BidAccepted
	}

	return entity.BidAcceptedBelowReserve
}
