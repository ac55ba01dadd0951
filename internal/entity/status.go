package entity

type AuctionStatus string

const (
	AuctionLive     AuctionStatus = "Live"
	AuctionFinished AuctionStatus = "Finished"
	// AuctionDeleted only appears on the bidding mirror, as a tombstone of a withdrawn auction.
	AuctionDeleted AuctionStatus = "Deleted"
)

type BidStatus string

const (
	BidAccepted             BidStatus = "Accepted"
	BidAcceptedBelowReserve BidStatus = "AcceptedBelowReserve"
	BidTooLow               BidStatus = "TooLow"
	BidFinished             BidStatus = "Finished"
)

// Competitive reports whether a bid with this status may win the auction.
func (s BidStatus) Competitive() bool {
	return s == BidAccepted || s == BidAcceptedBelowReserve
}

func (s BidStatus) Valid() bool {
	switch s {
	case BidAccepted, BidAcceptedBelowReserve, BidTooLow, BidFinished:
		return true
	}
	return false
}
