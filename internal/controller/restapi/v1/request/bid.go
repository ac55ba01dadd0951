package request

type PlaceBid struct {
	AuctionID string `query:"auctionId" validate:"required,uuid"`
	Amount    string `query:"amount" validate:"required,numeric"`
}
