package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Auction struct {
	ID uuid.UUID `json:"id"`

	Seller         string           `json:"seller"`
	Winner         *string          `json:"winner,omitempty"`
	ReservePrice   decimal.Decimal  `json:"reservePrice"`
	SoldAmount     *decimal.Decimal `json:"soldAmount,omitempty"`
	CurrentHighBid *decimal.Decimal `json:"currentHighBid,omitempty"`
	Status         AuctionStatus    `json:"status"` // Live, Finished

	AuctionEnd time.Time `json:"auctionEnd"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	Item ItemDetails `json:"item"`
}

// ItemDetails describes the listed lot.
type ItemDetails struct {
	Make     string `json:"make"`
	Model    string `json:"model"`
	Year     int    `json:"year"`
	Color    string `json:"color"`
	Mileage  int    `json:"mileage"`
	ImageURL string `json:"imageUrl"`
}

// Merge returns d with every non-zero field of patch applied.
func (d ItemDetails) Merge(patch ItemDetails) ItemDetails {
	if patch.Make != "" {
		d.Make = patch.Make
	}
	if patch.Model != "" {
		d.Model = patch.Model
	}
	if patch.Year != 0 {
		d.Year = patch.Year
	}
	if patch.Color != "" {
		d.Color = patch.Color
	}
	if patch.Mileage != 0 {
		d.Mileage = patch.Mileage
	}
	if patch.ImageURL != "" {
		d.ImageURL = patch.ImageURL
	}

	return d
}

// Finish is the outcome of a finalized auction as seen by its owner.
type Finish struct {
	AuctionID  uuid.UUID
	Winner     *string
	Amount     *decimal.Decimal
	FinishedAt time.Time
}
