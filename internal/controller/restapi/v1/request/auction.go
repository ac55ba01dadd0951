package request

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateAuction struct {
	ReservePrice decimal.Decimal `json:"reservePrice"`
	AuctionEnd   time.Time       `json:"auctionEnd" validate:"required"`

	Make     string `json:"make" validate:"required,max=64"`
	Model    string `json:"model" validate:"required,max=64"`
	Year     int    `json:"year" validate:"required,gte=1886,lte=2100"`
	Color    string `json:"color" validate:"required,max=64"`
	Mileage  int    `json:"mileage" validate:"gte=0"`
	ImageURL string `json:"imageUrl" validate:"omitempty,url"`
}

// UpdateAuction is a partial update: omitted fields keep their value.
type UpdateAuction struct {
	Make     string `json:"make" validate:"omitempty,max=64"`
	Model    string `json:"model" validate:"omitempty,max=64"`
	Year     int    `json:"year" validate:"omitempty,gte=1886,lte=2100"`
	Color    string `json:"color" validate:"omitempty,max=64"`
	Mileage  int    `json:"mileage" validate:"gte=0"`
	ImageURL string `json:"imageUrl" validate:"omitempty,url"`
}

type UpdatedSince struct {
	Date string `query:"date"`
}
