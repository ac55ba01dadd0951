package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is the search-side projection of an auction.
// UpdatedAt is the watermark used to discard stale updates.
type Item struct {
	ID             uuid.UUID        `json:"id"`
	Seller         string           `json:"seller"`
	Winner         *string          `json:"winner,omitempty"`
	ReservePrice   decimal.Decimal  `json:"reservePrice"`
	SoldAmount     *decimal.Decimal `json:"soldAmount,omitempty"`
	CurrentHighBid *decimal.Decimal `json:"currentHighBid,omitempty"`
	Status         AuctionStatus    `json:"status"`
	AuctionEnd     time.Time        `json:"auctionEnd"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`

	Make     string `json:"make"`
	Model    string `json:"model"`
	Year     int    `json:"year"`
	Color    string `json:"color"`
	Mileage  int    `json:"mileage"`
	ImageURL string `json:"imageUrl"`
}

// ItemFromAuction flattens an auction into its projection shape.
func ItemFromAuction(a *Auction) Item {
	return Item{
		ID:             a.ID,
		Seller:         a.Seller,
		Winner:         a.Winner,
		ReservePrice:   a.ReservePrice,
		SoldAmount:     a.SoldAmount,
		CurrentHighBid: a.CurrentHighBid,
		Status:         a.Status,
		AuctionEnd:     a.AuctionEnd,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
		Make:           a.Item.Make,
		Model:          a.Item.Model,
		Year:           a.Item.Year,
		Color:          a.Item.Color,
		Mileage:        a.Item.Mileage,
		ImageURL:       a.Item.ImageURL,
	}
}

type SearchOrder string

const (
	OrderByEnd  SearchOrder = "end"
	OrderByMake SearchOrder = "make"
	OrderByNew  SearchOrder = "new"
)

type SearchFilter string

const (
	FilterLive        SearchFilter = "live"
	FilterFinished    SearchFilter = "finished"
	FilterEndingSoon  SearchFilter = "endingSoon"
	EndingSoonHorizon              = 6 * time.Hour
)

type SearchQuery struct {
	SearchTerm string
	OrderBy    SearchOrder
	FilterBy   SearchFilter
	Seller     string
	Winner     string
	PageNumber int
	PageSize   int
	Now        time.Time
}

type SearchResult struct {
	Results    []Item `json:"results"`
	PageCount  int    `json:"pageCount"`
	TotalCount int    `json:"totalCount"`
}
