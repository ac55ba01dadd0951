package v1

import (
	"github.com/andreyxaxa/auction-sync/internal/usecase"
	"github.com/andreyxaxa/auction-sync/pkg/logger"
	"github.com/go-playground/validator/v10"
)

type AuctionV1 struct {
	a      usecase.AuctionUseCase
	logger logger.Interface
	v      *validator.Validate
}

type BiddingV1 struct {
	b      usecase.BidUseCase
	logger logger.Interface
	v      *validator.Validate
}

type SearchV1 struct {
	s      usecase.SearchUseCase
	logger logger.Interface
	v      *validator.Validate
}
