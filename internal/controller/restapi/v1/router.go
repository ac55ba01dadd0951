package v1

import (
	"github.com/andreyxaxa/auction-sync/internal/controller/restapi/v1/validate"
	"github.com/andreyxaxa/auction-sync/internal/usecase"
	"github.com/andreyxaxa/auction-sync/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

func NewAuctionRoutes(apiV1Group fiber.Router, a usecase.AuctionUseCase, l logger.Interface) {
	r := &AuctionV1{a: a, logger: l, v: validate.New()}

	auctionGroup := apiV1Group.Group("/auctions")
	{
		auctionGroup.Get("/", r.listUpdatedSince)
		auctionGroup.Get("/:id", r.getAuction)
		auctionGroup.Post("/", requireUser, r.createAuction)
		auctionGroup.Put("/:id", requireUser, r.updateAuction)
		auctionGroup.Delete("/:id", requireUser, r.deleteAuction)
	}
}

func NewBiddingRoutes(apiV1Group fiber.Router, b usecase.BidUseCase, l logger.Interface) {
	r := &BiddingV1{b: b, logger: l, v: validate.New()}

	bidGroup := apiV1Group.Group("/bids")
	{
		bidGroup.Post("/", requireUser, r.placeBid)
		bidGroup.Get("/:auctionId", r.getBids)
	}

	apiV1Group.Post("/auctions/:id/finalize", r.finalize)
}

func NewSearchRoutes(apiV1Group fiber.Router, s usecase.SearchUseCase, l logger.Interface) {
	r := &SearchV1{s: s, logger: l, v: validate.New()}

	{
		apiV1Group.Get("/search", r.search)
	}
}
