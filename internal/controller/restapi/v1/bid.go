package v1

import (
	"net/http"

	"github.com/andreyxaxa/auction-sync/internal/controller/restapi/v1/request"
	"github.com/andreyxaxa/auction-sync/internal/controller/restapi/v1/response"
	"github.com/andreyxaxa/auction-sync/internal/entity"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// placeBid answers 201 for every classification; only NotFound, Forbidden and bad input fail.
func (r *BiddingV1) placeBid(ctx *fiber.Ctx) error {
	var q request.PlaceBid

	if err := ctx.QueryParser(&q); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid query")
	}

	if err := r.v.Struct(q); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error())
	}

	auctionID, err := uuid.Parse(q.AuctionID)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid auctionId")
	}

	amount, err := decimal.NewFromString(q.Amount)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid amount")
	}

	bid, err := r.b.PlaceBid(ctx.UserContext(), auctionID, currentUser(ctx), amount)
	if err != nil {
		return useCaseError(ctx, r.logger, err, "restapi - v1 - placeBid")
	}

	return ctx.Status(http.StatusCreated).JSON(toPlaceBid(bid))
}

func (r *BiddingV1) getBids(ctx *fiber.Ctx) error {
	auctionID, err := uuid.Parse(ctx.Params("auctionId"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid auctionId")
	}

	bids, err := r.b.GetBidsForAuction(ctx.UserContext(), auctionID)
	if err != nil {
		return useCaseError(ctx, r.logger, err, "restapi - v1 - getBids")
	}

	resp := make([]response.PlaceBid, 0, len(bids))
	for _, b := range bids {
		resp = append(resp, toPlaceBid(b))
	}

	return ctx.Status(http.StatusOK).JSON(resp)
}

func (r *BiddingV1) finalize(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	res, err := r.b.Finalize(ctx.UserContext(), id)
	if err != nil {
		return useCaseError(ctx, r.logger, err, "restapi - v1 - finalize")
	}

	return ctx.Status(http.StatusOK).JSON(res)
}

func toPlaceBid(b *entity.Bid) response.PlaceBid {
	return response.PlaceBid{
		ID:        b.ID.String(),
		AuctionID: b.AuctionID.String(),
		Bidder:    b.Bidder,
		Amount:    b.Amount,
		BidTime:   b.BidTime,
		BidStatus: string(b.Status),
	}
}
