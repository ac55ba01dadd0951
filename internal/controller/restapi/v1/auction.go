package v1

import (
	"net/http"
	"time"

	"github.com/andreyxaxa/auction-sync/internal/controller/restapi/v1/request"
	"github.com/andreyxaxa/auction-sync/internal/entity"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func (r *AuctionV1) createAuction(ctx *fiber.Ctx) error {
	var body request.CreateAuction

	if err := ctx.BodyParser(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err := r.v.Struct(body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error())
	}

	if !body.AuctionEnd.After(time.Now()) {
		return errorResponse(ctx, http.StatusBadRequest, "auctionEnd must be in the future")
	}

	auction, err := r.a.Create(ctx.UserContext(), currentUser(ctx), body.ReservePrice, body.AuctionEnd, entity.ItemDetails{
		Make:     body.Make,
		Model:    body.Model,
		Year:     body.Year,
		Color:    body.Color,
		Mileage:  body.Mileage,
		ImageURL: body.ImageURL,
	})
	if err != nil {
		return useCaseError(ctx, r.logger, err, "restapi - v1 - createAuction")
	}

	return ctx.Status(http.StatusCreated).JSON(auction)
}

func (r *AuctionV1) updateAuction(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	var body request.UpdateAuction

	if err := ctx.BodyParser(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err := r.v.Struct(body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error())
	}

	auction, err := r.a.Update(ctx.UserContext(), id, currentUser(ctx), entity.ItemDetails{
		Make:     body.Make,
		Model:    body.Model,
		Year:     body.Year,
		Color:    body.Color,
		Mileage:  body.Mileage,
		ImageURL: body.ImageURL,
	})
	if err != nil {
		return useCaseError(ctx, r.logger, err, "restapi - v1 - updateAuction")
	}

	return ctx.Status(http.StatusOK).JSON(auction)
}

func (r *AuctionV1) deleteAuction(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	if err := r.a.Delete(ctx.UserContext(), id, currentUser(ctx)); err != nil {
		return useCaseError(ctx, r.logger, err, "restapi - v1 - deleteAuction")
	}

	return ctx.SendStatus(http.StatusOK)
}

func (r *AuctionV1) getAuction(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	auction, err := r.a.GetByID(ctx.UserContext(), id)
	if err != nil {
		return useCaseError(ctx, r.logger, err, "restapi - v1 - getAuction")
	}

	return ctx.Status(http.StatusOK).JSON(auction)
}

// listUpdatedSince serves the search service's reconciliation pull.
// Without a date every auction is returned.
func (r *AuctionV1) listUpdatedSince(ctx *fiber.Ctx) error {
	var q request.UpdatedSince

	if err := ctx.QueryParser(&q); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid query")
	}

	var since time.Time
	if q.Date != "" {
		var err error

		since, err = time.Parse(time.RFC3339Nano, q.Date)
		if err != nil {
			return errorResponse(ctx, http.StatusBadRequest, "date must be RFC3339")
		}
	}

	auctions, err := r.a.ListUpdatedSince(ctx.UserContext(), since)
	if err != nil {
		return useCaseError(ctx, r.logger, err, "restapi - v1 - listUpdatedSince")
	}

	if auctions == nil {
		auctions = []*entity.Auction{}
	}

	return ctx.Status(http.StatusOK).JSON(auctions)
}
