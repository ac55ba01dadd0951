package v1

import (
	"net/http"

	"github.com/andreyxaxa/auction-sync/internal/controller/restapi/v1/request"
	"github.com/andreyxaxa/auction-sync/internal/entity"
	"github.com/gofiber/fiber/v2"
)

func (r *SearchV1) search(ctx *fiber.Ctx) error {
	var q request.Search

	if err := ctx.QueryParser(&q); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid query")
	}

	if err := r.v.Struct(q); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error())
	}

	res, err := r.s.Search(ctx.UserContext(), entity.SearchQuery{
		SearchTerm: q.SearchTerm,
		OrderBy:    entity.SearchOrder(q.OrderBy),
		FilterBy:   entity.SearchFilter(q.FilterBy),
		Seller:     q.Seller,
		Winner:     q.Winner,
		PageNumber: q.PageNumber,
		PageSize:   q.PageSize,
	})
	if err != nil {
		r.logger.Error(err, "restapi - v1 - search")

		return errorResponse(ctx, http.StatusInternalServerError, "search problems")
	}

	if res.Results == nil {
		res.Results = []entity.Item{}
	}

	return ctx.Status(http.StatusOK).JSON(res)
}
