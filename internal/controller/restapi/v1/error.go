package v1

import (
	"errors"
	"net/http"

	"github.com/andreyxaxa/auction-sync/internal/controller/restapi/v1/response"
	"github.com/andreyxaxa/auction-sync/pkg/logger"
	"github.com/andreyxaxa/auction-sync/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
)

func errorResponse(ctx *fiber.Ctx, code int, msg string) error {
	return ctx.Status(code).JSON(response.Error{Error: msg})
}

// useCaseError maps domain sentinels to status codes; anything unknown is logged and hidden.
func useCaseError(ctx *fiber.Ctx, l logger.Interface, err error, where string) error {
	switch {
	case errors.Is(err, errs.ErrRecordNotFound):
		return errorResponse(ctx, http.StatusNotFound, "auction not found")
	case errors.Is(err, errs.ErrSelfBid):
		return errorResponse(ctx, http.StatusForbidden, "cannot bid on your own auction")
	case errors.Is(err, errs.ErrNotOwner):
		return errorResponse(ctx, http.StatusForbidden, "only the seller can change the auction")
	case errors.Is(err, errs.ErrForbidden):
		return errorResponse(ctx, http.StatusForbidden, "forbidden")
	case errors.Is(err, errs.ErrInvalidAmount):
		return errorResponse(ctx, http.StatusBadRequest, errs.ErrInvalidAmount.Error())
	case errors.Is(err, errs.ErrAlreadyFinished):
		return errorResponse(ctx, http.StatusConflict, errs.ErrAlreadyFinished.Error())
	}

	l.Error(err, where)

	return errorResponse(ctx, http.StatusInternalServerError, "internal problems")
}
