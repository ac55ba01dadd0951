package restapi

import (
	v1 "github.com/andreyxaxa/auction-sync/internal/controller/restapi/v1"
	"github.com/andreyxaxa/auction-sync/internal/usecase"
	"github.com/andreyxaxa/auction-sync/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewAuctionRouter(app *fiber.App, a usecase.AuctionUseCase, l logger.Interface) {
	newCommonRoutes(app)

	// Routers
	apiV1Group := app.Group("/v1")
	{
		v1.NewAuctionRoutes(apiV1Group, a, l)
	}
}

func NewBiddingRouter(app *fiber.App, b usecase.BidUseCase, l logger.Interface) {
	newCommonRoutes(app)

	// Routers
	apiV1Group := app.Group("/v1")
	{
		v1.NewBiddingRoutes(apiV1Group, b, l)
	}
}

func NewSearchRouter(app *fiber.App, s usecase.SearchUseCase, l logger.Interface) {
	newCommonRoutes(app)

	// Routers
	apiV1Group := app.Group("/v1")
	{
		v1.NewSearchRoutes(apiV1Group, s, l)
	}
}

func newCommonRoutes(app *fiber.App) {
	app.Use(recover.New())

	// Prometheus metrics
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// K8s liveness
	app.Get("/healthz", func(ctx *fiber.Ctx) error { return ctx.SendStatus(fiber.StatusOK) })
}
