package http

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/siempreabierto/internal/config"
	"github.com/siempreabierto/internal/delivery/http/handler"
	"github.com/siempreabierto/internal/delivery/http/middleware"
	"github.com/siempreabierto/internal/metrics"
	"github.com/siempreabierto/internal/pkg/errors"
	"github.com/siempreabierto/internal/pkg/utils"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"
)

// Handlers - все обработчики API
type Handlers struct {
	Places        *handler.PlaceHandler
	Restrictions  *handler.RestrictionHandler
	Helpers       *handler.HelperHandler
	HelpRequests  *handler.HelpRequestHandler
	Routes        *handler.RouteHandler
	Contributions *handler.ContributionHandler
	Settings      *handler.SettingsHandler
	Stats         *handler.StatsHandler
	Live          *handler.LiveHandler
}

// Server - HTTP сервер на основе Fiber
type Server struct {
	app      *fiber.App
	config   *config.Config
	logger   *zap.Logger
	handlers Handlers
}

// NewServer - создание нового HTTP сервера
func NewServer(cfg *config.Config, logger *zap.Logger, handlers Handlers) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "Siempre Abierto",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		// параметры live-подписок живут дольше обработчика
		Immutable:    true,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:      app,
		config:   cfg,
		logger:   logger,
		handlers: handlers,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

// App - fiber приложение (для тестов через app.Test)
func (s *Server) App() *fiber.App {
	return s.app
}

// setupMiddlewares - настройка middleware
func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery())
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.Metrics())
	s.app.Use(middleware.CORS(s.config.Server.AllowOrigins))
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

// setupRoutes - настройка маршрутов
func (s *Server) setupRoutes() {
	h := s.handlers

	// Swagger documentation route
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)

	// Prometheus
	s.app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := s.app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	// Places
	places := api.Group("/places")
	places.Get("/nearby", h.Places.Nearby)
	places.Get("/search", h.Places.Search)
	places.Get("/categories", h.Places.Categories)
	places.Get("/review", h.Places.NeedingReview)
	places.Get("/export.geojson", h.Places.Export)
	places.Get("/category/:category", h.Places.ByCategory)
	places.Get("/region/:region", h.Places.ByRegion)
	places.Post("/", h.Places.Create)
	places.Get("/:id", h.Places.GetByID)
	places.Put("/:id", h.Places.Update)
	places.Delete("/:id", h.Places.Deactivate)
	places.Post("/:id/confirm", h.Places.Confirm)
	places.Post("/:id/report", h.Places.Report)

	// Restrictions
	restrictions := api.Group("/restrictions")
	restrictions.Get("/nearby", h.Restrictions.Nearby)
	restrictions.Get("/alerts", h.Restrictions.Alerts)
	restrictions.Get("/types", h.Restrictions.Types)
	restrictions.Get("/export.geojson", h.Restrictions.Export)
	restrictions.Get("/region/:region", h.Restrictions.ByRegion)
	restrictions.Post("/", h.Restrictions.Create)
	restrictions.Get("/:id", h.Restrictions.GetByID)
	restrictions.Put("/:id", h.Restrictions.Update)
	restrictions.Delete("/:id", h.Restrictions.Deactivate)
	restrictions.Post("/:id/confirm", h.Restrictions.Confirm)
	restrictions.Post("/:id/report", h.Restrictions.Report)

	// Helpers
	helpers := api.Group("/helpers")
	helpers.Get("/nearby", h.Helpers.Nearby)
	helpers.Get("/me", h.Helpers.Me)
	helpers.Get("/help-types", h.Helpers.HelpTypes)
	helpers.Post("/", h.Helpers.Register)
	helpers.Get("/:id", h.Helpers.GetByID)
	helpers.Put("/:id", h.Helpers.Update)
	helpers.Put("/:id/availability", h.Helpers.SetAvailability)
	helpers.Delete("/:id", h.Helpers.Deactivate)

	// Help requests
	helpRequests := api.Group("/help-requests")
	helpRequests.Get("/nearby", h.HelpRequests.NearbyPending)
	helpRequests.Get("/mine", h.HelpRequests.Mine)
	helpRequests.Get("/problem-types", h.HelpRequests.ProblemTypes)
	helpRequests.Post("/", h.HelpRequests.Create)
	helpRequests.Get("/:id", h.HelpRequests.GetByID)
	helpRequests.Post("/:id/accept", h.HelpRequests.Accept)
	helpRequests.Post("/:id/complete", h.HelpRequests.Complete)
	helpRequests.Post("/:id/cancel", h.HelpRequests.Cancel)

	// Routes
	routes := api.Group("/routes")
	routes.Get("/", h.Routes.List)
	routes.Get("/nearby", h.Routes.Nearby)
	routes.Get("/for-my-vehicle", h.Routes.ForMyVehicle)
	routes.Post("/", h.Routes.Create)
	routes.Get("/:id", h.Routes.GetByID)
	routes.Get("/:id/geometry", h.Routes.Geometry)
	routes.Delete("/:id", h.Routes.Delete)
	routes.Post("/:id/vote", h.Routes.Vote)
	routes.Post("/:id/favorite", h.Routes.ToggleFavorite)
	routes.Post("/:id/use", h.Routes.RecordUsage)

	// Contribution ledger
	contributions := api.Group("/contributions")
	contributions.Get("/recent", h.Contributions.Recent)
	contributions.Get("/user", h.Contributions.ByUser)
	contributions.Get("/summary", h.Contributions.Summary)
	contributions.Get("/top", h.Contributions.Top)
	contributions.Get("/stats", h.Contributions.Stats)
	contributions.Get("/unsynced", h.Contributions.Unsynced)
	contributions.Get("/history/:type/:id", h.Contributions.History)
	contributions.Post("/sync", h.Contributions.Sync)
	contributions.Post("/mark-synced", h.Contributions.MarkAllSynced)

	// Settings
	settings := api.Group("/settings")
	settings.Get("/", h.Settings.Get)
	settings.Put("/vehicle", h.Settings.UpdateVehicle)
	settings.Put("/preferences", h.Settings.UpdatePreferences)
	settings.Post("/regions", h.Settings.AddRegion)
	settings.Delete("/regions/:region", h.Settings.RemoveRegion)
	settings.Post("/accept-terms", h.Settings.AcceptTerms)
	settings.Post("/rebuild-counters", h.Settings.RebuildCounters)
	settings.Delete("/data", h.Settings.ClearAllData)
	api.Get("/vehicle-profiles", h.Settings.VehicleProfiles)
	api.Get("/regions", h.Settings.Regions)

	// Stats
	api.Get("/stats", h.Stats.GetStatistics)
	api.Post("/stats/refresh", h.Stats.RefreshStatistics)

	// Live subscriptions
	if h.Live != nil {
		ws := api.Group("/ws", h.Live.Upgrade)
		ws.Get("/places/nearby", h.Live.ParseNearbyPlaces, websocket.New(h.Live.PlacesNearby))
		ws.Get("/places/search", h.Live.ParseSearchPlaces, websocket.New(h.Live.PlacesSearch))
		ws.Get("/restrictions/nearby", h.Live.ParseNearbyRestrictions, websocket.New(h.Live.RestrictionsNearby))
		ws.Get("/history/:type/:id", h.Live.ParseHistory, websocket.New(h.Live.History))
	}
}

// Start - запуск HTTP сервера
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown HTTP сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	if s.handlers.Live != nil {
		s.handlers.Live.Close()
	}
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler - кастомный обработчик ошибок
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if stderrors.As(err, &fe) {
			if fe.Code >= fiber.StatusInternalServerError {
				logger.Error("HTTP Error", zap.String("path", c.Path()), zap.Int("status", fe.Code), zap.Error(err))
			}
			return utils.SendError(c, errors.New(httpErrorCode(fe.Code), fe.Message, fe.Code))
		}

		logger.Error("HTTP Error",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return utils.SendError(c, err)
	}
}

func httpErrorCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "ENDPOINT_NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusUpgradeRequired:
		return "UPGRADE_REQUIRED"
	case fiber.StatusRequestEntityTooLarge:
		return "REQUEST_TOO_LARGE"
	default:
		return "HTTP_ERROR"
	}
}
