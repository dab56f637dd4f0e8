package controller

import (
	"agri-advisor/internal/dto"
	"agri-advisor/internal/model"
	"agri-advisor/internal/pkg/logger"
	"agri-advisor/internal/pkg/serverutils"
	"agri-advisor/internal/service"
	internalWS "agri-advisor/internal/websocket"
	"agri-advisor/pkg/agro"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IDashboardController interface {
	RegisterRoutes(r fiber.Router)
	ServeWs(ctx *fiber.Ctx) error
	GetTelemetry(ctx *fiber.Ctx) error
	GetGrowingDegreeDays(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	GetForecastAccuracy(ctx *fiber.Ctx) error
	Geocode(ctx *fiber.Ctx) error
	Analyze(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
}

var validate = validator.New()

type dashboardController struct {
	advisor   service.IAdvisorService
	weather   service.IWeatherService
	satellite service.ISatelliteService
	hub       *internalWS.Hub
	logger    logger.ILogger
}

func NewDashboardController(
	advisor service.IAdvisorService,
	weather service.IWeatherService,
	satellite service.ISatelliteService,
	hub *internalWS.Hub,
	log logger.ILogger,
) IDashboardController {
	return &dashboardController{
		advisor:   advisor,
		weather:   weather,
		satellite: satellite,
		hub:       hub,
		logger:    log,
	}
}

func (c *dashboardController) RegisterRoutes(r fiber.Router) {
	location := r.Group("/location")
	location.Get("/telemetry", c.GetTelemetry)
	location.Get("/gdd", c.GetGrowingDegreeDays)
	location.Get("/history", c.GetHistory)
	location.Get("/accuracy", c.GetForecastAccuracy)
	location.Get("/geocode", c.Geocode)

	r.Post("/analyze", c.Analyze)
	r.Post("/reset", c.Reset)
}

// queryCoords pulls lat/lon from the query string. Out-of-range defaults
// distinguish "absent" from a real (0,0).
func queryCoords(ctx *fiber.Ctx) (float64, float64, bool) {
	lat := ctx.QueryFloat("lat", 999)
	lon := ctx.QueryFloat("lon", 999)
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, false
	}
	return lat, lon, true
}

// GetTelemetry serves GET /api/location/telemetry?lat=&lon=.
func (c *dashboardController) GetTelemetry(ctx *fiber.Ctx) error {
	lat, lon, ok := queryCoords(ctx)
	if !ok {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "lat and lon query parameters are required"))
	}

	telemetry := model.Telemetry{}

	weather, err := c.weather.GetWeather(ctx.UserContext(), lat, lon)
	if err != nil {
		c.logger.Warn("DashboardController", "Weather fetch failed", map[string]interface{}{"error": err.Error()})
	} else {
		telemetry.Weather = weather
	}

	satellite, err := c.satellite.GetSatellite(ctx.UserContext(), lat, lon)
	if err != nil {
		c.logger.Warn("DashboardController", "Satellite fetch failed", map[string]interface{}{"error": err.Error()})
	} else {
		telemetry.Satellite = satellite
	}

	if telemetry.Weather == nil && telemetry.Satellite == nil {
		return ctx.Status(fiber.StatusBadGateway).JSON(serverutils.ErrorResponse(502, "telemetry providers unavailable"))
	}

	return ctx.JSON(telemetry)
}

// GetGrowingDegreeDays serves GET /api/location/gdd?lat=&lon=&base=&start=.
func (c *dashboardController) GetGrowingDegreeDays(ctx *fiber.Ctx) error {
	lat, lon, ok := queryCoords(ctx)
	if !ok {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "lat and lon query parameters are required"))
	}
	baseTemp := ctx.QueryFloat("base", agro.DefaultGDDBaseTemp)
	startDate := ctx.Query("start")

	gdd, err := c.weather.GetGrowingDegreeDays(ctx.UserContext(), lat, lon, baseTemp, startDate)
	if err != nil {
		return ctx.Status(fiber.StatusBadGateway).JSON(serverutils.ErrorResponse(502, "growing degree days unavailable"))
	}

	return ctx.JSON(fiber.Map{
		"gdd":        gdd,
		"base_temp":  baseTemp,
		"start_date": startDate,
	})
}

// GetHistory serves GET /api/location/history?lat=&lon=&days=.
func (c *dashboardController) GetHistory(ctx *fiber.Ctx) error {
	lat, lon, ok := queryCoords(ctx)
	if !ok {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "lat and lon query parameters are required"))
	}
	days := ctx.QueryInt("days", 30)
	if days < 1 || days > 90 {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "days must be between 1 and 90"))
	}

	summary, err := c.weather.GetHistorical(ctx.UserContext(), lat, lon, days)
	if err != nil {
		return ctx.Status(fiber.StatusBadGateway).JSON(serverutils.ErrorResponse(502, "historical data unavailable"))
	}
	return ctx.JSON(summary)
}

// GetForecastAccuracy serves GET /api/location/accuracy?lat=&lon=.
func (c *dashboardController) GetForecastAccuracy(ctx *fiber.Ctx) error {
	lat, lon, ok := queryCoords(ctx)
	if !ok {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "lat and lon query parameters are required"))
	}

	accuracy, err := c.weather.GetForecastAccuracy(ctx.UserContext(), lat, lon)
	if err != nil {
		return ctx.Status(fiber.StatusBadGateway).JSON(serverutils.ErrorResponse(502, "forecast accuracy unavailable"))
	}
	return ctx.JSON(accuracy)
}

// Geocode serves GET /api/location/geocode?name=.
func (c *dashboardController) Geocode(ctx *fiber.Ctx) error {
	name := ctx.Query("name")
	if name == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "name query parameter is required"))
	}

	place, err := c.weather.Geocode(ctx.UserContext(), name)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "place not found"))
	}
	return ctx.JSON(place)
}

// Analyze serves POST /api/analyze.
func (c *dashboardController) Analyze(ctx *fiber.Ctx) error {
	var req dto.AnalyzeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "invalid request body"))
	}
	if err := validate.Struct(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	advisory, err := c.advisor.Analyze(ctx.UserContext(), &req)
	if err != nil {
		c.logger.Error("DashboardController", "Analyze failed", map[string]interface{}{"error": err.Error(), "session_id": req.SessionID})
		return ctx.Status(fiber.StatusBadGateway).JSON(serverutils.ErrorResponse(502, "analysis failed"))
	}

	return ctx.JSON(advisory)
}

// Reset serves POST /api/reset.
func (c *dashboardController) Reset(ctx *fiber.Ctx) error {
	var req dto.ResetRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "invalid request body"))
	}
	if err := validate.Struct(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	if err := c.advisor.Reset(ctx.UserContext(), req.SessionID); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}

	return ctx.JSON(dto.ResetResponse{Status: "ok", SessionID: req.SessionID})
}

// ServeWs upgrades GET /ws/dashboard?session_id= to the push stream.
func (c *dashboardController) ServeWs(ctx *fiber.Ctx) error {
	sessionID := ctx.Query("session_id")
	if sessionID == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "session_id query parameter is required"))
	}

	if websocket.IsWebSocketUpgrade(ctx) {
		log := c.logger
		hub := c.hub
		return websocket.New(func(conn *websocket.Conn) {
			log.Info("DashboardController", "Starting WebSocket session", map[string]interface{}{"session_id": sessionID})
			internalWS.ServeWs(hub, conn, sessionID, log)
			log.Info("DashboardController", "WebSocket session ended", map[string]interface{}{"session_id": sessionID})
		})(ctx)
	}
	return fiber.ErrUpgradeRequired
}
