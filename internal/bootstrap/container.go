package bootstrap

import (
	"log"

	"agri-advisor/internal/config"
	"agri-advisor/internal/controller"
	"agri-advisor/internal/pkg/logger"
	"agri-advisor/internal/repository/memory"
	"agri-advisor/internal/service"
	"agri-advisor/internal/websocket"
	"agri-advisor/pkg/events"

	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	DashboardController controller.IDashboardController

	// Background Services (Exposed for main.go to run)
	DispatcherService service.IDispatcherService

	// WebSockets & Eventing
	WebSocketHub *websocket.Hub
	EventBus     *events.Bus
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	bus := events.NewBus()

	// 3. Optional Redis relay for multi-instance websocket fanout
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Invalid REDIS_URL, running single-instance: %v", err)
		} else {
			rdb = redis.NewClient(opts)
		}
	}

	// 4. WebSocket Hub
	hub := websocket.NewHub(rdb, sysLogger)

	// 5. Repositories
	sessionRepo := memory.NewSessionRepository(cfg.App.SessionTTL)

	// 6. Services
	weatherService := service.NewWeatherService(cfg.Weather, sysLogger)
	satelliteService := service.NewSatelliteService(cfg.Satellite, sysLogger)
	advisorService := service.NewAdvisorService(cfg.Advisor, sessionRepo, weatherService, satelliteService, bus, sysLogger)
	dispatcherService := service.NewDispatcherService(bus, hub, sysLogger)

	// 7. Controllers
	dashboardController := controller.NewDashboardController(advisorService, weatherService, satelliteService, hub, sysLogger)

	return &Container{
		DashboardController: dashboardController,
		DispatcherService:   dispatcherService,
		WebSocketHub:        hub,
		EventBus:            bus,
	}
}
