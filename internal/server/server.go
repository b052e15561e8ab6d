package server

import (
	"log"
	"time"

	"backend-fleetwatch/internal/alarm"
	"backend-fleetwatch/internal/auth"
	"backend-fleetwatch/internal/config"
	"backend-fleetwatch/internal/detector"
	"backend-fleetwatch/internal/ingest"
	"backend-fleetwatch/internal/notify"
	"backend-fleetwatch/internal/reaper"
	"backend-fleetwatch/internal/roads"
	"backend-fleetwatch/internal/stream"
	"backend-fleetwatch/internal/trip"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
	Reaper *reaper.Reaper
	Mailer notify.Mailer
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client, amqpConn *amqp091.Connection) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
		Reaper: reaper.New(db),
		Mailer: notify.LogMailer{},
	}

	registerRoutes(s, amqpConn)
	return s
}

func registerRoutes(s *Server, amqpConn *amqp091.Connection) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	var cache roads.Cache = roads.NewMemoryCache(roads.DefaultCacheTTL)
	if s.Redis != nil {
		cache = roads.NewRedisCache(s.Redis, roads.DefaultCacheTTL)
	}
	classifier := roads.NewClassifier(roads.NewNominatimClient(s.Cfg.GeocoderURL), cache)

	var messenger notify.Messenger
	if amqpConn != nil {
		m, err := notify.NewAMQPMessenger(amqpConn)
		if err != nil {
			log.Printf("messaging channel unavailable: %v", err)
		} else {
			messenger = m
		}
	}
	fanout := notify.NewFanout(s.DB, messenger, notify.NewStorePusher(s.DB))

	alarmSvc := alarm.NewService(s.DB)
	det := detector.New(classifier, alarmSvc, fanout, time.Duration(s.Cfg.AlarmCooldownSec)*time.Second)
	tripSvc := trip.NewService(s.DB)
	tracker := ingest.NewTracker(tripSvc, det, s.Stream)

	trip.RegisterRoutes(s.App.Group("/trips"), tripSvc, jwtMiddleware)
	ingest.RegisterRoutes(s.App.Group("/telemetry"), tracker, jwtMiddleware)
	alarm.RegisterRoutes(s.App.Group("/alarms"), alarmSvc)
	reaper.RegisterRoutes(s.App.Group("/admin/reaper"), s.Reaper, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)

	s.App.Post("/admin/diagnostics/email", jwtMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			To      string `json:"to"`
			Subject string `json:"subject"`
			Body    string `json:"body"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.To == "" {
			return fiber.NewError(fiber.StatusBadRequest, "to required")
		}
		if err := s.Mailer.SendDiagnostic(c.Context(), req.To, req.Subject, req.Body); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"status": "sent"})
	})
}
