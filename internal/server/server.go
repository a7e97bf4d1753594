package server

import (
	"backend-traildiary/internal/auth"
	"backend-traildiary/internal/config"
	"backend-traildiary/internal/job"
	"backend-traildiary/internal/pipeline"
	"backend-traildiary/internal/stream"
	"backend-traildiary/internal/trip"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
	Jobs   *job.Tracker
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	hub := stream.NewHub(redisClient)
	tracker := job.NewTracker(cfg.JobWorkers, cfg.JobQueueDepth, cfg.PublishTimeout, redisClient, hub)

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: hub,
		Jobs:   tracker,
	}

	registerRoutes(s)
	return s
}

// Close drains the job workers. Call after the HTTP listener has stopped so
// in-flight publishes finish before the process exits.
func (s *Server) Close() {
	s.Jobs.Close()
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	tripService := trip.NewService(s.DB)
	dispatcher := pipeline.NewDispatcher(pipelineConfig(s.Cfg), tripService, s.Jobs)

	trip.RegisterRoutes(s.App.Group("/trips"), tripService, jwtMiddleware)
	pipeline.RegisterRoutes(s.App.Group("/routes"), dispatcher, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}

// pipelineConfig maps environment settings onto the dispatcher, keeping the
// defaults for anything left unset.
func pipelineConfig(cfg config.Config) pipeline.Config {
	pc := pipeline.DefaultConfig()
	if cfg.MaxFileBytes > 0 {
		pc.MaxFileBytes = cfg.MaxFileBytes
	}
	if cfg.AsyncFileBytes > 0 {
		pc.AsyncFileBytes = cfg.AsyncFileBytes
	}
	if cfg.PreviewTimeout > 0 {
		pc.PreviewTimeout = cfg.PreviewTimeout
	}
	if cfg.PublishTimeout > 0 {
		pc.PublishTimeout = cfg.PublishTimeout
	}
	if cfg.EpsilonM > 0 {
		pc.EpsilonM = cfg.EpsilonM
	}
	if cfg.PreFilterGapM > 0 {
		pc.PreFilterGapM = cfg.PreFilterGapM
	}
	return pc
}
