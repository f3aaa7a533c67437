package server

import (
	"github.com/tiya001/hw05-final/internal/auth"
	"github.com/tiya001/hw05-final/internal/cache"
	"github.com/tiya001/hw05-final/internal/config"
	"github.com/tiya001/hw05-final/internal/media"
	"github.com/tiya001/hw05-final/internal/posts"
	"github.com/tiya001/hw05-final/internal/render"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App   *fiber.App
	Cfg   config.Config
	DB    *pgxpool.Pool
	Redis *redis.Client
	Cache *cache.PageCache
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(auth.Authenticate(cfg.SessionSecret))

	s := &Server{
		App:   app,
		Cfg:   cfg,
		DB:    db,
		Redis: redisClient,
		Cache: cache.NewPageCache(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	rnd := render.JSON{}

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.SessionSecret, s.DB), rnd)
	media.RegisterRoutes(s.App.Group("/media"), media.NewService(s.DB, s.Cfg.MediaBaseURL), auth.RequireLogin)

	feed := posts.NewHandlers(posts.NewService(s.DB), rnd)
	posts.RegisterRoutes(s.App, feed, cache.Middleware(s.Cache), auth.RequireLogin)
}
