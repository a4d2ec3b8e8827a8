package server

import (
	"context"
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"voicerag/app/api"
	"voicerag/app/middleware"
	"voicerag/config"
)

const uploadsPrefix = "/uploads"

type Server struct {
	listenAddr string
	logger     *zap.Logger
	app        *fiber.App
}

func NewServer(cfg *config.Config, deps *Deps, logger *zap.Logger) (*Server, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          api.ErrorHandler(logger),
		BodyLimit:             cfg.BodyLimitMB << 20,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(logger.Named("http")))
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSOrigins}))
	app.Use(middleware.PlugStatic(uploadsPrefix))

	var (
		checkHandler  = api.NewCheckHandler()
		chatHandler   = api.NewChatHandler(deps.Agent)
		uploadHandler = api.NewUploadHandler(deps.Loader)
		audioHandler  = api.NewAudioHandler(
			deps.Providers.Transcriber,
			deps.Providers.Synthesizer,
			deps.Agent,
			cfg.UploadDir,
			uploadsPrefix,
			logger.Named("audio"),
		)
		check = app.Group("/check")
		apiv1 = app.Group("/api/v1")
	)

	check.Get("/healthy", checkHandler.HandleHealthy)
	apiv1.Post("/chat", chatHandler.HandleChat)
	apiv1.Post("/upload", uploadHandler.HandleUpload)
	apiv1.Post("/audio", audioHandler.HandleAudio)
	app.Static(uploadsPrefix, cfg.UploadDir)

	return &Server{
		listenAddr: cfg.ServerAddr,
		logger:     logger,
		app:        app,
	}, nil
}

// Run blocks until the listener fails or Stop is called.
func (s *Server) Run() error {
	s.logger.Info("server started", zap.String("addr", s.listenAddr))
	return s.app.Listen(s.listenAddr)
}

func (s *Server) Stop(ctx context.Context) error {
	defer s.logger.Info("server stopped")
	return s.app.ShutdownWithContext(ctx)
}
