package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"matchday/internal/config"
	"matchday/internal/database"
	"matchday/internal/handler"
	"matchday/internal/middleware"
	"matchday/internal/queue"
	"matchday/internal/repository"
	"matchday/internal/router"
	"matchday/internal/service"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the response cache and the rate limiter.  Both middlewares
	// degrade to pass-through when the client is nil or disabled.
	rdb := config.NewRedisClient()

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	matchRepo := repository.NewMatchRepo(db)
	participantRepo := repository.NewParticipantRepo(db)
	selectionRepo := repository.NewSelectionRepo(db)

	events := queue.NewPublisher()

	matchSvc := service.NewMatchService(db, matchRepo)
	enrollSvc := service.NewEnrollmentService(db, matchRepo, participantRepo, events)
	selectionSvc := service.NewSelectionService(db, selectionRepo, matchRepo)

	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	publicHandler := handler.NewPublicHandler(matchSvc, enrollSvc)
	organizerHandler := handler.NewOrganizerHandler(matchSvc)
	enrollHandler := handler.NewEnrollmentHandler(enrollSvc)
	selectionHandler := handler.NewSelectionHandler(selectionSvc)

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterPublic(e, publicHandler, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterPlayer(e, enrollHandler, selectionHandler, cfg.JWTSecret)
	router.RegisterOrganizer(e, organizerHandler, cfg.JWTSecret)

	// Consume enrollment confirmations in the background.  The consumer
	// reconnects on broker failures and never takes the API down with it.
	go func() {
		if err := queue.StartEnrollmentConsumer(); err != nil {
			log.Printf("enrollment consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
