package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/qnowapp/qnow-backend/internal/config"
	"github.com/qnowapp/qnow-backend/internal/database"
	"github.com/qnowapp/qnow-backend/internal/email"
	"github.com/qnowapp/qnow-backend/internal/handler"
	"github.com/qnowapp/qnow-backend/internal/middleware"
	"github.com/qnowapp/qnow-backend/internal/push"
	"github.com/qnowapp/qnow-backend/internal/queue"
	"github.com/qnowapp/qnow-backend/internal/repository"
	"github.com/qnowapp/qnow-backend/internal/router"
	"github.com/qnowapp/qnow-backend/internal/service/dispatcher"
	"github.com/qnowapp/qnow-backend/internal/service/waitlist"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	queues := repository.NewQueueRepo(db)
	clients := repository.NewQueueClientRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	notifications := repository.NewNotificationRepo(db)

	publisher := queue.NewPublisher()
	waitlistSvc := waitlist.New(queues, clients)
	dispatchSvc := dispatcher.New(clients, publisher)

	pushClient := push.NewClient(cfg.PushGatewayURL, cfg.PushServerKey)
	var mailer *email.Client
	if cfg.SMTPHost != "" {
		mailer = email.NewClient(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	}

	// Delivery worker: consumes dispatch events off the broker and
	// forwards them to the push gateway.
	go func() {
		if err := queue.StartConsumer(pushClient); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, users, tokens, mailer),
		Queues:       handler.NewQueueHandler(cfg, waitlistSvc),
		QueueClients: handler.NewQueueClientHandler(cfg, waitlistSvc),
		Notify:       handler.NewNotificationHandler(cfg, dispatchSvc),
		Webhooks:     handler.NewWebhookHandler(cfg, notifications, users, pushClient),
	}, cfg.JWTSecret, limiter)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
