package main

import (
	"context"

	"github.com/clubdeck/booking-platform/config"
	"github.com/clubdeck/booking-platform/internal/consumer"
	"github.com/clubdeck/booking-platform/internal/handler"
	"github.com/clubdeck/booking-platform/internal/middleware"
	"github.com/clubdeck/booking-platform/internal/repository"
	"github.com/clubdeck/booking-platform/internal/service"
	"github.com/clubdeck/booking-platform/internal/worker"
	"github.com/clubdeck/booking-platform/pkg/cache"
	"github.com/clubdeck/booking-platform/pkg/database"
	"github.com/clubdeck/booking-platform/pkg/rabbitmq"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	cfg := config.Load()

	db := database.NewPostgresDB(cfg.DSN())

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to RabbitMQ")
	}
	defer publisher.Close()

	snapshots := cache.NewSnapshots(cfg.RedisAddr, cfg.RedisPassword, cfg.AvailabilityTTL)
	defer snapshots.Close()

	// Repositories
	bookingRepo := repository.NewBookingRepository(db)
	eventRepo := repository.NewEventRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	clubRepo := repository.NewClubRepository(db)

	// Services
	auditor := service.NewAuditor(auditRepo)
	notifier := service.NewQueueNotifier(publisher)
	ledger := service.NewBookingLedger(
		bookingRepo, eventRepo, paymentRepo,
		notifier, auditor, snapshots,
		cfg.HoldDuration,
	)
	eventSvc := service.NewEventService(eventRepo, clubRepo, publisher, auditor, snapshots)

	// Payment results arrive asynchronously from the payment service.
	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to RabbitMQ consumer")
	}
	defer mqConsumer.Close()

	msgs, err := mqConsumer.Consume()
	if err != nil {
		logrus.WithError(err).Fatal("failed to start consuming")
	}
	consumer.NewPaymentConsumer(ledger).Start(msgs)

	// Background sweep of expired holds; request paths also expire lazily.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go worker.NewSweeper(ledger, cfg.SweepInterval).Run(sweepCtx)

	// Echo
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			logrus.WithFields(logrus.Fields{
				"method": v.Method,
				"uri":    v.URI,
				"status": v.Status,
			}).Info("request")
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "booking-platform"})
	})

	auth := middleware.JWTAuth(cfg.JWTSecret)
	manage := middleware.RequireRole("owner", "admin")
	webhookAuth := middleware.WebhookAuth(cfg.WebhookSecret)

	handler.NewBookingHandler(ledger).RegisterRoutes(e, auth)
	handler.NewEventHandler(eventSvc, ledger).RegisterRoutes(e, auth, manage)
	handler.NewPaymentHandler(ledger, paymentRepo).RegisterRoutes(e, auth, webhookAuth)
	handler.NewAuditHandler(auditRepo).RegisterRoutes(e, auth, manage)

	logrus.WithField("port", cfg.ServerPort).Info("booking platform starting")
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
