package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-reminder-api/core/config"
	"go-reminder-api/core/database"
	"go-reminder-api/core/logger"
	"go-reminder-api/core/middleware"
	"go-reminder-api/core/push"
	"go-reminder-api/core/queue"
	"go-reminder-api/core/travel"
	"go-reminder-api/modules/event"
	eventrepo "go-reminder-api/modules/event/repository"
	"go-reminder-api/modules/notification"
	"go-reminder-api/modules/reminder"
	reminderrepo "go-reminder-api/modules/reminder/repository"
	reminderservice "go-reminder-api/modules/reminder/service"
	"go-reminder-api/modules/reminder/worker"
	"go-reminder-api/modules/user"
	userrepo "go-reminder-api/modules/user/repository"

	"github.com/benbjohnson/clock"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
)

// Run wires the whole service: one database pool, one Redis connection, one
// queue shared by reference between the engine and the dispatcher, and the
// HTTP surface on top.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Server.LogLevel)

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	q := queue.New(cfg.Redis)
	defer q.Close()

	clk := clock.New()
	pushClient := push.NewClient(cfg.Push)
	travelClient := travel.NewClient(cfg.Travel)

	reminderRepo := reminderrepo.NewReminderRepository(db)
	eventRepo := eventrepo.NewEventRepository(db)
	userRepo := userrepo.NewUserRepository(db)

	engine := reminderservice.NewReminderEngine(reminderRepo, eventRepo, q, travelClient, clk, cfg.Reminder)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	mw := middleware.NewMiddleware()
	private := e.Group("/api/v1").Group("/private")

	notifSvc := notification.Init(private, db, mw)
	reminder.Init(private, mw, engine)
	event.Init(private, db, mw, engine)
	user.Init(private, db, rdb, mw, engine)

	dispatcher := worker.NewDispatcher(reminderRepo, eventRepo, userRepo, pushClient, notifSvc, clk)
	reconciler := worker.NewReconciler(reminderRepo, eventRepo, q, clk, cfg.Reminder)

	consumer := queue.NewServer(cfg.Redis)
	dispatcher.Register(consumer)
	reconciler.Register(consumer)

	if err := consumer.Start(); err != nil {
		return fmt.Errorf("start queue consumer: %w", err)
	}
	defer consumer.Shutdown()

	if err := reconciler.Start(q); err != nil {
		logger.Error("Failed to register reconciler, continuing without it", "error", err)
	}
	if err := q.Start(); err != nil {
		return fmt.Errorf("start periodic scheduler: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		logger.Info("HTTP server listening", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("Shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("HTTP shutdown", "error", err)
	}
	return nil
}
