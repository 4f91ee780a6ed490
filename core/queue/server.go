package queue

import (
	"context"
	"fmt"
	"time"

	"go-reminder-api/core/config"
	"go-reminder-api/core/constants"
	"go-reminder-api/core/logger"

	"github.com/hibiken/asynq"
)

// Server is the job consumer: a small bounded worker pool pulling due jobs
// and running the registered handlers with exponential retry backoff.
type Server struct {
	srv *asynq.Server
	mux *asynq.ServeMux
}

func NewServer(cfg config.RedisConfig) *Server {
	srv := asynq.NewServer(RedisOpt(cfg), asynq.Config{
		Concurrency: 4,
		Queues: map[string]int{
			constants.QueueReminders: 5,
			constants.QueueDefault:   1,
		},
		RetryDelayFunc: retryDelay,
		Logger:         asynqLogger{},
	})
	return &Server{
		srv: srv,
		mux: asynq.NewServeMux(),
	}
}

// HandleFunc registers the handler for a task type.
func (s *Server) HandleFunc(taskType string, handler func(ctx context.Context, t *asynq.Task) error) {
	s.mux.HandleFunc(taskType, handler)
}

func (s *Server) Start() error {
	return s.srv.Start(s.mux)
}

func (s *Server) Shutdown() {
	s.srv.Shutdown()
}

// retryDelay backs off exponentially: 30s, 1m, 2m, ...
func retryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	return (30 * time.Second) << uint(n)
}

// asynqLogger adapts asynq's logging to the application logger.
type asynqLogger struct{}

func (asynqLogger) Debug(args ...any) { logger.Debug(fmt.Sprint(args...)) }
func (asynqLogger) Info(args ...any)  { logger.Info(fmt.Sprint(args...)) }
func (asynqLogger) Warn(args ...any)  { logger.Warn(fmt.Sprint(args...)) }
func (asynqLogger) Error(args ...any) { logger.Error(fmt.Sprint(args...)) }
func (asynqLogger) Fatal(args ...any) { logger.Error(fmt.Sprint(args...)) }
