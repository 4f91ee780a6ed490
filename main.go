package main

import (
	"go-reminder-api/core/logger"
	"go-reminder-api/core/server"
)

// @title Reminder Engine API
// @version 1.0
// @description Schedules and dispatches time-based and "time to leave" reminders for calendar events

// @host localhost:7070
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Example: "Bearer {token}"

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", err)
	}
}
