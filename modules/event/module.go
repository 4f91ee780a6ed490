package event

import (
	"go-reminder-api/core/database"
	"go-reminder-api/core/middleware"
	"go-reminder-api/modules/event/controller"
	"go-reminder-api/modules/event/repository"
	"go-reminder-api/modules/event/router"
	"go-reminder-api/modules/event/service"
	reminderservice "go-reminder-api/modules/reminder/service"

	"github.com/labstack/echo/v4"
)

// Init initializes the event module and registers routes.
func Init(e *echo.Group, db database.IDatabase, mw *middleware.Middleware, engine reminderservice.ReminderEngineInterface) {
	repo := repository.NewEventRepository(db)
	svc := service.NewEventService(repo, engine)
	ctrl := controller.NewEventController(svc)

	router.NewEventRouter(ctrl).Register(e, mw)
}
