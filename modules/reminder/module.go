package reminder

import (
	"go-reminder-api/core/middleware"
	"go-reminder-api/modules/reminder/controller"
	"go-reminder-api/modules/reminder/router"
	"go-reminder-api/modules/reminder/service"

	"github.com/labstack/echo/v4"
)

// Init registers the reminder observability routes. The engine itself is
// constructed in the server bootstrap because it spans several modules'
// repositories plus the queue.
func Init(e *echo.Group, mw *middleware.Middleware, engine service.ReminderEngineInterface) {
	ctrl := controller.NewReminderController(engine)
	router.NewReminderRouter(ctrl).Register(e, mw)
}
