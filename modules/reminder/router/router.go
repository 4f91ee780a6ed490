package router

import (
	"go-reminder-api/core/middleware"
	"go-reminder-api/modules/reminder/controller"

	"github.com/labstack/echo/v4"
)

type ReminderRouter struct {
	controller *controller.ReminderController
}

func NewReminderRouter(controller *controller.ReminderController) *ReminderRouter {
	return &ReminderRouter{controller: controller}
}

func (r *ReminderRouter) Register(e *echo.Group, mw *middleware.Middleware) {
	group := e.Group("/reminders", mw.AuthMiddleware())
	group.GET("", r.controller.GetMyReminders)
	group.GET("/event/:eventId", r.controller.GetEventReminders)
}
