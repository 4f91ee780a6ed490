package router

import (
	"go-reminder-api/core/middleware"
	"go-reminder-api/modules/event/controller"

	"github.com/labstack/echo/v4"
)

// EventRouter handles event routes
type EventRouter struct {
	EventController *controller.EventController
}

func NewEventRouter(eventController *controller.EventController) *EventRouter {
	return &EventRouter{EventController: eventController}
}

func (r *EventRouter) Register(e *echo.Group, mw *middleware.Middleware) {
	group := e.Group("/events", mw.AuthMiddleware())

	group.POST("", r.EventController.CreateEvent)
	group.GET("", r.EventController.GetMyEvents)
	group.GET("/:id", r.EventController.GetEvent)
	group.PUT("/:id", r.EventController.UpdateEvent)
	group.PUT("/:id/cancel", r.EventController.CancelEvent)
	group.DELETE("/:id", r.EventController.DeleteEvent)
}
