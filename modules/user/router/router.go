package router

import (
	"go-reminder-api/core/middleware"
	"go-reminder-api/modules/user/controller"

	"github.com/labstack/echo/v4"
)

type UserRouter struct {
	controller *controller.UserController
}

func NewUserRouter(controller *controller.UserController) *UserRouter {
	return &UserRouter{controller: controller}
}

func (r *UserRouter) Register(e *echo.Group, mw *middleware.Middleware) {
	group := e.Group("/users", mw.AuthMiddleware())
	group.GET("/me", r.controller.GetMe)
	group.PUT("/me/push-token", r.controller.SetPushToken)
	group.DELETE("/me/push-token", r.controller.ClearPushToken)
	group.GET("/me/location", r.controller.GetLocation)
	group.PUT("/me/location", r.controller.UpdateLocation)
}
