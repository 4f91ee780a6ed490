package notification

import (
	"go-reminder-api/core/database"
	"go-reminder-api/core/middleware"
	"go-reminder-api/modules/notification/controller"
	"go-reminder-api/modules/notification/repository"
	"go-reminder-api/modules/notification/router"
	"go-reminder-api/modules/notification/service"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Group, db database.IDatabase, mw *middleware.Middleware) *service.NotificationService {
	repo := repository.NewNotificationRepository(db)
	svc := service.NewNotificationService(repo)
	ctrl := controller.NewNotificationController(svc)

	router.NewNotificationRouter(ctrl).Register(e, mw)

	return svc
}
