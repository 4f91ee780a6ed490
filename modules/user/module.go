package user

import (
	"go-reminder-api/core/database"
	"go-reminder-api/core/middleware"
	reminderservice "go-reminder-api/modules/reminder/service"
	"go-reminder-api/modules/user/controller"
	"go-reminder-api/modules/user/repository"
	"go-reminder-api/modules/user/router"
	"go-reminder-api/modules/user/service"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Init initializes the user module and registers routes.
func Init(e *echo.Group, db database.IDatabase, rdb *redis.Client, mw *middleware.Middleware, engine reminderservice.ReminderEngineInterface) {
	repo := repository.NewUserRepository(db)
	locations := repository.NewLocationCache(rdb)
	svc := service.NewUserService(repo, locations, engine)
	ctrl := controller.NewUserController(svc)

	router.NewUserRouter(ctrl).Register(e, mw)
}
