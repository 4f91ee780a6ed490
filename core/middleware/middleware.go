package middleware

import (
	"strings"

	"go-reminder-api/core/constants"
	"go-reminder-api/core/controller"
	"go-reminder-api/core/errors"
	"go-reminder-api/core/utils"

	"github.com/labstack/echo/v4"
)

type Middleware struct {
	base controller.BaseController
}

func NewMiddleware() *Middleware {
	return &Middleware{base: controller.NewBaseController()}
}

// AuthMiddleware validates the bearer token and stores its claims in the
// request context under constants.ContextTokenData.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			header := ctx.Request().Header.Get("Authorization")
			if header == "" {
				return m.base.Unauthorized(errors.ErrMissingAuthorizationHeader, "Missing Authorization header")
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				return m.base.Unauthorized(errors.ErrInvalidTokenFormat, "Authorization header must be a Bearer token")
			}

			claims, err := utils.ValidateAndParseToken(token)
			if err != nil {
				if ae, ok := err.(*errors.AppError); ok {
					return m.base.Unauthorized(ae.Code, ae.Message)
				}
				return m.base.Unauthorized(errors.ErrUnauthorized, "Invalid token")
			}

			ctx.Set(constants.ContextTokenData, claims)
			return next(ctx)
		}
	}
}
