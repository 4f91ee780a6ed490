package controller

import (
	"go-reminder-api/core/constants"
	"go-reminder-api/core/controller"
	"go-reminder-api/core/errors"
	"go-reminder-api/core/utils"
	"go-reminder-api/modules/user/dto"
	"go-reminder-api/modules/user/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type UserController struct {
	controller.BaseController
	UserService service.UserServiceInterface
}

func NewUserController(svc service.UserServiceInterface) *UserController {
	return &UserController{
		BaseController: controller.NewBaseController(),
		UserService:    svc,
	}
}

func (c *UserController) getUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
	tokenData := ctx.Get(constants.ContextTokenData)
	if tokenData == nil {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "User not authenticated", nil)
	}
	claims, ok := tokenData.(*utils.TokenClaims)
	if !ok {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "Invalid token data", nil)
	}
	return claims.UserID, nil
}

// GetMe handles GET /users/me
// @Summary Get own profile
// @Tags User
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} errors.AppError
// @Router /private/users/me [get]
func (c *UserController) GetMe(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, appErr := c.UserService.GetMe(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.AppErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}

// SetPushToken handles PUT /users/me/push-token
// @Summary Register a device push token
// @Tags User
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.SetPushTokenRequest true "Device token"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.AppError
// @Router /private/users/me/push-token [put]
func (c *UserController) SetPushToken(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.SetPushTokenRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	if appErr := c.UserService.SetPushToken(ctx.Request().Context(), userID, req.Token); appErr != nil {
		return c.AppErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Push token saved")
}

// ClearPushToken handles DELETE /users/me/push-token
// @Summary Remove the registered push token
// @Tags User
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 401 {object} errors.AppError
// @Router /private/users/me/push-token [delete]
func (c *UserController) ClearPushToken(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	if appErr := c.UserService.ClearPushToken(ctx.Request().Context(), userID); appErr != nil {
		return c.AppErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Push token cleared")
}

// UpdateLocation handles PUT /users/me/location
// @Summary Report current location
// @Description Stores the report and recomputes "time to leave" reminders
// @Tags User
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.UpdateLocationRequest true "Current coordinates"
// @Success 200 {object} dto.LocationResponse
// @Failure 400 {object} errors.AppError
// @Router /private/users/me/location [put]
func (c *UserController) UpdateLocation(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.UpdateLocationRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.UserService.UpdateLocation(ctx.Request().Context(), userID, &req)
	if appErr != nil {
		return c.AppErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Location updated")
}

// GetLocation handles GET /users/me/location
// @Summary Get last reported location
// @Tags User
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.LocationResponse
// @Failure 404 {object} errors.AppError
// @Router /private/users/me/location [get]
func (c *UserController) GetLocation(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, appErr := c.UserService.GetLocation(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.AppErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}
