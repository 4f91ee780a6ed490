package controller

import (
	"go-reminder-api/core/constants"
	"go-reminder-api/core/controller"
	"go-reminder-api/core/errors"
	"go-reminder-api/core/utils"
	"go-reminder-api/modules/reminder/dto"
	"go-reminder-api/modules/reminder/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ReminderController exposes read-only views over persisted reminder rows.
type ReminderController struct {
	controller.BaseController
	engine service.ReminderEngineInterface
}

func NewReminderController(engine service.ReminderEngineInterface) *ReminderController {
	return &ReminderController{
		BaseController: controller.NewBaseController(),
		engine:         engine,
	}
}

func (c *ReminderController) getUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
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

// GetMyReminders handles GET /reminders
// @Summary List own reminders
// @Description Returns the caller's persisted reminder records
// @Tags Reminder
// @Security BearerAuth
// @Produce json
// @Success 200 {array} dto.ReminderResponse
// @Failure 401 {object} errors.AppError
// @Router /private/reminders [get]
func (c *ReminderController) GetMyReminders(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	reminders, appErr := c.engine.GetByUser(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.AppErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, dto.ToReminderResponses(reminders), "Success")
}

// GetEventReminders handles GET /reminders/event/:eventId
// @Summary List reminders for an event
// @Description Returns the persisted reminder records for one event
// @Tags Reminder
// @Security BearerAuth
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 200 {array} dto.ReminderResponse
// @Failure 400 {object} errors.AppError
// @Router /private/reminders/event/{eventId} [get]
func (c *ReminderController) GetEventReminders(ctx echo.Context) error {
	eventID, err := uuid.Parse(ctx.Param("eventId"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	reminders, appErr := c.engine.GetByEvent(ctx.Request().Context(), eventID)
	if appErr != nil {
		return c.AppErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, dto.ToReminderResponses(reminders), "Success")
}
