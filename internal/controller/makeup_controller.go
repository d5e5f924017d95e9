package controller

import (
	"time"

	"tutorium-be/internal/dto"
	"tutorium-be/internal/pkg/serverutils"
	"tutorium-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IMakeupController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Countdown(ctx *fiber.Ctx) error
	Slots(ctx *fiber.Ctx) error
	Schedule(ctx *fiber.Ctx) error
	Extend(ctx *fiber.Ctx) error
}

type makeupController struct {
	makeupService service.IMakeupService
}

func NewMakeupController(makeupService service.IMakeupService) IMakeupController {
	return &makeupController{
		makeupService: makeupService,
	}
}

func (c *makeupController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/makeups")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.List)
	h.Get(":id/countdown", c.Countdown)
	h.Get(":id/slots", c.Slots)
	h.Post(":id/schedule", c.Schedule)
	h.Post(":id/extend", serverutils.RequireAdmin, c.Extend)
}

func (c *makeupController) List(ctx *fiber.Ctx) error {
	studentIdStr, _ := ctx.Locals("user_id").(string)
	studentId, _ := uuid.Parse(studentIdStr)

	if role, _ := ctx.Locals("role").(string); role == "admin" {
		if qs := ctx.Query("student_id"); qs != "" {
			if id, err := uuid.Parse(qs); err == nil {
				studentId = id
			}
		}
	}

	res, err := c.makeupService.ListCredits(ctx.Context(), studentId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list makeup credits", res))
}

func (c *makeupController) Countdown(ctx *fiber.Ctx) error {
	creditId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid credit id")
	}

	res, err := c.makeupService.GetCountdown(ctx.Context(), creditId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show countdown", res))
}

func (c *makeupController) Slots(ctx *fiber.Ctx) error {
	creditId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid credit id")
	}

	horizonDays := ctx.QueryInt("horizon_days", 30)
	if horizonDays < 1 || horizonDays > 90 {
		return fiber.NewError(fiber.StatusBadRequest, "horizon_days must be between 1 and 90")
	}

	res, err := c.makeupService.FindAvailableSlots(ctx.Context(), creditId, time.Duration(horizonDays)*24*time.Hour)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list available slots", res))
}

func (c *makeupController) Schedule(ctx *fiber.Ctx) error {
	actorIdStr, _ := ctx.Locals("user_id").(string)
	actorId, _ := uuid.Parse(actorIdStr)
	role, _ := ctx.Locals("role").(string)

	creditId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid credit id")
	}

	var req dto.ScheduleMakeupRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.makeupService.ScheduleMakeup(ctx.Context(), creditId, &req, actorId, role)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Makeup lesson booked", res))
}

func (c *makeupController) Extend(ctx *fiber.Ctx) error {
	actorIdStr, _ := ctx.Locals("user_id").(string)
	actorId, _ := uuid.Parse(actorIdStr)
	role, _ := ctx.Locals("role").(string)

	creditId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid credit id")
	}

	var req dto.ExtendDeadlineRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.makeupService.ExtendDeadline(ctx.Context(), creditId, &req, actorId, role)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Makeup deadline extended", res))
}
