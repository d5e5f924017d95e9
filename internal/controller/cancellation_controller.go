package controller

import (
	"time"

	"tutorium-be/internal/dto"
	"tutorium-be/internal/pkg/serverutils"
	"tutorium-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ICancellationController interface {
	RegisterRoutes(r fiber.Router)
	Request(ctx *fiber.Ctx) error
	Approve(ctx *fiber.Ctx) error
	Reject(ctx *fiber.Ctx) error
	Quota(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
}

type cancellationController struct {
	cancellationService service.ICancellationService
}

func NewCancellationController(cancellationService service.ICancellationService) ICancellationController {
	return &cancellationController{
		cancellationService: cancellationService,
	}
}

func (c *cancellationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/cancellations")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Request)
	h.Get("", serverutils.RequireAdmin, c.List)
	h.Get("quota", c.Quota)
	h.Post(":id/approve", serverutils.RequireAdmin, c.Approve)
	h.Post(":id/reject", serverutils.RequireAdmin, c.Reject)
}

func (c *cancellationController) Request(ctx *fiber.Ctx) error {
	studentIdStr, _ := ctx.Locals("user_id").(string)
	studentId, _ := uuid.Parse(studentIdStr)

	var req dto.RequestCancellationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.cancellationService.RequestCancellation(ctx.Context(), studentId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Cancellation request filed", res))
}

func (c *cancellationController) Approve(ctx *fiber.Ctx) error {
	reviewerIdStr, _ := ctx.Locals("user_id").(string)
	reviewerId, _ := uuid.Parse(reviewerIdStr)

	requestId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request id")
	}

	// Review notes are optional; an empty body is fine.
	var req dto.ReviewCancellationRequest
	_ = ctx.BodyParser(&req)

	res, err := c.cancellationService.ApproveRequest(ctx.Context(), requestId, reviewerId, req.Notes)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Cancellation request approved", res))
}

func (c *cancellationController) Reject(ctx *fiber.Ctx) error {
	reviewerIdStr, _ := ctx.Locals("user_id").(string)
	reviewerId, _ := uuid.Parse(reviewerIdStr)

	requestId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request id")
	}

	var req dto.RejectCancellationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.cancellationService.RejectRequest(ctx.Context(), requestId, reviewerId, req.Reason)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Cancellation request rejected", res))
}

func (c *cancellationController) Quota(ctx *fiber.Ctx) error {
	studentIdStr, _ := ctx.Locals("user_id").(string)
	studentId, _ := uuid.Parse(studentIdStr)

	// Admins may inspect another student's quota.
	if role, _ := ctx.Locals("role").(string); role == "admin" {
		if qs := ctx.Query("student_id"); qs != "" {
			if id, err := uuid.Parse(qs); err == nil {
				studentId = id
			}
		}
	}

	month := time.Now().UTC()
	if ms := ctx.Query("month"); ms != "" {
		parsed, err := time.Parse("2006-01", ms)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid month, expected YYYY-MM")
		}
		month = parsed
	}

	res, err := c.cancellationService.CheckMonthlyQuota(ctx.Context(), studentId, month)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show quota", res))
}

func (c *cancellationController) List(ctx *fiber.Ctx) error {
	status := ctx.Query("status")
	page := ctx.QueryInt("page", 1)
	limit := ctx.QueryInt("limit", 20)

	res, err := c.cancellationService.ListRequests(ctx.Context(), status, page, limit)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list cancellation requests", res))
}
