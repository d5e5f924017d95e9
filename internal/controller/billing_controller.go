package controller

import (
	"tutorium-be/internal/dto"
	"tutorium-be/internal/pkg/serverutils"
	"tutorium-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IBillingController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
	IssueCreditNote(ctx *fiber.Ctx) error
}

type billingController struct {
	billingService service.IBillingService
}

func NewBillingController(billingService service.IBillingService) IBillingController {
	return &billingController{
		billingService: billingService,
	}
}

func (c *billingController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/invoices")
	h.Use(serverutils.JwtMiddleware)
	h.Get(":id", c.Show)
	h.Post(":id/credit-note", serverutils.RequireAdmin, c.IssueCreditNote)
}

func (c *billingController) Show(ctx *fiber.Ctx) error {
	invoiceId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid invoice id")
	}

	res, err := c.billingService.GetInvoice(ctx.Context(), invoiceId)
	if err != nil {
		return err
	}

	// Students may only see their own invoices.
	role, _ := ctx.Locals("role").(string)
	userIdStr, _ := ctx.Locals("user_id").(string)
	if role != "admin" && res.StudentId.String() != userIdStr {
		return ctx.Status(fiber.StatusForbidden).JSON(serverutils.ErrorResponse(fiber.StatusForbidden, "Not your invoice"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show invoice", res))
}

func (c *billingController) IssueCreditNote(ctx *fiber.Ctx) error {
	actorIdStr, _ := ctx.Locals("user_id").(string)
	actorId, _ := uuid.Parse(actorIdStr)

	invoiceId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid invoice id")
	}

	var req dto.IssueCreditNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.billingService.IssueCreditNote(ctx.Context(), invoiceId, &req, actorId)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Credit note issued", res))
}
