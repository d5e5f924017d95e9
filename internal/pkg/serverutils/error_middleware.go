package serverutils

import (
	"errors"

	"tutorium-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps typed domain errors onto HTTP statuses and
// serializes their structured context, so controllers can just return the
// service error.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		var tooLate *service.TooLateToCancelError
		if errors.As(err, &tooLate) {
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponseWithContext(
				fiber.StatusUnprocessableEntity, err.Error(), fiber.Map{
					"hours_remaining": tooLate.HoursRemaining,
					"lesson_start":    tooLate.LessonStart,
				}))
		}

		var notEnrolled *service.NotEnrolledError
		if errors.As(err, &notEnrolled) {
			return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(fiber.StatusForbidden, err.Error()))
		}

		var duplicate *service.DuplicateRequestError
		if errors.As(err, &duplicate) {
			return ctx.Status(fiber.StatusConflict).JSON(ErrorResponseWithContext(
				fiber.StatusConflict, err.Error(), fiber.Map{
					"existing_request_id": duplicate.ExistingRequestId,
				}))
		}

		var reviewed *service.AlreadyReviewedError
		if errors.As(err, &reviewed) {
			return ctx.Status(fiber.StatusConflict).JSON(ErrorResponse(fiber.StatusConflict, err.Error()))
		}

		var quota *service.QuotaExceededError
		if errors.As(err, &quota) {
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponseWithContext(
				fiber.StatusUnprocessableEntity, err.Error(), fiber.Map{
					"used":  quota.Used,
					"limit": quota.Limit,
				}))
		}

		var expired *service.CreditExpiredError
		if errors.As(err, &expired) {
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponseWithContext(
				fiber.StatusUnprocessableEntity, err.Error(), fiber.Map{
					"expired_at": expired.ExpiredAt,
				}))
		}

		var scheduled *service.AlreadyScheduledError
		if errors.As(err, &scheduled) {
			return ctx.Status(fiber.StatusConflict).JSON(ErrorResponse(fiber.StatusConflict, err.Error()))
		}

		var full *service.SlotFullError
		if errors.As(err, &full) {
			// Retryable: the caller should re-query slots.
			return ctx.Status(fiber.StatusConflict).JSON(ErrorResponseWithContext(
				fiber.StatusConflict, err.Error(), fiber.Map{
					"retryable": true,
					"lesson_id": full.LessonId,
				}))
		}

		var unauthorized *service.NotAuthorizedError
		if errors.As(err, &unauthorized) {
			return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(fiber.StatusForbidden, err.Error()))
		}

		var notFound *service.NotFoundError
		if errors.As(err, &notFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(fiber.StatusNotFound, err.Error()))
		}

		var invalid *service.ValidationError
		if errors.As(err, &invalid) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(fiber.StatusBadRequest, err.Error()))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(
			ErrorResponse(fiber.StatusInternalServerError, "internal server error"))
	}
}
