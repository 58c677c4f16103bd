package webapi

import (
	"errors"

	"github.com/amirasaad/exchange/pkg/currency"
	"github.com/amirasaad/exchange/pkg/domain/limits"
	"github.com/amirasaad/exchange/pkg/domain/member"
	"github.com/amirasaad/exchange/pkg/domain/withdrawal"
	"github.com/gofiber/fiber/v2"
)

// Response is the standard success envelope.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	Errors   any    `json:"errors,omitempty"`
}

// SuccessResponseJSON writes the success envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{Status: status, Message: message, Data: data})
}

// ErrorResponseJSON writes an RFC 9457 problem document.
func ErrorResponseJSON(c *fiber.Ctx, status int, title string, detail any) error {
	pd := ProblemDetails{
		Type:   "about:blank",
		Title:  title,
		Status: status,
	}
	if detail != nil {
		if s, ok := detail.(string); ok {
			pd.Detail = s
		} else {
			pd.Errors = detail
		}
	}
	pd.Instance = c.OriginalURL()
	c.Set(fiber.HeaderContentType, "application/problem+json")
	return c.Status(status).JSON(pd)
}

// ErrorToStatusCode maps domain errors to HTTP status codes.
func ErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, withdrawal.ErrNotFound),
		errors.Is(err, member.ErrNotFound),
		errors.Is(err, member.ErrBeneficiaryNotFound),
		errors.Is(err, currency.ErrNotFound),
		errors.Is(err, limits.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, withdrawal.ErrInvalidTransition),
		errors.Is(err, withdrawal.ErrGuardRejected),
		errors.Is(err, withdrawal.ErrTxIDTaken),
		errors.Is(err, limits.ErrDuplicate):
		return fiber.StatusConflict
	case errors.Is(err, limits.ErrLimit24HExceeded),
		errors.Is(err, limits.ErrLimit1MonthExceeded),
		errors.Is(err, withdrawal.ErrMissingRID),
		errors.Is(err, withdrawal.ErrAmountNotPositive),
		errors.Is(err, withdrawal.ErrNegativeFee),
		errors.Is(err, withdrawal.ErrBeneficiaryInactive),
		errors.Is(err, withdrawal.ErrBelowMinimum),
		errors.Is(err, withdrawal.ErrInvalidBlockNumber),
		errors.Is(err, currency.ErrInvalidCode):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}
