package webapi

import (
	"log/slog"

	"github.com/amirasaad/exchange/pkg/currency"
	"github.com/amirasaad/exchange/pkg/domain/withdrawal"
	withdrawalsvc "github.com/amirasaad/exchange/pkg/service/withdrawal"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// WithdrawRoutes mounts the withdrawal lifecycle endpoints.
func WithdrawRoutes(app *fiber.App, svc *withdrawalsvc.Service, logger *slog.Logger) {
	h := &withdrawHandler{svc: svc, validate: validator.New(), logger: logger}
	app.Post("/api/v2/withdraws", h.create)
	app.Get("/api/v2/withdraws/:id", h.get)
	app.Post("/api/v2/withdraws/:id/actions", h.action)
}

type withdrawHandler struct {
	svc      *withdrawalsvc.Service
	validate *validator.Validate
	logger   *slog.Logger
}

func (h *withdrawHandler) create(c *fiber.Ctx) error {
	var req CreateWithdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid Request", err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return ErrorResponseJSON(c, fiber.StatusBadRequest, "Validation Failed", err.Error())
	}
	if !currency.IsValidCodeFormat(req.Currency) {
		return ErrorResponseJSON(c, fiber.StatusUnprocessableEntity, "Validation Failed", currency.ErrInvalidCode.Error())
	}

	w, err := h.svc.Create(c.Context(), withdrawalsvc.CreateParams{
		MemberID:      req.MemberID,
		Currency:      currency.Code(req.Currency),
		BeneficiaryID: req.BeneficiaryID,
		RID:           req.RID,
		Amount:        req.Amount,
		Fee:           req.Fee,
		Note:          req.Note,
	})
	if err != nil {
		return ErrorResponseJSON(c, ErrorToStatusCode(err), "Withdrawal Rejected", err.Error())
	}
	return SuccessResponseJSON(c, fiber.StatusCreated, "Withdrawal created", toWithdrawResponse(w))
}

func (h *withdrawHandler) get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid Request", "malformed withdrawal id")
	}
	w, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return ErrorResponseJSON(c, ErrorToStatusCode(err), "Withdrawal Lookup Failed", err.Error())
	}
	return SuccessResponseJSON(c, fiber.StatusOK, "OK", toWithdrawResponse(w))
}

func (h *withdrawHandler) action(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid Request", "malformed withdrawal id")
	}
	var req WithdrawActionRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid Request", err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return ErrorResponseJSON(c, fiber.StatusBadRequest, "Validation Failed", err.Error())
	}

	w, err := h.svc.Apply(c.Context(), id, withdrawalsvc.Command{
		Event:        withdrawal.Event(req.Action),
		TxID:         req.TxID,
		BlockNumber:  req.BlockNumber,
		ErrorClass:   req.ErrorClass,
		ErrorMessage: req.ErrorMessage,
	})
	if err != nil {
		return ErrorResponseJSON(c, ErrorToStatusCode(err), "Event Rejected", err.Error())
	}
	return SuccessResponseJSON(c, fiber.StatusOK, "Event applied", toWithdrawResponse(w))
}
