package webapi

import (
	"log/slog"
	"strconv"

	"github.com/amirasaad/exchange/pkg/currency"
	"github.com/amirasaad/exchange/pkg/domain/limits"
	"github.com/amirasaad/exchange/pkg/repository"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// LimitRoutes mounts the withdraw-limit configuration surface. The core
// consumes these rows read-only through the resolver; this is the write
// path operators use.
func LimitRoutes(app *fiber.App, uow repository.UnitOfWork, logger *slog.Logger) {
	h := &limitHandler{uow: uow, validate: validator.New(), logger: logger}
	app.Get("/api/v2/admin/withdraw_limits", h.list)
	app.Get("/api/v2/admin/withdraw_limits/:id", h.get)
	app.Post("/api/v2/admin/withdraw_limits", h.create)
	app.Put("/api/v2/admin/withdraw_limits/:id", h.update)
	app.Delete("/api/v2/admin/withdraw_limits/:id", h.delete)
}

type limitHandler struct {
	uow      repository.UnitOfWork
	validate *validator.Validate
	logger   *slog.Logger
}

// checkCurrency enforces the inclusion rule: the currency dimension must
// either be the wildcard or name a catalog currency.
func (h *limitHandler) checkCurrency(c *fiber.Ctx, code string) error {
	if code == currency.Any.String() {
		return nil
	}
	if !currency.IsValidCodeFormat(code) {
		return currency.ErrInvalidCode
	}
	_, err := h.uow.Currencies().Get(c.Context(), currency.Code(code))
	return err
}

func (h *limitHandler) parseBody(c *fiber.Ctx) (*limits.Limit, error) {
	var req WithdrawLimitRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, err
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, err
	}
	return &limits.Limit{
		CurrencyID:  currency.Code(req.Currency),
		Group:       limits.NormalizeGroup(req.Group),
		KYCLevel:    req.KYCLevel,
		Limit24H:    req.Limit24H,
		Limit1Month: req.Limit1Month,
	}, nil
}

func (h *limitHandler) list(c *fiber.Ctx) error {
	rows, err := h.uow.Limits().List(c.Context())
	if err != nil {
		return ErrorResponseJSON(c, ErrorToStatusCode(err), "Limit Lookup Failed", err.Error())
	}
	out := make([]WithdrawLimitResponse, 0, len(rows))
	for _, l := range rows {
		out = append(out, toLimitResponse(l))
	}
	return SuccessResponseJSON(c, fiber.StatusOK, "OK", out)
}

func (h *limitHandler) get(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid Request", "malformed limit id")
	}
	l, err := h.uow.Limits().Get(c.Context(), id)
	if err != nil {
		return ErrorResponseJSON(c, ErrorToStatusCode(err), "Limit Lookup Failed", err.Error())
	}
	return SuccessResponseJSON(c, fiber.StatusOK, "OK", toLimitResponse(*l))
}

func (h *limitHandler) create(c *fiber.Ctx) error {
	l, err := h.parseBody(c)
	if err != nil {
		return ErrorResponseJSON(c, fiber.StatusBadRequest, "Validation Failed", err.Error())
	}
	if err := h.checkCurrency(c, l.CurrencyID.String()); err != nil {
		return ErrorResponseJSON(c, ErrorToStatusCode(err), "Validation Failed", err.Error())
	}
	if err := h.uow.Limits().Create(c.Context(), l); err != nil {
		return ErrorResponseJSON(c, ErrorToStatusCode(err), "Limit Creation Failed", err.Error())
	}
	h.logger.Info("withdraw limit created",
		"currency", l.CurrencyID, "group", l.Group, "kyc_level", l.KYCLevel)
	return SuccessResponseJSON(c, fiber.StatusCreated, "Limit created", toLimitResponse(*l))
}

func (h *limitHandler) update(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid Request", "malformed limit id")
	}
	l, err := h.parseBody(c)
	if err != nil {
		return ErrorResponseJSON(c, fiber.StatusBadRequest, "Validation Failed", err.Error())
	}
	if err := h.checkCurrency(c, l.CurrencyID.String()); err != nil {
		return ErrorResponseJSON(c, ErrorToStatusCode(err), "Validation Failed", err.Error())
	}
	if _, err := h.uow.Limits().Get(c.Context(), id); err != nil {
		return ErrorResponseJSON(c, ErrorToStatusCode(err), "Limit Lookup Failed", err.Error())
	}
	l.ID = id
	if err := h.uow.Limits().Update(c.Context(), l); err != nil {
		return ErrorResponseJSON(c, ErrorToStatusCode(err), "Limit Update Failed", err.Error())
	}
	return SuccessResponseJSON(c, fiber.StatusOK, "Limit updated", toLimitResponse(*l))
}

func (h *limitHandler) delete(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid Request", "malformed limit id")
	}
	if err := h.uow.Limits().Delete(c.Context(), id); err != nil {
		return ErrorResponseJSON(c, ErrorToStatusCode(err), "Limit Deletion Failed", err.Error())
	}
	return SuccessResponseJSON(c, fiber.StatusOK, "Limit deleted", nil)
}
