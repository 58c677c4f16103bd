package webapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/amirasaad/exchange/internal/fixtures"
	"github.com/amirasaad/exchange/pkg/currency"
	"github.com/amirasaad/exchange/pkg/domain/ledger"
	"github.com/amirasaad/exchange/pkg/domain/limits"
	"github.com/amirasaad/exchange/pkg/domain/member"
	"github.com/amirasaad/exchange/pkg/eventbus"
	"github.com/amirasaad/exchange/pkg/repository"
	ledgersvc "github.com/amirasaad/exchange/pkg/service/ledger"
	limitsvc "github.com/amirasaad/exchange/pkg/service/limits"
	withdrawalsvc "github.com/amirasaad/exchange/pkg/service/withdrawal"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*fiber.App, *fixtures.MemoryUoW, member.Member) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	uow := fixtures.NewMemoryUoW()

	m := member.Member{ID: uuid.New(), UID: "ID001", KYCLevel: "2", Group: "vip"}
	uow.SeedMember(m)
	uow.SeedCurrency(currency.Currency{
		Code: "btc", Kind: currency.KindCoin,
		Price:             decimal.NewFromInt(10000),
		MinWithdrawAmount: decimal.NewFromFloat(0.01),
	})
	uow.SeedLimit(limits.Limit{
		ID: 1, KYCLevel: limits.Any, Group: limits.Any, CurrencyID: currency.Any,
		Limit24H:    decimal.NewFromInt(1_000_000),
		Limit1Month: decimal.NewFromInt(10_000_000),
	})

	svc, err := withdrawalsvc.NewService(withdrawalsvc.Deps{
		UoW:      uow,
		Engine:   ledgersvc.NewEngine(logger),
		Resolver: limitsvc.NewResolver(logger),
		Bus:      eventbus.NewSimpleEventBus(logger),
		Logger:   logger,
	})
	require.NoError(t, err)

	app := NewApp(Deps{Withdrawals: svc, UoW: uow, Logger: logger})
	return app, uow, m
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) (*Response, int) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(fiber.MethodPost, path, bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var out Response
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = json.Unmarshal(raw, &out)
	return &out, resp.StatusCode
}

func TestWithdrawHandler_CreateAndGet(t *testing.T) {
	app, _, m := newTestApp(t)

	body, status := postJSON(t, app, "/api/v2/withdraws", fiber.Map{
		"member_id": m.ID,
		"currency":  "btc",
		"rid":       "bc1qexample",
		"amount":    "0.5",
		"fee":       "0.0005",
	})
	require.Equal(t, fiber.StatusCreated, status)

	data, err := json.Marshal(body.Data)
	require.NoError(t, err)
	var created WithdrawResponse
	require.NoError(t, json.Unmarshal(data, &created))
	assert.Equal(t, "prepared", created.State)
	assert.Equal(t, "crypto", created.TransferType)

	req := httptest.NewRequest(fiber.MethodGet, "/api/v2/withdraws/"+created.ID.String(), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestWithdrawHandler_CreateValidation(t *testing.T) {
	app, _, m := newTestApp(t)

	// Uppercase currency codes are rejected before they reach the catalog.
	_, status := postJSON(t, app, "/api/v2/withdraws", fiber.Map{
		"member_id": m.ID,
		"currency":  "BTC",
		"rid":       "bc1qexample",
		"amount":    "0.5",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	// Unknown currency is a 404 from the catalog lookup.
	_, status = postJSON(t, app, "/api/v2/withdraws", fiber.Map{
		"member_id": m.ID,
		"currency":  "doge",
		"rid":       "bc1qexample",
		"amount":    "0.5",
	})
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestWithdrawHandler_Actions(t *testing.T) {
	app, uow, m := newTestApp(t)
	uow.SeedBalance(repository.AccountQuery{
		MemberID: &m.ID,
		Currency: "btc",
		Scope:    ledger.ScopeLiability,
		Kind:     ledger.KindMain,
	}, decimal.NewFromInt(10))

	body, status := postJSON(t, app, "/api/v2/withdraws", fiber.Map{
		"member_id": m.ID,
		"currency":  "btc",
		"rid":       "bc1qexample",
		"amount":    "0.5",
	})
	require.Equal(t, fiber.StatusCreated, status)
	data, _ := json.Marshal(body.Data)
	var created WithdrawResponse
	require.NoError(t, json.Unmarshal(data, &created))

	actions := fmt.Sprintf("/api/v2/withdraws/%s/actions", created.ID)

	_, status = postJSON(t, app, actions, fiber.Map{"action": "accept"})
	assert.Equal(t, fiber.StatusOK, status)

	// A replayed accept conflicts with the already-accepted state.
	_, status = postJSON(t, app, actions, fiber.Map{"action": "accept"})
	assert.Equal(t, fiber.StatusConflict, status)

	// Unknown action names never reach the state machine.
	_, status = postJSON(t, app, actions, fiber.Map{"action": "explode"})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestLimitHandler_CRUD(t *testing.T) {
	app, _, _ := newTestApp(t)

	body, status := postJSON(t, app, "/api/v2/admin/withdraw_limits", fiber.Map{
		"currency_id":   "btc",
		"group":         "vip",
		"kyc_level":     "2",
		"limit_24_hour": "10000",
		"limit_1_month": "100000",
	})
	require.Equal(t, fiber.StatusCreated, status)
	data, _ := json.Marshal(body.Data)
	var created WithdrawLimitResponse
	require.NoError(t, json.Unmarshal(data, &created))
	assert.Equal(t, "vip", created.Group)

	// The same triple again is a conflict.
	_, status = postJSON(t, app, "/api/v2/admin/withdraw_limits", fiber.Map{
		"currency_id":   "btc",
		"group":         "vip",
		"kyc_level":     "2",
		"limit_24_hour": "1",
		"limit_1_month": "1",
	})
	assert.Equal(t, fiber.StatusConflict, status)

	// Currencies outside the catalog are rejected, wildcard is allowed.
	_, status = postJSON(t, app, "/api/v2/admin/withdraw_limits", fiber.Map{
		"currency_id":   "doge",
		"group":         "any",
		"kyc_level":     "any",
		"limit_24_hour": "1",
		"limit_1_month": "1",
	})
	assert.Equal(t, fiber.StatusNotFound, status)

	_, status = postJSON(t, app, "/api/v2/admin/withdraw_limits", fiber.Map{
		"currency_id":   "any",
		"group":         "any",
		"kyc_level":     "any",
		"limit_24_hour": "1",
		"limit_1_month": "1",
	})
	assert.Equal(t, fiber.StatusCreated, status)
}
