package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vsinha/brewerp/pkg/application/dto"
	svctest "github.com/vsinha/brewerp/pkg/application/services/testing"
	scenario "github.com/vsinha/brewerp/pkg/infrastructure/testing"
)

type apiFixture struct {
	h       *svctest.Harness
	handler http.Handler
}

func newFixture(t *testing.T) *apiFixture {
	t.Helper()
	h, err := svctest.NewHarness(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return &apiFixture{h: h, handler: NewServer(h.App, zap.NewNop()).Handler()}
}

func (f *apiFixture) token(t *testing.T, email string) string {
	t.Helper()
	res, err := f.h.Auth.Login(context.Background(), dto.LoginInput{Email: email, Password: scenario.Password})
	require.NoError(t, err)
	return res.Token
}

func (f *apiFixture) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRoutingErrors(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/items", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	rec = f.do(t, http.MethodGet, "/api/v1/items", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeBody[errorBody](t, rec).Error, "/nowhere")
}

func TestLoginAndListItems(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/auth/login", "",
		`{"email":"viewer@hopworks.test","password":"brew-secret-1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decodeBody[dto.LoginResult](t, rec)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, "2024-03-02T09:00:00Z", login.ExpiresAt)

	rec = f.do(t, http.MethodPost, "/api/v1/auth/login", "",
		`{"email":"viewer@hopworks.test","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/items?category=packaging", login.Token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	items := decodeBody[struct {
		Data []struct {
			SKU string `json:"sku"`
		} `json:"data"`
	}](t, rec)
	require.Len(t, items.Data, 1)
	assert.Equal(t, scenario.SKUBottle, items.Data[0].SKU)

	rec = f.do(t, http.MethodGet, "/api/v1/auth/me", login.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), scenario.ViewerEmail)

	rec = f.do(t, http.MethodPost, "/api/v1/auth/logout", login.Token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/v1/auth/me", login.Token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestBodies(t *testing.T) {
	f := newFixture(t)
	admin := f.token(t, scenario.AdminEmail)

	rec := f.do(t, http.MethodPost, "/api/v1/suppliers", admin, `{"code":"GLASS","name":"Glassworks","colour":"green"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeBody[errorBody](t, rec).Fields["body"], "colour")

	rec = f.do(t, http.MethodPost, "/api/v1/suppliers", admin, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/items", admin,
		`{"sku":"YEAST-W34","name":"Lager yeast","category":"liquid","base_uom":"G"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody[errorBody](t, rec)
	assert.Contains(t, body.Fields, "category")

	rec = f.do(t, http.MethodPost, "/api/v1/suppliers", admin, `{"code":"GLASS","name":"Glassworks","lead_time_days":10}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[struct {
		ID string `json:"id"`
	}](t, rec)

	rec = f.do(t, http.MethodDelete, "/api/v1/suppliers/"+created.ID, admin, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/v1/suppliers/"+created.ID, admin, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScopingAndPermissions(t *testing.T) {
	f := newFixture(t)
	staff := f.token(t, scenario.StaffEmail)

	rec := f.do(t, http.MethodGet, "/api/v1/branches/"+f.h.Branch(scenario.BranchHamburg), staff, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/suppliers", staff, `{"code":"GLASS","name":"Glassworks"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/reports/valuation", staff, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStockMovements(t *testing.T) {
	f := newFixture(t)
	staff := f.token(t, scenario.StaffEmail)
	ber := f.h.Branch(scenario.BranchBerlin)
	malt := f.h.Item(scenario.SKUMalt)

	move := func(qty string) *httptest.ResponseRecorder {
		body := `{"branch_id":"` + ber + `","item_id":"` + malt + `","type":"issue","quantity":"` + qty + `"}`
		return f.do(t, http.MethodPost, "/api/v1/stock/movements", staff, body)
	}

	rec := move("10000")
	assert.Equal(t, http.StatusConflict, rec.Code, "insufficient stock")

	rec = move("100")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decodeBody[dto.MovementResult](t, rec)
	assert.True(t, decimal.NewFromInt(400).Equal(res.Balance.Quantity), res.Balance.Quantity.String())

	rec = f.do(t, http.MethodGet, "/api/v1/stock/movements?type=issue&branch="+ber, staff, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	movements := decodeBody[struct {
		Data []json.RawMessage `json:"data"`
	}](t, rec)
	assert.Len(t, movements.Data, 1)

	rec = f.do(t, http.MethodGet, "/api/v1/stock/movements?type=spill", staff, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeBody[errorBody](t, rec).Fields, "type")

	rec = f.do(t, http.MethodGet, "/api/v1/stock/items/"+malt+"/card?branch="+ber, staff, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	card := decodeBody[dto.StockCard](t, rec)
	assert.Len(t, card.Entries, 2)
	assert.True(t, decimal.NewFromInt(400).Equal(card.Quantity))
}

func TestReports(t *testing.T) {
	f := newFixture(t)
	viewer := f.token(t, scenario.ViewerEmail)

	rec := f.do(t, http.MethodGet, "/api/v1/reports/valuation", viewer, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	valuation := decodeBody[dto.ValuationReport](t, rec)
	assert.True(t, decimal.NewFromInt(906).Equal(valuation.TotalValue), valuation.TotalValue.String())

	rec = f.do(t, http.MethodGet, "/api/v1/reports/slow-moving?days=soon&from=yesterday", viewer, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody[errorBody](t, rec)
	assert.Contains(t, body.Fields, "days")
	assert.Contains(t, body.Fields, "from")

	rec = f.do(t, http.MethodGet, "/api/v1/reports/dashboard", viewer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decodeBody[dto.Dashboard](t, rec)
	assert.Equal(t, 1, dash.OpenAlerts)

	rec = f.do(t, http.MethodGet, "/api/v1/alerts?status=open", viewer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, strings.Count(rec.Body.String(), `"status":"open"`))
}
