package http

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"referral_ledger/internal/http/middleware"
	"referral_ledger/internal/service"
	"referral_ledger/internal/service/servicetest"
	"referral_ledger/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type testServer struct {
	router *gin.Engine
	store  *servicetest.MemStore
}

func newTestServer(t *testing.T, mutate func(*Deps)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := servicetest.NewMemStore()
	deps := Deps{
		Ledger:     service.NewLedgerService(store, nil, service.DefaultConfig()),
		DB:         fakePinger{},
		Version:    "test",
		RateLimit:  1000,
		RateWindow: time.Minute,
	}
	if mutate != nil {
		mutate(&deps)
	}

	r := gin.New()
	RegisterRoutes(r, deps)
	return &testServer{router: r, store: store}
}

func (s *testServer) do(t *testing.T, method, target, body string, headers ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func TestAPI_GetUser(t *testing.T) {
	s := newTestServer(t, nil)

	w, body := s.do(t, nethttp.MethodPost, "/api?action=get_user", `{"telegram_id":100,"username":"alice"}`)
	require.Equal(t, nethttp.StatusOK, w.Code)
	assert.Equal(t, float64(100), body["telegram_id"])
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, float64(0), body["balance"])
	assert.Equal(t, false, body["chat_bonus_claimed"])
	assert.Regexp(t, `^[A-Z0-9]{8}$`, body["referral_code"])
	assert.Contains(t, body, "referrals")
	assert.Contains(t, body, "transactions")

	w, again := s.do(t, nethttp.MethodPost, "/?action=get_user", `{"telegram_id":100}`)
	require.Equal(t, nethttp.StatusOK, w.Code)
	assert.Equal(t, body["id"], again["id"])
}

func TestAPI_GetUser_MissingTelegramID(t *testing.T) {
	s := newTestServer(t, nil)

	w, body := s.do(t, nethttp.MethodPost, "/api?action=get_user", ``)
	assert.Equal(t, nethttp.StatusBadRequest, w.Code)
	assert.Equal(t, "telegram_id required", body["error"])
}

func TestAPI_BadJSON(t *testing.T) {
	s := newTestServer(t, nil)

	w, body := s.do(t, nethttp.MethodPost, "/api?action=get_user", `{"telegram_id":`)
	assert.Equal(t, nethttp.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid JSON body", body["error"])
}

func TestAPI_UnknownActionOrMethod(t *testing.T) {
	s := newTestServer(t, nil)

	cases := []struct{ method, target string }{
		{nethttp.MethodPost, "/api?action=nope"},
		{nethttp.MethodGet, "/api?action=get_user"},
		{nethttp.MethodPost, "/api?action=check_referral"},
		{nethttp.MethodPut, "/api?action=create_deposit"},
		{nethttp.MethodGet, "/api"},
		{nethttp.MethodGet, "/elsewhere"},
	}
	for _, tc := range cases {
		w, body := s.do(t, tc.method, tc.target, `{}`)
		assert.Equal(t, nethttp.StatusNotFound, w.Code, "%s %s", tc.method, tc.target)
		assert.Equal(t, "Endpoint not found", body["error"])
	}
}

func TestAPI_Preflight(t *testing.T) {
	s := newTestServer(t, nil)

	w, body := s.do(t, nethttp.MethodOptions, "/api?action=get_user", ``)
	assert.Equal(t, nethttp.StatusOK, w.Code)
	assert.Nil(t, body)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPI_ClaimChatBonus(t *testing.T) {
	s := newTestServer(t, nil)

	w, body := s.do(t, nethttp.MethodPost, "/api?action=claim_chat_bonus", `{"telegram_id":5}`)
	assert.Equal(t, nethttp.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", body["error"])

	s.do(t, nethttp.MethodPost, "/api?action=get_user", `{"telegram_id":5}`)

	w, body = s.do(t, nethttp.MethodPost, "/api?action=claim_chat_bonus", `{"telegram_id":5}`)
	require.Equal(t, nethttp.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(100), body["new_balance"])

	w, body = s.do(t, nethttp.MethodPost, "/api?action=claim_chat_bonus", `{"telegram_id":5}`)
	assert.Equal(t, nethttp.StatusBadRequest, w.Code)
	assert.Equal(t, "Bonus already claimed", body["error"])
}

func TestAPI_DepositAndWithdrawal(t *testing.T) {
	s := newTestServer(t, nil)

	s.do(t, nethttp.MethodPost, "/api?action=get_user", `{"telegram_id":7}`)

	w, _ := s.do(t, nethttp.MethodPost, "/api?action=create_deposit", `{"telegram_id":7,"amount":0}`)
	assert.Equal(t, nethttp.StatusBadRequest, w.Code)

	w, body := s.do(t, nethttp.MethodPost, "/api?action=create_deposit", `{"telegram_id":7,"amount":500}`)
	require.Equal(t, nethttp.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(500), body["total_invested"])

	s.do(t, nethttp.MethodPost, "/api?action=claim_chat_bonus", `{"telegram_id":7}`)

	w, body = s.do(t, nethttp.MethodPost, "/api?action=create_withdrawal", `{"telegram_id":7,"amount":50,"card":"4111111111111111"}`)
	assert.Equal(t, nethttp.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid data (min 100)", body["error"])

	w, body = s.do(t, nethttp.MethodPost, "/api?action=create_withdrawal", `{"telegram_id":7,"amount":550,"card":"4111111111111111"}`)
	assert.Equal(t, nethttp.StatusBadRequest, w.Code)
	assert.Equal(t, "Insufficient balance", body["error"])

	w, body = s.do(t, nethttp.MethodPost, "/api?action=create_withdrawal", `{"telegram_id":7,"amount":100,"card":"4111111111111111"}`)
	require.Equal(t, nethttp.StatusOK, w.Code)
	assert.Equal(t, "************1111", body["card"])
	tx := body["transaction"].(map[string]any)
	assert.Equal(t, "pending", tx["status"])
	assert.Equal(t, "withdrawal", tx["type"])
	assert.Equal(t, float64(500), body["balance"])

	w, _ = s.do(t, nethttp.MethodPost, "/api?action=create_withdrawal", `{"telegram_id":404,"amount":100,"card":"x"}`)
	assert.Equal(t, nethttp.StatusNotFound, w.Code)
}

func TestAPI_Referrals(t *testing.T) {
	s := newTestServer(t, nil)

	_, owner := s.do(t, nethttp.MethodPost, "/api?action=get_user", `{"telegram_id":1,"username":"owner"}`)
	code := owner["referral_code"].(string)

	w, body := s.do(t, nethttp.MethodGet, "/api?action=check_referral&code="+strings.ToLower(code), ``)
	require.Equal(t, nethttp.StatusOK, w.Code)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, "owner", body["referrer"])
	assert.Equal(t, code, body["code"])

	w, body = s.do(t, nethttp.MethodGet, "/api?action=check_referral&code=UNKNOWN1", ``)
	require.Equal(t, nethttp.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"valid": false}, body)

	w, body = s.do(t, nethttp.MethodGet, "/api?action=check_referral", ``)
	assert.Equal(t, nethttp.StatusBadRequest, w.Code)
	assert.Equal(t, "Referral code required", body["error"])

	w, body = s.do(t, nethttp.MethodPost, "/api?action=register_with_referral",
		`{"telegram_id":2,"username":"friend","referral_code":"`+code+`"}`)
	require.Equal(t, nethttp.StatusOK, w.Code)
	assert.Equal(t, "Registered with referral", body["message"])

	w, body = s.do(t, nethttp.MethodPost, "/api?action=register_with_referral", `{"telegram_id":3}`)
	require.Equal(t, nethttp.StatusOK, w.Code)
	assert.Equal(t, "Registered", body["message"])

	w, body = s.do(t, nethttp.MethodPost, "/api?action=register_with_referral", `{"telegram_id":3}`)
	assert.Equal(t, nethttp.StatusBadRequest, w.Code)
	assert.Equal(t, "User already exists", body["error"])

	_, owner = s.do(t, nethttp.MethodPost, "/api?action=get_user", `{"telegram_id":1}`)
	refs := owner["referrals"].(map[string]any)
	assert.Equal(t, float64(1), refs["total"])
}

func TestAPI_InternalErrorSurfacesMessage(t *testing.T) {
	s := newTestServer(t, nil)
	s.store.Fail["users.GetByTelegramID"] = errors.New("connection refused")

	w, body := s.do(t, nethttp.MethodPost, "/api?action=get_user", `{"telegram_id":1}`)
	assert.Equal(t, nethttp.StatusInternalServerError, w.Code)
	assert.Contains(t, body["error"], "connection refused")
}

func initData(t *testing.T, token string, userID int64) string {
	t.Helper()
	vals := url.Values{}
	vals.Set("auth_date", strconv.FormatInt(time.Now().Unix(), 10))
	vals.Set("user", `{"id":`+strconv.FormatInt(userID, 10)+`}`)
	vals.Set("hash", hex.EncodeToString(telegram.Sign(vals, token)))
	return vals.Encode()
}

func TestAPI_InitDataGuard(t *testing.T) {
	s := newTestServer(t, func(d *Deps) {
		d.RequireInitData = true
		d.BotToken = "bot-token"
	})

	w, _ := s.do(t, nethttp.MethodPost, "/api?action=get_user", `{"telegram_id":9}`)
	assert.Equal(t, nethttp.StatusUnauthorized, w.Code)

	w, body := s.do(t, nethttp.MethodPost, "/api?action=get_user", `{"telegram_id":9}`,
		middleware.InitDataHeader, initData(t, "bot-token", 10))
	assert.Equal(t, nethttp.StatusForbidden, w.Code)
	assert.NotEmpty(t, body["error"])

	w, _ = s.do(t, nethttp.MethodPost, "/api?action=get_user", `{"telegram_id":9}`,
		middleware.InitDataHeader, initData(t, "bot-token", 9))
	assert.Equal(t, nethttp.StatusOK, w.Code)

	w, _ = s.do(t, nethttp.MethodGet, "/api?action=check_referral&code=ABC", ``)
	assert.Equal(t, nethttp.StatusOK, w.Code)
}

func TestAPI_RateLimited(t *testing.T) {
	s := newTestServer(t, func(d *Deps) { d.RateLimit = 1 })

	w, _ := s.do(t, nethttp.MethodGet, "/api?action=check_referral&code=ABC", ``)
	assert.Equal(t, nethttp.StatusOK, w.Code)
	w, _ = s.do(t, nethttp.MethodGet, "/api?action=check_referral&code=ABC", ``)
	assert.Equal(t, nethttp.StatusTooManyRequests, w.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	w, body := s.do(t, nethttp.MethodGet, "/health", ``)
	assert.Equal(t, nethttp.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	down := newTestServer(t, func(d *Deps) { d.DB = fakePinger{err: errors.New("down")} })
	w, body = down.do(t, nethttp.MethodGet, "/readyz", ``)
	assert.Equal(t, nethttp.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", body["status"])

	w, _ = s.do(t, nethttp.MethodGet, "/healthz", ``)
	assert.Equal(t, nethttp.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, nethttp.MethodPost, "/api?action=get_user", `{"telegram_id":1}`)

	req := httptest.NewRequest(nethttp.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, nethttp.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ledger_operations_total")
}
