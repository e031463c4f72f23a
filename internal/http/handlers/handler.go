package handlers

import (
	"net/http"

	"referral_ledger/internal/domain"
	"referral_ledger/internal/http/middleware"
	"referral_ledger/internal/service"

	"github.com/gin-gonic/gin"
)

type actionRoute struct {
	method string
	handle gin.HandlerFunc
}

// Handler serves the ledger actions behind a single ?action= endpoint
type Handler struct {
	Ledger  *service.LedgerService
	actions map[string]actionRoute
}

func NewHandler(ledger *service.LedgerService) *Handler {
	h := &Handler{Ledger: ledger}
	h.actions = map[string]actionRoute{
		"get_user":               {http.MethodPost, h.GetUser},
		"claim_chat_bonus":       {http.MethodPost, h.ClaimChatBonus},
		"create_deposit":         {http.MethodPost, h.CreateDeposit},
		"create_withdrawal":      {http.MethodPost, h.CreateWithdrawal},
		"check_referral":         {http.MethodGet, h.CheckReferral},
		"register_with_referral": {http.MethodPost, h.RegisterWithReferral},
	}
	return h
}

// Dispatch routes by the action query parameter and HTTP method
func (h *Handler) Dispatch(c *gin.Context) {
	route, ok := h.actions[c.Query("action")]
	if !ok || route.method != c.Request.Method {
		NotFound(c)
		return
	}
	route.handle(c)
}

// NotFound writes the envelope used for every unrouted request
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
}

// checkCaller rejects requests whose verified init data names another user.
// Without the init-data middleware there is nothing to compare.
func checkCaller(c *gin.Context, telegramID int64) bool {
	signed, ok := middleware.InitDataTelegramID(c)
	if !ok || signed == telegramID {
		return true
	}
	writeError(c, domain.ErrForbidden)
	return false
}
