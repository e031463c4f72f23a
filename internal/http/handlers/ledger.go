package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"referral_ledger/internal/domain"
	"referral_ledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type userRequest struct {
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username"`
}

type depositRequest struct {
	TelegramID int64           `json:"telegram_id"`
	Amount     decimal.Decimal `json:"amount"`
}

type withdrawalRequest struct {
	TelegramID int64           `json:"telegram_id"`
	Amount     decimal.Decimal `json:"amount"`
	Card       string          `json:"card"`
}

type registerRequest struct {
	TelegramID   int64  `json:"telegram_id"`
	Username     string `json:"username"`
	ReferralCode string `json:"referral_code"`
}

// bindBody decodes a JSON body. An empty body decodes as {} so missing
// fields are reported by the ledger's own validation.
func bindBody(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return domain.NewValidationError("Invalid JSON body")
}

func reqCtx(c *gin.Context) context.Context {
	return c.Request.Context()
}

// GetUser returns the caller's snapshot, creating the account on first call
func (h *Handler) GetUser(c *gin.Context) {
	var req userRequest
	if err := bindBody(c, &req); err != nil {
		writeError(c, err)
		return
	}
	if !checkCaller(c, req.TelegramID) {
		return
	}

	snap, err := h.Ledger.GetOrCreateUser(reqCtx(c), req.TelegramID, req.Username)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) ClaimChatBonus(c *gin.Context) {
	var req userRequest
	if err := bindBody(c, &req); err != nil {
		writeError(c, err)
		return
	}
	if !checkCaller(c, req.TelegramID) {
		return
	}

	balance, err := h.Ledger.ClaimChatBonus(reqCtx(c), req.TelegramID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "new_balance": balance})
}

func (h *Handler) CreateDeposit(c *gin.Context) {
	var req depositRequest
	if err := bindBody(c, &req); err != nil {
		writeError(c, err)
		return
	}
	if !checkCaller(c, req.TelegramID) {
		return
	}

	res, err := h.Ledger.CreateDeposit(reqCtx(c), req.TelegramID, req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        "Deposit created",
		"deposit":        res.Deposit,
		"balance":        res.Balance,
		"total_invested": res.TotalInvested,
	})
}

func (h *Handler) CreateWithdrawal(c *gin.Context) {
	var req withdrawalRequest
	if err := bindBody(c, &req); err != nil {
		writeError(c, err)
		return
	}
	if !checkCaller(c, req.TelegramID) {
		return
	}

	res, err := h.Ledger.CreateWithdrawal(reqCtx(c), req.TelegramID, req.Amount, req.Card)
	if err != nil {
		writeError(c, err)
		return
	}

	tx := res.Transaction.View()
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Withdrawal request created",
		"transaction": tx,
		"card":        service.MaskDestination(req.Card),
		"balance":     res.Balance,
		"available":   res.Available,
	})
}

func (h *Handler) CheckReferral(c *gin.Context) {
	res, err := h.Ledger.CheckReferralCode(reqCtx(c), c.Query("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) RegisterWithReferral(c *gin.Context) {
	var req registerRequest
	if err := bindBody(c, &req); err != nil {
		writeError(c, err)
		return
	}
	if !checkCaller(c, req.TelegramID) {
		return
	}

	res, err := h.Ledger.RegisterWithReferral(reqCtx(c), req.TelegramID, req.Username, req.ReferralCode)
	if err != nil {
		writeError(c, err)
		return
	}

	msg := "Registered"
	if res.Referrer != nil {
		msg = "Registered with referral"
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       msg,
		"referral_code": res.User.ReferralCode,
	})
}
