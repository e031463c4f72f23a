package bot

import (
	"fmt"
	"html"
	"log/slog"
	"sync"
	"time"

	"referral_ledger/internal/logger"
	"referral_ledger/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// AdminNotifier messages admins about new withdrawal requests through the Bot API
type AdminNotifier struct {
	bot      *tgbotapi.BotAPI
	adminIDs []int64
	wg       sync.WaitGroup
	log      *slog.Logger
}

var _ service.WithdrawalNotifier = (*AdminNotifier)(nil)

// NewAdminNotifier creates a notifier sending through bot
func NewAdminNotifier(bot *tgbotapi.BotAPI, adminIDs []int64) *AdminNotifier {
	return &AdminNotifier{
		bot:      bot,
		adminIDs: adminIDs,
		log:      logger.With("component", "admin_notifier"),
	}
}

// WithdrawalRequested sends the notice in the background; delivery failures are logged
func (n *AdminNotifier) WithdrawalRequested(w service.WithdrawalNotice) {
	text := withdrawalMessage(w)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		for _, adminID := range n.adminIDs {
			msg := tgbotapi.NewMessage(adminID, text)
			msg.ParseMode = tgbotapi.ModeHTML
			if _, err := n.bot.Send(msg); err != nil {
				n.log.Error("failed to notify admin", "admin_id", adminID, "transaction_id", w.TransactionID, "error", err)
			}
		}
	}()
}

// Close waits for in-flight notifications, giving up after timeout
func (n *AdminNotifier) Close(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		n.log.Warn("admin notifier shutdown timeout, some notifications may be lost")
	}
}

func withdrawalMessage(w service.WithdrawalNotice) string {
	user := fmt.Sprintf("TG %d", w.TelegramID)
	if w.Username != "" {
		user = fmt.Sprintf("@%s (TG %d)", html.EscapeString(w.Username), w.TelegramID)
	}

	return fmt.Sprintf(`🔔 <b>New withdrawal request</b>

👤 User: %s
💰 Amount: %s
💳 Card: <code>%s</code>

ID: #%d`,
		user, w.Amount.StringFixed(2), html.EscapeString(w.Destination), w.TransactionID)
}
