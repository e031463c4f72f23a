package bot

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"referral_ledger/internal/service"
	"referral_ledger/internal/telegram"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestWithdrawalMessage(t *testing.T) {
	msg := withdrawalMessage(service.WithdrawalNotice{
		TransactionID: 77,
		TelegramID:    42,
		Username:      "bob<script>",
		Amount:        decimal.NewFromInt(150),
		Destination:   "4111111111111111",
	})

	assert.Contains(t, msg, "@bob&lt;script&gt; (TG 42)")
	assert.Contains(t, msg, "150.00")
	assert.Contains(t, msg, "<code>4111111111111111</code>")
	assert.Contains(t, msg, "#77")
}

func TestAdminNotifier_SendsToEveryAdmin(t *testing.T) {
	var (
		mu    sync.Mutex
		chats []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		mu.Lock()
		chats = append(chats, r.FormValue("chat_id"))
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"}}}`))
	}))
	defer srv.Close()

	n := NewAdminNotifier(telegram.NewBotAPI("token", srv.URL+"/bot%s/%s", time.Second), []int64{1, 2})
	n.WithdrawalRequested(service.WithdrawalNotice{TransactionID: 1, TelegramID: 9, Amount: decimal.NewFromInt(100), Destination: "x"})
	n.Close(2 * time.Second)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"1", "2"}, chats)
}
