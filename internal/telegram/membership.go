package telegram

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MembershipChecker asks the Bot API for a user's status in a chat
type MembershipChecker struct {
	bot *tgbotapi.BotAPI
}

// NewBotAPI builds a Bot API client without calling getMe, so startup does
// not depend on the Bot API being reachable. endpoint may be empty.
func NewBotAPI(token, endpoint string, timeout time.Duration) *tgbotapi.BotAPI {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot := &tgbotapi.BotAPI{
		Token:  token,
		Client: &http.Client{Timeout: timeout},
		Buffer: 100,
	}
	bot.SetAPIEndpoint(endpoint)
	return bot
}

func NewMembershipChecker(token, endpoint string, timeout time.Duration) *MembershipChecker {
	return &MembershipChecker{bot: NewBotAPI(token, endpoint, timeout)}
}

type memberResult struct {
	status string
	err    error
}

// ChatMemberStatus returns the member status ("member", "left", ...).
// channel is either "@username" or a numeric chat id.
func (c *MembershipChecker) ChatMemberStatus(ctx context.Context, channel string, telegramID int64) (string, error) {
	cfg := tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{UserID: telegramID},
	}
	if id, err := strconv.ParseInt(channel, 10, 64); err == nil {
		cfg.ChatID = id
	} else {
		cfg.SuperGroupUsername = channel
	}

	done := make(chan memberResult, 1)
	go func() {
		member, err := c.bot.GetChatMember(cfg)
		done <- memberResult{status: member.Status, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			var apiErr *tgbotapi.Error
			if errors.As(res.err, &apiErr) && strings.Contains(strings.ToLower(apiErr.Message), "user not found") {
				return "left", nil
			}
			return "", res.err
		}
		return res.status, nil
	}
}
