// Package handler provides Telegram bot message and command handlers.
package handler

import (
	"context"
	"strings"

	tele "gopkg.in/telebot.v3"

	"telegram-duel-bot/internal/duel"
)

// duelKeyword begins a challenge message.
const duelKeyword = "决斗"

// confirmWords is the accepted confirmation vocabulary, matched
// case-insensitively against the trimmed message text.
var confirmWords = map[string]bool{
	"接受":  true,
	"确认":  true,
	"y":   true,
	"yes": true,
	"ok":  true,
}

// shotKeywords trigger a shot when contained anywhere in the message.
var shotKeywords = []string{"开枪", "开抢", "bang", "shoot"}

// IsChallengeText reports whether text starts a duel challenge.
func IsChallengeText(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), duelKeyword)
}

// IsConfirmText reports whether text is an accepted confirmation word.
func IsConfirmText(text string) bool {
	return confirmWords[strings.ToLower(strings.TrimSpace(text))]
}

// IsShotText reports whether text contains a shoot keyword.
func IsShotText(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range shotKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// DuelHandler routes chat messages into the duel session manager.
type DuelHandler struct {
	manager *duel.Manager
	botID   int64
}

// NewDuelHandler creates a DuelHandler. botID filters the bot's own
// mention out of challenge targets.
func NewDuelHandler(manager *duel.Manager, botID int64) *DuelHandler {
	return &DuelHandler{manager: manager, botID: botID}
}

// TryHandle consumes the message when it matches one of the duel trigger
// predicates; it reports whether the message was consumed so the caller
// can fall through to other text handlers.
func (h *DuelHandler) TryHandle(c tele.Context) (bool, error) {
	msg := c.Message()
	if msg == nil || c.Chat() == nil || c.Sender() == nil {
		return false, nil
	}

	ctx := context.Background()
	chatID := c.Chat().ID
	senderID := c.Sender().ID
	text := msg.Text

	if IsChallengeText(text) {
		targets := mentionedUsers(msg, h.botID)
		if len(targets) != 1 {
			return true, c.Reply("需要@你要决斗的对手！")
		}
		h.manager.Challenge(ctx, chatID, senderID, targets[0])
		return true, nil
	}

	// Confirmations and shots are everyday words; only consume them while
	// the sender actually holds that role in the chat's session.
	if IsConfirmText(text) {
		if sess, ok := h.manager.Registry().Get(chatID); ok &&
			sess.Phase == duel.PhasePendingConfirmation && sess.TargetID == senderID {
			h.manager.Confirm(ctx, chatID, senderID)
			return true, nil
		}
		return false, nil
	}

	if IsShotText(text) {
		if sess, ok := h.manager.Registry().Get(chatID); ok && sess.Participant(senderID) {
			h.manager.Shoot(ctx, chatID, senderID)
			return true, nil
		}
		return false, nil
	}

	return false, nil
}

// mentionedUsers extracts the user ids mentioned in the message,
// excluding the bot itself. Only decoded text mentions carry ids.
func mentionedUsers(msg *tele.Message, botID int64) []int64 {
	var ids []int64
	for _, entity := range msg.Entities {
		if entity.Type != tele.EntityTMention || entity.User == nil {
			continue
		}
		if entity.User.ID == botID {
			continue
		}
		ids = append(ids, entity.User.ID)
	}
	return ids
}
