package bot

import (
	"context"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v3"

	"telegram-duel-bot/internal/duel"
)

// TelegramGateway implements the duel Messenger and Moderator ports over
// the Telegram Bot API.
type TelegramGateway struct {
	bot *tele.Bot
}

// NewTelegramGateway wraps a telebot instance.
func NewTelegramGateway(b *tele.Bot) *TelegramGateway {
	return &TelegramGateway{bot: b}
}

// SendAnnouncement delivers text to the chat. Mention markup in the text
// is rendered through Markdown parse mode.
func (g *TelegramGateway) SendAnnouncement(chatID int64, text string, mentions []int64) error {
	opts := &tele.SendOptions{}
	if len(mentions) > 0 {
		opts.ParseMode = tele.ModeMarkdown
	}
	if _, err := g.bot.Send(tele.ChatID(chatID), text, opts); err != nil {
		return fmt.Errorf("failed to send announcement: %w", err)
	}
	return nil
}

// Mention renders an inline mention link for a user. Telegram resolves
// tg://user links to the member's current display name.
func (g *TelegramGateway) Mention(userID int64) string {
	return fmt.Sprintf("[@%d](tg://user?id=%d)", userID, userID)
}

// MuteUser restricts a member from sending messages for the duration.
func (g *TelegramGateway) MuteUser(ctx context.Context, chatID, userID int64, duration time.Duration) error {
	member := &tele.ChatMember{
		User:            &tele.User{ID: userID},
		RestrictedUntil: time.Now().Add(duration).Unix(),
		Rights:          tele.NoRights(),
	}
	if err := g.bot.Restrict(&tele.Chat{ID: chatID}, member); err != nil {
		return fmt.Errorf("failed to restrict user: %w", err)
	}
	return nil
}

// UnmuteUser lifts all message restrictions from a member.
func (g *TelegramGateway) UnmuteUser(ctx context.Context, chatID, userID int64) error {
	member := &tele.ChatMember{
		User:   &tele.User{ID: userID},
		Rights: tele.NoRestrictions(),
	}
	if err := g.bot.Restrict(&tele.Chat{ID: chatID}, member); err != nil {
		return fmt.Errorf("failed to unrestrict user: %w", err)
	}
	return nil
}

// GetRole reports a member's role in the chat.
func (g *TelegramGateway) GetRole(ctx context.Context, chatID, userID int64) (duel.Role, error) {
	member, err := g.bot.ChatMemberOf(&tele.Chat{ID: chatID}, &tele.User{ID: userID})
	if err != nil {
		return duel.RoleMember, fmt.Errorf("failed to get chat member: %w", err)
	}

	switch member.Role {
	case tele.Creator:
		return duel.RoleOwner, nil
	case tele.Administrator:
		return duel.RoleAdmin, nil
	default:
		return duel.RoleMember, nil
	}
}
