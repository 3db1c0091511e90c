package handler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-duel-bot/internal/config"
	"telegram-duel-bot/internal/duel"
)

// GroupModerator extends the duel moderation port with the unmute action
// the silence feature needs.
type GroupModerator interface {
	duel.Moderator
	UnmuteUser(ctx context.Context, chatID, userID int64) error
}

// SilenceHandler implements the temporary unmute: a group admin lifts a
// member's mute, and after a grace period the member is muted again for a
// long stretch. The schedule is in-memory; a restart forfeits it.
type SilenceHandler struct {
	moderator GroupModerator
	timers    *duel.Supervisor
	cfg       *config.Config
	botID     int64
}

// NewSilenceHandler creates a SilenceHandler.
func NewSilenceHandler(moderator GroupModerator, timers *duel.Supervisor, cfg *config.Config, botID int64) *SilenceHandler {
	return &SilenceHandler{moderator: moderator, timers: timers, cfg: cfg, botID: botID}
}

// HandleUnmute handles /unmute with a mentioned target. Only group owners
// and admins may use it.
func (s *SilenceHandler) HandleUnmute(c tele.Context) error {
	chatID := c.Chat().ID
	senderID := c.Sender().ID
	ctx := context.Background()

	role, err := s.moderator.GetRole(ctx, chatID, senderID)
	if err != nil {
		log.Warn().Err(err).
			Int64("chat_id", chatID).
			Int64("user_id", senderID).
			Msg("Failed to get sender role")
		return c.Reply("⚠️ 无法验证权限，请稍后重试")
	}
	if !role.Elevated() {
		return c.Reply("⚠️ 权限不足，只有群主或管理员可以使用此命令")
	}

	targets := mentionedUsers(c.Message(), s.botID)
	if len(targets) == 0 {
		return c.Reply("请@需要解除禁言的成员")
	}
	targetID := targets[0]

	if err := s.moderator.UnmuteUser(ctx, chatID, targetID); err != nil {
		return c.Reply(fmt.Sprintf("解除禁言失败：%v", err))
	}

	s.scheduleRemute(chatID, targetID)

	log.Info().
		Int64("chat_id", chatID).
		Int64("target_id", targetID).
		Dur("grace", s.cfg.Silence.UnmuteGrace).
		Msg("User unmuted, re-mute scheduled")

	return c.Send(fmt.Sprintf("已解除 %d 的禁言，一定时间后将自动重新禁言", targetID))
}

// scheduleRemute arms the delayed re-mute. The supervisor's generation
// token is unused here; the schedule is fire-and-forget.
func (s *SilenceHandler) scheduleRemute(chatID, targetID int64) {
	s.timers.Schedule(s.cfg.Silence.UnmuteGrace, 0, func(uint64) {
		err := s.moderator.MuteUser(context.Background(), chatID, targetID, s.cfg.Silence.RemuteLength)
		if err != nil {
			log.Error().Err(err).
				Int64("chat_id", chatID).
				Int64("target_id", targetID).
				Msg("Scheduled re-mute failed")
			return
		}
		log.Info().
			Int64("chat_id", chatID).
			Int64("target_id", targetID).
			Msg("Scheduled re-mute applied")
	})
}
