package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-duel-bot/internal/config"
	"telegram-duel-bot/internal/duel"
	"telegram-duel-bot/internal/game/roulette"
)

// RouletteHandler handles the russian roulette commands.
type RouletteHandler struct {
	game      *roulette.Game
	moderator duel.Moderator
	cfg       *config.Config
}

// NewRouletteHandler creates a RouletteHandler.
func NewRouletteHandler(game *roulette.Game, moderator duel.Moderator, cfg *config.Config) *RouletteHandler {
	return &RouletteHandler{game: game, moderator: moderator, cfg: cfg}
}

// HandleLoad handles /roulette <bullets>: loads the chamber.
func (r *RouletteHandler) HandleLoad(c tele.Context) error {
	arg := strings.TrimSpace(c.Message().Payload)

	bullets, err := strconv.Atoi(arg)
	if err != nil {
		return c.Reply(fmt.Sprintf("⚠️ 请输入1-%d之间的整数作为子弹数量！", roulette.MaxBullets))
	}

	if err := r.game.Load(c.Chat().ID, c.Sender().ID, bullets); err != nil {
		if errors.Is(err, roulette.ErrInvalidBullets) {
			return c.Reply(fmt.Sprintf("⚠️ 子弹数量必须在1到%d之间！", roulette.MaxBullets))
		}
		return err
	}

	return c.Reply(fmt.Sprintf("🔫 已装入 %d 发子弹，发送【/fire】进行射击！", bullets))
}

// HandleFire handles /fire: one probabilistic shot against the loaded
// chamber. A hit mutes the shooter; moderation failure degrades to a
// notice.
func (r *RouletteHandler) HandleFire(c tele.Context) error {
	chatID := c.Chat().ID
	senderID := c.Sender().ID

	hit, err := r.game.Fire(chatID, senderID)
	if err != nil {
		if errors.Is(err, roulette.ErrNotLoaded) {
			return c.Reply("⚠️ 请先使用【/roulette 数字】装入子弹！")
		}
		return err
	}

	if !hit {
		return c.Reply("🔰 咔嗒～ 运气不错，这次是空枪！")
	}

	muteErr := r.moderator.MuteUser(context.Background(), chatID, senderID, r.cfg.Roulette.HitMute)
	if muteErr != nil {
		log.Warn().Err(muteErr).
			Int64("chat_id", chatID).
			Int64("user_id", senderID).
			Msg("Failed to mute roulette loser")
		return c.Reply(fmt.Sprintf("⚠️ 禁言失败：%v", muteErr))
	}

	minutes := int(r.cfg.Roulette.HitMute.Minutes())
	return c.Reply(fmt.Sprintf("💥 砰！很不幸，你中弹了！（已被禁言%d分钟）", minutes))
}
