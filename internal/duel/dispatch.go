package duel

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Dispatcher turns a transition's effect into announcements and moderation
// requests. Moderation failures degrade to an appended warning line; they
// never block the announcement and never reverse a decided duel.
type Dispatcher struct {
	messenger Messenger
	moderator Moderator
	cfg       Config
}

// NewDispatcher creates a Dispatcher over the given ports.
func NewDispatcher(messenger Messenger, moderator Moderator, cfg Config) *Dispatcher {
	return &Dispatcher{
		messenger: messenger,
		moderator: moderator,
		cfg:       cfg,
	}
}

// Dispatch executes the effect. Call it outside the registry's critical
// section: it performs blocking platform calls.
func (d *Dispatcher) Dispatch(ctx context.Context, eff Effect) {
	switch eff.Kind {
	case EffectNone:
		return
	case EffectNotice:
		d.announce(eff.ChatID, eff.Notice, nil)
	case EffectChallengeIssued:
		text := fmt.Sprintf(
			"%s 你被发起了决斗挑战！\n请发送【接受】来确认决斗（%d秒内有效）\n超时未确认将自动取消",
			d.messenger.Mention(eff.TargetID),
			int(d.cfg.ConfirmWindow.Seconds()),
		)
		d.announce(eff.ChatID, text, []int64{eff.TargetID})
	case EffectCountdownStarted:
		text := fmt.Sprintf(
			"⚔ 决斗确认！\n%s vs %s\n%d秒后开始，提前开枪将直接判负！",
			d.messenger.Mention(eff.StarterID),
			d.messenger.Mention(eff.TargetID),
			int(d.cfg.Countdown.Seconds()),
		)
		d.announce(eff.ChatID, text, []int64{eff.StarterID, eff.TargetID})
	case EffectDuelArmed:
		d.announce(eff.ChatID, "🔥 开始！", nil)
	case EffectFoul:
		d.dispatchFoul(ctx, eff)
	case EffectLegalShot:
		d.dispatchLegalShot(ctx, eff)
	case EffectConfirmExpired:
		text := fmt.Sprintf("%s 的决斗请求已超时取消", d.messenger.Mention(eff.StarterID))
		d.announce(eff.ChatID, text, []int64{eff.StarterID})
	case EffectDuelExpired:
		d.announce(eff.ChatID, "🕒 决斗超时，自动取消！", nil)
	}
}

func (d *Dispatcher) dispatchFoul(ctx context.Context, eff Effect) {
	text := fmt.Sprintf(
		"%s 犯规！抢跑开枪！🚫\n%s 自动获胜！🎉",
		d.messenger.Mention(eff.LoserID),
		d.messenger.Mention(eff.WinnerID),
	)
	text += d.mute(ctx, eff.ChatID, eff.LoserID, muteTexts{
		muted:    fmt.Sprintf("\n⏳ 违规者已被禁言%d分钟！", int(d.cfg.FoulMute.Minutes())),
		elevated: "\n⚠️ 管理成员违规，本次不予禁言",
		failed:   "\n❌ 禁言失败（权限不足）",
	}, d.cfg.FoulMute)

	d.announce(eff.ChatID, text, []int64{eff.WinnerID, eff.LoserID})
}

func (d *Dispatcher) dispatchLegalShot(ctx context.Context, eff Effect) {
	text := fmt.Sprintf(
		"%s 抢先开枪！🏆\n%s 输了！",
		d.messenger.Mention(eff.WinnerID),
		d.messenger.Mention(eff.LoserID),
	)
	text += d.mute(ctx, eff.ChatID, eff.LoserID, muteTexts{
		muted:    fmt.Sprintf("\n💢 失败者已被禁言%d分钟！", int(d.cfg.LoseMute.Minutes())),
		elevated: "\n👑 由于失败者是管理员/群主，本次不禁言！",
		failed:   "\n⚠️ 禁言失败（权限不足）！",
	}, d.cfg.LoseMute)

	d.announce(eff.ChatID, text, []int64{eff.WinnerID, eff.LoserID})
}

// muteTexts holds the appended warning/result lines for one mute attempt.
type muteTexts struct {
	muted    string
	elevated string
	failed   string
}

// mute requests a moderation mute and returns the line to append to the
// announcement. Elevated members are skipped; failures are downgraded.
func (d *Dispatcher) mute(ctx context.Context, chatID, userID int64, texts muteTexts, duration time.Duration) string {
	role, err := d.moderator.GetRole(ctx, chatID, userID)
	if err != nil {
		log.Warn().Err(err).
			Int64("chat_id", chatID).
			Int64("user_id", userID).
			Msg("Failed to get member role, assuming member")
		role = RoleMember
	}

	if role.Elevated() {
		return texts.elevated
	}

	if err := d.moderator.MuteUser(ctx, chatID, userID, duration); err != nil {
		log.Error().Err(err).
			Int64("chat_id", chatID).
			Int64("user_id", userID).
			Msg("Failed to mute user")
		return texts.failed
	}

	log.Info().
		Int64("chat_id", chatID).
		Int64("user_id", userID).
		Dur("duration", duration).
		Msg("User muted")
	return texts.muted
}

func (d *Dispatcher) announce(chatID int64, text string, mentions []int64) {
	if err := d.messenger.SendAnnouncement(chatID, text, mentions); err != nil {
		log.Error().Err(err).
			Int64("chat_id", chatID).
			Msg("Failed to send announcement")
	}
}
