package duel

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"telegram-duel-bot/internal/pkg/lock"
)

// Config groups duel timings and penalty durations.
type Config struct {
	ConfirmWindow time.Duration
	Countdown     time.Duration
	ShotWindow    time.Duration
	FoulMute      time.Duration
	LoseMute      time.Duration
}

// DefaultConfig returns the standard duel settings: 30s confirmation
// window, 5s countdown, 30s shot window, 2min foul mute, 1min lose mute.
func DefaultConfig() Config {
	return Config{
		ConfirmWindow: 30 * time.Second,
		Countdown:     5 * time.Second,
		ShotWindow:    30 * time.Second,
		FoulMute:      2 * time.Minute,
		LoseMute:      time.Minute,
	}
}

// Manager is the externally callable duel API. Each operation acquires the
// chat's lock, arbitrates the event against the current session, applies
// the registry mutation conditioned on generation, swaps timers, then
// releases the lock and dispatches side effects outside the critical
// section.
type Manager struct {
	registry   *Registry
	timers     *Supervisor
	dispatcher *Dispatcher
	locks      *lock.ChatLock
	cfg        Config
}

// NewManager creates a Manager with its own registry over the given
// supervisor, dispatcher and per-chat lock.
func NewManager(dispatcher *Dispatcher, timers *Supervisor, locks *lock.ChatLock, cfg Config) *Manager {
	return &Manager{
		registry:   NewRegistry(timers),
		timers:     timers,
		dispatcher: dispatcher,
		locks:      locks,
		cfg:        cfg,
	}
}

// Registry exposes the session registry for read-only inspection by the
// chat layer (trigger predicates need to know if a duel is pending).
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Challenge handles a duel challenge from starterID against targetID.
func (m *Manager) Challenge(ctx context.Context, chatID, starterID, targetID int64) {
	m.handle(ctx, Event{
		Kind:     EventChallenge,
		ChatID:   chatID,
		SenderID: starterID,
		TargetID: targetID,
	})
}

// Confirm handles an accept message from senderID.
func (m *Manager) Confirm(ctx context.Context, chatID, senderID int64) {
	m.handle(ctx, Event{Kind: EventConfirm, ChatID: chatID, SenderID: senderID})
}

// Shoot handles a shot message from senderID.
func (m *Manager) Shoot(ctx context.Context, chatID, senderID int64) {
	m.handle(ctx, Event{Kind: EventShot, ChatID: chatID, SenderID: senderID})
}

// handle runs the lock → decide → apply → dispatch sequence for a
// user-driven event.
func (m *Manager) handle(ctx context.Context, ev Event) {
	m.locks.Lock(ev.ChatID)

	var snap *Session
	if cur, ok := m.registry.Get(ev.ChatID); ok {
		snap = &cur
	}

	tr := Decide(snap, ev)
	applied := m.apply(snap, ev, tr)
	m.locks.Unlock(ev.ChatID)

	if applied {
		m.dispatcher.Dispatch(ctx, tr.Effect)
	}
}

// handleExpiry runs a timer-driven event. The generation check against the
// live registry is the correctness mechanism; cancellation is only an
// optimization, so a stale callback lands here and must leave silently.
func (m *Manager) handleExpiry(kind EventKind, chatID int64, generation uint64) {
	m.locks.Lock(chatID)

	cur, ok := m.registry.Get(chatID)
	if !ok || cur.Generation != generation {
		m.locks.Unlock(chatID)
		log.Debug().
			Int64("chat_id", chatID).
			Uint64("generation", generation).
			Msg("Dropping stale duel timer")
		return
	}

	ev := Event{Kind: kind, ChatID: chatID}
	tr := Decide(&cur, ev)
	applied := m.apply(&cur, ev, tr)
	m.locks.Unlock(chatID)

	if applied {
		m.dispatcher.Dispatch(context.Background(), tr.Effect)
	}
}

// apply commits a transition to the registry under the chat's lock.
// Returns whether the transition took effect (and its side effect should
// be dispatched).
func (m *Manager) apply(snap *Session, ev Event, tr Transition) bool {
	switch tr.Outcome {
	case OutcomeIgnore:
		return false

	case OutcomeReject:
		return true

	case OutcomeCreate:
		sess, err := m.registry.TryCreate(ev.ChatID, ev.SenderID, ev.TargetID)
		if err != nil {
			// Lost a create race despite the chat lock; treat as active.
			log.Warn().Err(err).Int64("chat_id", ev.ChatID).Msg("Duel create conflict")
			return false
		}
		m.scheduleFor(sess.ChatID, sess.Generation, PhasePendingConfirmation)
		log.Info().
			Int64("chat_id", sess.ChatID).
			Int64("starter_id", sess.StarterID).
			Int64("target_id", sess.TargetID).
			Uint64("generation", sess.Generation).
			Msg("Duel challenge created")
		return true

	case OutcomeAdvance:
		ok := m.registry.Replace(ev.ChatID, snap.Generation, func(s *Session) {
			s.Phase = tr.NewPhase
		})
		if !ok {
			return false
		}
		m.scheduleFor(ev.ChatID, snap.Generation, tr.NewPhase)
		log.Info().
			Int64("chat_id", ev.ChatID).
			Str("phase", tr.NewPhase.String()).
			Uint64("generation", snap.Generation).
			Msg("Duel phase advanced")
		return true

	case OutcomeRemove:
		if !m.registry.Remove(ev.ChatID, snap.Generation) {
			return false
		}
		log.Info().
			Int64("chat_id", ev.ChatID).
			Uint64("generation", snap.Generation).
			Msg("Duel resolved")
		return true

	default:
		return false
	}
}

// scheduleFor installs the single timer owned by the given phase,
// replacing (and cancelling) the previous one.
func (m *Manager) scheduleFor(chatID int64, generation uint64, phase Phase) {
	var (
		delay time.Duration
		kind  EventKind
	)
	switch phase {
	case PhasePendingConfirmation:
		delay, kind = m.cfg.ConfirmWindow, EventConfirmTimeout
	case PhaseCountdown:
		delay, kind = m.cfg.Countdown, EventCountdownElapsed
	case PhaseArmed:
		delay, kind = m.cfg.ShotWindow, EventDuelTimeout
	default:
		return
	}

	h := m.timers.Schedule(delay, generation, func(gen uint64) {
		m.handleExpiry(kind, chatID, gen)
	})
	m.registry.AttachTimer(chatID, generation, h)
}
