package duel

// EventKind classifies an incoming duel event.
type EventKind int

// Duel events: three user-driven, three timer-driven.
const (
	EventChallenge EventKind = iota
	EventConfirm
	EventShot
	EventCountdownElapsed
	EventConfirmTimeout
	EventDuelTimeout
)

// Event is one decoded occurrence to arbitrate against the current phase.
type Event struct {
	Kind     EventKind
	ChatID   int64
	SenderID int64
	// TargetID is set for challenge events only.
	TargetID int64
}

// Outcome is what a transition does to the registry.
type Outcome int

const (
	// OutcomeIgnore means the event does not match any valid transition:
	// bystander noise, stale timers. Silent, not an error.
	OutcomeIgnore Outcome = iota
	// OutcomeReject keeps state untouched but tells the sender why.
	OutcomeReject
	// OutcomeCreate installs a new session in PendingConfirmation.
	OutcomeCreate
	// OutcomeAdvance moves the session forward to Transition.NewPhase.
	OutcomeAdvance
	// OutcomeRemove resolves or expires the session.
	OutcomeRemove
)

// EffectKind names the announcement (and optional moderation request)
// produced by a transition.
type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectNotice
	EffectChallengeIssued
	EffectCountdownStarted
	EffectDuelArmed
	EffectFoul
	EffectLegalShot
	EffectConfirmExpired
	EffectDuelExpired
)

// Effect is the side effect of a transition, executed outside the
// registry's critical section.
type Effect struct {
	Kind      EffectKind
	ChatID    int64
	StarterID int64
	TargetID  int64
	WinnerID  int64
	LoserID   int64
	// Notice is the rejection text for EffectNotice.
	Notice string
}

// Transition is the decision for one event against one session snapshot.
type Transition struct {
	Outcome  Outcome
	NewPhase Phase
	Effect   Effect
}

func ignore() Transition {
	return Transition{Outcome: OutcomeIgnore}
}

func reject(chatID int64, notice string) Transition {
	return Transition{
		Outcome: OutcomeReject,
		Effect:  Effect{Kind: EffectNotice, ChatID: chatID, Notice: notice},
	}
}

// Decide arbitrates an event against the chat's session snapshot (nil when
// the chat has no session). Pure: no I/O, no registry mutation. Anything
// that does not match a valid transition is an ignore, never an error.
func Decide(cur *Session, ev Event) Transition {
	switch ev.Kind {
	case EventChallenge:
		return decideChallenge(cur, ev)
	case EventConfirm:
		return decideConfirm(cur, ev)
	case EventShot:
		return decideShot(cur, ev)
	case EventCountdownElapsed:
		return decideCountdownElapsed(cur, ev)
	case EventConfirmTimeout:
		return decideConfirmTimeout(cur, ev)
	case EventDuelTimeout:
		return decideDuelTimeout(cur, ev)
	default:
		return ignore()
	}
}

func decideChallenge(cur *Session, ev Event) Transition {
	if ev.SenderID == ev.TargetID {
		return reject(ev.ChatID, "你不能和自己决斗！")
	}
	if cur != nil {
		return reject(ev.ChatID, "当前已有进行中的决斗请求！")
	}
	return Transition{
		Outcome:  OutcomeCreate,
		NewPhase: PhasePendingConfirmation,
		Effect: Effect{
			Kind:      EffectChallengeIssued,
			ChatID:    ev.ChatID,
			StarterID: ev.SenderID,
			TargetID:  ev.TargetID,
		},
	}
}

func decideConfirm(cur *Session, ev Event) Transition {
	if cur == nil || cur.Phase != PhasePendingConfirmation || ev.SenderID != cur.TargetID {
		return ignore()
	}
	return Transition{
		Outcome:  OutcomeAdvance,
		NewPhase: PhaseCountdown,
		Effect: Effect{
			Kind:      EffectCountdownStarted,
			ChatID:    ev.ChatID,
			StarterID: cur.StarterID,
			TargetID:  cur.TargetID,
		},
	}
}

func decideShot(cur *Session, ev Event) Transition {
	if cur == nil || !cur.Participant(ev.SenderID) {
		return ignore()
	}

	switch cur.Phase {
	case PhaseCountdown:
		// Foul: shooting before the duel is armed loses automatically.
		return Transition{
			Outcome: OutcomeRemove,
			Effect: Effect{
				Kind:      EffectFoul,
				ChatID:    ev.ChatID,
				StarterID: cur.StarterID,
				TargetID:  cur.TargetID,
				WinnerID:  cur.Opponent(ev.SenderID),
				LoserID:   ev.SenderID,
			},
		}
	case PhaseArmed:
		return Transition{
			Outcome: OutcomeRemove,
			Effect: Effect{
				Kind:      EffectLegalShot,
				ChatID:    ev.ChatID,
				StarterID: cur.StarterID,
				TargetID:  cur.TargetID,
				WinnerID:  ev.SenderID,
				LoserID:   cur.Opponent(ev.SenderID),
			},
		}
	default:
		// Shots before confirmation are bystander noise.
		return ignore()
	}
}

func decideCountdownElapsed(cur *Session, ev Event) Transition {
	if cur == nil || cur.Phase != PhaseCountdown {
		return ignore()
	}
	return Transition{
		Outcome:  OutcomeAdvance,
		NewPhase: PhaseArmed,
		Effect: Effect{
			Kind:      EffectDuelArmed,
			ChatID:    ev.ChatID,
			StarterID: cur.StarterID,
			TargetID:  cur.TargetID,
		},
	}
}

func decideConfirmTimeout(cur *Session, ev Event) Transition {
	if cur == nil || cur.Phase != PhasePendingConfirmation {
		return ignore()
	}
	return Transition{
		Outcome: OutcomeRemove,
		Effect: Effect{
			Kind:      EffectConfirmExpired,
			ChatID:    ev.ChatID,
			StarterID: cur.StarterID,
			TargetID:  cur.TargetID,
		},
	}
}

func decideDuelTimeout(cur *Session, ev Event) Transition {
	// The countdown timer is the countdown phase's only timer and always
	// fires into Armed, so an abandoned duel is only ever observed armed.
	if cur == nil || cur.Phase != PhaseArmed {
		return ignore()
	}
	return Transition{
		Outcome: OutcomeRemove,
		Effect: Effect{
			Kind:      EffectDuelExpired,
			ChatID:    ev.ChatID,
			StarterID: cur.StarterID,
			TargetID:  cur.TargetID,
		},
	}
}
