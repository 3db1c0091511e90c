package duel

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Errors for the duel registry.
var (
	ErrDuelActive = errors.New("a duel is already active in this chat")
	ErrSelfDuel   = errors.New("cannot duel yourself")
)

// Phase is a session's position in the duel lifecycle. It only ever
// advances forward; resolution removes the session instead of storing a
// terminal phase.
type Phase int

// Duel phases in lifecycle order.
const (
	PhasePendingConfirmation Phase = iota
	PhaseCountdown
	PhaseArmed
)

// String returns the phase name for logging.
func (p Phase) String() string {
	switch p {
	case PhasePendingConfirmation:
		return "pending_confirmation"
	case PhaseCountdown:
		return "countdown"
	case PhaseArmed:
		return "armed"
	default:
		return "unknown"
	}
}

// Session is the per-chat duel record, alive from challenge until
// resolution or expiry.
type Session struct {
	ChatID     int64
	StarterID  int64
	TargetID   int64
	Phase      Phase
	Generation uint64
	CreatedAt  time.Time

	// timer is the single outstanding delayed action for the current
	// phase. Guarded by the registry mutex.
	timer *TimerHandle
}

// Participant reports whether userID is one of the two duellists.
func (s *Session) Participant(userID int64) bool {
	return userID == s.StarterID || userID == s.TargetID
}

// Opponent returns the other participant. Callers must pass a participant.
func (s *Session) Opponent(userID int64) int64 {
	if userID == s.StarterID {
		return s.TargetID
	}
	return s.StarterID
}

// Registry is the authoritative chat → session map. Every mutation is
// conditional on the caller's expected generation matching the stored one,
// so a stale caller (typically a timer that lost a race) fails silently
// instead of corrupting a newer session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	timers   *Supervisor
	gen      atomic.Uint64
}

// NewRegistry creates an empty registry. Cancelled session timers are
// returned to the given supervisor.
func NewRegistry(timers *Supervisor) *Registry {
	return &Registry{
		sessions: make(map[int64]*Session),
		timers:   timers,
	}
}

// TryCreate installs a new session in PendingConfirmation for the chat.
// Returns ErrDuelActive if the chat already holds a session, pending or
// ongoing; this is the source of the one-duel-per-chat invariant.
func (r *Registry) TryCreate(chatID, starterID, targetID int64) (Session, error) {
	if starterID == targetID {
		return Session{}, ErrSelfDuel
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[chatID]; exists {
		return Session{}, ErrDuelActive
	}

	s := &Session{
		ChatID:     chatID,
		StarterID:  starterID,
		TargetID:   targetID,
		Phase:      PhasePendingConfirmation,
		Generation: r.gen.Add(1),
		CreatedAt:  time.Now(),
	}
	r.sessions[chatID] = s
	return *s, nil
}

// Get returns a snapshot of the chat's session, if any.
func (r *Registry) Get(chatID int64) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[chatID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Replace mutates the chat's session if its generation still matches
// expected. Returns false, without touching anything, on a stale caller.
func (r *Registry) Replace(chatID int64, expected uint64, mutate func(*Session)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[chatID]
	if !ok || s.Generation != expected {
		return false
	}
	mutate(s)
	return true
}

// AttachTimer installs the session's outstanding timer, cancelling any
// prior one. A stale generation cancels the offered handle instead.
func (r *Registry) AttachTimer(chatID int64, expected uint64, h *TimerHandle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[chatID]
	if !ok || s.Generation != expected {
		r.timers.Cancel(h)
		return false
	}
	if s.timer != nil {
		r.timers.Cancel(s.timer)
	}
	s.timer = h
	return true
}

// Remove deletes the chat's session if its generation still matches
// expected, cancelling its attached timer. Exactly one Remove succeeds
// per session.
func (r *Registry) Remove(chatID int64, expected uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[chatID]
	if !ok || s.Generation != expected {
		return false
	}
	if s.timer != nil {
		r.timers.Cancel(s.timer)
	}
	delete(r.sessions, chatID)
	return true
}

// Len returns the number of live sessions across all chats.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
