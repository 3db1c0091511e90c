// Package duel implements the group duel game: challenge, confirmation,
// countdown and shot arbitration with exactly-once resolution per session.
package duel

import (
	"context"
	"time"
)

// Role is a member's standing in a group chat.
type Role string

// Group member roles as reported by the chat platform.
const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

// Elevated reports whether the role is exempt from moderation actions.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleOwner
}

// Messenger delivers announcements to a group chat.
type Messenger interface {
	// SendAnnouncement delivers text to the group. Mentioned user ids are
	// already rendered inline via Mention; the adapter uses them to pick
	// the right formatting mode.
	SendAnnouncement(chatID int64, text string, mentions []int64) error

	// Mention returns the inline-mention markup for a user, suitable for
	// embedding in announcement text.
	Mention(userID int64) string
}

// Moderator performs group moderation actions.
type Moderator interface {
	// MuteUser restricts a user from posting for the given duration.
	MuteUser(ctx context.Context, chatID, userID int64, duration time.Duration) error

	// GetRole reports the user's role in the group.
	GetRole(ctx context.Context, chatID, userID int64) (Role, error)
}
