// Package notify delivers booking and game notifications to players and
// organisers over email and push channels.
package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/playbud/booking/internal/domain"
)

type Kind string

const (
	KindWelcome             Kind = "welcome"
	KindOrganizerReview     Kind = "organizer_review"
	KindBookingConfirmation Kind = "booking_confirmation"
	KindGameHalfFull        Kind = "game_half_full"
	KindGameFull            Kind = "game_full"
	KindGameReminder        Kind = "game_reminder"
	KindGamePendingReview   Kind = "game_pending_review"
	KindGameApproved        Kind = "game_approved"
	KindGameRejected        Kind = "game_rejected"

	KindOrganizerNewParticipant Kind = "organizer_new_participant"
	KindOrganizerCancellation   Kind = "organizer_cancellation"
)

// Push reports whether the kind is delivered over the push channel rather
// than email.
func (k Kind) Push() bool {
	return k == KindOrganizerNewParticipant || k == KindOrganizerCancellation
}

type Recipient struct {
	UserID uuid.UUID
	Name   string
	Email  string
}

func RecipientFromUser(user *domain.User) Recipient {
	if user == nil {
		return Recipient{}
	}
	return Recipient{UserID: user.ID, Name: user.Name, Email: user.Email}
}

// Message is one notification. Game may be nil for account-level kinds.
type Message struct {
	Kind      Kind
	Recipient Recipient
	Game      *domain.Game
	Data      map[string]any
}

// Sender delivers a message and reports whether it went out. Failures are
// the sender's to log; callers never roll back on a false return.
type Sender interface {
	Send(ctx context.Context, msg Message) bool
}
