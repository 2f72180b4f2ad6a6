package domain

import (
	"time"

	"github.com/google/uuid"
)

const MaxBookingNotesLength = 2000

// Booking is a user's claim on one slot of a game. A booking only exists
// while active; cancelling removes it.
type Booking struct {
	ID       uuid.UUID `json:"id"`
	GameID   uuid.UUID `json:"game_id"`
	UserID   uuid.UUID `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
	Notes    string    `json:"notes,omitempty"`
}

func NewBooking(gameID, userID uuid.UUID, notes string, joinedAt time.Time) *Booking {
	return &Booking{
		ID:       uuid.New(),
		GameID:   gameID,
		UserID:   userID,
		JoinedAt: joinedAt.UTC(),
		Notes:    notes,
	}
}

// GameWithBooking pairs one of a user's bookings with its game and the
// game's live participant count.
type GameWithBooking struct {
	Game              *Game
	Booking           *Booking
	ParticipantsCount int
}

// GameDetail is the admin view of a game: its creator, its organiser and
// the enriched participant list. Creator and Organizer are nil when unknown.
type GameDetail struct {
	Game         *Game
	Creator      *User
	Organizer    *Organizer
	Participants []*Participant
}

// Participant is a booking enriched with the booked user's public profile.
type Participant struct {
	BookingID uuid.UUID
	UserID    uuid.UUID
	Name      string
	AvatarURL string
	JoinedAt  time.Time
}
