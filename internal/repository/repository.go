package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/playbud/booking/internal/domain"
)

type GameRepository interface {
	Create(ctx context.Context, game *domain.Game) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Game, error)
	// List returns up to limit games, newest first.
	List(ctx context.Context, limit int) ([]*domain.Game, error)
	// ListOwned returns games created by userID or, when organiserID is set,
	// linked to that organiser profile. Newest first.
	ListOwned(ctx context.Context, userID uuid.UUID, organiserID *uuid.UUID) ([]*domain.Game, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.GameStatus) (*domain.Game, error)
}

// BookingRepository owns bookings and the participant projection stored on
// their game. Mutations that touch both are serialized per game.
type BookingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	GetByGameAndUser(ctx context.Context, gameID, userID uuid.UUID) (*domain.Booking, error)
	CountActive(ctx context.Context, gameID uuid.UUID) (int, error)
	// ListByGame orders by join time, oldest first.
	ListByGame(ctx context.Context, gameID uuid.UUID) ([]*domain.Booking, error)
	// ListByUser orders by join time, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Booking, error)
	// CreateWithinCapacity inserts booking only when its user holds no booking
	// for the game and the game has a free slot, then appends the user to the
	// game's participant projection. It returns the active count after insert.
	CreateWithinCapacity(ctx context.Context, booking *domain.Booking) (int, error)
	// DeleteAndRelease removes the booking and its user from the projection,
	// returning the removed row and the remaining active count.
	DeleteAndRelease(ctx context.Context, id uuid.UUID) (*domain.Booking, int, error)
	// RebuildParticipants recomputes the projection from booking rows.
	RebuildParticipants(ctx context.Context, gameID uuid.UUID) ([]uuid.UUID, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type OrganizerRepository interface {
	Create(ctx context.Context, organizer *domain.Organizer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Organizer, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Organizer, error)
}

type ReminderRepository interface {
	Schedule(ctx context.Context, reminder *domain.Reminder) error
	// ClaimDue leases up to limit pending reminders due at now so that no
	// other worker picks them up until the lease expires.
	ClaimDue(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]*domain.Reminder, error)
	MarkSent(ctx context.Context, id uuid.UUID, attempts int, at time.Time) error
	MarkRetry(ctx context.Context, id uuid.UUID, attempts int, nextDue time.Time, lastErr string) error
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string) error
}

type MilestoneRepository interface {
	// MarkReached records milestone for the game and reports whether this
	// call was the first to do so.
	MarkReached(ctx context.Context, gameID uuid.UUID, milestone domain.Milestone) (bool, error)
}
