package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/playbud/booking/internal/domain"
	"github.com/playbud/booking/internal/repository"
)

type BookingInteractor interface {
	Join(ctx context.Context, gameID, userID uuid.UUID, notes string) (*domain.Booking, error)
	Cancel(ctx context.Context, bookingID, userID uuid.UUID) (*domain.Booking, error)
	ListParticipants(ctx context.Context, gameID uuid.UUID) ([]*domain.Participant, error)
	UserBookings(ctx context.Context, userID uuid.UUID) ([]*domain.Booking, error)
	MyGames(ctx context.Context, userID uuid.UUID) ([]*domain.GameWithBooking, error)
	SyncParticipants(ctx context.Context, gameID uuid.UUID) ([]uuid.UUID, error)
}

type GameInteractor interface {
	CreateGame(ctx context.Context, draft domain.GameDraft, creatorID uuid.UUID) (*domain.Game, error)
	ListGames(ctx context.Context, limit int, status domain.GameStatus) ([]*domain.Game, error)
	GetGame(ctx context.Context, id uuid.UUID) (*domain.Game, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.GameStatus) (*domain.Game, error)
	ListCreatedGames(ctx context.Context, userID uuid.UUID) ([]*domain.Game, error)
}

type UserInteractor interface {
	CreateUser(ctx context.Context, name string, email string) (*domain.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	UpdateProfile(ctx context.Context, userID uuid.UUID, name, avatarURL *string) (*domain.User, error)
	RegisterOrganizer(ctx context.Context, userID uuid.UUID, name string) (*domain.Organizer, error)
	MyOrganizer(ctx context.Context, userID uuid.UUID) (*domain.Organizer, error)
}

type AdminInteractor interface {
	ListGames(ctx context.Context, status domain.GameStatus) ([]*domain.Game, error)
	GameDetail(ctx context.Context, id uuid.UUID) (*domain.GameDetail, error)
}

type RosterFeed interface {
	Subscribe(gameID uuid.UUID) *Subscription
	Unsubscribe(sub *Subscription)
}

// Clock returns the current instant. Services take one so tests can pin
// time windows.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// storageErr wraps a repository failure with op, marking connectivity
// failures Unavailable so the API can answer 503.
func storageErr(op string, err error) error {
	if errors.Is(err, repository.ErrUnavailable) {
		return domain.Unavailable(fmt.Errorf("%s: %w", op, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}
