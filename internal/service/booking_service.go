package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/playbud/booking/internal/domain"
	"github.com/playbud/booking/internal/repository"
	"github.com/playbud/booking/lib/logger/sl"
)

const (
	msgGameNotFound      = "Game not found."
	msgBookingNotFound   = "Booking not found."
	msgGameOccurred      = "Cannot join a game that has already occurred."
	msgCancelOccurred    = "Cannot cancel a game that has already occurred."
	msgJoinsClosed       = "This game is no longer accepting joins."
	msgAlreadyJoined     = "You have already joined this game."
	msgGameFull          = "This game is full."
	msgNotYourBooking    = "You can only cancel your own bookings."
	msgCancelPassed      = "Cancellation period has passed"
	msgCancelUnavailable = "Unable to cancel booking at this time."
)

type BookingService struct {
	games      repository.GameRepository
	bookings   repository.BookingRepository
	users      repository.UserRepository
	effects    *Notifier
	roster     *RosterHub
	log        *slog.Logger
	now        Clock
	joinBuffer time.Duration
	maxNotes   int
}

type BookingOption func(*BookingService)

func WithClock(c Clock) BookingOption {
	return func(s *BookingService) { s.now = c }
}

func WithJoinBuffer(d time.Duration) BookingOption {
	return func(s *BookingService) {
		if d >= 0 {
			s.joinBuffer = d
		}
	}
}

func WithMaxNotes(n int) BookingOption {
	return func(s *BookingService) {
		if n > 0 {
			s.maxNotes = n
		}
	}
}

func NewBookingService(
	games repository.GameRepository,
	bookings repository.BookingRepository,
	users repository.UserRepository,
	effects *Notifier,
	roster *RosterHub,
	log *slog.Logger,
	opts ...BookingOption,
) *BookingService {
	if log == nil {
		log = slog.Default()
	}
	s := &BookingService{
		games:      games,
		bookings:   bookings,
		users:      users,
		effects:    effects,
		roster:     roster,
		log:        log,
		now:        systemClock,
		joinBuffer: domain.DefaultJoinBuffer,
		maxNotes:   domain.MaxBookingNotesLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BookingService) Join(ctx context.Context, gameID, userID uuid.UUID, notes string) (*domain.Booking, error) {
	const op = "service.booking.join"
	log := s.log.With(
		slog.String("op", op),
		slog.String("game_id", gameID.String()),
		slog.String("user_id", userID.String()),
	)

	game, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			return nil, domain.NotFound(msgGameNotFound)
		}
		log.Error("failed to load game", sl.Err(err))
		return nil, storageErr(op, err)
	}

	if utf8.RuneCountInString(notes) > s.maxNotes {
		return nil, domain.Validation(fmt.Sprintf("Notes must be at most %d characters.", s.maxNotes))
	}

	now := s.now()
	window := domain.NewWindow(game, s.joinBuffer)
	if window.HasStarted(now) {
		return nil, domain.Validation(msgGameOccurred)
	}
	if !window.CanJoin(now) {
		return nil, domain.Validation(msgJoinsClosed)
	}

	booking := domain.NewBooking(game.ID, userID, notes, now)
	count, err := s.bookings.CreateWithinCapacity(ctx, booking)
	if errors.Is(err, repository.ErrBookingExists) {
		count, err = s.recoverCommitted(ctx, booking)
		if err != nil {
			return nil, err
		}
		log.Warn("booking found committed after retry", slog.String("booking_id", booking.ID.String()))
	}
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrGameFull):
			log.Info("join rejected, game full")
			return nil, domain.Validation(msgGameFull)
		case errors.Is(err, repository.ErrGameNotFound):
			return nil, domain.NotFound(msgGameNotFound)
		}
		log.Error("failed to create booking", sl.Err(err))
		return nil, storageErr(op, err)
	}

	log.Info("booking created",
		slog.String("booking_id", booking.ID.String()),
		slog.Int("count", count),
		slog.Int("players", game.Players),
	)

	game.ParticipantUserIDs = domain.AppendParticipant(game.ParticipantUserIDs, userID)
	effectsCtx := context.WithoutCancel(ctx)
	if s.effects != nil {
		s.effects.BookingJoined(effectsCtx, game, booking, count)
	}
	s.publish(domain.RosterEventJoined, booking, count, now)

	return booking, nil
}

// recoverCommitted resolves ErrBookingExists for a create that may have been
// retried after its transaction committed. The booking counts as created only
// when the stored row carries the id this call generated.
func (s *BookingService) recoverCommitted(ctx context.Context, booking *domain.Booking) (int, error) {
	const op = "service.booking.recoverCommitted"

	stored, err := s.bookings.GetByGameAndUser(ctx, booking.GameID, booking.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return 0, domain.Validation(msgAlreadyJoined)
		}
		return 0, storageErr(op, err)
	}
	if stored.ID != booking.ID {
		return 0, domain.Validation(msgAlreadyJoined)
	}

	count, err := s.bookings.CountActive(ctx, booking.GameID)
	if err != nil {
		return 0, storageErr(op, err)
	}
	*booking = *stored
	return count, nil
}

func (s *BookingService) Cancel(ctx context.Context, bookingID, userID uuid.UUID) (*domain.Booking, error) {
	const op = "service.booking.cancel"
	log := s.log.With(
		slog.String("op", op),
		slog.String("booking_id", bookingID.String()),
		slog.String("user_id", userID.String()),
	)

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, domain.NotFound(msgBookingNotFound)
		}
		log.Error("failed to load booking", sl.Err(err))
		return nil, storageErr(op, err)
	}
	if booking.UserID != userID {
		return nil, domain.Permission(msgNotYourBooking)
	}

	game, err := s.games.GetByID(ctx, booking.GameID)
	if err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			return nil, domain.NotFound(msgGameNotFound)
		}
		log.Error("failed to load game", sl.Err(err))
		return nil, storageErr(op, err)
	}

	now := s.now()
	window := domain.NewWindow(game, s.joinBuffer)
	if window.HasStarted(now) {
		return nil, domain.Validation(msgCancelOccurred)
	}
	if !window.CanCancel(now) {
		return nil, domain.Validation(msgCancelPassed)
	}

	removed, remaining, err := s.bookings.DeleteAndRelease(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			log.Info("booking vanished before delete")
			return nil, domain.Validation(msgCancelUnavailable)
		}
		log.Error("failed to delete booking", sl.Err(err))
		return nil, storageErr(op, err)
	}

	log.Info("booking cancelled", slog.Int("remaining", remaining))

	game.ParticipantUserIDs = domain.RemoveParticipant(game.ParticipantUserIDs, removed.UserID)
	if s.effects != nil {
		s.effects.BookingCancelled(context.WithoutCancel(ctx), game, removed)
	}
	s.publish(domain.RosterEventCancelled, removed, remaining, now)

	return removed, nil
}

// ListParticipants returns the game's bookings oldest first with each
// player's public profile. A booking whose user is gone keeps an empty
// profile.
func (s *BookingService) ListParticipants(ctx context.Context, gameID uuid.UUID) ([]*domain.Participant, error) {
	const op = "service.booking.listParticipants"
	log := s.log.With(slog.String("op", op), slog.String("game_id", gameID.String()))

	if _, err := s.games.GetByID(ctx, gameID); err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			return nil, domain.NotFound(msgGameNotFound)
		}
		return nil, storageErr(op, err)
	}

	bookings, err := s.bookings.ListByGame(ctx, gameID)
	if err != nil {
		log.Error("failed to list bookings", sl.Err(err))
		return nil, storageErr(op, err)
	}

	participants := make([]*domain.Participant, 0, len(bookings))
	for _, booking := range bookings {
		p := &domain.Participant{
			BookingID: booking.ID,
			UserID:    booking.UserID,
			JoinedAt:  booking.JoinedAt,
		}
		user, err := s.users.GetByID(ctx, booking.UserID)
		switch {
		case err == nil:
			p.Name = user.Name
			p.AvatarURL = user.AvatarURL
		case !errors.Is(err, repository.ErrUserNotFound):
			return nil, storageErr(op, err)
		}
		participants = append(participants, p)
	}
	return participants, nil
}

func (s *BookingService) UserBookings(ctx context.Context, userID uuid.UUID) ([]*domain.Booking, error) {
	const op = "service.booking.userBookings"

	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		s.log.Error("failed to list bookings", slog.String("op", op), sl.Err(err))
		return nil, storageErr(op, err)
	}
	return bookings, nil
}

// MyGames pairs each of the user's bookings with its game and live count,
// newest booking first. Bookings whose game is gone are skipped.
func (s *BookingService) MyGames(ctx context.Context, userID uuid.UUID) ([]*domain.GameWithBooking, error) {
	const op = "service.booking.myGames"
	log := s.log.With(slog.String("op", op), slog.String("user_id", userID.String()))

	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		log.Error("failed to list bookings", sl.Err(err))
		return nil, storageErr(op, err)
	}

	result := make([]*domain.GameWithBooking, 0, len(bookings))
	for _, booking := range bookings {
		game, err := s.games.GetByID(ctx, booking.GameID)
		if err != nil {
			if errors.Is(err, repository.ErrGameNotFound) {
				log.Debug("skipping booking for missing game", slog.String("booking_id", booking.ID.String()))
				continue
			}
			return nil, storageErr(op, err)
		}

		count, err := s.bookings.CountActive(ctx, game.ID)
		if err != nil {
			return nil, storageErr(op, err)
		}

		result = append(result, &domain.GameWithBooking{
			Game:              game,
			Booking:           booking,
			ParticipantsCount: count,
		})
	}
	return result, nil
}

// SyncParticipants rebuilds the game's participant list from its bookings.
func (s *BookingService) SyncParticipants(ctx context.Context, gameID uuid.UUID) ([]uuid.UUID, error) {
	const op = "service.booking.syncParticipants"
	log := s.log.With(slog.String("op", op), slog.String("game_id", gameID.String()))

	ids, err := s.bookings.RebuildParticipants(ctx, gameID)
	if err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			return nil, domain.NotFound(msgGameNotFound)
		}
		log.Error("failed to rebuild participants", sl.Err(err))
		return nil, storageErr(op, err)
	}

	log.Info("participants rebuilt", slog.Int("count", len(ids)))
	return ids, nil
}

func (s *BookingService) publish(kind domain.RosterEventType, booking *domain.Booking, count int, at time.Time) {
	if s.roster == nil {
		return
	}
	s.roster.Publish(domain.RosterEvent{
		Type:      kind,
		GameID:    booking.GameID,
		UserID:    booking.UserID,
		BookingID: booking.ID,
		Count:     count,
		At:        at,
	})
}
