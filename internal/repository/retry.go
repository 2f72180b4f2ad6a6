package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/playbud/booking/internal/domain"
)

// RetryPolicy bounds the exponential backoff applied when storage is
// unavailable.
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsed      time.Duration
}

func (p RetryPolicy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	return b
}

func withRetry[T any](ctx context.Context, p RetryPolicy, log *slog.Logger, op string, fn func() (T, error)) (T, error) {
	opts := []backoff.RetryOption{
		backoff.WithBackOff(p.backOff()),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn("storage unavailable, retrying",
				slog.String("op", op),
				slog.Duration("next", next),
				slog.String("error", err.Error()),
			)
		}),
	}
	if p.MaxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(p.MaxElapsed))
	}

	return backoff.Retry(ctx, func() (T, error) {
		v, err := fn()
		if err != nil && !errors.Is(err, ErrUnavailable) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, opts...)
}

func retryErr(ctx context.Context, p RetryPolicy, log *slog.Logger, op string, fn func() error) error {
	_, err := withRetry(ctx, p, log, op, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

type RetryingGameRepository struct {
	next   GameRepository
	policy RetryPolicy
	log    *slog.Logger
}

func NewRetryingGameRepository(next GameRepository, policy RetryPolicy, log *slog.Logger) *RetryingGameRepository {
	if log == nil {
		log = slog.Default()
	}
	return &RetryingGameRepository{next: next, policy: policy, log: log}
}

func (r *RetryingGameRepository) Create(ctx context.Context, game *domain.Game) error {
	return retryErr(ctx, r.policy, r.log, "repository.game.create", func() error {
		return r.next.Create(ctx, game)
	})
}

func (r *RetryingGameRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Game, error) {
	return withRetry(ctx, r.policy, r.log, "repository.game.get", func() (*domain.Game, error) {
		return r.next.GetByID(ctx, id)
	})
}

func (r *RetryingGameRepository) List(ctx context.Context, limit int) ([]*domain.Game, error) {
	return withRetry(ctx, r.policy, r.log, "repository.game.list", func() ([]*domain.Game, error) {
		return r.next.List(ctx, limit)
	})
}

func (r *RetryingGameRepository) ListOwned(ctx context.Context, userID uuid.UUID, organiserID *uuid.UUID) ([]*domain.Game, error) {
	return withRetry(ctx, r.policy, r.log, "repository.game.listOwned", func() ([]*domain.Game, error) {
		return r.next.ListOwned(ctx, userID, organiserID)
	})
}

func (r *RetryingGameRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.GameStatus) (*domain.Game, error) {
	return withRetry(ctx, r.policy, r.log, "repository.game.updateStatus", func() (*domain.Game, error) {
		return r.next.UpdateStatus(ctx, id, status)
	})
}

// RetryingBookingRepository retries booking storage calls. A create that
// committed before the connection dropped is retried into ErrBookingExists,
// never into a second booking. Callers tell that case apart from a real
// duplicate by comparing the stored booking id with the one they sent.
type RetryingBookingRepository struct {
	next   BookingRepository
	policy RetryPolicy
	log    *slog.Logger
}

func NewRetryingBookingRepository(next BookingRepository, policy RetryPolicy, log *slog.Logger) *RetryingBookingRepository {
	if log == nil {
		log = slog.Default()
	}
	return &RetryingBookingRepository{next: next, policy: policy, log: log}
}

func (r *RetryingBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return withRetry(ctx, r.policy, r.log, "repository.booking.get", func() (*domain.Booking, error) {
		return r.next.GetByID(ctx, id)
	})
}

func (r *RetryingBookingRepository) GetByGameAndUser(ctx context.Context, gameID, userID uuid.UUID) (*domain.Booking, error) {
	return withRetry(ctx, r.policy, r.log, "repository.booking.getByGameAndUser", func() (*domain.Booking, error) {
		return r.next.GetByGameAndUser(ctx, gameID, userID)
	})
}

func (r *RetryingBookingRepository) CountActive(ctx context.Context, gameID uuid.UUID) (int, error) {
	return withRetry(ctx, r.policy, r.log, "repository.booking.count", func() (int, error) {
		return r.next.CountActive(ctx, gameID)
	})
}

func (r *RetryingBookingRepository) ListByGame(ctx context.Context, gameID uuid.UUID) ([]*domain.Booking, error) {
	return withRetry(ctx, r.policy, r.log, "repository.booking.listByGame", func() ([]*domain.Booking, error) {
		return r.next.ListByGame(ctx, gameID)
	})
}

func (r *RetryingBookingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Booking, error) {
	return withRetry(ctx, r.policy, r.log, "repository.booking.listByUser", func() ([]*domain.Booking, error) {
		return r.next.ListByUser(ctx, userID)
	})
}

func (r *RetryingBookingRepository) CreateWithinCapacity(ctx context.Context, booking *domain.Booking) (int, error) {
	return withRetry(ctx, r.policy, r.log, "repository.booking.create", func() (int, error) {
		return r.next.CreateWithinCapacity(ctx, booking)
	})
}

func (r *RetryingBookingRepository) DeleteAndRelease(ctx context.Context, id uuid.UUID) (*domain.Booking, int, error) {
	type result struct {
		booking   *domain.Booking
		remaining int
	}
	res, err := withRetry(ctx, r.policy, r.log, "repository.booking.delete", func() (result, error) {
		b, n, err := r.next.DeleteAndRelease(ctx, id)
		return result{booking: b, remaining: n}, err
	})
	return res.booking, res.remaining, err
}

func (r *RetryingBookingRepository) RebuildParticipants(ctx context.Context, gameID uuid.UUID) ([]uuid.UUID, error) {
	return withRetry(ctx, r.policy, r.log, "repository.booking.rebuild", func() ([]uuid.UUID, error) {
		return r.next.RebuildParticipants(ctx, gameID)
	})
}

type RetryingUserRepository struct {
	next   UserRepository
	policy RetryPolicy
	log    *slog.Logger
}

func NewRetryingUserRepository(next UserRepository, policy RetryPolicy, log *slog.Logger) *RetryingUserRepository {
	if log == nil {
		log = slog.Default()
	}
	return &RetryingUserRepository{next: next, policy: policy, log: log}
}

func (r *RetryingUserRepository) Create(ctx context.Context, user *domain.User) error {
	return retryErr(ctx, r.policy, r.log, "repository.user.create", func() error {
		return r.next.Create(ctx, user)
	})
}

func (r *RetryingUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return withRetry(ctx, r.policy, r.log, "repository.user.get", func() (*domain.User, error) {
		return r.next.GetByID(ctx, id)
	})
}

func (r *RetryingUserRepository) Update(ctx context.Context, user *domain.User) error {
	return retryErr(ctx, r.policy, r.log, "repository.user.update", func() error {
		return r.next.Update(ctx, user)
	})
}
