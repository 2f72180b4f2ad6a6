package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playbud/booking/internal/domain"
)

type InMemoryGameRepository struct {
	mu    sync.RWMutex
	games map[uuid.UUID]*domain.Game
	locks map[uuid.UUID]*sync.Mutex
}

func NewInMemoryGameRepository() *InMemoryGameRepository {
	return &InMemoryGameRepository{
		games: make(map[uuid.UUID]*domain.Game),
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (r *InMemoryGameRepository) Create(ctx context.Context, game *domain.Game) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.games[game.ID] = game.Clone()
	r.locks[game.ID] = &sync.Mutex{}
	return nil
}

func (r *InMemoryGameRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	game, ok := r.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}

	return game.Clone(), nil
}

func (r *InMemoryGameRepository) List(ctx context.Context, limit int) ([]*domain.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	result := make([]*domain.Game, 0, len(r.games))
	for _, game := range r.games {
		result = append(result, game.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *InMemoryGameRepository) ListOwned(ctx context.Context, userID uuid.UUID, organiserID *uuid.UUID) ([]*domain.Game, error) {
	games, err := r.List(ctx, 0)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.Game, 0)
	for _, game := range games {
		created := game.CreatedByUserID != nil && *game.CreatedByUserID == userID
		organised := organiserID != nil && game.OrganiserID != nil && *game.OrganiserID == *organiserID
		if created || organised {
			result = append(result, game)
		}
	}
	return result, nil
}

func (r *InMemoryGameRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.GameStatus) (*domain.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	game, ok := r.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}

	game.Status = status
	game.UpdatedAt = time.Now().UTC()
	return game.Clone(), nil
}

// lockGame serializes booking mutations for one game.
func (r *InMemoryGameRepository) lockGame(id uuid.UUID) (func(), bool) {
	r.mu.RLock()
	lock, ok := r.locks[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}

	lock.Lock()
	return lock.Unlock, true
}

func (r *InMemoryGameRepository) setParticipants(id uuid.UUID, update func([]uuid.UUID) []uuid.UUID) ([]uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	game, ok := r.games[id]
	if !ok {
		return nil, false
	}

	game.ParticipantUserIDs = update(game.ParticipantUserIDs)
	game.UpdatedAt = time.Now().UTC()
	return append([]uuid.UUID{}, game.ParticipantUserIDs...), true
}

type InMemoryBookingRepository struct {
	games    *InMemoryGameRepository
	mu       sync.RWMutex
	bookings map[uuid.UUID]*domain.Booking
}

func NewInMemoryBookingRepository(games *InMemoryGameRepository) *InMemoryBookingRepository {
	return &InMemoryBookingRepository{
		games:    games,
		bookings: make(map[uuid.UUID]*domain.Booking),
	}
}

func (r *InMemoryBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	booking, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}

	b := *booking
	return &b, nil
}

func (r *InMemoryBookingRepository) GetByGameAndUser(ctx context.Context, gameID, userID uuid.UUID) (*domain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if booking := r.findLocked(gameID, userID); booking != nil {
		b := *booking
		return &b, nil
	}
	return nil, ErrBookingNotFound
}

func (r *InMemoryBookingRepository) CountActive(ctx context.Context, gameID uuid.UUID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.countLocked(gameID), nil
}

func (r *InMemoryBookingRepository) ListByGame(ctx context.Context, gameID uuid.UUID) ([]*domain.Booking, error) {
	result, err := r.filter(ctx, func(b *domain.Booking) bool { return b.GameID == gameID })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].JoinedAt.Before(result[j].JoinedAt)
	})
	return result, nil
}

func (r *InMemoryBookingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Booking, error) {
	result, err := r.filter(ctx, func(b *domain.Booking) bool { return b.UserID == userID })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].JoinedAt.After(result[j].JoinedAt)
	})
	return result, nil
}

func (r *InMemoryBookingRepository) CreateWithinCapacity(ctx context.Context, booking *domain.Booking) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	unlock, ok := r.games.lockGame(booking.GameID)
	if !ok {
		return 0, ErrGameNotFound
	}
	defer unlock()

	game, err := r.games.GetByID(ctx, booking.GameID)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	if r.findLocked(booking.GameID, booking.UserID) != nil {
		r.mu.Unlock()
		return 0, ErrBookingExists
	}
	count := r.countLocked(booking.GameID)
	if !domain.Admits(count, game.Players) {
		r.mu.Unlock()
		return 0, ErrGameFull
	}
	b := *booking
	r.bookings[b.ID] = &b
	r.mu.Unlock()

	r.games.setParticipants(booking.GameID, func(ids []uuid.UUID) []uuid.UUID {
		return domain.AppendParticipant(ids, booking.UserID)
	})

	return count + 1, nil
}

func (r *InMemoryBookingRepository) DeleteAndRelease(ctx context.Context, id uuid.UUID) (*domain.Booking, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	r.mu.RLock()
	existing, ok := r.bookings[id]
	r.mu.RUnlock()
	if !ok {
		return nil, 0, ErrBookingNotFound
	}
	gameID := existing.GameID

	if unlock, ok := r.games.lockGame(gameID); ok {
		defer unlock()
	}

	r.mu.Lock()
	booking, ok := r.bookings[id]
	if !ok {
		r.mu.Unlock()
		return nil, 0, ErrBookingNotFound
	}
	delete(r.bookings, id)
	remaining := r.countLocked(gameID)
	r.mu.Unlock()

	r.games.setParticipants(gameID, func(ids []uuid.UUID) []uuid.UUID {
		return domain.RemoveParticipant(ids, booking.UserID)
	})

	b := *booking
	return &b, remaining, nil
}

func (r *InMemoryBookingRepository) RebuildParticipants(ctx context.Context, gameID uuid.UUID) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock, ok := r.games.lockGame(gameID)
	if !ok {
		return nil, ErrGameNotFound
	}
	defer unlock()

	bookings, err := r.ListByGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	ids, ok := r.games.setParticipants(gameID, func([]uuid.UUID) []uuid.UUID {
		return domain.ParticipantsFromBookings(bookings)
	})
	if !ok {
		return nil, ErrGameNotFound
	}
	return ids, nil
}

func (r *InMemoryBookingRepository) filter(ctx context.Context, keep func(*domain.Booking) bool) ([]*domain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Booking, 0)
	for _, booking := range r.bookings {
		if keep(booking) {
			b := *booking
			result = append(result, &b)
		}
	}
	return result, nil
}

func (r *InMemoryBookingRepository) findLocked(gameID, userID uuid.UUID) *domain.Booking {
	for _, booking := range r.bookings {
		if booking.GameID == gameID && booking.UserID == userID {
			return booking
		}
	}
	return nil
}

func (r *InMemoryBookingRepository) countLocked(gameID uuid.UUID) int {
	count := 0
	for _, booking := range r.bookings {
		if booking.GameID == gameID {
			count++
		}
	}
	return count
}

type InMemoryUserRepository struct {
	mu     sync.RWMutex
	users  map[uuid.UUID]*domain.User
	emails map[string]uuid.UUID
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users:  make(map[uuid.UUID]*domain.User),
		emails: make(map[string]uuid.UUID),
	}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if user.Email != "" {
		if _, ok := r.emails[user.Email]; ok {
			return ErrUserEmailExists
		}
		r.emails[user.Email] = user.ID
	}

	u := *user
	r.users[user.ID] = &u
	return nil
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	u := *user
	return &u, nil
}

func (r *InMemoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		return ErrUserNotFound
	}
	if user.Email != "" && user.Email != existing.Email {
		if owner, taken := r.emails[user.Email]; taken && owner != user.ID {
			return ErrUserEmailExists
		}
		delete(r.emails, existing.Email)
		r.emails[user.Email] = user.ID
	}

	u := *user
	r.users[user.ID] = &u
	return nil
}

type InMemoryOrganizerRepository struct {
	mu         sync.RWMutex
	organizers map[uuid.UUID]*domain.Organizer
}

func NewInMemoryOrganizerRepository() *InMemoryOrganizerRepository {
	return &InMemoryOrganizerRepository{organizers: make(map[uuid.UUID]*domain.Organizer)}
}

func (r *InMemoryOrganizerRepository) Create(ctx context.Context, organizer *domain.Organizer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	o := *organizer
	r.organizers[organizer.ID] = &o
	return nil
}

func (r *InMemoryOrganizerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Organizer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	organizer, ok := r.organizers[id]
	if !ok {
		return nil, ErrOrganizerNotFound
	}

	o := *organizer
	return &o, nil
}

func (r *InMemoryOrganizerRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Organizer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, organizer := range r.organizers {
		if organizer.UserID == userID {
			o := *organizer
			return &o, nil
		}
	}
	return nil, ErrOrganizerNotFound
}

type InMemoryReminderRepository struct {
	mu        sync.Mutex
	reminders map[uuid.UUID]*domain.Reminder
}

func NewInMemoryReminderRepository() *InMemoryReminderRepository {
	return &InMemoryReminderRepository{reminders: make(map[uuid.UUID]*domain.Reminder)}
}

func (r *InMemoryReminderRepository) Schedule(ctx context.Context, reminder *domain.Reminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rem := *reminder
	r.reminders[reminder.ID] = &rem
	return nil
}

func (r *InMemoryReminderRepository) ClaimDue(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]*domain.Reminder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	due := make([]*domain.Reminder, 0)
	for _, rem := range r.reminders {
		if rem.Status != domain.ReminderStatusPending || rem.DueAt.After(now) {
			continue
		}
		if rem.LeaseUntil != nil && rem.LeaseUntil.After(now) {
			continue
		}
		due = append(due, rem)
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].DueAt.Before(due[j].DueAt)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	leaseUntil := now.Add(lease)
	result := make([]*domain.Reminder, 0, len(due))
	for _, rem := range due {
		until := leaseUntil
		rem.LeaseUntil = &until
		rem.UpdatedAt = now
		c := *rem
		result = append(result, &c)
	}
	return result, nil
}

func (r *InMemoryReminderRepository) MarkSent(ctx context.Context, id uuid.UUID, attempts int, at time.Time) error {
	return r.update(ctx, id, func(rem *domain.Reminder) {
		rem.Status = domain.ReminderStatusSent
		rem.Attempts = attempts
		rem.LeaseUntil = nil
		rem.UpdatedAt = at
	})
}

func (r *InMemoryReminderRepository) MarkRetry(ctx context.Context, id uuid.UUID, attempts int, nextDue time.Time, lastErr string) error {
	return r.update(ctx, id, func(rem *domain.Reminder) {
		rem.Attempts = attempts
		rem.DueAt = nextDue
		rem.LastError = lastErr
		rem.LeaseUntil = nil
		rem.UpdatedAt = time.Now().UTC()
	})
}

func (r *InMemoryReminderRepository) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string) error {
	return r.update(ctx, id, func(rem *domain.Reminder) {
		rem.Status = domain.ReminderStatusFailed
		rem.Attempts = attempts
		rem.LastError = lastErr
		rem.LeaseUntil = nil
		rem.UpdatedAt = time.Now().UTC()
	})
}

// Get returns a copy of the stored reminder.
func (r *InMemoryReminderRepository) Get(id uuid.UUID) (*domain.Reminder, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rem, ok := r.reminders[id]
	if !ok {
		return nil, false
	}
	c := *rem
	return &c, true
}

// All returns copies of every stored reminder ordered by due time.
func (r *InMemoryReminderRepository) All() []*domain.Reminder {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*domain.Reminder, 0, len(r.reminders))
	for _, rem := range r.reminders {
		c := *rem
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DueAt.Before(result[j].DueAt)
	})
	return result
}

func (r *InMemoryReminderRepository) update(ctx context.Context, id uuid.UUID, fn func(*domain.Reminder)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rem, ok := r.reminders[id]
	if !ok {
		return ErrReminderNotFound
	}
	fn(rem)
	return nil
}

type InMemoryMilestoneRepository struct {
	mu     sync.Mutex
	marked map[uuid.UUID]map[domain.Milestone]struct{}
}

func NewInMemoryMilestoneRepository() *InMemoryMilestoneRepository {
	return &InMemoryMilestoneRepository{marked: make(map[uuid.UUID]map[domain.Milestone]struct{})}
}

func (r *InMemoryMilestoneRepository) MarkReached(ctx context.Context, gameID uuid.UUID, milestone domain.Milestone) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	marks, ok := r.marked[gameID]
	if !ok {
		marks = make(map[domain.Milestone]struct{})
		r.marked[gameID] = marks
	}
	if _, done := marks[milestone]; done {
		return false, nil
	}
	marks[milestone] = struct{}{}
	return true, nil
}
