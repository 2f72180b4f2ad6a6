package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/playbud/booking/internal/domain"
	"github.com/playbud/booking/internal/repository/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresGameRepository struct {
	db *gorm.DB
}

func NewPostgresGameRepository(db *gorm.DB) *PostgresGameRepository {
	return &PostgresGameRepository{db: db}
}

func (r *PostgresGameRepository) Create(ctx context.Context, game *domain.Game) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if game == nil {
		return errors.New("game is nil")
	}

	return classify(r.db.WithContext(ctx).Create(toModelGame(game)).Error)
}

func (r *PostgresGameRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var game model.Game
	err := r.db.WithContext(ctx).First(&game, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, classify(err)
	}

	return toDomainGame(&game), nil
}

func (r *PostgresGameRepository) List(ctx context.Context, limit int) ([]*domain.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var games []model.Game
	if err := query.Find(&games).Error; err != nil {
		return nil, classify(err)
	}

	return toDomainGames(games), nil
}

func (r *PostgresGameRepository) ListOwned(ctx context.Context, userID uuid.UUID, organiserID *uuid.UUID) ([]*domain.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).Where("created_by_user_id = ?", userID)
	if organiserID != nil {
		query = query.Or("organiser_id = ?", *organiserID)
	}

	var games []model.Game
	err := query.Order("created_at DESC").Find(&games).Error
	if err != nil {
		return nil, classify(err)
	}

	return toDomainGames(games), nil
}

func (r *PostgresGameRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.GameStatus) (*domain.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var game model.Game
	err := r.db.WithContext(ctx).Model(&game).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     string(status),
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return nil, classify(err)
	}
	if game.ID == uuid.Nil {
		return nil, ErrGameNotFound
	}

	return toDomainGame(&game), nil
}

type PostgresBookingRepository struct {
	db *gorm.DB
}

func NewPostgresBookingRepository(db *gorm.DB) *PostgresBookingRepository {
	return &PostgresBookingRepository{db: db}
}

func (r *PostgresBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return r.first(ctx, "id = ?", id)
}

func (r *PostgresBookingRepository) GetByGameAndUser(ctx context.Context, gameID, userID uuid.UUID) (*domain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return r.first(ctx, "game_id = ? AND user_id = ?", gameID, userID)
}

func (r *PostgresBookingRepository) CountActive(ctx context.Context, gameID uuid.UUID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Booking{}).Where("game_id = ?", gameID).Count(&count).Error; err != nil {
		return 0, classify(err)
	}
	return int(count), nil
}

func (r *PostgresBookingRepository) ListByGame(ctx context.Context, gameID uuid.UUID) ([]*domain.Booking, error) {
	return r.list(ctx, "joined_at ASC", "game_id = ?", gameID)
}

func (r *PostgresBookingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Booking, error) {
	return r.list(ctx, "joined_at DESC", "user_id = ?", userID)
}

// CreateWithinCapacity holds the game row lock for the whole check-and-insert
// so concurrent joins on one game queue behind each other.
func (r *PostgresBookingRepository) CreateWithinCapacity(ctx context.Context, booking *domain.Booking) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if booking == nil {
		return 0, errors.New("booking is nil")
	}

	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		game, err := lockGame(tx, booking.GameID)
		if err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&model.Booking{}).
			Where("game_id = ? AND user_id = ?", booking.GameID, booking.UserID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrBookingExists
		}

		if err := tx.Model(&model.Booking{}).Where("game_id = ?", booking.GameID).Count(&count).Error; err != nil {
			return err
		}
		if !domain.Admits(int(count), game.Players) {
			return ErrGameFull
		}

		if err := tx.Create(toModelBooking(booking)).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrBookingExists
			}
			return err
		}
		count++

		ids := domain.AppendParticipant(game.ParticipantUserIDs, booking.UserID)
		return saveParticipants(tx, game.ID, ids)
	})
	if err != nil {
		return 0, classify(err)
	}

	return int(count), nil
}

func (r *PostgresBookingRepository) DeleteAndRelease(ctx context.Context, id uuid.UUID) (*domain.Booking, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	var remaining int64
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		game, err := lockGame(tx, existing.GameID)
		if err != nil && !errors.Is(err, ErrGameNotFound) {
			return err
		}

		res := tx.Delete(&model.Booking{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrBookingNotFound
		}

		if err := tx.Model(&model.Booking{}).Where("game_id = ?", existing.GameID).Count(&remaining).Error; err != nil {
			return err
		}

		if game == nil || !domain.HasParticipant(game.ParticipantUserIDs, existing.UserID) {
			return nil
		}
		ids := domain.RemoveParticipant(game.ParticipantUserIDs, existing.UserID)
		return saveParticipants(tx, game.ID, ids)
	})
	if err != nil {
		return nil, 0, classify(err)
	}

	return existing, int(remaining), nil
}

func (r *PostgresBookingRepository) RebuildParticipants(ctx context.Context, gameID uuid.UUID) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockGame(tx, gameID); err != nil {
			return err
		}

		var bookings []model.Booking
		if err := tx.Where("game_id = ?", gameID).Order("joined_at ASC").Find(&bookings).Error; err != nil {
			return err
		}

		ids = domain.ParticipantsFromBookings(toDomainBookings(bookings))
		return saveParticipants(tx, gameID, ids)
	})
	if err != nil {
		return nil, classify(err)
	}

	return ids, nil
}

func (r *PostgresBookingRepository) first(ctx context.Context, query string, args ...any) (*domain.Booking, error) {
	var booking model.Booking
	err := r.db.WithContext(ctx).Where(query, args...).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, classify(err)
	}
	return toDomainBooking(&booking), nil
}

func (r *PostgresBookingRepository) list(ctx context.Context, order string, query string, args ...any) ([]*domain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var bookings []model.Booking
	if err := r.db.WithContext(ctx).Where(query, args...).Order(order).Find(&bookings).Error; err != nil {
		return nil, classify(err)
	}
	return toDomainBookings(bookings), nil
}

func lockGame(tx *gorm.DB, id uuid.UUID) (*domain.Game, error) {
	var game model.Game
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&game, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return toDomainGame(&game), nil
}

func saveParticipants(tx *gorm.DB, gameID uuid.UUID, ids []uuid.UUID) error {
	return tx.Model(&model.Game{}).Where("id = ?", gameID).Updates(map[string]any{
		"participant_user_ids": datatypes.NewJSONSlice(ids),
		"updated_at":           time.Now().UTC(),
	}).Error
}

type PostgresUserRepository struct {
	db *gorm.DB
}

func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return errors.New("user is nil")
	}

	if err := r.db.WithContext(ctx).Create(toModelUser(user)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserEmailExists
		}
		return classify(err)
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user model.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, classify(err)
	}

	return toDomainUser(&user), nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return errors.New("user is nil")
	}

	userModel := toModelUser(user)

	updateData := map[string]any{
		"name":       userModel.Name,
		"avatar_url": userModel.AvatarURL,
		"updated_at": userModel.UpdatedAt,
	}

	if userModel.Email == nil {
		updateData["email"] = gorm.Expr("NULL")
	} else {
		updateData["email"] = userModel.Email
	}

	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userModel.ID).Updates(updateData)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return ErrUserEmailExists
		}
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

type PostgresOrganizerRepository struct {
	db *gorm.DB
}

func NewPostgresOrganizerRepository(db *gorm.DB) *PostgresOrganizerRepository {
	return &PostgresOrganizerRepository{db: db}
}

func (r *PostgresOrganizerRepository) Create(ctx context.Context, organizer *domain.Organizer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return classify(r.db.WithContext(ctx).Create(&model.Organizer{
		ID:        organizer.ID,
		UserID:    organizer.UserID,
		Name:      organizer.Name,
		CreatedAt: organizer.CreatedAt.UTC(),
	}).Error)
}

func (r *PostgresOrganizerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Organizer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return r.first(ctx, "id = ?", id)
}

func (r *PostgresOrganizerRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Organizer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return r.first(ctx, "user_id = ?", userID)
}

func (r *PostgresOrganizerRepository) first(ctx context.Context, query string, args ...any) (*domain.Organizer, error) {
	var organizer model.Organizer
	err := r.db.WithContext(ctx).Where(query, args...).First(&organizer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizerNotFound
		}
		return nil, classify(err)
	}

	return &domain.Organizer{
		ID:        organizer.ID,
		UserID:    organizer.UserID,
		Name:      organizer.Name,
		CreatedAt: organizer.CreatedAt.UTC(),
	}, nil
}

type PostgresReminderRepository struct {
	db *gorm.DB
}

func NewPostgresReminderRepository(db *gorm.DB) *PostgresReminderRepository {
	return &PostgresReminderRepository{db: db}
}

func (r *PostgresReminderRepository) Schedule(ctx context.Context, reminder *domain.Reminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return classify(r.db.WithContext(ctx).Create(toModelReminder(reminder)).Error)
}

// ClaimDue skips rows another worker already locked, so parallel workers
// split the due set instead of racing for it.
func (r *PostgresReminderRepository) ClaimDue(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]*domain.Reminder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var claimed []model.Reminder
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? AND due_at <= ?", string(domain.ReminderStatusPending), now).
			Where("lease_until IS NULL OR lease_until <= ?", now).
			Order("due_at ASC").
			Limit(limit).
			Find(&claimed).Error
		if err != nil || len(claimed) == 0 {
			return err
		}

		ids := make([]uuid.UUID, 0, len(claimed))
		leaseUntil := now.Add(lease)
		for i := range claimed {
			ids = append(ids, claimed[i].ID)
			claimed[i].LeaseUntil = &leaseUntil
		}

		return tx.Model(&model.Reminder{}).Where("id IN ?", ids).Updates(map[string]any{
			"lease_until": leaseUntil,
			"updated_at":  now,
		}).Error
	})
	if err != nil {
		return nil, classify(err)
	}

	result := make([]*domain.Reminder, 0, len(claimed))
	for i := range claimed {
		result = append(result, toDomainReminder(&claimed[i]))
	}
	return result, nil
}

func (r *PostgresReminderRepository) MarkSent(ctx context.Context, id uuid.UUID, attempts int, at time.Time) error {
	return r.update(ctx, id, map[string]any{
		"status":      string(domain.ReminderStatusSent),
		"attempts":    attempts,
		"lease_until": gorm.Expr("NULL"),
		"updated_at":  at,
	})
}

func (r *PostgresReminderRepository) MarkRetry(ctx context.Context, id uuid.UUID, attempts int, nextDue time.Time, lastErr string) error {
	return r.update(ctx, id, map[string]any{
		"attempts":    attempts,
		"due_at":      nextDue,
		"last_error":  lastErr,
		"lease_until": gorm.Expr("NULL"),
		"updated_at":  time.Now().UTC(),
	})
}

func (r *PostgresReminderRepository) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string) error {
	return r.update(ctx, id, map[string]any{
		"status":      string(domain.ReminderStatusFailed),
		"attempts":    attempts,
		"last_error":  lastErr,
		"lease_until": gorm.Expr("NULL"),
		"updated_at":  time.Now().UTC(),
	})
}

func (r *PostgresReminderRepository) update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Model(&model.Reminder{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrReminderNotFound
	}
	return nil
}

type PostgresMilestoneRepository struct {
	db *gorm.DB
}

func NewPostgresMilestoneRepository(db *gorm.DB) *PostgresMilestoneRepository {
	return &PostgresMilestoneRepository{db: db}
}

func (r *PostgresMilestoneRepository) MarkReached(ctx context.Context, gameID uuid.UUID, milestone domain.Milestone) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.MilestoneMark{
			GameID:    gameID,
			Milestone: string(milestone),
			CreatedAt: time.Now().UTC(),
		})
	if res.Error != nil {
		return false, classify(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func toModelGame(game *domain.Game) *model.Game {
	ids := game.ParticipantUserIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return &model.Game{
		ID:                 game.ID,
		OrganiserID:        game.OrganiserID,
		CreatedByUserID:    game.CreatedByUserID,
		Name:               game.Name,
		Venue:              game.Venue,
		CitySlug:           game.CitySlug,
		SportCode:          game.SportCode,
		Date:               game.Date,
		StartTime:          game.StartTime.String(),
		EndTime:            game.EndTime.String(),
		Skill:              game.Skill,
		Gender:             game.Gender,
		Players:            game.Players,
		Description:        optionalString(game.Description),
		Rules:              optionalString(game.Rules),
		Frequency:          game.Frequency,
		Price:              game.Price,
		IsPrivate:          game.IsPrivate,
		Cancellation:       game.Cancellation,
		TeamSheet:          game.TeamSheet,
		Status:             string(game.Status),
		ParticipantUserIDs: datatypes.NewJSONSlice(ids),
		CreatedAt:          game.CreatedAt.UTC(),
		UpdatedAt:          game.UpdatedAt.UTC(),
	}
}

// toDomainGame tolerates malformed stored clock values by treating them as
// midnight, matching the permissive handling of the cancellation policy.
func toDomainGame(game *model.Game) *domain.Game {
	start, _ := domain.ParseTimeOfDay(game.StartTime)
	end, _ := domain.ParseTimeOfDay(game.EndTime)
	status := domain.GameStatus(game.Status)
	if status == "" {
		status = domain.GameStatusPending
	}

	return &domain.Game{
		ID:                 game.ID,
		OrganiserID:        game.OrganiserID,
		CreatedByUserID:    game.CreatedByUserID,
		Name:               game.Name,
		Venue:              game.Venue,
		CitySlug:           game.CitySlug,
		SportCode:          game.SportCode,
		Date:               game.Date,
		StartTime:          start,
		EndTime:            end,
		Skill:              game.Skill,
		Gender:             game.Gender,
		Players:            game.Players,
		Description:        derefString(game.Description),
		Rules:              derefString(game.Rules),
		Frequency:          game.Frequency,
		Price:              game.Price,
		IsPrivate:          game.IsPrivate,
		Cancellation:       game.Cancellation,
		TeamSheet:          game.TeamSheet,
		Status:             status,
		ParticipantUserIDs: append([]uuid.UUID{}, game.ParticipantUserIDs...),
		CreatedAt:          game.CreatedAt.UTC(),
		UpdatedAt:          game.UpdatedAt.UTC(),
	}
}

func toDomainGames(games []model.Game) []*domain.Game {
	result := make([]*domain.Game, 0, len(games))
	for i := range games {
		result = append(result, toDomainGame(&games[i]))
	}
	return result
}

func toModelBooking(booking *domain.Booking) *model.Booking {
	return &model.Booking{
		ID:       booking.ID,
		GameID:   booking.GameID,
		UserID:   booking.UserID,
		JoinedAt: booking.JoinedAt.UTC(),
		Notes:    optionalString(booking.Notes),
	}
}

func toDomainBooking(booking *model.Booking) *domain.Booking {
	return &domain.Booking{
		ID:       booking.ID,
		GameID:   booking.GameID,
		UserID:   booking.UserID,
		JoinedAt: booking.JoinedAt.UTC(),
		Notes:    derefString(booking.Notes),
	}
}

func toDomainBookings(bookings []model.Booking) []*domain.Booking {
	result := make([]*domain.Booking, 0, len(bookings))
	for i := range bookings {
		result = append(result, toDomainBooking(&bookings[i]))
	}
	return result
}

func toModelUser(user *domain.User) *model.User {
	return &model.User{
		ID:        user.ID,
		Name:      user.Name,
		Email:     optionalString(user.Email),
		AvatarURL: optionalString(user.AvatarURL),
		CreatedAt: user.CreatedAt.UTC(),
		UpdatedAt: user.UpdatedAt.UTC(),
	}
}

func toDomainUser(user *model.User) *domain.User {
	return &domain.User{
		ID:        user.ID,
		Name:      user.Name,
		Email:     derefString(user.Email),
		AvatarURL: derefString(user.AvatarURL),
		CreatedAt: user.CreatedAt.UTC(),
		UpdatedAt: user.UpdatedAt.UTC(),
	}
}

func toModelReminder(reminder *domain.Reminder) *model.Reminder {
	return &model.Reminder{
		ID:             reminder.ID,
		GameID:         reminder.GameID,
		BookingID:      reminder.BookingID,
		RecipientID:    reminder.RecipientID,
		RecipientName:  reminder.RecipientName,
		RecipientEmail: reminder.RecipientEmail,
		DueAt:          reminder.DueAt.UTC(),
		Status:         string(reminder.Status),
		Attempts:       reminder.Attempts,
		LastError:      reminder.LastError,
		LeaseUntil:     reminder.LeaseUntil,
		CreatedAt:      reminder.CreatedAt.UTC(),
		UpdatedAt:      reminder.UpdatedAt.UTC(),
	}
}

func toDomainReminder(reminder *model.Reminder) *domain.Reminder {
	return &domain.Reminder{
		ID:             reminder.ID,
		GameID:         reminder.GameID,
		BookingID:      reminder.BookingID,
		RecipientID:    reminder.RecipientID,
		RecipientName:  reminder.RecipientName,
		RecipientEmail: reminder.RecipientEmail,
		DueAt:          reminder.DueAt.UTC(),
		Status:         domain.ReminderStatus(reminder.Status),
		Attempts:       reminder.Attempts,
		LastError:      reminder.LastError,
		LeaseUntil:     reminder.LeaseUntil,
		CreatedAt:      reminder.CreatedAt.UTC(),
		UpdatedAt:      reminder.UpdatedAt.UTC(),
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	v := s
	return &v
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
