package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playbud/booking/internal/domain"
	"github.com/playbud/booking/internal/repository/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const testDSNEnv = "BOOKING_TEST_DATABASE_DSN"

// openTestDB connects to the database named by BOOKING_TEST_DATABASE_DSN and
// skips the test when it is unset.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.All()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(16)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newPostgresGame(t *testing.T, db *gorm.DB, players int) *domain.Game {
	t.Helper()

	game := domain.NewGame(domain.GameDraft{
		Name:      "Thursday touch rugby",
		Venue:     "Clapham Common",
		CitySlug:  "london",
		SportCode: "rugby",
		Date:      time.Now().Add(72 * time.Hour).UTC().Truncate(24 * time.Hour),
		StartTime: domain.NewTimeOfDay(19, 0, 0, 0),
		EndTime:   domain.NewTimeOfDay(20, 30, 0, 0),
		Skill:     "Casual",
		Gender:    "Mixed",
		Players:   players,
		Frequency: "recurring",
	}, uuid.New())
	require.NoError(t, NewPostgresGameRepository(db).Create(context.Background(), game))

	t.Cleanup(func() {
		db.Where("game_id = ?", game.ID).Delete(&model.Booking{})
		db.Where("game_id = ?", game.ID).Delete(&model.Reminder{})
		db.Where("game_id = ?", game.ID).Delete(&model.MilestoneMark{})
		db.Where("id = ?", game.ID).Delete(&model.Game{})
	})
	return game
}

func TestPostgresCreateWithinCapacityConcurrent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	games := NewPostgresGameRepository(db)
	bookings := NewPostgresBookingRepository(db)
	game := newPostgresGame(t, db, 3)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		full    int
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := bookings.CreateWithinCapacity(ctx, domain.NewBooking(game.ID, uuid.New(), "", time.Now().UTC()))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case assert.ErrorIs(t, err, ErrGameFull):
				full++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, created)
	assert.Equal(t, 7, full)

	count, err := bookings.CountActive(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	stored, err := games.GetByID(ctx, game.ID)
	require.NoError(t, err)
	assert.Len(t, stored.ParticipantUserIDs, 3)
}

func TestPostgresBookingLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	games := NewPostgresGameRepository(db)
	bookings := NewPostgresBookingRepository(db)
	game := newPostgresGame(t, db, 4)
	userID := uuid.New()

	booking := domain.NewBooking(game.ID, userID, "bringing bibs", time.Now().UTC())
	count, err := bookings.CreateWithinCapacity(ctx, booking)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = bookings.CreateWithinCapacity(ctx, domain.NewBooking(game.ID, userID, "", time.Now().UTC()))
	assert.ErrorIs(t, err, ErrBookingExists)

	stored, err := bookings.GetByGameAndUser(ctx, game.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, stored.ID)
	assert.Equal(t, "bringing bibs", stored.Notes)

	_, err = bookings.CreateWithinCapacity(ctx, domain.NewBooking(uuid.New(), userID, "", time.Now().UTC()))
	assert.ErrorIs(t, err, ErrGameNotFound)

	removed, remaining, err := bookings.DeleteAndRelease(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, userID, removed.UserID)
	assert.Equal(t, 0, remaining)

	_, _, err = bookings.DeleteAndRelease(ctx, booking.ID)
	assert.ErrorIs(t, err, ErrBookingNotFound)

	after, err := games.GetByID(ctx, game.ID)
	require.NoError(t, err)
	assert.Empty(t, after.ParticipantUserIDs)
}

func TestPostgresRebuildParticipants(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	bookings := NewPostgresBookingRepository(db)
	game := newPostgresGame(t, db, 5)

	first := domain.NewBooking(game.ID, uuid.New(), "", time.Now().UTC().Add(-time.Minute))
	second := domain.NewBooking(game.ID, uuid.New(), "", time.Now().UTC())
	require.NoError(t, db.Create(toModelBooking(first)).Error)
	require.NoError(t, db.Create(toModelBooking(second)).Error)

	ids, err := bookings.RebuildParticipants(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first.UserID, second.UserID}, ids)

	stored, err := NewPostgresGameRepository(db).GetByID(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, ids, stored.ParticipantUserIDs)
}

func TestPostgresUpdateStatusReturnsRow(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	games := NewPostgresGameRepository(db)
	game := newPostgresGame(t, db, 6)

	updated, err := games.UpdateStatus(ctx, game.ID, domain.GameStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, game.ID, updated.ID)
	assert.Equal(t, domain.GameStatusConfirmed, updated.Status)
	assert.Equal(t, game.Name, updated.Name)

	_, err = games.UpdateStatus(ctx, uuid.New(), domain.GameStatusConfirmed)
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestPostgresMilestoneMarkedOnce(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	milestones := NewPostgresMilestoneRepository(db)
	game := newPostgresGame(t, db, 2)

	first, err := milestones.MarkReached(ctx, game.ID, domain.MilestoneFull)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := milestones.MarkReached(ctx, game.ID, domain.MilestoneFull)
	require.NoError(t, err)
	assert.False(t, again)

	half, err := milestones.MarkReached(ctx, game.ID, domain.MilestoneHalfFull)
	require.NoError(t, err)
	assert.True(t, half)
}

func TestPostgresClaimDue(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	reminders := NewPostgresReminderRepository(db)
	game := newPostgresGame(t, db, 8)

	// Far in the past so rows left by other tests never fall due here.
	now := time.Date(2001, 3, 4, 10, 0, 0, 0, time.UTC)
	recipient := domain.NewUser("Rae", "rae@example.com")
	due := domain.NewReminder(game.ID, recipient, now.Add(-time.Minute))
	later := domain.NewReminder(game.ID, recipient, now.Add(time.Hour))
	require.NoError(t, reminders.Schedule(ctx, due))
	require.NoError(t, reminders.Schedule(ctx, later))

	claimed, err := reminders.ClaimDue(ctx, now, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, due.ID, claimed[0].ID)
	require.NotNil(t, claimed[0].LeaseUntil)

	leased, err := reminders.ClaimDue(ctx, now, 10, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, leased)

	require.NoError(t, reminders.MarkRetry(ctx, due.ID, 1, now, "not delivered"))

	err = db.Transaction(func(tx *gorm.DB) error {
		var held model.Reminder
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&held, "id = ?", due.ID).Error; err != nil {
			return err
		}
		skipped, err := reminders.ClaimDue(ctx, now, 10, time.Minute)
		if err != nil {
			return err
		}
		if len(skipped) != 0 {
			return fmt.Errorf("claimed %d locked reminders", len(skipped))
		}
		return nil
	})
	require.NoError(t, err)

	reclaimed, err := reminders.ClaimDue(ctx, now, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, reclaimed, 1)
	assert.Equal(t, 1, reclaimed[0].Attempts)
	assert.Equal(t, "not delivered", reclaimed[0].LastError)

	require.NoError(t, reminders.MarkSent(ctx, due.ID, 2, now))
	assert.ErrorIs(t, reminders.MarkSent(ctx, uuid.New(), 1, now), ErrReminderNotFound)
}
