package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() GameDraft {
	return GameDraft{
		Name:      "Tuesday Padel",
		Venue:     "Canary Wharf Courts",
		CitySlug:  "london",
		SportCode: "padel",
		Date:      time.Date(2026, 7, 7, 0, 0, 0, 0, time.UTC),
		StartTime: NewTimeOfDay(18, 0, 0, 0),
		EndTime:   NewTimeOfDay(19, 30, 0, 0),
		Skill:     "Intermediate",
		Gender:    "Mixed",
		Players:   4,
		Frequency: "one-off",
	}
}

func TestGameDraftValidate(t *testing.T) {
	negative := -1.0
	cases := []struct {
		name   string
		mutate func(*GameDraft)
		reason string
	}{
		{name: "valid", mutate: func(*GameDraft) {}},
		{name: "blank name", mutate: func(d *GameDraft) { d.Name = "   " }, reason: "name is required"},
		{name: "long sport", mutate: func(d *GameDraft) { d.SportCode = string(make([]byte, 41)) }, reason: "sport_code must be at most 40 characters"},
		{name: "no date", mutate: func(d *GameDraft) { d.Date = time.Time{} }, reason: "date is required"},
		{name: "gender", mutate: func(d *GameDraft) { d.Gender = "Any" }, reason: "gender must be one of Male, Female, Mixed"},
		{name: "frequency", mutate: func(d *GameDraft) { d.Frequency = "weekly" }, reason: "frequency must be one-off or recurring"},
		{name: "zero players", mutate: func(d *GameDraft) { d.Players = 0 }, reason: "players must be between 1 and 200"},
		{name: "too many players", mutate: func(d *GameDraft) { d.Players = 201 }, reason: "players must be between 1 and 200"},
		{name: "negative price", mutate: func(d *GameDraft) { d.Price = &negative }, reason: "price must not be negative"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validDraft()
			tc.mutate(&d)
			err := d.Validate()
			if tc.reason == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
			assert.Equal(t, tc.reason, Reason(err))
		})
	}
}

func TestNewGameDefaults(t *testing.T) {
	creator := uuid.New()
	game := NewGame(validDraft(), creator)

	assert.Equal(t, GameStatusPending, game.Status)
	assert.Equal(t, DefaultCancellationPolicy, game.Cancellation)
	assert.NotNil(t, game.ParticipantUserIDs)
	assert.Empty(t, game.ParticipantUserIDs)
	require.NotNil(t, game.CreatedByUserID)
	assert.Equal(t, creator, *game.CreatedByUserID)
}

func TestGameCloneIsDeep(t *testing.T) {
	price := 5.0
	game := NewGame(validDraft(), uuid.New())
	game.Price = &price
	game.ParticipantUserIDs = []uuid.UUID{uuid.New()}

	c := game.Clone()
	c.ParticipantUserIDs[0] = uuid.New()
	*c.Price = 9

	assert.NotEqual(t, game.ParticipantUserIDs[0], c.ParticipantUserIDs[0])
	assert.Equal(t, 5.0, *game.Price)
}
