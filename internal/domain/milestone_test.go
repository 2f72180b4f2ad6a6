package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAdmits(t *testing.T) {
	assert.True(t, Admits(0, 1))
	assert.True(t, Admits(9, 10))
	assert.False(t, Admits(10, 10))
	assert.False(t, Admits(0, 0))
}

func TestMilestonesAt(t *testing.T) {
	cases := []struct {
		name    string
		count   int
		players int
		want    []Milestone
	}{
		{"single slot full", 1, 1, []Milestone{MilestoneFull}},
		{"pair half at one", 1, 2, []Milestone{MilestoneHalfFull}},
		{"pair full at two", 2, 2, []Milestone{MilestoneFull}},
		{"odd capacity rounds up", 3, 5, []Milestone{MilestoneHalfFull}},
		{"odd capacity below half", 2, 5, nil},
		{"ten half", 5, 10, []Milestone{MilestoneHalfFull}},
		{"ten full", 10, 10, []Milestone{MilestoneFull}},
		{"ten between", 7, 10, nil},
		{"no capacity", 0, 0, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MilestonesAt(tc.count, tc.players))
		})
	}
}

func TestAppendParticipantPreservesOrder(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	ids := AppendParticipant(nil, a)
	ids = AppendParticipant(ids, b)
	ids = AppendParticipant(ids, a)
	ids = AppendParticipant(ids, c)

	assert.Equal(t, []uuid.UUID{a, b, c}, ids)
}

func TestAppendParticipantCollapsesDrift(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	in := []uuid.UUID{a, b, a}

	ids := AppendParticipant(in, b)

	assert.Equal(t, []uuid.UUID{a, b}, ids)
	assert.Equal(t, []uuid.UUID{a, b, a}, in)
}

func TestRemoveParticipant(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	assert.Equal(t, []uuid.UUID{b}, RemoveParticipant([]uuid.UUID{a, b}, a))
	assert.Equal(t, []uuid.UUID{a, b}, RemoveParticipant([]uuid.UUID{a, b}, uuid.New()))
	assert.False(t, HasParticipant(RemoveParticipant([]uuid.UUID{a}, a), a))
}

func TestParticipantsFromBookings(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	bookings := []*Booking{{UserID: a}, {UserID: b}}

	assert.Equal(t, []uuid.UUID{a, b}, ParticipantsFromBookings(bookings))
	assert.Equal(t, []uuid.UUID{}, ParticipantsFromBookings(nil))
}
