package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playbud/booking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminService(f *fixture) *AdminService {
	return NewAdminService(newGameService(f), f.svc, f.users, f.organizers, discard)
}

func TestAdminGameDetail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "Mika")
	game := f.game(t, 8, 72*time.Hour, "", owner)
	player := f.user(t, "Noor")
	_, err := f.svc.Join(ctx, game.ID, player.ID, "")
	require.NoError(t, err)

	detail, err := newAdminService(f).GameDetail(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, game.ID, detail.Game.ID)
	require.NotNil(t, detail.Creator)
	assert.Equal(t, owner.ID, detail.Creator.ID)
	assert.Nil(t, detail.Organizer)
	require.Len(t, detail.Participants, 1)
	assert.Equal(t, "Noor", detail.Participants[0].Name)
}

func TestAdminGameDetailMissingPeople(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	draft := draftAt(f.clock().Add(72 * time.Hour))
	organiserID := uuid.New()
	draft.OrganiserID = &organiserID
	game := domain.NewGame(draft, uuid.New())
	require.NoError(t, f.games.Create(ctx, game))

	detail, err := newAdminService(f).GameDetail(ctx, game.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.Creator)
	assert.Nil(t, detail.Organizer)
	assert.Empty(t, detail.Participants)

	_, err = newAdminService(f).GameDetail(ctx, uuid.New())
	requireKind(t, err, domain.KindNotFound, "Game not found.")
}

func TestAdminListGamesFiltersStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "Oli")
	f.game(t, 8, 72*time.Hour, "", owner)
	confirmed := f.game(t, 8, 96*time.Hour, "", owner)
	_, err := f.games.UpdateStatus(ctx, confirmed.ID, domain.GameStatusConfirmed)
	require.NoError(t, err)

	all, err := newAdminService(f).ListGames(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	only, err := newAdminService(f).ListGames(ctx, domain.GameStatusConfirmed)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, confirmed.ID, only[0].ID)
}
