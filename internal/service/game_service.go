package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/playbud/booking/internal/domain"
	"github.com/playbud/booking/internal/repository"
	"github.com/playbud/booking/lib/logger/sl"
)

const (
	DefaultGameListLimit = 50
	MaxGameListLimit     = 500
)

type GameService struct {
	games      repository.GameRepository
	organizers repository.OrganizerRepository
	effects    *Notifier
	log        *slog.Logger
}

func NewGameService(games repository.GameRepository, organizers repository.OrganizerRepository, effects *Notifier, log *slog.Logger) *GameService {
	if log == nil {
		log = slog.Default()
	}
	return &GameService{games: games, organizers: organizers, effects: effects, log: log}
}

func (s *GameService) CreateGame(ctx context.Context, draft domain.GameDraft, creatorID uuid.UUID) (*domain.Game, error) {
	const op = "service.game.create"
	log := s.log.With(slog.String("op", op), slog.String("creator_id", creatorID.String()))

	if creatorID == uuid.Nil {
		return nil, domain.Validation("creator is required")
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	if draft.OrganiserID != nil {
		if _, err := s.organizers.GetByID(ctx, *draft.OrganiserID); err != nil {
			if errors.Is(err, repository.ErrOrganizerNotFound) {
				return nil, domain.NotFound("Organiser not found.")
			}
			return nil, storageErr(op, err)
		}
	}

	game := domain.NewGame(draft, creatorID)
	if err := s.games.Create(ctx, game); err != nil {
		log.Error("failed to create game", sl.Err(err))
		return nil, storageErr(op, err)
	}

	log.Info("game created", slog.String("game_id", game.ID.String()), slog.Int("players", game.Players))

	if s.effects != nil {
		s.effects.GameCreated(context.WithoutCancel(ctx), game)
	}
	return game, nil
}

// ListGames returns the newest games. The status filter applies to the
// limited page, so a filtered page may hold fewer than limit games.
func (s *GameService) ListGames(ctx context.Context, limit int, status domain.GameStatus) ([]*domain.Game, error) {
	const op = "service.game.list"

	if status != "" && !status.Valid() {
		return nil, domain.Validation("Unknown game status.")
	}
	if limit <= 0 {
		limit = DefaultGameListLimit
	}
	limit = min(limit, MaxGameListLimit)

	games, err := s.games.List(ctx, limit)
	if err != nil {
		s.log.Error("failed to list games", slog.String("op", op), sl.Err(err))
		return nil, storageErr(op, err)
	}
	if status == "" {
		return games, nil
	}

	filtered := make([]*domain.Game, 0, len(games))
	for _, game := range games {
		if game.Status == status {
			filtered = append(filtered, game)
		}
	}
	return filtered, nil
}

func (s *GameService) GetGame(ctx context.Context, id uuid.UUID) (*domain.Game, error) {
	const op = "service.game.get"

	game, err := s.games.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			return nil, domain.NotFound(msgGameNotFound)
		}
		return nil, storageErr(op, err)
	}
	return game, nil
}

func (s *GameService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.GameStatus) (*domain.Game, error) {
	const op = "service.game.updateStatus"
	log := s.log.With(slog.String("op", op), slog.String("game_id", id.String()))

	if !status.Valid() {
		return nil, domain.Validation("Unknown game status.")
	}

	game, err := s.games.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			return nil, domain.NotFound(msgGameNotFound)
		}
		log.Error("failed to update status", sl.Err(err))
		return nil, storageErr(op, err)
	}

	log.Info("game status updated", slog.String("status", string(status)))

	if s.effects != nil {
		s.effects.GameStatusChanged(context.WithoutCancel(ctx), game)
	}
	return game, nil
}

// ListCreatedGames returns games the user created or organises.
func (s *GameService) ListCreatedGames(ctx context.Context, userID uuid.UUID) ([]*domain.Game, error) {
	const op = "service.game.listCreated"

	var organiserID *uuid.UUID
	organizer, err := s.organizers.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		organiserID = &organizer.ID
	case !errors.Is(err, repository.ErrOrganizerNotFound):
		return nil, storageErr(op, err)
	}

	games, err := s.games.ListOwned(ctx, userID, organiserID)
	if err != nil {
		s.log.Error("failed to list created games", slog.String("op", op), sl.Err(err))
		return nil, storageErr(op, err)
	}
	return games, nil
}
