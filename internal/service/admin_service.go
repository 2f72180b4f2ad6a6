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

// AdminService backs the moderation views over every game.
type AdminService struct {
	games      GameInteractor
	bookings   BookingInteractor
	users      repository.UserRepository
	organizers repository.OrganizerRepository
	log        *slog.Logger
}

func NewAdminService(
	games GameInteractor,
	bookings BookingInteractor,
	users repository.UserRepository,
	organizers repository.OrganizerRepository,
	log *slog.Logger,
) *AdminService {
	if log == nil {
		log = slog.Default()
	}
	return &AdminService{games: games, bookings: bookings, users: users, organizers: organizers, log: log}
}

// ListGames returns up to MaxGameListLimit of the newest games, filtered by
// status when one is given.
func (s *AdminService) ListGames(ctx context.Context, status domain.GameStatus) ([]*domain.Game, error) {
	return s.games.ListGames(ctx, MaxGameListLimit, status)
}

func (s *AdminService) GameDetail(ctx context.Context, id uuid.UUID) (*domain.GameDetail, error) {
	const op = "service.admin.gameDetail"
	log := s.log.With(slog.String("op", op), slog.String("game_id", id.String()))

	game, err := s.games.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &domain.GameDetail{Game: game}

	if game.CreatedByUserID != nil {
		creator, err := s.users.GetByID(ctx, *game.CreatedByUserID)
		switch {
		case err == nil:
			detail.Creator = creator
		case !errors.Is(err, repository.ErrUserNotFound):
			log.Error("failed to load creator", sl.Err(err))
			return nil, storageErr(op, err)
		}
	}

	if game.OrganiserID != nil {
		organizer, err := s.organizers.GetByID(ctx, *game.OrganiserID)
		switch {
		case err == nil:
			detail.Organizer = organizer
		case !errors.Is(err, repository.ErrOrganizerNotFound):
			log.Error("failed to load organiser", sl.Err(err))
			return nil, storageErr(op, err)
		}
	}

	detail.Participants, err = s.bookings.ListParticipants(ctx, id)
	if err != nil {
		return nil, err
	}
	return detail, nil
}
