package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/playbud/booking/internal/domain"
	"github.com/playbud/booking/internal/repository"
	"github.com/playbud/booking/lib/logger/sl"
)

type UserService struct {
	users      repository.UserRepository
	organizers repository.OrganizerRepository
	effects    *Notifier
	log        *slog.Logger
}

func NewUserService(users repository.UserRepository, organizers repository.OrganizerRepository, effects *Notifier, log *slog.Logger) *UserService {
	if log == nil {
		log = slog.Default()
	}
	return &UserService{users: users, organizers: organizers, effects: effects, log: log}
}

func (s *UserService) CreateUser(ctx context.Context, name string, email string) (*domain.User, error) {
	const op = "service.user.create"
	log := s.log.With(slog.String("op", op))

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		log.Info("no name provided")
		return nil, domain.Validation("name is required")
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, domain.Validation("email is invalid")
		}
	}

	user := domain.NewUser(name, email)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserEmailExists) {
			return nil, domain.Validation("A user with this email already exists.")
		}
		log.Error("failed to create user", sl.Err(err))
		return nil, storageErr(op, err)
	}

	log.Info("user created", slog.String("user_id", user.ID.String()))

	if s.effects != nil && user.Email != "" {
		s.effects.UserCreated(context.WithoutCancel(ctx), user)
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const op = "service.user.get"

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domain.NotFound("User not found.")
		}
		return nil, storageErr(op, err)
	}
	return user, nil
}

// UpdateProfile changes the user's name and avatar. Nil fields are left as
// they are.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, name, avatarURL *string) (*domain.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if name != nil {
		user.Name = *name
	}
	if avatarURL != nil {
		user.AvatarURL = strings.TrimSpace(*avatarURL)
	}
	if err := s.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, user *domain.User) error {
	const op = "service.user.update"

	if user == nil {
		return domain.Validation("user is required")
	}
	user.Name = strings.TrimSpace(user.Name)
	if user.Name == "" {
		return domain.Validation("name is required")
	}
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return domain.NotFound("User not found.")
		case errors.Is(err, repository.ErrUserEmailExists):
			return domain.Validation("A user with this email already exists.")
		}
		return storageErr(op, err)
	}
	return nil
}

// RegisterOrganizer returns the user's organiser profile, creating it on
// first call. Only a new profile triggers the review email.
func (s *UserService) RegisterOrganizer(ctx context.Context, userID uuid.UUID, name string) (*domain.Organizer, error) {
	user, organizer, created, err := s.organizerFor(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	if created && s.effects != nil {
		s.effects.OrganizerRegistered(context.WithoutCancel(ctx), user)
	}
	return organizer, nil
}

// MyOrganizer returns the user's organiser profile, creating an unreviewed
// one named after the user when none exists.
func (s *UserService) MyOrganizer(ctx context.Context, userID uuid.UUID) (*domain.Organizer, error) {
	_, organizer, _, err := s.organizerFor(ctx, userID, "")
	return organizer, err
}

func (s *UserService) organizerFor(ctx context.Context, userID uuid.UUID, name string) (*domain.User, *domain.Organizer, bool, error) {
	const op = "service.user.organizerFor"
	log := s.log.With(slog.String("op", op), slog.String("user_id", userID.String()))

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, false, err
	}

	existing, err := s.organizers.GetByUserID(ctx, userID)
	if err == nil {
		return user, existing, false, nil
	}
	if !errors.Is(err, repository.ErrOrganizerNotFound) {
		return nil, nil, false, storageErr(op, err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = user.Name
	}

	organizer := domain.NewOrganizer(userID, name)
	if err := s.organizers.Create(ctx, organizer); err != nil {
		log.Error("failed to create organiser", sl.Err(err))
		return nil, nil, false, storageErr(op, err)
	}

	log.Info("organiser registered", slog.String("organizer_id", organizer.ID.String()))
	return user, organizer, true, nil
}
