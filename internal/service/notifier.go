package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/playbud/booking/internal/domain"
	"github.com/playbud/booking/internal/notify"
	"github.com/playbud/booking/internal/repository"
	"github.com/playbud/booking/lib/logger/sl"
)

// Notifier runs the side effects that follow a committed change. Every
// failure is logged and swallowed.
type Notifier struct {
	sender     notify.Sender
	users      repository.UserRepository
	organizers repository.OrganizerRepository
	milestones repository.MilestoneRepository
	reminders  repository.ReminderRepository
	log        *slog.Logger
	now        Clock
	lead       time.Duration
}

type NotifierOption func(*Notifier)

func WithNotifierClock(c Clock) NotifierOption {
	return func(n *Notifier) { n.now = c }
}

func WithReminderLead(d time.Duration) NotifierOption {
	return func(n *Notifier) {
		if d > 0 {
			n.lead = d
		}
	}
}

func NewNotifier(
	sender notify.Sender,
	users repository.UserRepository,
	organizers repository.OrganizerRepository,
	milestones repository.MilestoneRepository,
	reminders repository.ReminderRepository,
	log *slog.Logger,
	opts ...NotifierOption,
) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	n := &Notifier{
		sender:     sender,
		users:      users,
		organizers: organizers,
		milestones: milestones,
		reminders:  reminders,
		log:        log,
		now:        systemClock,
		lead:       domain.DefaultReminderLead,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// BookingJoined confirms the booking to its player, schedules their
// reminder, alerts the owner about newly reached milestones and pushes a
// new-participant event to the organiser.
func (n *Notifier) BookingJoined(ctx context.Context, game *domain.Game, booking *domain.Booking, count int) {
	const op = "service.notifier.bookingJoined"
	log := n.log.With(
		slog.String("op", op),
		slog.String("game_id", game.ID.String()),
		slog.String("booking_id", booking.ID.String()),
	)

	participant, err := n.users.GetByID(ctx, booking.UserID)
	switch {
	case err == nil:
		n.sender.Send(ctx, notify.Message{
			Kind:      notify.KindBookingConfirmation,
			Recipient: notify.RecipientFromUser(participant),
			Game:      game,
		})
		bookingID := booking.ID
		n.ScheduleReminder(ctx, game, participant, &bookingID)
	case errors.Is(err, repository.ErrUserNotFound):
		log.Warn("participant not found, skipping confirmation", slog.String("user_id", booking.UserID.String()))
	default:
		log.Error("failed to load participant", sl.Err(err))
	}

	n.milestonesReached(ctx, log, game, count)

	n.pushOrganizer(ctx, game, notify.KindOrganizerNewParticipant, booking)
}

func (n *Notifier) BookingCancelled(ctx context.Context, game *domain.Game, booking *domain.Booking) {
	n.pushOrganizer(ctx, game, notify.KindOrganizerCancellation, booking)
}

func (n *Notifier) GameCreated(ctx context.Context, game *domain.Game) {
	owner := n.Owner(ctx, game)
	if owner == nil {
		return
	}
	n.sender.Send(ctx, notify.Message{
		Kind:      notify.KindGamePendingReview,
		Recipient: notify.RecipientFromUser(owner),
		Game:      game,
	})
}

// GameStatusChanged tells the owner about approval or rejection. An
// approved game also gets an owner reminder.
func (n *Notifier) GameStatusChanged(ctx context.Context, game *domain.Game) {
	var kind notify.Kind
	switch game.Status {
	case domain.GameStatusConfirmed:
		kind = notify.KindGameApproved
	case domain.GameStatusUnapproved:
		kind = notify.KindGameRejected
	default:
		return
	}

	owner := n.Owner(ctx, game)
	if owner == nil {
		return
	}

	n.sender.Send(ctx, notify.Message{
		Kind:      kind,
		Recipient: notify.RecipientFromUser(owner),
		Game:      game,
	})
	if kind == notify.KindGameApproved {
		n.ScheduleReminder(ctx, game, owner, nil)
	}
}

func (n *Notifier) UserCreated(ctx context.Context, user *domain.User) {
	n.sender.Send(ctx, notify.Message{
		Kind:      notify.KindWelcome,
		Recipient: notify.RecipientFromUser(user),
	})
}

func (n *Notifier) OrganizerRegistered(ctx context.Context, user *domain.User) {
	n.sender.Send(ctx, notify.Message{
		Kind:      notify.KindOrganizerReview,
		Recipient: notify.RecipientFromUser(user),
	})
}

// ScheduleReminder persists a reminder due lead before the game starts. A
// game that has already started gets none.
func (n *Notifier) ScheduleReminder(ctx context.Context, game *domain.Game, recipient *domain.User, bookingID *uuid.UUID) {
	const op = "service.notifier.scheduleReminder"
	log := n.log.With(slog.String("op", op), slog.String("game_id", game.ID.String()))

	now := n.now()
	start := game.EventStart()
	if start.Before(now) {
		log.Debug("game already started, no reminder")
		return
	}
	if recipient.Email == "" {
		log.Debug("recipient has no email, no reminder", slog.String("user_id", recipient.ID.String()))
		return
	}

	reminder := domain.NewReminder(game.ID, recipient, domain.ReminderDue(start, n.lead, now))
	reminder.BookingID = bookingID
	if err := n.reminders.Schedule(ctx, reminder); err != nil {
		log.Error("failed to schedule reminder", sl.Err(err))
		return
	}
	log.Info("reminder scheduled", slog.Time("due_at", reminder.DueAt))
}

// Owner resolves the user accountable for a game: its creator, else the
// user behind its organiser profile. Nil when neither resolves.
func (n *Notifier) Owner(ctx context.Context, game *domain.Game) *domain.User {
	const op = "service.notifier.owner"
	log := n.log.With(slog.String("op", op), slog.String("game_id", game.ID.String()))

	if game.CreatedByUserID != nil {
		user, err := n.users.GetByID(ctx, *game.CreatedByUserID)
		if err == nil {
			return user
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			log.Error("failed to load creator", sl.Err(err))
		}
	}

	if game.OrganiserID != nil {
		organizer, err := n.organizers.GetByID(ctx, *game.OrganiserID)
		if err != nil {
			if !errors.Is(err, repository.ErrOrganizerNotFound) {
				log.Error("failed to load organiser", sl.Err(err))
			}
			return nil
		}
		user, err := n.users.GetByID(ctx, organizer.UserID)
		if err == nil {
			return user
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			log.Error("failed to load organiser user", sl.Err(err))
		}
	}

	return nil
}

func (n *Notifier) milestonesReached(ctx context.Context, log *slog.Logger, game *domain.Game, count int) {
	reached := domain.MilestonesAt(count, game.Players)
	if len(reached) == 0 {
		return
	}

	owner := n.Owner(ctx, game)
	if owner == nil {
		log.Info("game has no owner, skipping milestone alerts")
		return
	}

	for _, milestone := range reached {
		first, err := n.milestones.MarkReached(ctx, game.ID, milestone)
		if err != nil {
			log.Error("failed to mark milestone", slog.String("milestone", string(milestone)), sl.Err(err))
			continue
		}
		if !first {
			log.Debug("milestone already announced", slog.String("milestone", string(milestone)))
			continue
		}

		msg := notify.Message{
			Recipient: notify.RecipientFromUser(owner),
			Game:      game,
			Data:      map[string]any{"count": count},
		}
		switch milestone {
		case domain.MilestoneHalfFull:
			msg.Kind = notify.KindGameHalfFull
		case domain.MilestoneFull:
			msg.Kind = notify.KindGameFull
		}
		n.sender.Send(ctx, msg)
	}
}

func (n *Notifier) pushOrganizer(ctx context.Context, game *domain.Game, kind notify.Kind, booking *domain.Booking) {
	if game.OrganiserID == nil {
		return
	}

	recipient := notify.Recipient{UserID: *game.OrganiserID}
	organizer, err := n.organizers.GetByID(ctx, *game.OrganiserID)
	switch {
	case err == nil:
		recipient = notify.Recipient{UserID: organizer.UserID, Name: organizer.Name}
	case !errors.Is(err, repository.ErrOrganizerNotFound):
		n.log.Error("failed to load organiser for push",
			slog.String("game_id", game.ID.String()),
			sl.Err(err),
		)
	}

	n.sender.Send(ctx, notify.Message{
		Kind:      kind,
		Recipient: recipient,
		Game:      game,
		Data:      map[string]any{"booking_id": booking.ID},
	})
}
