package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type GameStatus string

const (
	GameStatusPending    GameStatus = "pending"
	GameStatusConfirmed  GameStatus = "confirmed"
	GameStatusUnapproved GameStatus = "unapproved"
	GameStatusCompleted  GameStatus = "completed"
)

func (s GameStatus) Valid() bool {
	switch s {
	case GameStatusPending, GameStatusConfirmed, GameStatusUnapproved, GameStatusCompleted:
		return true
	}
	return false
}

const DefaultCancellationPolicy = "24 Hours"

// Game is a scheduled session with a fixed number of player slots.
// ParticipantUserIDs mirrors the active bookings and is maintained by the
// booking store, never authoritative on its own.
type Game struct {
	ID                 uuid.UUID
	OrganiserID        *uuid.UUID
	CreatedByUserID    *uuid.UUID
	Name               string
	Venue              string
	CitySlug           string
	SportCode          string
	Date               time.Time
	StartTime          TimeOfDay
	EndTime            TimeOfDay
	Skill              string
	Gender             string
	Players            int
	Description        string
	Rules              string
	Frequency          string
	Price              *float64
	IsPrivate          bool
	Cancellation       string
	TeamSheet          bool
	Status             GameStatus
	ParticipantUserIDs []uuid.UUID
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// GameDraft carries the organiser-provided fields of a new game.
type GameDraft struct {
	OrganiserID  *uuid.UUID
	Name         string
	Venue        string
	CitySlug     string
	SportCode    string
	Date         time.Time
	StartTime    TimeOfDay
	EndTime      TimeOfDay
	Skill        string
	Gender       string
	Players      int
	Description  string
	Rules        string
	Frequency    string
	Price        *float64
	IsPrivate    bool
	Cancellation string
	TeamSheet    bool
}

const MaxPlayers = 200

// Validate checks the draft's required fields and ranges.
func (d GameDraft) Validate() error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"name", d.Name, 200},
		{"venue", d.Venue, 255},
		{"city_slug", d.CitySlug, 80},
		{"sport_code", d.SportCode, 40},
		{"skill", d.Skill, 80},
	}
	for _, f := range fields {
		n := utf8.RuneCountInString(strings.TrimSpace(f.value))
		if n == 0 {
			return Validation(f.name + " is required")
		}
		if utf8.RuneCountInString(f.value) > f.max {
			return Validation(fmt.Sprintf("%s must be at most %d characters", f.name, f.max))
		}
	}

	if d.Date.IsZero() {
		return Validation("date is required")
	}
	switch d.Gender {
	case "Male", "Female", "Mixed":
	default:
		return Validation("gender must be one of Male, Female, Mixed")
	}
	switch d.Frequency {
	case "one-off", "recurring":
	default:
		return Validation("frequency must be one-off or recurring")
	}
	if d.Players <= 0 || d.Players > MaxPlayers {
		return Validation(fmt.Sprintf("players must be between 1 and %d", MaxPlayers))
	}
	if d.Price != nil && *d.Price < 0 {
		return Validation("price must not be negative")
	}
	if utf8.RuneCountInString(d.Cancellation) > 80 {
		return Validation("cancellation must be at most 80 characters")
	}
	return nil
}

func NewGame(draft GameDraft, createdBy uuid.UUID) *Game {
	now := time.Now().UTC()
	cancellation := draft.Cancellation
	if cancellation == "" {
		cancellation = DefaultCancellationPolicy
	}
	creator := createdBy
	return &Game{
		ID:                 uuid.New(),
		OrganiserID:        draft.OrganiserID,
		CreatedByUserID:    &creator,
		Name:               draft.Name,
		Venue:              draft.Venue,
		CitySlug:           draft.CitySlug,
		SportCode:          draft.SportCode,
		Date:               draft.Date,
		StartTime:          draft.StartTime,
		EndTime:            draft.EndTime,
		Skill:              draft.Skill,
		Gender:             draft.Gender,
		Players:            draft.Players,
		Description:        draft.Description,
		Rules:              draft.Rules,
		Frequency:          draft.Frequency,
		Price:              draft.Price,
		IsPrivate:          draft.IsPrivate,
		Cancellation:       cancellation,
		TeamSheet:          draft.TeamSheet,
		Status:             GameStatusPending,
		ParticipantUserIDs: []uuid.UUID{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// EventStart is the instant the game begins.
func (g *Game) EventStart() time.Time {
	return EventStart(g.Date, g.StartTime)
}

// Clone returns a copy that shares no slices or pointers with g.
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}
	c := *g
	c.ParticipantUserIDs = append([]uuid.UUID{}, g.ParticipantUserIDs...)
	if g.OrganiserID != nil {
		id := *g.OrganiserID
		c.OrganiserID = &id
	}
	if g.CreatedByUserID != nil {
		id := *g.CreatedByUserID
		c.CreatedByUserID = &id
	}
	if g.Price != nil {
		p := *g.Price
		c.Price = &p
	}
	return &c
}
