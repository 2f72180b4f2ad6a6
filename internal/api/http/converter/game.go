package converter

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/playbud/booking/internal/domain"
)

const dateLayout = "2006-01-02"

type CreateGameRequest struct {
	OrganiserID  *uuid.UUID `json:"organiser_id"`
	Name         string     `json:"name" binding:"required"`
	Venue        string     `json:"venue"`
	CitySlug     string     `json:"city_slug"`
	SportCode    string     `json:"sport_code"`
	Date         string     `json:"date" binding:"required"`
	StartTime    string     `json:"start_time" binding:"required"`
	EndTime      string     `json:"end_time" binding:"required"`
	Skill        string     `json:"skill"`
	Gender       string     `json:"gender" binding:"required"`
	Players      int        `json:"players"`
	Description  string     `json:"description"`
	Rules        string     `json:"rules"`
	Frequency    string     `json:"frequency" binding:"required"`
	Price        *float64   `json:"price"`
	IsPrivate    bool       `json:"is_private"`
	Cancellation string     `json:"cancellation"`
	TeamSheet    bool       `json:"team_sheet"`
}

// Draft parses the request's date and clock fields. Range checks are left
// to domain.GameDraft.Validate.
func (r CreateGameRequest) Draft() (domain.GameDraft, error) {
	date, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return domain.GameDraft{}, errors.New("date must be YYYY-MM-DD")
	}
	start, err := domain.ParseTimeOfDay(r.StartTime)
	if err != nil {
		return domain.GameDraft{}, errors.New("start_time is invalid")
	}
	end, err := domain.ParseTimeOfDay(r.EndTime)
	if err != nil {
		return domain.GameDraft{}, errors.New("end_time is invalid")
	}

	return domain.GameDraft{
		OrganiserID:  r.OrganiserID,
		Name:         r.Name,
		Venue:        r.Venue,
		CitySlug:     r.CitySlug,
		SportCode:    r.SportCode,
		Date:         date,
		StartTime:    start,
		EndTime:      end,
		Skill:        r.Skill,
		Gender:       r.Gender,
		Players:      r.Players,
		Description:  r.Description,
		Rules:        r.Rules,
		Frequency:    r.Frequency,
		Price:        r.Price,
		IsPrivate:    r.IsPrivate,
		Cancellation: r.Cancellation,
		TeamSheet:    r.TeamSheet,
	}, nil
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type GameResponse struct {
	ID                 uuid.UUID   `json:"id"`
	OrganiserID        *uuid.UUID  `json:"organiser_id,omitempty"`
	CreatedByUserID    *uuid.UUID  `json:"created_by_user_id,omitempty"`
	Name               string      `json:"name"`
	Venue              string      `json:"venue"`
	CitySlug           string      `json:"city_slug"`
	SportCode          string      `json:"sport_code"`
	Date               string      `json:"date"`
	StartTime          string      `json:"start_time"`
	EndTime            string      `json:"end_time"`
	Skill              string      `json:"skill"`
	Gender             string      `json:"gender"`
	Players            int         `json:"players"`
	Description        string      `json:"description,omitempty"`
	Rules              string      `json:"rules,omitempty"`
	Frequency          string      `json:"frequency"`
	Price              *float64    `json:"price,omitempty"`
	IsPrivate          bool        `json:"is_private"`
	Cancellation       string      `json:"cancellation"`
	TeamSheet          bool        `json:"team_sheet"`
	Status             string      `json:"status"`
	ParticipantUserIDs []uuid.UUID `json:"participant_user_ids"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

func GameToApi(g *domain.Game) *GameResponse {
	participants := g.ParticipantUserIDs
	if participants == nil {
		participants = []uuid.UUID{}
	}
	return &GameResponse{
		ID:                 g.ID,
		OrganiserID:        g.OrganiserID,
		CreatedByUserID:    g.CreatedByUserID,
		Name:               g.Name,
		Venue:              g.Venue,
		CitySlug:           g.CitySlug,
		SportCode:          g.SportCode,
		Date:               g.Date.Format(dateLayout),
		StartTime:          g.StartTime.String(),
		EndTime:            g.EndTime.String(),
		Skill:              g.Skill,
		Gender:             g.Gender,
		Players:            g.Players,
		Description:        g.Description,
		Rules:              g.Rules,
		Frequency:          g.Frequency,
		Price:              g.Price,
		IsPrivate:          g.IsPrivate,
		Cancellation:       g.Cancellation,
		TeamSheet:          g.TeamSheet,
		Status:             string(g.Status),
		ParticipantUserIDs: participants,
		CreatedAt:          g.CreatedAt,
		UpdatedAt:          g.UpdatedAt,
	}
}

func GamesToApi(games []*domain.Game) []*GameResponse {
	out := make([]*GameResponse, 0, len(games))
	for _, g := range games {
		out = append(out, GameToApi(g))
	}
	return out
}

type GameDetailResponse struct {
	Game         *GameResponse         `json:"game"`
	Creator      *AdminUserResponse    `json:"creator"`
	Organizer    *OrganizerResponse    `json:"organizer"`
	Participants []ParticipantResponse `json:"participants"`
}

func GameDetailToApi(d *domain.GameDetail) *GameDetailResponse {
	resp := &GameDetailResponse{
		Game:         GameToApi(d.Game),
		Creator:      AdminUserToApi(d.Creator, d.Organizer),
		Participants: ParticipantsToApi(d.Participants),
	}
	if d.Organizer != nil {
		resp.Organizer = OrganizerToApi(d.Organizer)
	}
	return resp
}
