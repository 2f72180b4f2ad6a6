package converter

import (
	"time"

	"github.com/google/uuid"
	"github.com/playbud/booking/internal/domain"
)

type JoinRequest struct {
	Notes string `json:"notes"`
}

type ParticipantResponse struct {
	BookingID uuid.UUID `json:"booking_id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	JoinedAt  time.Time `json:"joined_at"`
}

func ParticipantsToApi(participants []*domain.Participant) []ParticipantResponse {
	out := make([]ParticipantResponse, 0, len(participants))
	for _, p := range participants {
		out = append(out, ParticipantResponse{
			BookingID: p.BookingID,
			UserID:    p.UserID,
			Name:      p.Name,
			AvatarURL: p.AvatarURL,
			JoinedAt:  p.JoinedAt,
		})
	}
	return out
}

type MyGameResponse struct {
	Game              *GameResponse   `json:"game"`
	Booking           *domain.Booking `json:"booking"`
	ParticipantsCount int             `json:"participants_count"`
}

func MyGamesToApi(items []*domain.GameWithBooking) []MyGameResponse {
	out := make([]MyGameResponse, 0, len(items))
	for _, item := range items {
		out = append(out, MyGameResponse{
			Game:              GameToApi(item.Game),
			Booking:           item.Booking,
			ParticipantsCount: item.ParticipantsCount,
		})
	}
	return out
}
