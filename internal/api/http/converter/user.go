package converter

import (
	"time"

	"github.com/google/uuid"
	"github.com/playbud/booking/internal/domain"
)

type CreateUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
}

type RegisterOrganizerRequest struct {
	Name string `json:"name"`
}

type OrganizerResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func OrganizerToApi(o *domain.Organizer) *OrganizerResponse {
	return &OrganizerResponse{
		ID:        o.ID,
		UserID:    o.UserID,
		Name:      o.Name,
		CreatedAt: o.CreatedAt,
	}
}

// UpdateProfileRequest leaves a field untouched when it is absent.
type UpdateProfileRequest struct {
	Name      *string `json:"name"`
	AvatarURL *string `json:"avatar_url"`
}

type AdminUserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email,omitempty"`
	Name        string     `json:"name"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
	OrganiserID *uuid.UUID `json:"organiser_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func AdminUserToApi(u *domain.User, organizer *domain.Organizer) *AdminUserResponse {
	if u == nil {
		return nil
	}
	resp := &AdminUserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
	if organizer != nil && organizer.UserID == u.ID {
		id := organizer.ID
		resp.OrganiserID = &id
	}
	return resp
}
