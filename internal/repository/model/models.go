package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Game struct {
	ID                 uuid.UUID                      `gorm:"type:uuid;primaryKey"`
	OrganiserID        *uuid.UUID                     `gorm:"type:uuid;index"`
	CreatedByUserID    *uuid.UUID                     `gorm:"type:uuid;index"`
	Name               string                         `gorm:"size:200;not null"`
	Venue              string                         `gorm:"size:255;not null"`
	CitySlug           string                         `gorm:"size:80;not null;index"`
	SportCode          string                         `gorm:"size:40;not null"`
	Date               time.Time                      `gorm:"not null"`
	StartTime          string                         `gorm:"size:15;not null"`
	EndTime            string                         `gorm:"size:15;not null"`
	Skill              string                         `gorm:"size:80;not null"`
	Gender             string                         `gorm:"size:16;not null"`
	Players            int                            `gorm:"not null"`
	Description        *string                        `gorm:"type:text"`
	Rules              *string                        `gorm:"type:text"`
	Frequency          string                         `gorm:"size:16;not null"`
	Price              *float64                       `gorm:"type:numeric(10,2)"`
	IsPrivate          bool                           `gorm:"not null"`
	Cancellation       string                         `gorm:"size:80;not null"`
	TeamSheet          bool                           `gorm:"not null"`
	Status             string                         `gorm:"size:16;not null;index"`
	ParticipantUserIDs datatypes.JSONSlice[uuid.UUID] `gorm:"type:jsonb;not null"`
	CreatedAt          time.Time                      `gorm:"not null;index"`
	UpdatedAt          time.Time                      `gorm:"not null"`
}

type Booking struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	GameID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bookings_game_user;index"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bookings_game_user;index"`
	JoinedAt time.Time `gorm:"not null;index"`
	Notes    *string   `gorm:"size:2000"`
}

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"size:255;not null"`
	Email     *string   `gorm:"size:255;uniqueIndex:idx_users_email,where:email IS NOT NULL"`
	AvatarURL *string   `gorm:"size:1024"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Organizer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Name      string    `gorm:"size:255;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

type Reminder struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	GameID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	BookingID      *uuid.UUID `gorm:"type:uuid;index"`
	RecipientID    uuid.UUID  `gorm:"type:uuid;not null"`
	RecipientName  string     `gorm:"size:255;not null"`
	RecipientEmail string     `gorm:"size:255;not null"`
	DueAt          time.Time  `gorm:"not null;index:idx_reminders_due,priority:2"`
	Status         string     `gorm:"size:16;not null;index:idx_reminders_due,priority:1"`
	Attempts       int        `gorm:"not null"`
	LastError      string     `gorm:"type:text"`
	LeaseUntil     *time.Time `gorm:"index"`
	CreatedAt      time.Time  `gorm:"not null"`
	UpdatedAt      time.Time  `gorm:"not null"`
}

type MilestoneMark struct {
	GameID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Milestone string    `gorm:"size:32;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
}

// All lists every model for auto-migration.
func All() []any {
	return []any{&Game{}, &Booking{}, &User{}, &Organizer{}, &Reminder{}, &MilestoneMark{}}
}
