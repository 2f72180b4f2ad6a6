package domain

import (
	"time"

	"github.com/google/uuid"
)

type RosterEventType string

const (
	RosterEventJoined    RosterEventType = "joined"
	RosterEventCancelled RosterEventType = "cancelled"
)

// RosterEvent is pushed to clients watching a game's participant list.
type RosterEvent struct {
	Type      RosterEventType `json:"type"`
	GameID    uuid.UUID       `json:"game_id"`
	UserID    uuid.UUID       `json:"user_id"`
	BookingID uuid.UUID       `json:"booking_id"`
	Count     int             `json:"count"`
	At        time.Time       `json:"at"`
}
