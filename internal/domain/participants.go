package domain

import "github.com/google/uuid"

// AppendParticipant adds userID to ids keeping first-seen order and dropping
// any duplicates already present.
func AppendParticipant(ids []uuid.UUID, userID uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids)+1)
	result := make([]uuid.UUID, 0, len(ids)+1)
	for _, id := range append(append([]uuid.UUID(nil), ids...), userID) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

func RemoveParticipant(ids []uuid.UUID, userID uuid.UUID) []uuid.UUID {
	result := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != userID {
			result = append(result, id)
		}
	}
	return result
}

func HasParticipant(ids []uuid.UUID, userID uuid.UUID) bool {
	for _, id := range ids {
		if id == userID {
			return true
		}
	}
	return false
}

// ParticipantsFromBookings rebuilds the projection from bookings already
// ordered by join time.
func ParticipantsFromBookings(bookings []*Booking) []uuid.UUID {
	var ids []uuid.UUID
	for _, b := range bookings {
		ids = AppendParticipant(ids, b.UserID)
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return ids
}
