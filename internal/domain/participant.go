package domain

import "time"

// Participant is the durable join record for a (meeting, user) pair.
// A pre-approved user has a record with a nil JoinedAt; an active one has
// JoinedAt set and LeftAt nil. Re-joining updates the record in place.
type Participant struct {
	MeetingID    MeetingID  `json:"meeting_id"`
	UserID       UserID     `json:"user_id"`
	ConnectionID string     `json:"connection_id,omitempty"`
	JoinedAt     *time.Time `json:"joined_at,omitempty"`
	LeftAt       *time.Time `json:"left_at,omitempty"`
}

func (p Participant) Active() bool {
	return p.JoinedAt != nil && p.LeftAt == nil
}
