package domain

import "time"

type MeetingID string

type MeetingStatus string

const (
	MeetingActive MeetingStatus = "active"
	MeetingEnded  MeetingStatus = "ended"
)

// Meeting is the directory's authoritative view of a meeting.
// The core only ever holds a read-through copy fetched at join time.
type Meeting struct {
	ID              MeetingID     `json:"id"`
	Name            string        `json:"name"`
	HostID          UserID        `json:"host_id"`
	MaxParticipants int           `json:"max_participants"`
	Status          MeetingStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
}

func (m Meeting) Ended() bool {
	return m.Status == MeetingEnded
}

func (m Meeting) IsHost(uid UserID) bool {
	return m.HostID == uid
}
