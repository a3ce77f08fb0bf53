// Package directory defines the durable meeting store consumed by the
// session core. The directory owns meeting metadata and participant
// join/leave history; the in-memory registry owns live membership.
package directory

import (
	"context"

	"github.com/ostap/huddle/internal/domain"
)

type Directory interface {
	// GetMeeting returns domain.ErrMeetingNotFound for unknown ids.
	GetMeeting(ctx context.Context, id domain.MeetingID) (domain.Meeting, error)
	CreateMeeting(ctx context.Context, host domain.UserID, name string, maxParticipants int) (domain.Meeting, error)
	SetEnded(ctx context.Context, id domain.MeetingID) error

	// ApproveParticipant records the out-of-band join approval: it
	// creates the participant row that authorizes a later join without
	// marking the user active.
	ApproveParticipant(ctx context.Context, id domain.MeetingID, user domain.UserID) error
	HasParticipant(ctx context.Context, id domain.MeetingID, user domain.UserID) (bool, error)

	// UpsertParticipant marks the user active: sets joined_at, clears
	// left_at and attaches the current connection id.
	UpsertParticipant(ctx context.Context, id domain.MeetingID, user domain.UserID, connection string) error
	MarkLeft(ctx context.Context, id domain.MeetingID, user domain.UserID) error
	MarkAllLeft(ctx context.Context, id domain.MeetingID) error

	// CountActive counts participants with joined_at set and left_at
	// still null.
	CountActive(ctx context.Context, id domain.MeetingID) (int, error)

	// ListParticipants returns every join record for the meeting,
	// approved and historical alike.
	ListParticipants(ctx context.Context, id domain.MeetingID) ([]domain.Participant, error)
}
