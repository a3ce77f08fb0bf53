package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/ostap/huddle/internal/core"
	"github.com/ostap/huddle/internal/domain"
)

// Server-to-client event types.
const (
	EventUserJoined     = "user-joined"
	EventUserLeft       = "user-left"
	EventKicked         = "kicked"
	EventScreenShareOn  = "screen-sharing-started"
	EventScreenShareOff = "screen-sharing-stopped"
	EventMeetingEnded   = "meeting-ended"
)

// Event is the room-scoped notification envelope.
type Event struct {
	Type    string           `json:"type"`
	Peer    *core.PeerDTO    `json:"peer,omitempty"`
	Meeting domain.MeetingID `json:"meeting,omitempty"`
	Reason  string           `json:"reason,omitempty"`
}

func encodeEvent(ev Event) core.Frame {
	b, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app").Str("event", ev.Type).Msg("encode event")
		return nil
	}
	return b
}

func peerOf(cid core.ConnectionID, user *domain.User) *core.PeerDTO {
	return &core.PeerDTO{ID: cid, User: user.ID, Name: user.Name}
}
