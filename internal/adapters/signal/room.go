package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/ostap/huddle/internal/core"
	"github.com/ostap/huddle/internal/domain"
)

func (ctl *Controller) handleJoin(ctx context.Context, cid core.ConnectionID, conn *WsSignalConn, data []byte) {
	var p joinRequest
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendJSON(conn, map[string]any{"type": "error", "code": "bad_payload"})
		return
	}
	if err := p.Validate(); err != nil {
		ctl.sendJSON(conn, map[string]any{"type": "error", "code": "bad_payload", "message": err.Error()})
		return
	}

	id := domain.MeetingID(p.Meeting)
	log.Info().Str("module", "signal").Str("cid", string(cid)).Str("meeting", string(id)).Msg("join")

	peers, err := ctl.Orch.Join(ctx, cid, id)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(cid)).Str("meeting", string(id)).Msg("join rejected")
		ctl.sendError(conn, err)
		return
	}

	resp := struct {
		Type    string           `json:"type"`
		Meeting domain.MeetingID `json:"meeting"`
		Peers   []core.PeerDTO   `json:"peers"`
	}{
		Type:    "joined",
		Meeting: id,
		Peers:   peers,
	}
	ctl.sendJSON(conn, resp)
}

// handleLeave exits the current meeting, the connection stays open.
func (ctl *Controller) handleLeave(ctx context.Context, cid core.ConnectionID, conn *WsSignalConn) {
	log.Info().Str("module", "signal").Str("cid", string(cid)).Msg("leave")
	ctl.Orch.Leave(ctx, cid)
	ctl.sendJSON(conn, map[string]any{"type": "left"})
}

func (ctl *Controller) handleKick(ctx context.Context, cid core.ConnectionID, conn *WsSignalConn, data []byte) {
	var p kickRequest
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad kick payload")
		ctl.sendJSON(conn, map[string]any{"type": "error", "code": "bad_payload"})
		return
	}
	if err := p.Validate(); err != nil {
		ctl.sendJSON(conn, map[string]any{"type": "error", "code": "bad_payload", "message": err.Error()})
		return
	}

	user, ok := ctl.Orch.Registry.UserOf(cid)
	if !ok {
		ctl.sendError(conn, domain.ErrNotAuthenticated)
		return
	}

	log.Info().Str("module", "signal").Str("cid", string(cid)).Str("target", string(p.Target)).Msg("kick")
	if err := ctl.Orch.Kick(ctx, user.ID, p.Target); err != nil {
		ctl.sendError(conn, err)
	}
}

func (ctl *Controller) handleEnd(ctx context.Context, cid core.ConnectionID, conn *WsSignalConn) {
	user, ok := ctl.Orch.Registry.UserOf(cid)
	if !ok {
		ctl.sendError(conn, domain.ErrNotAuthenticated)
		return
	}
	id, _, ok := ctl.Orch.Registry.MeetingOf(cid)
	if !ok {
		ctl.sendError(conn, domain.ErrMeetingNotFound)
		return
	}

	log.Info().Str("module", "signal").Str("cid", string(cid)).Str("meeting", string(id)).Msg("end meeting")
	if err := ctl.Orch.EndMeeting(ctx, user.ID, id); err != nil {
		ctl.sendError(conn, err)
	}
}
