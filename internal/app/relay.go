package app

import (
	"github.com/rs/zerolog/log"

	"github.com/ostap/huddle/internal/core"
)

// SendTo delivers an already-encoded signaling frame to the target
// connection, addressed by connection id across all meetings. Signaling
// is fire-and-forget: a missing or slow target is a silent drop, peers
// renegotiate at a higher layer.
func (o *Orchestrator) SendTo(target core.ConnectionID, data core.Frame) bool {
	sess, ok := o.Registry.Get(target)
	if !ok {
		log.Debug().Str("module", "app.relay").Str("target", string(target)).Msg("target not connected, dropping")
		return false
	}
	if err := sess.Signal().TrySend(data); err != nil {
		log.Warn().Err(err).Str("module", "app.relay").Str("target", string(target)).Msg("relay send failed")
		return false
	}
	return true
}

// ScreenShare flips the sender's share flag and notifies the rest of the
// room. Unjoined senders are ignored.
func (o *Orchestrator) ScreenShare(cid core.ConnectionID, on bool) {
	id, memberSess, ok := o.Registry.MeetingOf(cid)
	if !ok {
		return
	}
	sess, ok := o.Meetings.Get(id)
	if !ok {
		return
	}
	if !sess.SetScreenSharing(cid, on) {
		return
	}

	kind := EventScreenShareOn
	if !on {
		kind = EventScreenShareOff
	}
	if frame := encodeEvent(Event{Type: kind, Peer: peerOf(cid, memberSess.User())}); frame != nil {
		o.applyBackpressure(sess, sess.Broadcast(cid, frame))
	}
}
