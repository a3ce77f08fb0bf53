package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/ostap/huddle/internal/core"
)

// handleRelay forwards offer/answer/candidate messages to the target
// connection with the sender's id stamped as caller. Delivery to a
// vanished target is a silent no-op, never an error to the sender.
func (ctl *Controller) handleRelay(cid core.ConnectionID, conn *WsSignalConn, data []byte) {
	var m relayMessage
	if err := json.Unmarshal(data, &m); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad relay payload")
		ctl.sendJSON(conn, map[string]any{"type": "error", "code": "bad_payload"})
		return
	}
	if err := m.Validate(); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("invalid relay message")
		ctl.sendJSON(conn, map[string]any{"type": "error", "code": "bad_payload", "message": err.Error()})
		return
	}

	m.Caller = cid
	frame, err := json.Marshal(m)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("relay marshal")
		return
	}

	delivered := ctl.Orch.SendTo(m.Target, frame)
	log.Debug().Str("module", "signal").Str("type", m.Type).Str("from", string(cid)).Str("target", string(m.Target)).Bool("delivered", delivered).Msg("relay")
}
