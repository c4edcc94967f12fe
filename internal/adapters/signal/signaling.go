package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/mavrk/beam/internal/domain"
)

// handleSignal forwards one opaque offer/answer/candidate payload. The
// relay stamps the sequence; a retransmission may carry its own seq and
// is rejected if the recipient side has moved past it.
func (ctl *WSController) handleSignal(uid domain.UserID, c *wsConn, data []byte) {
	type signalPayload struct {
		Type    string          `json:"type"`
		To      string          `json:"to"`
		Kind    string          `json:"kind"`
		Seq     uint64          `json:"seq,omitempty"`
		Payload json.RawMessage `json:"payload"`
	}
	var p signalPayload
	if err := json.Unmarshal(data, &p); err != nil || p.To == "" {
		ctl.sendBadPayload(c, err)
		return
	}

	kind := domain.SignalKind(p.Kind)
	switch kind {
	case domain.SignalOffer, domain.SignalAnswer, domain.SignalCandidate:
	default:
		ctl.sendBadPayload(c, nil)
		return
	}

	env := domain.SignalingEnvelope{
		From:     uid,
		To:       domain.UserID(p.To),
		Kind:     kind,
		Sequence: p.Seq,
		Payload:  p.Payload,
	}
	sent, err := ctl.Orch.Relay.Relay(env)
	if err != nil {
		log.Debug().Err(err).Str("module", "signal").
			Str("from", string(uid)).Str("to", p.To).Msg("relay rejected")
		ctl.sendError(c, err)
		return
	}
	ctl.sendJSON(c, struct {
		Type string `json:"type"`
		To   string `json:"to"`
		Seq  uint64 `json:"seq"`
	}{"signal_sent", p.To, sent.Sequence})
}
