package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/mavrk/beam/internal/domain"
	apperrors "github.com/mavrk/beam/pkg/errors"
)

func (ctl *WSController) handleStartStream(uid domain.UserID, c *wsConn) {
	snap, err := ctl.Orch.Streams.Start(uid)
	if err != nil {
		ctl.sendError(c, err)
		return
	}
	log.Info().Str("module", "signal").Str("streamer", string(uid)).Msg("start-stream")
	ctl.sendJSON(c, struct {
		Type   string               `json:"type"`
		Stream domain.StreamSession `json:"stream"`
	}{"stream_started", snap})
}

func (ctl *WSController) handleStopStream(uid domain.UserID, c *wsConn) {
	snap := ctl.Orch.Streams.Stop(uid)
	log.Info().Str("module", "signal").Str("streamer", string(uid)).Msg("stop-stream")
	ctl.sendJSON(c, struct {
		Type   string               `json:"type"`
		Stream domain.StreamSession `json:"stream"`
	}{"stream_stopped", snap})
}

func (ctl *WSController) handleJoinStream(uid domain.UserID, c *wsConn, data []byte) {
	streamID, ok := ctl.streamID(c, data)
	if !ok {
		return
	}
	snap, err := ctl.Orch.Streams.Join(streamID, uid)
	if err != nil {
		ctl.sendError(c, err)
		return
	}
	ctl.sendJSON(c, struct {
		Type   string               `json:"type"`
		Stream domain.StreamSession `json:"stream"`
	}{"stream_joined", snap})
}

func (ctl *WSController) handleLeaveStream(uid domain.UserID, c *wsConn, data []byte) {
	streamID, ok := ctl.streamID(c, data)
	if !ok {
		return
	}
	if _, err := ctl.Orch.Streams.Leave(streamID, uid); err != nil {
		ctl.sendError(c, err)
		return
	}
	ctl.sendJSON(c, struct {
		Type     string          `json:"type"`
		StreamID domain.StreamID `json:"stream_id"`
	}{"stream_left", streamID})
}

func (ctl *WSController) handleChatMessage(uid domain.UserID, c *wsConn, data []byte) {
	type chatPayload struct {
		Type     string `json:"type"`
		StreamID string `json:"stream_id"`
		Text     string `json:"text"`
	}
	var p chatPayload
	if err := json.Unmarshal(data, &p); err != nil || p.StreamID == "" || p.Text == "" {
		ctl.sendBadPayload(c, err)
		return
	}
	if !ctl.chatLimiter.Allow(uid) {
		ctl.sendError(c, apperrors.ErrRateLimited)
		return
	}
	if err := ctl.Orch.Streams.PostChat(domain.StreamID(p.StreamID), uid, p.Text); err != nil {
		ctl.sendError(c, err)
	}
}

func (ctl *WSController) handleSendTip(uid domain.UserID, c *wsConn, data []byte) {
	type tipPayload struct {
		Type     string `json:"type"`
		StreamID string `json:"stream_id"`
		Amount   int64  `json:"amount"`
	}
	var p tipPayload
	if err := json.Unmarshal(data, &p); err != nil || p.StreamID == "" || p.Amount <= 0 {
		ctl.sendBadPayload(c, err)
		return
	}
	log.Info().Str("module", "signal").Str("from", string(uid)).Str("stream", p.StreamID).Int64("amount", p.Amount).Msg("send-tip")
	if err := ctl.Orch.Streams.PostTip(domain.StreamID(p.StreamID), uid, p.Amount); err != nil {
		ctl.sendError(c, err)
	}
}

func (ctl *WSController) streamID(c *wsConn, data []byte) (domain.StreamID, bool) {
	type streamPayload struct {
		Type     string `json:"type"`
		StreamID string `json:"stream_id"`
	}
	var p streamPayload
	if err := json.Unmarshal(data, &p); err != nil || p.StreamID == "" {
		ctl.sendBadPayload(c, err)
		return "", false
	}
	return domain.StreamID(p.StreamID), true
}
