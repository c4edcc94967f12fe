package app

import (
	"github.com/rs/zerolog/log"

	"github.com/mavrk/beam/internal/domain"
)

// The platform around this core owns identity, follower relationships
// and the money ledger. This file holds the default stand-ins wired by
// cmd/server; real deployments swap in their own implementations.

// IdentityResolver supplies a stable user id for each connection at
// registration time. The core trusts it without re-validating.
type IdentityResolver interface {
	Resolve(token string) (domain.UserID, error)
}

// TokenIdentity treats the transport's client token as the user id.
type TokenIdentity struct{}

func (TokenIdentity) Resolve(token string) (domain.UserID, error) {
	uid := domain.UserID(token)
	if err := domain.ValidateUserID(uid); err != nil {
		return "", err
	}
	return uid, nil
}

// StaticFollowers serves follower sets from a fixed map.
type StaticFollowers map[domain.UserID][]domain.UserID

func (f StaticFollowers) FollowersOf(streamer domain.UserID) []domain.UserID {
	return f[streamer]
}

// LogBilling reports charges and tips to the log only. It satisfies both
// the call manager's Biller and the stream manager's TipRecorder.
type LogBilling struct{}

func (LogBilling) RecordCallCharge(caller, callee domain.UserID, cost int64) {
	log.Info().Str("module", "app.billing").
		Str("caller", string(caller)).Str("callee", string(callee)).
		Int64("cost", cost).Msg("call charge")
}

func (LogBilling) RecordTip(from, to domain.UserID, amount int64) {
	log.Info().Str("module", "app.billing").
		Str("from", string(from)).Str("to", string(to)).
		Int64("amount", amount).Msg("tip")
}
