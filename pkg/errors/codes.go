package errors

type Code string

const (
	CodeUnknown           Code = "UNKNOWN"
	CodeInvalidArgument   Code = "INVALID_ARGUMENT"
	CodeRecipientOffline  Code = "RECIPIENT_OFFLINE"
	CodeSessionPending    Code = "SESSION_ALREADY_PENDING"
	CodeStreamNotLive     Code = "STREAM_NOT_LIVE"
	CodeAlreadyLive       Code = "ALREADY_LIVE"
	CodeTimeout           Code = "TIMEOUT"
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeStaleSignal       Code = "STALE_SIGNAL"
	CodeBackpressure      Code = "BACKPRESSURE"
	CodeRateLimited       Code = "RATE_LIMITED"
)
