package errors

var (
	// Recoverable rejections, reported back to the originating connection.
	// None of these are fatal to the process.
	ErrRecipientOffline      = New(CodeRecipientOffline, "recipient has no live connection")
	ErrSessionAlreadyPending = New(CodeSessionPending, "a call session is already pending or active for this pair")
	ErrStreamNotLive         = New(CodeStreamNotLive, "stream is not live")
	ErrAlreadyLive           = New(CodeAlreadyLive, "streamer already has a live session")
	ErrTimeout               = New(CodeTimeout, "call was not accepted in time")
	ErrInvalidTransition     = New(CodeInvalidTransition, "call session is not in a state that allows this action")
	ErrStaleSignal           = New(CodeStaleSignal, "signaling envelope is a duplicate or out of order")
	ErrBackpressure          = New(CodeBackpressure, "connection send buffer full")
	ErrRateLimited           = New(CodeRateLimited, "too many messages, slow down")
)

func ErrDeliveryFailed(cause error) error {
	return Wrap(CodeRecipientOffline, "delivery failed", cause)
}
