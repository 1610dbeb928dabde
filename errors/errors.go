package errors

import "fmt"

var (
	ErrWorkerPanic    = fmt.Errorf("worker panic")
	ErrInvalidPayload = fmt.Errorf("invalid payload")
	ErrInvalidConfig  = fmt.Errorf("invalid configuration")

	ErrWrongAccessKey    = fmt.Errorf("incorrect access key")
	ErrAccessKeyMismatch = fmt.Errorf("access keys don't match")
	ErrAccessKeyLocked   = fmt.Errorf("access key can only be changed while alone in the room")
	ErrAlreadyMember     = fmt.Errorf("already connected to this room")
	ErrNotMember         = fmt.Errorf("not a member of this room")
	ErrNotHost           = fmt.Errorf("you are not the net control")
	ErrNotSpeaking       = fmt.Errorf("you are not currently speaking")
	ErrHostRelinquish    = fmt.Errorf("net control cannot hand the floor back to itself")
	ErrNotNet            = fmt.Errorf("room is not a net")
	ErrNoSuchCallsign    = fmt.Errorf("no such callsign")
	ErrInvalidWPM        = fmt.Errorf("invalid WPM")
	ErrUnknownCommand    = fmt.Errorf("unknown command")
	ErrEmptyContent      = fmt.Errorf("nothing to send")
	ErrContentTooLong    = fmt.Errorf("content too long")
	ErrInvalidIdentity   = fmt.Errorf("invalid identity")

	ErrRoomClosed  = fmt.Errorf("room closed")
	ErrUnknownRoom = fmt.Errorf("room doesn't exist")
	ErrNotStarted  = fmt.Errorf("orchestrator not started")

	ErrInvalidToken    = fmt.Errorf("invalid or expired token")
	ErrMissingToken    = fmt.Errorf("authorization token is missing")
	ErrTokenGeneration = fmt.Errorf("token generation failed")
	ErrInvalidHash     = fmt.Errorf("invalid hash format")
)
