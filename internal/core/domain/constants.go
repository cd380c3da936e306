package domain

import "errors"

var (
	ErrSendingReplyFailed = errors.New("failed to send reply")
	ErrLoggedOut          = errors.New("transport session logged out")
	ErrAlreadySubmitted   = errors.New("already submitted, waiting for the other player")
	ErrNotHost            = errors.New("only the host may do that")
)
