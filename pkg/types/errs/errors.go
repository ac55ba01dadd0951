package errs

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrForbidden      = errors.New("forbidden")
	ErrSelfBid        = fmt.Errorf("%w: cannot bid on your own auction", ErrForbidden)
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrNotOwner       = fmt.Errorf("%w: only the seller can change the auction", ErrForbidden)

	ErrAlreadyFinished = errors.New("auction already finished")

	ErrInvalidEvent = errors.New("invalid event")
	ErrUnknownEvent = errors.New("unknown event kind")
)
