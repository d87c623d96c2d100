package errvalues

import "errors"

// Validation errors: the caller's request does not meet a precondition.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotAssignee     = errors.New("member is not the assignee")
	ErrNotOfferTarget  = errors.New("offer was made to another member")
	ErrNotRecipient    = errors.New("member is not the swap recipient")
	ErrAlreadyResolved = errors.New("already resolved")
	ErrExpired         = errors.New("offer expired")
	ErrInvalidSwap     = errors.New("invalid swap")
)

// ErrConflict means a concurrent operation won the race for the same rows.
var ErrConflict = errors.New("conflicting update")

// Pool errors end a distribution run before anything is written.
var (
	ErrNoMembers = errors.New("no eligible members")
	ErrNoChores  = errors.New("household has no chores")
)

var validation = []error{
	ErrNotFound, ErrInvalidInput, ErrNotAssignee, ErrNotOfferTarget,
	ErrNotRecipient, ErrAlreadyResolved, ErrExpired, ErrInvalidSwap,
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsValidation(err error) bool {
	for _, v := range validation {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}
