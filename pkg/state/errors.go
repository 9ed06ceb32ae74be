package state

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrWrongOwner           = errors.New("account is owned by an unexpected program")
	ErrMalformedAccountData = errors.New("malformed account data")
)

type WrongOwnerError struct {
	Expected solana.PublicKey
	Actual   solana.PublicKey
}

func (e *WrongOwnerError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", ErrWrongOwner, e.Expected, e.Actual)
}

func (e *WrongOwnerError) Unwrap() error {
	return ErrWrongOwner
}

// MalformedAccountDataError reports that the payload of an account with the
// right owner could not be decoded as Kind.
type MalformedAccountDataError struct {
	Kind string
	Err  error
}

func (e *MalformedAccountDataError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrMalformedAccountData, e.Kind, e.Err)
}

func (e *MalformedAccountDataError) Is(target error) bool {
	return target == ErrMalformedAccountData
}

func (e *MalformedAccountDataError) Unwrap() error {
	return e.Err
}

var (
	errInvalidStakeStateTag = errors.New("invalid stake state tag")
	errInvalidVoteStateTag  = errors.New("invalid vote state version")
	errLengthExceedsData    = errors.New("collection length exceeds remaining data")
)

// checkLength guards a length prefix against the bytes left in the decoder,
// so that adversarial counts cannot force large allocations.
func checkLength(count uint64, elemSize uint64, remaining int, what string) error {
	if remaining < 0 || count > uint64(remaining)/elemSize {
		return fmt.Errorf("%w: %d %s of %d bytes, %d bytes left", errLengthExceedsData, count, what, elemSize, remaining)
	}
	return nil
}
