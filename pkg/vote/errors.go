package vote

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"
)

var (
	ErrUninitialized         = errors.New("vote account is not initialized")
	ErrPayerIsVoteAccount    = errors.New("fee payer cannot be the vote account")
	ErrVoteAccountIsIdentity = errors.New("vote account cannot be the validator identity")
	ErrAccountExists         = errors.New("account already exists")
	ErrNotAuthorized         = errors.New("signer is not authorized")
	ErrNoAuthorizedVoter     = errors.New("vote account has no authorized voter")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrHasActiveStake        = errors.New("vote account has active stake")
	ErrNothingToReclaim      = errors.New("vote account has zero balance")
)

// AccountExistsError reports an occupied vote account address. IsVoteAccount
// tells an existing vote account apart from an unrelated account.
type AccountExistsError struct {
	Pubkey        solana.PublicKey
	Owner         solana.PublicKey
	IsVoteAccount bool
}

func (e *AccountExistsError) Error() string {
	if e.IsVoteAccount {
		return fmt.Sprintf("%s: vote account %s already exists", ErrAccountExists, e.Pubkey)
	}
	return fmt.Sprintf("%s: %s is owned by %s and is not a vote account", ErrAccountExists, e.Pubkey, e.Owner)
}

func (e *AccountExistsError) Unwrap() error {
	return ErrAccountExists
}

// NotAuthorizedError lists every identity that could have authorized the
// action.
type NotAuthorizedError struct {
	Role     string
	Expected []solana.PublicKey
	Actual   solana.PublicKey
}

func (e *NotAuthorizedError) Error() string {
	expected := lo.Map(e.Expected, func(pubkey solana.PublicKey, _ int) string {
		return pubkey.String()
	})
	return fmt.Sprintf("%s: %s is not the %s (%s)", ErrNotAuthorized, e.Actual, e.Role, strings.Join(expected, " or "))
}

func (e *NotAuthorizedError) Unwrap() error {
	return ErrNotAuthorized
}

type NoAuthorizedVoterError struct {
	Epoch uint64
}

func (e *NoAuthorizedVoterError) Error() string {
	return fmt.Sprintf("%s for epoch %d", ErrNoAuthorizedVoter, e.Epoch)
}

func (e *NoAuthorizedVoterError) Unwrap() error {
	return ErrNoAuthorizedVoter
}

type InsufficientBalanceError struct {
	Requested uint64
	Available uint64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("%s: requested %d lamports, %d available", ErrInsufficientBalance, e.Requested, e.Available)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

type HasActiveStakeError struct {
	Pubkey         solana.PublicKey
	ActivatedStake uint64
}

func (e *HasActiveStakeError) Error() string {
	return fmt.Sprintf("%s: %s has %d lamports of activated stake", ErrHasActiveStake, e.Pubkey, e.ActivatedStake)
}

func (e *HasActiveStakeError) Unwrap() error {
	return ErrHasActiveStake
}
