package stake

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrNotAuthorized           = errors.New("signer is not authorized")
	ErrWrongState              = errors.New("stake account is in the wrong state")
	ErrAlreadyDeactivating     = errors.New("stake is already deactivating")
	ErrAlreadyDelegated        = errors.New("stake is already delegated")
	ErrStillActive             = errors.New("stake is still active")
	ErrCoolingDown             = errors.New("stake is cooling down")
	ErrLockupInForce           = errors.New("stake account lockup is in force")
	ErrInsufficientBalance     = errors.New("insufficient balance")
	ErrInvalidDestinationState = errors.New("invalid merge destination state")
	ErrInvalidSourceState      = errors.New("invalid merge source state")
	ErrSourceDeactivating      = errors.New("merge source is deactivating")
	ErrAuthorityMismatch       = errors.New("stake accounts have different authorities")
	ErrSameAccount             = errors.New("source and destination are the same account")
	ErrBelowMinimumDelegation  = errors.New("amount is below the minimum delegation")
	ErrBelowRentExempt         = errors.New("amount is below the rent exempt minimum")
	ErrAccountExists           = errors.New("account already exists")
)

// NotAuthorizedError names the authority an action required and the signer
// that was offered instead.
type NotAuthorizedError struct {
	Role     string
	Expected solana.PublicKey
	Actual   solana.PublicKey
}

func (e *NotAuthorizedError) Error() string {
	return fmt.Sprintf("%s: %s is not the %s authority (%s)", ErrNotAuthorized, e.Actual, e.Role, e.Expected)
}

func (e *NotAuthorizedError) Unwrap() error {
	return ErrNotAuthorized
}

type WrongStateError struct {
	Action string
	Status string
}

func (e *WrongStateError) Error() string {
	return fmt.Sprintf("%s: cannot %s a stake account that is %s", ErrWrongState, e.Action, e.Status)
}

func (e *WrongStateError) Unwrap() error {
	return ErrWrongState
}

type AlreadyDeactivatingError struct {
	DeactivationEpoch uint64
}

func (e *AlreadyDeactivatingError) Error() string {
	return fmt.Sprintf("%s since epoch %d", ErrAlreadyDeactivating, e.DeactivationEpoch)
}

func (e *AlreadyDeactivatingError) Unwrap() error {
	return ErrAlreadyDeactivating
}

type AlreadyDelegatedError struct {
	VoterPubkey solana.PublicKey
}

func (e *AlreadyDelegatedError) Error() string {
	return fmt.Sprintf("%s to %s; deactivate it first", ErrAlreadyDelegated, e.VoterPubkey)
}

func (e *AlreadyDelegatedError) Unwrap() error {
	return ErrAlreadyDelegated
}

type StillActiveError struct {
	VoterPubkey solana.PublicKey
	Stake       uint64
}

func (e *StillActiveError) Error() string {
	return fmt.Sprintf("%s: %d lamports delegated to %s; deactivate it first", ErrStillActive, e.Stake, e.VoterPubkey)
}

func (e *StillActiveError) Unwrap() error {
	return ErrStillActive
}

type CoolingDownError struct {
	DeactivationEpoch uint64
	CurrentEpoch      uint64
	EpochsRemaining   uint64
}

func (e *CoolingDownError) Error() string {
	return fmt.Sprintf("%s: deactivated in epoch %d, current epoch %d, %d epoch(s) remaining",
		ErrCoolingDown, e.DeactivationEpoch, e.CurrentEpoch, e.EpochsRemaining)
}

func (e *CoolingDownError) Unwrap() error {
	return ErrCoolingDown
}

// LockupInForceError reports a lockup that has not expired by epoch or by
// cluster time.
type LockupInForceError struct {
	LockupEpoch     uint64
	CurrentEpoch    uint64
	LockupTimestamp int64
	ClusterTime     int64
	Custodian       solana.PublicKey
}

func (e *LockupInForceError) Error() string {
	if e.LockupEpoch > e.CurrentEpoch {
		return fmt.Sprintf("%s until epoch %d (current epoch %d, custodian %s)",
			ErrLockupInForce, e.LockupEpoch, e.CurrentEpoch, e.Custodian)
	}
	return fmt.Sprintf("%s until unix time %d (cluster time %d, custodian %s)",
		ErrLockupInForce, e.LockupTimestamp, e.ClusterTime, e.Custodian)
}

func (e *LockupInForceError) Unwrap() error {
	return ErrLockupInForce
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

// MergeStateError rejects either side of a merge. Which side is given by the
// sentinel it wraps.
type MergeStateError struct {
	Pubkey solana.PublicKey
	Status string
	err    error
}

func (e *MergeStateError) Error() string {
	return fmt.Sprintf("%s: %s is %s", e.err, e.Pubkey, e.Status)
}

func (e *MergeStateError) Unwrap() error {
	return e.err
}

type SourceDeactivatingError struct {
	Pubkey            solana.PublicKey
	DeactivationEpoch uint64
}

func (e *SourceDeactivatingError) Error() string {
	return fmt.Sprintf("%s: %s has been deactivating since epoch %d", ErrSourceDeactivating, e.Pubkey, e.DeactivationEpoch)
}

func (e *SourceDeactivatingError) Unwrap() error {
	return ErrSourceDeactivating
}

type AuthorityMismatchError struct {
	Role        string
	Destination solana.PublicKey
	Source      solana.PublicKey
}

func (e *AuthorityMismatchError) Error() string {
	return fmt.Sprintf("%s: destination %s is %s, source %s is %s",
		ErrAuthorityMismatch, e.Role, e.Destination, e.Role, e.Source)
}

func (e *AuthorityMismatchError) Unwrap() error {
	return ErrAuthorityMismatch
}

type SameAccountError struct {
	Pubkey solana.PublicKey
}

func (e *SameAccountError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSameAccount, e.Pubkey)
}

func (e *SameAccountError) Unwrap() error {
	return ErrSameAccount
}

type BelowMinimumDelegationError struct {
	Requested uint64
	Minimum   uint64
}

func (e *BelowMinimumDelegationError) Error() string {
	return fmt.Sprintf("%s: requested %d lamports, minimum %d", ErrBelowMinimumDelegation, e.Requested, e.Minimum)
}

func (e *BelowMinimumDelegationError) Unwrap() error {
	return ErrBelowMinimumDelegation
}

type BelowRentExemptError struct {
	Requested uint64
	Minimum   uint64
}

func (e *BelowRentExemptError) Error() string {
	return fmt.Sprintf("%s: requested %d lamports, minimum %d", ErrBelowRentExempt, e.Requested, e.Minimum)
}

func (e *BelowRentExemptError) Unwrap() error {
	return ErrBelowRentExempt
}

type AccountExistsError struct {
	Pubkey solana.PublicKey
	Owner  solana.PublicKey
}

func (e *AccountExistsError) Error() string {
	return fmt.Sprintf("%s: %s is owned by %s", ErrAccountExists, e.Pubkey, e.Owner)
}

func (e *AccountExistsError) Unwrap() error {
	return ErrAccountExists
}
