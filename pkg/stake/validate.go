package stake

import (
	"github.com/gagliardetto/solana-go"
	stakeprog "github.com/gagliardetto/solana-go/programs/stake"
	"github.com/gagliardetto/solana-go/programs/system"

	"github.com/Overclock-Validator/scilla/pkg/state"
)

// Account is a decoded stake account snapshot.
type Account struct {
	Pubkey   solana.PublicKey
	Lamports uint64
	State    *state.StakeState
}

func checkAuthority(role string, expected, actual solana.PublicKey) error {
	if !expected.Equals(actual) {
		return &NotAuthorizedError{Role: role, Expected: expected, Actual: actual}
	}
	return nil
}

// activeDelegation returns the delegation of a Stake account, or a
// WrongStateError naming action for any other state.
func activeDelegation(account *Account, action string) (*state.Delegation, error) {
	delegation, ok := account.State.Delegation()
	if !ok {
		return nil, &WrongStateError{Action: action, Status: account.State.StatusName()}
	}
	return delegation, nil
}

// ValidateDeactivate accepts only an active delegation signed by the staker.
// A second deactivation is rejected whoever signs it.
func ValidateDeactivate(account *Account, caller solana.PublicKey) ([]solana.Instruction, error) {
	delegation, err := activeDelegation(account, "deactivate")
	if err != nil {
		return nil, err
	}

	if delegation.IsDeactivating() {
		return nil, &AlreadyDeactivatingError{DeactivationEpoch: delegation.DeactivationEpoch}
	}

	err = checkAuthority("staker", account.State.Stake.Meta.Authorized.Staker, caller)
	if err != nil {
		return nil, err
	}

	return []solana.Instruction{
		stakeprog.NewDeactivateInstruction(account.Pubkey, caller).Build(),
	}, nil
}

type WithdrawParams struct {
	Recipient solana.PublicKey
	Lamports  uint64
	// ClusterTime is the clock sysvar's unix timestamp.
	ClusterTime int64
}

// ValidateWithdraw checks state (a delegation must have finished cooling
// down), then the withdrawer, then the lockup, then the amount. A partial
// withdrawal must leave the rent exempt reserve behind.
func ValidateWithdraw(account *Account, caller solana.PublicKey, params WithdrawParams, currentEpoch uint64) ([]solana.Instruction, error) {
	meta, ok := account.State.Meta()
	if !ok {
		return nil, &WrongStateError{Action: "withdraw from", Status: account.State.StatusName()}
	}

	if delegation, ok := account.State.Delegation(); ok {
		if !delegation.IsDeactivating() {
			return nil, &StillActiveError{VoterPubkey: delegation.VoterPubkey, Stake: delegation.Stake}
		}
		if currentEpoch <= delegation.DeactivationEpoch {
			return nil, &CoolingDownError{
				DeactivationEpoch: delegation.DeactivationEpoch,
				CurrentEpoch:      currentEpoch,
				EpochsRemaining:   delegation.DeactivationEpoch - currentEpoch,
			}
		}
	}

	err := checkAuthority("withdrawer", meta.Authorized.Withdrawer, caller)
	if err != nil {
		return nil, err
	}

	if meta.Lockup.Epoch > currentEpoch || meta.Lockup.UnixTimestamp > params.ClusterTime {
		return nil, &LockupInForceError{
			LockupEpoch:     meta.Lockup.Epoch,
			CurrentEpoch:    currentEpoch,
			LockupTimestamp: meta.Lockup.UnixTimestamp,
			ClusterTime:     params.ClusterTime,
			Custodian:       meta.Lockup.Custodian,
		}
	}

	if params.Lamports > account.Lamports {
		return nil, &InsufficientBalanceError{Requested: params.Lamports, Available: account.Lamports}
	}
	if params.Lamports != account.Lamports && account.Lamports-params.Lamports < meta.RentExemptReserve {
		available := uint64(0)
		if account.Lamports > meta.RentExemptReserve {
			available = account.Lamports - meta.RentExemptReserve
		}
		return nil, &InsufficientBalanceError{Requested: params.Lamports, Available: available}
	}

	return []solana.Instruction{
		stakeprog.NewWithdrawInstruction(params.Lamports, account.Pubkey, params.Recipient, caller).Build(),
	}, nil
}

func mergeState(account *Account, sentinel error) (*state.Meta, error) {
	meta, ok := account.State.Meta()
	if !ok {
		return nil, &MergeStateError{Pubkey: account.Pubkey, Status: account.State.StatusName(), err: sentinel}
	}
	return meta, nil
}

// ValidateMerge merges source into destination. Identical accounts are
// rejected before either state is looked at.
func ValidateMerge(destination, source *Account, caller solana.PublicKey) ([]solana.Instruction, error) {
	if destination.Pubkey.Equals(source.Pubkey) {
		return nil, &SameAccountError{Pubkey: source.Pubkey}
	}

	destinationMeta, err := mergeState(destination, ErrInvalidDestinationState)
	if err != nil {
		return nil, err
	}

	sourceMeta, err := mergeState(source, ErrInvalidSourceState)
	if err != nil {
		return nil, err
	}
	if delegation, ok := source.State.Delegation(); ok && delegation.IsDeactivating() {
		return nil, &SourceDeactivatingError{Pubkey: source.Pubkey, DeactivationEpoch: delegation.DeactivationEpoch}
	}

	err = checkAuthority("staker", sourceMeta.Authorized.Staker, caller)
	if err != nil {
		return nil, err
	}

	if !destinationMeta.Authorized.Staker.Equals(sourceMeta.Authorized.Staker) {
		return nil, &AuthorityMismatchError{
			Role:        "staker",
			Destination: destinationMeta.Authorized.Staker,
			Source:      sourceMeta.Authorized.Staker,
		}
	}
	if !destinationMeta.Authorized.Withdrawer.Equals(sourceMeta.Authorized.Withdrawer) {
		return nil, &AuthorityMismatchError{
			Role:        "withdrawer",
			Destination: destinationMeta.Authorized.Withdrawer,
			Source:      sourceMeta.Authorized.Withdrawer,
		}
	}

	instruction, err := newMergeInstruction(destination.Pubkey, source.Pubkey, caller)
	if err != nil {
		return nil, err
	}
	return []solana.Instruction{instruction}, nil
}

type SplitParams struct {
	Payer             solana.PublicKey
	Destination       solana.PublicKey
	Lamports          uint64
	MinimumDelegation uint64
	// RentExemptReserve funds the new account created for the split.
	RentExemptReserve uint64
}

// ValidateSplit moves Lamports from source into a fresh stake account at
// params.Destination, which is allocated by a system create-account first.
func ValidateSplit(source *Account, caller solana.PublicKey, params SplitParams) ([]solana.Instruction, error) {
	if source.Pubkey.Equals(params.Destination) {
		return nil, &SameAccountError{Pubkey: source.Pubkey}
	}

	if params.Lamports < params.MinimumDelegation {
		return nil, &BelowMinimumDelegationError{Requested: params.Lamports, Minimum: params.MinimumDelegation}
	}

	meta, ok := source.State.Meta()
	if !ok {
		return nil, &WrongStateError{Action: "split", Status: source.State.StatusName()}
	}

	err := checkAuthority("staker", meta.Authorized.Staker, caller)
	if err != nil {
		return nil, err
	}

	if params.Lamports > source.Lamports {
		return nil, &InsufficientBalanceError{Requested: params.Lamports, Available: source.Lamports}
	}

	return []solana.Instruction{
		system.NewCreateAccountInstruction(
			params.RentExemptReserve,
			state.StakeAccountSize,
			solana.StakeProgramID,
			params.Payer,
			params.Destination,
		).Build(),
		stakeprog.NewSplitInstruction(params.Lamports, source.Pubkey, params.Destination, caller).Build(),
	}, nil
}

// ValidateDelegate points an Initialized account, or one whose previous
// delegation is being deactivated, at voteAccount. The vote account must be
// owned by the vote program and carry a decodable vote state.
func ValidateDelegate(account *Account, voteAccount solana.PublicKey, voteOwner solana.PublicKey, voteData []byte, caller solana.PublicKey) ([]solana.Instruction, error) {
	meta, ok := account.State.Meta()
	if !ok {
		return nil, &WrongStateError{Action: "delegate", Status: account.State.StatusName()}
	}
	if delegation, ok := account.State.Delegation(); ok && !delegation.IsDeactivating() {
		return nil, &AlreadyDelegatedError{VoterPubkey: delegation.VoterPubkey}
	}

	err := checkAuthority("staker", meta.Authorized.Staker, caller)
	if err != nil {
		return nil, err
	}

	_, err = state.DecodeVoteAccount(voteOwner, voteData)
	if err != nil {
		return nil, err
	}

	return []solana.Instruction{
		stakeprog.NewDelegateStakeInstruction(voteAccount, caller, account.Pubkey).Build(),
	}, nil
}

type CreateParams struct {
	Payer        solana.PublicKey
	StakeAccount solana.PublicKey
	Staker       solana.PublicKey
	Withdrawer   solana.PublicKey
	Lamports     uint64
	// RentExemptReserve is the rent exempt minimum for a stake account.
	RentExemptReserve uint64
}

// BuildCreate allocates and initializes a stake account. Only rent exemption
// is required of the balance; delegating it is a separate step.
func BuildCreate(params CreateParams) ([]solana.Instruction, error) {
	if params.Payer.Equals(params.StakeAccount) {
		return nil, &SameAccountError{Pubkey: params.StakeAccount}
	}
	if params.Lamports < params.RentExemptReserve {
		return nil, &BelowRentExemptError{Requested: params.Lamports, Minimum: params.RentExemptReserve}
	}

	return []solana.Instruction{
		system.NewCreateAccountInstruction(
			params.Lamports,
			state.StakeAccountSize,
			solana.StakeProgramID,
			params.Payer,
			params.StakeAccount,
		).Build(),
		stakeprog.NewInitializeInstruction(params.Staker, params.Withdrawer, params.StakeAccount).Build(),
	}, nil
}
