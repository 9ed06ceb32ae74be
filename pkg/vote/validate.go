package vote

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/samber/lo"

	"github.com/Overclock-Validator/scilla/pkg/parse"
	"github.com/Overclock-Validator/scilla/pkg/rpcclient"
	"github.com/Overclock-Validator/scilla/pkg/state"
)

// Account is a decoded vote account snapshot.
type Account struct {
	Pubkey   solana.PublicKey
	Lamports uint64
	State    *state.VoteState
}

type CreateParams struct {
	Payer       solana.PublicKey
	VoteAccount solana.PublicKey
	Identity    solana.PublicKey
	// Voter defaults to Identity when zero.
	Voter      solana.PublicKey
	Withdrawer solana.PublicKey
	Commission parse.Commission
}

// RequiredBalance is the funding for a new vote account: the rent exempt
// minimum, and never less than one lamport.
func RequiredBalance(rentExemptMinimum uint64) uint64 {
	return max(rentExemptMinimum, 1)
}

// ValidateCreate builds the create-account and initialize-account pair.
// existing is the account currently at the vote address, nil when the
// address is free.
func ValidateCreate(params CreateParams, existing *rpcclient.Account, rentExemptMinimum uint64) ([]solana.Instruction, error) {
	if params.Payer.Equals(params.VoteAccount) {
		return nil, ErrPayerIsVoteAccount
	}
	if params.VoteAccount.Equals(params.Identity) {
		return nil, ErrVoteAccountIsIdentity
	}

	if existing != nil {
		return nil, &AccountExistsError{
			Pubkey:        params.VoteAccount,
			Owner:         existing.Owner,
			IsVoteAccount: existing.Owner.Equals(solana.VoteProgramID),
		}
	}

	voter := params.Voter
	if voter.IsZero() {
		voter = params.Identity
	}

	initialize, err := newInitializeAccountInstruction(
		params.VoteAccount,
		params.Identity,
		voter,
		params.Withdrawer,
		uint8(params.Commission),
	)
	if err != nil {
		return nil, err
	}

	return []solana.Instruction{
		system.NewCreateAccountInstruction(
			RequiredBalance(rentExemptMinimum),
			state.VoteAccountSize,
			solana.VoteProgramID,
			params.Payer,
			params.VoteAccount,
		).Build(),
		initialize,
	}, nil
}

// ValidateAuthorizeVoter accepts the voter in effect for currentEpoch or the
// withdrawer. Earlier voters in the history are not accepted.
func ValidateAuthorizeVoter(account *Account, caller, newVoter solana.PublicKey, currentEpoch uint64) ([]solana.Instruction, error) {
	currentVoter, ok := account.State.AuthorizedVoterForEpoch(currentEpoch)
	if !ok {
		return nil, &NoAuthorizedVoterError{Epoch: currentEpoch}
	}

	withdrawer := account.State.AuthorizedWithdrawer
	if !caller.Equals(currentVoter) && !caller.Equals(withdrawer) {
		return nil, &NotAuthorizedError{
			Role:     "authorized voter or withdrawer",
			Expected: []solana.PublicKey{currentVoter, withdrawer},
			Actual:   caller,
		}
	}

	instruction, err := newAuthorizeInstruction(account.Pubkey, caller, newVoter, authorizeVoter)
	if err != nil {
		return nil, err
	}
	return []solana.Instruction{instruction}, nil
}

func checkWithdrawer(account *Account, caller solana.PublicKey) error {
	if !caller.Equals(account.State.AuthorizedWithdrawer) {
		return &NotAuthorizedError{
			Role:     "authorized withdrawer",
			Expected: []solana.PublicKey{account.State.AuthorizedWithdrawer},
			Actual:   caller,
		}
	}
	return nil
}

// ValidateWithdraw requires the withdrawer. A partial withdrawal must leave
// the account rent exempt; withdrawing the whole balance is allowed.
func ValidateWithdraw(account *Account, caller, recipient solana.PublicKey, lamports uint64, rentExemptMinimum uint64) ([]solana.Instruction, error) {
	err := checkWithdrawer(account, caller)
	if err != nil {
		return nil, err
	}

	if lamports > account.Lamports {
		return nil, &InsufficientBalanceError{Requested: lamports, Available: account.Lamports}
	}
	if lamports != account.Lamports && account.Lamports-lamports < rentExemptMinimum {
		available := uint64(0)
		if account.Lamports > rentExemptMinimum {
			available = account.Lamports - rentExemptMinimum
		}
		return nil, &InsufficientBalanceError{Requested: lamports, Available: available}
	}

	return []solana.Instruction{
		newWithdrawInstruction(lamports, account.Pubkey, recipient, caller),
	}, nil
}

// activatedStake looks the vote account up in the cluster's vote-accounts
// view. Accounts absent from both lists carry no stake.
func activatedStake(pubkey solana.PublicKey, voteAccounts *rpc.GetVoteAccountsResult) uint64 {
	if voteAccounts == nil {
		return 0
	}

	all := append(append([]rpc.VoteAccountsResult{}, voteAccounts.Current...), voteAccounts.Delinquent...)
	matching := lo.Filter(all, func(result rpc.VoteAccountsResult, _ int) bool {
		return result.VotePubkey.Equals(pubkey)
	})
	return lo.SumBy(matching, func(result rpc.VoteAccountsResult) uint64 {
		return result.ActivatedStake
	})
}

// ValidateClose withdraws the entire balance to destination. Activated stake
// comes from the cluster view, since the account bytes do not record it.
func ValidateClose(account *Account, caller, destination solana.PublicKey, voteAccounts *rpc.GetVoteAccountsResult) ([]solana.Instruction, error) {
	stake := activatedStake(account.Pubkey, voteAccounts)
	if stake != 0 {
		return nil, &HasActiveStakeError{Pubkey: account.Pubkey, ActivatedStake: stake}
	}

	if account.Lamports == 0 {
		return nil, ErrNothingToReclaim
	}

	err := checkWithdrawer(account, caller)
	if err != nil {
		return nil, err
	}

	return []solana.Instruction{
		newWithdrawInstruction(account.Lamports, account.Pubkey, destination, caller),
	}, nil
}
