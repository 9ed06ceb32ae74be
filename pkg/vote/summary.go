package vote

import (
	"github.com/gagliardetto/solana-go"

	"github.com/Overclock-Validator/scilla/pkg/state"
)

// Summary is the display form of a vote account.
type Summary struct {
	Pubkey            solana.PublicKey        `json:"pubkey"`
	Lamports          uint64                  `json:"lamports"`
	Version           uint32                  `json:"version"`
	Identity          solana.PublicKey        `json:"identity"`
	AuthorizedVoter   *solana.PublicKey       `json:"authorizedVoter,omitempty"`
	// ScheduledVoter is set when a different voter takes over in a later
	// epoch.
	ScheduledVoter    *state.AuthorizedVoter  `json:"scheduledVoter,omitempty"`
	Withdrawer        solana.PublicKey        `json:"withdrawer"`
	Credits           uint64                  `json:"credits"`
	CommissionPercent uint8                   `json:"commission"`
	CommissionBps     uint16                  `json:"commissionBps"`
	RootSlot          *uint64                 `json:"rootSlot,omitempty"`
	LastVotedSlot     *uint64                 `json:"lastVotedSlot,omitempty"`
	LastTimestamp     state.BlockTimestamp    `json:"lastTimestamp"`
	AuthorizedVoters  []state.AuthorizedVoter `json:"authorizedVoters"`
	EpochCredits      []state.EpochCredits    `json:"epochCredits"`
}

// recentEpochCredits bounds how much credit history is shown.
const recentEpochCredits = 5

func Summarize(account *Account, currentEpoch uint64) *Summary {
	voteState := account.State
	summary := &Summary{
		Pubkey:            account.Pubkey,
		Lamports:          account.Lamports,
		Version:           voteState.Version,
		Identity:          voteState.NodePubkey,
		Withdrawer:        voteState.AuthorizedWithdrawer,
		Credits:           voteState.Credits(),
		CommissionPercent: voteState.CommissionPercent(),
		CommissionBps:     voteState.CommissionBps,
		RootSlot:          voteState.RootSlot,
		LastTimestamp:     voteState.LastTimestamp,
		AuthorizedVoters:  voteState.AuthorizedVoters.All(),
	}

	if voter, ok := voteState.AuthorizedVoterForEpoch(currentEpoch); ok {
		summary.AuthorizedVoter = &voter
	}
	if last, ok := voteState.LastAuthorizedVoter(); ok && last.Epoch > currentEpoch {
		if summary.AuthorizedVoter == nil || !last.Pubkey.Equals(*summary.AuthorizedVoter) {
			summary.ScheduledVoter = &last
		}
	}
	if slot, ok := voteState.LastVotedSlot(); ok {
		summary.LastVotedSlot = &slot
	}

	credits := voteState.EpochCredits
	if len(credits) > recentEpochCredits {
		credits = credits[len(credits)-recentEpochCredits:]
	}
	summary.EpochCredits = credits
	return summary
}
