package stake

import (
	"github.com/gagliardetto/solana-go"

	"github.com/Overclock-Validator/scilla/pkg/state"
)

type ActivationStatus string

const (
	StatusInactive     ActivationStatus = "inactive"
	StatusActivating   ActivationStatus = "activating"
	StatusActive       ActivationStatus = "active"
	StatusDeactivating ActivationStatus = "deactivating"
)

// Summary is the display form of a stake account.
type Summary struct {
	Pubkey            solana.PublicKey  `json:"pubkey"`
	Lamports          uint64            `json:"lamports"`
	State             string            `json:"state"`
	Status            ActivationStatus  `json:"status,omitempty"`
	RentExemptReserve uint64            `json:"rentExemptReserve,omitempty"`
	Staker            *solana.PublicKey `json:"staker,omitempty"`
	Withdrawer        *solana.PublicKey `json:"withdrawer,omitempty"`
	LockupEpoch       uint64            `json:"lockupEpoch,omitempty"`
	LockupTimestamp   int64             `json:"lockupUnixTimestamp,omitempty"`
	Custodian         *solana.PublicKey `json:"custodian,omitempty"`
	Voter             *solana.PublicKey `json:"voter,omitempty"`
	DelegatedStake    uint64            `json:"delegatedStake,omitempty"`
	ActivationEpoch   *uint64           `json:"activationEpoch,omitempty"`
	DeactivationEpoch *uint64           `json:"deactivationEpoch,omitempty"`
	CreditsObserved   uint64            `json:"creditsObserved,omitempty"`
	// Cluster-wide stake as of the last completed epoch, for reading
	// warmup and cooldown progress.
	ClusterStakeEpoch *uint64                  `json:"clusterStakeEpoch,omitempty"`
	ClusterStake      *state.StakeHistoryEntry `json:"clusterStake,omitempty"`
}

// activationStatus approximates the delegation's phase from epochs alone.
// Warmup and cooldown can span several epochs when the cluster-wide rate
// limit is hit; this reports the phase as soon as the epoch boundary passes.
func activationStatus(delegation *state.Delegation, currentEpoch uint64) ActivationStatus {
	if delegation.IsDeactivating() {
		if delegation.ActivationEpoch == delegation.DeactivationEpoch || currentEpoch > delegation.DeactivationEpoch {
			return StatusInactive
		}
		return StatusDeactivating
	}
	if currentEpoch <= delegation.ActivationEpoch {
		return StatusActivating
	}
	return StatusActive
}

// Describe summarizes account at currentEpoch. history may be nil.
func Describe(account *Account, currentEpoch uint64, history state.StakeHistory) *Summary {
	summary := &Summary{
		Pubkey:   account.Pubkey,
		Lamports: account.Lamports,
		State:    account.State.StatusName(),
	}

	meta, ok := account.State.Meta()
	if !ok {
		return summary
	}

	summary.Status = StatusInactive
	summary.RentExemptReserve = meta.RentExemptReserve
	summary.Staker = &meta.Authorized.Staker
	summary.Withdrawer = &meta.Authorized.Withdrawer
	summary.LockupEpoch = meta.Lockup.Epoch
	summary.LockupTimestamp = meta.Lockup.UnixTimestamp
	if !meta.Lockup.Custodian.IsZero() {
		summary.Custodian = &meta.Lockup.Custodian
	}

	delegation, ok := account.State.Delegation()
	if !ok {
		return summary
	}

	summary.Status = activationStatus(delegation, currentEpoch)
	summary.Voter = &delegation.VoterPubkey
	summary.DelegatedStake = delegation.Stake
	summary.ActivationEpoch = &delegation.ActivationEpoch
	if delegation.IsDeactivating() {
		summary.DeactivationEpoch = &delegation.DeactivationEpoch
	}
	summary.CreditsObserved = account.State.Stake.Stake.CreditsObserved

	if currentEpoch > 0 {
		lastEpoch := currentEpoch - 1
		if entry, ok := history.Get(lastEpoch); ok {
			summary.ClusterStakeEpoch = &lastEpoch
			summary.ClusterStake = entry
		}
	}
	return summary
}
