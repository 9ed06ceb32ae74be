package stake

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/scilla/pkg/rpcclient"
	"github.com/Overclock-Validator/scilla/pkg/state"
)

// AccountFetcher is the read side of the RPC client used by Manager.
type AccountFetcher interface {
	GetAccount(ctx context.Context, pubkey solana.PublicKey) (*rpcclient.Account, error)
	FetchAccountWithEpoch(ctx context.Context, pubkey solana.PublicKey) (*rpcclient.Account, *rpcclient.EpochInfo, error)
	FetchAccountsWithEpoch(ctx context.Context, pubkeys ...solana.PublicKey) ([]*rpcclient.Account, *rpcclient.EpochInfo, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error)
	GetStakeMinimumDelegation(ctx context.Context) (uint64, error)
	GetStakeHistory(ctx context.Context) (state.StakeHistory, error)
	GetClock(ctx context.Context) (*state.Clock, error)
}

// Submitter signs and lands instructions, paying fees from Payer.
type Submitter interface {
	Payer() solana.PublicKey
	SendAndConfirm(ctx context.Context, instructions []solana.Instruction, signers ...solana.PrivateKey) (solana.Signature, error)
}

// Manager runs each stake operation end to end: fetch, decode, validate,
// then submit.
type Manager struct {
	fetcher   AccountFetcher
	submitter Submitter
}

func NewManager(fetcher AccountFetcher, submitter Submitter) *Manager {
	return &Manager{fetcher: fetcher, submitter: submitter}
}

func decodeAccount(account *rpcclient.Account) (*Account, error) {
	stakeState, err := state.DecodeStakeAccount(account.Owner, account.Data)
	if err != nil {
		return nil, err
	}
	return &Account{Pubkey: account.Pubkey, Lamports: account.Lamports, State: stakeState}, nil
}

func (m *Manager) load(ctx context.Context, pubkey solana.PublicKey) (*Account, *rpcclient.EpochInfo, error) {
	account, epochInfo, err := m.fetcher.FetchAccountWithEpoch(ctx, pubkey)
	if err != nil {
		return nil, nil, err
	}

	stakeAccount, err := decodeAccount(account)
	if err != nil {
		return nil, nil, err
	}
	return stakeAccount, epochInfo, nil
}

func (m *Manager) ensureAbsent(ctx context.Context, pubkey solana.PublicKey) error {
	existing, err := m.fetcher.GetAccount(ctx, pubkey)
	if err == nil {
		return &AccountExistsError{Pubkey: pubkey, Owner: existing.Owner}
	}
	if errors.Is(err, rpcclient.ErrAccountNotFound) {
		return nil
	}
	return err
}

// Create funds and initializes a new stake account with the given
// authorities.
func (m *Manager) Create(ctx context.Context, stakeAccount solana.PrivateKey, staker, withdrawer solana.PublicKey, lamports uint64) (solana.Signature, error) {
	stakePubkey := stakeAccount.PublicKey()

	err := m.ensureAbsent(ctx, stakePubkey)
	if err != nil {
		return solana.Signature{}, err
	}

	rentExemptReserve, err := m.fetcher.GetMinimumBalanceForRentExemption(ctx, state.StakeAccountSize)
	if err != nil {
		return solana.Signature{}, err
	}

	instructions, err := BuildCreate(CreateParams{
		Payer:             m.submitter.Payer(),
		StakeAccount:      stakePubkey,
		Staker:            staker,
		Withdrawer:        withdrawer,
		Lamports:          lamports,
		RentExemptReserve: rentExemptReserve,
	})
	if err != nil {
		return solana.Signature{}, err
	}

	klog.V(2).Infof("creating stake account %s with %d lamports", stakePubkey, lamports)
	return m.submitter.SendAndConfirm(ctx, instructions, stakeAccount)
}

func (m *Manager) Delegate(ctx context.Context, stakePubkey, votePubkey solana.PublicKey, staker solana.PrivateKey) (solana.Signature, error) {
	account, _, err := m.load(ctx, stakePubkey)
	if err != nil {
		return solana.Signature{}, err
	}

	voteAccount, err := m.fetcher.GetAccount(ctx, votePubkey)
	if err != nil {
		return solana.Signature{}, err
	}

	instructions, err := ValidateDelegate(account, votePubkey, voteAccount.Owner, voteAccount.Data, staker.PublicKey())
	if err != nil {
		return solana.Signature{}, err
	}

	klog.V(2).Infof("delegating %s to %s", stakePubkey, votePubkey)
	return m.submitter.SendAndConfirm(ctx, instructions, staker)
}

func (m *Manager) Deactivate(ctx context.Context, stakePubkey solana.PublicKey, staker solana.PrivateKey) (solana.Signature, error) {
	account, _, err := m.load(ctx, stakePubkey)
	if err != nil {
		return solana.Signature{}, err
	}

	instructions, err := ValidateDeactivate(account, staker.PublicKey())
	if err != nil {
		return solana.Signature{}, err
	}

	klog.V(2).Infof("deactivating %s", stakePubkey)
	return m.submitter.SendAndConfirm(ctx, instructions, staker)
}

func (m *Manager) Withdraw(ctx context.Context, stakePubkey solana.PublicKey, withdrawer solana.PrivateKey, recipient solana.PublicKey, lamports uint64) (solana.Signature, error) {
	account, epochInfo, err := m.load(ctx, stakePubkey)
	if err != nil {
		return solana.Signature{}, err
	}

	clock, err := m.fetcher.GetClock(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	instructions, err := ValidateWithdraw(account, withdrawer.PublicKey(), WithdrawParams{
		Recipient:   recipient,
		Lamports:    lamports,
		ClusterTime: clock.UnixTimestamp,
	}, epochInfo.Epoch)
	if err != nil {
		return solana.Signature{}, err
	}

	klog.V(2).Infof("withdrawing %d lamports from %s to %s", lamports, stakePubkey, recipient)
	return m.submitter.SendAndConfirm(ctx, instructions, withdrawer)
}

// Merge folds source into destination. Both accounts are fetched in one
// request.
func (m *Manager) Merge(ctx context.Context, destination, source solana.PublicKey, staker solana.PrivateKey) (solana.Signature, error) {
	if destination.Equals(source) {
		return solana.Signature{}, &SameAccountError{Pubkey: source}
	}

	accounts, _, err := m.fetcher.FetchAccountsWithEpoch(ctx, destination, source)
	if err != nil {
		return solana.Signature{}, err
	}

	destinationAccount, err := decodeAccount(accounts[0])
	if err != nil {
		return solana.Signature{}, err
	}
	sourceAccount, err := decodeAccount(accounts[1])
	if err != nil {
		return solana.Signature{}, err
	}

	instructions, err := ValidateMerge(destinationAccount, sourceAccount, staker.PublicKey())
	if err != nil {
		return solana.Signature{}, err
	}

	klog.V(2).Infof("merging %s into %s", source, destination)
	return m.submitter.SendAndConfirm(ctx, instructions, staker)
}

// Split moves lamports from source into the new account held by
// newStakeAccount.
func (m *Manager) Split(ctx context.Context, source solana.PublicKey, newStakeAccount solana.PrivateKey, staker solana.PrivateKey, lamports uint64) (solana.Signature, error) {
	destination := newStakeAccount.PublicKey()
	if destination.Equals(source) {
		return solana.Signature{}, &SameAccountError{Pubkey: source}
	}

	minimumDelegation, err := m.fetcher.GetStakeMinimumDelegation(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	rentExemptReserve, err := m.fetcher.GetMinimumBalanceForRentExemption(ctx, state.StakeAccountSize)
	if err != nil {
		return solana.Signature{}, err
	}

	account, _, err := m.load(ctx, source)
	if err != nil {
		return solana.Signature{}, err
	}

	instructions, err := ValidateSplit(account, staker.PublicKey(), SplitParams{
		Payer:             m.submitter.Payer(),
		Destination:       destination,
		Lamports:          lamports,
		MinimumDelegation: minimumDelegation,
		RentExemptReserve: rentExemptReserve,
	})
	if err != nil {
		return solana.Signature{}, err
	}

	klog.V(2).Infof("splitting %d lamports from %s into %s", lamports, source, destination)
	return m.submitter.SendAndConfirm(ctx, instructions, newStakeAccount, staker)
}

func (m *Manager) Show(ctx context.Context, stakePubkey solana.PublicKey) (*Summary, error) {
	account, epochInfo, err := m.load(ctx, stakePubkey)
	if err != nil {
		return nil, err
	}
	history, err := m.fetcher.GetStakeHistory(ctx)
	if err != nil {
		return nil, err
	}
	return Describe(account, epochInfo.Epoch, history), nil
}

func (m *Manager) History(ctx context.Context) (state.StakeHistory, error) {
	return m.fetcher.GetStakeHistory(ctx)
}
