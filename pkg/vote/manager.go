package vote

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/scilla/pkg/parse"
	"github.com/Overclock-Validator/scilla/pkg/rpcclient"
	"github.com/Overclock-Validator/scilla/pkg/state"
)

type AccountFetcher interface {
	GetAccount(ctx context.Context, pubkey solana.PublicKey) (*rpcclient.Account, error)
	FetchAccountWithEpoch(ctx context.Context, pubkey solana.PublicKey) (*rpcclient.Account, *rpcclient.EpochInfo, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error)
	GetVoteAccounts(ctx context.Context, votePubkey *solana.PublicKey) (*rpc.GetVoteAccountsResult, error)
}

type Submitter interface {
	Payer() solana.PublicKey
	SendAndConfirm(ctx context.Context, instructions []solana.Instruction, signers ...solana.PrivateKey) (solana.Signature, error)
}

// Manager runs each vote account operation end to end.
type Manager struct {
	fetcher   AccountFetcher
	submitter Submitter
}

func NewManager(fetcher AccountFetcher, submitter Submitter) *Manager {
	return &Manager{fetcher: fetcher, submitter: submitter}
}

func (m *Manager) load(ctx context.Context, pubkey solana.PublicKey) (*Account, *rpcclient.EpochInfo, error) {
	account, epochInfo, err := m.fetcher.FetchAccountWithEpoch(ctx, pubkey)
	if err != nil {
		return nil, nil, err
	}

	voteState, err := state.DecodeVoteAccount(account.Owner, account.Data)
	if err != nil {
		return nil, nil, err
	}
	if !voteState.IsInitialized() {
		return nil, nil, fmt.Errorf("%w: %s", ErrUninitialized, pubkey)
	}
	return &Account{Pubkey: pubkey, Lamports: account.Lamports, State: voteState}, epochInfo, nil
}

type CreateRequest struct {
	VoteAccount solana.PrivateKey
	Identity    solana.PrivateKey
	Withdrawer  solana.PublicKey
	// Voter is optional and defaults to the identity.
	Voter      solana.PublicKey
	Commission parse.Commission
}

func (m *Manager) Create(ctx context.Context, req CreateRequest) (solana.Signature, error) {
	votePubkey := req.VoteAccount.PublicKey()

	existing, err := m.fetcher.GetAccount(ctx, votePubkey)
	if err != nil && !errors.Is(err, rpcclient.ErrAccountNotFound) {
		return solana.Signature{}, err
	}

	rentExemptMinimum, err := m.fetcher.GetMinimumBalanceForRentExemption(ctx, state.VoteAccountSize)
	if err != nil {
		return solana.Signature{}, err
	}

	instructions, err := ValidateCreate(CreateParams{
		Payer:       m.submitter.Payer(),
		VoteAccount: votePubkey,
		Identity:    req.Identity.PublicKey(),
		Voter:       req.Voter,
		Withdrawer:  req.Withdrawer,
		Commission:  req.Commission,
	}, existing, rentExemptMinimum)
	if err != nil {
		return solana.Signature{}, err
	}

	klog.V(2).Infof("creating vote account %s for identity %s", votePubkey, req.Identity.PublicKey())
	return m.submitter.SendAndConfirm(ctx, instructions, req.VoteAccount, req.Identity)
}

func (m *Manager) AuthorizeVoter(ctx context.Context, votePubkey solana.PublicKey, authority solana.PrivateKey, newVoter solana.PublicKey) (solana.Signature, error) {
	account, epochInfo, err := m.load(ctx, votePubkey)
	if err != nil {
		return solana.Signature{}, err
	}

	instructions, err := ValidateAuthorizeVoter(account, authority.PublicKey(), newVoter, epochInfo.Epoch)
	if err != nil {
		return solana.Signature{}, err
	}

	klog.V(2).Infof("authorizing voter %s on %s", newVoter, votePubkey)
	return m.submitter.SendAndConfirm(ctx, instructions, authority)
}

func (m *Manager) Withdraw(ctx context.Context, votePubkey solana.PublicKey, withdrawer solana.PrivateKey, recipient solana.PublicKey, lamports uint64) (solana.Signature, error) {
	account, _, err := m.load(ctx, votePubkey)
	if err != nil {
		return solana.Signature{}, err
	}

	rentExemptMinimum, err := m.fetcher.GetMinimumBalanceForRentExemption(ctx, state.VoteAccountSize)
	if err != nil {
		return solana.Signature{}, err
	}

	instructions, err := ValidateWithdraw(account, withdrawer.PublicKey(), recipient, lamports, rentExemptMinimum)
	if err != nil {
		return solana.Signature{}, err
	}

	klog.V(2).Infof("withdrawing %d lamports from %s to %s", lamports, votePubkey, recipient)
	return m.submitter.SendAndConfirm(ctx, instructions, withdrawer)
}

// Close empties the vote account into destination.
func (m *Manager) Close(ctx context.Context, votePubkey solana.PublicKey, withdrawer solana.PrivateKey, destination solana.PublicKey) (solana.Signature, error) {
	voteAccounts, err := m.fetcher.GetVoteAccounts(ctx, &votePubkey)
	if err != nil {
		return solana.Signature{}, err
	}

	account, _, err := m.load(ctx, votePubkey)
	if err != nil {
		return solana.Signature{}, err
	}

	instructions, err := ValidateClose(account, withdrawer.PublicKey(), destination, voteAccounts)
	if err != nil {
		return solana.Signature{}, err
	}

	klog.V(2).Infof("closing vote account %s into %s", votePubkey, destination)
	return m.submitter.SendAndConfirm(ctx, instructions, withdrawer)
}

func (m *Manager) Show(ctx context.Context, votePubkey solana.PublicKey) (*Summary, error) {
	account, epochInfo, err := m.load(ctx, votePubkey)
	if err != nil {
		return nil, err
	}
	return Summarize(account, epochInfo.Epoch), nil
}
