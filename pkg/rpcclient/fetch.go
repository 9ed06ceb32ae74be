package rpcclient

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/sync/errgroup"
)

// FetchAccountWithEpoch reads an account and the current epoch concurrently.
// Both reads must succeed; the first failure cancels the other.
func (fetcher *RpcClient) FetchAccountWithEpoch(ctx context.Context, pubkey solana.PublicKey) (*Account, *EpochInfo, error) {
	var (
		account   *Account
		epochInfo *EpochInfo
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() (err error) {
		account, err = fetcher.GetAccount(groupCtx, pubkey)
		return err
	})
	group.Go(func() (err error) {
		epochInfo, err = fetcher.GetEpochInfo(groupCtx)
		return err
	})

	if err := group.Wait(); err != nil {
		return nil, nil, err
	}
	return account, epochInfo, nil
}

// FetchAccountsWithEpoch is the multi-account form of FetchAccountWithEpoch.
// Accounts are returned in the order requested.
func (fetcher *RpcClient) FetchAccountsWithEpoch(ctx context.Context, pubkeys ...solana.PublicKey) ([]*Account, *EpochInfo, error) {
	var (
		accounts  []*Account
		epochInfo *EpochInfo
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() (err error) {
		accounts, err = fetcher.GetMultipleAccounts(groupCtx, pubkeys...)
		return err
	})
	group.Go(func() (err error) {
		epochInfo, err = fetcher.GetEpochInfo(groupCtx)
		return err
	})

	if err := group.Wait(); err != nil {
		return nil, nil, err
	}
	return accounts, epochInfo, nil
}
