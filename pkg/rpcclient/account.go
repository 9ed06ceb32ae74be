package rpcclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"k8s.io/klog/v2"
)

// Account is an immutable snapshot of an on-chain account.
type Account struct {
	Pubkey     solana.PublicKey `json:"pubkey"`
	Owner      solana.PublicKey `json:"owner"`
	Lamports   uint64           `json:"lamports"`
	Data       []byte           `json:"data"`
	Executable bool             `json:"executable"`
	RentEpoch  uint64           `json:"rentEpoch"`
}

func newAccount(pubkey solana.PublicKey, acct *rpc.Account) *Account {
	account := &Account{
		Pubkey:     pubkey,
		Owner:      acct.Owner,
		Lamports:   acct.Lamports,
		Executable: acct.Executable,
	}
	if acct.Data != nil {
		account.Data = acct.Data.GetBinary()
	}
	if acct.RentEpoch != nil && acct.RentEpoch.IsUint64() {
		account.RentEpoch = acct.RentEpoch.Uint64()
	}
	return account
}

func (fetcher *RpcClient) GetAccount(ctx context.Context, pubkey solana.PublicKey) (*Account, error) {
	klog.V(3).Infof("getAccountInfo %s", pubkey)

	result, err := fetcher.client.GetAccountInfoWithOpts(ctx, pubkey, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: fetcher.commitment,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, &AccountNotFoundError{Pubkey: pubkey}
	}
	if err != nil {
		return nil, transportError("getAccountInfo", err)
	}

	return newAccount(pubkey, result.Value), nil
}

// GetMultipleAccounts returns accounts in request order. Any missing account
// fails the whole call with an AccountNotFoundError naming it.
func (fetcher *RpcClient) GetMultipleAccounts(ctx context.Context, pubkeys ...solana.PublicKey) ([]*Account, error) {
	klog.V(3).Infof("getMultipleAccounts %v", pubkeys)

	result, err := fetcher.client.GetMultipleAccountsWithOpts(ctx, pubkeys, &rpc.GetMultipleAccountsOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: fetcher.commitment,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, &AccountNotFoundError{Pubkey: pubkeys[0]}
	}
	if err != nil {
		return nil, transportError("getMultipleAccounts", err)
	}

	if len(result.Value) != len(pubkeys) {
		return nil, transportError("getMultipleAccounts",
			fmt.Errorf("requested %d accounts, got %d", len(pubkeys), len(result.Value)))
	}

	accounts := make([]*Account, len(pubkeys))
	for i, acct := range result.Value {
		if acct == nil {
			return nil, &AccountNotFoundError{Pubkey: pubkeys[i]}
		}
		accounts[i] = newAccount(pubkeys[i], acct)
	}
	return accounts, nil
}

func (fetcher *RpcClient) GetBalance(ctx context.Context, pubkey solana.PublicKey) (uint64, error) {
	result, err := fetcher.client.GetBalance(ctx, pubkey, fetcher.commitment)
	if err != nil {
		return 0, transportError("getBalance", err)
	}
	return result.Value, nil
}

func (fetcher *RpcClient) GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error) {
	lamports, err := fetcher.client.GetMinimumBalanceForRentExemption(ctx, dataSize, fetcher.commitment)
	if err != nil {
		return 0, transportError("getMinimumBalanceForRentExemption", err)
	}
	return lamports, nil
}

type stakeMinimumDelegationResult struct {
	rpc.RPCContext
	Value uint64 `json:"value"`
}

// GetStakeMinimumDelegation returns the network minimum delegation in
// lamports. solana-go has no wrapper for this method.
func (fetcher *RpcClient) GetStakeMinimumDelegation(ctx context.Context) (uint64, error) {
	var params []interface{}
	if fetcher.commitment != "" {
		params = append(params, rpc.M{"commitment": fetcher.commitment})
	}

	var result stakeMinimumDelegationResult
	err := fetcher.client.RPCCallForInto(ctx, &result, "getStakeMinimumDelegation", params)
	if err != nil {
		return 0, transportError("getStakeMinimumDelegation", err)
	}
	return result.Value, nil
}

func (fetcher *RpcClient) RequestAirdrop(ctx context.Context, pubkey solana.PublicKey, lamports uint64) (solana.Signature, error) {
	sig, err := fetcher.client.RequestAirdrop(ctx, pubkey, lamports, fetcher.commitment)
	if err != nil {
		return solana.Signature{}, transportError("requestAirdrop", err)
	}
	return sig, nil
}
