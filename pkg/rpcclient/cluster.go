package rpcclient

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/scilla/pkg/state"
)

type EpochInfo struct {
	Epoch        uint64 `json:"epoch"`
	SlotIndex    uint64 `json:"slotIndex"`
	SlotsInEpoch uint64 `json:"slotsInEpoch"`
	AbsoluteSlot uint64 `json:"absoluteSlot"`
	BlockHeight  uint64 `json:"blockHeight"`
}

// SlotsRemaining is the number of slots left before the next epoch begins.
func (epochInfo *EpochInfo) SlotsRemaining() uint64 {
	if epochInfo.SlotIndex >= epochInfo.SlotsInEpoch {
		return 0
	}
	return epochInfo.SlotsInEpoch - epochInfo.SlotIndex
}

func (fetcher *RpcClient) GetEpochInfo(ctx context.Context) (*EpochInfo, error) {
	result, err := fetcher.client.GetEpochInfo(ctx, fetcher.commitment)
	if err != nil {
		return nil, transportError("getEpochInfo", err)
	}

	klog.V(3).Infof("epoch %d, slot index %d/%d", result.Epoch, result.SlotIndex, result.SlotsInEpoch)

	return &EpochInfo{
		Epoch:        result.Epoch,
		SlotIndex:    result.SlotIndex,
		SlotsInEpoch: result.SlotsInEpoch,
		AbsoluteSlot: result.AbsoluteSlot,
		BlockHeight:  result.BlockHeight,
	}, nil
}

func (fetcher *RpcClient) GetLatestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	result, err := fetcher.client.GetLatestBlockhash(ctx, fetcher.commitment)
	if err != nil {
		return solana.Hash{}, 0, transportError("getLatestBlockhash", err)
	}
	if result.Value == nil {
		return solana.Hash{}, 0, transportError("getLatestBlockhash", errEmptyResult)
	}
	return result.Value.Blockhash, result.Value.LastValidBlockHeight, nil
}

func (fetcher *RpcClient) GetSlot(ctx context.Context) (uint64, error) {
	slot, err := fetcher.client.GetSlot(ctx, fetcher.commitment)
	if err != nil {
		return 0, transportError("getSlot", err)
	}
	return slot, nil
}

func (fetcher *RpcClient) GetBlockHeight(ctx context.Context) (uint64, error) {
	blockHeight, err := fetcher.client.GetBlockHeight(ctx, fetcher.commitment)
	if err != nil {
		return 0, transportError("getBlockHeight", err)
	}
	return blockHeight, nil
}

// GetBlockTime returns the estimated production time of slot as a unix
// timestamp.
func (fetcher *RpcClient) GetBlockTime(ctx context.Context, slot uint64) (int64, error) {
	blockTime, err := fetcher.client.GetBlockTime(ctx, slot)
	if err != nil {
		return 0, transportError("getBlockTime", err)
	}
	if blockTime == nil {
		return 0, transportError("getBlockTime", errNoBlockTime)
	}
	return int64(*blockTime), nil
}

func (fetcher *RpcClient) GetSupply(ctx context.Context) (*rpc.SupplyResult, error) {
	result, err := fetcher.client.GetSupply(ctx, fetcher.commitment)
	if err != nil {
		return nil, transportError("getSupply", err)
	}
	if result.Value == nil {
		return nil, transportError("getSupply", errEmptyResult)
	}
	return result.Value, nil
}

func (fetcher *RpcClient) GetInflationRate(ctx context.Context) (*rpc.GetInflationRateResult, error) {
	result, err := fetcher.client.GetInflationRate(ctx)
	if err != nil {
		return nil, transportError("getInflationRate", err)
	}
	return result, nil
}

func (fetcher *RpcClient) GetVersion(ctx context.Context) (*rpc.GetVersionResult, error) {
	result, err := fetcher.client.GetVersion(ctx)
	if err != nil {
		return nil, transportError("getVersion", err)
	}
	return result, nil
}

// GetVoteAccounts returns the current and delinquent vote accounts, limited to
// votePubkey when it is non-nil.
func (fetcher *RpcClient) GetVoteAccounts(ctx context.Context, votePubkey *solana.PublicKey) (*rpc.GetVoteAccountsResult, error) {
	result, err := fetcher.client.GetVoteAccounts(ctx, &rpc.GetVoteAccountsOpts{
		Commitment: fetcher.commitment,
		VotePubkey: votePubkey,
	})
	if err != nil {
		return nil, transportError("getVoteAccounts", err)
	}
	return result, nil
}

// GetStakeHistory reads and decodes the stake history sysvar.
func (fetcher *RpcClient) GetStakeHistory(ctx context.Context) (state.StakeHistory, error) {
	account, err := fetcher.GetAccount(ctx, solana.SysVarStakeHistoryPubkey)
	if err != nil {
		return nil, err
	}
	return state.DecodeStakeHistory(account.Data)
}

// GetClock reads and decodes the clock sysvar.
func (fetcher *RpcClient) GetClock(ctx context.Context) (*state.Clock, error) {
	account, err := fetcher.GetAccount(ctx, solana.SysVarClockPubkey)
	if err != nil {
		return nil, err
	}
	return state.DecodeClock(account.Data)
}
