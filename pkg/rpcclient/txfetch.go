package rpcclient

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"k8s.io/klog/v2"
)

// GetTransaction fetches a confirmed transaction. The node does not serve
// transactions at processed commitment, so confirmed is used instead.
func (fetcher *RpcClient) GetTransaction(ctx context.Context, sig solana.Signature) (*rpc.GetTransactionResult, error) {
	commitment := fetcher.commitment
	if commitment == rpc.CommitmentProcessed {
		commitment = rpc.CommitmentConfirmed
	}

	maxVersion := uint64(0)
	result, err := fetcher.client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     commitment,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, &TransactionNotFoundError{Signature: sig}
	}
	if err != nil {
		return nil, transportError("getTransaction", err)
	}
	return result, nil
}

// GetSignatureStatuses returns one entry per signature, nil where the node
// has no record of it.
func (fetcher *RpcClient) GetSignatureStatuses(ctx context.Context, searchHistory bool, sigs ...solana.Signature) ([]*rpc.SignatureStatusesResult, error) {
	result, err := fetcher.client.GetSignatureStatuses(ctx, searchHistory, sigs...)
	if errors.Is(err, rpc.ErrNotFound) {
		return make([]*rpc.SignatureStatusesResult, len(sigs)), nil
	}
	if err != nil {
		return nil, transportError("getSignatureStatuses", err)
	}
	return result.Value, nil
}

func (fetcher *RpcClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := fetcher.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: fetcher.commitment,
	})
	if err != nil {
		return solana.Signature{}, transportError("sendTransaction", err)
	}

	klog.V(2).Infof("submitted transaction %s", sig)
	return sig, nil
}
