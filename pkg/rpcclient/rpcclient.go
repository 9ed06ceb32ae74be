package rpcclient

import (
	"github.com/gagliardetto/solana-go/rpc"
)

// RpcClient wraps the JSON-RPC client and applies one commitment level to
// every read it issues.
type RpcClient struct {
	client     *rpc.Client
	commitment rpc.CommitmentType
}

func NewRpcClient(endpoint string, commitment rpc.CommitmentType) *RpcClient {
	client := rpc.New(endpoint)
	return &RpcClient{client: client, commitment: commitment}
}

func (fetcher *RpcClient) Commitment() rpc.CommitmentType {
	return fetcher.commitment
}
