package transaction

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatusView(t *testing.T) {
	sig := solana.Signature{1}

	view := newStatusView(sig, nil, rpc.CommitmentConfirmed)
	assert.False(t, view.Found)
	assert.False(t, view.Confirmed)
	assert.Equal(t, "not found", statusText(view))

	view = newStatusView(sig, &rpc.SignatureStatusesResult{Slot: 9, ConfirmationStatus: rpc.ConfirmationStatusProcessed}, rpc.CommitmentConfirmed)
	assert.True(t, view.Found)
	assert.False(t, view.Confirmed)
	assert.Equal(t, "success", statusText(view))

	view = newStatusView(sig, &rpc.SignatureStatusesResult{Slot: 9, ConfirmationStatus: rpc.ConfirmationStatusFinalized}, rpc.CommitmentConfirmed)
	assert.True(t, view.Confirmed)

	view = newStatusView(sig, &rpc.SignatureStatusesResult{
		ConfirmationStatus: rpc.ConfirmationStatusFinalized,
		Err:                "InsufficientFundsForFee",
	}, rpc.CommitmentConfirmed)
	assert.False(t, view.Confirmed)
	assert.Equal(t, "failed: InsufficientFundsForFee", statusText(view))
}

func TestNewTransactionView(t *testing.T) {
	payer, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(1, payer.PublicKey(), solana.PublicKey{9}).Build(),
			system.NewTransferInstruction(2, payer.PublicKey(), solana.PublicKey{8}).Build(),
		},
		solana.Hash{1},
		solana.TransactionPayer(payer.PublicKey()),
	)
	require.NoError(t, err)
	_, err = tx.Sign(func(pubkey solana.PublicKey) *solana.PrivateKey {
		return &payer
	})
	require.NoError(t, err)

	encoded, err := tx.ToBase64()
	require.NoError(t, err)

	var result rpc.GetTransactionResult
	err = json.Unmarshal([]byte(fmt.Sprintf(`{
		"slot": 42,
		"blockTime": 1700000000,
		"transaction": [%q, "base64"],
		"meta": {"err": null, "fee": 5000, "logMessages": ["Program 11111111111111111111111111111111 invoke [1]"]}
	}`, encoded)), &result)
	require.NoError(t, err)

	view, err := newTransactionView(tx.Signatures[0], &result)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), view.Slot)
	require.NotNil(t, view.BlockTime)
	assert.Equal(t, int64(1700000000), *view.BlockTime)
	assert.Equal(t, uint64(5000), view.Fee)
	assert.Nil(t, view.Err)
	assert.Equal(t, 2, view.Instructions)
	assert.Equal(t, []solana.PublicKey{payer.PublicKey()}, view.Signers)
	assert.Equal(t, []solana.PublicKey{solana.SystemProgramID}, view.Programs)
	assert.Len(t, view.Logs, 1)

	fields := transactionFields(view)
	assert.Equal(t, "Signature", fields[0].Key)
	assert.Equal(t, "Logs", fields[len(fields)-1].Key)
}
