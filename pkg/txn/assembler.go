package txn

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/samber/lo"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/scilla/pkg/util"
)

// Client is the subset of the RPC client the assembler submits through.
type Client interface {
	GetLatestBlockhash(ctx context.Context) (solana.Hash, uint64, error)
	GetBlockHeight(ctx context.Context) (uint64, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchHistory bool, sigs ...solana.Signature) ([]*rpc.SignatureStatusesResult, error)
}

// StatusFunc receives progress while a transaction is in flight.
type StatusFunc func(sig solana.Signature, status string)

const DefaultPollInterval = 500 * time.Millisecond

type Assembler struct {
	client       Client
	payer        solana.PrivateKey
	commitment   rpc.CommitmentType
	pollInterval time.Duration
	onStatus     StatusFunc
}

type Option func(*Assembler)

func WithPollInterval(interval time.Duration) Option {
	return func(a *Assembler) {
		a.pollInterval = interval
	}
}

func WithStatusFunc(fn StatusFunc) Option {
	return func(a *Assembler) {
		a.onStatus = fn
	}
}

func NewAssembler(client Client, payer solana.PrivateKey, commitment rpc.CommitmentType, opts ...Option) *Assembler {
	assembler := &Assembler{
		client:       client,
		payer:        payer,
		commitment:   commitment,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(assembler)
	}
	return assembler
}

func (a *Assembler) Payer() solana.PublicKey {
	return a.payer.PublicKey()
}

func (a *Assembler) status(sig solana.Signature, status string) {
	if a.onStatus != nil {
		a.onStatus(sig, status)
	}
}

// requiredSigners lists the fee payer and every account an instruction marks
// as signer.
func (a *Assembler) requiredSigners(instructions []solana.Instruction) []solana.PublicKey {
	required := []solana.PublicKey{a.Payer()}
	for _, instruction := range instructions {
		for _, meta := range instruction.Accounts() {
			if meta.IsSigner {
				required = append(required, meta.PublicKey)
			}
		}
	}
	return util.DedupePubkeys(required)
}

// signerSet keys the provided signers and the payer by public key.
func (a *Assembler) signerSet(signers []solana.PrivateKey) map[solana.PublicKey]solana.PrivateKey {
	return lo.KeyBy(append([]solana.PrivateKey{a.payer}, signers...), func(key solana.PrivateKey) solana.PublicKey {
		return key.PublicKey()
	})
}

func (a *Assembler) checkSigners(instructions []solana.Instruction, available map[solana.PublicKey]solana.PrivateKey) error {
	missing := lo.Filter(a.requiredSigners(instructions), func(pubkey solana.PublicKey, _ int) bool {
		_, ok := available[pubkey]
		return !ok
	})
	if len(missing) != 0 {
		return &MissingSignerError{Missing: missing}
	}
	return nil
}

// Sign builds a transaction paid by the assembler's payer and signs it with
// the provided keys.
func (a *Assembler) Sign(instructions []solana.Instruction, blockhash solana.Hash, signers ...solana.PrivateKey) (*solana.Transaction, error) {
	available := a.signerSet(signers)
	err := a.checkSigners(instructions, available)
	if err != nil {
		return nil, err
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(a.Payer()))
	if err != nil {
		return nil, err
	}

	_, err = tx.Sign(func(pubkey solana.PublicKey) *solana.PrivateKey {
		key, ok := available[pubkey]
		if !ok {
			return nil
		}
		return &key
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// SendAndConfirm signs, submits and waits until the transaction reaches the
// assembler's commitment.
func (a *Assembler) SendAndConfirm(ctx context.Context, instructions []solana.Instruction, signers ...solana.PrivateKey) (solana.Signature, error) {
	err := a.checkSigners(instructions, a.signerSet(signers))
	if err != nil {
		return solana.Signature{}, err
	}

	blockhash, lastValidBlockHeight, err := a.client.GetLatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	tx, err := a.Sign(instructions, blockhash, signers...)
	if err != nil {
		return solana.Signature{}, err
	}

	sig, err := a.client.SendTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, err
	}
	klog.Infof("submitted transaction %s", sig)
	a.status(sig, "submitted")

	err = a.Confirm(ctx, sig, lastValidBlockHeight)
	if err != nil {
		return sig, err
	}
	return sig, nil
}

var commitmentRank = map[rpc.ConfirmationStatusType]int{
	rpc.ConfirmationStatusProcessed: 1,
	rpc.ConfirmationStatusConfirmed: 2,
	rpc.ConfirmationStatusFinalized: 3,
}

// Reached reports whether a confirmation status satisfies commitment. An
// unrecognized commitment is treated as confirmed.
func Reached(status rpc.ConfirmationStatusType, commitment rpc.CommitmentType) bool {
	want, ok := commitmentRank[rpc.ConfirmationStatusType(commitment)]
	if !ok {
		want = commitmentRank[rpc.ConfirmationStatusConfirmed]
	}
	return commitmentRank[status] >= want
}

// Confirm polls the signature status until the configured commitment is
// reached, the transaction fails, or the block height passes
// lastValidBlockHeight.
func (a *Assembler) Confirm(ctx context.Context, sig solana.Signature, lastValidBlockHeight uint64) error {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		statuses, err := a.client.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			return err
		}

		if len(statuses) != 0 && statuses[0] != nil {
			status := statuses[0]
			if status.Err != nil {
				a.status(sig, "failed")
				return &TransactionFailedError{Signature: sig, Slot: status.Slot, Err: status.Err}
			}
			a.status(sig, string(status.ConfirmationStatus))
			if Reached(status.ConfirmationStatus, a.commitment) {
				klog.V(2).Infof("transaction %s reached %s in slot %d", sig, status.ConfirmationStatus, status.Slot)
				return nil
			}
		} else {
			blockHeight, err := a.client.GetBlockHeight(ctx)
			if err != nil {
				return err
			}
			if blockHeight > lastValidBlockHeight {
				a.status(sig, "expired")
				return &BlockhashExpiredError{
					Signature:            sig,
					LastValidBlockHeight: lastValidBlockHeight,
					BlockHeight:          blockHeight,
				}
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
