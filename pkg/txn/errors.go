package txn

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"
)

var (
	ErrMissingSigner     = errors.New("missing required signer")
	ErrBlockhashExpired  = errors.New("blockhash expired before confirmation")
	ErrTransactionFailed = errors.New("transaction failed")
	ErrUnknownEncoding   = errors.New("unknown transaction encoding")
)

type MissingSignerError struct {
	Missing []solana.PublicKey
}

func (e *MissingSignerError) Error() string {
	missing := lo.Map(e.Missing, func(pubkey solana.PublicKey, _ int) string {
		return pubkey.String()
	})
	return fmt.Sprintf("%s: %s", ErrMissingSigner, strings.Join(missing, ", "))
}

func (e *MissingSignerError) Unwrap() error {
	return ErrMissingSigner
}

type BlockhashExpiredError struct {
	Signature            solana.Signature
	LastValidBlockHeight uint64
	BlockHeight          uint64
}

func (e *BlockhashExpiredError) Error() string {
	return fmt.Sprintf("%s: %s not confirmed by block height %d (now %d)", ErrBlockhashExpired, e.Signature, e.LastValidBlockHeight, e.BlockHeight)
}

func (e *BlockhashExpiredError) Unwrap() error {
	return ErrBlockhashExpired
}

// TransactionFailedError carries the error reported by the cluster for a
// landed transaction.
type TransactionFailedError struct {
	Signature solana.Signature
	Slot      uint64
	Err       interface{}
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("%s: %s in slot %d: %v", ErrTransactionFailed, e.Signature, e.Slot, e.Err)
}

func (e *TransactionFailedError) Unwrap() error {
	return ErrTransactionFailed
}
