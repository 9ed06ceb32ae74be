package rpcclient

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrTransport       = errors.New("rpc request failed")

	ErrTransactionNotFound = errors.New("transaction not found")
)

type AccountNotFoundError struct {
	Pubkey solana.PublicKey
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("account %s not found", e.Pubkey)
}

func (e *AccountNotFoundError) Unwrap() error {
	return ErrAccountNotFound
}

type TransactionNotFoundError struct {
	Signature solana.Signature
}

func (e *TransactionNotFoundError) Error() string {
	return fmt.Sprintf("transaction %s not found", e.Signature)
}

func (e *TransactionNotFoundError) Unwrap() error {
	return ErrTransactionNotFound
}

// TransportError wraps any failure returned by the RPC service itself:
// connection errors, HTTP errors and JSON-RPC error responses.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrTransport, e.Method, e.Err)
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

var (
	errNoBlockTime = errors.New("block time not available")
	errEmptyResult = errors.New("empty result")
)

func transportError(method string, err error) error {
	return &TransportError{Method: method, Err: err}
}
