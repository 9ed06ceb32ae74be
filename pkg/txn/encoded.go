package txn

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

type Encoding string

const (
	EncodingBase58 Encoding = "base58"
	EncodingBase64 Encoding = "base64"
)

// DecodeTransaction parses a serialized, already signed transaction.
func DecodeTransaction(encoded string, encoding Encoding) (*solana.Transaction, error) {
	var (
		data []byte
		err  error
	)
	switch encoding {
	case EncodingBase58:
		data, err = base58.Decode(encoded)
	case EncodingBase64:
		data, err = base64.StdEncoding.DecodeString(encoded)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, encoding)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s transaction: %w", encoding, err)
	}

	tx, err := solana.TransactionFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transaction: %w", err)
	}
	return tx, nil
}

// SendEncoded submits a serialized transaction as is. Confirmation is left
// to the caller since the last valid block height is not known.
func (a *Assembler) SendEncoded(ctx context.Context, encoded string, encoding Encoding) (solana.Signature, error) {
	tx, err := DecodeTransaction(encoded, encoding)
	if err != nil {
		return solana.Signature{}, err
	}
	return a.client.SendTransaction(ctx, tx)
}
