package parse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrInvalidPubkey    = errors.New("invalid public key")
	ErrInvalidSignature = errors.New("invalid transaction signature")
)

func ParsePubkey(input string) (solana.PublicKey, error) {
	pubkey, err := solana.PublicKeyFromBase58(strings.TrimSpace(input))
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w %q: %v", ErrInvalidPubkey, input, err)
	}
	return pubkey, nil
}

func ParseSignature(input string) (solana.Signature, error) {
	sig, err := solana.SignatureFromBase58(strings.TrimSpace(input))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w %q: %v", ErrInvalidSignature, input, err)
	}
	return sig, nil
}
