// Package keypair reads and writes solana-keygen style key files: a JSON
// array holding the 64 byte ed25519 private key.
package keypair

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"

	"github.com/Overclock-Validator/scilla/pkg/parse"
	"github.com/Overclock-Validator/scilla/pkg/util"
)

var (
	ErrKeypairNotFound = errors.New("keypair file not found")
	ErrKeypairExists   = errors.New("keypair file already exists")
)

func Generate() (solana.PrivateKey, error) {
	return solana.NewRandomPrivateKey()
}

func Load(path string) (solana.PrivateKey, error) {
	expanded, err := util.ExpandTilde(path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(expanded); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrKeypairNotFound, expanded)
	}

	key, err := solana.PrivateKeyFromSolanaKeygenFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to load keypair %s: %w", expanded, err)
	}
	return key, nil
}

// Save writes key readable by the owner only.
func Save(path string, key solana.PrivateKey, overwrite bool) error {
	expanded, err := util.ExpandTilde(path)
	if err != nil {
		return err
	}

	if _, err := os.Stat(expanded); err == nil && !overwrite {
		return fmt.Errorf("%w: %s", ErrKeypairExists, expanded)
	}

	// A []byte would marshal as base64; keygen files are integer arrays.
	data, err := json.Marshal(lo.Map(key, func(b byte, _ int) int {
		return int(b)
	}))
	if err != nil {
		return err
	}

	dir := filepath.Dir(expanded)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(expanded, data, 0o600)
}

// ResolvePubkey accepts either a base58 public key or the path of a keypair
// file whose public key is used.
func ResolvePubkey(input string) (solana.PublicKey, error) {
	pubkey, err := parse.ParsePubkey(input)
	if err == nil {
		return pubkey, nil
	}

	key, loadErr := Load(input)
	if loadErr != nil {
		if errors.Is(loadErr, ErrKeypairNotFound) {
			return solana.PublicKey{}, err
		}
		return solana.PublicKey{}, loadErr
	}
	return key.PublicKey(), nil
}
