package parse

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const LamportsPerSol = 1_000_000_000

var (
	ErrInvalidAmount      = errors.New("amount is not a valid number")
	ErrAmountNotPositive  = errors.New("amount must be greater than zero")
	ErrAmountBelowLamport = errors.New("amount is smaller than one lamport")
	ErrAmountOverflow     = errors.New("amount does not fit in lamports")
)

// u64 lamports top out near 1.8e10 SOL (11 integer digits) and one lamport
// is 1e-9 SOL.
const (
	maxSolMagnitude = 11
	minSolMagnitude = -8
)

var (
	lamportsPerSol = decimal.NewFromInt(LamportsPerSol)
	maxLamports    = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)
)

// SolAmount is a validated, strictly positive SOL amount that converts to a
// non-zero lamport count without overflowing.
type SolAmount struct {
	sol decimal.Decimal
}

func ParseSolAmount(input string) (SolAmount, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return SolAmount{}, ErrInvalidAmount
	}

	// NewFromString rejects NaN and infinities.
	sol, err := decimal.NewFromString(input)
	if err != nil {
		return SolAmount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}

	if !sol.IsPositive() {
		return SolAmount{}, fmt.Errorf("%w: %q", ErrAmountNotPositive, input)
	}

	// The value lies in [10^(magnitude-1), 10^magnitude). Bound it before
	// any arithmetic expands the exponent into a big integer.
	magnitude := int64(sol.Exponent()) + int64(len(sol.Coefficient().String()))
	if magnitude > maxSolMagnitude {
		return SolAmount{}, fmt.Errorf("%w: %q SOL", ErrAmountOverflow, input)
	}
	if magnitude < minSolMagnitude {
		return SolAmount{}, fmt.Errorf("%w: %q SOL", ErrAmountBelowLamport, input)
	}

	lamports := sol.Mul(lamportsPerSol).Truncate(0)
	if lamports.GreaterThan(maxLamports) {
		return SolAmount{}, fmt.Errorf("%w: %q SOL", ErrAmountOverflow, input)
	}
	if lamports.IsZero() {
		return SolAmount{}, fmt.Errorf("%w: %q SOL", ErrAmountBelowLamport, input)
	}

	return SolAmount{sol: sol}, nil
}

func (amount SolAmount) Lamports() uint64 {
	return SolToLamports(amount.sol)
}

func (amount SolAmount) String() string {
	return amount.sol.String()
}

// SolToLamports converts a SOL amount to lamports. Fractional lamports are
// truncated, so conversion always rounds toward zero. Negative amounts map
// to zero and amounts above the u64 range saturate.
func SolToLamports(sol decimal.Decimal) uint64 {
	lamports := sol.Mul(lamportsPerSol).Truncate(0)
	if lamports.Sign() <= 0 {
		return 0
	}
	if lamports.GreaterThan(maxLamports) {
		return math.MaxUint64
	}
	return lamports.BigInt().Uint64()
}

func LamportsToSol(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -9)
}

// FormatLamports renders lamports as a SOL string without trailing zeros.
func FormatLamports(lamports uint64) string {
	return LamportsToSol(lamports).String()
}
