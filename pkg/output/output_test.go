package output

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFormat(t *testing.T) {
	for _, tc := range []struct {
		requested string
		terminal  bool
		expected  Format
	}{
		{"", true, FormatText},
		{"", false, FormatJSON},
		{"auto", true, FormatText},
		{"json", true, FormatJSON},
		{"TEXT", false, FormatText},
	} {
		format, err := ResolveFormat(tc.requested, tc.terminal)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, format, tc.requested)
	}

	_, err := ResolveFormat("table", true)
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestPrinter_Text(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, FormatText)

	err := printer.Print("Stake account", nil,
		F("Balance", "1.5 SOL"),
		F("Status", "active"),
		Section("Authorities",
			F("Staker", "A"),
			F("Withdrawer", "B"),
		),
	)
	require.NoError(t, err)

	assert.Equal(t, "Stake account\n"+
		"  Balance:  1.5 SOL\n"+
		"  Status:   active\n"+
		"  Authorities:\n"+
		"    Staker:      A\n"+
		"    Withdrawer:  B\n", buf.String())
}

func TestPrinter_JSON(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, FormatJSON)

	value := map[string]interface{}{"epoch": 42, "pubkey": solana.SystemProgramID}
	require.NoError(t, printer.Print("ignored", value, F("Epoch", 42)))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, float64(42), decoded["epoch"])
	assert.Equal(t, solana.SystemProgramID.String(), decoded["pubkey"])
	assert.NotContains(t, buf.String(), "ignored")
}

func TestSpinner(t *testing.T) {
	var nilSpinner *Spinner
	nilSpinner.Update(solana.Signature{}, "submitted")
	nilSpinner.Stop(true)

	var buf bytes.Buffer
	spinner := NewSpinner(context.Background(), &buf, "confirming")
	spinner.Update(solana.Signature{1}, "confirmed")
	spinner.Stop(true)
}
