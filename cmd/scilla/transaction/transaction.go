package transaction

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/scilla/cmd/scilla/cli"
	"github.com/Overclock-Validator/scilla/pkg/output"
	"github.com/Overclock-Validator/scilla/pkg/txn"
)

var (
	Cmd = cobra.Command{
		Use:   "transaction",
		Short: "Inspect and send transactions",
	}

	confirmCmd = cobra.Command{
		Use:   "confirm <signature>",
		Short: "Check whether a transaction reached the configured commitment",
		Args:  cobra.ExactArgs(1),
		Run:   runConfirm,
	}

	statusCmd = cobra.Command{
		Use:   "status <signature>",
		Short: "Show a transaction's slot, confirmation status and error",
		Args:  cobra.ExactArgs(1),
		Run:   runStatus,
	}

	fetchCmd = cobra.Command{
		Use:   "fetch <signature>",
		Short: "Show a landed transaction with its fee, logs and instructions",
		Args:  cobra.ExactArgs(1),
		Run:   runFetch,
	}

	sendCmd = cobra.Command{
		Use:   "send <encoded-transaction>",
		Short: "Submit an already signed, serialized transaction",
		Args:  cobra.ExactArgs(1),
		Run:   runSend,
	}

	encoding string
)

func init() {
	sendCmd.Flags().StringVar(&encoding, "encoding", string(txn.EncodingBase64), "Encoding of the transaction: base64 or base58")

	Cmd.AddCommand(
		&confirmCmd,
		&statusCmd,
		&fetchCmd,
		&sendCmd,
	)
}

type statusView struct {
	Signature          solana.Signature           `json:"signature"`
	Found              bool                       `json:"found"`
	Slot               uint64                     `json:"slot,omitempty"`
	Confirmations      *uint64                    `json:"confirmations,omitempty"`
	ConfirmationStatus rpc.ConfirmationStatusType `json:"confirmationStatus,omitempty"`
	Err                interface{}                `json:"err,omitempty"`
	Confirmed          bool                       `json:"confirmed"`
}

func newStatusView(sig solana.Signature, status *rpc.SignatureStatusesResult, commitment rpc.CommitmentType) *statusView {
	view := &statusView{Signature: sig}
	if status == nil {
		return view
	}

	view.Found = true
	view.Slot = status.Slot
	view.Confirmations = status.Confirmations
	view.ConfirmationStatus = status.ConfirmationStatus
	view.Err = status.Err
	view.Confirmed = status.Err == nil && txn.Reached(status.ConfirmationStatus, commitment)
	return view
}

func statusText(view *statusView) string {
	switch {
	case !view.Found:
		return "not found"
	case view.Err != nil:
		return fmt.Sprintf("failed: %v", view.Err)
	default:
		return "success"
	}
}

func fetchStatus(c *cobra.Command, env *cli.Env, input string) *statusView {
	sig := cli.Signature(input)
	statuses, err := env.Client.GetSignatureStatuses(c.Context(), true, sig)
	if err != nil {
		cli.Fail("status", err)
	}
	var status *rpc.SignatureStatusesResult
	if len(statuses) != 0 {
		status = statuses[0]
	}
	return newStatusView(sig, status, env.Commitment())
}

func runConfirm(c *cobra.Command, args []string) {
	env := cli.NewEnv()
	view := fetchStatus(c, env, args[0])

	confirmed := "not confirmed"
	if view.Confirmed {
		confirmed = "confirmed"
	}
	env.Print("Transaction confirmation", view,
		output.F("Signature", view.Signature),
		output.F("Status", confirmed),
	)
}

func runStatus(c *cobra.Command, args []string) {
	env := cli.NewEnv()
	view := fetchStatus(c, env, args[0])
	if !view.Found {
		klog.Exitf("transaction %s not found", view.Signature)
	}

	fields := []output.Field{
		output.F("Signature", view.Signature),
		output.F("Slot", view.Slot),
		output.F("Confirmation", view.ConfirmationStatus),
		output.F("Status", statusText(view)),
	}
	if view.Confirmations != nil {
		fields = append(fields, output.F("Confirmations", *view.Confirmations))
	}
	env.Print("Transaction status", view, fields...)
}

type transactionView struct {
	Signature    solana.Signature   `json:"signature"`
	Slot         uint64             `json:"slot"`
	BlockTime    *int64             `json:"blockTime,omitempty"`
	Fee          uint64             `json:"fee"`
	Err          interface{}        `json:"err,omitempty"`
	ComputeUnits *uint64            `json:"computeUnits,omitempty"`
	Signers      []solana.PublicKey `json:"signers"`
	Programs     []solana.PublicKey `json:"programs"`
	Instructions int                `json:"instructions"`
	Logs         []string           `json:"logs"`
}

func newTransactionView(sig solana.Signature, result *rpc.GetTransactionResult) (*transactionView, error) {
	view := &transactionView{Signature: sig, Slot: result.Slot}
	if result.BlockTime != nil {
		blockTime := int64(*result.BlockTime)
		view.BlockTime = &blockTime
	}
	if result.Meta != nil {
		view.Fee = result.Meta.Fee
		view.Err = result.Meta.Err
		view.ComputeUnits = result.Meta.ComputeUnitsConsumed
		view.Logs = result.Meta.LogMessages
	}

	if result.Transaction == nil {
		return view, nil
	}
	tx, err := result.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}

	message := tx.Message
	view.Signers = message.AccountKeys[:min(int(message.Header.NumRequiredSignatures), len(message.AccountKeys))]
	view.Instructions = len(message.Instructions)
	view.Programs = lo.Uniq(lo.FilterMap(message.Instructions, func(instruction solana.CompiledInstruction, _ int) (solana.PublicKey, bool) {
		if int(instruction.ProgramIDIndex) >= len(message.AccountKeys) {
			return solana.PublicKey{}, false
		}
		return message.AccountKeys[instruction.ProgramIDIndex], true
	}))
	return view, nil
}

func transactionFields(view *transactionView) []output.Field {
	status := "success"
	if view.Err != nil {
		status = fmt.Sprintf("failed: %v", view.Err)
	}

	fields := []output.Field{
		output.F("Signature", view.Signature),
		output.F("Slot", view.Slot),
	}
	if view.BlockTime != nil {
		fields = append(fields, output.F("Block Time", time.Unix(*view.BlockTime, 0).UTC().Format(time.RFC3339)))
	}
	fields = append(fields,
		output.F("Fee", cli.Sol(view.Fee)),
		output.F("Status", status),
		output.F("Instructions", view.Instructions),
	)
	if view.ComputeUnits != nil {
		fields = append(fields, output.F("Compute Units", *view.ComputeUnits))
	}

	signers := make([]output.Field, 0, len(view.Signers))
	for i, signer := range view.Signers {
		signers = append(signers, output.F(fmt.Sprintf("%d", i), signer))
	}
	programs := make([]output.Field, 0, len(view.Programs))
	for i, program := range view.Programs {
		programs = append(programs, output.F(fmt.Sprintf("%d", i), program))
	}
	logs := make([]output.Field, 0, len(view.Logs))
	for i, line := range view.Logs {
		logs = append(logs, output.F(fmt.Sprintf("%d", i), line))
	}
	return append(fields,
		output.Section("Signers", signers...),
		output.Section("Programs", programs...),
		output.Section("Logs", logs...),
	)
}

func runFetch(c *cobra.Command, args []string) {
	env := cli.NewEnv()
	sig := cli.Signature(args[0])

	result, err := env.Client.GetTransaction(c.Context(), sig)
	if err != nil {
		cli.Fail("fetch", err)
	}

	view, err := newTransactionView(sig, result)
	if err != nil {
		cli.Fail("fetch", err)
	}
	env.Print("Transaction", view, transactionFields(view)...)
}

func runSend(c *cobra.Command, args []string) {
	env := cli.NewEnv()

	// Already signed; no payer is needed.
	sender := txn.NewAssembler(env.Client, nil, env.Commitment())
	sig, err := sender.SendEncoded(c.Context(), args[0], txn.Encoding(encoding))
	if err != nil {
		cli.Fail("send", err)
	}
	env.Print("Transaction sent", map[string]string{"signature": sig.String()}, output.F("Signature", sig))
}
