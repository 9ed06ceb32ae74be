package account

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/Overclock-Validator/scilla/cmd/scilla/cli"
	"github.com/Overclock-Validator/scilla/pkg/output"
	"github.com/Overclock-Validator/scilla/pkg/rpcclient"
	"github.com/Overclock-Validator/scilla/pkg/txn"
)

var (
	Cmd = cobra.Command{
		Use:   "account",
		Short: "Inspect accounts and request airdrops",
	}

	fetchCmd = cobra.Command{
		Use:   "fetch <pubkey>",
		Short: "Show an account's owner, balance and data size",
		Args:  cobra.ExactArgs(1),
		Run:   runFetch,
	}

	balanceCmd = cobra.Command{
		Use:   "balance [pubkey]",
		Short: "Show an account's balance, the fee payer's by default",
		Args:  cobra.MaximumNArgs(1),
		Run:   runBalance,
	}

	airdropCmd = cobra.Command{
		Use:   "airdrop <amount>",
		Short: "Request an airdrop of SOL on a test cluster",
		Args:  cobra.ExactArgs(1),
		Run:   runAirdrop,
	}

	recipient string
)

func init() {
	airdropCmd.Flags().StringVar(&recipient, "to", "", "Recipient pubkey or keypair file (default fee payer)")

	Cmd.AddCommand(
		&fetchCmd,
		&balanceCmd,
		&airdropCmd,
	)
}

func accountFields(account *rpcclient.Account) []output.Field {
	return []output.Field{
		output.F("Pubkey", account.Pubkey),
		output.F("Owner", account.Owner),
		output.F("Balance", cli.Sol(account.Lamports)),
		output.F("Lamports", account.Lamports),
		output.F("Data Length", fmt.Sprintf("%d bytes", len(account.Data))),
		output.F("Executable", account.Executable),
		output.F("Rent Epoch", account.RentEpoch),
	}
}

func runFetch(c *cobra.Command, args []string) {
	env := cli.NewEnv()
	pubkey := cli.Pubkey("pubkey", args[0])

	account, err := env.Client.GetAccount(c.Context(), pubkey)
	if err != nil {
		cli.Fail("fetch", err)
	}
	env.Print("Account", account, accountFields(account)...)
}

func runBalance(c *cobra.Command, args []string) {
	env := cli.NewEnv()

	var pubkey solana.PublicKey
	if len(args) == 1 {
		pubkey = cli.Pubkey("pubkey", args[0])
	} else {
		pubkey = env.Payer().PublicKey()
	}

	lamports, err := env.Client.GetBalance(c.Context(), pubkey)
	if err != nil {
		cli.Fail("balance", err)
	}
	env.Print("Balance", map[string]interface{}{"pubkey": pubkey, "lamports": lamports},
		output.F("Pubkey", pubkey),
		output.F("Balance", cli.Sol(lamports)),
	)
}

func runAirdrop(c *cobra.Command, args []string) {
	env := cli.NewEnv()
	amount := cli.Amount(args[0])

	var to solana.PublicKey
	if recipient != "" {
		to = cli.Pubkey("--to", recipient)
	} else {
		to = env.Payer().PublicKey()
	}

	_, lastValidBlockHeight, err := env.Client.GetLatestBlockhash(c.Context())
	if err != nil {
		cli.Fail("airdrop", err)
	}

	sig, err := env.Client.RequestAirdrop(c.Context(), to, amount.Lamports())
	if err != nil {
		cli.Fail("airdrop", err)
	}

	// Confirmation only; the airdrop is paid by the faucet.
	spinner := env.Spinner(c.Context(), "airdrop")
	confirmer := txn.NewAssembler(env.Client, nil, env.Commitment(), txn.WithStatusFunc(spinner.Update))
	err = confirmer.Confirm(c.Context(), sig, lastValidBlockHeight)
	env.Submitted(spinner, "Airdrop", sig, err)
}
