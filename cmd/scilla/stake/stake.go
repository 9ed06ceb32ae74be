package stake

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/Overclock-Validator/scilla/cmd/scilla/cli"
	"github.com/Overclock-Validator/scilla/pkg/output"
	"github.com/Overclock-Validator/scilla/pkg/stake"
	"github.com/Overclock-Validator/scilla/pkg/state"
)

var (
	Cmd = cobra.Command{
		Use:   "stake",
		Short: "Create and manage stake accounts",
	}

	createCmd = cobra.Command{
		Use:   "create <amount>",
		Short: "Create and initialize a stake account funded with amount SOL",
		Args:  cobra.ExactArgs(1),
		Run:   runCreate,
	}

	delegateCmd = cobra.Command{
		Use:   "delegate <stake-account> <vote-account>",
		Short: "Delegate a stake account to a validator",
		Args:  cobra.ExactArgs(2),
		Run:   runDelegate,
	}

	deactivateCmd = cobra.Command{
		Use:   "deactivate <stake-account>",
		Short: "Deactivate a delegated stake account",
		Args:  cobra.ExactArgs(1),
		Run:   runDeactivate,
	}

	withdrawCmd = cobra.Command{
		Use:   "withdraw <stake-account> <amount>",
		Short: "Withdraw SOL from an inactive stake account",
		Args:  cobra.ExactArgs(2),
		Run:   runWithdraw,
	}

	mergeCmd = cobra.Command{
		Use:   "merge <destination> <source>",
		Short: "Merge the source stake account into the destination",
		Args:  cobra.ExactArgs(2),
		Run:   runMerge,
	}

	splitCmd = cobra.Command{
		Use:   "split <stake-account> <amount>",
		Short: "Move amount SOL of stake into a new stake account",
		Args:  cobra.ExactArgs(2),
		Run:   runSplit,
	}

	showCmd = cobra.Command{
		Use:   "show <stake-account>",
		Short: "Show a stake account's state and delegation",
		Args:  cobra.ExactArgs(1),
		Run:   runShow,
	}

	historyCmd = cobra.Command{
		Use:   "history",
		Short: "Show cluster-wide stake activation history",
		Args:  cobra.NoArgs,
		Run:   runHistory,
	}

	stakeAccountPath string
	stakerPath       string
	withdrawerPath   string
	stakerPubkey     string
	withdrawerPubkey string
	recipient        string
	limit            int
)

func init() {
	createCmd.Flags().StringVar(&stakeAccountPath, "stake-account", "", "Keypair file of the new stake account")
	createCmd.Flags().StringVar(&stakerPubkey, "staker", "", "Stake authority pubkey or keypair file (default fee payer)")
	createCmd.Flags().StringVar(&withdrawerPubkey, "withdrawer", "", "Withdraw authority pubkey or keypair file (default fee payer)")
	cli.RequireFlag(&createCmd, "stake-account")

	splitCmd.Flags().StringVar(&stakeAccountPath, "new-stake-account", "", "Keypair file of the stake account to split into")
	cli.RequireFlag(&splitCmd, "new-stake-account")

	for _, c := range []*cobra.Command{&delegateCmd, &deactivateCmd, &mergeCmd, &splitCmd} {
		c.Flags().StringVar(&stakerPath, "staker", "", "Stake authority keypair file (default fee payer)")
	}

	withdrawCmd.Flags().StringVar(&withdrawerPath, "withdrawer", "", "Withdraw authority keypair file (default fee payer)")
	withdrawCmd.Flags().StringVar(&recipient, "to", "", "Recipient pubkey or keypair file (default fee payer)")

	historyCmd.Flags().IntVar(&limit, "limit", 10, "Number of most recent epochs to show, 0 for all")

	Cmd.AddCommand(
		&createCmd,
		&delegateCmd,
		&deactivateCmd,
		&withdrawCmd,
		&mergeCmd,
		&splitCmd,
		&showCmd,
		&historyCmd,
	)
}

// authority loads the keypair at path, or the fee payer when path is empty.
func authority(env *cli.Env, path string) solana.PrivateKey {
	if path == "" {
		return env.Payer()
	}
	return cli.Signer(path)
}

// pubkeyOr resolves input, or falls back to the fee payer when empty.
func pubkeyOr(env *cli.Env, name string, input string) solana.PublicKey {
	if input == "" {
		return env.Payer().PublicKey()
	}
	return cli.Pubkey(name, input)
}

func newManager(c *cobra.Command, env *cli.Env, label string) (*stake.Manager, func(string, solana.Signature, error)) {
	assembler, spinner := env.Assembler(c.Context(), label)
	return stake.NewManager(env.Client, assembler), func(action string, sig solana.Signature, err error) {
		env.Submitted(spinner, action, sig, err)
	}
}

func runCreate(c *cobra.Command, args []string) {
	env := cli.NewEnv()
	amount := cli.Amount(args[0])
	stakeAccount := cli.Signer(stakeAccountPath)
	staker := pubkeyOr(env, "--staker", stakerPubkey)
	withdrawer := pubkeyOr(env, "--withdrawer", withdrawerPubkey)

	manager, done := newManager(c, env, "create stake account")
	sig, err := manager.Create(c.Context(), stakeAccount, staker, withdrawer, amount.Lamports())
	done("Create stake account "+stakeAccount.PublicKey().String(), sig, err)
}

func runDelegate(c *cobra.Command, args []string) {
	env := cli.NewEnv()
	stakePubkey := cli.Pubkey("stake account", args[0])
	votePubkey := cli.Pubkey("vote account", args[1])
	staker := authority(env, stakerPath)

	manager, done := newManager(c, env, "delegate")
	sig, err := manager.Delegate(c.Context(), stakePubkey, votePubkey, staker)
	done("Delegate stake", sig, err)
}

func runDeactivate(c *cobra.Command, args []string) {
	env := cli.NewEnv()
	stakePubkey := cli.Pubkey("stake account", args[0])
	staker := authority(env, stakerPath)

	manager, done := newManager(c, env, "deactivate")
	sig, err := manager.Deactivate(c.Context(), stakePubkey, staker)
	done("Deactivate stake", sig, err)
}

func runWithdraw(c *cobra.Command, args []string) {
	env := cli.NewEnv()
	stakePubkey := cli.Pubkey("stake account", args[0])
	amount := cli.Amount(args[1])
	withdrawer := authority(env, withdrawerPath)
	to := pubkeyOr(env, "--to", recipient)

	manager, done := newManager(c, env, "withdraw")
	sig, err := manager.Withdraw(c.Context(), stakePubkey, withdrawer, to, amount.Lamports())
	done("Withdraw stake", sig, err)
}

func runMerge(c *cobra.Command, args []string) {
	env := cli.NewEnv()
	destination := cli.Pubkey("destination", args[0])
	source := cli.Pubkey("source", args[1])
	staker := authority(env, stakerPath)

	manager, done := newManager(c, env, "merge")
	sig, err := manager.Merge(c.Context(), destination, source, staker)
	done("Merge stake", sig, err)
}

func runSplit(c *cobra.Command, args []string) {
	env := cli.NewEnv()
	source := cli.Pubkey("stake account", args[0])
	amount := cli.Amount(args[1])
	newStakeAccount := cli.Signer(stakeAccountPath)
	staker := authority(env, stakerPath)

	manager, done := newManager(c, env, "split")
	sig, err := manager.Split(c.Context(), source, newStakeAccount, staker, amount.Lamports())
	done("Split stake into "+newStakeAccount.PublicKey().String(), sig, err)
}

func optionalKey(pubkey *solana.PublicKey) string {
	if pubkey == nil {
		return "none"
	}
	return pubkey.String()
}

func summaryFields(summary *stake.Summary) []output.Field {
	fields := []output.Field{
		output.F("Pubkey", summary.Pubkey),
		output.F("Balance", cli.Sol(summary.Lamports)),
		output.F("State", summary.State),
	}
	if summary.Staker == nil {
		return fields
	}

	fields = append(fields,
		output.F("Status", summary.Status),
		output.F("Rent Exempt Reserve", cli.Sol(summary.RentExemptReserve)),
		output.Section("Authorities",
			output.F("Staker", summary.Staker),
			output.F("Withdrawer", summary.Withdrawer),
		),
	)
	if summary.LockupEpoch != 0 || summary.LockupTimestamp != 0 || summary.Custodian != nil {
		fields = append(fields, output.Section("Lockup",
			output.F("Epoch", summary.LockupEpoch),
			output.F("Unix Timestamp", summary.LockupTimestamp),
			output.F("Custodian", optionalKey(summary.Custodian)),
		))
	}
	if summary.Voter == nil {
		return fields
	}

	delegation := []output.Field{
		output.F("Vote Account", summary.Voter),
		output.F("Stake", cli.Sol(summary.DelegatedStake)),
		output.F("Activation Epoch", *summary.ActivationEpoch),
	}
	if summary.DeactivationEpoch != nil {
		delegation = append(delegation, output.F("Deactivation Epoch", *summary.DeactivationEpoch))
	}
	delegation = append(delegation, output.F("Credits Observed", summary.CreditsObserved))
	fields = append(fields, output.Section("Delegation", delegation...))

	if summary.ClusterStake != nil {
		fields = append(fields, output.Section(fmt.Sprintf("Cluster Stake (epoch %d)", *summary.ClusterStakeEpoch),
			output.F("Effective", cli.Sol(summary.ClusterStake.Effective)),
			output.F("Activating", cli.Sol(summary.ClusterStake.Activating)),
			output.F("Deactivating", cli.Sol(summary.ClusterStake.Deactivating)),
		))
	}
	return fields
}

func runShow(c *cobra.Command, args []string) {
	env := cli.NewEnv()
	stakePubkey := cli.Pubkey("stake account", args[0])

	manager := stake.NewManager(env.Client, nil)
	summary, err := manager.Show(c.Context(), stakePubkey)
	if err != nil {
		cli.Fail("show", err)
	}
	env.Print("Stake account", summary, summaryFields(summary)...)
}

// recentHistory keeps the newest n epochs; the sysvar is stored newest
// first.
func recentHistory(history state.StakeHistory, n int) state.StakeHistory {
	if n > 0 && len(history) > n {
		return history[:n]
	}
	return history
}

func historyFields(history state.StakeHistory) []output.Field {
	fields := make([]output.Field, 0, len(history))
	for _, pair := range history {
		fields = append(fields, output.Section(fmt.Sprintf("Epoch %d", pair.Epoch),
			output.F("Effective", cli.Sol(pair.Entry.Effective)),
			output.F("Activating", cli.Sol(pair.Entry.Activating)),
			output.F("Deactivating", cli.Sol(pair.Entry.Deactivating)),
		))
	}
	return fields
}

func runHistory(c *cobra.Command, args []string) {
	env := cli.NewEnv()

	manager := stake.NewManager(env.Client, nil)
	history, err := manager.History(c.Context())
	if err != nil {
		cli.Fail("history", err)
	}
	history = recentHistory(history, limit)
	env.Print("Stake history", history, historyFields(history)...)
}
