package vote

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/scilla/cmd/scilla/cli"
	"github.com/Overclock-Validator/scilla/pkg/output"
	"github.com/Overclock-Validator/scilla/pkg/parse"
	"github.com/Overclock-Validator/scilla/pkg/vote"
)

var (
	Cmd = cobra.Command{
		Use:   "vote",
		Short: "Create and manage vote accounts",
	}

	createCmd = cobra.Command{
		Use:   "create",
		Short: "Create a vote account for a validator identity",
		Args:  cobra.NoArgs,
		Run:   runCreate,
	}

	authorizeVoterCmd = cobra.Command{
		Use:   "authorize-voter <vote-account> <new-voter>",
		Short: "Change the authorized voter of a vote account",
		Args:  cobra.ExactArgs(2),
		Run:   runAuthorizeVoter,
	}

	withdrawCmd = cobra.Command{
		Use:   "withdraw <vote-account> <amount>",
		Short: "Withdraw SOL above the rent-exempt minimum from a vote account",
		Args:  cobra.ExactArgs(2),
		Run:   runWithdraw,
	}

	closeCmd = cobra.Command{
		Use:   "close <vote-account>",
		Short: "Close a vote account with no active stake and reclaim its balance",
		Args:  cobra.ExactArgs(1),
		Run:   runClose,
	}

	showCmd = cobra.Command{
		Use:   "show <vote-account>",
		Short: "Show a vote account's state",
		Args:  cobra.ExactArgs(1),
		Run:   runShow,
	}

	voteAccountPath string
	identityPath    string
	withdrawer      string
	voter           string
	commission      string
	authorityPath   string
	withdrawerPath  string
	recipient       string
)

func init() {
	createCmd.Flags().StringVar(&voteAccountPath, "vote-account", "", "Keypair file of the new vote account")
	createCmd.Flags().StringVar(&identityPath, "identity", "", "Validator identity keypair file")
	createCmd.Flags().StringVar(&withdrawer, "withdrawer", "", "Withdraw authority pubkey or keypair file")
	createCmd.Flags().StringVar(&voter, "voter", "", "Vote authority pubkey or keypair file (default identity)")
	createCmd.Flags().StringVar(&commission, "commission", "", "Commission percent, 0 to 100")
	cli.RequireFlag(&createCmd, "vote-account", "identity", "withdrawer")

	authorizeVoterCmd.Flags().StringVar(&authorityPath, "authority", "", "Current voter or withdrawer keypair file (default fee payer)")

	for _, c := range []*cobra.Command{&withdrawCmd, &closeCmd} {
		c.Flags().StringVar(&withdrawerPath, "withdrawer", "", "Withdraw authority keypair file (default fee payer)")
		c.Flags().StringVar(&recipient, "to", "", "Recipient pubkey or keypair file (default fee payer)")
	}

	Cmd.AddCommand(
		&createCmd,
		&authorizeVoterCmd,
		&withdrawCmd,
		&closeCmd,
		&showCmd,
	)
}

func signerOr(env *cli.Env, path string) solana.PrivateKey {
	if path == "" {
		return env.Payer()
	}
	return cli.Signer(path)
}

func recipientOr(env *cli.Env) solana.PublicKey {
	if recipient == "" {
		return env.Payer().PublicKey()
	}
	return cli.Pubkey("--to", recipient)
}

func newManager(c *cobra.Command, env *cli.Env, label string) (*vote.Manager, func(string, solana.Signature, error)) {
	assembler, spinner := env.Assembler(c.Context(), label)
	return vote.NewManager(env.Client, assembler), func(action string, sig solana.Signature, err error) {
		env.Submitted(spinner, action, sig, err)
	}
}

func runCreate(c *cobra.Command, args []string) {
	env := cli.NewEnv()

	pct, err := parse.ParseCommission(commission)
	if err != nil {
		klog.Exitf("--commission: %s", err)
	}

	req := vote.CreateRequest{
		VoteAccount: cli.Signer(voteAccountPath),
		Identity:    cli.Signer(identityPath),
		Withdrawer:  cli.Pubkey("--withdrawer", withdrawer),
		Commission:  pct,
	}
	if voter != "" {
		req.Voter = cli.Pubkey("--voter", voter)
	}

	manager, done := newManager(c, env, "create vote account")
	sig, err := manager.Create(c.Context(), req)
	done("Create vote account "+req.VoteAccount.PublicKey().String(), sig, err)
}

func runAuthorizeVoter(c *cobra.Command, args []string) {
	env := cli.NewEnv()
	votePubkey := cli.Pubkey("vote account", args[0])
	newVoter := cli.Pubkey("new voter", args[1])
	authority := signerOr(env, authorityPath)

	manager, done := newManager(c, env, "authorize voter")
	sig, err := manager.AuthorizeVoter(c.Context(), votePubkey, authority, newVoter)
	done("Authorize voter "+newVoter.String(), sig, err)
}

func runWithdraw(c *cobra.Command, args []string) {
	env := cli.NewEnv()
	votePubkey := cli.Pubkey("vote account", args[0])
	amount := cli.Amount(args[1])
	authority := signerOr(env, withdrawerPath)
	to := recipientOr(env)

	manager, done := newManager(c, env, "withdraw")
	sig, err := manager.Withdraw(c.Context(), votePubkey, authority, to, amount.Lamports())
	done("Withdraw from vote account", sig, err)
}

func runClose(c *cobra.Command, args []string) {
	env := cli.NewEnv()
	votePubkey := cli.Pubkey("vote account", args[0])
	authority := signerOr(env, withdrawerPath)
	to := recipientOr(env)

	manager, done := newManager(c, env, "close")
	sig, err := manager.Close(c.Context(), votePubkey, authority, to)
	done("Close vote account", sig, err)
}

func summaryFields(summary *vote.Summary) []output.Field {
	authorizedVoter := "none"
	if summary.AuthorizedVoter != nil {
		authorizedVoter = summary.AuthorizedVoter.String()
	}

	fields := []output.Field{
		output.F("Pubkey", summary.Pubkey),
		output.F("Balance", cli.Sol(summary.Lamports)),
		output.F("Validator Identity", summary.Identity),
		output.F("Authorized Voter", authorizedVoter),
		output.F("Authorized Withdrawer", summary.Withdrawer),
		output.F("Commission", fmt.Sprintf("%d%%", summary.CommissionPercent)),
		output.F("Credits", summary.Credits),
	}
	if summary.ScheduledVoter != nil {
		fields = append(fields, output.F("Scheduled Voter", fmt.Sprintf("%s from epoch %d", summary.ScheduledVoter.Pubkey, summary.ScheduledVoter.Epoch)))
	}
	if summary.RootSlot != nil {
		fields = append(fields, output.F("Root Slot", *summary.RootSlot))
	}
	if summary.LastVotedSlot != nil {
		fields = append(fields, output.F("Last Voted Slot", *summary.LastVotedSlot))
	}
	if summary.LastTimestamp.Slot != 0 {
		fields = append(fields, output.F("Last Timestamp", fmt.Sprintf("%d at slot %d", summary.LastTimestamp.Timestamp, summary.LastTimestamp.Slot)))
	}

	if len(summary.AuthorizedVoters) > 1 {
		voters := make([]output.Field, 0, len(summary.AuthorizedVoters))
		for _, v := range summary.AuthorizedVoters {
			voters = append(voters, output.F(fmt.Sprintf("Epoch %d", v.Epoch), v.Pubkey))
		}
		fields = append(fields, output.Section("Authorized Voters", voters...))
	}

	if len(summary.EpochCredits) > 0 {
		credits := make([]output.Field, 0, len(summary.EpochCredits))
		for i := len(summary.EpochCredits) - 1; i >= 0; i-- {
			ec := summary.EpochCredits[i]
			credits = append(credits, output.F(fmt.Sprintf("Epoch %d", ec.Epoch), ec.Credits-ec.PrevCredits))
		}
		fields = append(fields, output.Section("Recent Epoch Credits", credits...))
	}
	return fields
}

func runShow(c *cobra.Command, args []string) {
	env := cli.NewEnv()
	votePubkey := cli.Pubkey("vote account", args[0])

	manager := vote.NewManager(env.Client, nil)
	summary, err := manager.Show(c.Context(), votePubkey)
	if err != nil {
		cli.Fail("show", err)
	}
	env.Print("Vote account", summary, summaryFields(summary)...)
}
