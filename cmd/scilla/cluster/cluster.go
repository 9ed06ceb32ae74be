package cluster

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/scilla/cmd/scilla/cli"
	"github.com/Overclock-Validator/scilla/pkg/output"
	"github.com/Overclock-Validator/scilla/pkg/rpcclient"
)

var (
	Cmd = cobra.Command{
		Use:   "cluster",
		Short: "Inspect cluster state",
	}

	epochInfoCmd = cobra.Command{
		Use:   "epoch-info",
		Short: "Show the current epoch and its progress",
		Args:  cobra.NoArgs,
		Run:   runEpochInfo,
	}

	currentSlotCmd = cobra.Command{
		Use:   "current-slot",
		Short: "Show the latest slot",
		Args:  cobra.NoArgs,
		Run:   runCurrentSlot,
	}

	blockHeightCmd = cobra.Command{
		Use:   "block-height",
		Short: "Show the current block height",
		Args:  cobra.NoArgs,
		Run:   runBlockHeight,
	}

	blockTimeCmd = cobra.Command{
		Use:   "block-time [slot]",
		Short: "Show the production time of a block, the latest slot by default",
		Args:  cobra.MaximumNArgs(1),
		Run:   runBlockTime,
	}

	validatorsCmd = cobra.Command{
		Use:   "validators",
		Short: "List current and delinquent validators",
		Args:  cobra.NoArgs,
		Run:   runValidators,
	}

	supplyCmd = cobra.Command{
		Use:   "supply",
		Short: "Show total and circulating supply",
		Args:  cobra.NoArgs,
		Run:   runSupply,
	}

	inflationCmd = cobra.Command{
		Use:   "inflation",
		Short: "Show the current inflation rate",
		Args:  cobra.NoArgs,
		Run:   runInflation,
	}

	versionCmd = cobra.Command{
		Use:   "version",
		Short: "Show the software version of the RPC node",
		Args:  cobra.NoArgs,
		Run:   runVersion,
	}

	top int
)

func init() {
	validatorsCmd.Flags().IntVar(&top, "top", 20, "Number of validators to list by stake, 0 for all")

	Cmd.AddCommand(
		&epochInfoCmd,
		&currentSlotCmd,
		&blockHeightCmd,
		&blockTimeCmd,
		&validatorsCmd,
		&supplyCmd,
		&inflationCmd,
		&versionCmd,
	)
}

func epochInfoFields(epochInfo *rpcclient.EpochInfo) []output.Field {
	progress := 0.0
	if epochInfo.SlotsInEpoch != 0 {
		progress = float64(epochInfo.SlotIndex) / float64(epochInfo.SlotsInEpoch) * 100
	}
	return []output.Field{
		output.F("Epoch", epochInfo.Epoch),
		output.F("Slot Index", epochInfo.SlotIndex),
		output.F("Slots in Epoch", epochInfo.SlotsInEpoch),
		output.F("Slots Remaining", epochInfo.SlotsRemaining()),
		output.F("Epoch Progress", fmt.Sprintf("%.2f%%", progress)),
		output.F("Absolute Slot", epochInfo.AbsoluteSlot),
		output.F("Block Height", epochInfo.BlockHeight),
	}
}

func runEpochInfo(c *cobra.Command, args []string) {
	env := cli.NewEnv()
	epochInfo, err := env.Client.GetEpochInfo(c.Context())
	if err != nil {
		cli.Fail("epoch-info", err)
	}
	env.Print("Epoch information", epochInfo, epochInfoFields(epochInfo)...)
}

func runCurrentSlot(c *cobra.Command, args []string) {
	env := cli.NewEnv()
	slot, err := env.Client.GetSlot(c.Context())
	if err != nil {
		cli.Fail("current-slot", err)
	}
	env.Print("Current slot", map[string]uint64{"slot": slot}, output.F("Slot", slot))
}

func runBlockHeight(c *cobra.Command, args []string) {
	env := cli.NewEnv()
	height, err := env.Client.GetBlockHeight(c.Context())
	if err != nil {
		cli.Fail("block-height", err)
	}
	env.Print("Block height", map[string]uint64{"blockHeight": height}, output.F("Block Height", height))
}

func runBlockTime(c *cobra.Command, args []string) {
	env := cli.NewEnv()

	var slot uint64
	var err error
	if len(args) == 1 {
		slot, err = strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			klog.Exitf("invalid slot %q: %s", args[0], err)
		}
	} else {
		slot, err = env.Client.GetSlot(c.Context())
		if err != nil {
			cli.Fail("block-time", err)
		}
	}

	blockTime, err := env.Client.GetBlockTime(c.Context(), slot)
	if err != nil {
		cli.Fail("block-time", err)
	}
	env.Print("Block time", map[string]int64{"slot": int64(slot), "blockTime": blockTime},
		output.F("Slot", slot),
		output.F("Unix Timestamp", blockTime),
		output.F("Time", time.Unix(blockTime, 0).UTC().Format(time.RFC3339)),
	)
}

type validatorsView struct {
	Current        int                      `json:"current"`
	Delinquent     int                      `json:"delinquent"`
	ActivatedStake uint64                   `json:"activatedStake"`
	Validators     []rpc.VoteAccountsResult `json:"validators"`
}

// topValidators orders the current validators by activated stake, highest
// first, keeping at most n (all when n is 0).
func topValidators(result *rpc.GetVoteAccountsResult, n int) *validatorsView {
	validators := append([]rpc.VoteAccountsResult{}, result.Current...)
	sort.SliceStable(validators, func(i, j int) bool {
		return validators[i].ActivatedStake > validators[j].ActivatedStake
	})
	if n > 0 && len(validators) > n {
		validators = validators[:n]
	}

	all := append(append([]rpc.VoteAccountsResult{}, result.Current...), result.Delinquent...)
	return &validatorsView{
		Current:    len(result.Current),
		Delinquent: len(result.Delinquent),
		ActivatedStake: lo.SumBy(all, func(v rpc.VoteAccountsResult) uint64 {
			return v.ActivatedStake
		}),
		Validators: validators,
	}
}

func validatorFields(view *validatorsView) []output.Field {
	rows := lo.Map(view.Validators, func(v rpc.VoteAccountsResult, i int) output.Field {
		return output.Section(fmt.Sprintf("#%d", i+1),
			output.F("Identity", v.NodePubkey),
			output.F("Vote Account", v.VotePubkey),
			output.F("Activated Stake", cli.Sol(v.ActivatedStake)),
			output.F("Commission", fmt.Sprintf("%d%%", v.Commission)),
			output.F("Last Vote", v.LastVote),
		)
	})

	fields := []output.Field{
		output.F("Current Validators", view.Current),
		output.F("Delinquent Validators", view.Delinquent),
		output.F("Activated Stake", cli.Sol(view.ActivatedStake)),
	}
	if len(rows) != 0 {
		fields = append(fields, output.Section("Top Validators", rows...))
	}
	return fields
}

func runValidators(c *cobra.Command, args []string) {
	env := cli.NewEnv()
	result, err := env.Client.GetVoteAccounts(c.Context(), nil)
	if err != nil {
		cli.Fail("validators", err)
	}
	view := topValidators(result, top)
	env.Print("Validators", view, validatorFields(view)...)
}

func runSupply(c *cobra.Command, args []string) {
	env := cli.NewEnv()
	supply, err := env.Client.GetSupply(c.Context())
	if err != nil {
		cli.Fail("supply", err)
	}
	env.Print("Supply", supply,
		output.F("Total", cli.Sol(supply.Total)),
		output.F("Circulating", cli.Sol(supply.Circulating)),
		output.F("Non-circulating", cli.Sol(supply.NonCirculating)),
		output.F("Non-circulating Accounts", len(supply.NonCirculatingAccounts)),
	)
}

func runInflation(c *cobra.Command, args []string) {
	env := cli.NewEnv()
	inflation, err := env.Client.GetInflationRate(c.Context())
	if err != nil {
		cli.Fail("inflation", err)
	}
	env.Print("Inflation", inflation,
		output.F("Epoch", uint64(inflation.Epoch)),
		output.F("Total", fmt.Sprintf("%.4f%%", inflation.Total*100)),
		output.F("Validator", fmt.Sprintf("%.4f%%", inflation.Validator*100)),
		output.F("Foundation", fmt.Sprintf("%.4f%%", inflation.Foundation*100)),
	)
}

func runVersion(c *cobra.Command, args []string) {
	env := cli.NewEnv()
	version, err := env.Client.GetVersion(c.Context())
	if err != nil {
		cli.Fail("version", err)
	}
	env.Print("Cluster version", version,
		output.F("Solana Core", version.SolanaCore),
		output.F("Feature Set", version.FeatureSet),
	)
}
