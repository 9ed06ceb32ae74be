package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/scilla/cmd/scilla/account"
	"github.com/Overclock-Validator/scilla/cmd/scilla/cli"
	"github.com/Overclock-Validator/scilla/cmd/scilla/cluster"
	configcmd "github.com/Overclock-Validator/scilla/cmd/scilla/config"
	"github.com/Overclock-Validator/scilla/cmd/scilla/stake"
	"github.com/Overclock-Validator/scilla/cmd/scilla/transaction"
	"github.com/Overclock-Validator/scilla/cmd/scilla/vote"

	// Load in instruction pretty-printing
	_ "github.com/gagliardetto/solana-go/programs/stake"
	_ "github.com/gagliardetto/solana-go/programs/system"
	_ "github.com/gagliardetto/solana-go/programs/vote"
)

var cmd = cobra.Command{
	Use:   "scilla",
	Short: "Manage Solana stake and vote accounts",
}

func init() {
	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	cmd.PersistentFlags().AddGoFlagSet(klogFlags)

	cmd.PersistentFlags().StringVar(&cli.ConfigPath, "config", "", "Config file (default ~/.config/scilla.toml)")
	cmd.PersistentFlags().StringVarP(&cli.OutputFormat, "output", "o", "auto", "Output format: auto, text or json")
	cmd.PersistentFlags().StringVarP(&cli.RpcURL, "url", "u", "", "RPC URL, overriding the config file")
	cmd.PersistentFlags().StringVar(&cli.Commitment, "commitment", "", "Commitment level, overriding the config file")
	cmd.PersistentFlags().StringVarP(&cli.KeypairPath, "keypair", "k", "", "Fee payer keypair, overriding the config file")

	cmd.AddCommand(
		&configcmd.Cmd,
		&cluster.Cmd,
		&account.Cmd,
		&transaction.Cmd,
		&stake.Cmd,
		&vote.Cmd,
	)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	cobra.CheckErr(cmd.ExecuteContext(ctx))
}
