// Package cli holds what every scilla subcommand shares: the global flags,
// config and RPC client setup, key loading and output.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/scilla/pkg/config"
	"github.com/Overclock-Validator/scilla/pkg/keypair"
	"github.com/Overclock-Validator/scilla/pkg/output"
	"github.com/Overclock-Validator/scilla/pkg/parse"
	"github.com/Overclock-Validator/scilla/pkg/rpcclient"
	"github.com/Overclock-Validator/scilla/pkg/txn"
	"github.com/Overclock-Validator/scilla/pkg/util"
)

// Global flags, bound on the root command.
var (
	ConfigPath   string
	OutputFormat string
	RpcURL       string
	Commitment   string
	KeypairPath  string
)

// ResolveConfigPath returns --config or the default location.
func ResolveConfigPath() string {
	if ConfigPath != "" {
		return ConfigPath
	}
	path, err := config.DefaultPath()
	if err != nil {
		klog.Exitf("failed to resolve config path: %s", err)
	}
	return path
}

// LoadConfig reads the config file, falling back to defaults, and applies
// the command line overrides.
func LoadConfig() *config.Config {
	path := ResolveConfigPath()
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		klog.Exitf("%s", err)
	}

	for field, value := range map[string]string{
		config.FieldRpcURL:          RpcURL,
		config.FieldCommitmentLevel: Commitment,
		config.FieldKeypairPath:     KeypairPath,
	} {
		if value == "" {
			continue
		}
		err = cfg.Set(field, value)
		if err != nil {
			klog.Exitf("--%s: %s", field, err)
		}
	}

	klog.V(2).Infof("using config %s: rpc %s, commitment %s", path, cfg.RpcURL, cfg.CommitmentLevel)
	return cfg
}

// Env is built once per command invocation.
type Env struct {
	Config  *config.Config
	Client  *rpcclient.RpcClient
	Printer *output.Printer
}

func NewEnv() *Env {
	cfg := LoadConfig()

	format, err := output.ResolveFormat(OutputFormat, output.IsTerminal(os.Stdout))
	if err != nil {
		klog.Exitf("%s", err)
	}

	return &Env{
		Config:  cfg,
		Client:  rpcclient.NewRpcClient(cfg.RpcURL, cfg.Commitment()),
		Printer: output.NewPrinter(os.Stdout, format),
	}
}

// Payer loads the configured fee payer keypair.
func (env *Env) Payer() solana.PrivateKey {
	return Signer(env.Config.KeypairPath)
}

// Assembler returns a transaction assembler paid by the configured keypair,
// with a spinner when printing text to a terminal.
func (env *Env) Assembler(ctx context.Context, label string) (*txn.Assembler, *output.Spinner) {
	spinner := env.Spinner(ctx, label)
	assembler := txn.NewAssembler(env.Client, env.Payer(), env.Config.Commitment(), txn.WithStatusFunc(spinner.Update))
	return assembler, spinner
}

// Spinner is nil unless text is going to a terminal.
func (env *Env) Spinner(ctx context.Context, label string) *output.Spinner {
	if env.Printer.Format() != output.FormatText || !output.IsTerminal(os.Stderr) {
		return nil
	}
	return output.NewSpinner(ctx, os.Stderr, label)
}

func (env *Env) Commitment() rpc.CommitmentType {
	return env.Config.Commitment()
}

func (env *Env) Print(title string, value interface{}, fields ...output.Field) {
	err := env.Printer.Print(title, value, fields...)
	if err != nil {
		klog.Exitf("failed to write output: %s", err)
	}
}

// Submitted reports the outcome of a transaction, stopping the spinner
// first.
func (env *Env) Submitted(spinner *output.Spinner, action string, sig solana.Signature, err error) {
	spinner.Stop(err == nil)
	if err != nil {
		if !sig.IsZero() {
			util.VerboseHandleError(fmt.Errorf("transaction %s: %w", sig, err))
		}
		Fail(action, err)
	}
	env.Print(action, map[string]string{"signature": sig.String()}, output.F("Signature", sig))
}

func Fail(action string, err error) {
	klog.Exitf("%s failed: %s", action, err)
}

// Signer loads a keypair file, exiting on failure.
func Signer(path string) solana.PrivateKey {
	key, err := keypair.Load(path)
	if err != nil {
		klog.Exitf("%s", err)
	}
	return key
}

// Pubkey resolves a base58 public key or keypair file path.
func Pubkey(name string, input string) solana.PublicKey {
	pubkey, err := keypair.ResolvePubkey(input)
	if err != nil {
		klog.Exitf("%s: %s", name, err)
	}
	return pubkey
}

func Signature(input string) solana.Signature {
	sig, err := parse.ParseSignature(input)
	if err != nil {
		klog.Exitf("%s", err)
	}
	return sig
}

func Amount(input string) parse.SolAmount {
	amount, err := parse.ParseSolAmount(input)
	if err != nil {
		klog.Exitf("%s", err)
	}
	return amount
}

// Sol renders lamports for text output.
func Sol(lamports uint64) string {
	return parse.FormatLamports(lamports) + " SOL"
}

func RequireFlag(c *cobra.Command, names ...string) {
	for _, name := range names {
		err := c.MarkFlagRequired(name)
		if err != nil {
			klog.Fatalf("flag %s: %s", name, err)
		}
	}
}
