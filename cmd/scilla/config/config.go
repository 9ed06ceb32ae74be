package config

import (
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/scilla/cmd/scilla/cli"
	"github.com/Overclock-Validator/scilla/pkg/config"
	"github.com/Overclock-Validator/scilla/pkg/output"
)

var (
	Cmd = cobra.Command{
		Use:   "config",
		Short: "Show, generate or edit the scilla config file",
	}

	showCmd = cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		Run:   runShow,
	}

	generateCmd = cobra.Command{
		Use:   "generate",
		Short: "Write a config file from defaults and the --url, --commitment and --keypair flags",
		Args:  cobra.NoArgs,
		Run:   runGenerate,
	}

	editCmd = cobra.Command{
		Use:   "edit <field> <value>",
		Short: "Set one field (rpc-url, commitment-level, keypair-path) in the config file",
		Args:  cobra.ExactArgs(2),
		Run:   runEdit,
	}

	force bool
)

func init() {
	generateCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")

	Cmd.AddCommand(
		&showCmd,
		&generateCmd,
		&editCmd,
	)
}

func fields(path string, cfg *config.Config) []output.Field {
	return []output.Field{
		output.F("Config File", path),
		output.F("RPC URL", cfg.RpcURL),
		output.F("Commitment Level", cfg.CommitmentLevel),
		output.F("Keypair Path", cfg.KeypairPath),
	}
}

func show(env *cli.Env, title string, path string, cfg *config.Config) {
	env.Print(title, cfg, fields(path, cfg)...)
}

func runShow(c *cobra.Command, args []string) {
	env := cli.NewEnv()
	show(env, "Scilla config", cli.ResolveConfigPath(), env.Config)
}

func runGenerate(c *cobra.Command, args []string) {
	path := cli.ResolveConfigPath()
	env := cli.NewEnv()

	err := config.Save(path, env.Config, force)
	if err != nil {
		klog.Exitf("%s (use --force to overwrite, or config edit)", err)
	}
	klog.Infof("wrote config %s", path)
	show(env, "Generated config", path, env.Config)
}

func runEdit(c *cobra.Command, args []string) {
	path := cli.ResolveConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		klog.Exitf("%s", err)
	}

	err = cfg.Set(args[0], args[1])
	if err != nil {
		klog.Exitf("%s", err)
	}

	err = config.Save(path, cfg, true)
	if err != nil {
		klog.Exitf("failed to save config %s: %s", path, err)
	}

	env := cli.NewEnv()
	show(env, "Updated config", path, cfg)
}
