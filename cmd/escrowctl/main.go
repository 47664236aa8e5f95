package main

import (
	"fmt"
	"os"

	"wager-escrow/config"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "escrowctl",
		Short:         "Operator tooling for the wager escrow service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringP("config", "c", "", "config file (defaults to ./config.yaml, env WGE_*)")

	cmd.AddCommand(
		tokenCmd(),
		migrateCmd(),
		deriveCmd(),
	)
	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}
