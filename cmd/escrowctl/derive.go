package main

import (
	"fmt"

	"wager-escrow/internal/core/domain"

	"github.com/spf13/cobra"
)

func deriveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive-custody <player-id>",
		Short: "Print the custody holder id a wager opened without escrow_id would get",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nonce, _ := cmd.Flags().GetUint8("nonce")
			fmt.Fprintln(cmd.OutOrStdout(), domain.DeriveCustodyID(args[0], nonce))
			return nil
		},
	}
	cmd.Flags().Uint8P("nonce", "n", 0, "wager nonce")
	return cmd
}
