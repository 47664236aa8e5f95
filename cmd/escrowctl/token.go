package main

import (
	"fmt"
	"time"

	"wager-escrow/internal/core/domain"
	"wager-escrow/internal/service"

	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for a player or the settlement authority",
		Args:  cobra.NoArgs,
		RunE:  runToken,
	}
	cmd.Flags().StringP("actor", "a", "", "actor id")
	cmd.Flags().StringP("role", "r", string(domain.RolePlayer), "actor role: player or authority")
	cmd.Flags().Duration("ttl", 0, "token lifetime (defaults to jwt.expiry)")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	actorID, _ := cmd.Flags().GetString("actor")
	role, _ := cmd.Flags().GetString("role")
	ttl, _ := cmd.Flags().GetDuration("ttl")
	if ttl <= 0 {
		ttl = cfg.JWT.Expiry
	}
	if cfg.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is not configured")
	}

	tokens := service.NewJWTTokenService(cfg.JWT.Secret, ttl, cfg.JWT.Issuer)
	token, expiry, err := tokens.Generate(domain.Actor{ID: actorID, Role: domain.Role(role)})
	if err != nil {
		return fmt.Errorf("minting token: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, token)
	fmt.Fprintf(out, "# expires %s\n", expiry.UTC().Format(time.RFC3339))
	return nil
}
