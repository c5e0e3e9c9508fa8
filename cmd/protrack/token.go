package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/hyperengineering/protrack/internal/auth"
	"github.com/hyperengineering/protrack/internal/config"
	"github.com/spf13/cobra"
)

var (
	tokenUserID string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for a user",
	Long:  "Sign an HS256 token with PROTRACK_JWT_SECRET for local testing against the API.",
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user", "", "User id to put in the sub claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (default: auth.token_ttl)")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	if tokenUserID == "" {
		return errors.New("--user is required")
	}

	cfg, err := config.LoadOffline()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("PROTRACK_JWT_SECRET is required")
	}

	ttl := tokenTTL
	if ttl == 0 {
		ttl = time.Duration(cfg.Auth.TokenTTL)
	}

	token, err := auth.NewIssuer(cfg.Auth.JWTSecret, ttl).Issue(tokenUserID)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
