package main

import (
	"fmt"
	"time"

	"github.com/erp/ledger/internal/infrastructure/auth"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type tokenOutput struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		secret, issuer, username string
		perms                    []string
		ttl                      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the ledger API",
		Long: `Mint an HS256 access token carrying a tenant, an operator and ledger
permissions. The signing secret and issuer come from the server configuration
unless --secret is given.`,
		Example: `  ledgerctl token --tenant $TENANT --perm ledger:read --perm ledger:write --ttl 8h`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, err := opts.tenantID()
			if err != nil {
				return err
			}
			operatorID := uuid.New()
			if op, err := opts.operatorID(); err != nil {
				return err
			} else if op != nil {
				operatorID = *op
			}

			jwtCfg := config.JWTConfig{Secret: secret, Issuer: issuer}
			if secret == "" {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("failed to load configuration: %w", err)
				}
				jwtCfg = cfg.JWT
				if issuer != "" {
					jwtCfg.Issuer = issuer
				}
			}

			token, expiresAt, err := auth.NewJWTService(jwtCfg).GenerateAccessToken(auth.TokenInput{
				TenantID:    tenantID,
				OperatorID:  operatorID,
				Username:    username,
				Permissions: perms,
				TTL:         ttl,
			})
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			return printJSON(cmd, tokenOutput{Token: token, ExpiresAt: expiresAt})
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret; defaults to the configured JWT secret")
	cmd.Flags().StringVar(&issuer, "issuer", "", "Token issuer")
	cmd.Flags().StringVar(&username, "username", "ledgerctl", "Username claim")
	cmd.Flags().StringSliceVar(&perms, "perm", []string{auth.PermissionLedgerRead},
		fmt.Sprintf("Permission to grant (%s, %s, %s); repeatable",
			auth.PermissionLedgerRead, auth.PermissionLedgerWrite, auth.PermissionLedgerAdjust))
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}
