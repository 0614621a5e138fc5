package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var version = "dev"

type rootOptions struct {
	sqlitePath string
	tenant     string
	operator   string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate the multi-currency ledger from the command line",
		Long: `ledgerctl runs ledger operations (settlement, offset, adjustments and
previews) against the ledger database.

Without --sqlite the PostgreSQL connection is read from config.toml, .env
and LEDGER_* environment variables, the same way the server loads it.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.sqlitePath, "sqlite", "", "Use a local SQLite database file instead of PostgreSQL")
	flags.StringVar(&opts.tenant, "tenant", "", "Tenant ID the command acts for")
	flags.StringVar(&opts.operator, "operator", "", "Operator ID recorded on audit entries")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newAccountsCmd(opts),
		newBalancesCmd(opts),
		newInvoicesCmd(opts),
		newPayCmd(opts),
		newPaymentsCmd(opts),
		newPreviewCmd(opts),
		newOffsetCmd(opts),
		newAdjustCmd(opts),
		newDebtCmd(opts),
		newAdjustmentsCmd(opts),
		newTokenCmd(opts),
	)
	return root
}

func (o *rootOptions) tenantID() (uuid.UUID, error) {
	if o.tenant == "" {
		return uuid.Nil, fmt.Errorf("--tenant is required")
	}
	id, err := uuid.Parse(o.tenant)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --tenant: %w", err)
	}
	return id, nil
}

func (o *rootOptions) operatorID() (*uuid.UUID, error) {
	if o.operator == "" {
		return nil, nil
	}
	id, err := uuid.Parse(o.operator)
	if err != nil {
		return nil, fmt.Errorf("invalid --operator: %w", err)
	}
	return &id, nil
}

func parseID(name, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return id, nil
}

func parseOptionalID(name, value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := parseID(name, value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseAmount(name, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, fmt.Errorf("--%s is required", name)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid --%s %q: %w", name, value, err)
	}
	return d, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
