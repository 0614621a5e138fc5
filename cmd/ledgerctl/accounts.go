package main

import (
	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/spf13/cobra"
)

func newAccountsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Create and inspect customer and supplier accounts",
	}
	cmd.AddCommand(newAccountsCreateCmd(opts), newAccountsGetCmd(opts), newAccountsListCmd(opts))
	return cmd
}

func newAccountsCreateCmd(opts *rootOptions) *cobra.Command {
	var (
		req     ledgerapp.CreateAccountRequest
		advance bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open an account",
		Example: `  ledgerctl --sqlite ledger.db --tenant $TENANT accounts create --code C-001 --name "Karwan Market" --kind customer
  ledgerctl --tenant $TENANT accounts create --code S-001 --name "Erbil Steel" --kind supplier --advance=false`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, err := opts.tenantID()
			if err != nil {
				return err
			}
			if req.CreatedBy, err = opts.operatorID(); err != nil {
				return err
			}
			if cmd.Flags().Changed("advance") {
				req.SupportsAdvance = &advance
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				if err := a.check(req); err != nil {
					return err
				}
				account, err := a.services.Accounts.Create(cmd.Context(), tenantID, req)
				if err != nil {
					return err
				}
				return printJSON(cmd, account)
			})
		},
	}
	cmd.Flags().StringVar(&req.Code, "code", "", "Account code, unique per tenant")
	cmd.Flags().StringVar(&req.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&req.Kind, "kind", "customer", "customer or supplier")
	cmd.Flags().BoolVar(&advance, "advance", true, "Hold overpayments as advance; when unset, only customers do")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newAccountsGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <account-id>",
		Short: "Show an account with its balances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := opts.tenantID()
			if err != nil {
				return err
			}
			accountID, err := parseID("account id", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				account, err := a.services.Accounts.Get(cmd.Context(), tenantID, accountID)
				if err != nil {
					return err
				}
				return printJSON(cmd, account)
			})
		},
	}
}

func newAccountsListCmd(opts *rootOptions) *cobra.Command {
	var q ledgerapp.ListAccountsQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, err := opts.tenantID()
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				if err := a.check(q); err != nil {
					return err
				}
				page, err := a.services.Accounts.List(cmd.Context(), tenantID, q)
				if err != nil {
					return err
				}
				return printJSON(cmd, page)
			})
		},
	}
	cmd.Flags().StringVar(&q.Kind, "kind", "", "Only customer or supplier accounts")
	cmd.Flags().StringVar(&q.Search, "search", "", "Match code or name")
	cmd.Flags().IntVar(&q.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&q.PageSize, "page-size", 20, "Page size")
	return cmd
}

func newBalancesCmd(opts *rootOptions) *cobra.Command {
	var display displayOptions
	cmd := &cobra.Command{
		Use:     "balances <account-id>",
		Short:   "Show debt, advance and net per currency",
		Example: `  ledgerctl --tenant $TENANT balances $ACCOUNT -o text --lang ar-IQ`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag, err := display.validate()
			if err != nil {
				return err
			}
			tenantID, err := opts.tenantID()
			if err != nil {
				return err
			}
			accountID, err := parseID("account id", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				balances, err := a.services.Accounts.Balances(cmd.Context(), tenantID, accountID)
				if err != nil {
					return err
				}
				if display.output == "text" {
					return printBalancesText(cmd, tag, balances)
				}
				return printJSON(cmd, balances)
			})
		},
	}
	display.register(cmd)
	return cmd
}
