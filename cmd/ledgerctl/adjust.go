package main

import (
	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/spf13/cobra"
)

func newOffsetCmd(opts *rootOptions) *cobra.Command {
	var req ledgerapp.OffsetRequest
	cmd := &cobra.Command{
		Use:   "offset <account-id>",
		Short: "Net available advance against debt in one currency",
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
			if req.OperatorID, err = opts.operatorID(); err != nil {
				return err
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				if err := a.check(req); err != nil {
					return err
				}
				result, err := a.services.Adjustments.Offset(cmd.Context(), tenantID, accountID, req)
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			})
		},
	}
	cmd.Flags().StringVar(&req.Currency, "currency", "", "IQD or USD")
	cmd.Flags().StringVar(&req.Note, "note", "", "Note recorded on both entries")
	_ = cmd.MarkFlagRequired("currency")
	return cmd
}

func newAdjustCmd(opts *rootOptions) *cobra.Command {
	var (
		req    ledgerapp.AdjustBalanceRequest
		amount string
	)
	cmd := &cobra.Command{
		Use:   "adjust <account-id>",
		Short: "Manually add to or subtract from an advance or debt balance",
		Example: `  ledgerctl --tenant $TENANT adjust $ACCOUNT --ledger advance --type add --currency USD --amount 12.50 --note "opening balance"
  ledgerctl --tenant $TENANT adjust $ACCOUNT --ledger debt --type subtract --currency IQD --amount 5000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := opts.tenantID()
			if err != nil {
				return err
			}
			accountID, err := parseID("account id", args[0])
			if err != nil {
				return err
			}
			if req.Amount, err = parseAmount("amount", amount); err != nil {
				return err
			}
			if req.OperatorID, err = opts.operatorID(); err != nil {
				return err
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				if err := a.check(req); err != nil {
					return err
				}
				entry, err := a.services.Adjustments.Adjust(cmd.Context(), tenantID, accountID, req)
				if err != nil {
					return err
				}
				return printJSON(cmd, entry)
			})
		},
	}
	cmd.Flags().StringVar(&req.Ledger, "ledger", "advance", "advance or debt")
	cmd.Flags().StringVar(&req.Type, "type", "", "add or subtract")
	cmd.Flags().StringVar(&req.Currency, "currency", "", "IQD or USD")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount to add or subtract")
	cmd.Flags().StringVar(&req.Note, "note", "", "Note")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("currency")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newDebtCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debt",
		Short: "Change account debt directly, with an audit entry",
	}
	cmd.AddCommand(newDebtChangeCmd(opts, true), newDebtChangeCmd(opts, false))
	return cmd
}

func newDebtChangeCmd(opts *rootOptions, increase bool) *cobra.Command {
	var (
		req    ledgerapp.DebtChangeRequest
		amount string
	)
	use, short := "decrease <account-id>", "Decrease account debt"
	if increase {
		use, short = "increase <account-id>", "Increase account debt"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
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
			if req.Amount, err = parseAmount("amount", amount); err != nil {
				return err
			}
			if req.OperatorID, err = opts.operatorID(); err != nil {
				return err
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				if err := a.check(req); err != nil {
					return err
				}
				change := a.services.Accounts.DecreaseDebt
				if increase {
					change = a.services.Accounts.IncreaseDebt
				}
				entry, err := change(cmd.Context(), tenantID, accountID, req)
				if err != nil {
					return err
				}
				return printJSON(cmd, entry)
			})
		},
	}
	cmd.Flags().StringVar(&req.Currency, "currency", "", "IQD or USD")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount")
	cmd.Flags().StringVar(&req.Note, "note", "", "Note")
	_ = cmd.MarkFlagRequired("currency")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newAdjustmentsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adjustments",
		Short: "Browse and reverse balance adjustment entries",
	}

	var q ledgerapp.ListAdjustmentsQuery
	list := &cobra.Command{
		Use:   "list <account-id>",
		Short: "List the audit trail of an account",
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
				if err := a.check(q); err != nil {
					return err
				}
				page, err := a.services.Adjustments.List(cmd.Context(), tenantID, accountID, q)
				if err != nil {
					return err
				}
				return printJSON(cmd, page)
			})
		},
	}
	list.Flags().StringVar(&q.Ledger, "ledger", "", "Only advance or debt entries")
	list.Flags().StringVar(&q.OrderDir, "order", "desc", "asc or desc by creation time")
	list.Flags().IntVar(&q.Page, "page", 1, "Page number")
	list.Flags().IntVar(&q.PageSize, "page-size", 20, "Page size")

	var reverseReq ledgerapp.ReverseAdjustmentRequest
	reverse := &cobra.Command{
		Use:   "reverse <adjustment-id>",
		Short: "Reverse an adjustment with a compensating entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := opts.tenantID()
			if err != nil {
				return err
			}
			adjustmentID, err := parseID("adjustment id", args[0])
			if err != nil {
				return err
			}
			if reverseReq.OperatorID, err = opts.operatorID(); err != nil {
				return err
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				if err := a.check(reverseReq); err != nil {
					return err
				}
				entry, err := a.services.Adjustments.Reverse(cmd.Context(), tenantID, adjustmentID, reverseReq)
				if err != nil {
					return err
				}
				return printJSON(cmd, entry)
			})
		},
	}
	reverse.Flags().StringVar(&reverseReq.Note, "note", "", "Note recorded on the reversal")

	cmd.AddCommand(list, reverse)
	return cmd
}
