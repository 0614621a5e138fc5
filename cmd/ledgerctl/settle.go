package main

import (
	"fmt"

	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/spf13/cobra"
)

func newInvoicesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "Issue and inspect invoices",
	}

	var (
		req                     ledgerapp.CreateInvoiceRequest
		account, total, upfront string
	)
	create := &cobra.Command{
		Use:     "create",
		Short:   "Issue a sale or purchase invoice",
		Example: `  ledgerctl --tenant $TENANT invoices create --account $ACCOUNT --number INV-7 --terms credit --currency IQD --total 100000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, err := opts.tenantID()
			if err != nil {
				return err
			}
			if req.AccountID, err = parseID("--account", account); err != nil {
				return err
			}
			if req.TotalAmount, err = parseAmount("total", total); err != nil {
				return err
			}
			if upfront != "" {
				if req.UpfrontPaid, err = parseAmount("upfront", upfront); err != nil {
					return err
				}
			}
			if req.CreatedBy, err = opts.operatorID(); err != nil {
				return err
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				if err := a.check(req); err != nil {
					return err
				}
				invoice, err := a.services.Invoices.Create(cmd.Context(), tenantID, req)
				if err != nil {
					return err
				}
				return printJSON(cmd, invoice)
			})
		},
	}
	create.Flags().StringVar(&account, "account", "", "Account ID")
	create.Flags().StringVar(&req.Number, "number", "", "Invoice number")
	create.Flags().StringVar(&req.Kind, "kind", "sale", "sale or purchase")
	create.Flags().StringVar(&req.Terms, "terms", "credit", "cash or credit")
	create.Flags().StringVar(&req.Currency, "currency", "", "IQD or USD")
	create.Flags().StringVar(&total, "total", "", "Invoice total")
	create.Flags().StringVar(&upfront, "upfront", "", "Amount paid when the invoice was issued")
	_ = create.MarkFlagRequired("account")
	_ = create.MarkFlagRequired("number")
	_ = create.MarkFlagRequired("currency")
	_ = create.MarkFlagRequired("total")

	get := &cobra.Command{
		Use:   "get <invoice-id>",
		Short: "Show an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := opts.tenantID()
			if err != nil {
				return err
			}
			invoiceID, err := parseID("invoice id", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				invoice, err := a.services.Invoices.Get(cmd.Context(), tenantID, invoiceID)
				if err != nil {
					return err
				}
				return printJSON(cmd, invoice)
			})
		},
	}

	cmd.AddCommand(create, get)
	return cmd
}

func newPayCmd(opts *rootOptions) *cobra.Command {
	var (
		req                      ledgerapp.SubmitPaymentRequest
		account, invoice, amount string
		noAdvance                bool
	)
	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Submit a payment to the settlement engine",
		Long: `Submit a payment. Available advance is applied first unless --no-advance
is given, then the payment reduces the debt, and any excess becomes advance
on accounts that support it.`,
		Example: `  ledgerctl --tenant $TENANT pay --account $ACCOUNT --invoice $INVOICE --amount 150000
  ledgerctl --tenant $TENANT pay --account $ACCOUNT --amount 25 --currency USD --key top-up-42`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, err := opts.tenantID()
			if err != nil {
				return err
			}
			if req.AccountID, err = parseID("--account", account); err != nil {
				return err
			}
			if req.InvoiceID, err = parseOptionalID("--invoice", invoice); err != nil {
				return err
			}
			if req.Amount, err = parseAmount("amount", amount); err != nil {
				return err
			}
			if req.OperatorID, err = opts.operatorID(); err != nil {
				return err
			}
			if noAdvance {
				apply := false
				req.ApplyAdvance = &apply
			}
			if len(req.IdempotencyKey) > 100 {
				return fmt.Errorf("--key must be at most 100 characters")
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				if err := a.check(req); err != nil {
					return err
				}
				result, err := a.services.Payments.Submit(cmd.Context(), tenantID, req)
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			})
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "Account ID")
	cmd.Flags().StringVar(&invoice, "invoice", "", "Invoice ID to settle")
	cmd.Flags().StringVar(&amount, "amount", "", "Payment amount")
	cmd.Flags().StringVar(&req.Currency, "currency", "", "IQD or USD; defaults to the invoice currency")
	cmd.Flags().StringVar(&req.Method, "method", "cash", "cash, card_terminal, transfer, cheque, advance or other")
	cmd.Flags().BoolVar(&noAdvance, "no-advance", false, "Do not consume available advance")
	cmd.Flags().StringVar(&req.IdempotencyKey, "key", "", "Idempotency key")
	cmd.Flags().StringVar(&req.Reference, "reference", "", "External reference")
	cmd.Flags().StringVar(&req.Note, "note", "", "Note")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newPaymentsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Inspect, cancel or refund payments",
	}

	get := &cobra.Command{
		Use:   "get <payment-id>",
		Short: "Show a payment and its allocation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := opts.tenantID()
			if err != nil {
				return err
			}
			paymentID, err := parseID("payment id", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				payment, err := a.services.Payments.Get(cmd.Context(), tenantID, paymentID)
				if err != nil {
					return err
				}
				return printJSON(cmd, payment)
			})
		},
	}

	cmd.AddCommand(get, newReversePaymentCmd(opts, false), newReversePaymentCmd(opts, true))
	return cmd
}

func newReversePaymentCmd(opts *rootOptions, refund bool) *cobra.Command {
	var req ledgerapp.ReversePaymentRequest
	use, short := "cancel <payment-id>", "Cancel a payment and restore balances"
	if refund {
		use, short = "refund <payment-id>", "Refund a payment and restore balances"
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
			paymentID, err := parseID("payment id", args[0])
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
				reverse := a.services.Payments.Cancel
				if refund {
					reverse = a.services.Payments.Refund
				}
				result, err := reverse(cmd.Context(), tenantID, paymentID, req)
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			})
		},
	}
	cmd.Flags().StringVar(&req.Reason, "reason", "", "Reason recorded on the payment")
	return cmd
}

func newPreviewCmd(opts *rootOptions) *cobra.Command {
	var (
		req                   ledgerapp.PreviewRequest
		invoice, debt, amount string
		display               displayOptions
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show what a payment would do without changing any balance",
		Example: `  ledgerctl preview --debt 100000 --amount 150000
  ledgerctl --tenant $TENANT preview --invoice $INVOICE --amount 40000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tag, err := display.validate()
			if err != nil {
				return err
			}
			if req.PaymentAmount, err = parseAmount("amount", amount); err != nil {
				return err
			}
			if req.InvoiceID, err = parseOptionalID("--invoice", invoice); err != nil {
				return err
			}
			if debt != "" {
				d, err := parseAmount("debt", debt)
				if err != nil {
					return err
				}
				req.DebtAmount = &d
			}
			if req.InvoiceID == nil && req.DebtAmount == nil {
				return fmt.Errorf("either --invoice or --debt is required")
			}
			tenantID, err := opts.tenantID()
			if err != nil && req.InvoiceID != nil {
				return err
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				if err := a.check(req); err != nil {
					return err
				}
				preview, err := a.services.Payments.Preview(cmd.Context(), tenantID, req)
				if err != nil {
					return err
				}
				if display.output == "text" {
					return printPreviewText(cmd, tag, preview)
				}
				return printJSON(cmd, preview)
			})
		},
	}
	cmd.Flags().StringVar(&invoice, "invoice", "", "Invoice whose remainder is the debt")
	cmd.Flags().StringVar(&debt, "debt", "", "Debt amount when no invoice is given")
	cmd.Flags().StringVar(&amount, "amount", "", "Payment amount")
	cmd.Flags().StringVar(&req.Currency, "currency", "", "IQD or USD")
	display.register(cmd)
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
