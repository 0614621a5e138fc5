package main

import (
	"fmt"
	"text/tabwriter"

	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
)

// displayOptions selects between raw JSON and localized text output
type displayOptions struct {
	output string
	lang   string
}

func (d *displayOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&d.output, "output", "o", "json", "json or text")
	cmd.Flags().StringVar(&d.lang, "lang", "en", "Language used to group digits in text output")
}

func (d *displayOptions) validate() (language.Tag, error) {
	if d.output != "json" && d.output != "text" {
		return language.Und, fmt.Errorf("invalid --output %q: want json or text", d.output)
	}
	tag, err := language.Parse(d.lang)
	if err != nil {
		return language.Und, fmt.Errorf("invalid --lang %q: %w", d.lang, err)
	}
	return tag, nil
}

func formatAmount(tag language.Tag, amount decimal.Decimal, c valueobject.Currency) string {
	m, err := valueobject.NewMoney(amount, c)
	if err != nil {
		return amount.String()
	}
	return m.Format(tag)
}

func printBalancesText(cmd *cobra.Command, tag language.Tag, b *ledgerapp.AccountBalancesResponse) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "CURRENCY\tDEBT\tADVANCE\tNET\t")
	for _, row := range b.Balances {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", row.Currency,
			formatAmount(tag, row.Debt, row.Currency),
			formatAmount(tag, row.Advance, row.Currency),
			formatAmount(tag, row.Net, row.Currency))
	}
	return w.Flush()
}

func printPreviewText(cmd *cobra.Command, tag language.Tag, p *ledgerapp.PreviewResponse) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "debt cleared:\t%s\n", formatAmount(tag, p.DebtCleared, p.Currency))
	fmt.Fprintf(w, "remaining debt:\t%s\n", formatAmount(tag, p.RemainingDebt, p.Currency))
	fmt.Fprintf(w, "excess:\t%s\n", formatAmount(tag, p.ExcessAmount, p.Currency))
	return w.Flush()
}
