package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/spf13/cobra"
)

var errLedgerGaps = errors.New("paid installments without income entry found")

func newReconcileCmd(get func() *services) *cobra.Command {
	var repair, strict bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "List paid installments that have no income entry",
		Long: `Scans for installments in status paid that have no cash flow entry and
prints them. With --repair each missing entry is booked under the payment lock.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := get().reconciler.Reconcile(cmd.Context(), repair)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report.IsClean() {
				fmt.Fprintln(out, "ledger is consistent: every paid installment has an income entry")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "INSTALLMENT\tDESCRIPTION\tAMOUNT\tPAID ON\tRESULT")
			for _, m := range report.Missing {
				paidOn := "-"
				if m.PaymentDate != nil {
					paidOn = m.PaymentDate.Format(billing.DateLayout)
				}
				result := "missing"
				switch {
				case m.Repaired:
					result = "booked"
				case m.Error != "":
					result = "failed: " + m.Error
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", m.InstallmentID, m.Description, m.Amount.StringFixed(2), paidOn, result)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d missing, %d repaired, %d failed\n", len(report.Missing), report.Repaired, report.Failed)

			if report.Failed > 0 {
				return fmt.Errorf("%d ledger repairs failed", report.Failed)
			}
			if strict && !repair {
				return errLedgerGaps
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&repair, "repair", false, "Book the missing income entries")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when gaps are found and not repaired")
	return cmd
}
