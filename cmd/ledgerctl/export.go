package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/backoffice/ledger/internal/infrastructure/export"
	"github.com/spf13/cobra"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func newExportCmd(get func() *services) *cobra.Command {
	var from, to, out, category string
	var upload bool
	var linkTTL time.Duration

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export cash flow entries and totals to an xlsx workbook",
		Example: `  ledgerctl export --from 2024-01-01 --to 2024-01-31 --out january.xlsx
  ledgerctl export --category payment --upload`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" && !upload {
				return errors.New("one of --out or --upload is required")
			}
			svc := get()
			if upload && svc.uploader == nil {
				return errors.New("--upload needs storage.bucket to be configured")
			}

			filter := billing.CashFlowFilter{Category: category}
			var period export.Period
			if from != "" {
				t, err := billing.ParseDate(from)
				if err != nil {
					return err
				}
				filter.From, period.From = &t, t
			}
			if to != "" {
				t, err := billing.ParseDate(to)
				if err != nil {
					return err
				}
				filter.To, period.To = &t, t
			}
			if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
				return fmt.Errorf("--to %s is before --from %s", to, from)
			}

			report, err := svc.cashFlow.ListCashFlow(cmd.Context(), filter)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := export.WriteCashFlowWorkbook(&buf, report, period); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(w, "wrote %d entries to %s (balance %s)\n", report.Summary.Count, out, report.Summary.Balance.Format())
			}
			if upload {
				key, err := svc.uploader.Put(cmd.Context(), exportName(period, time.Now().UTC()), buf.Bytes(), xlsxContentType)
				if err != nil {
					return err
				}
				link, err := svc.uploader.Link(cmd.Context(), key, linkTTL)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "uploaded %d entries to %s\n", report.Summary.Count, key)
				fmt.Fprintf(w, "download (valid until %s): %s\n", link.ExpiresAt.Format(time.RFC3339), link.URL)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "First day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&category, "category", "", "Only entries of this category")
	cmd.Flags().StringVar(&out, "out", "", "Workbook path")
	cmd.Flags().BoolVar(&upload, "upload", false, "Upload the workbook to the configured storage bucket")
	cmd.Flags().DurationVar(&linkTTL, "link-ttl", 24*time.Hour, "Validity of the download link printed after --upload")
	return cmd
}

// exportName is the object name for an uploaded workbook
func exportName(period export.Period, now time.Time) string {
	bound := func(t time.Time) string {
		if t.IsZero() {
			return "open"
		}
		return t.Format(billing.DateLayout)
	}
	return fmt.Sprintf("cash-flow_%s_%s_%s.xlsx", bound(period.From), bound(period.To), now.Format("20060102T150405Z"))
}
