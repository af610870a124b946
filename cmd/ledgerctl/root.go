package main

import (
	"context"
	"time"

	appbilling "github.com/backoffice/ledger/internal/application/billing"
	"github.com/backoffice/ledger/internal/bootstrap"
	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/backoffice/ledger/internal/infrastructure/config"
	"github.com/backoffice/ledger/internal/infrastructure/logger"
	"github.com/backoffice/ledger/internal/infrastructure/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type reconciler interface {
	Reconcile(ctx context.Context, repair bool) (*appbilling.ReconciliationReport, error)
}

type cashFlowLister interface {
	ListCashFlow(ctx context.Context, filter billing.CashFlowFilter) (*appbilling.CashFlowReport, error)
}

type uploader interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
	Link(ctx context.Context, key string, ttl time.Duration) (storage.Link, error)
}

// services is what the subcommands need from the ledger.
// uploader is nil when no storage bucket is configured.
type services struct {
	reconciler reconciler
	cashFlow   cashFlowLister
	uploader   uploader
}

// provider opens the ledger before a subcommand runs
type provider interface {
	Open(ctx context.Context, logLevel string) (*services, error)
	Close(ctx context.Context)
}

type ledgerProvider struct {
	ledger *bootstrap.Ledger
	log    *zap.Logger
}

func newLedgerProvider() *ledgerProvider {
	return &ledgerProvider{}
}

func (p *ledgerProvider) Open(ctx context.Context, logLevel string) (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if logLevel == "" {
		logLevel = cfg.Log.Level
	}
	p.log, err = logger.New(&logger.Config{Level: logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		return nil, err
	}
	p.ledger, err = bootstrap.NewLedger(ctx, cfg, p.log)
	if err != nil {
		return nil, err
	}
	svc := &services{
		reconciler: p.ledger.Services.Reconciliation,
		cashFlow:   p.ledger.Services.Query,
	}
	if cfg.Storage.Bucket != "" {
		bucket, err := storage.NewExportBucket(ctx, cfg.Storage, storage.WithLogger(p.log))
		if err != nil {
			return nil, err
		}
		if err := bucket.Ensure(ctx); err != nil {
			return nil, err
		}
		svc.uploader = bucket
	}
	return svc, nil
}

func (p *ledgerProvider) Close(ctx context.Context) {
	if p.ledger != nil {
		p.ledger.Close(ctx)
	}
	if p.log != nil {
		_ = p.log.Sync()
	}
}

func newRootCmd(p provider) *cobra.Command {
	var logLevel string
	var svc *services

	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operator tools for the billing ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			svc, err = p.Open(cmd.Context(), logLevel)
			return err
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to the configured level")

	get := func() *services { return svc }
	root.AddCommand(newReconcileCmd(get), newExportCmd(get))
	return root
}
