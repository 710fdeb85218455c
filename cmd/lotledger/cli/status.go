package cli

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/odyssey-erp/lotledger/internal/payments"
	"github.com/odyssey-erp/lotledger/internal/reconcile"
)

type StatusCmd struct {
	Invoice string `arg:"" optional:"" help:"Sale or purchase id. Omit to list outstanding invoices."`
}

func (cmd *StatusCmd) Run(ctx context.Context, kctx *kong.Context, g *Globals) error {
	_, pay := g.services(kctx.Stderr)
	if cmd.Invoice == "" {
		return cmd.outstanding(ctx, kctx, g, pay)
	}

	view, err := pay.Status(ctx, cmd.Invoice)
	if errors.Is(err, payments.ErrInvoiceNotFound) {
		return fmt.Errorf("invoice %q not found in %s", cmd.Invoice, g.File)
	}
	if err != nil {
		return g.describe(err)
	}
	switch g.Format {
	case "json":
		return writeJSON(kctx.Stdout, view)
	case "csv":
		return writeStatusCSV(kctx, []reconcile.Status{view.Status})
	}
	f := g.formatter()
	t := newTable("Invoice", "Kind", "Total", "Paid", "Balance", "Status")
	t.Row(view.InvoiceID.String(), string(view.Kind), f.Format(view.Total), f.Format(view.PaidAmount), f.Format(view.Balance), renderStatus(string(view.Status.Status)))
	_, _ = fmt.Fprintln(kctx.Stdout, t.Render())
	return nil
}

func (cmd *StatusCmd) outstanding(ctx context.Context, kctx *kong.Context, g *Globals, pay *payments.Service) error {
	list, err := pay.Outstanding(ctx)
	if err != nil {
		return g.describe(err)
	}
	switch g.Format {
	case "json":
		return writeJSON(kctx.Stdout, list)
	case "csv":
		return writeStatusCSV(kctx, list)
	}
	if len(list) == 0 {
		printSuccess(kctx.Stdout, "every invoice is paid")
		return nil
	}
	f := g.formatter()
	t := newTable("Invoice", "Paid", "Balance", "Status")
	for _, st := range list {
		t.Row(st.InvoiceID.String(), f.Format(st.PaidAmount), f.Format(st.Balance), renderStatus(string(st.Status)))
	}
	_, _ = fmt.Fprintln(kctx.Stdout, t.Render())
	printInfof(kctx.Stdout, "%d outstanding invoice(s)", len(list))
	return nil
}

func writeStatusCSV(kctx *kong.Context, list []reconcile.Status) error {
	w := csv.NewWriter(kctx.Stdout)
	_ = w.Write([]string{"invoice", "status", "paid_amount", "balance"})
	for _, st := range list {
		_ = w.Write([]string{st.InvoiceID.String(), string(st.Status), st.PaidAmount.StringFixed(2), st.Balance.StringFixed(2)})
	}
	w.Flush()
	return w.Error()
}
