package cli

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/odyssey-erp/lotledger/internal/payments"
	"github.com/odyssey-erp/lotledger/internal/reconcile"
)

type ReconcileCmd struct {
	Invoices []string `arg:"" help:"Invoice ids whose payments changed."`
	Write    bool     `help:"Persist the recomputed paidAmount to the dataset file."`
}

func (cmd *ReconcileCmd) Run(ctx context.Context, kctx *kong.Context, g *Globals) error {
	_, pay := g.services(kctx.Stderr)
	result, err := pay.Reconcile(ctx, payments.ReconcileInput{InvoiceIDs: cmd.Invoices, DryRun: !cmd.Write})
	if err != nil {
		return g.describe(err)
	}

	switch g.Format {
	case "json":
		return writeJSON(kctx.Stdout, result)
	case "csv":
		list := make([]reconcile.Status, 0, len(result.Invoices))
		for _, inv := range result.Invoices {
			list = append(list, inv.Status)
		}
		return writeStatusCSV(kctx, list)
	}

	f := g.formatter()
	if len(result.Invoices) > 0 {
		t := newTable("Invoice", "Kind", "Total", "Paid", "Balance", "Status")
		for _, inv := range result.Invoices {
			t.Row(inv.InvoiceID.String(), string(inv.Kind), f.Format(inv.Total), f.Format(inv.PaidAmount), f.Format(inv.Balance), renderStatus(string(inv.Status.Status)))
		}
		_, _ = fmt.Fprintln(kctx.Stdout, t.Render())
	}
	for _, id := range result.Unknown {
		printError(kctx.Stdout, fmt.Sprintf("%s matches no sale or purchase", id))
	}
	if result.Payload.Empty() {
		printInfof(kctx.Stdout, "nothing to write")
		return nil
	}
	if err := writeJSON(kctx.Stdout, result.Payload); err != nil {
		return err
	}
	if result.Saved {
		printSuccess(kctx.Stdout, fmt.Sprintf("saved %s", g.File))
	} else {
		printInfof(kctx.Stdout, "dry run, pass --write to persist")
	}
	return nil
}
