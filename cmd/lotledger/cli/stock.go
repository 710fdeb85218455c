package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/alecthomas/kong"

	"github.com/odyssey-erp/lotledger/internal/dataset"
	"github.com/odyssey-erp/lotledger/internal/inventory/export"
)

type StockCmd struct {
	Summary bool `help:"Print only the totals."`
}

func (cmd *StockCmd) Run(ctx context.Context, kctx *kong.Context, g *Globals) error {
	inv, _ := g.services(kctx.Stderr)
	view, err := inv.Stock(ctx)
	if err != nil {
		return g.describe(err)
	}

	switch g.Format {
	case "json":
		if cmd.Summary {
			return writeJSON(kctx.Stdout, view.Totals)
		}
		return writeJSON(kctx.Stdout, view)
	case "csv":
		if cmd.Summary {
			return export.WriteTotalsCSV(kctx.Stdout, view.Totals)
		}
		return export.WriteStockCSV(kctx.Stdout, view.Rows)
	}

	f := g.formatter()
	if !cmd.Summary {
		t := newTable("Item", "Name", "On hand", "Value", "Avg cost", "Last price", "Last sale", "Status")
		for _, row := range view.Rows {
			t.Row(
				row.ItemID.String(),
				clip(row.Name),
				row.OnHand.String(),
				f.Format(row.StockValue),
				f.Format(row.AvgPurchasePrice),
				f.Format(row.LastSalePrice),
				row.LastSaleDate,
				renderStatus(string(row.Status)),
			)
		}
		_, _ = fmt.Fprintln(kctx.Stdout, t.Render())
	}

	totals := view.Totals
	printInfof(kctx.Stdout, "stock value %s, revenue %s, COGS %s, net profit %s",
		f.Format(totals.StockValue), f.Format(totals.Revenue), f.Format(totals.COGS), f.Format(totals.NetProfit))
	if totals.LowStock > 0 || totals.OutOfStock > 0 {
		_, _ = fmt.Fprintf(kctx.Stdout, "%s %d low stock, %d out of stock\n",
			warnStyle.Render("!"), totals.LowStock, totals.OutOfStock)
	}
	unbacked := make([]dataset.ID, 0, len(totals.Unbacked))
	for itemID := range totals.Unbacked {
		unbacked = append(unbacked, itemID)
	}
	sort.Slice(unbacked, func(i, j int) bool { return unbacked[i] < unbacked[j] })
	for _, itemID := range unbacked {
		printError(kctx.Stdout, fmt.Sprintf("%s sold %s beyond purchased stock", itemID, totals.Unbacked[itemID]))
	}
	return nil
}
