package cli

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"sort"

	"github.com/alecthomas/kong"

	"github.com/odyssey-erp/lotledger/internal/dataset"
	"github.com/odyssey-erp/lotledger/internal/inventory"
)

type ProfitCmd struct {
	Sale string `arg:"" help:"Sale id."`
}

func (cmd *ProfitCmd) Run(ctx context.Context, kctx *kong.Context, g *Globals) error {
	inv, _ := g.services(kctx.Stderr)
	profit, err := inv.SaleProfit(ctx, cmd.Sale)
	if errors.Is(err, inventory.ErrSaleNotFound) {
		return fmt.Errorf("sale %q not found in %s", cmd.Sale, g.File)
	}
	if err != nil {
		return g.describe(err)
	}

	ids := make([]dataset.ID, 0, len(profit.ItemProfits))
	for id := range profit.ItemProfits {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	switch g.Format {
	case "json":
		return writeJSON(kctx.Stdout, profit)
	case "csv":
		w := csv.NewWriter(kctx.Stdout)
		_ = w.Write([]string{"item", "quantity", "revenue", "cogs", "unit_cogs", "profit"})
		for _, id := range ids {
			p := profit.ItemProfits[id]
			_ = w.Write([]string{
				id.String(),
				p.Quantity.String(),
				p.Revenue.StringFixed(2),
				p.COGS.StringFixed(2),
				p.UnitCOGS.StringFixed(2),
				p.Profit.StringFixed(2),
			})
		}
		w.Flush()
		return w.Error()
	}

	f := g.formatter()
	t := newTable("Item", "Qty", "Revenue", "COGS", "Unit COGS", "Profit")
	for _, id := range ids {
		p := profit.ItemProfits[id]
		t.Row(id.String(), p.Quantity.String(), f.Format(p.Revenue), f.Format(p.COGS), f.Format(p.UnitCOGS), f.Format(p.Profit))
	}
	_, _ = fmt.Fprintln(kctx.Stdout, t.Render())
	printInfof(kctx.Stdout, "sale %s: revenue %s, COGS %s, gross %s, discount %s",
		profit.SaleID, f.Format(profit.Revenue), f.Format(profit.COGS), f.Format(profit.GrossProfit), f.Format(profit.Discount))
	line := fmt.Sprintf("net profit %s", f.Format(profit.TotalProfit))
	if profit.TotalProfit.IsNegative() {
		printError(kctx.Stdout, line)
	} else {
		printSuccess(kctx.Stdout, line)
	}
	return nil
}
