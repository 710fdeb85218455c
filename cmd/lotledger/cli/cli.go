// Package cli implements the lotledger command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"

	"github.com/odyssey-erp/lotledger/internal/costing"
	"github.com/odyssey-erp/lotledger/internal/docstore"
	"github.com/odyssey-erp/lotledger/internal/inventory"
	"github.com/odyssey-erp/lotledger/internal/money"
	"github.com/odyssey-erp/lotledger/internal/payments"
	"github.com/odyssey-erp/lotledger/internal/reconcile"
)

var (
	Version   = ""
	CommitSHA = ""
)

var (
	successSymbol = "✓"
	errorSymbol   = "✗"
	infoSymbol    = "→"

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00AF5F", Dark: "#00D787"})
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D78700", Dark: "#FFAF00"})
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5FAFFF", Dark: "#5FAFFF"})
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

// Globals defines flags available to all commands.
type Globals struct {
	File     string `help:"Dataset JSON file." short:"f" type:"path" default:"data/business.json" env:"DATASET_FILE"`
	Dataset  string `help:"Dataset id." default:"business" env:"DATASET_ID"`
	Format   string `help:"Output format." enum:"table,json,csv" default:"table"`
	Locale   string `help:"Locale used to format money." default:"en-US" env:"LOCALE"`
	Currency string `help:"Business currency code." default:"USD" env:"BASE_CURRENCY"`
	Symbol   string `help:"Currency symbol used when the code is not ISO 4217." default:"$" env:"CURRENCY_SYMBOL"`
}

type Commands struct {
	Globals

	Version kong.VersionFlag `help:"Show version information."`

	Serve     ServeCmd     `cmd:"" default:"1" help:"Run the HTTP API (default)."`
	Stock     StockCmd     `cmd:"" help:"Print the FIFO stock valuation."`
	Profit    ProfitCmd    `cmd:"" help:"Print the profit breakdown of a sale."`
	Status    StatusCmd    `cmd:"" help:"Print the payment status of an invoice, or every outstanding invoice."`
	Reconcile ReconcileCmd `cmd:"" help:"Recompute paidAmount for invoices whose payments changed."`
}

// New builds the kong parser for cmds. ctx is bound for commands that block.
func New(ctx context.Context, cmds *Commands, options ...kong.Option) (*kong.Kong, error) {
	opts := []kong.Option{
		kong.Name("lotledger"),
		kong.Description("FIFO inventory costing and payment reconciliation."),
		kong.UsageOnError(),
		kong.Vars{"version": BuildVersion()},
		kong.Bind(&cmds.Globals),
		kong.BindTo(ctx, (*context.Context)(nil)),
	}
	return kong.New(cmds, append(opts, options...)...)
}

// BuildVersion renders the version injected at link time.
func BuildVersion() string {
	v := Version
	if v == "" {
		v = "dev"
	}
	if CommitSHA == "" {
		return v
	}
	return fmt.Sprintf("%s (%s)", v, CommitSHA)
}

func (g *Globals) formatter() money.Formatter {
	return money.NewFormatter(g.Locale, g.Currency, g.Symbol)
}

// services opens the dataset file without cache or lock.
func (g *Globals) services(stderr io.Writer) (*inventory.Service, *payments.Service) {
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	store := docstore.NewSingleFileStore(g.File)
	inv := inventory.NewService(store, nil, inventory.ServiceConfig{DatasetID: g.Dataset}, logger)
	pay := payments.NewService(store, nil, nil, payments.ServiceConfig{DatasetID: g.Dataset}, logger)
	return inv, pay
}

func (g *Globals) describe(err error) error {
	return fmt.Errorf("%s: %w", g.File, err)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderStatus(status string) string {
	switch status {
	case string(costing.StatusInStock), string(reconcile.StatusPaid):
		return successStyle.Render(status)
	case string(costing.StatusLowStock), string(reconcile.StatusPartial):
		return warnStyle.Render(status)
	case string(costing.StatusOutOfStock), string(reconcile.StatusCredit):
		return errorStyle.Render(status)
	}
	return status
}

func printSuccess(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", successStyle.Render(successSymbol), message)
}

func printError(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", errorStyle.Render(errorSymbol), errorStyle.Render(message))
}

func printInfof(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, "%s %s\n", infoStyle.Render(infoSymbol), fmt.Sprintf(format, args...))
}
