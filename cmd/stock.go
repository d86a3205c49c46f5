package cmd

import (
	"fmt"
	"strconv"
	"strings"

	appinventory "ecommerce/application/inventory"
	"ecommerce/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Stock ledger maintenance",
}

var (
	initProductID string
	initQuantity  int

	importInvoiceID string
	importLines     []string
)

var stockInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Open the stock row of a product",
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, err := ledgerFromConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		stock, err := ledger.CreateInitial(cmd.Context(), initProductID, initQuantity)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stock %s opened for %s with %d units\n", stock.ID(), stock.ProductID(), stock.Quantity())
		return nil
	},
}

var stockImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Book a purchase invoice into the ledger",
	Example: `  ecommerce stock import --invoice INV-2024-001 --line p-keyboard=20 --line p-mouse=50`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lines, err := parseImportLines(importLines)
		if err != nil {
			return err
		}
		ledger, err := ledgerFromConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		logs, err := ledger.ImportInvoice(cmd.Context(), importInvoiceID, lines)
		if err != nil {
			return err
		}
		for _, l := range logs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %+d\n", l.ProductID(), l.Change())
		}
		return nil
	},
}

func init() {
	stockInitCmd.Flags().StringVar(&initProductID, "product", "", "product id")
	stockInitCmd.Flags().IntVar(&initQuantity, "quantity", 0, "opening quantity")
	_ = stockInitCmd.MarkFlagRequired("product")

	stockImportCmd.Flags().StringVar(&importInvoiceID, "invoice", "", "invoice id")
	stockImportCmd.Flags().StringArrayVar(&importLines, "line", nil, "invoice line as product=quantity (repeatable)")
	_ = stockImportCmd.MarkFlagRequired("invoice")
	_ = stockImportCmd.MarkFlagRequired("line")

	stockCmd.AddCommand(stockInitCmd, stockImportCmd)
	rootCmd.AddCommand(stockCmd)
}

func ledgerFromConfig() (*appinventory.Ledger, error) {
	cfg, err := bootstrap()
	if err != nil {
		return nil, err
	}
	if cfg.Database.Type != "mysql" {
		logger.Warn("Stock commands against the in-memory store have no lasting effect",
			zap.String("database_type", cfg.Database.Type))
	}
	builder := NewBuilder(cfg)
	infra, err := builder.Infra()
	if err != nil {
		return nil, err
	}
	return builder.Ledger(infra), nil
}

func parseImportLines(raw []string) ([]appinventory.ImportLine, error) {
	lines := make([]appinventory.ImportLine, 0, len(raw))
	for _, r := range raw {
		productID, qty, ok := strings.Cut(r, "=")
		if !ok || strings.TrimSpace(productID) == "" {
			return nil, fmt.Errorf("invalid line %q, want product=quantity", r)
		}
		n, err := strconv.Atoi(strings.TrimSpace(qty))
		if err != nil {
			return nil, fmt.Errorf("invalid quantity in line %q: %w", r, err)
		}
		lines = append(lines, appinventory.ImportLine{ProductID: strings.TrimSpace(productID), Quantity: n})
	}
	return lines, nil
}
