package main

import (
	"fmt"

	"portfolio_go/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var tradeCmd = &cobra.Command{
	Use:   "trade <SYMBOL> <buy|sell> <SHARES> <PRICE>",
	Short: "Settle one trade against the configured store",
	Example: `  app trade AAPL buy 10 150.25
  app trade AAPL sell 5 160`,
	Args: cobra.ExactArgs(4),
	RunE: runTrade,
}

func init() {
	rootCmd.AddCommand(tradeCmd)
}

func runTrade(cmd *cobra.Command, args []string) error {
	shares, err := decimal.NewFromString(args[2])
	if err != nil {
		return fmt.Errorf("%w: shares %q is not a number", domain.ErrInvalidTrade, args[2])
	}
	price, err := decimal.NewFromString(args[3])
	if err != nil {
		return fmt.Errorf("%w: price %q is not a number", domain.ErrInvalidTrade, args[3])
	}

	b, err := bootstrap(true)
	if err != nil {
		return err
	}
	defer b.Close()

	h, err := b.Settlement.Settle(cmd.Context(), domain.TradeRequest{
		Symbol: args[0],
		Side:   domain.Side(args[1]),
		Shares: shares,
		Price:  price,
	})
	if err != nil {
		return err
	}

	if h == nil {
		fmt.Println("position closed")
		return nil
	}
	fmt.Printf("%s: %s shares @ avg %s\n", h.Symbol, h.Shares.String(), h.AvgCost.StringFixed(4))
	return nil
}
