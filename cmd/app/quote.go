package main

import (
	"fmt"

	"portfolio_go/internal/domain"

	"github.com/spf13/cobra"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <SYMBOL>",
	Short: "Fetch a live quote from the provider",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) error {
	sym, err := domain.NormalizeSymbol(args[0])
	if err != nil {
		return err
	}

	b, err := bootstrap(true)
	if err != nil {
		return err
	}
	defer b.Close()

	q, err := b.Provider.FetchQuote(cmd.Context(), sym)
	if err != nil {
		return err
	}

	arrow := map[string]string{"positive": "▲", "negative": "▼"}[q.ChangeDirection()]
	if arrow == "" {
		arrow = "="
	}
	fmt.Printf("%s  %s  %s %s (%s%%)\n", q.Symbol, q.Current.StringFixed(2), arrow, q.Change.StringFixed(2), q.ChangePct.StringFixed(2))
	fmt.Printf("open %s  high %s  low %s  prev close %s\n",
		q.Open.StringFixed(2), q.High.StringFixed(2), q.Low.StringFixed(2), q.PrevClose.StringFixed(2))
	return nil
}
