package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"portfolio_go/internal/service"

	"github.com/spf13/cobra"
)

var holdingsCmd = &cobra.Command{
	Use:   "holdings",
	Short: "List current holdings",
	Args:  cobra.NoArgs,
	RunE:  runHoldings,
}

func init() {
	rootCmd.AddCommand(holdingsCmd)
}

func runHoldings(cmd *cobra.Command, args []string) error {
	b, err := bootstrap(true)
	if err != nil {
		return err
	}
	defer b.Close()

	holdings, err := b.Settlement.Holdings(cmd.Context())
	if err != nil {
		return fmt.Errorf("list holdings: %w", err)
	}
	if len(holdings) == 0 {
		fmt.Println("no holdings")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tSHARES\tAVG COST\tCOST BASIS")
	for _, h := range holdings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", h.Symbol, h.Shares.String(), h.AvgCost.StringFixed(4), service.FormatMoney(h.CostBasis()))
	}
	return tw.Flush()
}
