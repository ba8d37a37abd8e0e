package cmd

import (
	"fmt"
	"strings"

	"inventoryKeeper/internal/assets"
	"inventoryKeeper/internal/pricing"

	"github.com/spf13/cobra"
)

var (
	listQty  string
	listRate string
)

var listCmd = &cobra.Command{
	Use:   "list [filter]",
	Short: "List catalog products",
	Long: `List products in id order. The optional filter matches a substring of
the name, ignoring case. With --qty every line also shows the total in USD
and in local currency at --rate (defaults to pricing.exchange_rate).`,
	Args: cobra.ArbitraryArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listQty, "qty", "q", "", "Quantity used to compute line totals")
	listCmd.Flags().StringVarP(&listRate, "rate", "r", "", "Exchange rate, local units per USD")
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	products, err := store.List(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}
	if len(products) == 0 {
		fmt.Println("No products found")
		return nil
	}

	rate := listRate
	if rate == "" {
		rate = cfg.Pricing.ExchangeRate
	}

	for _, p := range products {
		photo := ""
		if assets.Classify(p.ImageRef) == assets.Empty {
			photo = "  [no photo]"
		}
		fmt.Printf("%5d  %-32s %s%s\n", p.ID, p.Name, pricing.FormatPrice(p.Price), photo)

		if listQty != "" {
			totals := pricing.ComputeTotals(listQty, p.Price, rate)
			if totals.Active() {
				fmt.Printf("       x%s  %s\n", totals.Quantity.String(), pricing.Format(totals, cfg.Pricing.LocalLabel))
			}
		}
	}
	return nil
}
