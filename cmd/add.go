package cmd

import (
	"fmt"
	"strings"

	"inventoryKeeper/internal/catalog"
	"inventoryKeeper/internal/pricing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	addPrice string
	addImage string
)

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a product to the catalog",
	Long: `Add a product with a USD price and an optional photo reference.
The photo may be a local file path or an http(s) URL. An unreadable
price is stored as 0.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addPrice, "price", "p", "0", "Price in USD")
	addCmd.Flags().StringVarP(&addImage, "image", "i", "", "Photo path or URL")
}

func runAdd(cmd *cobra.Command, args []string) error {
	name := strings.Join(args, " ")
	price, ok := catalog.ParsePrice(addPrice)
	if !ok {
		logger.Warn("price not usable, storing 0", zap.String("price", addPrice))
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Create(cmd.Context(), name, price, strings.TrimSpace(addImage))
	if err != nil {
		return fmt.Errorf("failed to add product: %w", err)
	}

	fmt.Printf("Added #%d %s (%s)\n", id, strings.TrimSpace(name), pricing.FormatPrice(price))
	return nil
}
