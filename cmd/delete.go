package cmd

import (
	"fmt"

	"inventoryKeeper/internal/catalog"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a product by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := cast.ToInt64E(args[0])
	if err != nil {
		return fmt.Errorf("%w: invalid id %q", catalog.ErrValidation, args[0])
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}

	fmt.Printf("Deleted #%d\n", id)
	return nil
}
