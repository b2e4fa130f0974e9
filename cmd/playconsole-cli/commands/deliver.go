package commands

import (
	"fmt"
	"playconsole-backend/cmd/playconsole-cli/globals"
	"playconsole-backend/internal/scrapers/console"

	"github.com/spf13/cobra"
)

var (
	deliverArchive *bool
	deliverMax     *int
)

var deliverCmd = &cobra.Command{
	Use:   "deliver",
	Short: "Mark every pending order as delivered.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := operationContext(cmd)
		defer cancel()

		client := globals.Get(ctx).Client
		performed, err := client.AutoDeliverPendingOrders(ctx, *deliverArchive, console.DrainOptions{
			MaxIterations: *deliverMax,
		})
		fmt.Printf("delivered %d orders\n", performed)
		return err
	},
}

func init() {
	deliverArchive = deliverCmd.Flags().Bool("archive", false, "Archive orders that were already delivered.")
	deliverMax = deliverCmd.Flags().Int("max", 1000, "Give up after this many actions.")
	rootCmd.AddCommand(deliverCmd)
}
