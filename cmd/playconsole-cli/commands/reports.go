package commands

import (
	"fmt"
	"os"
	"playconsole-backend/cmd/playconsole-cli/globals"
	"playconsole-backend/cmd/playconsole-cli/utils"
	"playconsole-backend/internal/scrapers/console"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func parseYearMonth(args []string) (int, int, error) {
	year, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year %q: %w", args[0], err)
	}
	month, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q: %w", args[1], err)
	}
	return year, month, nil
}

func parseRange(start, end string) (time.Time, time.Time, error) {
	startDay, err := utils.ParseDay(start, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start: %w", err)
	}
	endDay, err := utils.ParseDay(end, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end: %w", err)
	}
	return startDay, endDay, nil
}

var salesAccount *string

var salesCmd = &cobra.Command{
	Use:   "sales <year> <month>",
	Short: "Print the payout report of a month.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, month, err := parseYearMonth(args)
		if err != nil {
			return err
		}
		ctx, cancel := operationContext(cmd)
		defer cancel()

		client := globals.Get(ctx).Client
		text, err := client.GetSalesReport(ctx, year, month, *salesAccount)
		if err != nil {
			return err
		}
		return utils.PrintCSV(console.KindOf(console.SalesReport{}), text, *format)
	},
}

var estimatedAccount *string

var estimatedCmd = &cobra.Command{
	Use:   "estimated-sales <year> <month>",
	Short: "Print the estimated sales report of a month.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, month, err := parseYearMonth(args)
		if err != nil {
			return err
		}
		ctx, cancel := operationContext(cmd)
		defer cancel()

		client := globals.Get(ctx).Client
		text, err := client.GetEstimatedSalesReport(ctx, year, month, *estimatedAccount)
		if err != nil {
			return err
		}
		return utils.PrintCSV(console.KindOf(console.EstimatedSalesReport{}), text, *format)
	},
}

var (
	ordersStart    *string
	ordersEnd      *string
	ordersState    *string
	ordersExpanded *bool
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Print the orders placed in a date range.",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := parseRange(*ordersStart, *ordersEnd)
		if err != nil {
			return err
		}
		state, err := console.ParseFinancialState(*ordersState)
		if err != nil {
			return err
		}
		ctx, cancel := operationContext(cmd)
		defer cancel()

		client := globals.Get(ctx).Client
		text, err := client.GetOrderList(ctx, console.OrderListQuery{
			Start:    start,
			End:      end,
			State:    state,
			Expanded: *ordersExpanded,
		})
		if err != nil {
			return err
		}
		if text == "" {
			fmt.Fprintln(os.Stderr, "the order list is not available for this account")
			return nil
		}
		return utils.PrintCSV(console.KindOf(console.OrderList{}), text, *format)
	},
}

var (
	payoutsStart *string
	payoutsEnd   *string
	payoutsType  *string
)

var payoutsCmd = &cobra.Command{
	Use:   "payouts",
	Short: "Print the payouts made in a date range.",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := parseRange(*payoutsStart, *payoutsEnd)
		if err != nil {
			return err
		}
		ctx, cancel := operationContext(cmd)
		defer cancel()

		client := globals.Get(ctx).Client
		text, err := client.GetPayouts(ctx, start, end, console.PayoutReportType(*payoutsType))
		if err != nil {
			return err
		}
		return utils.PrintCSV(console.KindOf(console.Payouts{}), text, *format)
	},
}

var orderDetailCmd = &cobra.Command{
	Use:   "order-detail <order id>",
	Short: "Print the details of a single order.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := operationContext(cmd)
		defer cancel()

		client := globals.Get(ctx).Client
		text, err := client.GetOrderDetail(ctx, args[0])
		if err != nil {
			return err
		}
		return utils.PrintCSV(console.KindOf(console.OrderDetail{}), text, *format)
	},
}

var (
	statsStart *string
	statsEnd   *string
	statsOut   *string
)

var appStatsCmd = &cobra.Command{
	Use:   "appstats <package>",
	Short: "Download the statistics archive of an application.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := parseRange(*statsStart, *statsEnd)
		if err != nil {
			return err
		}
		ctx, cancel := operationContext(cmd)
		defer cancel()

		client := globals.Get(ctx).Client
		archive, err := client.GetAppStats(ctx, args[0], start, end)
		if err != nil {
			return err
		}

		out := *statsOut
		if out == "" {
			out = args[0] + ".zip"
		}
		err = os.WriteFile(out, archive, 0644)
		if err != nil {
			return err
		}
		fmt.Printf("wrote %d bytes to %s\n", len(archive), out)
		return nil
	},
}

var walletOrdersCmd = &cobra.Command{
	Use:   "wallet-orders",
	Short: "Print the orders listed in the merchant wallet.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := operationContext(cmd)
		defer cancel()

		client := globals.Get(ctx).Client
		records, err := client.GetWalletOrders(ctx)
		if err != nil {
			return err
		}
		return utils.PrintRecords(records, *format)
	},
}

func init() {
	salesAccount = salesCmd.Flags().String("account", "", "Developer account id, resolved from the console when empty.")
	estimatedAccount = estimatedCmd.Flags().String("account", "", "Developer account id, resolved from the console when empty.")

	ordersStart = ordersCmd.Flags().String("start", "", "First day of the range (YYYY-MM-DD).")
	ordersEnd = ordersCmd.Flags().String("end", "", "Last day of the range (YYYY-MM-DD).")
	ordersState = ordersCmd.Flags().String("state", string(console.FINANCIAL_STATE_ALL), "Financial state of the orders.")
	ordersExpanded = ordersCmd.Flags().Bool("expanded", false, "Include the per item columns.")
	ordersCmd.MarkFlagRequired("start")
	ordersCmd.MarkFlagRequired("end")

	payoutsStart = payoutsCmd.Flags().String("start", "", "First day of the range (YYYY-MM-DD).")
	payoutsEnd = payoutsCmd.Flags().String("end", "", "Last day of the range (YYYY-MM-DD).")
	payoutsType = payoutsCmd.Flags().String("type", string(console.PAYOUT_REPORT), "PAYOUT_REPORT or TRANSACTION_DETAIL_REPORT.")
	payoutsCmd.MarkFlagRequired("start")
	payoutsCmd.MarkFlagRequired("end")

	statsStart = appStatsCmd.Flags().String("start", "", "First day of the range (YYYY-MM-DD).")
	statsEnd = appStatsCmd.Flags().String("end", "", "Last day of the range (YYYY-MM-DD).")
	statsOut = appStatsCmd.Flags().StringP("out", "o", "", "File the archive is written to, defaults to <package>.zip.")
	appStatsCmd.MarkFlagRequired("start")
	appStatsCmd.MarkFlagRequired("end")

	rootCmd.AddCommand(salesCmd)
	rootCmd.AddCommand(estimatedCmd)
	rootCmd.AddCommand(ordersCmd)
	rootCmd.AddCommand(payoutsCmd)
	rootCmd.AddCommand(orderDetailCmd)
	rootCmd.AddCommand(appStatsCmd)
	rootCmd.AddCommand(walletOrdersCmd)
}
