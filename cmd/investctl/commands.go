package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"investpulse/internal/client"
	"investpulse/internal/models"
)

type draftFlags struct {
	securityID int64
	quantity   int64
	price      string
	commission string
	target     string
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.securityID, "security-id", 0, "security id")
	cmd.Flags().Int64Var(&f.quantity, "quantity", 0, "number of shares")
	cmd.Flags().StringVar(&f.price, "price", "", "purchase price per share")
	cmd.Flags().StringVar(&f.commission, "commission", "0", "commission paid")
	cmd.Flags().StringVar(&f.target, "target", "", "target buy price, empty for no trigger")
	_ = cmd.MarkFlagRequired("security-id")
	_ = cmd.MarkFlagRequired("quantity")
	_ = cmd.MarkFlagRequired("price")
}

func (f *draftFlags) draft() (models.OperationDraft, error) {
	price, err := decimal.NewFromString(f.price)
	if err != nil {
		return models.OperationDraft{}, fmt.Errorf("--price: %w", err)
	}
	commission, err := decimal.NewFromString(f.commission)
	if err != nil {
		return models.OperationDraft{}, fmt.Errorf("--commission: %w", err)
	}
	d := models.OperationDraft{
		SecurityID:            f.securityID,
		Quantity:              f.quantity,
		PurchasePricePerShare: price,
		Commission:            commission,
	}
	if f.target != "" {
		target, err := decimal.NewFromString(f.target)
		if err != nil {
			return models.OperationDraft{}, fmt.Errorf("--target: %w", err)
		}
		d.TargetBuyPrice = decimal.NewNullDecimal(target)
	}
	return d, nil
}

func newRootCmd(out io.Writer) *cobra.Command {
	var server string
	api := func() *client.Client { return client.New(server) }

	root := &cobra.Command{
		Use:           "investctl",
		Short:         "Record purchase operations and inspect buy triggers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&server, "server", "http://localhost:8080", "investment service base URL")

	root.AddCommand(&cobra.Command{
		Use:   "securities",
		Short: "List tradable securities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			securities, err := api().Securities(cmd.Context())
			if err != nil {
				return err
			}
			table := newTable(out, "ID", "Ticker", "Name", "Price")
			for _, s := range securities {
				table.Append([]string{strconv.FormatInt(s.ID, 10), s.Ticker, s.Name, s.CurrentPrice.StringFixed(2)})
			}
			table.Render()
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "operations",
		Short: "List recorded operations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ops, err := api().Operations(cmd.Context())
			if err != nil {
				return err
			}
			table := newTable(out, "ID", "Ticker", "Qty", "Price", "Commission", "Total", "Target")
			for _, op := range ops {
				table.Append([]string{
					strconv.FormatInt(op.ID, 10),
					deref(op.SecurityTicker),
					strconv.FormatInt(op.Quantity, 10),
					op.PurchasePricePerShare.StringFixed(2),
					op.Commission.StringFixed(2),
					op.TotalCost.StringFixed(2),
					targetString(op.TargetBuyPrice),
				})
			}
			table.Render()
			return nil
		},
	})

	var calcFlags draftFlags
	calcCmd := &cobra.Command{
		Use:   "calculate",
		Short: "Price an operation without recording it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := calcFlags.draft()
			if err != nil {
				return err
			}
			res, err := api().Calculate(cmd.Context(), d)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Total cost: %s\n%s\n", res.TotalCost.StringFixed(2), res.TriggerMessage)
			return nil
		},
	}
	calcFlags.register(calcCmd)
	root.AddCommand(calcCmd)

	var addFlags draftFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record an operation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := addFlags.draft()
			if err != nil {
				return err
			}
			res, err := api().AddOperation(cmd.Context(), d)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "#%d %s\n", res.Operation.ID, res.Message)
			return nil
		},
	}
	addFlags.register(addCmd)
	root.AddCommand(addCmd)

	root.AddCommand(&cobra.Command{
		Use:   "set-price <security-id|ticker> <price>",
		Short: "Set the current price of a security",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("price: %w", err)
			}
			sec, err := api().SetPrice(cmd.Context(), args[0], price)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s now %s\n", sec.Ticker, sec.CurrentPrice.StringFixed(2))
			return nil
		},
	})

	var pending bool
	triggersCmd := &cobra.Command{
		Use:   "triggers",
		Short: "Show activated triggers, or pending ones with --pending",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				alerts []models.TriggerAlert
				err    error
			)
			if pending {
				alerts, err = api().PendingTriggers(cmd.Context())
			} else {
				alerts, err = api().ActivatedTriggers(cmd.Context())
			}
			if err != nil {
				return err
			}
			table := newTable(out, "Op", "Ticker", "Current", "Target", "Message")
			for _, a := range alerts {
				table.Append([]string{
					strconv.FormatInt(a.OperationID, 10),
					a.SecurityTicker,
					a.CurrentPrice.StringFixed(2),
					a.TargetPrice.StringFixed(2),
					a.Message,
				})
			}
			table.Render()
			return nil
		},
	}
	triggersCmd.Flags().BoolVar(&pending, "pending", false, "list triggers still waiting for the price to fall")
	root.AddCommand(triggersCmd)

	return root
}

func newTable(out io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	return table
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func targetString(t decimal.NullDecimal) string {
	if !t.Valid {
		return "-"
	}
	return t.Decimal.StringFixed(2)
}
