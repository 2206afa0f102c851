package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"orderconsole/internal/console"
	"orderconsole/internal/fieldstore"
)

var actionHelp = map[console.Action]string{
	console.ActionCreate:        "Create an order from --customer and --date",
	console.ActionUpdate:        "Update order --id with --customer and --date",
	console.ActionRetrieve:      "Load order --id into the form",
	console.ActionDelete:        "Delete order --id",
	console.ActionSearch:        "List orders by --customer, else --date, else all",
	console.ActionRetrieveItems: "List the items of order --id",
	console.ActionClear:         "Empty the form and the status banner",
}

type formFlags struct {
	id       string
	customer string
	date     string
}

func (f formFlags) apply(s fieldstore.Store) {
	s.Set(fieldstore.OrderID, f.id)
	s.Set(fieldstore.OrderCustomer, f.customer)
	s.Set(fieldstore.OrderDate, f.date)
}

func newActionCmd(opts *options, action console.Action) *cobra.Command {
	var form formFlags

	use := string(action)
	var aliases []string
	if action == console.ActionRetrieveItems {
		use, aliases = "items", []string{string(console.ActionRetrieveItems)}
	}

	cmd := &cobra.Command{
		Use:     use,
		Aliases: aliases,
		Short:   actionHelp[action],
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			ctx := cmd.Context()
			if err := s.dispatcher.Update(ctx, form.apply); err != nil {
				return err
			}
			outcome, err := s.dispatcher.Do(ctx, action)
			if err != nil {
				return fmt.Errorf("%s: %w", action, err)
			}
			if outcome.Err != nil {
				s.logger.WithError(outcome.Err).WithField("action", action).Debug("action finished with error")
			}
			return s.store.Render(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&form.id, "id", "", "order id (order_id field)")
	cmd.Flags().StringVar(&form.customer, "customer", "", "customer id (order_customer field)")
	cmd.Flags().StringVar(&form.date, "date", "", "order date, YYYY-MM-DD (order_date field)")
	return cmd
}
