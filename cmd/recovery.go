package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/rti-filing/internal/core/common/pagination"
	"github.com/frahmantamala/rti-filing/internal/recovery"
)

var (
	recoveryStatus        string
	recoveryLimit         int
	recoveryApplicationID int64
	recoveryNote          string
)

var recoveryCmd = &cobra.Command{
	Use:   "recovery",
	Short: "Inspect and resolve payments that have no application",
	Long: `Payment recoveries are verified payments whose application could not be stored.
Operators list them, then either reconcile them into an application or mark them failed.`,
}

var recoveryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List payment recoveries, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := operatorApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		recs, total, err := app.Recoveries.List(cmd.Context(), recovery.Filter{Status: recoveryStatus}, pagination.New(1, recoveryLimit))
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tPAYMENT\tORDER\tEMAIL\tAPPLICATION\tCREATED")
		for _, r := range recs {
			appID := "-"
			if r.ApplicationID != nil {
				appID = strconv.FormatInt(*r.ApplicationID, 10)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.Status, r.PaymentID, r.OrderID, r.Email, appID, r.CreatedAt.Format("2006-01-02 15:04"))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("%d of %d shown\n", len(recs), total)
		return nil
	},
}

var recoveryResolveCmd = &cobra.Command{
	Use:   "resolve <id>",
	Short: "Create the application from the stored submission, or link an existing one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRecoveryID(args[0])
		if err != nil {
			return err
		}

		app, err := operatorApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if recoveryApplicationID > 0 {
			rec, err := app.Recoveries.MarkProcessed(cmd.Context(), id, recovery.ProcessDTO{
				ApplicationID: recoveryApplicationID,
				Note:          recoveryNote,
			})
			if err != nil {
				return err
			}
			fmt.Printf("recovery %d processed, linked to application %d\n", rec.ID, *rec.ApplicationID)
			return nil
		}

		res, err := app.Recoveries.Reconcile(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Printf("recovery %d %s, application %d\n", res.RecoveryID, res.Status, res.ApplicationID)
		return nil
	},
}

var recoveryFailCmd = &cobra.Command{
	Use:   "fail <id>",
	Short: "Mark a recovery as failed, e.g. after refunding the payment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRecoveryID(args[0])
		if err != nil {
			return err
		}

		app, err := operatorApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		rec, err := app.Recoveries.MarkFailed(cmd.Context(), id, recovery.FailDTO{Note: recoveryNote})
		if err != nil {
			return err
		}
		fmt.Printf("recovery %d marked %s\n", rec.ID, rec.Status)
		return nil
	},
}

func operatorApp(cmd *cobra.Command) (*App, error) {
	cfg, log, err := setup()
	if err != nil {
		return nil, err
	}
	return newApp(cmd.Context(), cfg, log)
}

func parseRecoveryID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid recovery id %q", raw)
	}
	return id, nil
}

func init() {
	recoveryListCmd.Flags().StringVar(&recoveryStatus, "status", recovery.StatusPending, "filter by status (pending, processed, failed; empty for all)")
	recoveryListCmd.Flags().IntVar(&recoveryLimit, "limit", pagination.DefaultLimit, "maximum rows to show")
	recoveryResolveCmd.Flags().Int64Var(&recoveryApplicationID, "application-id", 0, "link an application created by hand instead of reconciling")
	recoveryResolveCmd.Flags().StringVar(&recoveryNote, "note", "", "resolution note")
	recoveryFailCmd.Flags().StringVar(&recoveryNote, "note", "", "why the recovery failed")

	recoveryCmd.AddCommand(recoveryListCmd, recoveryResolveCmd, recoveryFailCmd)
}
