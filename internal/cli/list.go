package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tekfaso/urgelec/internal/models"
)

// ListCmd returns the list command: all interventions for the reporter
// (or the authenticated session), filtered by status client-side.
func ListCmd(app *App) *cobra.Command {
	var (
		phoneFlag  string
		statusFlag string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your interventions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := app.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			gw, err := app.client(ctx, st)
			if err != nil {
				return err
			}
			phone, err := app.resolvePhone(ctx, st, phoneFlag)
			if err != nil {
				return err
			}
			if phone == "" && gw.Token == "" {
				return errors.New("no reporter phone known and no session; pass --phone or log in")
			}

			interventions, err := gw.ListInterventions(ctx, phone)
			if err != nil {
				return fmt.Errorf("listing failed: %w", err)
			}

			wantStatus := models.NormalizeStatus(statusFlag)
			shown := 0
			for _, in := range interventions {
				if statusFlag != "" && in.Status != wantStatus {
					continue
				}
				shown++
				marker := blue("●")
				if models.Terminal(in.Status) {
					marker = green("●")
				}
				fmt.Printf("%s %s  %-12s %s\n", marker, in.DisplayRef(), in.Status, in.Title)
			}
			if shown == 0 {
				fmt.Println(faint("no interventions to show"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&phoneFlag, "phone", "", "reporter phone (defaults to the stored one)")
	cmd.Flags().StringVar(&statusFlag, "status", "", "only show interventions with this status")
	return cmd
}
