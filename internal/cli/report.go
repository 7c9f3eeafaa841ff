package cli

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/tekfaso/urgelec/internal/models"
)

type reportInput struct {
	ProblemTypeID string `validate:"required"`
	Title         string `validate:"required"`
	Description   string `validate:"required"`
	Address       string `validate:"required"`
	Phone         string `validate:"required,min=8"`
	FirstName     string
	LastName      string
	Priority      int `validate:"gte=0,lte=3"`
}

// ReportCmd returns the report command: capture an incident report on
// the terminal and submit it.
func ReportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Report an electrical emergency",
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

			reader := stdinReader()
			fmt.Println(bold("Report an electrical emergency"))

			types, err := gw.ListProblemTypes(ctx)
			if err != nil {
				app.Logger.Warn().Err(err).Msg("problem-type catalog unavailable")
			}
			for _, t := range types {
				fmt.Printf("  [%s] %s\n", t.ID, t.Name)
			}

			in := reportInput{
				ProblemTypeID: prompt(reader, "Problem type id"),
				Title:         prompt(reader, "Title"),
				Description:   prompt(reader, "Description"),
				Address:       prompt(reader, "Address"),
				Phone:         prompt(reader, "Your phone"),
				FirstName:     prompt(reader, "First name"),
				LastName:      prompt(reader, "Last name"),
			}
			if raw := prompt(reader, "Priority 0-3 (default 1)"); raw != "" {
				in.Priority, _ = strconv.Atoi(raw)
			} else {
				in.Priority = 1
			}

			if err := validator.New().Struct(in); err != nil {
				return fmt.Errorf("report incomplete: %w", err)
			}

			id, err := gw.CreateIntervention(ctx, models.InterventionDraft{
				ProblemTypeID:   in.ProblemTypeID,
				Title:           in.Title,
				Description:     in.Description,
				Address:         in.Address,
				PriorityLevel:   in.Priority,
				ClientPhone:     in.Phone,
				ClientFirstName: in.FirstName,
				ClientLastName:  in.LastName,
			})
			if err != nil {
				return fmt.Errorf("submission failed: %w", err)
			}

			if err := st.SaveReporter(ctx, in.Phone, in.FirstName+" "+in.LastName); err != nil {
				app.Logger.Warn().Err(err).Msg("failed to persist reporter identity")
			}

			fmt.Println(green("Report received."))
			fmt.Printf("Follow it with: urgelec track %s\n", id)
			return nil
		},
	}
}
