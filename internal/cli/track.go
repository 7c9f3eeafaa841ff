package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tekfaso/urgelec/internal/store"
	"github.com/tekfaso/urgelec/internal/track"
)

// TrackCmd returns the track command: open the tracking engine on one
// intervention and drive it interactively until quit.
func TrackCmd(app *App) *cobra.Command {
	var phoneFlag string

	cmd := &cobra.Command{
		Use:   "track <intervention-id>",
		Short: "Follow an intervention until resolution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]

			st, err := app.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			phone, err := app.resolvePhone(ctx, st, phoneFlag)
			if err != nil {
				return err
			}
			if phone == "" {
				return errors.New("no reporter phone known; pass --phone or submit a report first")
			}

			gw, err := app.client(ctx, st)
			if err != nil {
				return err
			}
			rated, err := st.HasRated(ctx, id)
			if err != nil {
				return err
			}

			renderer := newRenderer(app.Config.SupportPhone)
			eng, err := track.New(gw, id, phone, track.Options{
				Interval:     app.Config.PollInterval,
				Logger:       app.Logger,
				OnUpdate:     renderer.render,
				AlreadyRated: rated,
			})
			if err != nil {
				return err
			}

			if err := eng.Start(ctx); err != nil {
				fmt.Println(red("Unable to load this intervention. Check the id and phone, then try again."))
				return err
			}
			defer eng.Stop()

			runTrackLoop(ctx, app, st, eng, renderer, id)
			return nil
		},
	}

	cmd.Flags().StringVar(&phoneFlag, "phone", "", "reporter phone (defaults to the stored one)")
	return cmd
}

// runTrackLoop reads decision, rating, and refresh commands from stdin
// while the engine keeps polling in the background.
func runTrackLoop(ctx context.Context, app *App, st *store.Store, eng *track.Engine, renderer *renderer, id string) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			renderer.render(eng.Snapshot())
			continue
		}

		switch fields[0] {
		case "q", "quit":
			return

		case "r", "refresh":
			if err := eng.Refresh(ctx); err != nil {
				app.Logger.Debug().Err(err).Msg("manual refresh failed")
			}

		case "accept", "reject":
			if len(fields) < 2 {
				fmt.Println(yellow("usage: accept <quote-id> | reject <quote-id> [reason]"))
				continue
			}
			accept := fields[0] == "accept"
			reason := joinRest(fields, 2)
			switch err := eng.Decide(ctx, fields[1], accept, reason); {
			case err == nil && accept:
				fmt.Println(green("Quote accepted."))
			case err == nil:
				fmt.Println(green("Quote rejected."))
			case errors.Is(err, track.ErrDecisionInFlight):
				fmt.Println(yellow("A decision is still being processed, hold on."))
			default:
				fmt.Println(red("Could not record the decision: " + err.Error()))
			}

		case "rate":
			if len(fields) < 2 {
				fmt.Println(yellow("usage: rate <1-5> [comment]"))
				continue
			}
			rating, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Println(yellow("usage: rate <1-5> [comment]"))
				continue
			}
			switch err := eng.SubmitRating(ctx, rating, joinRest(fields, 2)); {
			case err == nil:
				fmt.Println(green("Thanks for your feedback."))
				if markErr := st.MarkRated(ctx, id); markErr != nil {
					app.Logger.Warn().Err(markErr).Msg("failed to persist rating record")
				}
			case errors.Is(err, track.ErrRatingRequired):
				fmt.Println(yellow("Pick a rating between 1 and 5 first."))
			case errors.Is(err, track.ErrAlreadyRated):
				fmt.Println(yellow("This intervention is already rated."))
			default:
				fmt.Println(red("Could not send your rating, try again: " + err.Error()))
			}

		case "later":
			eng.DismissRating()
			fmt.Println(faint("You can rate the intervention next time."))

		default:
			fmt.Println(yellow("unknown command: " + fields[0]))
		}
	}
}
