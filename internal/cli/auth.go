package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tekfaso/urgelec/internal/store"
)

// LoginCmd returns the login command for manager/agent sessions.
func LoginCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Open an authenticated session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := app.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			gw, err := app.client(ctx, nil)
			if err != nil {
				return err
			}

			reader := stdinReader()
			phone := prompt(reader, "Phone")
			password := prompt(reader, "Password")

			token, err := gw.Login(ctx, phone, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if err := st.Set(ctx, store.KeyAccessToken, token); err != nil {
				return err
			}
			fmt.Println(green("Session opened."))
			return nil
		},
	}
}

// LogoutCmd returns the logout command.
func LogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Close the authenticated session",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Delete(cmd.Context(), store.KeyAccessToken); err != nil {
				return err
			}
			fmt.Println(faint("Session closed."))
			return nil
		},
	}
}
