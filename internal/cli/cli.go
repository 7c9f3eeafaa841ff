// Package cli contains the urgelec subcommands.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tekfaso/urgelec/internal/config"
	"github.com/tekfaso/urgelec/internal/gateway"
	"github.com/tekfaso/urgelec/internal/store"
)

// App carries the shared wiring every subcommand needs.
type App struct {
	Config config.Config
	Logger zerolog.Logger
}

func (a *App) openStore() (*store.Store, error) {
	return store.Open(a.Config.StorePath)
}

// client builds a gateway client, attaching the stored access token when
// an authenticated session exists.
func (a *App) client(ctx context.Context, st *store.Store) (*gateway.Client, error) {
	c := &gateway.Client{
		BaseURL: a.Config.APIBaseURL,
		Client:  &http.Client{Timeout: a.Config.RequestTimeout},
		Logger:  a.Logger,
	}
	if st != nil {
		token, err := st.Get(ctx, store.KeyAccessToken)
		if err != nil {
			return nil, err
		}
		c.Token = token
	}
	return c, nil
}

// resolvePhone picks the reporter phone from the flag, falling back to
// the durable store.
func (a *App) resolvePhone(ctx context.Context, st *store.Store, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	phone, err := st.ReporterPhone(ctx)
	if err != nil {
		return "", err
	}
	return phone, nil
}

func prompt(r *bufio.Reader, label string) string {
	fmt.Printf("%s: ", label)
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}

func stdinReader() *bufio.Reader {
	return bufio.NewReader(os.Stdin)
}
