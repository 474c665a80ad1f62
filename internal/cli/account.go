package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/homecare/pkg/flows"
)

// ErrNotLoggedIn is returned by WhoAmI when no user is stored.
var ErrNotLoggedIn = errors.New("not logged in")

// Login runs the OTP login flow unless a user is already logged in.
func Login(ctx context.Context, app *App, opts RunOptions) error {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if u := app.Auth.Current(); u != nil {
		printSystemMessage(opts.Out, "Already logged in as %s. Run `homecare logout` to switch accounts.", displayName(u))
		return nil
	}
	opts.Flow = flows.LoginFlow
	return Run(ctx, app, opts)
}

// Logout forgets the current user. With all set, every client stored in
// the token store is forgotten too.
func Logout(ctx context.Context, app *App, all bool, out io.Writer) error {
	if err := app.Auth.Logout(ctx); err != nil {
		return err
	}
	if !all {
		printSystemMessage(out, "Logged out.")
		return nil
	}

	clients, err := app.Store.List(ctx)
	if err != nil {
		return fmt.Errorf("list stored logins: %w", err)
	}
	var errs []error
	for _, id := range clients {
		if err := app.Store.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("client %s: %w", id, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	printSystemMessage(out, "Logged out. Cleared %d other stored login(s).", len(clients))
	return nil
}

// WhoAmI prints the logged-in user.
func WhoAmI(app *App, asJSON bool, out io.Writer) error {
	u := app.Auth.Current()
	if u == nil {
		return ErrNotLoggedIn
	}
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(u)
	}
	fmt.Fprintf(out, "%s (%s)\n", displayName(u), u.Phone)
	fmt.Fprintf(out, "id:     %s\n", u.ID)
	if u.Email != "" {
		fmt.Fprintf(out, "email:  %s\n", u.Email)
	}
	fmt.Fprintf(out, "client: %s\n", app.Auth.ClientID())
	return nil
}
