package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/homecare/pkg/api"
	"github.com/aretw0/homecare/pkg/domain"
)

// ErrNoRecords is returned when the backend cannot answer read-only queries.
var ErrNoRecords = errors.New("backend does not serve services, bookings or profiles")

// RecordsAPI is the read and profile surface of the backend behind the
// services, bookings and profile commands. *api.Client satisfies it.
type RecordsAPI interface {
	ListServices(ctx context.Context) ([]api.Service, error)
	GetBooking(ctx context.Context, id string) (*api.Booking, error)
	ListUserBookings(ctx context.Context, userID string) ([]api.Booking, error)
	UpdateUser(ctx context.Context, id string, updates map[string]any) (*domain.User, error)
}

// Records returns the backend as a RecordsAPI.
func (a *App) Records() (RecordsAPI, error) {
	r, ok := a.Backend.(RecordsAPI)
	if !ok {
		return nil, ErrNoRecords
	}
	return r, nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ListServices prints the bookable services.
func ListServices(ctx context.Context, app *App, asJSON bool, out io.Writer) error {
	records, err := app.Records()
	if err != nil {
		return err
	}
	services, err := records.ListServices(ctx)
	if err != nil {
		return fmt.Errorf("list services: %w", err)
	}
	if asJSON {
		return writeJSON(out, services)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPER SESSION\tINCLUDES")
	for _, s := range services {
		fmt.Fprintf(tw, "%s\t%s\t₹%d\t%s\n", s.ID, s.Name, s.PricePerSession, strings.Join(s.SubServices, ", "))
	}
	return tw.Flush()
}

// serviceHint names the services to pass to --service, or returns "" when
// they cannot be listed.
func serviceHint(ctx context.Context, app *App) string {
	records, err := app.Records()
	if err != nil {
		return ""
	}
	services, err := records.ListServices(ctx)
	if err != nil || len(services) == 0 {
		app.Logger.Debug("Could not list services", "err", err)
		return ""
	}
	ids := make([]string, len(services))
	for i, s := range services {
		ids[i] = s.ID
	}
	return strings.Join(ids, ", ")
}

// Bookings prints one booking by id, or every booking of the logged-in user.
func Bookings(ctx context.Context, app *App, id string, asJSON bool, out io.Writer) error {
	records, err := app.Records()
	if err != nil {
		return err
	}
	var list []api.Booking
	if id != "" {
		b, err := records.GetBooking(ctx, id)
		if err != nil {
			return fmt.Errorf("booking %s: %w", id, err)
		}
		list = []api.Booking{*b}
	} else {
		u := app.Auth.Current()
		if u == nil {
			return ErrNotLoggedIn
		}
		if list, err = records.ListUserBookings(ctx, u.ID); err != nil {
			return fmt.Errorf("list bookings: %w", err)
		}
	}

	if asJSON {
		return writeJSON(out, list)
	}
	if len(list) == 0 {
		printSystemMessage(out, "No bookings yet. Run `homecare run booking --service <id>` to book one.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSERVICE\tSESSIONS\tAMOUNT\tWHEN\tSTATUS\tPAYMENT")
	for _, b := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d\t₹%d\t%s %s\t%s\t%s\n",
			b.ID, b.ServiceType, b.SessionCount, b.Amount, b.PreferredDate, b.PreferredTime, b.Status, b.PaymentStatus)
	}
	return tw.Flush()
}

// ProfileUpdate holds the profile fields to change; empty ones are kept.
type ProfileUpdate struct {
	Name   string
	Email  string
	Age    int
	Gender string
}

func (p ProfileUpdate) fields() map[string]any {
	m := map[string]any{}
	if p.Name != "" {
		m["name"] = p.Name
	}
	if p.Email != "" {
		m["email"] = p.Email
	}
	if p.Age > 0 {
		m["age"] = p.Age
	}
	if p.Gender != "" {
		m["gender"] = p.Gender
	}
	return m
}

// UpdateProfile changes the logged-in user's profile and stores the result.
func UpdateProfile(ctx context.Context, app *App, p ProfileUpdate, out io.Writer) error {
	u := app.Auth.Current()
	if u == nil {
		return ErrNotLoggedIn
	}
	updates := p.fields()
	if len(updates) == 0 {
		return errors.New("nothing to update, pass --name, --email, --age or --gender")
	}
	records, err := app.Records()
	if err != nil {
		return err
	}
	updated, err := records.UpdateUser(ctx, u.ID, updates)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if err := app.Auth.Login(ctx, updated); err != nil {
		return err
	}
	printSystemMessage(out, "Profile updated for %s.", displayName(updated))
	return nil
}
