package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/homecare/internal/presentation/tui"
	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/flows"
	"github.com/aretw0/homecare/pkg/runner"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Flow       string
	Service    string
	Assessment string
	// Params are extra route parameters, e.g. from --param key=value.
	Params   map[string]string
	Headless bool
	JSON     bool
	Debug    bool
	Version  string

	In  io.Reader
	Out io.Writer
}

func (o RunOptions) params() map[string]string {
	p := map[string]string{}
	for k, v := range o.Params {
		p[k] = v
	}
	if o.Service != "" {
		p[flows.ParamService] = o.Service
	}
	if o.Assessment != "" {
		p[flows.ParamAssessment] = o.Assessment
	}
	return p
}

func (o RunOptions) quiet() bool { return o.JSON || o.Headless }

// Run opens a flow and drives it on the terminal until it finishes or the
// user quits.
func Run(ctx context.Context, app *App, opts RunOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	sigCtx := catchSignals(ctx)
	defer sigCtx.Stop()

	params := opts.params()
	if opts.Flow == flows.BookingFlow && params[flows.ParamService] == "" && app.Auth.Current() != nil {
		if hint := serviceHint(sigCtx, app); hint != "" {
			return fmt.Errorf("booking needs --service, one of: %s", hint)
		}
	}

	f, err := flows.Open(sigCtx, opts.Flow, app.Deps(params, opts.Debug))
	if errors.Is(err, domain.ErrLoginRequired) {
		return fmt.Errorf("%s needs a logged-in user, run `homecare login` first: %w", opts.Flow, err)
	}
	if errors.Is(err, domain.ErrUnknownService) {
		if hint := serviceHint(sigCtx, app); hint != "" {
			return fmt.Errorf("%w, pick one of: %s", err, hint)
		}
	}
	if err != nil {
		return err
	}

	if !opts.quiet() {
		tui.PrintBanner(opts.Out, opts.Version)
		if u := app.Auth.Current(); u != nil {
			printSystemMessage(opts.Out, "Logged in as %s.", displayName(u))
		}
	}

	r := runner.NewRunner(runnerOptions(app, opts)...)
	st, runErr := r.Run(sigCtx, f)
	if sigCtx.Err() != nil && runErr == nil {
		runErr = sigCtx.Err()
	}

	app.Logger.Debug("Run finished", "flow", f.Name(), "step", st.StepID, "status", st.Status)
	if !opts.quiet() {
		reportStop(opts.Out, st, runErr, sigCtx.Caught())
	}
	return handleExecutionError(runErr)
}

func runnerOptions(app *App, opts RunOptions) []runner.Option {
	ro := []runner.Option{
		runner.WithLogger(app.Logger),
		runner.WithHeadless(opts.Headless),
		runner.WithIO(opts.In, opts.Out),
	}
	switch {
	case opts.JSON:
		ro = append(ro, runner.WithInputHandler(runner.NewJSONHandler(opts.In, opts.Out)))
	case !opts.Headless && isTTY(opts.Out):
		ro = append(ro, runner.WithRenderer(tui.NewRenderer()))
	}
	return ro
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && runner.IsTerminal(f)
}

func displayName(u *domain.User) string {
	if u.Name != "" {
		return u.Name
	}
	if u.Phone != "" {
		return u.Phone
	}
	return u.ID
}
