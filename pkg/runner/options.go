package runner

import (
	"io"
	"log/slog"
)

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the debug logger. A nil logger keeps the no-op default.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.Logger = logger
		}
	}
}

// WithInputHandler replaces the prompt handler, e.g. with a JSONHandler.
// WithIO and WithRenderer are then ignored.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) { r.Handler = handler }
}

// WithIO sets the streams the default text prompts use.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *Runner) {
		if in != nil {
			r.Input = in
		}
		if out != nil {
			r.Output = out
		}
	}
}

// WithHeadless drops the submit confirmation and the follow-up offers
// (such as paying for a booking) so a script can pipe answers in.
func WithHeadless(headless bool) Option {
	return func(r *Runner) { r.Headless = headless }
}

// WithRenderer styles step titles and hints in the text prompts.
func WithRenderer(renderer ContentRenderer) Option {
	return func(r *Runner) { r.Renderer = renderer }
}

// WithInterceptor replaces the "Submit now?" confirmation.
func WithInterceptor(interceptor SubmitInterceptor) Option {
	return func(r *Runner) { r.Interceptor = interceptor }
}

// WithFileOpener replaces how a typed path becomes an attachment for
// certificate and document fields.
func WithFileOpener(open FileOpener) Option {
	return func(r *Runner) {
		if open != nil {
			r.OpenFile = open
		}
	}
}
