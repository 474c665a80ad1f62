package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/homecare/internal/logging"
	"github.com/aretw0/homecare/pkg/domain"
)

// signalCatcher is a context cancelled by SIGINT or SIGTERM that remembers
// which signal ended it, so a quit can be told apart from a kill.
type signalCatcher struct {
	context.Context
	cancel context.CancelFunc
	ch     chan os.Signal

	mu     sync.Mutex
	caught os.Signal
}

func catchSignals(parent context.Context) *signalCatcher {
	ctx, cancel := context.WithCancel(parent)
	c := &signalCatcher{Context: ctx, cancel: cancel, ch: make(chan os.Signal, 1)}
	signal.Notify(c.ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(c.ch)
		select {
		case sig := <-c.ch:
			c.mu.Lock()
			c.caught = sig
			c.mu.Unlock()
			cancel()
		case <-ctx.Done():
		}
	}()
	return c
}

// Stop releases the signal handler.
func (c *signalCatcher) Stop() { c.cancel() }

// Caught returns the signal that cancelled the context, or nil.
func (c *signalCatcher) Caught() os.Signal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caught
}

// NewLogger configures the application logger.
// Interactive runs stay quiet unless debugging; logs go to Stderr so they
// never mix with prompts or JSON lines on Stdout.
func NewLogger(level string, debug, quiet bool) *slog.Logger {
	switch {
	case debug:
		return logging.New(slog.LevelDebug)
	case quiet:
		return logging.New(slog.LevelWarn)
	}
	return logging.New(logging.ParseLevel(level))
}

func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// isInterrupted reports whether err only means the user left the wizard.
func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}

func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil
	}
	return err
}

// reportStop tells the user where an unfinished run stopped and whether
// anything they typed was lost. Runs that reached a submission say nothing.
func reportStop(w io.Writer, st domain.State, err error, sig os.Signal) {
	if err == nil || st.Status == domain.StatusSucceeded {
		return
	}
	lost := ""
	if n := len(st.Answers); n > 0 {
		lost = fmt.Sprintf(" %d answer(s) were not submitted.", n)
	}
	switch {
	case sig == os.Interrupt:
		fmt.Fprintln(w, "[CTRL+C]")
		printSystemMessage(w, "Interrupted on step %q.%s", st.StepID, lost)
	case sig != nil:
		fmt.Fprintln(w)
		printSystemMessage(w, "Terminated on step %q.%s", st.StepID, lost)
	case isInterrupted(err):
		printSystemMessage(w, "Stopped on step %q.%s", st.StepID, lost)
	}
}
