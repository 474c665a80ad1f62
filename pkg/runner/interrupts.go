package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// interruptGrace is how long a failed read waits for a pending SIGINT.
// Some terminals deliver EOF on Ctrl+C just before the signal itself.
const interruptGrace = 100 * time.Millisecond

// interrupts scopes one Run to SIGINT and SIGTERM so a Ctrl+C at a prompt
// quits the wizard instead of killing the process mid-submission.
type interrupts struct {
	ctx   context.Context
	stop  context.CancelFunc
	grace time.Duration
}

func watchInterrupts(parent context.Context) *interrupts {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	return &interrupts{ctx: ctx, stop: stop, grace: interruptGrace}
}

// Context is cancelled on interrupt or when the parent ends.
func (i *interrupts) Context() context.Context { return i.ctx }

func (i *interrupts) Stop() { i.stop() }

// Interrupted reports whether a read failure was really the user quitting.
func (i *interrupts) Interrupted() bool {
	if i.ctx.Err() != nil {
		return true
	}
	t := time.NewTimer(i.grace)
	defer t.Stop()
	select {
	case <-i.ctx.Done():
		return true
	case <-t.C:
		return false
	}
}
