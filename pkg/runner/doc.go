/*
Package runner drives a wizard flow from a line-oriented terminal or pipe.

It acts as the bridge between a flows.Flow and the outside world. Each step is
rendered, its fields are prompted one by one, and Flow.Next is called to run
the step's backend action, advance or submit. Typed commands move around:

	:back   return to the previous step
	:reset  clear every answer and start over
	:quit   leave the flow

Prompts go through an IOHandler: TextHandler for people at a terminal,
JSONHandler for scripts. Every answer is passed through SanitizeInput first.

	f, _ := flows.Open(ctx, flows.ContactFlow, deps)
	st, err := runner.NewRunner(runner.WithHeadless(true)).Run(ctx, f)
	if err == nil && st.Status != domain.StatusSucceeded {
		// the user typed :quit
	}
*/
package runner
