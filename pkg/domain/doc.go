/*
Package domain contains the core models of the homecare wizard engine.

It defines the static shape of a flow (Definition, Step, Field) and the mutable
per-session snapshot (State, Answers). The package is pure: no I/O, no network,
no persistence. Flows are authored against these types and driven by package wizard.

# Key Entities

  - Definition: an ordered list of steps plus the payload mapper for one flow.
  - Step: fields shown together, the gate guarding forward navigation and an optional
    conditional sub-tree keyed by another answer.
  - Field: one input with its kind, options, range or file constraints and normaliser.
  - State: the current step index, the flat answer set and the submission status.
*/
package domain
