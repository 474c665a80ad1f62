/*
Package session keeps live wizard flows for multi-request clients.

Each flow is stored in memory under a random id. Composite operations on one
flow (set several answers, then advance) run under a per-session lock whose
entry is reference-counted so idle ids do not leak. Flows idle for longer than
the configured timeout are pruned.
*/
package session
