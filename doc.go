/*
Package homecare is a wizard engine for a home physiotherapy service.

It drives the multi-step forms a patient or practitioner fills in: the
physiotherapy assessment, the session booking, the practitioner
application, the OTP login with its signup branch and the contact form.
Each wizard collects answers step by step, gates forward navigation on the
required fields, and submits one typed payload to the homecare backend.

# Concept

A wizard is a static Definition (pkg/domain) compiled with the builder in
pkg/dsl, driven by an Engine (pkg/wizard) that owns the answers, the current
step and the submission status. The catalog in pkg/flows binds each
definition to the backend client in pkg/api and to the logged-in user kept
by pkg/auth. The engine knows nothing about terminals or HTTP, so the same
flow runs in the CLI (pkg/runner) and behind the REST adapter
(pkg/adapters/http).

# Key Features

  - Gated navigation: Advance only leaves a step whose required answers are present.
  - Pure payloads: the request body is rebuilt from the answers on every submit.
  - Safe retries: a failed submission keeps the step and every answer.
  - Pluggable persistence: the logged-in user id lives in a file, Redis or memory store, optionally encrypted.

# Usage

Open a flow from the catalog and drive it:

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/homecare/pkg/adapters/memory"
		"github.com/aretw0/homecare/pkg/api"
		"github.com/aretw0/homecare/pkg/auth"
		"github.com/aretw0/homecare/pkg/flows"
	)

	func main() {
		ctx := context.Background()
		client, err := api.NewClient(api.Config{BaseURL: "http://localhost:8001/api"})
		if err != nil {
			log.Fatal(err)
		}
		session := auth.NewSession(memory.NewStore(), client)

		f, err := flows.Open(ctx, flows.ContactFlow, flows.Deps{Backend: client, Auth: session})
		if err != nil {
			log.Fatal(err)
		}

		e := f.Engine()
		_ = e.SetField("name", "Asha")
		_ = e.SetField("email", "asha@example.com")
		_ = e.SetField("message", "Do you visit Whitefield?")

		if _, err := f.Next(ctx); err != nil {
			log.Fatal(e.State().LastError)
		}
	}
*/
package homecare
