/*
Package dsl provides a fluent builder for wizard definitions.

Flows are declared in Go, in step order, and compiled into a validated
*domain.Definition:

	def, err := dsl.New("callback").
		Title("Request a callback").
		Step("contact").
			Text("name", "Full name").
			Phone("phone", "Phone number").
			Require("name", "phone").
		Step("slot").
			Select("preferred_time", "Preferred time", "Morning", "Evening").
		Done().
		Payload(buildCallback).
		Build()

Build rejects duplicate step ids, field keys declared twice and gates over
fields a step does not declare.
*/
package dsl
