package wizard_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/dsl"
	"github.com/aretw0/homecare/pkg/wizard"
)

// Example drives a two-step wizard purely as a Go library, with the submit
// function standing in for a backend call.
func Example() {
	def := dsl.New("feedback").
		Title("Feedback").
		Payload(func(in domain.Input) (any, error) {
			return map[string]string{"name": in.Answers.String("name"), "rating": in.Answers.String("rating")}, nil
		}).
		Step("about").Title("About you").Text("name", "Name").Require("name").
		Step("rating").Title("Your visit").Select("rating", "Rating", "good", "bad").Require("rating").
		Done().
		MustBuild()

	e, err := wizard.New(def, func(ctx context.Context, payload any) (any, error) {
		fmt.Println("submitting", payload)
		return "fb-1", nil
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(e.Advance())
	if err := e.SetField("name", "Asha"); err != nil {
		log.Fatal(err)
	}
	fmt.Println(e.Advance())
	if err := e.SetField("rating", "good"); err != nil {
		log.Fatal(err)
	}

	res, err := e.Submit(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res, e.Status())
	// Output:
	// false
	// true
	// submitting map[name:Asha rating:good]
	// fb-1 succeeded
}
