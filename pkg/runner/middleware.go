package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/homecare/pkg/flows"
)

// SubmitInterceptor runs before the terminal submission of a flow.
// It returns true if the submission should proceed.
type SubmitInterceptor func(ctx context.Context, f flows.Flow) (bool, error)

// MultiInterceptor chains multiple interceptors. The first refusal wins.
func MultiInterceptor(interceptors ...SubmitInterceptor) SubmitInterceptor {
	return func(ctx context.Context, f flows.Flow) (bool, error) {
		for _, interceptor := range interceptors {
			allowed, err := interceptor(ctx, f)
			if err != nil {
				return false, err
			}
			if !allowed {
				return false, nil
			}
		}
		return true, nil
	}
}

// ConfirmationMiddleware asks the user through the handler before submitting.
func ConfirmationMiddleware(handler IOHandler) SubmitInterceptor {
	return func(ctx context.Context, f flows.Flow) (bool, error) {
		title := f.Engine().Definition().Title
		if title == "" {
			title = f.Name()
		}
		return confirm(ctx, handler, fmt.Sprintf("Submit %s? [y/N]", title))
	}
}

// AutoApproveMiddleware allows everything.
func AutoApproveMiddleware() SubmitInterceptor {
	return func(ctx context.Context, f flows.Flow) (bool, error) {
		return true, nil
	}
}

func confirm(ctx context.Context, handler IOHandler, question string) (bool, error) {
	if err := handler.SystemOutput(ctx, question); err != nil {
		return false, err
	}
	input, err := handler.Input(ctx)
	if err != nil {
		return false, err
	}
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes", nil
}
