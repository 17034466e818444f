package generation

import (
	"context"
	"errors"
	"fmt"
)

// Generator is anything that turns a prompt into raw model text.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// Run is a single stateless request: build the prompt, call the model and
// interpret the answer. Model errors wrap ErrTransport. A response that breaks
// the structured contract is returned as a failure Result together with an
// error wrapping ErrMalformedResponse.
func Run(ctx context.Context, g Generator, intent Intent, input string) (Result, error) {
	prompt, err := BuildPrompt(intent, input, nil)
	if err != nil {
		return Result{}, err
	}
	raw, err := g.Generate(ctx, prompt)
	if err != nil {
		if !errors.Is(err, ErrTransport) {
			err = fmt.Errorf("%w: %w", ErrTransport, err)
		}
		return Failure(ErrorKindTransport, ""), err
	}
	result := Interpret(intent, raw)
	if result.Kind == KindFailure {
		return result, fmt.Errorf("%w: %s response", ErrMalformedResponse, intent)
	}
	return result, nil
}
