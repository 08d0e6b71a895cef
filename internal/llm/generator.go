// Package llm abstracts the conversational model behind the savings advisor.
package llm

import (
	"context"
	"errors"

	"github.com/goalstash/goalstash/internal/model"
)

// ErrUnavailable marks any recoverable model failure: missing credentials,
// transport errors, rate limits. Callers degrade to a fallback reply.
var ErrUnavailable = errors.New("language model unavailable")

// Generator produces one assistant reply from a system context, the bounded
// conversation history and the new user message.
type Generator interface {
	Generate(ctx context.Context, system string, history []model.Turn, message string) (string, error)
}
