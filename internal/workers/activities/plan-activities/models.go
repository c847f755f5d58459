package planactivities

import (
	"context"

	"pedagoplay/internal/common/logger"
	"pedagoplay/internal/common/observability"
	"pedagoplay/internal/common/openrouter"
)

// DefaultSpecialCase is substituted when a request names no special case.
const DefaultSpecialCase = "No special case."

// Input is one planning request. Ages need not match NumChildren.
type Input struct {
	NumChildren  int    `json:"num_children"`
	Ages         []int  `json:"ages"`
	Weather      string `json:"weather"`
	Location     string `json:"location"`
	SpecialCases string `json:"special_cases,omitempty"`
}

func (i *Input) SpecialCasesOrDefault() string {
	if i.SpecialCases == "" {
		return DefaultSpecialCase
	}
	return i.SpecialCases
}

// Output is the ActivityResponse returned to callers.
type Output struct {
	Activities string  `json:"activities"`
	Success    bool    `json:"success"`
	Error      *string `json:"error"`
}

type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
	SourceFailed   Source = "failed"
)

// PlanningResult records which path produced the Output.
type PlanningResult struct {
	Output        Output
	Source        Source
	RequestID     string
	CompletionErr error
}

// Completer is satisfied by *openrouter.Client.
type Completer interface {
	Complete(ctx context.Context, req openrouter.Request) (string, error)
}

type ServiceDependencies struct {
	Logger        logger.Logger
	Completer     Completer
	Fallback      *FallbackGenerator
	Observability *observability.Observability
}
