package coordinator

import "context"

// FuncStep adapts a pair of closures to Step. Steps of a single saga usually
// share state through variables captured by their closures.
type FuncStep struct {
	name       string
	execute    func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// NewStep is the constructor for FuncStep. compensate may be nil for steps
// without visible side effects.
func NewStep(name string, execute, compensate func(ctx context.Context) error) *FuncStep {
	return &FuncStep{name: name, execute: execute, compensate: compensate}
}

func (s *FuncStep) Name() string { return s.name }

func (s *FuncStep) Execute(ctx context.Context) error {
	return s.execute(ctx)
}

func (s *FuncStep) Compensate(ctx context.Context) error {
	if s.compensate == nil {
		return nil
	}
	return s.compensate(ctx)
}

var _ Step = (*FuncStep)(nil)
