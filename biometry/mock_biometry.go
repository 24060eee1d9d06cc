package biometry

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockEvaluator is a testify/mock implementation of Evaluator.
type MockEvaluator struct {
	mock.Mock
}

var _ Evaluator = (*MockEvaluator)(nil)

func (m *MockEvaluator) CanEvaluate(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockEvaluator) Evaluate(ctx context.Context, policy Policy, reason string) (Subtype, error) {
	args := m.Called(ctx, policy, reason)
	subtype, _ := args.Get(0).(Subtype)
	return subtype, args.Error(1)
}
