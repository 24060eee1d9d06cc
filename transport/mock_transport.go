package transport

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient is a testify/mock implementation of Client, for tests
// driving the registration and service layers without a real server.
type MockClient struct {
	mock.Mock
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) Do(ctx context.Context, req RequestDescriptor) (Result, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(Result)
	return result, args.Error(1)
}
