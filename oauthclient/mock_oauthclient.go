package oauthclient

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient is a testify/mock implementation of Client.
type MockClient struct {
	mock.Mock
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) Exchange(ctx context.Context, req ExchangeRequest) (Token, error) {
	args := m.Called(ctx, req)
	token, _ := args.Get(0).(Token)
	return token, args.Error(1)
}

func (m *MockClient) Refresh(ctx context.Context, req RefreshRequest) (Token, error) {
	args := m.Called(ctx, req)
	token, _ := args.Get(0).(Token)
	return token, args.Error(1)
}
