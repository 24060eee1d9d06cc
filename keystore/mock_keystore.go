package keystore

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockKeyStore is a testify/mock implementation of KeyStore, for tests
// driving the registration and service layers without a real keystore.
type MockKeyStore struct {
	mock.Mock
}

var _ KeyStore = (*MockKeyStore)(nil)

func (m *MockKeyStore) Store(ctx context.Context, label string, key any, ac AccessControl) error {
	args := m.Called(ctx, label, key, ac)
	return args.Error(0)
}

func (m *MockKeyStore) Read(ctx context.Context, label string) (any, error) {
	args := m.Called(ctx, label)
	return args.Get(0), args.Error(1)
}

func (m *MockKeyStore) Rename(ctx context.Context, oldLabel, newLabel string) error {
	args := m.Called(ctx, oldLabel, newLabel)
	return args.Error(0)
}

func (m *MockKeyStore) Delete(ctx context.Context, label string) error {
	args := m.Called(ctx, label)
	return args.Error(0)
}

func (m *MockKeyStore) Exists(ctx context.Context, label string) (bool, error) {
	args := m.Called(ctx, label)
	return args.Bool(0), args.Error(1)
}
