package mocks

import (
	"context"

	"github.com/brettbedarf/simfs"
	"github.com/stretchr/testify/mock"
)

// MockGateway implements simfs.Gateway for testing across packages
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Load(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)

	// Handle function return types (for tests that feed back saved values)
	if fn, ok := args.Get(0).(func(context.Context, string) []byte); ok {
		return fn(ctx, key), args.Error(1)
	}

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockGateway) Save(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockGateway) PutSnapshot(ctx context.Context, id string, data []byte) error {
	args := m.Called(ctx, id, data)
	return args.Error(0)
}

func (m *MockGateway) DeleteSnapshot(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGateway) ListSnapshots(ctx context.Context) ([]simfs.SnapshotRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]simfs.SnapshotRecord), args.Error(1)
}

func (m *MockGateway) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ simfs.Gateway = (*MockGateway)(nil)
