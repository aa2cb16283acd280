package embeddings

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockEncoder is a mock implementation of Encoder using testify/mock.
type MockEncoder struct {
	mock.Mock
}

func (m *MockEncoder) Encode(ctx context.Context, texts []string) ([]Vector, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Vector), args.Error(1)
}

func (m *MockEncoder) ModelID() string {
	args := m.Called()
	return args.String(0)
}
