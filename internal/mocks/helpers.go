package mocks

import (
	"testing"

	"go.uber.org/mock/gomock"
)

// NewMockRegistryForTest creates a new mock Registry for testing
func NewMockRegistryForTest(t *testing.T) *MockRegistry {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockRegistry(ctrl)
}

// NewMockChainReaderForTest creates a new mock ChainReader for testing
func NewMockChainReaderForTest(t *testing.T) *MockChainReader {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockChainReader(ctrl)
}

// NewMockDelegationServiceForTest creates a new mock DelegationService for testing
func NewMockDelegationServiceForTest(t *testing.T) *MockDelegationService {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockDelegationService(ctrl)
}
