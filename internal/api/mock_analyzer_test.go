package api

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Harvey-AU/seo-checker/internal/analyzer"
	"github.com/Harvey-AU/seo-checker/internal/fetcher"
)

// MockAnalyzer is a mock implementation of Analyzer
type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, target string) (*analyzer.Result, error) {
	args := m.Called(ctx, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyzer.Result), args.Error(1)
}

func (m *MockAnalyzer) Status(ctx context.Context, target string) *fetcher.StatusResult {
	args := m.Called(ctx, target)
	return args.Get(0).(*fetcher.StatusResult)
}
