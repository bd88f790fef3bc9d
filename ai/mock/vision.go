package mock

import (
	"context"
	"fmt"
	"sync/atomic"
)

// MockVision is a test double for ai.VisionAnalyzer.
type MockVision struct {
	// AnalyzeFunc is called by AnalyzeImage if set.
	AnalyzeFunc func(ctx context.Context, mimeType string, data []byte) (string, error)

	calls atomic.Int64
}

// NewMockVision creates a vision mock that describes images by size.
func NewMockVision() *MockVision {
	return &MockVision{}
}

// AnalyzeImage returns AnalyzeFunc's result or a short description.
func (m *MockVision) AnalyzeImage(ctx context.Context, mimeType string, data []byte) (string, error) {
	m.calls.Add(1)
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, mimeType, data)
	}
	return fmt.Sprintf("이미지 설명 (%s, %d 바이트)", mimeType, len(data)), nil
}

// CallCount returns how many images were analyzed.
func (m *MockVision) CallCount() int {
	return int(m.calls.Load())
}
