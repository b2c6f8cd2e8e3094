package llm

import "context"

// MockCompleter returns a canned response or error. Test support.
type MockCompleter struct {
	Response string
	Err      error
	Calls    int
}

func (m *MockCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// MockEmbedder returns a fixed vector or error. Test support.
type MockEmbedder struct {
	Vector []float32
	Err    error
	Calls  int
}

func (m *MockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Vector, nil
}
