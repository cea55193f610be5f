package llm

import "context"

// MockCall records one Send invocation.
type MockCall struct {
	Task   string
	Inputs map[string]any
	Images []string
}

// MockSession implements Session for testing. Responses are consumed in
// order; Errs fails a specific task.
type MockSession struct {
	Responses []string
	Errs      map[string]error
	Calls     []MockCall

	next int
}

// NewMockSession creates a mock session with scripted responses.
func NewMockSession(responses ...string) *MockSession {
	return &MockSession{Responses: responses}
}

// Send records the call and returns the next scripted response.
func (m *MockSession) Send(_ context.Context, task string, inputs map[string]any, images []string) (string, error) {
	m.Calls = append(m.Calls, MockCall{Task: task, Inputs: inputs, Images: images})

	if err, ok := m.Errs[task]; ok && err != nil {
		return "", err
	}

	if m.next < len(m.Responses) {
		resp := m.Responses[m.next]
		m.next++
		return resp, nil
	}
	return `<svg viewBox="0 0 512 512"><rect width="512" height="512" fill="#eee"/></svg>`, nil
}
