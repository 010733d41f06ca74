package mail

import (
	"context"
	"sync"

	logx "leetdrip/pkg/logx"
)

// MockProvider logs instead of sending and records sent messages for tests.
type MockProvider struct {
	log logx.Logger

	mu   sync.Mutex
	sent []MockMessage
	fail error
}

type MockMessage struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

func NewMock(log logx.Logger) *MockProvider {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &MockProvider{log: log}
}

// FailWith makes subsequent sends return err (nil restores success).
func (m *MockProvider) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func (m *MockProvider) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, MockMessage{To: to, Subject: subject, HTML: htmlBody, Text: textBody})
	m.log.Info("mock send",
		logx.String("to", to),
		logx.String("subject", subject),
		logx.Int("html_len", len(htmlBody)),
	)
	return nil
}

// Sent returns a copy of everything sent so far.
func (m *MockProvider) Sent() []MockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockMessage, len(m.sent))
	copy(out, m.sent)
	return out
}
