package testutil

import (
	"context"
	"sync"

	ierr "github.com/memberbase/memberbase/internal/errors"
)

// SentEmail records one SendTemplate call made against the fake sender.
type SentEmail struct {
	To         string
	TemplateID string
	Data       map[string]interface{}
}

// InMemoryEmailSender implements email.Sender and records every send.
type InMemoryEmailSender struct {
	mu   sync.Mutex
	sent []SentEmail

	// FailFor makes sends to the listed recipients fail.
	FailFor map[string]bool
}

// NewInMemoryEmailSender creates a new recording email sender
func NewInMemoryEmailSender() *InMemoryEmailSender {
	return &InMemoryEmailSender{
		FailFor: make(map[string]bool),
	}
}

func (s *InMemoryEmailSender) SendTemplate(ctx context.Context, to, templateID string, data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailFor[to] {
		return ierr.NewErrorf("send to %s failed", to).
			Mark(ierr.ErrHTTPClient)
	}
	s.sent = append(s.sent, SentEmail{To: to, TemplateID: templateID, Data: data})
	return nil
}

// Sent returns a copy of the recorded sends.
func (s *InMemoryEmailSender) Sent() []SentEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentEmail, len(s.sent))
	copy(out, s.sent)
	return out
}

// SentTo returns the recorded sends addressed to the given recipient.
func (s *InMemoryEmailSender) SentTo(to string) []SentEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentEmail, 0)
	for _, e := range s.sent {
		if e.To == to {
			out = append(out, e)
		}
	}
	return out
}

// Reset clears all recorded sends.
func (s *InMemoryEmailSender) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = nil
	s.FailFor = make(map[string]bool)
}
