package test

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/polkiloo/melodiemacher/internal/adapter/assistant"
	"github.com/polkiloo/melodiemacher/internal/adapter/mailer"
	"github.com/polkiloo/melodiemacher/internal/adapter/payment"
	"github.com/polkiloo/melodiemacher/internal/domain/model"
)

// MailerStub records sent emails.
type MailerStub struct {
	mu     sync.Mutex
	Sent   []mailer.Email
	Err    error
	SendFn func(context.Context, mailer.Email) error
}

func (m *MailerStub) Send(ctx context.Context, email mailer.Email) error {
	if m.SendFn != nil {
		if err := m.SendFn(ctx, email); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, email)
	return nil
}

// Templates lists the template of every sent email in order.
func (m *MailerStub) Templates() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, 0, len(m.Sent))
	for _, e := range m.Sent {
		result = append(result, e.Template)
	}
	return result
}

// GatewayStub captures checkout session requests.
type GatewayStub struct {
	Requests []payment.SessionRequest
	Session  *payment.Session
	Err      error

	Event    *payment.Event
	ParseErr error
}

func (g *GatewayStub) CreateCheckoutSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	g.Requests = append(g.Requests, req)
	if g.Err != nil {
		return nil, g.Err
	}
	if g.Session != nil {
		return g.Session, nil
	}
	return &payment.Session{ID: "cs_test_" + req.OrderNumber, URL: "https://checkout.stripe.com/c/pay/" + req.OrderNumber}, nil
}

func (g *GatewayStub) ParseWebhook(_ []byte, _ string) (*payment.Event, error) {
	if g.ParseErr != nil {
		return nil, g.ParseErr
	}
	return g.Event, nil
}

// AssistantStub answers with configured assessments.
type AssistantStub struct {
	mu sync.Mutex

	Priority *assistant.PriorityAssessment
	Quality  *assistant.QualityAssessment
	Prompt   *assistant.PromptResult
	Err      error

	PriorityFn func(context.Context, *model.Order) (*assistant.PriorityAssessment, error)
	Calls      int
}

func (a *AssistantStub) count() {
	a.mu.Lock()
	a.Calls++
	a.mu.Unlock()
}

func (a *AssistantStub) AssessPriority(ctx context.Context, order *model.Order) (*assistant.PriorityAssessment, error) {
	a.count()
	if a.PriorityFn != nil {
		return a.PriorityFn(ctx, order)
	}
	if a.Err != nil {
		return nil, a.Err
	}
	if a.Priority != nil {
		return a.Priority, nil
	}
	return &assistant.PriorityAssessment{Priority: model.PriorityNormal, Reasons: []string{"Standard"}}, nil
}

func (a *AssistantStub) AssessQuality(context.Context, *model.Order) (*assistant.QualityAssessment, error) {
	a.count()
	if a.Err != nil {
		return nil, a.Err
	}
	if a.Quality != nil {
		return a.Quality, nil
	}
	return &assistant.QualityAssessment{Score: 7, Details: "Gute Angaben"}, nil
}

func (a *AssistantStub) GeneratePrompt(_ context.Context, order *model.Order) (*assistant.PromptResult, error) {
	a.count()
	if a.Err != nil {
		return nil, a.Err
	}
	if a.Prompt != nil {
		return a.Prompt, nil
	}
	return &assistant.PromptResult{Style: order.Genre, Prompt: "Song für " + order.RecipientName}, nil
}

// FileStoreStub keeps uploads in memory.
type FileStoreStub struct {
	Files   map[string][]byte
	Removed []string
	Err     error
	next    int
}

// NewFileStoreStub creates an empty store.
func NewFileStoreStub() *FileStoreStub {
	return &FileStoreStub{Files: make(map[string][]byte)}
}

func (s *FileStoreStub) Save(_ context.Context, folder, originalName string, r io.Reader) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.next++
	url := fmt.Sprintf("http://localhost:8080/files/%s/%d-%s", folder, s.next, originalName)
	s.Files[url] = data
	return url, nil
}

func (s *FileStoreStub) Remove(fileURL string) error {
	s.Removed = append(s.Removed, fileURL)
	delete(s.Files, fileURL)
	return nil
}
