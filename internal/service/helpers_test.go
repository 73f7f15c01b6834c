package service

import (
	"context"
	"sync"

	"taxflow/internal/model"
	"taxflow/internal/notify"
	"taxflow/internal/repository/mocks"
	"taxflow/internal/token"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"
)

type publishedEvent struct {
	WorkspaceID uuid.UUID
	UserID      uuid.UUID // uuid.Nil for workspace broadcasts
	Type        string
	Payload     interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) PublishToUser(workspaceID, userID uuid.UUID, eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{workspaceID, userID, eventType, payload})
}

func (p *fakePublisher) PublishToWorkspace(workspaceID uuid.UUID, eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{workspaceID, uuid.Nil, eventType, payload})
}

func (p *fakePublisher) ofType(eventType string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (m *fakeMailer) Enabled() bool { return true }

func (m *fakeMailer) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

// expectTx makes RunInTx run its callback inline, any number of times.
func expectTx(tx *mocks.MockTransactionManager) {
	tx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		}).AnyTimes()
}

func newPrincipal(role string) token.Principal {
	return token.Principal{UserID: uuid.New(), WorkspaceID: uuid.New(), Role: role}
}

func staffIn(workspaceID uuid.UUID) token.Principal {
	return token.Principal{UserID: uuid.New(), WorkspaceID: workspaceID, Role: model.RoleStaff}
}
