package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gamebot/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockTransport struct {
	mutex      sync.Mutex
	runErrs    []error
	runs       int
	resets     int
	delivered  *domain.Message
	deliverOne bool
}

func (m *MockTransport) Run(ctx context.Context,
	onMessage func(ctx context.Context, message *domain.Message)) error {
	m.mutex.Lock()
	m.runs++
	idx := m.runs - 1
	deliver := m.deliverOne
	m.deliverOne = false
	m.mutex.Unlock()

	if deliver {
		onMessage(ctx, &domain.Message{ChatID: 1, UserID: 2, Text: "hi"})
	}

	if idx < len(m.runErrs) {
		return m.runErrs[idx]
	}

	<-ctx.Done()
	return ctx.Err()
}

func (m *MockTransport) ResetCredentials(_ context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.resets++
	return nil
}

func (m *MockTransport) SendMessage(_ context.Context, _ int64, _ string) (int, error) {
	return 0, nil
}

func (m *MockTransport) SendMessageReply(_ context.Context, _ int64, _ int, _ string) (int, error) {
	return 0, nil
}

func (m *MockTransport) SendAction(_ context.Context, _ int64, _ domain.Action) {}

func (m *MockTransport) counts() (runs, resets int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.runs, m.resets
}

func newTestSupervisor(transport *MockTransport,
	dispatch func(ctx context.Context, msg *domain.Message)) *Supervisor {
	s := NewSupervisor(transport, dispatch)
	s.baseDelay = time.Millisecond
	s.maxDelay = 5 * time.Millisecond
	s.resetPause = time.Millisecond
	return s
}

func TestSupervisorReconnectsAfterDisconnect(t *testing.T) {
	transport := &MockTransport{runErrs: []error{errors.New("stream closed"), errors.New("stream closed")}}
	s := newTestSupervisor(transport, func(_ context.Context, _ *domain.Message) {})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := s.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	runs, resets := transport.counts()
	assert.Equal(t, 3, runs, "two failed runs plus the one that stayed connected")
	assert.Zero(t, resets)
}

func TestSupervisorResetsCredentialsOnLogout(t *testing.T) {
	transport := &MockTransport{runErrs: []error{domain.ErrLoggedOut}}
	s := newTestSupervisor(transport, func(_ context.Context, _ *domain.Message) {})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_ = s.Run(ctx)

	runs, resets := transport.counts()
	assert.Equal(t, 2, runs)
	assert.Equal(t, 1, resets)
}

func TestSupervisorForcesResetAfterExhaustedAttempts(t *testing.T) {
	errs := make([]error, 12)
	for i := range errs {
		errs[i] = errors.New("stream closed")
	}
	transport := &MockTransport{runErrs: errs}
	s := newTestSupervisor(transport, func(_ context.Context, _ *domain.Message) {})
	s.maxAttempts = 2

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_ = s.Run(ctx)

	_, resets := transport.counts()
	assert.GreaterOrEqual(t, resets, 1)
}

func TestSupervisorDeliversMessagesToDispatcher(t *testing.T) {
	transport := &MockTransport{deliverOne: true}

	received := make(chan *domain.Message, 1)
	s := newTestSupervisor(transport, func(_ context.Context, msg *domain.Message) {
		received <- msg
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = s.Run(ctx)
	}()

	select {
	case msg := <-received:
		assert.Equal(t, "hi", msg.Text)
	case <-time.After(time.Second):
		t.Fatal("dispatcher never received the message")
	}

	cancel()
}
