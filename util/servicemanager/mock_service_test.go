package servicemanager

import (
	"context"
	"net/http"
	"sync"

	"github.com/bsv-blockchain/utxoledger/errors"
)

// mockService is a Service whose behavior each test configures, recording
// which lifecycle methods were called so tests can assert on them.
type mockService struct {
	name string

	mu                                  sync.Mutex
	initCalled, startCalled, stopCalled bool

	failAt string // "init", "start", or "" for no failure

	stopErr error

	healthStatus int
	healthErr    error
}

// NewMockService returns a Service that succeeds at every lifecycle step.
func NewMockService(name string) *mockService {
	return &mockService{name: name, healthStatus: http.StatusOK}
}

// NewFailingMockService returns a Service whose named lifecycle step
// ("init" or "start") returns an error.
func NewFailingMockService(name, failAt string) *mockService {
	return &mockService{name: name, failAt: failAt, healthStatus: http.StatusOK}
}

func (m *mockService) SetStopBehavior(_ int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopErr = err
}

func (m *mockService) SetHealthBehavior(status int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.healthStatus = status
	m.healthErr = err
}

// WasCalled reports whether Init, Start, and Stop have each been invoked.
func (m *mockService) WasCalled() (init, start, stop bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.initCalled, m.startCalled, m.stopCalled
}

func (m *mockService) Init(ctx context.Context) error {
	m.mu.Lock()
	m.initCalled = true
	fail := m.failAt == "init"
	m.mu.Unlock()

	if fail {
		return errors.NewServiceError("mock service failure: %s init", m.name)
	}

	return nil
}

func (m *mockService) Start(ctx context.Context, readyCh chan struct{}) error {
	m.mu.Lock()
	m.startCalled = true
	fail := m.failAt == "start"
	m.mu.Unlock()

	if fail {
		return errors.NewServiceError("mock service failure: %s start", m.name)
	}

	close(readyCh)

	<-ctx.Done()

	return ctx.Err()
}

func (m *mockService) Stop(ctx context.Context) error {
	m.mu.Lock()
	m.stopCalled = true
	err := m.stopErr
	m.mu.Unlock()

	return err
}

func (m *mockService) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.healthStatus, m.name, m.healthErr
}
