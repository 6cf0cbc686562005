package judgeclient

import (
	"context"
	"net/http"
	"sync"

	"github.com/joshuadwray/audition-scoring/internal/models"
	"github.com/joshuadwray/audition-scoring/internal/services"
)

// MockClient is an in-memory Client for testing stations
type MockClient struct {
	mu          sync.Mutex
	identity    models.Identity
	current     *services.CurrentGroup
	instances   map[string]*models.Instance
	loginErr    error
	currentErr  error
	submitErr   error
	submissions map[string][]services.ScoreEntry // groupID -> entries
}

// MockOption configures the mock client
type MockOption func(*MockClient)

// WithIdentity sets the identity returned by Login
func WithIdentity(id models.Identity) MockOption {
	return func(m *MockClient) {
		m.identity = id
	}
}

// WithLoginError sets an error to return from Login
func WithLoginError(err error) MockOption {
	return func(m *MockClient) {
		m.loginErr = err
	}
}

// WithSubmitError sets an error to return from Submit
func WithSubmitError(err error) MockOption {
	return func(m *MockClient) {
		m.submitErr = err
	}
}

// NewMockClient creates a mock with no current group
func NewMockClient(opts ...MockOption) *MockClient {
	m := &MockClient{
		current:     &services.CurrentGroup{Dancers: []models.Dancer{}},
		instances:   make(map[string]*models.Instance),
		submissions: make(map[string][]services.ScoreEntry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetCurrent makes inst the current group with the given roster
func (m *MockClient) SetCurrent(inst *models.Instance, dancers []models.Dancer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instances[inst.ID] = inst
	m.current = &services.CurrentGroup{Instance: inst, Dancers: dancers, Submitted: len(m.submissions[inst.ID]) > 0}
}

// ClearCurrent leaves no active group
func (m *MockClient) ClearCurrent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = &services.CurrentGroup{Dancers: []models.Dancer{}}
}

// SetStatus changes a known instance's status
func (m *MockClient) SetStatus(groupID string, status models.GroupStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inst, ok := m.instances[groupID]; ok {
		inst.Status = status
	}
}

// Remove forgets an instance so Instance reports it as not found
func (m *MockClient) Remove(groupID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.instances, groupID)
}

// SetCurrentError sets an error to return from CurrentGroup
func (m *MockClient) SetCurrentError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentErr = err
}

// Submitted returns the entries submitted for a group
func (m *MockClient) Submitted(groupID string) []services.ScoreEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submissions[groupID]
}

// Login returns the configured identity
func (m *MockClient) Login(ctx context.Context, session, pin string) (*services.LoginResult, error) {
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return &services.LoginResult{Token: "mock-token", Identity: m.identity}, nil
}

// CurrentGroup returns a copy of the current group
func (m *MockClient) CurrentGroup(ctx context.Context, sessionID string) (*services.CurrentGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.currentErr != nil {
		return nil, m.currentErr
	}
	c := *m.current
	if c.Instance != nil {
		inst := *c.Instance
		c.Instance = &inst
	}
	return &c, nil
}

// Instance returns a known instance or a NOT_FOUND error
func (m *MockClient) Instance(ctx context.Context, sessionID, groupID string) (*models.Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.instances[groupID]
	if !ok {
		return nil, &APIError{Status: http.StatusNotFound, Code: CodeNotFound, Message: "Group not found"}
	}
	c := *inst
	return &c, nil
}

// Submit records entries once per group
func (m *MockClient) Submit(ctx context.Context, sessionID, groupID string, entries []services.ScoreEntry) (*services.SubmitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	if len(m.submissions[groupID]) > 0 {
		return nil, &APIError{Status: http.StatusConflict, Code: CodeConflict, Message: "Scores already submitted for this group"}
	}
	m.submissions[groupID] = entries
	if m.current.Instance != nil && m.current.Instance.ID == groupID {
		m.current.Submitted = true
	}
	return &services.SubmitResult{ScoreCount: len(entries)}, nil
}

// BaseURL returns a placeholder address
func (m *MockClient) BaseURL() string {
	return "http://mock"
}

// Ensure MockClient implements Client
var _ Client = (*MockClient)(nil)
