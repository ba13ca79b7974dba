package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/security"
)

type MockRequestService struct {
	mock.Mock
}

func (m *MockRequestService) requestResult(args mock.Arguments) (*domain.Request, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Request), args.Error(1)
}

func (m *MockRequestService) Submit(ctx context.Context, actor domain.Actor, in domain.SubmitInput) (*domain.Request, error) {
	return m.requestResult(m.Called(ctx, actor, in))
}

func (m *MockRequestService) UpdateStatus(ctx context.Context, actor domain.Actor, requestID int32, status domain.RequestStatus) (*domain.Request, error) {
	return m.requestResult(m.Called(ctx, actor, requestID, status))
}

func (m *MockRequestService) Accept(ctx context.Context, actor domain.Actor, requestID int32) (*domain.Request, error) {
	return m.requestResult(m.Called(ctx, actor, requestID))
}

func (m *MockRequestService) Reject(ctx context.Context, actor domain.Actor, requestID int32) (*domain.Request, error) {
	return m.requestResult(m.Called(ctx, actor, requestID))
}

func (m *MockRequestService) Cancel(ctx context.Context, actor domain.Actor, requestID int32) (*domain.Request, error) {
	return m.requestResult(m.Called(ctx, actor, requestID))
}

func (m *MockRequestService) Complete(ctx context.Context, actor domain.Actor, requestID int32) (*domain.Request, error) {
	return m.requestResult(m.Called(ctx, actor, requestID))
}

func (m *MockRequestService) Get(ctx context.Context, actor domain.Actor, requestID int32) (*domain.Request, error) {
	return m.requestResult(m.Called(ctx, actor, requestID))
}

func (m *MockRequestService) List(ctx context.Context, actor domain.Actor, role string, statuses []domain.RequestStatus, page, pageSize int32) ([]domain.Request, int32, error) {
	args := m.Called(ctx, actor, role, statuses, page, pageSize)
	return args.Get(0).([]domain.Request), args.Get(1).(int32), args.Error(2)
}

func (m *MockRequestService) ExpireStale(ctx context.Context, cutoff string) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}

func (m *MockRequestService) RemindOverdue(ctx context.Context, today string) (int, error) {
	args := m.Called(ctx, today)
	return args.Int(0), args.Error(1)
}

type MockResourceService struct {
	mock.Mock
}

func (m *MockResourceService) Create(ctx context.Context, actor domain.Actor, res *domain.Resource) error {
	return m.Called(ctx, actor, res).Error(0)
}

func (m *MockResourceService) Get(ctx context.Context, id int32) (*domain.Resource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Resource), args.Error(1)
}

func (m *MockResourceService) List(ctx context.Context, filter domain.ResourceFilter) ([]domain.Resource, int32, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Resource), args.Get(1).(int32), args.Error(2)
}

func (m *MockResourceService) Update(ctx context.Context, actor domain.Actor, res *domain.Resource) (*domain.Resource, error) {
	args := m.Called(ctx, actor, res)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Resource), args.Error(1)
}

func (m *MockResourceService) Delete(ctx context.Context, actor domain.Actor, id int32) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockResourceService) Donate(ctx context.Context, actor domain.Actor, id int32) (*domain.Resource, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Resource), args.Error(1)
}

func (m *MockResourceService) ReconcileAvailability(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Track(ctx context.Context, userID int32, tokenID string, expiresAt time.Time) error {
	return m.Called(ctx, userID, tokenID, expiresAt).Error(0)
}

func (m *MockSessionStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return m.Called(ctx, tokenID, expiresAt).Error(0)
}

func (m *MockSessionStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionStore) RevokeAllForUser(ctx context.Context, userID int32) error {
	return m.Called(ctx, userID).Error(0)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

type testServer struct {
	handler   http.Handler
	tokens    security.TokenManager
	sessions  *MockSessionStore
	requests  *MockRequestService
	resources *MockResourceService
}

func newTestServer(t *testing.T, db Pinger) *testServer {
	t.Helper()
	if db == nil {
		db = stubPinger{}
	}
	s := &testServer{
		tokens:    security.NewTokenManager("handler-test-secret", time.Hour),
		sessions:  new(MockSessionStore),
		requests:  new(MockRequestService),
		resources: new(MockResourceService),
	}
	s.handler = NewRouter(Handlers{
		Auth:          NewAuthHandler(nil),
		Resources:     NewResourceHandler(s.resources),
		Requests:      NewRequestHandler(s.requests, nil, nil),
		Notifications: NewNotificationHandler(nil),
		Admin:         NewAdminHandler(nil, nil),
		DB:            db,
	}, NewMiddleware(s.tokens, s.sessions))
	return s
}

// token issues a valid access token for id and role that is not revoked.
func (s *testServer) token(t *testing.T, id int32, role domain.UserRole) string {
	t.Helper()
	token, claims, err := s.tokens.GenerateAccessToken(&domain.User{ID: id, Role: role, Email: "u@example.com"})
	require.NoError(t, err)
	s.sessions.On("IsRevoked", mock.Anything, claims.ID).Return(false, nil).Maybe()
	return token
}

func (s *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func serve(s *testServer, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}
