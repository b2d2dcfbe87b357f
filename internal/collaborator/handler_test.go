package collaborator

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"screenplay-collab/internal/domain"
	"screenplay-collab/internal/errors"
	"screenplay-collab/internal/middleware"
	"screenplay-collab/internal/redis"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Invite(ctx context.Context, scriptID, inviterID uint64, email string, role domain.CollaboratorRole) (*domain.Collaborator, error) {
	args := m.Called(ctx, scriptID, inviterID, email, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Collaborator), args.Error(1)
}

func (m *MockService) BulkInvite(ctx context.Context, scriptID, inviterID uint64, raw string, role domain.CollaboratorRole) (*BulkResult, error) {
	args := m.Called(ctx, scriptID, inviterID, raw, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BulkResult), args.Error(1)
}

func (m *MockService) Respond(ctx context.Context, collaboratorID, userID uint64, accept bool) (*domain.Collaborator, error) {
	args := m.Called(ctx, collaboratorID, userID, accept)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Collaborator), args.Error(1)
}

func (m *MockService) Invitations(ctx context.Context, userID uint64) ([]Invitation, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]Invitation), args.Error(1)
}

func (m *MockService) ChangeRole(ctx context.Context, scriptID, actorID, userID uint64, role domain.CollaboratorRole) (*domain.Collaborator, error) {
	args := m.Called(ctx, scriptID, actorID, userID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Collaborator), args.Error(1)
}

func (m *MockService) Remove(ctx context.Context, scriptID, actorID, userID uint64) error {
	return m.Called(ctx, scriptID, actorID, userID).Error(0)
}

func (m *MockService) Leave(ctx context.Context, scriptID, userID uint64) error {
	return m.Called(ctx, scriptID, userID).Error(0)
}

func (m *MockService) List(ctx context.Context, scriptID, userID uint64) ([]Member, error) {
	args := m.Called(ctx, scriptID, userID)
	return args.Get(0).([]Member), args.Error(1)
}

func (m *MockService) UpdatePresence(ctx context.Context, scriptID, userID uint64, input PresenceInput) (*redis.PresenceEntry, error) {
	args := m.Called(ctx, scriptID, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*redis.PresenceEntry), args.Error(1)
}

func (m *MockService) ListPresence(ctx context.Context, scriptID, userID uint64) ([]redis.PresenceEntry, error) {
	args := m.Called(ctx, scriptID, userID)
	return args.Get(0).([]redis.PresenceEntry), args.Error(1)
}

// setupRouter mounts the routes the way the server does, behind a fake
// auth step that sets user 7
func setupRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler(zerolog.Nop()))
	router.Use(func(c *gin.Context) {
		c.Set("user_id", uint64(7))
		c.Next()
	})

	router.POST("/scripts/:id/collaborators", h.Invite)
	router.POST("/scripts/:id/collaborators/bulk", h.BulkInvite)
	router.DELETE("/scripts/:id/collaborators/me", h.Leave)
	router.PUT("/scripts/:id/collaborators/:userId", h.ChangeRole)
	router.DELETE("/scripts/:id/collaborators/:userId", h.Remove)
	router.GET("/invitations", h.Invitations)
	router.POST("/invitations/:id/respond", h.Respond)
	router.PUT("/scripts/:id/presence", h.UpdatePresence)
	return router
}

func do(router *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestInviteHandler(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("Invite", mock.Anything, uint64(3), uint64(7), "writer@example.com", domain.CollaboratorRoleEditor).
		Return(&domain.Collaborator{ID: 9, ScriptID: 3, Status: domain.CollaboratorPending}, nil)

	w := do(router, http.MethodPost, "/scripts/3/collaborators", map[string]string{"email": "writer@example.com", "role": "editor"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(router, http.MethodPost, "/scripts/3/collaborators", map[string]string{"email": "writer@example.com", "role": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockService.AssertExpectations(t)
}

func TestLeaveAndRemoveRoutes(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("Leave", mock.Anything, uint64(3), uint64(7)).Return(nil).Once()
	mockService.On("Remove", mock.Anything, uint64(3), uint64(7), uint64(12)).Return(nil).Once()

	w := do(router, http.MethodDelete, "/scripts/3/collaborators/me", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(router, http.MethodDelete, "/scripts/3/collaborators/12", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(router, http.MethodDelete, "/scripts/3/collaborators/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockService.AssertExpectations(t)
}

func TestRespondHandler_BindsAccept(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("Respond", mock.Anything, uint64(9), uint64(7), false).
		Return(&domain.Collaborator{ID: 9, Status: domain.CollaboratorDeclined}, nil)

	w := do(router, http.MethodPost, "/invitations/9/respond", map[string]bool{"accept": false})
	require.Equal(t, http.StatusOK, w.Code)
	var got domain.Collaborator
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, domain.CollaboratorDeclined, got.Status)

	// accept is required, a missing field must not read as a decline
	w = do(router, http.MethodPost, "/invitations/9/respond", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockService.AssertNumberOfCalls(t, "Respond", 1)
}

func TestRespondHandler_AlreadyAnswered(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("Respond", mock.Anything, uint64(9), uint64(7), true).
		Return(nil, errors.InvalidTransition("Invitation is already accepted", nil))

	w := do(router, http.MethodPost, "/invitations/9/respond", map[string]bool{"accept": true})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestChangeRoleHandler(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("ChangeRole", mock.Anything, uint64(3), uint64(7), uint64(12), domain.CollaboratorRoleViewer).
		Return(&domain.Collaborator{ID: 9, Role: domain.CollaboratorRoleViewer}, nil)

	w := do(router, http.MethodPut, "/scripts/3/collaborators/12", map[string]string{"role": "viewer"})
	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestBulkInviteAndInvitations(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("BulkInvite", mock.Anything, uint64(3), uint64(7), "a@example.com, nope", domain.CollaboratorRoleViewer).
		Return(&BulkResult{Invited: 1, Failed: 1}, nil)
	mockService.On("Invitations", mock.Anything, uint64(7)).
		Return([]Invitation{{ID: 9, ScriptTitle: "Heat"}}, nil)

	w := do(router, http.MethodPost, "/scripts/3/collaborators/bulk", map[string]string{"emails": "a@example.com, nope", "role": "viewer"})
	require.Equal(t, http.StatusOK, w.Code)
	var result BulkResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Failed)

	w = do(router, http.MethodGet, "/invitations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []Invitation `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Heat", body.Data[0].ScriptTitle)
}

func TestUpdatePresenceHandler(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("UpdatePresence", mock.Anything, uint64(3), uint64(7), PresenceInput{
		Online: true,
		Cursor: &domain.Cursor{Line: 4, Column: 2},
	}).Return(&redis.PresenceEntry{UserID: 7, Online: true}, nil)

	w := do(router, http.MethodPut, "/scripts/3/presence", map[string]interface{}{
		"online": true,
		"cursor": map[string]int{"line": 4, "column": 2},
	})
	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}
