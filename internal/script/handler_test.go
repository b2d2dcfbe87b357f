package script

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

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, ownerID uint64, input CreateInput) (*domain.Script, error) {
	args := m.Called(ctx, ownerID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Script), args.Error(1)
}

func (m *MockService) Get(ctx context.Context, scriptID, userID uint64) (*ScriptResponse, error) {
	args := m.Called(ctx, scriptID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ScriptResponse), args.Error(1)
}

func (m *MockService) ListOwned(ctx context.Context, userID uint64, page, pageSize int) (*PaginatedScripts, error) {
	args := m.Called(ctx, userID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PaginatedScripts), args.Error(1)
}

func (m *MockService) ListShared(ctx context.Context, userID uint64, page, pageSize int) (*PaginatedScripts, error) {
	args := m.Called(ctx, userID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PaginatedScripts), args.Error(1)
}

func (m *MockService) Update(ctx context.Context, scriptID, userID uint64, input UpdateInput) (*domain.Script, error) {
	args := m.Called(ctx, scriptID, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Script), args.Error(1)
}

func (m *MockService) ChangeStatus(ctx context.Context, scriptID, userID uint64, status domain.ScriptStatus) (*domain.Script, error) {
	args := m.Called(ctx, scriptID, userID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Script), args.Error(1)
}

func (m *MockService) Reopen(ctx context.Context, scriptID, userID uint64) (*domain.Script, error) {
	args := m.Called(ctx, scriptID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Script), args.Error(1)
}

func (m *MockService) Delete(ctx context.Context, scriptID, userID uint64) error {
	args := m.Called(ctx, scriptID, userID)
	return args.Error(0)
}

// setupRouter mounts the handler behind a fake auth step that sets user 7
func setupRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler(zerolog.Nop()))
	router.Use(func(c *gin.Context) {
		c.Set("user_id", uint64(7))
		c.Next()
	})

	router.POST("/scripts", h.Create)
	router.GET("/scripts/:id", h.Show)
	router.GET("/scripts", h.ListOwned)
	router.PATCH("/scripts/:id/status", h.ChangeStatus)
	router.DELETE("/scripts/:id", h.Delete)
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

func TestCreateHandler_Success(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("Create", mock.Anything, uint64(7), mock.MatchedBy(func(in CreateInput) bool {
		return in.Title == "Heat" && in.Privacy == domain.ScriptPrivacyShared
	})).Return(&domain.Script{ID: 1, OwnerID: 7, Title: "Heat"}, nil)

	w := do(router, http.MethodPost, "/scripts", map[string]interface{}{"title": "Heat", "privacy": "shared"})

	assert.Equal(t, http.StatusCreated, w.Code)
	var got domain.Script
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, uint64(1), got.ID)
	mockService.AssertExpectations(t)
}

func TestCreateHandler_ValidationError(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	w := do(router, http.MethodPost, "/scripts", map[string]interface{}{"privacy": "secret"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, errors.CodeValidation, body["code"])
	mockService.AssertNotCalled(t, "Create")
}

func TestShowHandler_InvalidID(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	w := do(router, http.MethodGet, "/scripts/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShowHandler_NotFound(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("Get", mock.Anything, uint64(3), uint64(7)).Return(nil, errors.NotFound("Script not found", nil))

	w := do(router, http.MethodGet, "/scripts/3", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	mockService.AssertExpectations(t)
}

func TestListOwnedHandler_Pagination(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("ListOwned", mock.Anything, uint64(7), 2, 5).
		Return(&PaginatedScripts{Data: []ScriptSummary{}, Meta: ScriptsMeta{CurrentPage: 2, PerPage: 5}}, nil)

	w := do(router, http.MethodGet, "/scripts?page=2&per_page=5", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestChangeStatusHandler_InvalidTransition(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("ChangeStatus", mock.Anything, uint64(3), uint64(7), domain.ScriptStatusDraft).
		Return(nil, errors.InvalidTransition("Can't move from review to draft", nil))

	w := do(router, http.MethodPatch, "/scripts/3/status", map[string]string{"status": "draft"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), errors.CodeInvalidTransition)
}

func TestDeleteHandler(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("Delete", mock.Anything, uint64(3), uint64(7)).Return(nil)

	w := do(router, http.MethodDelete, "/scripts/3", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	mockService.AssertExpectations(t)
}
