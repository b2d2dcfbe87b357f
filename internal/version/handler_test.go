package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"screenplay-collab/internal/domain"
	"screenplay-collab/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Commit(ctx context.Context, scriptID, authorID uint64, input CommitInput) (*domain.ScriptVersion, error) {
	args := m.Called(ctx, scriptID, authorID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScriptVersion), args.Error(1)
}

func (m *MockService) List(ctx context.Context, scriptID, userID uint64, page, pageSize int) (*PaginatedVersions, error) {
	args := m.Called(ctx, scriptID, userID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PaginatedVersions), args.Error(1)
}

func (m *MockService) Get(ctx context.Context, scriptID, userID, number uint64) (*domain.ScriptVersion, error) {
	args := m.Called(ctx, scriptID, userID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScriptVersion), args.Error(1)
}

func (m *MockService) Latest(ctx context.Context, scriptID, userID uint64) (*domain.ScriptVersion, error) {
	args := m.Called(ctx, scriptID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScriptVersion), args.Error(1)
}

func (m *MockService) Diff(ctx context.Context, scriptID, userID, from, to uint64) (*DiffResult, error) {
	args := m.Called(ctx, scriptID, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DiffResult), args.Error(1)
}

func setupRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler(zerolog.Nop()))
	router.Use(func(c *gin.Context) {
		c.Set("user_id", uint64(2))
		c.Next()
	})
	router.GET("/scripts/:id/versions/latest", h.Latest)
	router.GET("/scripts/:id/versions/:number", h.Show)
	router.GET("/scripts/:id/diff", h.Diff)
	return router
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestDiffHandler(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("Diff", mock.Anything, uint64(5), uint64(2), uint64(1), uint64(3)).
		Return(&DiffResult{From: 1, To: 3, Added: 4, Removed: 2}, nil)

	w := get(router, "/scripts/5/diff?from=1&to=3")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"added":4`)

	w = get(router, "/scripts/5/diff?from=1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNumberOfCalls(t, "Diff", 1)
}

func TestLatestAndShowRoutes(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("Latest", mock.Anything, uint64(5), uint64(2)).Return(&domain.ScriptVersion{VersionNumber: 7}, nil)
	mockService.On("Get", mock.Anything, uint64(5), uint64(2), uint64(3)).Return(&domain.ScriptVersion{VersionNumber: 3}, nil)

	assert.Contains(t, get(router, "/scripts/5/versions/latest").Body.String(), `"version_number":7`)
	assert.Contains(t, get(router, "/scripts/5/versions/3").Body.String(), `"version_number":3`)
	assert.Equal(t, http.StatusBadRequest, get(router, "/scripts/5/versions/zero").Code)
	mockService.AssertExpectations(t)
}
