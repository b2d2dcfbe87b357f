package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"screenplay-collab/internal/auth"
	"screenplay-collab/internal/domain"
	"screenplay-collab/internal/errors"
	"screenplay-collab/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockService is a mock implementation of the Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockService) GetUserByID(ctx context.Context, id uint64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockService) UpdateProfile(ctx context.Context, id uint64, input ProfileInput) (*domain.User, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockService) ChangeRole(ctx context.Context, actorID, userID uint64, role domain.UserRole) (*domain.User, error) {
	args := m.Called(ctx, actorID, userID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockService) DeactivateUser(ctx context.Context, actorID, userID uint64) error {
	args := m.Called(ctx, actorID, userID)
	return args.Error(0)
}

func (m *MockService) IncreaseTokenVersion(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler(zerolog.Nop()))
	return router
}

func newHandler(service Service) *Handler {
	return NewHandler(service, auth.NewTokenManager("test-secret", time.Hour))
}

func postJSON(router *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegister_Success(t *testing.T) {
	mockService := new(MockService)
	handler := newHandler(mockService)
	router := setupRouter()

	mockService.On("Register", mock.Anything, mock.MatchedBy(func(user *domain.User) bool {
		return user.Name == "John Doe" &&
			user.Email == "john@example.com" &&
			user.Password == "password123" &&
			user.Role == domain.UserRoleMonitor
	})).Return(nil).Run(func(args mock.Arguments) {
		user := args.Get(1).(*domain.User)
		user.ID = 1
		user.CreatedAt = time.Now()
	})

	router.POST("/register", handler.Register)

	w := postJSON(router, "/register", FormRegister{
		Name:     "John Doe",
		Email:    "john@example.com",
		Password: "password123",
		Role:     "monitor",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.NotNil(t, response["user"])
	mockService.AssertExpectations(t)
}

func TestRegister_InvalidInput(t *testing.T) {
	router := setupRouter()
	router.POST("/register", newHandler(new(MockService)).Register)

	cases := map[string]interface{}{
		"missing fields": struct{ Name string }{Name: "John Doe"},
		"invalid email":  FormRegister{Name: "John", Email: "invalid-email", Password: "password123"},
		"short password": FormRegister{Name: "John", Email: "john@example.com", Password: "123"},
		"unknown role":   FormRegister{Name: "John", Email: "john@example.com", Password: "password123", Role: "admin"},
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			w := postJSON(router, "/register", payload)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter()
	router.POST("/register", newHandler(mockService).Register)

	mockService.On("Register", mock.Anything, mock.Anything).Return(errors.Conflict("User already registered", nil))

	w := postJSON(router, "/register", FormRegister{Name: "John", Email: "john@example.com", Password: "password123"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin_Success(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter()
	router.POST("/login", newHandler(mockService).Login)

	user := &domain.User{ID: 1, Name: "John Doe", Email: "john@example.com", IsActive: true}
	mockService.On("Login", mock.Anything, "john@example.com", "password123").Return(user, nil)

	w := postJSON(router, "/login", FormLogin{Email: "john@example.com", Password: "password123"})

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.NotEmpty(t, response["access_token"])
	assert.NotNil(t, response["user"])
	mockService.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter()
	router.POST("/login", newHandler(mockService).Login)

	mockService.On("Login", mock.Anything, "john@example.com", "nope").
		Return(nil, errors.Unauthorized("Wrong email or password", nil))

	w := postJSON(router, "/login", FormLogin{Email: "john@example.com", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockService.AssertExpectations(t)
}

func TestLogout_Success(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter()
	handler := newHandler(mockService)

	mockService.On("IncreaseTokenVersion", mock.Anything, uint64(7)).Return(nil)

	router.DELETE("/logout", func(c *gin.Context) {
		c.Set("user_id", uint64(7))
		handler.Logout(c)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/logout", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockService.AssertExpectations(t)
}

func TestChangeRole_Forbidden(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter()
	handler := newHandler(mockService)

	mockService.On("ChangeRole", mock.Anything, uint64(1), uint64(2), domain.UserRoleMonitor).
		Return(nil, errors.Forbidden("Only an admin can change roles", nil))

	router.PUT("/users/:id/role", func(c *gin.Context) {
		c.Set("user_id", uint64(1))
		handler.ChangeRole(c)
	})

	body, _ := json.Marshal(FormRole{Role: "monitor"})
	req := httptest.NewRequest(http.MethodPut, "/users/2/role", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockService.AssertExpectations(t)
}
