package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"screenplay-collab/internal/auth"
	"screenplay-collab/internal/domain"
	"screenplay-collab/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockUserProvider struct {
	mock.Mock
}

func (m *mockUserProvider) GetUserByID(ctx context.Context, id uint64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestLogger(zerolog.Nop()), ErrorHandler(zerolog.Nop()))
	return router
}

func TestErrorHandler_MapsErrors(t *testing.T) {
	router := setupRouter()
	router.GET("/api", func(c *gin.Context) { c.Error(errors.Expired("Link expired", nil)) })
	router.GET("/missing", func(c *gin.Context) { c.Error(gorm.ErrRecordNotFound) })
	router.GET("/raw", func(c *gin.Context) { c.Error(assert.AnError) })

	cases := map[string]int{
		"/api":     http.StatusGone,
		"/missing": http.StatusNotFound,
		"/raw":     http.StatusInternalServerError,
	}
	for path, status := range cases {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, status, w.Code, path)
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	}
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	users := new(mockUserProvider)
	m := &Auth{UserService: users, Tokens: tokens}

	users.On("GetUserByID", mock.Anything, uint64(1)).Return(&domain.User{ID: 1, IsActive: true, TokenVersion: 2}, nil)
	users.On("GetUserByID", mock.Anything, uint64(2)).Return(&domain.User{ID: 2, IsActive: false}, nil)

	router := setupRouter()
	router.GET("/me", m.AuthMiddleWare(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.GetUint64("user_id")})
	})

	valid, err := tokens.Generate(1, 2)
	require.NoError(t, err)
	stale, err := tokens.Generate(1, 1)
	require.NoError(t, err)
	inactive, err := tokens.Generate(2, 0)
	require.NoError(t, err)

	cases := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"valid", "/me", "Bearer " + valid, http.StatusOK},
		{"missing", "/me", "", http.StatusUnauthorized},
		{"query token ignored", "/me?token=" + valid, "", http.StatusUnauthorized},
		{"garbage", "/me", "Bearer nope", http.StatusUnauthorized},
		{"stale version", "/me", "Bearer " + stale, http.StatusUnauthorized},
		{"inactive user", "/me", "Bearer " + inactive, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}
