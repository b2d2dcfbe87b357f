package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		query    string
		page     int
		pageSize int
	}{
		{"", 1, 10},
		{"?page=3&per_page=25", 3, 25},
		{"?page=-1&per_page=500", 1, 10},
		{"?page=abc", 1, 10},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/"+tc.query, nil)

		page, pageSize := GetPaginationParams(c)
		assert.Equal(t, tc.page, page, tc.query)
		assert.Equal(t, tc.pageSize, pageSize, tc.query)
	}
}

func TestParamID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "42"}}
	id, err := ParamID(c, "id")
	assert.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	c.Params = gin.Params{{Key: "id", Value: "0"}}
	_, err = ParamID(c, "id")
	assert.Error(t, err)

	c.Params = gin.Params{{Key: "id", Value: "x"}}
	_, err = ParamID(c, "id")
	assert.Error(t, err)
}
