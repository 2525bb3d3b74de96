package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", Bearer("secret", "cardattend"), func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, claims.Subject)
	})
	return r
}

func get(r http.Handler, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBearer(t *testing.T) {
	r := newRouter()
	pair, err := Issue("user-1", "cardattend", "secret", time.Minute, time.Hour)
	require.NoError(t, err)

	w := get(r, "Bearer "+pair.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", w.Body.String())
}

func TestBearer_Rejects(t *testing.T) {
	r := newRouter()
	pair, err := Issue("user-1", "cardattend", "secret", time.Minute, time.Hour)
	require.NoError(t, err)

	for name, authz := range map[string]string{
		"missing":       "",
		"garbage":       "Bearer nope",
		"refresh token": "Bearer " + pair.RefreshToken,
	} {
		t.Run(name, func(t *testing.T) {
			w := get(r, authz)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"level":"error"`)
		})
	}
}
