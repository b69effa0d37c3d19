package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fixedttl-cache/internal/auth"
	"fixedttl-cache/internal/cache"
	"fixedttl-cache/internal/realtime"
	"fixedttl-cache/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestRouter(t *testing.T) (*gin.Engine, *auth.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	c, _ := cache.New[string, string](cache.NewConfig(time.Minute), cache.Backend[string, string](cache.NewMapStorage[string, string]()))
	tokens := auth.NewManager("secret", "iss", "aud", time.Hour)

	return SetupRoutes(Deps{
		Cache:  c,
		Hub:    realtime.NewHub(),
		DB:     db,
		Tokens: tokens,
		Logger: zaptest.NewLogger(t),
	}), tokens
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r, tokens := newTestRouter(t)

	for _, path := range []string{"/api/cache", "/api/cache/k", "/api/stats", "/api/users"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	token, err := tokens.GenerateToken("u-1", "alice")
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/cache/k", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
