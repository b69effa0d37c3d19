package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fixedttl-cache/internal/auth"
	"fixedttl-cache/internal/cache"
	"fixedttl-cache/internal/middleware"
	"fixedttl-cache/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var testTokens = auth.NewManager("test-secret", "fixedttl-cache", "fixedttl-cache-clients", time.Hour)

func newTestCache(ttl time.Duration) (*CacheStore, *cache.ExpireTask[string, string, cache.Backend[string, string]]) {
	return cache.New[string, string](cache.NewBuilder(ttl).EmptyDelay(10*time.Millisecond).Build(),
		cache.Backend[string, string](cache.NewOrderedStorage[string, string]()))
}

func newProtectedEngine() (*gin.Engine, *gin.RouterGroup) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api")
	g.Use(middleware.JWTAuthMiddleware(testTokens))
	return r, g
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	token, err := testTokens.GenerateToken("u-1", "alice")
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type recordingClient struct {
	msgs chan []byte
}

func (c *recordingClient) Send(message []byte) bool {
	c.msgs <- message
	return true
}

func (c *recordingClient) Close() {}

var _ realtime.Client = (*recordingClient)(nil)
