package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/anhbaysgalan1/teenpatti/internal/auth"
	"github.com/anhbaysgalan1/teenpatti/internal/config"
	"github.com/anhbaysgalan1/teenpatti/internal/database/dbtest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, redisURL string) *TeenPattiServer {
	t.Helper()
	cfg := &config.Config{
		Environment:   "test",
		Port:          "0",
		JWTSecret:     "test-secret",
		RedisURL:      redisURL,
		TableCacheTTL: time.Minute,
	}
	s, err := New(cfg, dbtest.New(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		s.engine.Close()
		s.apiRateLimiter.Close()
		s.betRateLimiter.Close()
		if s.redis != nil {
			s.redis.Close()
		}
	})
	return s
}

func TestRouter_HealthAndAuth(t *testing.T) {
	s := newTestServer(t, "")
	router := s.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tables", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := s.jwtManager.GenerateToken(uuid.New(), "amara", auth.RolePlayer)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_WebsocketRequiresTokenAndGame(t *testing.T) {
	s := newTestServer(t, "")
	router := s.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := s.jwtManager.GenerateToken(uuid.New(), "amara", auth.RolePlayer)
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?token="+token+"&game_id=nope", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?token="+token+"&game_id="+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth_ChecksRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	s := newTestServer(t, "redis://"+mr.Addr())
	require.NotNil(t, s.cache)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	mr.Close()
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
