package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adminblog/core/internal/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeRedis implements the handful of commands the middlewares issue. Any
// other call panics through the nil embedded interface.
type fakeRedis struct {
	redis.Cmdable
	mu   sync.Mutex
	kv   map[string]string
	ints map[string]int64
	down bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{kv: map[string]string{}, ints: map[string]int64{}}
}

func (f *fakeRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return redis.NewIntResult(0, errors.New("connection refused"))
	}
	f.ints[key]++
	return redis.NewIntResult(f.ints[key], nil)
}

func (f *fakeRedis) PExpire(_ context.Context, _ string, _ time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.kv[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kv[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.kv[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.kv[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.kv, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

type stubVerifier struct{ token string }

func (s stubVerifier) Verify(token string) (*jwt.Claims, error) {
	if token == "" || token != s.token {
		return nil, errors.New("bad token")
	}
	return &jwt.Claims{Admin: true}, nil
}

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "", NormalizeToken("   "))
	assert.Equal(t, "abc", NormalizeToken("Bearer abc"))
	assert.Equal(t, "abc", NormalizeToken("bearer   abc "))
	assert.Equal(t, "abc", NormalizeToken("abc"))
}

func TestAuth(t *testing.T) {
	var reached bool
	r := gin.New()
	r.GET("/secret", Auth(stubVerifier{token: "good"}), func(c *gin.Context) {
		reached = true
		assert.NotNil(t, CurrentClaims(c))
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name    string
		header  string
		status  int
		reached bool
	}{
		{"missing header", "", http.StatusUnauthorized, false},
		{"wrong token", "Bearer nope", http.StatusUnauthorized, false},
		{"valid token", "Bearer good", http.StatusNoContent, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached = false
			req := httptest.NewRequest(http.MethodGet, "/secret", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.reached, reached)
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Logger(zap.NewNop()))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextKeyRequestID)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(HeaderRequestID)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
}

func TestLoginRateLimit(t *testing.T) {
	rdb := newFakeRedis()
	r := gin.New()
	r.POST("/auth", LoginRateLimit(rdb, 2, zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	rdb.down = true
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth", nil))
	assert.Equal(t, http.StatusOK, w.Code, "redis outage fails open")
}

func TestIdempotence(t *testing.T) {
	rdb := newFakeRedis()
	calls := 0
	r := gin.New()
	r.Use(Idempotence(rdb))
	r.POST("/resources", func(c *gin.Context) {
		calls++
		c.Status(http.StatusOK)
	})
	r.POST("/fail", func(c *gin.Context) {
		calls++
		c.Status(http.StatusBadRequest)
	})
	r.GET("/resources", func(c *gin.Context) {
		calls++
		c.Status(http.StatusOK)
	})

	send := func(method, path, body string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader(body)))
		return w.Code
	}

	require.Equal(t, http.StatusOK, send(http.MethodPost, "/resources", `{"a":1}`))
	assert.Equal(t, http.StatusConflict, send(http.MethodPost, "/resources", `{"a":1}`))
	assert.Equal(t, http.StatusOK, send(http.MethodPost, "/resources", `{"a":2}`))
	assert.Equal(t, 2, calls)

	assert.Equal(t, http.StatusBadRequest, send(http.MethodPost, "/fail", `x`))
	assert.Equal(t, http.StatusBadRequest, send(http.MethodPost, "/fail", `x`), "failed writes may be retried")

	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/resources", ""))
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/resources", ""))
	assert.Equal(t, 6, calls)
}

func TestIdempotence_ConcurrentDuplicatesRunOnce(t *testing.T) {
	const n = 20
	var calls atomic.Int32
	release := make(chan struct{})
	r := gin.New()
	r.Use(Idempotence(newFakeRedis()))
	r.POST("/resources", func(c *gin.Context) {
		calls.Add(1)
		<-release
		c.Status(http.StatusOK)
	})

	codes := make(chan int, n)
	for i := 0; i < n; i++ {
		go func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/resources", strings.NewReader(`{"a":1}`))
			req.Header.Set(idempotenceHeader, "same")
			r.ServeHTTP(w, req)
			codes <- w.Code
		}()
	}

	conflicts := 0
	timeout := time.After(2 * time.Second)
collect:
	for conflicts < n-1 {
		select {
		case code := <-codes:
			assert.Equal(t, http.StatusConflict, code)
			conflicts++
		case <-timeout:
			break collect
		}
	}
	close(release)
	for i := conflicts; i < n; i++ {
		<-codes
	}
	assert.Equal(t, n-1, conflicts)
	assert.EqualValues(t, 1, calls.Load())
}
