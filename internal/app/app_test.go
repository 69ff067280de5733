package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/adminblog/core/internal/config"
	"github.com/adminblog/core/internal/pkg/filestore"
	"github.com/adminblog/core/internal/pkg/filestore/filestoretest"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Port:     2333,
		Env:      "development",
		LogLevel: "info",
		Site:     config.SiteConfig{Title: "Test Blog"},
		Auth: config.AuthConfig{
			Password:  "hunter2",
			JWTSecret: "test-secret",
			TokenTTL:  2 * time.Hour,
		},
		Store: config.StoreConfig{
			Driver:        config.DriverMemory,
			Timeout:       time.Second,
			PostsDir:      "data/md",
			ResourcesPath: "data/json/resources.json",
		},
	}
}

func newTestApp(t *testing.T, store filestore.Store, rdb redis.Cmdable) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	a, err := build(zap.NewNop(), testConfig(), store, rdb)
	require.NoError(t, err)
	return a
}

func call(a *App, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, req)
	return w
}

func login(t *testing.T, a *App) string {
	t.Helper()
	w := call(a, http.MethodPost, "/auth", "", `{"password":"hunter2"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Token
}

var writes = []struct {
	method, path, body string
}{
	{http.MethodPost, "/posts", `{"title":"T","content":"c"}`},
	{http.MethodPut, "/posts", `{"slug":"t","title":"T","content":"c"}`},
	{http.MethodDelete, "/posts", `{"slug":"t"}`},
	{http.MethodPost, "/resources", `{"a":1}`},
	{http.MethodPut, "/resources", `{"index":0,"resource":1}`},
	{http.MethodDelete, "/resources", `{"index":0}`},
}

func TestUnauthorizedWritesNeverReachStore(t *testing.T) {
	counting := filestoretest.NewCounting(filestore.NewMemory())
	// A nil redis.Cmdable panics on any command, so reaching the
	// idempotence middleware would surface as a 500.
	a := newTestApp(t, counting, struct{ redis.Cmdable }{})

	for _, w := range writes {
		for _, token := range []string{"", "garbage"} {
			rec := call(a, w.method, w.path, token, w.body)
			assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", w.method, w.path)
		}
	}
	assert.Zero(t, counting.Calls())
}

func TestPostFlow(t *testing.T) {
	a := newTestApp(t, filestore.NewMemory(), nil)
	token := login(t, a)

	w := call(a, http.MethodPost, "/posts", token, `{"title":"Hello World","date":"2024-05-01","content":"Body text\n\nMore."}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"ok":true,"slug":"hello-world"}`, w.Body.String())

	w = call(a, http.MethodGet, "/posts/hello-world", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Body text\n\nMore.", got["content"])
	assert.Equal(t, "Hello World", got["title"])

	w = call(a, http.MethodGet, "/posts", "", "")
	assert.JSONEq(t, `[{"title":"Hello World","date":"2024-05-01","slug":"hello-world"}]`, w.Body.String())

	w = call(a, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<a href="/hello-world">Hello World</a>`)
	assert.Contains(t, w.Body.String(), "Body text")
	assert.NotContains(t, w.Body.String(), "More.")

	w = call(a, http.MethodGet, "/hello-world", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<p>Body text</p>")

	w = call(a, http.MethodGet, "/no-such-post", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
}

func TestResourceFlow(t *testing.T) {
	a := newTestApp(t, filestore.NewMemory(), nil)
	token := login(t, a)

	require.Equal(t, http.StatusOK, call(a, http.MethodPost, "/resources", token, `{"name":"Go"}`).Code)
	w := call(a, http.MethodDelete, "/resources", token, `{"index":3}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(a, http.MethodGet, "/resources", "", "")
	assert.JSONEq(t, `[{"name":"Go"}]`, w.Body.String())
}

func TestMiscRoutes(t *testing.T) {
	a := newTestApp(t, filestore.NewMemory(), nil)

	w := call(a, http.MethodGet, "/ping", "", "")
	assert.JSONEq(t, `{"data":"pong"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = call(a, http.MethodGet, "/uptime", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(a, http.MethodGet, "/a/b/c", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":0`)

	w = call(a, http.MethodPatch, "/posts", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestNewFileStore(t *testing.T) {
	cfg := testConfig().Store
	s, err := newFileStore(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, s)

	cfg.Driver = config.DriverGitHub
	cfg.GitHub = config.GitHubConfig{Owner: "me", Repo: "blog", Branch: "main"}
	_, err = newFileStore(cfg, zap.NewNop())
	assert.NoError(t, err)

	cfg.Driver = config.DriverS3
	_, err = newFileStore(cfg, zap.NewNop())
	assert.Error(t, err, "s3 without credentials")

	cfg.Driver = "ftp"
	_, err = newFileStore(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestMatchOriginPattern(t *testing.T) {
	assert.True(t, matchOriginPattern("example.com", "example.com"))
	assert.True(t, matchOriginPattern("*.example.com", "blog.example.com"))
	assert.False(t, matchOriginPattern("*.example.com", "example.org"))
	assert.True(t, matchOriginPattern("localhost:*", "localhost:5173"))
	assert.Equal(t, "example.com", extractOriginHost("https://example.com"))
	assert.Equal(t, "*.example.com", extractOriginHost("*.example.com"))
}

func TestCORS_Production(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	cfg.Env = "production"
	cfg.AllowedOrigins = []string{"https://admin.example.com"}
	a, err := build(zap.NewNop(), cfg, filestore.NewMemory(), nil)
	require.NoError(t, err)

	for origin, allowed := range map[string]bool{
		"https://admin.example.com": true,
		"https://evil.example.net":  false,
	} {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		a.Router().ServeHTTP(w, req)
		if allowed {
			assert.Equal(t, origin, w.Header().Get("Access-Control-Allow-Origin"))
		} else {
			assert.Equal(t, http.StatusForbidden, w.Code)
		}
	}
}
