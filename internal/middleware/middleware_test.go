package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"zugzwang/internal/models"
	"zugzwang/internal/store"
	"zugzwang/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var testVerifier = JWTVerifier{Secret: []byte("test-secret-key-32-bytes-long!!!")}

func init() {
	gin.SetMode(gin.TestMode)
}

type testUsers struct {
	mem   *store.Memory
	user  models.User
	admin models.User
}

func newUsers(t *testing.T) testUsers {
	t.Helper()
	mem := store.NewMemory()
	u := models.User{Login: "alice", Email: "alice@example.com"}
	a := models.User{Login: "root", Email: "root@example.com", Status: models.RoleAdmin}
	require.NoError(t, mem.CreateUser(context.Background(), &u))
	require.NoError(t, mem.CreateUser(context.Background(), &a))
	return testUsers{mem: mem, user: u, admin: a}
}

func newEngine(users store.Users, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	r.Use(sessions.Sessions("zugzwang_session", cookie.NewStore([]byte("session-secret"))))
	r.Use(Logger(log))
	r.Use(LoadViewer(testVerifier, users))

	r.GET("/whoami", func(c *gin.Context) {
		v := ViewerFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": v.ID, "role": v.Role})
	})
	r.GET("/private", AuthRequired(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/admin", AdminRequired(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.POST("/login/:id", func(c *gin.Context) {
		id, _ := utils.ParseID(c.Param("id"))
		session := sessions.Default(c)
		session.Set(SessionUserKey, id)
		if err := session.Save(); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sign(t *testing.T, id uint, ttl time.Duration) string {
	t.Helper()
	tok, err := testVerifier.Sign(id, "", ttl)
	require.NoError(t, err)
	return tok
}

func TestJWTVerifier(t *testing.T) {
	tok := sign(t, 42, time.Hour)
	claims, err := testVerifier.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)

	_, err = JWTVerifier{Secret: []byte("wrong")}.Parse(tok)
	assert.Error(t, err)

	_, err = testVerifier.Parse(sign(t, 42, -time.Hour))
	assert.Error(t, err, "expired")

	_, err = testVerifier.Parse("not.a.token")
	assert.Error(t, err)
}

func TestLoadViewerFromBearer(t *testing.T) {
	users := newUsers(t)
	r := newEngine(users.mem, zap.NewNop())

	w := do(r, http.MethodGet, "/whoami", sign(t, users.admin.ID, time.Hour))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":2,"role":"admin"}`, w.Body.String())

	w = do(r, http.MethodGet, "/whoami", "")
	assert.JSONEq(t, `{"id":0,"role":""}`, w.Body.String())

	w = do(r, http.MethodGet, "/whoami", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = do(r, http.MethodGet, "/whoami", sign(t, 99, time.Hour))
	assert.Equal(t, http.StatusUnauthorized, w.Code, "token for a deleted user")
}

func TestLoadViewerFromSession(t *testing.T) {
	users := newUsers(t)
	r := newEngine(users.mem, zap.NewNop())

	login := do(r, http.MethodPost, "/login/1", "")
	require.Equal(t, http.StatusNoContent, login.Code)
	cookies := login.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.JSONEq(t, `{"id":1,"role":"user"}`, w.Body.String())
}

func TestAuthGuards(t *testing.T) {
	users := newUsers(t)
	r := newEngine(users.mem, zap.NewNop())
	userTok := sign(t, users.user.ID, time.Hour)
	adminTok := sign(t, users.admin.ID, time.Hour)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/private", "").Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/private", userTok).Code)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/admin", "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/admin", userTok).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/admin", adminTok).Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	users := newUsers(t)
	core, logs := observer.New(zapcore.InfoLevel)
	r := newEngine(users.mem, zap.New(core))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "abc-123", fields["request_id"])
	assert.Equal(t, "/whoami", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
}
