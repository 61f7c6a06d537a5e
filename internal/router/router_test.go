package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"govhub/internal/config"
	"govhub/internal/db"
	"govhub/internal/middleware"
	"govhub/internal/models"
	"govhub/internal/services"
	"govhub/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	cfg    *config.Config
	engine *gin.Engine
}

// newTestServer 内存库 + 完整路由，额外挂载 /test/login/:id 用于写入会话
func newTestServer(t *testing.T, mutate func(cfg *config.Config)) *testServer {
	t.Helper()
	conn, err := db.OpenMemory()
	require.NoError(t, err)
	prev := db.DB
	db.DB = conn
	utils.GetCache().Purge()

	cfg := config.Default()
	cfg.CronSecret = "cron-secret"
	if mutate != nil {
		mutate(cfg)
	}
	prevCfg := config.Get()
	config.Set(cfg)

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
		db.DB = prev
		config.Set(prevCfg)
	})

	engine := New(cfg, services.NewBlobStore(cfg.BlobAPIURL, cfg.BlobToken))
	engine.GET("/test/login/:id", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set(middleware.SessionUserKey, c.Param("id"))
		_ = session.Save()
		c.Status(http.StatusNoContent)
	})
	return &testServer{t: t, cfg: cfg, engine: engine}
}

// login 返回已登录会话的 cookie
func (s *testServer) login(user *models.User) *http.Cookie {
	s.t.Helper()
	w := s.do(http.MethodGet, "/test/login/"+user.ID, nil, nil)
	require.Equal(s.t, http.StatusNoContent, w.Code)
	return sessionCookie(s.t, w)
}

func (s *testServer) do(method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(req, cookie)
}

func (s *testServer) send(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

// sessionCookie 返回最后一个会话 cookie，与浏览器行为一致
func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	var found *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionName {
			found = c
		}
	}
	if found == nil {
		t.Fatalf("response did not set %s", sessionName)
	}
	return found
}

func countSessionCookies(w *httptest.ResponseRecorder) int {
	n := 0
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionName {
			n++
		}
	}
	return n
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["error"]
}

func createUser(t *testing.T, name string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Name: name, Role: role}
	require.NoError(t, db.DB.Create(u).Error)
	return u
}

func createWorkGroup(t *testing.T, admin *models.User, members ...*models.User) *models.WorkGroup {
	t.Helper()
	wg := &models.WorkGroup{Name: "Education", CreatedByID: admin.ID}
	require.NoError(t, db.DB.Create(wg).Error)
	require.NoError(t, db.DB.Create(&models.WorkGroupMember{
		WorkGroupID: wg.ID, UserID: admin.ID, Role: models.MemberRoleAdmin,
	}).Error)
	for _, m := range members {
		require.NoError(t, db.DB.Create(&models.WorkGroupMember{
			WorkGroupID: wg.ID, UserID: m.ID, Role: models.MemberRoleMember,
		}).Error)
	}
	return wg
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
}

func TestProtectedRoutesRequireLogin(t *testing.T) {
	s := newTestServer(t, nil)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodPost, "/api/votes"},
		{http.MethodPut, "/api/reports/r1/consensus-status"},
		{http.MethodPost, "/api/comments/c1/like"},
		{http.MethodGet, "/api/users/me"},
		{http.MethodGet, "/api/dashboard"},
	} {
		w := s.do(tc.method, tc.path, map[string]string{}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.path)
		assert.Equal(t, "Unauthorized", errorMessage(t, w), tc.path)
	}
}

func TestInvalidBodyReturns400(t *testing.T) {
	s := newTestServer(t, nil)
	user := createUser(t, "Alice", models.RoleCoreContributor)
	cookie := s.login(user)

	req := httptest.NewRequest(http.MethodPost, "/api/votes", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := s.send(req, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", errorMessage(t, w))
}

func TestCronExpire(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodGet, "/api/cron/expire", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/cron/expire", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, s.send(req, nil).Code)

	author := createUser(t, "Author", models.RoleCoreContributor)
	stale := &models.Proposal{
		Title: "Old idea", Description: "stale", AuthorID: author.ID,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	fresh := &models.Proposal{
		Title: "New idea", Description: "fresh", AuthorID: author.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, db.DB.Create(stale).Error)
	require.NoError(t, db.DB.Create(fresh).Error)

	req = httptest.NewRequest(http.MethodGet, "/api/cron/expire", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")
	w = s.send(req, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	result := decode[services.ExpiryResult](t, w)
	assert.Equal(t, int64(1), result.ExpiredProposals)
	assert.Equal(t, int64(0), result.ClosedRounds)

	require.NoError(t, db.DB.First(stale, "id = ?", stale.ID).Error)
	assert.Equal(t, models.ProposalExpired, stale.Status)
}

func TestCronExpireDisabledWithoutSecret(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.CronSecret = "" })

	req := httptest.NewRequest(http.MethodGet, "/api/cron/expire", nil)
	req.Header.Set("Authorization", "Bearer ")
	assert.Equal(t, http.StatusUnauthorized, s.send(req, nil).Code)
}
