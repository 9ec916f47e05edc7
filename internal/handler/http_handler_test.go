package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-live/post-service/internal/consumer"
	"github.com/weiawesome/wes-io-live/post-service/internal/domain"
	"github.com/weiawesome/wes-io-live/post-service/internal/gate"
	"github.com/weiawesome/wes-io-live/post-service/internal/repository"
	"github.com/weiawesome/wes-io-live/post-service/internal/service"
	"github.com/weiawesome/wes-io-live/post-service/internal/store"
	"github.com/weiawesome/wes-io-live/post-service/internal/testutil"
	"github.com/weiawesome/wes-io-live/post-service/pkg/jwt"
	"github.com/weiawesome/wes-io-live/post-service/pkg/middleware"
)

var testSecret = []byte("test-secret")

type fakeIngestor struct {
	state consumer.State
}

func (f *fakeIngestor) State() consumer.State { return f.state }

type fakePublisher struct {
	mu     sync.Mutex
	events []*domain.PostEvent
}

func (f *fakePublisher) PublishAsync(event *domain.PostEvent) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return true
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testServer struct {
	router   *gin.Engine
	pub      *fakePublisher
	ingestor *fakeIngestor
}

func newTestServer(t *testing.T, cachedUsers ...string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewSQLiteDB(t)
	users := store.NewGormUserCacheStore(db)
	for _, u := range cachedUsers {
		require.NoError(t, users.Upsert(context.Background(), u))
	}

	pub := &fakePublisher{}
	svc := service.NewPostService(
		repository.NewGormPostRepository(db),
		repository.NewGormLikeRepository(db),
		gate.New(users, true),
		pub,
	)

	verifier, err := jwt.NewHMACVerifier(testSecret, "")
	require.NoError(t, err)

	ingestor := &fakeIngestor{state: consumer.StateRunning}
	r := gin.New()
	NewHandler(svc, middleware.NewAuthMiddleware(verifier), ingestor).RegisterRoutes(r)

	return &testServer{router: r, pub: pub, ingestor: ingestor}
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := jwt.SignHMAC(testSecret, &jwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Type: "access",
	})
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, userID string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, userID))
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestScenario_CreateLikeCountDelete(t *testing.T) {
	s := newTestServer(t, "1", "2")

	w, env := s.do(t, http.MethodPost, "/posts", "1", map[string]string{"userId": "1", "title": "T", "content": "C"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	post := decode[domain.PostView](t, env)
	require.NotEmpty(t, post.PostID)
	assert.Zero(t, post.LikeCount)
	assert.Equal(t, 1, s.pub.count())

	w, env = s.do(t, http.MethodPost, "/posts/"+post.PostID+"/like", "2", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	like := decode[domain.LikeView](t, env)
	assert.Equal(t, "2", like.UserID)
	assert.Equal(t, post.PostID, like.PostID)

	w, env = s.do(t, http.MethodGet, "/posts/"+post.PostID+"/likes/count", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode[domain.LikeCountResponse](t, env).Count)

	w, _ = s.do(t, http.MethodDelete, "/posts/"+post.PostID, "1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w, env = s.do(t, http.MethodGet, "/posts/"+post.PostID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestScenario_UncachedUser(t *testing.T) {
	s := newTestServer(t, "1")

	w, env := s.do(t, http.MethodPost, "/posts", "999", map[string]string{"userId": "999", "title": "T", "content": "C"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User not found", env.Error.Message)
	assert.Zero(t, s.pub.count())
}

func TestCreatePost_Validation(t *testing.T) {
	s := newTestServer(t, "1")

	w, _ := s.do(t, http.MethodPost, "/posts", "1", map[string]string{"userId": "1", "title": "T"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	long := string(bytes.Repeat([]byte("x"), 256))
	w, _ = s.do(t, http.MethodPost, "/posts", "1", map[string]string{"userId": "1", "title": long, "content": "C"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := s.do(t, http.MethodPost, "/posts", "1", map[string]string{"userId": "2", "title": "T", "content": "C"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, "1")

	w, env := s.do(t, http.MethodPost, "/posts", "", map[string]string{"userId": "1", "title": "T", "content": "C"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	w, _ = s.do(t, http.MethodGet, "/posts", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateAndDelete_Ownership(t *testing.T) {
	s := newTestServer(t, "1", "2")

	_, env := s.do(t, http.MethodPost, "/posts", "1", map[string]string{"userId": "1", "title": "T", "content": "C"})
	post := decode[domain.PostView](t, env)

	w, _ := s.do(t, http.MethodPut, "/posts/"+post.PostID, "2", map[string]string{"title": "hijack"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/posts/"+post.PostID, "2", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodPut, "/posts/"+post.PostID, "1", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(t, http.MethodPut, "/posts/"+post.PostID, "1", map[string]string{"content": "edited"})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[domain.PostView](t, env)
	assert.Equal(t, "T", updated.Title)
	assert.Equal(t, "edited", updated.Content)

	w, _ = s.do(t, http.MethodPut, "/posts/missing", "1", map[string]string{"title": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(t, http.MethodDelete, "/posts/missing", "1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLikeEndpoints(t *testing.T) {
	s := newTestServer(t, "1", "2")

	_, env := s.do(t, http.MethodPost, "/posts", "1", map[string]string{"userId": "1", "title": "T", "content": "C"})
	post := decode[domain.PostView](t, env)
	base := "/posts/" + post.PostID

	_, env = s.do(t, http.MethodPost, base+"/like", "2", nil)
	first := decode[domain.LikeView](t, env)
	w, env := s.do(t, http.MethodPost, base+"/like", "2", nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, first.LikeID, decode[domain.LikeView](t, env).LikeID)

	w, env = s.do(t, http.MethodGet, base+"/like/status", "2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[domain.LikeStatusResponse](t, env).HasLiked)

	w, _ = s.do(t, http.MethodGet, base+"/like/status", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env = s.do(t, http.MethodGet, base, "2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	viewed := decode[domain.PostView](t, env)
	assert.True(t, viewed.HasLiked)
	assert.Equal(t, int64(1), viewed.LikeCount)

	w, _ = s.do(t, http.MethodDelete, base+"/like", "2", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, _ = s.do(t, http.MethodDelete, base+"/like", "2", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = s.do(t, http.MethodPost, base+"/like", "999", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, tc := range []struct{ method, path, user string }{
		{http.MethodPost, "/posts/missing/like", "2"},
		{http.MethodDelete, "/posts/missing/like", "2"},
		{http.MethodGet, "/posts/missing/likes/count", ""},
		{http.MethodGet, "/posts/missing/like/status", "2"},
	} {
		w, _ := s.do(t, tc.method, tc.path, tc.user, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestListEndpoints(t *testing.T) {
	s := newTestServer(t, "1", "2")

	for _, u := range []string{"1", "1", "2"} {
		w, _ := s.do(t, http.MethodPost, "/posts", u, map[string]string{"userId": u, "title": "T", "content": "C"})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, env := s.do(t, http.MethodGet, "/posts?limit=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[domain.ListPostsResponse](t, env)
	assert.Len(t, page.Posts, 2)
	assert.Equal(t, 2, page.Limit)

	w, env = s.do(t, http.MethodGet, "/users/1/posts", "2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[domain.ListPostsResponse](t, env)
	assert.Len(t, mine.Posts, 2)
	for _, p := range mine.Posts {
		assert.Equal(t, "1", p.UserID)
	}

	w, _ = s.do(t, http.MethodGet, "/posts?limit=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","ingestor":"running"}`, w.Body.String())

	s.ingestor.state = consumer.StateConnecting
	w, _ = s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
