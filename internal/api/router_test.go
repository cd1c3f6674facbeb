package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/albumy/internal/api/handler"
	"github.com/d60-Lab/albumy/internal/imaging"
	"github.com/d60-Lab/albumy/internal/mailer"
	"github.com/d60-Lab/albumy/internal/repository"
	"github.com/d60-Lab/albumy/internal/service"
	"github.com/d60-Lab/albumy/pkg/database"
	"github.com/d60-Lab/albumy/pkg/token"
)

type inbox struct {
	mu   sync.Mutex
	msgs []mailer.Message
}

func (b *inbox) Enqueue(msg mailer.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, msg)
}

func (b *inbox) tokenFor(t *testing.T, to string) string {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.msgs) - 1; i >= 0; i-- {
		if b.msgs[i].To == to {
			return b.msgs[i].Token
		}
	}
	t.Fatalf("no mail for %s", to)
	return ""
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	store  *repository.Store
	mail   *inbox
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	db := database.OpenTest(t)
	store := repository.NewStore(db)
	mail := &inbox{}
	timeout := 5 * time.Second

	images, err := imaging.NewLocalStore(t.TempDir(), map[string]int{"small": 4})
	require.NoError(t, err)
	notifications := service.NewNotificationService(store, timeout, 20)
	identity := service.NewIdentityService(store, timeout, token.NewManager("test", time.Hour, time.Hour), mail,
		service.IdentityOptions{BcryptCost: bcrypt.MinCost})

	h := handler.New(handler.Services{
		Identity:      identity,
		Relations:     service.NewRelationshipService(store, timeout, 20),
		Collects:      service.NewCollectService(store, timeout, notifications, 20),
		Comments:      service.NewCommentService(store, timeout, 15),
		Tags:          service.NewTagService(store, timeout),
		Photos:        service.NewPhotoService(store, timeout, images, 12),
		Feed:          service.NewFeedService(store, timeout, service.FeedOptions{PhotoPerPage: 12, SearchPerPage: 20}),
		Notifications: notifications,
		Images:        images,
	}, 1<<20)

	opts.Mode = gin.TestMode
	r, err := NewRouter(h, identity, opts)
	require.NoError(t, err)
	return &testServer{t: t, router: r, store: store, mail: mail}
}

type envelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(method, path, bearer string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return s.serve(req, bearer)
}

func (s *testServer) serve(req *http.Request, bearer string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "text/plain; charset=utf-8" {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

// signup 注册、登录并确认邮箱，返回访问令牌与用户ID
func (s *testServer) signup(username string) (string, string) {
	s.t.Helper()
	email := username + "@example.com"
	w, env := s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": username, "email": email, "username": username, "password": "password123",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var u struct {
		ID string `json:"id"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &u))

	w, env = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": "password123"})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &login))

	w, _ = s.do(http.MethodPost, "/api/v1/auth/confirm", login.Token, gin.H{"token": s.mail.tokenFor(s.t, email)})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return login.Token, u.ID
}

func (s *testServer) upload(bearer, description string) string {
	s.t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var pic bytes.Buffer
	require.NoError(s.t, png.Encode(&pic, img))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "photo.png")
	require.NoError(s.t, err)
	_, err = fw.Write(pic.Bytes())
	require.NoError(s.t, err)
	require.NoError(s.t, mw.WriteField("description", description))
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/photos", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w, env := s.serve(req, bearer)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var p struct {
		ID        string `json:"id"`
		FilenameS string `json:"filename_s"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &p))
	assert.NotEmpty(s.t, p.FilenameS)
	return p.ID
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, Options{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestCollectFlowNotifiesAuthor(t *testing.T) {
	s := newTestServer(t, Options{})
	alice, _ := s.signup("alice")
	bob, _ := s.signup("bob")
	photoID := s.upload(alice, "sunset")

	w, _ := s.do(http.MethodPost, "/api/v1/photos/"+photoID+"/collect", bob, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env := s.do(http.MethodPost, "/api/v1/photos/"+photoID+"/collect", bob, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_collected", env.Code)

	w, env = s.do(http.MethodGet, "/api/v1/notifications/unread-count", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":1}`, string(env.Data))

	w, env = s.do(http.MethodPost, "/api/v1/notifications/read-all", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"updated":1}`, string(env.Data))
}

func TestFollowAndHomeFeed(t *testing.T) {
	s := newTestServer(t, Options{})
	alice, aliceID := s.signup("alice")
	bob, _ := s.signup("bob")
	s.upload(alice, "one")

	w, env := s.do(http.MethodPost, "/api/v1/users/"+aliceID+"/follow", bob, nil)
	require.Equal(t, http.StatusOK, w.Code, env.Message)

	w, env = s.do(http.MethodPost, "/api/v1/users/"+aliceID+"/follow", alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "self_follow", env.Code)

	w, env = s.do(http.MethodGet, "/api/v1/feed", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var feed service.HomeFeed
	require.NoError(t, json.Unmarshal(env.Data, &feed))
	assert.False(t, feed.Anonymous)
	require.NotNil(t, feed.Photos)
	assert.EqualValues(t, 1, feed.Photos.Total)

	w, env = s.do(http.MethodGet, "/api/v1/feed", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"anonymous":true}`, string(env.Data))
}

func TestCommentsAndTags(t *testing.T) {
	s := newTestServer(t, Options{})
	alice, _ := s.signup("alice")
	bob, _ := s.signup("bob")
	photoID := s.upload(alice, "beach")

	w, env := s.do(http.MethodPost, "/api/v1/photos/"+photoID+"/tags", alice, gin.H{"tags": "red blue red"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tags []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tags))
	assert.Len(t, tags, 2)

	w, env = s.do(http.MethodPost, "/api/v1/photos/"+photoID+"/tags", bob, gin.H{"tags": "green"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", env.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/photos/"+photoID+"/toggle-comment", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, env = s.do(http.MethodPost, "/api/v1/photos/"+photoID+"/comments", bob, gin.H{"body": "nice"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "comments_disabled", env.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/photos/"+photoID+"/toggle-comment", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodPost, "/api/v1/photos/"+photoID+"/comments", bob, gin.H{"body": "nice"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/photos/"+photoID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.EqualValues(t, 1, page.Total)
}

func TestSearchEmptyQuery(t *testing.T) {
	s := newTestServer(t, Options{})
	w, env := s.do(http.MethodGet, "/api/v1/search?q=%20", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "empty_query", env.Code)
}

func TestAuthErrors(t *testing.T) {
	s := newTestServer(t, Options{})

	w, env := s.do(http.MethodGet, "/api/v1/feed", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", env.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/notifications", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": "x", "email": "x@example.com", "username": "bad name!", "password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ghost@example.com", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_credentials", env.Code)
}

func TestUnconfirmedUploadRejected(t *testing.T) {
	s := newTestServer(t, Options{})
	w, _ := s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": "eve", "email": "eve@example.com", "username": "eve", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	_, env := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "eve@example.com", "password": "password123"})
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/photos", nil)
	w, env = s.serve(req, login.Token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "unconfirmed", env.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, Options{RateRPS: 0.001, RateBurst: 1})

	w, _ := s.do(http.MethodGet, "/api/v1/explore", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, env := s.do(http.MethodGet, "/api/v1/explore", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate_limited", env.Code)
}
