package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/muhammadolammi/careerpath/internal/app"
	"github.com/muhammadolammi/careerpath/internal/conversation"
	"github.com/muhammadolammi/careerpath/internal/database"
	"github.com/muhammadolammi/careerpath/internal/events"
	"github.com/muhammadolammi/careerpath/internal/generation"
	"github.com/muhammadolammi/careerpath/internal/identity"
	"github.com/muhammadolammi/careerpath/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeService struct {
	sendSnap conversation.Snapshot
	sendErr  error
	sent     []string
	mode     generation.Mode

	roadmapErr error
	uploadErr  error
	uploaded   []byte
	roleErr    error
}

func (f *fakeService) ListChats(context.Context, string) ([]database.Chat, error) {
	return []database.Chat{{ID: uuid.New(), UserID: "uid-1", Title: "New Chat"}}, nil
}
func (f *fakeService) CreateChat(_ context.Context, uid string) (database.Chat, error) {
	return database.Chat{ID: uuid.New(), UserID: uid, Title: app.DefaultChatTitle}, nil
}
func (f *fakeService) DeleteChat(context.Context, string, uuid.UUID) error {
	return app.ErrNotFound
}
func (f *fakeService) Snapshot(context.Context, string, uuid.UUID) (conversation.Snapshot, error) {
	return conversation.Snapshot{State: conversation.StateIdle, View: conversation.ViewChat, Turns: []generation.Turn{}}, nil
}
func (f *fakeService) SetView(_ context.Context, _ string, _ uuid.UUID, v conversation.View) (conversation.Snapshot, error) {
	return conversation.Snapshot{State: conversation.StateIdle, View: v}, nil
}
func (f *fakeService) Messages(context.Context, string, uuid.UUID) ([]database.Message, error) {
	return []database.Message{}, nil
}
func (f *fakeService) SendMessage(_ context.Context, _ string, _ uuid.UUID, text string, mode generation.Mode) (conversation.Snapshot, error) {
	f.sent = append(f.sent, text)
	f.mode = mode
	return f.sendSnap, f.sendErr
}
func (f *fakeService) GenerateRoadmap(_ context.Context, _ string, goal string) (app.SavedRoadmap, error) {
	if f.roadmapErr != nil {
		return app.SavedRoadmap{}, f.roadmapErr
	}
	return app.SavedRoadmap{ID: uuid.New(), Role: goal, Plan: generation.RoadmapPlan{RoleTitle: goal}}, nil
}
func (f *fakeService) ListRoadmaps(context.Context, string) ([]app.SavedRoadmap, error) {
	return []app.SavedRoadmap{}, nil
}
func (f *fakeService) DeleteRoadmap(context.Context, string, uuid.UUID) error { return nil }
func (f *fakeService) UploadResume(_ context.Context, uid, filename string, data []byte) (database.Resume, error) {
	if f.uploadErr != nil {
		return database.Resume{}, f.uploadErr
	}
	f.uploaded = data
	return database.Resume{ID: uuid.New(), UserID: uid, OriginalFilename: filename, UploadStatus: "queued"}, nil
}
func (f *fakeService) Resume(context.Context, string, uuid.UUID) (app.ResumeView, error) {
	return app.ResumeView{}, app.ErrNotFound
}
func (f *fakeService) ListUsers(context.Context) ([]database.User, error) {
	return []database.User{{ID: "uid-1", Role: identity.RoleUser}}, nil
}
func (f *fakeService) SetRole(_ context.Context, uid, role string) (database.User, error) {
	if f.roleErr != nil {
		return database.User{}, f.roleErr
	}
	return database.User{ID: uid, Role: role}, nil
}

type fakeUsers struct{ admins map[string]bool }

func (f fakeUsers) EnsureUser(_ context.Context, arg database.EnsureUserParams) (database.User, error) {
	role := identity.RoleUser
	if f.admins[arg.ID] {
		role = identity.RoleAdmin
	}
	return database.User{ID: arg.ID, Email: arg.Email, Name: arg.Name, Role: role}, nil
}

type server struct {
	handler  http.Handler
	svc      *fakeService
	hub      *events.Hub
	verifier *identity.Verifier
	metrics  *metrics.Collector
}

func newServer(t *testing.T) *server {
	t.Helper()
	v, err := identity.NewVerifier("secret", "")
	require.NoError(t, err)
	s := &server{
		svc:      &fakeService{},
		hub:      events.NewHub(8),
		verifier: v,
		metrics:  metrics.NewCollector("test"),
	}
	s.handler = NewRouter(RouterDeps{
		Service:  s.svc,
		Verifier: v,
		Users:    fakeUsers{admins: map[string]bool{"root": true}},
		Hub:      s.hub,
		Metrics:  s.metrics,
		Logger:   zap.NewNop(),
	})
	return s
}

func (s *server) token(t *testing.T, uid string) string {
	t.Helper()
	tok, err := s.verifier.Issue(uid, uid+"@example.com", "Test User", time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *server) do(t *testing.T, method, path, uid string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(t, uid))
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndAuth(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/me", "uid-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"uid":"uid-1","email":"uid-1@example.com","name":"Test User","role":"user"}`, rec.Body.String())
}

func TestSendMessage(t *testing.T) {
	chatID := uuid.New()
	path := "/api/chats/" + chatID.String() + "/messages"

	tests := []struct {
		name      string
		body      interface{}
		sendErr   error
		snap      conversation.Snapshot
		want      int
		wantState string
	}{
		{"ok", map[string]string{"text": "hello", "mode": "chat"}, nil, conversation.Snapshot{State: conversation.StateReady}, http.StatusOK, "ready"},
		{"transport failure is recoverable", map[string]string{"text": "hello"}, generation.ErrTransport, conversation.Snapshot{State: conversation.StateErrored}, http.StatusOK, "errored"},
		{"busy", map[string]string{"text": "hello"}, conversation.ErrBusy, conversation.Snapshot{}, http.StatusConflict, ""},
		{"whitespace", map[string]string{"text": "   "}, generation.ErrEmptyInput, conversation.Snapshot{}, http.StatusBadRequest, ""},
		{"missing text", map[string]string{"mode": "chat"}, nil, conversation.Snapshot{}, http.StatusBadRequest, ""},
		{"bad mode", map[string]string{"text": "hi", "mode": "jobs"}, nil, conversation.Snapshot{}, http.StatusBadRequest, ""},
		{"unknown chat", map[string]string{"text": "hi"}, app.ErrNotFound, conversation.Snapshot{}, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(t)
			s.svc.sendErr = tt.sendErr
			s.svc.sendSnap = tt.snap

			rec := s.do(t, http.MethodPost, path, "uid-1", tt.body)

			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			if tt.wantState != "" {
				var got map[string]interface{}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, tt.wantState, got["state"])
			}
		})
	}
}

func TestSendMessagePassesMode(t *testing.T) {
	s := newServer(t)
	rec := s.do(t, http.MethodPost, "/api/chats/"+uuid.NewString()+"/messages", "uid-1", map[string]string{"text": "DevOps", "mode": "roadmap"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"DevOps"}, s.svc.sent)
	assert.Equal(t, generation.ModeRoadmap, s.svc.mode)
}

func TestChatRoutes(t *testing.T) {
	s := newServer(t)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/chats", "uid-1", nil).Code)
	assert.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/chats", "uid-1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/chats/not-a-uuid", "uid-1", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/chats/"+uuid.NewString(), "uid-1", nil).Code)

	rec := s.do(t, http.MethodPut, "/api/chats/"+uuid.NewString()+"/view", "uid-1", map[string]string{"view": "roadmap"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"view":"roadmap"`)
}

func TestCreateRoadmap(t *testing.T) {
	s := newServer(t)
	rec := s.do(t, http.MethodPost, "/api/roadmaps", "uid-1", map[string]string{"goal": "Data Engineer"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	s.svc.roadmapErr = generation.ErrMalformedResponse
	rec = s.do(t, http.MethodPost, "/api/roadmaps", "uid-1", map[string]string{"goal": "Data Engineer"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	s.svc.roadmapErr = generation.ErrTransport
	rec = s.do(t, http.MethodPost, "/api/roadmaps", "uid-1", map[string]string{"goal": "Data Engineer"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/roadmaps", "uid-1", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartUpload(t *testing.T, s *server, field, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/resumes", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token(t, "uid-1"))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestUploadResume(t *testing.T) {
	s := newServer(t)

	rec := multipartUpload(t, s, "file", "cv.txt", []byte("Jane Doe"))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, []byte("Jane Doe"), s.svc.uploaded)
	assert.Contains(t, rec.Body.String(), `"original_filename":"cv.txt"`)

	rec = multipartUpload(t, s, "document", "cv.txt", []byte("Jane Doe"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.svc.uploadErr = generation.ErrUnsupportedDocument
	rec = multipartUpload(t, s, "file", "me.png", []byte("\x89PNG"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/resumes/"+uuid.NewString(), "uid-1", nil).Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newServer(t)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/admin/users", "uid-1", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/admin/users", "root", nil).Code)

	rec := s.do(t, http.MethodPut, "/api/admin/users/uid-1/role", "root", map[string]string{"role": "admin"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"admin"`)

	rec = s.do(t, http.MethodPut, "/api/admin/users/uid-1/role", "root", map[string]string{"role": "owner"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.svc.roleErr = app.ErrNotFound
	rec = s.do(t, http.MethodPut, "/api/admin/users/ghost/role", "root", map[string]string{"role": "user"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newServer(t)
	s.do(t, http.MethodGet, "/api/chats", "uid-1", nil)

	rec := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "test_http_requests_total"))
}

func TestUpdatesStream(t *testing.T) {
	s := newServer(t)
	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + s.token(t, "uid-1")
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return s.hub.Subscribers("uid-1") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.hub.Publish(ctx, events.Update{Kind: events.KindResume, UserID: "uid-1", Status: "completed"}))
	require.NoError(t, s.hub.Publish(ctx, events.Update{Kind: events.KindResume, UserID: "uid-2", Status: "queued"}))

	var got events.Update
	require.NoError(t, wsjson.Read(ctx, conn, &got))
	assert.Equal(t, events.KindResume, got.Kind)
	assert.Equal(t, "completed", got.Status)
}

func TestUpdatesStreamRequiresToken(t *testing.T) {
	s := newServer(t)
	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	_, resp, err := websocket.Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
