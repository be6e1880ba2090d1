package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/damoang/qna-revision/internal/common"
	"github.com/damoang/qna-revision/internal/domain"
	"github.com/damoang/qna-revision/internal/handler"
	"github.com/damoang/qna-revision/internal/middleware"
	"github.com/damoang/qna-revision/internal/routes"
	"github.com/damoang/qna-revision/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mock EditService ---

type mockEditService struct {
	mock.Mock
}

func (m *mockEditService) RequestEdit(ctx context.Context, kind domain.ContentKind, id uint64, actor domain.Actor) (*domain.EditDecision, error) {
	args := m.Called(kind, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EditDecision), args.Error(1)
}

func (m *mockEditService) ApplyEdit(ctx context.Context, req *domain.EditRequest) (*domain.EditResult, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EditResult), args.Error(1)
}

func (m *mockEditService) GetHistory(ctx context.Context, kind domain.ContentKind, id uint64, limit int) (*domain.History, error) {
	args := m.Called(kind, id, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.History), args.Error(1)
}

// --- Helpers ---

const secret = "handler-secret"

var t0 = time.Date(2025, 12, 2, 10, 0, 0, 0, time.UTC)

func setupRouter(svc *mockEditService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	noLimit := func(c *gin.Context) { c.Next() }
	routes.Setup(r, handler.NewEditHandler(svc), middleware.JWTAuth(jwt.NewManager(secret), 10), noLimit)
	return r
}

func token(t *testing.T, userID string, level int) string {
	t.Helper()
	tok, err := jwt.NewManager(secret).GenerateToken(userID, userID, level, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func do(r *gin.Engine, method, path, auth, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	r.ServeHTTP(w, req)
	return w
}

func sampleQuestion() *domain.Content {
	return &domain.Content{
		ID: 1, Kind: domain.KindQuestion, AuthorID: "alice",
		Title: "How do I close a channel?", Body: "<p>body</p>",
		TagIDs: []uint64{1, 2}, CreatedAt: t0, RevisionTimestamp: t0,
	}
}

type envelope struct {
	Data  json.RawMessage   `json:"data"`
	Meta  *common.Meta      `json:"meta"`
	Error *common.ErrorInfo `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// --- Tests ---

func TestGetEditForm(t *testing.T) {
	svc := new(mockEditService)
	r := setupRouter(svc)

	svc.On("RequestEdit", domain.KindQuestion, uint64(1), domain.Actor{ID: "alice"}).
		Return(&domain.EditDecision{Snapshot: sampleQuestion(), CanEdit: true, RequiresReview: true}, nil)

	w := do(r, http.MethodGet, "/api/v1/questions/1/edit", token(t, "alice", 2), "")

	assert.Equal(t, http.StatusOK, w.Code)
	var form domain.EditFormView
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &form))
	assert.True(t, form.CanEdit)
	assert.True(t, form.EditWindowExpired)
	assert.Equal(t, "2025-12-02T10:00:00Z", form.Revision)
	assert.Equal(t, "How do I close a channel?", form.Content.Title)
	svc.AssertExpectations(t)
}

func TestGetEditForm_Denied(t *testing.T) {
	svc := new(mockEditService)
	r := setupRouter(svc)

	svc.On("RequestEdit", domain.KindAnswer, uint64(3), domain.Actor{ID: "mallory"}).
		Return(&domain.EditDecision{Snapshot: sampleQuestion()}, nil)

	w := do(r, http.MethodGet, "/api/v1/answers/3/edit", token(t, "mallory", 2), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", decode(t, w).Error.Code)
}

func TestUpdateContent_Success(t *testing.T) {
	svc := new(mockEditService)
	r := setupRouter(svc)

	updated := sampleQuestion()
	updated.Title = "Closing channels"
	updated.EditCount = 1
	updated.RevisionTimestamp = t0.Add(time.Minute)

	svc.On("ApplyEdit", mock.MatchedBy(func(req *domain.EditRequest) bool {
		return req.Kind == domain.KindQuestion &&
			req.ContentID == 1 &&
			req.Actor == domain.Actor{ID: "mod", IsModerator: true} &&
			*req.Proposed.Title == "Closing channels" &&
			req.Proposed.Body == nil &&
			req.Proposed.TagIDs == nil &&
			req.EditReason == "clarify" &&
			req.LastKnownRevision != nil && req.LastKnownRevision.Equal(t0)
	})).Return(&domain.EditResult{
		Content:  updated,
		Revision: &domain.RevisionRecord{ID: 9},
	}, nil)

	body := `{"title":"Closing channels","edit_reason":"clarify","last_known_revision":"2025-12-02T10:00:00Z"}`
	w := do(r, http.MethodPut, "/api/v1/questions/1", token(t, "mod", 10), body)

	assert.Equal(t, http.StatusOK, w.Code)
	var view domain.EditResultView
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &view))
	assert.Equal(t, uint64(9), view.RevisionID)
	assert.False(t, view.NoOp)
	assert.True(t, view.Content.IsEdited)
	assert.Equal(t, 1, view.Content.EditCount)
	svc.AssertExpectations(t)
}

func TestUpdateContent_NoOp(t *testing.T) {
	svc := new(mockEditService)
	r := setupRouter(svc)

	svc.On("ApplyEdit", mock.Anything).Return(&domain.EditResult{Content: sampleQuestion(), NoOp: true}, nil)

	w := do(r, http.MethodPut, "/api/v1/questions/1", token(t, "alice", 2), `{"tag_ids":[2,1]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var view domain.EditResultView
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &view))
	assert.True(t, view.NoOp)
	assert.Zero(t, view.RevisionID)
}

func TestUpdateContent_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", common.ErrContentNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"denied", common.ErrPermissionDenied, http.StatusForbidden, "FORBIDDEN"},
		{"conflict", common.ErrConcurrentModification, http.StatusConflict, "CONFLICT"},
		{"validation", common.NewValidationError(map[string]string{"tags": "Duplicate tags are not allowed"}), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"storage", errors.New("deadlock"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockEditService)
			r := setupRouter(svc)
			svc.On("ApplyEdit", mock.Anything).Return(nil, tt.err)

			w := do(r, http.MethodPut, "/api/v1/answers/2", token(t, "bob", 2), `{"body":"<p>new</p>"}`)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode(t, w).Error.Code)
		})
	}
}

func TestUpdateContent_ValidationDetails(t *testing.T) {
	svc := new(mockEditService)
	r := setupRouter(svc)
	svc.On("ApplyEdit", mock.Anything).
		Return(nil, common.NewValidationError(map[string]string{"tags": "Duplicate tags are not allowed"}))

	w := do(r, http.MethodPut, "/api/v1/questions/1", token(t, "alice", 2), `{"tag_ids":[1,1,2]}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	details, ok := decode(t, w).Error.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Duplicate tags are not allowed", details["tags"])
}

func TestUpdateContent_BadRequests(t *testing.T) {
	svc := new(mockEditService)
	r := setupRouter(svc)

	tests := []struct {
		name   string
		path   string
		auth   string
		body   string
		status int
	}{
		{"no token", "/api/v1/questions/1", "", `{}`, http.StatusUnauthorized},
		{"bad id", "/api/v1/questions/abc", token(t, "alice", 2), `{}`, http.StatusBadRequest},
		{"zero id", "/api/v1/questions/0", token(t, "alice", 2), `{}`, http.StatusBadRequest},
		{"bad json", "/api/v1/questions/1", token(t, "alice", 2), `{"title":`, http.StatusBadRequest},
		{"bad revision", "/api/v1/questions/1", token(t, "alice", 2), `{"last_known_revision":"yesterday"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPut, tt.path, tt.auth, tt.body)
			assert.Equal(t, tt.status, w.Code)
		})
	}
	svc.AssertNotCalled(t, "ApplyEdit", mock.Anything)
}

func TestGetHistory(t *testing.T) {
	svc := new(mockEditService)
	r := setupRouter(svc)

	oldTitle, newTitle := "old", "new"
	content := sampleQuestion()
	content.EditCount = 2
	records := []domain.RevisionRecord{
		{ID: 2, ContentKind: domain.KindQuestion, ContentID: 1, EditorID: "alice", CreatedAt: t0.Add(2 * time.Minute),
			Previous: domain.FieldValues{Title: &oldTitle}, New: domain.FieldValues{Title: &newTitle}},
		{ID: 1, ContentKind: domain.KindQuestion, ContentID: 1, EditorID: "alice", CreatedAt: t0.Add(time.Minute),
			Previous: domain.FieldValues{TagIDs: []uint64{1}}, New: domain.FieldValues{TagIDs: []uint64{1, 2}}},
	}
	svc.On("GetHistory", domain.KindQuestion, uint64(1), 5).
		Return(&domain.History{Content: content, Records: records, Limit: 5}, nil)

	// public endpoint, no token
	w := do(r, http.MethodGet, "/api/v1/questions/1/history?limit=5&diff=true", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	var view domain.HistoryView
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &view))
	assert.Equal(t, 2, view.EditCount)
	require.Len(t, view.History, 2)
	assert.True(t, view.History[0].TitleChanged)
	assert.False(t, view.History[0].TagsChanged)
	assert.True(t, view.History[1].TagsChanged)
	require.NotNil(t, view.History[0].New)
	assert.Equal(t, "new", *view.History[0].New.Title)
}

func TestGetHistory_MetaReportsAppliedLimit(t *testing.T) {
	svc := new(mockEditService)
	r := setupRouter(svc)
	svc.On("GetHistory", domain.KindAnswer, uint64(3), 0).
		Return(&domain.History{Content: sampleQuestion(), Records: []domain.RevisionRecord{}, Limit: 20}, nil)

	w := do(r, http.MethodGet, "/api/v1/answers/3/history", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 20, resp.Meta.Limit)
	assert.Equal(t, int64(0), resp.Meta.Total)
}

func TestGetHistory_NotFound(t *testing.T) {
	svc := new(mockEditService)
	r := setupRouter(svc)
	svc.On("GetHistory", domain.KindAnswer, uint64(7), 0).Return(nil, common.ErrContentNotFound)

	w := do(r, http.MethodGet, "/api/v1/answers/7/history", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
