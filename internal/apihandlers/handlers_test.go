package apihandlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookgenre/internal/models"
	"bookgenre/internal/services"
	"bookgenre/internal/store"
	"bookgenre/internal/store/primary"
	"bookgenre/pkg/genre"
)

var classes = []string{"Fantasy", "Mystery", "Romance", "Science Fiction", "Thriller"}

// fakePredictor returns fixed scores or an error and counts calls.
type fakePredictor struct {
	scores genre.ClassScores
	err    error
	calls  int
}

func (f *fakePredictor) Predict(_ context.Context, _ genre.Input) (*genre.Prediction, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	enc, _ := genre.NewLabelEncoder(classes)
	return genre.Normalize(f.scores, enc), nil
}

type readiness bool

func (r readiness) Loaded() bool { return bool(r) }

func newTestRouter(t *testing.T, p *fakePredictor) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := primary.NewPrimaryStore(context.Background(), primary.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	predictions := services.NewPredictionService(p, readiness(p.err == nil))
	h := &APIHandler{
		Predictions: predictions,
		Books:       services.NewBookService(st, predictions, nil),
		Checks:      map[string]HealthCheck{"database": st.Ping},
	}
	return NewRouter(h, []string{"*"})
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

var duneBody = map[string]string{
	"title":       "Dune",
	"authors":     "Frank Herbert",
	"description": "A desert planet and a noble family.",
}

func TestPredictFlat(t *testing.T) {
	r := newTestRouter(t, &fakePredictor{scores: genre.ClassScores{0.05, 0.03, 0.02, 0.85, 0.05}})

	w := do(t, r, http.MethodPost, "/predict", duneBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"genre":"Science Fiction","scores":[0.05,0.03,0.02,0.85,0.05]}`, w.Body.String())
}

func TestPredictRanked(t *testing.T) {
	r := newTestRouter(t, &fakePredictor{scores: genre.ClassScores{0.05, 0.03, 0.02, 0.85, 0.05}})

	w := do(t, r, http.MethodPost, "/predict?view=ranked", duneBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"genre":"Science Fiction","scores":[
		{"label":"Science Fiction","score":0.85},
		{"label":"Fantasy","score":0.05},
		{"label":"Thriller","score":0.05},
		{"label":"Mystery","score":0.03},
		{"label":"Romance","score":0.02}
	]}`, w.Body.String())
}

func TestPredictEmptyDescriptionSkipsModel(t *testing.T) {
	p := &fakePredictor{scores: genre.ClassScores{1}}
	r := newTestRouter(t, p)

	w := do(t, r, http.MethodPost, "/predict", map[string]string{"title": "Dune", "authors": "Frank Herbert"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"genre":"Unknown","scores":[]}`, w.Body.String())
	assert.Zero(t, p.calls)
}

func TestPredictModelUnavailable(t *testing.T) {
	r := newTestRouter(t, &fakePredictor{err: fmt.Errorf("%w: %w", genre.ErrModelUnavailable, genre.ErrArtifactLoad)})

	w := do(t, r, http.MethodPost, "/predict", duneBody)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	out := decode(t, w)
	assert.Equal(t, "Unknown", out["genre"])
	assert.Equal(t, []any{}, out["scores"])
	assert.Equal(t, "model_unavailable", out["error"].(map[string]any)["code"])
}

func TestPredictBadRequests(t *testing.T) {
	r := newTestRouter(t, &fakePredictor{scores: genre.ClassScores{1}})

	w := do(t, r, http.MethodPost, "/predict", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/predict?view=table", duneBody)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bad_request", decode(t, w)["error"].(map[string]any)["code"])
}

func TestBooksLifecycle(t *testing.T) {
	r := newTestRouter(t, &fakePredictor{scores: genre.ClassScores{0.1, 0.1, 0.6, 0.1, 0.1}})

	w := do(t, r, http.MethodPost, "/books", map[string]string{
		"id": "b-1", "title": "Pride and Prejudice", "author": "Jane Austen", "description": "Manners and marriage",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	book := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "Romance", book["mlCategory"])
	assert.Equal(t, "Romance", book["category"])
	assert.Len(t, book["mlScores"], 5)

	w = do(t, r, http.MethodPost, "/books", map[string]string{"id": "b-1", "title": "x", "author": "y", "description": "z"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPost, "/books", map[string]string{"title": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPatch, "/books/b-1/category", map[string]string{"category": "Classics"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Classics", decode(t, w)["data"].(map[string]any)["category"])

	w = do(t, r, http.MethodPatch, "/books/b-1/category", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPatch, "/books/nope/category", map[string]string{"category": "Classics"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/books/b-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Jane Austen", decode(t, w)["data"].(map[string]any)["author"])

	w = do(t, r, http.MethodGet, "/books/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/books?author=austen&category=Classics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 1)

	w = do(t, r, http.MethodGet, "/books?category=Romance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 0)

	w = do(t, r, http.MethodGet, "/books?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddBookWhenModelUnavailable(t *testing.T) {
	r := newTestRouter(t, &fakePredictor{err: genre.ErrModelUnavailable})

	w := do(t, r, http.MethodPost, "/books", map[string]string{"title": "Dune", "author": "Frank Herbert", "description": "desert"})
	require.Equal(t, http.StatusCreated, w.Code)
	book := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "Unknown", book["mlCategory"])
	assert.Equal(t, []any{}, book["mlScores"])
}

func TestReclassifyInline(t *testing.T) {
	p := &fakePredictor{scores: genre.ClassScores{0.1, 0.1, 0.6, 0.1, 0.1}}
	r := newTestRouter(t, p)
	w := do(t, r, http.MethodPost, "/books", map[string]string{"id": "b-1", "title": "Dune", "author": "Frank Herbert", "description": "desert"})
	require.Equal(t, http.StatusCreated, w.Code)

	p.scores = genre.ClassScores{0.1, 0.1, 0.1, 0.6, 0.1}
	w = do(t, r, http.MethodPost, "/books/b-1/reclassify", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Science Fiction", decode(t, w)["data"].(map[string]any)["mlCategory"])

	w = do(t, r, http.MethodPost, "/books/nope/reclassify", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndReady(t *testing.T) {
	r := newTestRouter(t, &fakePredictor{scores: genre.ClassScores{1}})
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/ready", nil).Code)

	r = newTestRouter(t, &fakePredictor{err: genre.ErrModelUnavailable})
	w := do(t, r, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "loading", decode(t, w)["status"])
}

func TestHealthReportsComponents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &APIHandler{Checks: map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return fmt.Errorf("connection refused") },
	}}
	r := gin.New()
	r.GET("/health", h.HealthHandler)

	w := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var status HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "ok", status.Components["database"])
	assert.Equal(t, "error: connection refused", status.Components["redis"])
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }

	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000"}))
	r.GET("/x", ok)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	r = gin.New()
	r.Use(CORS(nil))
	r.GET("/x", ok)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestWriteErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	testCases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", fmt.Errorf("%w: title required", models.ErrValidation), http.StatusBadRequest, CodeBadRequest},
		{"not found", fmt.Errorf("book x: %w", store.ErrNotFound), http.StatusNotFound, CodeNotFound},
		{"duplicate", fmt.Errorf("book x: %w", store.ErrDuplicate), http.StatusConflict, CodeConflict},
		{"model", fmt.Errorf("%w: timeout", genre.ErrModelUnavailable), http.StatusServiceUnavailable, CodeModelUnavailable},
		{"other", fmt.Errorf("disk full"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", func(c *gin.Context) { WriteError(c, tc.err) })
			w := do(t, r, http.MethodGet, "/", nil)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, decode(t, w)["error"].(map[string]any)["code"])
		})
	}
}
