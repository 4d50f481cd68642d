package router

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appcatalog "github.com/Fiarr4ikDev/DiplomForXenon/internal/application/catalog"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/form"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/importer"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/notify"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/settings"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/catalog"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/apiclient"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/cache"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/config"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/event"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/persistence"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/interfaces/http/handler"
)

// fakeBackend serves the categories collection
type fakeBackend struct {
	mu         sync.Mutex
	categories []catalog.Category
	nextID     int64
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/categories":
		_ = json.NewEncoder(w).Encode(b.categories)
	case r.Method == http.MethodPost && r.URL.Path == "/api/categories":
		var req catalog.CategoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.nextID++
		c := catalog.Category{CategoryID: b.nextID, Name: req.Name, Description: req.Description}
		b.categories = append(b.categories, c)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(c)
	case r.Method == http.MethodDelete && r.URL.Path == "/api/categories/1":
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"update or delete violates foreign key constraint"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (b *fakeBackend) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.categories))
	for _, c := range b.categories {
		out = append(out, c.Name)
	}
	return out
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

type testServer struct {
	engine  *gin.Engine
	backend *fakeBackend
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	backend := &fakeBackend{
		categories: []catalog.Category{
			{CategoryID: 1, Name: "Тормоза", Description: "Колодки и диски"},
			{CategoryID: 2, Name: "Фильтры", Description: "Масляные"},
		},
		nextID: 2,
	}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	client, err := apiclient.New(srv.URL+"/api", apiclient.WithRetryConfig(apiclient.RetryConfig{MaxRetries: 0}))
	require.NoError(t, err)

	db, err := persistence.NewDatabase(&config.StorageConfig{Path: persistence.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := persistence.NewLocalStore(db.DB)

	qc := cache.NewQueryClient(cache.WithRetry(0, 0))
	bus := event.NewInMemoryEventBus(nil)
	bus.Subscribe(cache.NewInvalidationHandler(qc), catalog.EventTypeCollectionChanged)
	notifier := notify.NewNotifier()

	pages := appcatalog.NewPages(client, appcatalog.Deps{
		Queries:   qc,
		Publisher: bus,
		Notifier:  notifier,
		Validator: form.NewValidator(),
	})
	imports := importer.NewService(importer.Schemas(importer.Backend{
		Parts:      client.Parts(),
		Categories: client.Categories(),
		Suppliers:  client.Suppliers(),
		Inventory:  client.Inventory(),
	}), importer.WithPublisher(bus), importer.WithNotifier(notifier))

	engine := NewEngine(&config.HTTPConfig{MaxUploadSize: 1 << 20}, zap.NewNop())
	Setup(engine, Handlers{
		Catalog:      handler.NewCatalogHandler(pages, nil),
		Import:       handler.NewImportHandler(imports, 1<<20),
		Settings:     handler.NewSettingsHandler(settings.NewService(store, settings.WithNotifier(notifier))),
		Notification: handler.NewNotificationHandler(notifier),
	})
	return &testServer{engine: engine, backend: backend}
}

func (s *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func TestRoutes_Health(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRoutes_ListAndSearch(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/ui/api/categories?wait=true", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var view appcatalog.View[catalog.Category]
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, 2, view.Total)
	assert.False(t, view.IsLoading)

	_, env = s.do(t, http.MethodGet, "/ui/api/categories?wait=true&search="+"%D0%A2%D0%9E%D0%A0%D0%9C", "")
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "Тормоза", view.Rows[0].Name)
}

func TestRoutes_UnknownEntity(t *testing.T) {
	s := newTestServer(t)
	w, env := s.do(t, http.MethodGet, "/ui/api/orders", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ERR_NOT_FOUND", env.Error.Code)
}

func TestRoutes_CreateDialogFlow(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPost, "/ui/api/categories/dialog/create", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env := s.do(t, http.MethodPost, "/ui/api/categories/dialog/submit", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ERR_VALIDATION", env.Error.Code)
	assert.Contains(t, string(env.Error.Details), "name")

	w, env = s.do(t, http.MethodPatch, "/ui/api/categories/dialog/draft", `{"name":"Свечи","description":"Зажигание"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var draft struct {
		Dialog struct {
			Mode string `json:"mode"`
		} `json:"dialog"`
		Errors map[string]any `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &draft))
	assert.Equal(t, string(form.ModeCreating), draft.Dialog.Mode)
	assert.Empty(t, draft.Errors)

	w, env = s.do(t, http.MethodPost, "/ui/api/categories/dialog/submit", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var outcome appcatalog.Outcome
	require.NoError(t, json.Unmarshal(env.Data, &outcome))
	assert.True(t, outcome.Succeeded)
	assert.Equal(t, []string{"Тормоза", "Фильтры", "Свечи"}, s.backend.names())

	_, env = s.do(t, http.MethodGet, "/ui/api/notification", "")
	var msg notify.Message
	require.NoError(t, json.Unmarshal(env.Data, &msg))
	assert.Equal(t, "Категория успешно добавлена", msg.Text)

	w, _ = s.do(t, http.MethodDelete, "/ui/api/notification", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	_, env = s.do(t, http.MethodGet, "/ui/api/notification", "")
	assert.Equal(t, "null", string(env.Data))
}

func TestRoutes_DeleteReferencedCategory(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPost, "/ui/api/categories/dialog/delete/1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env := s.do(t, http.MethodPost, "/ui/api/categories/dialog/delete/confirm", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var outcome appcatalog.Outcome
	require.NoError(t, json.Unmarshal(env.Data, &outcome))
	assert.False(t, outcome.Succeeded)
	assert.Equal(t, "Невозможно удалить категорию, так как существуют связанные запчасти", outcome.Message)
	assert.Len(t, s.backend.names(), 2)
}

func TestRoutes_EditMissingRecord(t *testing.T) {
	s := newTestServer(t)
	w, env := s.do(t, http.MethodPost, "/ui/api/categories/dialog/edit/99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)

	w, _ = s.do(t, http.MethodPost, "/ui/api/categories/dialog/edit/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoutes_ExportDownload(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(t, http.MethodGet, "/ui/api/categories/export?search=%D1%84%D0%B8%D0%BB%D1%8C%D1%82%D1%80", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "categories.xlsx")
	assert.NotEmpty(t, w.Body.Bytes())

	w, env := s.do(t, http.MethodGet, "/ui/api/categories/export?deliver=true", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
}

func TestRoutes_ImportFlow(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "categories.csv")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("Name,Description\nСвечи,Зажигание\nРемни,\n"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/ui/api/categories/import/validate", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w, env := s.serve(t, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result struct {
		BatchID string `json:"batchId"`
		IsValid bool   `json:"isValid"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.True(t, result.IsValid, w.Body.String())

	w, env = s.do(t, http.MethodPost, "/ui/api/categories/import/"+result.BatchID+"/commit", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var commit importer.CommitResult
	require.NoError(t, json.Unmarshal(env.Data, &commit))
	assert.Equal(t, 2, commit.Created)
	assert.Equal(t, []string{"Тормоза", "Фильтры", "Свечи", "Ремни"}, s.backend.names())

	w, _ = s.do(t, http.MethodPost, "/ui/api/categories/import/"+result.BatchID+"/commit", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoutes_ImportRequiresFile(t *testing.T) {
	s := newTestServer(t)
	w, env := s.do(t, http.MethodPost, "/ui/api/categories/import/validate", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
}

func TestRoutes_Thresholds(t *testing.T) {
	s := newTestServer(t)

	_, env := s.do(t, http.MethodGet, "/ui/api/settings/thresholds", "")
	assert.JSONEq(t, `{"lowStockThreshold":10,"mediumStockThreshold":50}`, string(env.Data))

	w, env := s.do(t, http.MethodPut, "/ui/api/settings/thresholds", `{"lowStockThreshold":20,"mediumStockThreshold":5}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_MEDIUM_THRESHOLD", env.Error.Code)

	w, _ = s.do(t, http.MethodPut, "/ui/api/settings/thresholds", `{"lowStockThreshold":5,"mediumStockThreshold":30}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, env = s.do(t, http.MethodGet, "/ui/api/settings/thresholds", "")
	assert.JSONEq(t, `{"lowStockThreshold":5,"mediumStockThreshold":30}`, string(env.Data))

	w, _ = s.do(t, http.MethodDelete, "/ui/api/settings/thresholds", "")
	require.Equal(t, http.StatusOK, w.Code)
	_, env = s.do(t, http.MethodGet, "/ui/api/settings/thresholds", "")
	assert.JSONEq(t, `{"lowStockThreshold":10,"mediumStockThreshold":50}`, string(env.Data))
}

func TestRoutes_InvalidJSON(t *testing.T) {
	s := newTestServer(t)
	w, env := s.do(t, http.MethodPut, "/ui/api/settings/thresholds", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ERR_INVALID_JSON", env.Error.Code)
}
