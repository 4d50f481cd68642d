package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, DefaultPrefix, r.prefix)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithPrefix("/api"))
	assert.Equal(t, "/api", r.prefix)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	group := NewDomainGroup("test", "/test").
		GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") }).
		DELETE("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	NewRouter(engine).Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ui/api/test/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/ui/api/test/ping", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestDomainGroup_Middleware(t *testing.T) {
	engine := gin.New()
	var calls int
	group := NewDomainGroup("guarded", "/guarded").
		Use(func(c *gin.Context) {
			calls++
			c.Next()
		}).
		POST("/items", func(c *gin.Context) { c.Status(http.StatusCreated) })
	NewRouter(engine).Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ui/api/guarded/items", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "guarded", group.Name())
	assert.Equal(t, "/guarded", group.Prefix())
}

func TestHandlers_GroupsSkipMissing(t *testing.T) {
	assert.Empty(t, Handlers{}.Groups())
}
