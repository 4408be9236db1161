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

func text(body string) gin.HandlerFunc {
	return func(c *gin.Context) { c.String(http.StatusOK, body) }
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRouter_MountsUnderPrefix(t *testing.T) {
	engine := gin.New()
	NewRouter(engine).Register(NewDomainGroup("tiers", "/tiers").GET("/me", text("tier"))).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/tiers/me")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tier", w.Body.String())
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/tiers/me").Code)
}

func TestRouter_WithPrefix(t *testing.T) {
	engine := gin.New()
	NewRouter(engine, WithPrefix("/internal")).Register(NewDomainGroup("x", "/x").GET("", text("x"))).Setup()

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/internal/x").Code)
}

func TestDomainGroup_Methods(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("boosts", "/boosts").
		POST("", text("scheduled")).
		GET("/:id", func(c *gin.Context) { c.String(http.StatusOK, "boost "+c.Param("id")) }).
		PUT("/:id", text("updated"))
	NewRouter(engine).Register(g).Setup()

	tests := []struct {
		method, path, body string
	}{
		{http.MethodPost, "/api/v1/boosts", "scheduled"},
		{http.MethodGet, "/api/v1/boosts/42", "boost 42"},
		{http.MethodPut, "/api/v1/boosts/42", "updated"},
	}
	for _, tt := range tests {
		w := serve(engine, tt.method, tt.path)
		assert.Equal(t, http.StatusOK, w.Code, "%s %s", tt.method, tt.path)
		assert.Equal(t, tt.body, w.Body.String())
	}
	assert.Equal(t, "boosts", g.Name())
}

func TestDomainGroup_MiddlewareReachesNestedGroups(t *testing.T) {
	engine := gin.New()
	admin := NewDomainGroup("admin", "/admin").Use(func(c *gin.Context) {
		if c.GetHeader("X-Role") != "admin" {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	})
	admin.GET("/program", text("program"))
	admin.Group("boosts", "/boosts").POST("/:id/fulfill", text("fulfilled"))
	NewRouter(engine).Register(admin).Setup()

	assert.Equal(t, http.StatusForbidden, serve(engine, http.MethodGet, "/api/v1/admin/program").Code)
	assert.Equal(t, http.StatusForbidden, serve(engine, http.MethodPost, "/api/v1/admin/boosts/1/fulfill").Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/boosts/1/fulfill", nil)
	req.Header.Set("X-Role", "admin")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fulfilled", w.Body.String())
}

func TestRouter_IndependentGroups(t *testing.T) {
	engine := gin.New()
	NewRouter(engine).
		Register(NewDomainGroup("tiers", "/tiers").GET("/me", text("tier"))).
		Register(NewDomainGroup("boosts", "/boosts").GET("/:id", text("boost"))).
		Setup()

	assert.Equal(t, "tier", serve(engine, http.MethodGet, "/api/v1/tiers/me").Body.String())
	assert.Equal(t, "boost", serve(engine, http.MethodGet, "/api/v1/boosts/7").Body.String())
}
