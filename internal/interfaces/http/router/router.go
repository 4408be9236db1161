package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIPrefix is where every authenticated route group is mounted
const APIPrefix = "/api/v1"

// RouteRegistrar is anything that can attach its routes to a gin group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router collects route groups and mounts them under one prefix
type Router struct {
	engine     *gin.Engine
	prefix     string
	registrars []RouteRegistrar
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithPrefix mounts the groups under prefix instead of APIPrefix
func WithPrefix(prefix string) RouterOption {
	return func(r *Router) { r.prefix = prefix }
}

// NewRouter creates a Router on engine
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, prefix: APIPrefix}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues a registrar for Setup
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup mounts every registered group. Call it once, after all Register calls.
func (r *Router) Setup() {
	api := r.engine.Group(r.prefix)
	for _, reg := range r.registrars {
		reg.RegisterRoutes(api)
	}
}

// DomainGroup describes the routes of one resource (tiers, boosts, admin)
// together with the middleware that guards them.
type DomainGroup struct {
	name   string
	prefix string
	chain  []gin.HandlerFunc
	routes []route
	nested []*DomainGroup
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates an empty group mounted at prefix
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use appends middleware. It applies to every route of the group and its
// nested groups, whenever those routes were added.
func (g *DomainGroup) Use(mw ...gin.HandlerFunc) *DomainGroup {
	g.chain = append(g.chain, mw...)
	return g
}

func (g *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return g.add(http.MethodGet, path, handlers)
}

func (g *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return g.add(http.MethodPost, path, handlers)
}

func (g *DomainGroup) PUT(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return g.add(http.MethodPut, path, handlers)
}

func (g *DomainGroup) add(method, path string, handlers []gin.HandlerFunc) *DomainGroup {
	g.routes = append(g.routes, route{method: method, path: path, handlers: handlers})
	return g
}

// Group nests a group under this one and returns it
func (g *DomainGroup) Group(name, prefix string) *DomainGroup {
	child := NewDomainGroup(name, prefix)
	g.nested = append(g.nested, child)
	return child
}

// Name identifies the group in route listings
func (g *DomainGroup) Name() string { return g.name }

// RegisterRoutes implements RouteRegistrar
func (g *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	sub := rg.Group(g.prefix, g.chain...)
	for _, rt := range g.routes {
		sub.Handle(rt.method, rt.path, rt.handlers...)
	}
	for _, child := range g.nested {
		child.RegisterRoutes(sub)
	}
}
