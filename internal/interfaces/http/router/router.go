package router

import (
	"github.com/gin-gonic/gin"
	"github.com/shopkart/backend/internal/infrastructure/auth"
	"github.com/shopkart/backend/internal/interfaces/http/middleware"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// AdminRouteRegistrar registers routes under the admin group
type AdminRouteRegistrar interface {
	RegisterAdminRoutes(rg *gin.RouterGroup)
}

// Router wires registrars into the public, authenticated and admin
// route groups
type Router struct {
	engine     *gin.Engine
	jwtService *auth.JWTService
	apiVersion string

	root   []RouteRegistrar
	public []RouteRegistrar
	authed []RouteRegistrar
	admin  []AdminRouteRegistrar
}

// NewRouter creates a new Router
func NewRouter(engine *gin.Engine, jwtService *auth.JWTService) *Router {
	return &Router{
		engine:     engine,
		jwtService: jwtService,
		apiVersion: "v1",
	}
}

// RegisterRoot adds a registrar at the engine root (health, webhooks)
func (r *Router) RegisterRoot(registrar RouteRegistrar) *Router {
	r.root = append(r.root, registrar)
	return r
}

// RegisterPublic adds a registrar that needs no authentication
func (r *Router) RegisterPublic(registrar RouteRegistrar) *Router {
	r.public = append(r.public, registrar)
	return r
}

// RegisterAuthed adds a registrar behind JWT authentication
func (r *Router) RegisterAuthed(registrar RouteRegistrar) *Router {
	r.authed = append(r.authed, registrar)
	return r
}

// RegisterAdmin adds a registrar behind the admin role guard
func (r *Router) RegisterAdmin(registrar AdminRouteRegistrar) *Router {
	r.admin = append(r.admin, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	rootGroup := r.engine.Group("")
	for _, registrar := range r.root {
		registrar.RegisterRoutes(rootGroup)
	}

	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.public {
		registrar.RegisterRoutes(api)
	}

	authed := r.engine.Group("/api/"+r.apiVersion, middleware.RequireAuth(r.jwtService))
	for _, registrar := range r.authed {
		registrar.RegisterRoutes(authed)
	}

	adminGroup := r.engine.Group("/api/"+r.apiVersion+"/admin",
		middleware.RequireAuth(r.jwtService), middleware.RequireAdmin())
	for _, registrar := range r.admin {
		registrar.RegisterAdminRoutes(adminGroup)
	}
}
