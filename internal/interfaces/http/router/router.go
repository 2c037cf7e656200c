// Package router wires the HTTP handlers under the versioned API prefix.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	_ "github.com/sistemita/backend/docs"
	"github.com/sistemita/backend/internal/interfaces/http/handler"
	"github.com/sistemita/backend/internal/interfaces/http/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar to be registered by Setup
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes under /api/<version>
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// DomainGroup is a prefix with its own middleware and routes
type DomainGroup struct {
	name       string
	prefix     string
	middleware []gin.HandlerFunc
	routes     []route
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates a new domain-specific route group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds middleware to this group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// Handle registers a route for any method
func (dg *DomainGroup) Handle(method, path string, handlers ...gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, route{method: method, path: path, handlers: handlers})
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodGet, path, handlers...)
}

// POST registers a POST route
func (dg *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodPost, path, handlers...)
}

// PUT registers a PUT route
func (dg *DomainGroup) PUT(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodPut, path, handlers...)
}

// DELETE registers a DELETE route
func (dg *DomainGroup) DELETE(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodDelete, path, handlers...)
}

// RegisterRoutes implements RouteRegistrar
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix, dg.middleware...)
	for _, r := range dg.routes {
		group.Handle(r.method, r.path, r.handlers...)
	}
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Handlers are the handlers of the REST adapter
type Handlers struct {
	Health     *handler.HealthHandler
	Invoice    *handler.InvoiceHandler
	Imputation *handler.ImputationHandler
	Banking    *handler.BankingHandler
}

// LedgerOptions tune the ledger routes
type LedgerOptions struct {
	// Idempotency guards the mutating POST endpoints. Nil disables the check.
	Idempotency gin.HandlerFunc
	// UploadLimit caps statement uploads in bytes. 0 disables the cap.
	UploadLimit int64
}

// LedgerGroups returns the route groups of the invoicing and banking API
func LedgerGroups(h Handlers, opts LedgerOptions) []*DomainGroup {
	guard := func(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
		if opts.Idempotency == nil {
			return handlers
		}
		return append([]gin.HandlerFunc{opts.Idempotency}, handlers...)
	}

	system := NewDomainGroup("system", "").
		GET("/health", h.Health.Health)

	invoices := NewDomainGroup("invoices", "/invoices").
		GET("", h.Invoice.List).
		POST("", guard(h.Invoice.Create)...).
		GET("/outstanding", h.Invoice.ListOutstanding).
		GET("/:id", h.Invoice.GetByID)

	imputations := NewDomainGroup("imputations", "/imputations").
		POST("", guard(h.Imputation.Create)...).
		GET("/:id", h.Imputation.GetByID).
		PUT("/:id", h.Imputation.Update).
		DELETE("/:id", h.Imputation.Reverse)

	bank := NewDomainGroup("bank", "/bank").
		POST("/statements", guard(middleware.BodyLimit(opts.UploadLimit), h.Banking.ImportStatement)...).
		GET("/movements/unreconciled", h.Banking.ListUnreconciled).
		POST("/reconciliations", guard(h.Banking.Reconcile)...).
		GET("/reconciliations/schedule", h.Banking.ScheduleStatus).
		POST("/reconciliations/schedule/run", h.Banking.TriggerScheduledRun)

	return []*DomainGroup{system, invoices, imputations, bank}
}

// Setup registers the ledger groups on r
func Setup(r *Router, h Handlers, opts LedgerOptions) {
	for _, g := range LedgerGroups(h, opts) {
		r.Register(g)
	}
	r.Setup()
}

// MountDocs serves the Swagger UI and the OpenAPI document under /swagger,
// outside the versioned API prefix
func MountDocs(engine *gin.Engine, guard ...gin.HandlerFunc) {
	handlers := append(append([]gin.HandlerFunc{}, guard...), ginSwagger.WrapHandler(swaggerFiles.Handler))
	engine.GET("/swagger/*any", handlers...)
}
