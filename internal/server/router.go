package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loykin/devsrv/internal/frontend"
	"github.com/loykin/devsrv/internal/metrics"
)

// Router provides the embeddable HTTP control surface for the
// supervisor. Endpoints under basePath:
//
//	POST /start    run StartWithFailover, return the Result
//	POST /stop     stop the dev server (idempotent)
//	POST /build    run the build command to completion
//	GET  /status   supervisor snapshot
//	GET  /healthz  single health probe of the running server
//	GET  /metrics  Prometheus exposition
type Router struct {
	sup      *frontend.Supervisor
	basePath string
}

// NewRouter constructs a Router with a configurable basePath, e.g.
// "/api" results in /api/start, /api/status, ...
func NewRouter(sup *frontend.Supervisor, basePath string) *Router {
	return &Router{sup: sup, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in
// any server or mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.POST("/start", r.handleStart)
	group.POST("/stop", r.handleStop)
	group.POST("/build", r.handleBuild)
	group.GET("/status", r.handleStatus)
	group.GET("/healthz", r.handleHealth)
	group.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr, basePath string, sup *frontend.Supervisor) *http.Server {
	r := NewRouter(sup, basePath)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0, // /start can block for the readiness window
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

func (r *Router) handleStart(c *gin.Context) {
	// Detached from the request context: the dev server must outlive
	// the HTTP call that started it.
	res := r.sup.StartWithFailover(context.Background())
	if !res.Success {
		c.JSON(http.StatusBadGateway, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (r *Router) handleStop(c *gin.Context) {
	r.sup.Stop()
	c.JSON(http.StatusOK, okResp{OK: true})
}

func (r *Router) handleBuild(c *gin.Context) {
	if !r.sup.Build(context.Background()) {
		c.JSON(http.StatusBadGateway, errorResp{Error: "build failed"})
		return
	}
	c.JSON(http.StatusOK, okResp{OK: true})
}

func (r *Router) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, r.sup.Status())
}

func (r *Router) handleHealth(c *gin.Context) {
	if r.sup.HealthCheck() {
		c.JSON(http.StatusOK, okResp{OK: true})
		return
	}
	c.JSON(http.StatusServiceUnavailable, okResp{OK: false})
}

func sanitizeBase(bp string) string {
	bp = strings.TrimSpace(bp)
	if bp == "" || bp == "/" {
		return ""
	}
	if !strings.HasPrefix(bp, "/") {
		bp = "/" + bp
	}
	return strings.TrimRight(bp, "/")
}
