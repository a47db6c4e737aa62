package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/bgproc/internal/action"
	"github.com/loykin/bgproc/internal/manager"
	"github.com/loykin/bgproc/internal/metrics"
	"github.com/loykin/bgproc/internal/proc"
)

// Router exposes the action facade over HTTP for the CLI client and
// external tooling.
// Endpoints:
//
//	POST {basePath}/start    body: action.StartRequest JSON
//	GET  {basePath}/list
//	GET  {basePath}/output   query: id=... (id or name pattern)
//	GET  {basePath}/logs     query: id=...
//	POST {basePath}/kill     query: id=...
//	POST {basePath}/clear
//	GET  {basePath}/metrics
//
// Error mapping: NotFound -> 404, AmbiguousMatch -> 409,
// SpawnError/validation -> 400. A kill on an already-terminal record is
// 200 with already_terminal=true.
type Router struct {
	facade   *action.Facade
	basePath string
}

// NewRouter constructs a Router with a configurable basePath
// (e.g. "/api" yields /api/start, /api/list, ...).
func NewRouter(f *action.Facade, basePath string) *Router {
	return &Router{facade: f, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted
// in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.POST("/start", r.handleStart)
	group.GET("/list", r.handleList)
	group.GET("/output", r.handleOutput)
	group.GET("/logs", r.handleLogs)
	group.POST("/kill", r.handleKill)
	group.POST("/clear", r.handleClear)
	group.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr, basePath string, f *action.Facade) (*http.Server, error) {
	r := NewRouter(f, basePath)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}

type errorResp struct {
	Error string `json:"error"`
}

func (r *Router) handleStart(c *gin.Context) {
	var req action.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if req.Command == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "command required"})
		return
	}
	if !isSafeName(req.Name) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid name: allowed [A-Za-z0-9._-] without '..' or path separators"})
		return
	}
	if !isSafeAbsPath(req.WorkDir) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid work_dir: must be absolute path without traversal"})
		return
	}
	res, err := r.facade.StartAction(req)
	if err != nil {
		writeActionErr(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}

func (r *Router) handleList(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.facade.ListAction())
}

func (r *Router) handleOutput(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "id query param required"})
		return
	}
	res, err := r.facade.OutputAction(id)
	if err != nil {
		writeActionErr(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}

func (r *Router) handleLogs(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "id query param required"})
		return
	}
	res, err := r.facade.LogsAction(id)
	if err != nil {
		writeActionErr(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}

func (r *Router) handleKill(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "id query param required"})
		return
	}
	res, err := r.facade.KillAction(id)
	if err != nil {
		writeActionErr(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}

func (r *Router) handleClear(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.facade.ClearAction())
}

func writeActionErr(c *gin.Context, err error) {
	var nf *manager.NotFoundError
	var am *manager.AmbiguousMatchError
	var sp *proc.SpawnError
	switch {
	case errors.As(err, &nf):
		writeJSON(c, http.StatusNotFound, errorResp{Error: err.Error()})
	case errors.As(err, &am):
		writeJSON(c, http.StatusConflict, errorResp{Error: err.Error()})
	case errors.As(err, &sp):
		writeJSON(c, http.StatusBadRequest, errorResp{Error: err.Error()})
	default:
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
	}
}
