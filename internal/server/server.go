// Package server exposes the grading service over HTTP: health and agent-card
// discovery, a direct /assess endpoint, and an A2A JSON-RPC surface.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/greenbench/comtrade-bench/internal/grader"
	"github.com/greenbench/comtrade-bench/internal/tasks"
)

// Version reported in the agent card.
const Version = "0.1.0"

// Server wires the grader, task catalog, and run store into a gin router.
type Server struct {
	router  *gin.Engine
	grader  *grader.Grader
	catalog *tasks.Catalog
	store   tasks.Store
	log     logrus.FieldLogger
}

// New builds a Server with all routes registered.
func New(g *grader.Grader, catalog *tasks.Catalog, store tasks.Store, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		router:  gin.New(),
		grader:  g,
		catalog: catalog,
		store:   store,
		log:     logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(gin.Recovery())

	r.GET("/healthz", s.health)
	r.GET("/health", s.health)

	r.GET("/agent-card", s.agentCard)
	r.GET("/.well-known/agent.json", s.agentCard)
	r.GET("/.well-known/agent-card.json", s.agentCard)
	r.POST("/.well-known/agent-card.json", s.agentCard)

	r.GET("/tasks", s.listTasks)
	r.POST("/assess", s.assess)

	r.GET("/runs", s.listRuns)
	r.GET("/runs/:id", s.getRun)

	r.POST("/a2a/rpc", s.a2aRPC)
}

// Handler returns the router as an http.Handler for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves HTTP on addr until the listener fails.
func (s *Server) Run(addr string) error {
	s.log.WithField("addr", addr).Info("http server listening")
	return s.router.Run(addr)
}
